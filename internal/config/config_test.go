package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("SMTP_PORT", "not-a-number")
	t.Setenv("SCYLLA_HOSTS", " 10.0.0.1, ,10.0.0.2 ")
	t.Setenv("MINIO_USE_SSL", "TRUE")
	t.Setenv("JWT_SECRET", "")

	cfg := FromEnv()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 587, cfg.SMTPPort)
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, cfg.ScyllaHosts)
	assert.True(t, cfg.MinioUseSSL)
	assert.Contains(t, cfg.Validate(), "JWT_SECRET")
}
