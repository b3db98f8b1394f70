package services

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectName(t *testing.T) {
	name, err := ObjectName("abc123", "image/PNG")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(name, "products/abc123/"))
	assert.True(t, strings.HasSuffix(name, ".png"))

	other, err := ObjectName("abc123", "image/png")
	require.NoError(t, err)
	assert.NotEqual(t, name, other)

	_, err = ObjectName("abc123", "application/pdf")
	assert.ErrorIs(t, err, ErrNotImage)
}

func TestImageStoreDisabled(t *testing.T) {
	s := NewImageStore(nil, "localhost:9000", "products", false)
	assert.False(t, s.Enabled())
	assert.Equal(t, "http://localhost:9000/products/products/x.png", s.PublicURL("products/x.png"))

	_, err := s.Upload(context.Background(), "p1", nil)
	assert.ErrorIs(t, err, ErrStorageDisabled)
}

func TestSearchBody(t *testing.T) {
	raw, err := searchBody("cashew", 0)
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, 100.0, body["size"])

	q := body["query"].(map[string]interface{})["bool"].(map[string]interface{})
	mm := q["must"].(map[string]interface{})["multi_match"].(map[string]interface{})
	assert.Equal(t, "cashew", mm["query"])
	assert.Equal(t, "AUTO", mm["fuzziness"])
}

func TestSearchDisabled(t *testing.T) {
	s := NewSearch(nil)
	assert.False(t, s.Enabled())
	_, err := s.SearchIDs(context.Background(), "almond", 10)
	assert.ErrorIs(t, err, ErrSearchDisabled)
	s.Index(context.Background(), nil)
	s.Remove(context.Background(), "x")
}
