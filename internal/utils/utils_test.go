package utils

import (
	"testing"

	"dryfruit_back_end/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("almond-milk")
	require.NoError(t, err)
	assert.True(t, IsArgon2Hash(hash))

	ok, err := VerifyPassword("almond-milk", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("cashew", hash)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = VerifyPassword("x", "garbage")
	assert.ErrorIs(t, err, ErrInvalidHash)
}

func TestVerifyLegacyBcrypt(t *testing.T) {
	h, err := bcrypt.GenerateFromPassword([]byte("pistachio"), bcrypt.MinCost)
	require.NoError(t, err)

	ok, err := VerifyPassword("pistachio", string(h))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("walnut", string(h))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestJWTRoundTrip(t *testing.T) {
	u := &models.User{ID: primitive.NewObjectID(), Email: "a@b.c", Role: models.RoleAdmin}
	token, claims, err := GenerateJWT("secret", u)
	require.NoError(t, err)
	assert.NotEmpty(t, claims.ID)

	parsed, err := ParseJWT("secret", token)
	require.NoError(t, err)
	assert.Equal(t, u.ID.Hex(), parsed.UserID)
	assert.Equal(t, models.RoleAdmin, parsed.Role)
	assert.Equal(t, claims.ID, parsed.ID)
	assert.Greater(t, parsed.Remaining().Hours(), 23.0)

	_, err = ParseJWT("other", token)
	assert.Error(t, err)

	_, _, err = GenerateJWT("", u)
	assert.Error(t, err)
}

func TestVerificationCode(t *testing.T) {
	code, err := VerificationCode()
	require.NoError(t, err)
	assert.Len(t, code, 6)
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "premium-kashmiri-walnuts", Slugify("  Premium Kashmiri  Walnuts! "))
	assert.Equal(t, "mixed-nuts-500g", Slugify("Mixed Nuts (500g)"))
	assert.Equal(t, "", Slugify("!!!"))
}
