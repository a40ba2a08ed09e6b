package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-jwt-secret-32bytes-padded!!"

func TestGenerateToken_Valid(t *testing.T) {
	tok, err := GenerateToken("u-42", testSecret, time.Hour)
	require.NoError(t, err)
	assert.NotEmpty(t, tok)
}

func TestParseToken_Valid(t *testing.T) {
	tok, err := GenerateToken("u-99", testSecret, time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(tok, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "u-99", claims.UserID)
	assert.Equal(t, "u-99", claims.Subject)
	assert.NotEmpty(t, claims.ID)
}

func TestParseToken_WrongSecret(t *testing.T) {
	tok, err := GenerateToken("u-1", testSecret, time.Hour)
	require.NoError(t, err)

	_, err = ParseToken(tok, "wrong-secret")
	assert.Error(t, err)
}

func TestParseToken_Expired(t *testing.T) {
	tok, err := GenerateToken("u-1", testSecret, -time.Second)
	require.NoError(t, err)

	_, err = ParseToken(tok, testSecret)
	assert.Error(t, err)
}

func TestParseToken_EmptyUser(t *testing.T) {
	tok, err := GenerateToken("", testSecret, time.Hour)
	require.NoError(t, err)

	_, err = ParseToken(tok, testSecret)
	assert.Error(t, err)
}

func TestParseToken_Malformed(t *testing.T) {
	_, err := ParseToken("not.a.jwt", testSecret)
	assert.Error(t, err)
}

func TestParseToken_Empty(t *testing.T) {
	_, err := ParseToken("", testSecret)
	assert.Error(t, err)
}

func TestGenerateToken_UniquePerCall(t *testing.T) {
	t1, _ := GenerateToken("u-1", testSecret, time.Hour)
	t2, _ := GenerateToken("u-1", testSecret, time.Hour)
	assert.NotEqual(t, t1, t2)

	t3, _ := GenerateToken("u-2", testSecret, time.Hour)
	c1, _ := ParseToken(t1, testSecret)
	c3, _ := ParseToken(t3, testSecret)
	assert.Equal(t, "u-1", c1.UserID)
	assert.Equal(t, "u-2", c3.UserID)
}
