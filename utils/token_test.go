package authUtils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	now := time.Now()
	token, jti, exp, err := GenerateToken("secret", "u1", "authority", "w1", time.Hour, now)
	require.NoError(t, err)
	assert.NotEmpty(t, jti)
	assert.Equal(t, now.Add(time.Hour), exp)

	claims, err := ParseToken("secret", token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "authority", claims.Role)
	assert.Equal(t, "w1", claims.WardID)
	assert.Equal(t, jti, claims.Id)
}

func TestParseTokenRejects(t *testing.T) {
	token, _, _, err := GenerateToken("secret", "u1", "citizen", "", time.Hour, time.Now())
	require.NoError(t, err)

	_, err = ParseToken("other-secret", token)
	assert.Error(t, err)

	expired, _, _, err := GenerateToken("secret", "u1", "citizen", "", time.Minute, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	_, err = ParseToken("secret", expired)
	assert.Error(t, err)

	_, _, _, err = GenerateToken("", "u1", "citizen", "", time.Hour, time.Now())
	assert.Error(t, err)
}
