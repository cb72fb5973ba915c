package utils

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		name    string
		in      any
		want    int64
		wantErr bool
	}{
		{"json number", float64(1500), 1500, false},
		{"numeric string", "1000", 1000, false},
		{"padded string", "  250 ", 250, false},
		{"decimal string truncates", "99.9", 99, false},
		{"empty string", "", 0, true},
		{"not a number", "abc", 0, true},
		{"nil", nil, 0, true},
		{"bool", true, 0, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseAmount(tc.in)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseCount(t *testing.T) {
	n, err := ParseCount("14")
	require.NoError(t, err)
	assert.Equal(t, 14, n)

	_, err = ParseCount("two weeks")
	assert.Error(t, err)
}

func TestSignJWTRoundTrip(t *testing.T) {
	token, err := SignJWT("secret", "user-123", "developer", 60)
	require.NoError(t, err)

	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte("secret"), nil
	})
	require.NoError(t, err)
	require.True(t, parsed.Valid)

	claims, ok := parsed.Claims.(*Claims)
	require.True(t, ok)
	assert.Equal(t, "user-123", claims.UserID)
	assert.Equal(t, "developer", claims.Role)
	assert.NotNil(t, claims.ExpiresAt)

	_, err = jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte("wrong-secret"), nil
	})
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hashed, err := HashPassword("Secret123!")
	require.NoError(t, err)
	assert.NotEqual(t, "Secret123!", hashed)

	assert.True(t, CheckPassword(hashed, "Secret123!"))
	assert.False(t, CheckPassword(hashed, "wrong"))
	assert.False(t, CheckPassword("not-a-hash", "Secret123!"))
}
