package auth

import (
	"testing"
	"time"

	"github.com/SeakMengs/certportal/internal/config"
	"github.com/SeakMengs/certportal/internal/constant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Perform token generation and verify the generated token to ensure VerifyJwtToken is correct
func TestJWT(t *testing.T) {
	jwtService := NewJwt(config.AuthConfig{JWT_SECRET: "test-secret"}, nil)

	refreshToken, accessToken, err := jwtService.GenerateRefreshAndAccessToken(JWTPayload{
		Email: "admin@example.com",
		Role:  RoleAdmin,
	})
	require.NoError(t, err)

	refreshClaims, err := jwtService.VerifyJwtToken(*refreshToken)
	require.NoError(t, err)
	assert.Equal(t, constant.JWT_TYPE_REFRESH, refreshClaims.Type)
	assert.Equal(t, "admin@example.com", refreshClaims.Admin.Email)

	accessClaims, err := jwtService.VerifyJwtToken(*accessToken)
	require.NoError(t, err)
	assert.Equal(t, constant.JWT_TYPE_ACCESS, accessClaims.Type)
	assert.Equal(t, RoleAdmin, accessClaims.Admin.Role)
	assert.Equal(t, int64(AccessTokenTTL.Seconds()), accessClaims.EXP-accessClaims.IAT)
}

func TestJWTRejectsOtherSecret(t *testing.T) {
	issuer := NewJwt(config.AuthConfig{JWT_SECRET: "one"}, nil)
	verifier := NewJwt(config.AuthConfig{JWT_SECRET: "two"}, nil)

	_, accessToken, err := issuer.GenerateRefreshAndAccessToken(JWTPayload{Email: "admin@example.com", Role: RoleAdmin})
	require.NoError(t, err)

	_, err = verifier.VerifyJwtToken(*accessToken)
	assert.Error(t, err)
}

func TestJWTExpired(t *testing.T) {
	jwtService := NewJwt(config.AuthConfig{JWT_SECRET: "test-secret"}, nil)
	jwtService.now = func() time.Time { return time.Now().Add(-time.Hour) }

	_, accessToken, err := jwtService.GenerateRefreshAndAccessToken(JWTPayload{Email: "admin@example.com", Role: RoleAdmin})
	require.NoError(t, err)

	jwtService.now = time.Now
	_, err = jwtService.VerifyJwtToken(*accessToken)
	assert.Error(t, err)
}

func TestJWTWithoutSecret(t *testing.T) {
	jwtService := NewJwt(config.AuthConfig{}, nil)

	_, _, err := jwtService.GenerateRefreshAndAccessToken(JWTPayload{Email: "admin@example.com"})
	assert.Error(t, err)
}

func TestAdminAuthenticator(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)

	authenticator := NewAdminAuthenticator(config.AuthConfig{
		ADMIN_EMAIL:         "Admin@Example.com",
		ADMIN_PASSWORD_HASH: hash,
	})

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  bool
	}{
		{"valid credentials", "admin@example.com", "s3cret", false},
		{"email is case insensitive", "  ADMIN@example.com ", "s3cret", false},
		{"wrong password", "admin@example.com", "nope", true},
		{"unknown email", "other@example.com", "s3cret", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := authenticator.Authenticate(tt.email, tt.password)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidCredentials)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "admin@example.com", payload.Email)
			assert.Equal(t, RoleAdmin, payload.Role)
		})
	}

	_, err = NewAdminAuthenticator(config.AuthConfig{}).Authenticate("a@b.c", "x")
	assert.Error(t, err)
}
