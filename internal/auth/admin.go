package auth

import (
	"crypto/subtle"
	"errors"
	"strings"

	"github.com/SeakMengs/certportal/internal/config"
	"golang.org/x/crypto/bcrypt"
)

const RoleAdmin = "admin"

var ErrInvalidCredentials = errors.New("invalid email or password")

// Admins are configured through the environment, there is no user table.
type AdminAuthenticator struct {
	email        string
	passwordHash []byte
}

func NewAdminAuthenticator(cfg config.AuthConfig) *AdminAuthenticator {
	return &AdminAuthenticator{
		email:        strings.ToLower(strings.TrimSpace(cfg.ADMIN_EMAIL)),
		passwordHash: []byte(cfg.ADMIN_PASSWORD_HASH),
	}
}

func (a *AdminAuthenticator) Authenticate(email, password string) (*JWTPayload, error) {
	if a.email == "" || len(a.passwordHash) == 0 {
		return nil, errors.New("admin account is not configured")
	}

	email = strings.ToLower(strings.TrimSpace(email))
	if subtle.ConstantTimeCompare([]byte(email), []byte(a.email)) != 1 {
		// Still hash to keep timing similar for unknown emails
		_ = bcrypt.CompareHashAndPassword(a.passwordHash, []byte(password))
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword(a.passwordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return &JWTPayload{Email: a.email, Role: RoleAdmin}, nil
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
