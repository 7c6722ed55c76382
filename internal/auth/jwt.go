package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/SeakMengs/certportal/internal/config"
	"github.com/SeakMengs/certportal/internal/constant"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const (
	AccessTokenTTL  = 15 * time.Minute
	RefreshTokenTTL = 7 * 24 * time.Hour
)

type JWT struct {
	logger    *zap.SugaredLogger
	jwtSecret string
	now       func() time.Time
}

type JWTInterface interface {
	GenerateRefreshAndAccessToken(payload JWTPayload) (*string, *string, error)
	VerifyJwtToken(token string) (*JWTClaims, error)
}

func NewJwt(cfg config.AuthConfig, logger *zap.SugaredLogger) *JWT {
	// For unit test
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	return &JWT{
		jwtSecret: cfg.JWT_SECRET,
		logger:    logger,
		now:       time.Now,
	}
}

// JWTPayload identifies the admin a token was issued to.
type JWTPayload struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

type JWTClaims struct {
	Admin JWTPayload `json:"admin"`
	Type  string     `json:"type"`
	IAT   int64      `json:"iat"`
	EXP   int64      `json:"exp"`
}

// Return refreshToken, accessToken, error
func (j JWT) GenerateRefreshAndAccessToken(payload JWTPayload) (*string, *string, error) {
	j.logger.Debugf("Generate refresh and access token with payload: %v", payload)

	refreshToken, err := j.sign(payload, constant.JWT_TYPE_REFRESH, RefreshTokenTTL)
	if err != nil {
		return nil, nil, err
	}

	accessToken, err := j.sign(payload, constant.JWT_TYPE_ACCESS, AccessTokenTTL)
	if err != nil {
		return nil, nil, err
	}

	return &refreshToken, &accessToken, nil
}

func (j JWT) sign(payload JWTPayload, tokenType string, ttl time.Duration) (string, error) {
	if j.jwtSecret == "" {
		return "", errors.New("jwt secret is not configured")
	}

	now := j.now()
	claims := jwt.MapClaims{
		"admin": payload,
		"type":  tokenType,
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(j.jwtSecret))
}

func (j JWT) VerifyJwtToken(token string) (*JWTClaims, error) {
	claims := jwt.MapClaims{}
	parsedToken, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(j.jwtSecret), nil
	}, jwt.WithTimeFunc(j.now))
	if err != nil {
		j.logger.Debugf("Failed to verify jwt token. Error: %v", err)
		return nil, err
	}

	if !parsedToken.Valid {
		j.logger.Debug("Jwt token is not valid")
		return nil, errors.New("jwt token is not valid")
	}

	admin, ok := claims["admin"].(map[string]interface{})
	if !ok {
		return nil, errors.New("invalid token: admin field is missing or malformed")
	}

	email, _ := admin["email"].(string)
	role, _ := admin["role"].(string)
	tokenType, _ := claims["type"].(string)
	iat, _ := claims["iat"].(float64)
	exp, _ := claims["exp"].(float64)

	if email == "" || tokenType == "" {
		return nil, errors.New("invalid token: missing claims")
	}

	return &JWTClaims{
		Admin: JWTPayload{Email: email, Role: role},
		Type:  tokenType,
		IAT:   int64(iat),
		EXP:   int64(exp),
	}, nil
}
