// Package auth issues and verifies the credentials the API accepts: signed
// access/refresh token pairs and password reset tokens. It also defines the
// Caller identity that handlers pass explicitly to services.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/projecthub/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type TokenType string

const (
	AccessToken  TokenType = "access"
	RefreshToken TokenType = "refresh"
)

// Claims are the registered JWT claims plus the user id and token type.
type Claims struct {
	jwt.RegisteredClaims
	UserID    string    `json:"user_id"`
	TokenType TokenType `json:"token_type"`
}

// TokenPair is returned on login and registration.
type TokenPair struct {
	Refresh string `json:"refresh"`
	Access  string `json:"access"`
}

// GenerateToken signs an HS256 token of the given type for userID.
func GenerateToken(userID string, typ TokenType, secretKey []byte, validityDuration time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
		},
		UserID:    userID,
		TokenType: typ,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ParseToken checks signature, expiry and type and returns the user id.
// Expired tokens yield common.ErrTokenExpired, anything else wrong
// common.ErrTokenInvalid.
func ParseToken(tokenString string, want TokenType, secretKey []byte) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", common.ErrTokenExpired
		}
		return "", fmt.Errorf("%w: %v", common.ErrTokenInvalid, err)
	}

	if !token.Valid || claims.UserID == "" || claims.TokenType != want {
		return "", common.ErrTokenInvalid
	}

	return claims.UserID, nil
}

// TokenService mints and checks session tokens with one process-wide secret.
type TokenService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewTokenService(secret []byte, accessTTL, refreshTTL time.Duration) *TokenService {
	return &TokenService{secret: secret, accessTTL: accessTTL, refreshTTL: refreshTTL}
}

// Issue returns a fresh access/refresh pair for userID.
func (s *TokenService) Issue(userID string) (*TokenPair, error) {
	access, err := GenerateToken(userID, AccessToken, s.secret, s.accessTTL)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := GenerateToken(userID, RefreshToken, s.secret, s.refreshTTL)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}
	return &TokenPair{Refresh: refresh, Access: access}, nil
}

func (s *TokenService) VerifyAccess(token string) (string, error) {
	return ParseToken(token, AccessToken, s.secret)
}

func (s *TokenService) VerifyRefresh(token string) (string, error) {
	return ParseToken(token, RefreshToken, s.secret)
}

// Refresh exchanges a valid refresh token for a new access token. The
// refresh token itself stays valid until it expires.
func (s *TokenService) Refresh(refreshToken string) (string, error) {
	userID, err := s.VerifyRefresh(refreshToken)
	if err != nil {
		return "", err
	}
	return GenerateToken(userID, AccessToken, s.secret, s.accessTTL)
}
