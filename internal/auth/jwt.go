package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrMissingUser  = errors.New("token carries no user id")
)

// TokenService issues and validates the bearer tokens that identify
// dashboard users
type TokenService interface {
	GenerateToken(userID string, ttl time.Duration) (string, error)
	ValidateToken(token string) (string, error)
}

type jwtService struct {
	secretKey []byte
	issuer    string
}

func NewTokenService(secretKey, issuer string) TokenService {
	return &jwtService{
		secretKey: []byte(secretKey),
		issuer:    issuer,
	}
}

func (s *jwtService) GenerateToken(userID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":     userID,
		"user_id": userID,
		"iat":     now.Unix(),
		"iss":     s.issuer,
		"exp":     now.Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secretKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken returns the user id carried in the token's sub or user_id claim
func (s *jwtService) ValidateToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return s.secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	if sub, _ := claims["sub"].(string); sub != "" {
		return sub, nil
	}
	if userID, _ := claims["user_id"].(string); userID != "" {
		return userID, nil
	}
	return "", ErrMissingUser
}
