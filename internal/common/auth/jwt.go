// internal/common/auth/jwt.go
package auth

import (
	"errors"
	"fmt"
	"time"

	apperrors "provider-enrollment/internal/common/errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	RoleProvider = "provider"
	RoleAdmin    = "admin"
)

// Claims carries the authenticated user's id and role.
type Claims struct {
	UserID string `json:"id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// TokenService signs and validates HS256 bearer tokens.
type TokenService struct {
	signingKey []byte
	issuer     string
}

func NewTokenService(signingKey, issuer string) *TokenService {
	return &TokenService{
		signingKey: []byte(signingKey),
		issuer:     issuer,
	}
}

// GenerateToken issues a token for userID with the given role.
func (s *TokenService) GenerateToken(userID, role string, expiresIn time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			ID:        uuid.NewString(),
		},
	})

	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses tokenString and returns its claims.
// Tokens issued by the credential service carry no issuer, so none is required.
func (s *TokenService) ValidateToken(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.NewUnauthorizedError("token has expired")
		}
		return nil, apperrors.NewUnauthorizedError("invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.UserID == "" {
		return nil, apperrors.NewUnauthorizedError("invalid token claims")
	}

	return claims, nil
}
