// Package identity validates the bearer tokens issued by the identity
// provider. The engine treats identity as an external collaborator: all it
// consumes from a token is the user's email, which the household directory
// resolves to a household.
package identity

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"beredskap/internal/platform/middleware"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// JWTValidator validates HS256 tokens signed with a shared secret.
type JWTValidator struct {
	signingKey []byte
}

type claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

func NewJWTValidator(signingKey string) *JWTValidator {
	return &JWTValidator{signingKey: []byte(signingKey)}
}

// ValidateToken implements middleware.TokenValidator.
func (v *JWTValidator) ValidateToken(tokenString string) (*middleware.TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return v.signingKey, nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid || c.Email == "" {
		return nil, ErrInvalidToken
	}
	return &middleware.TokenClaims{Email: c.Email}, nil
}
