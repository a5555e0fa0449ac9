package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/maruel/ksid"

	"github.com/imserv/voltage/internal/errors"
	"github.com/imserv/voltage/internal/models"
)

// Claims are the contents of a session token.
type Claims struct {
	Email     string `json:"email"`
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

func (a *Auth) issueToken(user *models.User) (string, error) {
	now := a.now()
	claims := Claims{
		Email:     user.Email,
		SessionID: ksid.NewID().String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.tokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return s, nil
}

// ParseToken verifies a token issued by this Auth and returns its claims.
func (a *Auth) ParseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secret, nil
	}, jwt.WithTimeFunc(a.now))
	if err != nil || !token.Valid {
		return nil, errors.Unauthorized().Wrap(err)
	}
	if claims.Subject == "" {
		return nil, errors.Unauthorized().WithDetail("reason", "token has no subject")
	}
	return claims, nil
}
