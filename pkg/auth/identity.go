// Package auth reads display identity out of tokens minted by the suite's
// identity provider. The meeting server never makes authorization decisions
// from these claims; they only prefill the name and email shown to other
// participants.
package auth

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid identity token")

// IdentityClaims are the display claims carried by the provider's tokens.
type IdentityClaims struct {
	jwt.RegisteredClaims
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Verifier extracts identity claims from a bearer token. With a secret
// configured the token signature is checked (HS256); without one the claims
// are read unverified, which is acceptable for display-only metadata.
type Verifier struct {
	secret []byte
}

// NewVerifier creates a Verifier. An empty secret disables signature checks.
func NewVerifier(secret string) *Verifier {
	v := &Verifier{}
	if secret != "" {
		v.secret = []byte(secret)
	}
	return v
}

// Identity parses the token and returns the name and email claims.
func (v *Verifier) Identity(tokenString string) (name, email string, err error) {
	claims := &IdentityClaims{}

	if v.secret == nil {
		if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
			return "", "", ErrInvalidToken
		}
		return claims.Name, claims.Email, nil
	}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return "", "", ErrInvalidToken
	}

	return claims.Name, claims.Email, nil
}
