package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func sign(t *testing.T, secret, name, email string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &IdentityClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Name:  name,
		Email: email,
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestVerifier_WithSecret_ChecksSignature(t *testing.T) {
	req := require.New(t)
	v := NewVerifier("secret")

	name, email, err := v.Identity(sign(t, "secret", "Alice", "alice@example.com"))
	req.NoError(err)
	req.Equal("Alice", name)
	req.Equal("alice@example.com", email)

	_, _, err = v.Identity(sign(t, "wrong-secret", "Mallory", ""))
	req.ErrorIs(err, ErrInvalidToken)

	_, _, err = v.Identity("garbage")
	req.ErrorIs(err, ErrInvalidToken)
}

func TestVerifier_WithoutSecret_ReadsClaimsUnverified(t *testing.T) {
	req := require.New(t)
	v := NewVerifier("")

	name, email, err := v.Identity(sign(t, "any-secret", "Bob", "bob@example.com"))
	req.NoError(err)
	req.Equal("Bob", name)
	req.Equal("bob@example.com", email)

	_, _, err = v.Identity("not.a.token")
	req.ErrorIs(err, ErrInvalidToken)
}
