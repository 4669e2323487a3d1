package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken is returned when a token fails signature or payload checks.
var ErrInvalidToken = errors.New("invalid token")

// Claims binds a user identity to an access scope.
type Claims struct {
	jwt.RegisteredClaims
	UserID int64  `json:"user_id"`
	Access string `json:"access"`
}

// Codec signs and verifies identity tokens with a process-wide secret.
// Tokens carry no expiry: they stay valid until removed from the user's
// stored token set. Rotating the secret invalidates everything issued
// before the rotation.
type Codec struct {
	secret []byte
}

func NewCodec(secret string) *Codec {
	return &Codec{secret: []byte(secret)}
}

// Issue signs a token binding userID to the given access scope. The jti
// claim makes every issued token distinct, so concurrent logins get
// independently revocable tokens.
func (c *Codec) Issue(userID int64, access string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       uuid.NewString(),
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
		UserID: userID,
		Access: access,
	})

	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and decodes the claims. It is purely
// cryptographic: callers still have to confirm the token is present in
// the user's stored set.
func (c *Codec) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return c.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
