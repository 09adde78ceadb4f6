package jwt

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/imtaco/livecast/internal/errors"
)

// Token failures. Callers at the auth boundary fold all of them into
// errors.ErrUnauthorized.
const (
	ErrInvalidClaims errors.Code = "invalid claims"
	ErrInvalidToken  errors.Code = "invalid token"
	ErrNoToken       errors.Code = "no token"
)

// Auth signs and verifies identity tokens.
type Auth interface {
	Sign(claims Claims, ttl time.Duration) (string, error)
	Verify(tokenString string) (*Claims, error)
}

// Claims is the identity carried by a bearer token. The subject is the account id.
type Claims struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

func (c *Claims) AccountID() string {
	return c.Subject
}
