package auth

import (
	"context"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"

	"github.com/imtaco/livecast/internal/errors"
	"github.com/imtaco/livecast/internal/jwt"
)

type Role string

const (
	RoleBroadcaster Role = "broadcaster"
	RoleViewer      Role = "viewer"
)

func (r Role) Valid() bool {
	return r == RoleBroadcaster || r == RoleViewer
}

// Identity is the authenticated caller. The zero value is an anonymous viewer.
type Identity struct {
	AccountID   string `json:"accountId"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email,omitempty"`
	Role        Role   `json:"role"`
}

func (i Identity) Anonymous() bool {
	return i.AccountID == ""
}

func (i Identity) IsBroadcaster() bool {
	return !i.Anonymous() && i.Role == RoleBroadcaster
}

type Verifier interface {
	Verify(token string) (Identity, error)
}

// Tokens turns bearer tokens into identities and back.
type Tokens struct {
	auth jwt.Auth
}

func NewTokens(auth jwt.Auth) *Tokens {
	return &Tokens{auth: auth}
}

// Verify returns an ErrUnauthorized kind for every rejected token.
func (t *Tokens) Verify(token string) (Identity, error) {
	claims, err := t.auth.Verify(token)
	if err != nil {
		// the parser's reason stays out of client messages
		return Identity{}, errors.New(errors.ErrUnauthorized, "invalid token")
	}
	role := Role(claims.Role)
	if !role.Valid() {
		return Identity{}, errors.Newf(errors.ErrUnauthorized, "unknown role %q", claims.Role)
	}
	return Identity{
		AccountID:   claims.AccountID(),
		DisplayName: claims.Name,
		Email:       claims.Email,
		Role:        role,
	}, nil
}

// Issue signs a token for id. Account storage lives elsewhere, so this backs
// tests and the token tool only.
func (t *Tokens) Issue(id Identity, ttl time.Duration) (string, error) {
	return t.auth.Sign(jwt.Claims{
		Name:             id.DisplayName,
		Email:            id.Email,
		Role:             string(id.Role),
		RegisteredClaims: gojwt.RegisteredClaims{Subject: id.AccountID},
	}, ttl)
}

type ctxKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok
}
