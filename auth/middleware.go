package auth

import (
	"github.com/gin-gonic/gin"

	"github.com/imtaco/livecast/internal/errors"
	"github.com/imtaco/livecast/internal/httputil"
)

const identityKey = "identity"

// Middleware requires a valid bearer token and stores the identity on the request.
func Middleware(v Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := httputil.BearerToken(c.Request)
		if token == "" {
			httputil.AbortWithError(c, errors.New(errors.ErrUnauthorized, "missing bearer token"), nil)
			return
		}
		id, err := v.Verify(token)
		if err != nil {
			httputil.AbortWithError(c, err, nil)
			return
		}
		c.Set(identityKey, id)
		c.Request = c.Request.WithContext(WithIdentity(c.Request.Context(), id))
		c.Next()
	}
}

// RequireRole must run after Middleware.
func RequireRole(role Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := Current(c)
		if !ok {
			httputil.AbortWithError(c, errors.New(errors.ErrUnauthorized, "not authenticated"), nil)
			return
		}
		if id.Role != role {
			httputil.AbortWithError(c, errors.Newf(errors.ErrForbidden, "requires role %s", role), nil)
			return
		}
		c.Next()
	}
}

func Current(c *gin.Context) (Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return Identity{}, false
	}
	id, ok := v.(Identity)
	return id, ok
}
