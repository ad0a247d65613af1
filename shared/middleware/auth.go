package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
)

const AuthorizationHeader = "Authorization"

type authContextKey struct{}

// WithAuthorization stores the raw Authorization header value in ctx.
func WithAuthorization(ctx context.Context, header string) context.Context {
	return context.WithValue(ctx, authContextKey{}, header)
}

// AuthorizationFrom returns the header stored by WithAuthorization, or "".
func AuthorizationFrom(ctx context.Context) string {
	header, _ := ctx.Value(authContextKey{}).(string)
	return header
}

// CaptureAuthorization copies the Authorization header into the request
// context so handlers that only see a context.Context can forward it.
// Verification is left to the services that own the protected operations.
func CaptureAuthorization() gin.HandlerFunc {
	return func(c *gin.Context) {
		if header := c.GetHeader(AuthorizationHeader); header != "" {
			c.Request = c.Request.WithContext(WithAuthorization(c.Request.Context(), header))
		}
		c.Next()
	}
}
