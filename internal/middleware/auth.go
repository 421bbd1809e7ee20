package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tanishqkrk-asymmetri/bookleaf-mvp-sub000/internal/pkg/jwt"
	"github.com/tanishqkrk-asymmetri/bookleaf-mvp-sub000/internal/pkg/response"
)

const ContextKeyUserID = "user_id"

// Auth returns a middleware that requires a valid bearer token. With a
// disabled verifier every request passes.
func Auth(v *jwt.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !v.Enabled() {
			c.Next()
			return
		}
		claims, err := v.Parse(extractToken(c))
		if err != nil {
			response.Unauthorized(c)
			return
		}
		c.Set(ContextKeyUserID, claims.UserID)
		c.Next()
	}
}

// OptionalAuth sets the user ID if a valid token is present, but does not block the request.
func OptionalAuth(v *jwt.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if v.Enabled() {
			if claims, err := v.Parse(extractToken(c)); err == nil && claims.UserID != "" {
				c.Set(ContextKeyUserID, claims.UserID)
			}
		}
		c.Next()
	}
}

// CurrentUserID extracts the authenticated user ID from context.
func CurrentUserID(c *gin.Context) string {
	v, _ := c.Get(ContextKeyUserID)
	id, _ := v.(string)
	return id
}

// IsAuthenticated returns true if the request has a valid auth token.
func IsAuthenticated(c *gin.Context) bool {
	return CurrentUserID(c) != ""
}

func extractToken(c *gin.Context) string {
	auth := c.GetHeader("Authorization")
	if auth != "" {
		return NormalizeToken(auth)
	}
	return NormalizeToken(c.Query("token"))
}

// NormalizeToken trims spaces and strips optional Bearer prefix.
func NormalizeToken(raw string) string {
	token := strings.TrimSpace(raw)
	if token == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		return strings.TrimSpace(token[7:])
	}
	return token
}
