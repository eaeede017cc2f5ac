package middleware

import (
	"net/http"
	"strings"

	"road-risk-api/services"

	"github.com/gin-gonic/gin"
)

const (
	ContextUserID = "user_id"
	ContextRole   = "role"
)

// RequireAuth rejects requests without a valid bearer token.
func RequireAuth(auth *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := bearerClaims(c, auth)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or missing token"})
			return
		}
		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextRole, claims.Role)
		c.Next()
	}
}

// OptionalAuth identifies the caller when a valid token is present and lets
// anonymous requests through otherwise.
func OptionalAuth(auth *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, ok := bearerClaims(c, auth); ok {
			c.Set(ContextUserID, claims.UserID)
			c.Set(ContextRole, claims.Role)
		}
		c.Next()
	}
}

// UserID returns the authenticated user or 0.
func UserID(c *gin.Context) uint {
	return c.GetUint(ContextUserID)
}

func bearerClaims(c *gin.Context, auth *services.AuthService) (*services.Claims, bool) {
	header := c.GetHeader("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		return nil, false
	}
	claims, err := auth.ParseToken(token)
	if err != nil {
		return nil, false
	}
	return claims, true
}
