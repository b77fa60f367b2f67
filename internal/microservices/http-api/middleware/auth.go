package middleware

import (
	"net/http"
	"strings"

	"comichub/internal/microservices/http-api/models"
	"comichub/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
)

// DeviceHeader carries the client-generated id that keys anonymous history.
const DeviceHeader = "X-Device-ID"

// TokenValidator is the part of the auth service the middleware needs.
type TokenValidator interface {
	ValidateToken(tokenString string) (*service.Claims, error)
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
// present is false when no header was sent at all.
func bearerToken(c *gin.Context) (token string, present bool, ok bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false, false
	}
	parts := strings.Split(authHeader, " ") // 0 is Bearer, 1 is token
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", true, false
	}
	return parts[1], true, true
}

func setClaims(c *gin.Context, claims *service.Claims) {
	c.Set("claims", claims)
	c.Set("userID", claims.UserID)
	c.Set("email", claims.Email)
	c.Set("role", claims.Role)
}

// AuthMiddleware is a Gin middleware for JWT authentication of API requests
// It checks for the presence and validity of a JWT token in the Authorization header
func AuthMiddleware(tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, present, ok := bearerToken(c)
		if !present {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
			return
		}

		claims, err := tokens.ValidateToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		setClaims(c, claims)
		c.Next()
	}
}

// OptionalAuth sets the user when a valid token is sent and lets anonymous
// requests through. A bad token is treated as anonymous.
func OptionalAuth(tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenString, _, ok := bearerToken(c); ok {
			if claims, err := tokens.ValidateToken(tokenString); err == nil {
				setClaims(c, claims)
			}
		}
		c.Next()
	}
}

// DeviceID copies the X-Device-ID header into the context.
func DeviceID() gin.HandlerFunc {
	return func(c *gin.Context) {
		if id := strings.TrimSpace(c.GetHeader(DeviceHeader)); id != "" && len(id) <= 128 {
			c.Set("deviceID", id)
		}
		c.Next()
	}
}

// RequireRole checks if the user has the specified role
func RequireRole(requiredRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Get role from context (set by AuthMiddleware)
		userRole := c.GetString("role")
		if userRole == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "role not found in token"})
			return
		}

		if userRole != requiredRole {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":    "insufficient permissions",
				"required": requiredRole,
				"current":  userRole,
			})
			return
		}

		c.Next()
	}
}

// RequireAdmin is a convenience function for requiring admin role
func RequireAdmin() gin.HandlerFunc {
	return RequireRole(models.RoleAdmin)
}

// UserID returns the authenticated user id, or "".
func UserID(c *gin.Context) string {
	return c.GetString("userID")
}

// Viewer identifies the reader behind a request.
func Viewer(c *gin.Context) service.Viewer {
	return service.Viewer{UserID: c.GetString("userID"), DeviceID: c.GetString("deviceID")}
}
