package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
)

const (
	UserContextKey = "userID"
	RoleContextKey = "userRole"

	AdminRole = "admin"
)

type claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func parseToken(c *gin.Context, secret string) (*claims, error) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return nil, errors.New("missing Authorization header")
	}
	tokenStr := strings.TrimPrefix(header, "Bearer ")
	if tokenStr == header {
		return nil, errors.New("malformed Authorization header")
	}

	parsed := &claims{}
	token, err := jwt.ParseWithClaims(tokenStr, parsed, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid || parsed.Subject == "" {
		return nil, errors.New("invalid token")
	}
	return parsed, nil
}

// AuthMiddleware rejects requests without a valid bearer token.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		parsed, err := parseToken(c, secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Set(UserContextKey, parsed.Subject)
		c.Set(RoleContextKey, parsed.Role)
		c.Next()
	}
}

// OptionalAuthMiddleware attaches the user when a valid token is present and
// lets the request through as a guest otherwise. Checkout uses it so guests
// and registered shoppers share one endpoint.
func OptionalAuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if parsed, err := parseToken(c, secret); err == nil {
			c.Set(UserContextKey, parsed.Subject)
			c.Set(RoleContextKey, parsed.Role)
		}
		c.Next()
	}
}

// AdminOnly gates a route on the admin role. Must run after AuthMiddleware.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if role, _ := c.Get(RoleContextKey); role != AdminRole {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
			return
		}
		c.Next()
	}
}

// GetUserID returns the authenticated user's id from the request context.
func GetUserID(c *gin.Context) (string, error) {
	if val, ok := c.Get(UserContextKey); ok {
		if id, ok := val.(string); ok && id != "" {
			return id, nil
		}
	}
	return "", errors.New("user ID not found in context")
}

// IsAdmin reports whether the request carries the admin role.
func IsAdmin(c *gin.Context) bool {
	role, _ := c.Get(RoleContextKey)
	return role == AdminRole
}
