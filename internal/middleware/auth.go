package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/N4thh/homi-nah/pkg/response"
)

const (
	// ContextUserIDKey is the gin context key carrying the authenticated user id
	ContextUserIDKey = "user_id"
	// ContextRoleKey is the gin context key carrying the authenticated role
	ContextRoleKey = "role"

	bearerPrefix = "Bearer "
)

// AuthClaims carries the identity claims payment endpoints need
type AuthClaims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Auth validates the bearer token and exposes user_id and role to handlers
func Auth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				response.Unauthorized("Authorization header required"))
			return
		}
		if !strings.HasPrefix(header, bearerPrefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				response.Unauthorized("Bearer token required"))
			return
		}
		tokenString := strings.TrimPrefix(header, bearerPrefix)

		token, err := jwt.ParseWithClaims(tokenString, &AuthClaims{}, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				response.Unauthorized("Invalid or expired token"))
			return
		}

		claims, ok := token.Claims.(*AuthClaims)
		if !ok || claims.UserID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				response.Unauthorized("Invalid token claims"))
			return
		}

		c.Set(ContextUserIDKey, claims.UserID)
		c.Set(ContextRoleKey, claims.Role)
		c.Next()
	}
}

// UserID returns the authenticated user id set by Auth
func UserID(c *gin.Context) string {
	return c.GetString(ContextUserIDKey)
}

// Role returns the authenticated role set by Auth
func Role(c *gin.Context) string {
	return c.GetString(ContextRoleKey)
}
