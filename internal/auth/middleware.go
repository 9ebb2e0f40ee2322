package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"leadaudit/pkg/logger"
)

const ctxSessionKey = "auth_session"

// Session is the authenticated caller, built from verified claims that
// still match the user's current token version.
type Session struct {
	UserID string
	Email  string
	Name   string
}

// TokenVersions is the lookup the middleware needs from the user store.
type TokenVersions interface {
	GetTokenVersion(ctx context.Context, id string) (int, error)
}

func AuthMiddleware(tokens TokenService, versions TokenVersions) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if h == "" || !strings.HasPrefix(strings.ToLower(h), "bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		raw := strings.TrimSpace(h[len("Bearer "):])
		claims, err := tokens.Parse(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		current, err := versions.GetTokenVersion(c.Request.Context(), claims.UserID)
		if err != nil || current != claims.TokenVersion {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(ctxSessionKey, &Session{
			UserID: claims.UserID,
			Email:  claims.Email,
			Name:   claims.Name,
		})
		ctx := context.WithValue(c.Request.Context(), logger.UserIDKey, claims.UserID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// SessionFrom returns the session set by AuthMiddleware, or nil.
func SessionFrom(c *gin.Context) *Session {
	v, ok := c.Get(ctxSessionKey)
	if !ok {
		return nil
	}
	s, _ := v.(*Session)
	return s
}

// WithSession stores s on c. Tests use it to stand in for AuthMiddleware.
func WithSession(c *gin.Context, s *Session) {
	c.Set(ctxSessionKey, s)
}
