package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/quickcook/quickcook/internal/auth"
)

// Keep this small interface so tests can fake it easily.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

type AuthMiddleware struct {
	jwt TokenVerifier
}

func NewAuthMiddleware(jwt TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{jwt: jwt}
}

// RequireAuth answers one uniform 401 for every failure mode: absent
// header, malformed header, bad signature, expired token. The caller
// never learns which one it was.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			abortUnauthorized(c)
			return
		}

		raw := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
		if raw == "" {
			abortUnauthorized(c)
			return
		}

		claims, err := m.jwt.Verify(raw)
		if err != nil {
			abortUnauthorized(c)
			return
		}

		SetIdentity(c, claims.Subject, claims.Username, claims.Email)

		c.Next()
	}
}

// SetIdentity stashes the verified identity on the request context.
func SetIdentity(c *gin.Context, userID, username, email string) {
	c.Set(ctxUserIDKey, userID)
	c.Set(ctxUsernameKey, username)
	c.Set(ctxEmailKey, email)
}

func abortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": gin.H{
			"code":    "unauthorized",
			"message": "Invalid or missing access token",
		},
	})
}

// Helpers so handlers don't need to know the magic keys.

func UserIDFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxUserIDKey)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok
}

func UsernameFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxUsernameKey)
	if !ok {
		return "", false
	}
	name, ok := v.(string)
	return name, ok
}
