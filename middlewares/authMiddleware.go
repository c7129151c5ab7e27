package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"wardsync/apperrors"
	"wardsync/models"
	"wardsync/services"
)

const (
	SessionKey = "session"
	// AuthCookie is set by login for browser clients.
	AuthCookie = "auth_token"
)

func AuthMiddleware(auth *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "No authorization token provided"})
			return
		}

		sess, err := auth.Authenticate(c.Request.Context(), tokenString)
		if err != nil {
			c.AbortWithStatusJSON(apperrors.HTTPStatus(err), gin.H{"error": apperrors.Message(err)})
			return
		}

		c.Set(SessionKey, *sess)
		c.Next()
	}
}

// RequireRole lets the request through only for the listed roles.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := CurrentSession(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
			return
		}
		for _, r := range roles {
			if sess.Role == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Access denied"})
	}
}

// CurrentSession returns the session stored by AuthMiddleware.
func CurrentSession(c *gin.Context) (models.Session, bool) {
	v, exists := c.Get(SessionKey)
	if !exists {
		return models.Session{}, false
	}
	sess, ok := v.(models.Session)
	return sess, ok
}

// bearerToken reads "Bearer <token>" from the Authorization header, falling
// back to the auth cookie.
func bearerToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	if cookie, err := c.Cookie(AuthCookie); err == nil {
		return cookie
	}
	return ""
}
