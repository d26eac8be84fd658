package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	bookingDomain "github.com/urbanfix/service-booking/internal/domain/booking"
)

const actorContextKey = "auth.actor"

// Authenticate verifies the Bearer token and stores the resolved actor in the
// request context. Requests without a valid token are rejected with 401.
func Authenticate(manager *JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "missing authorization header",
			})
			return
		}

		tokenStr, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "invalid authorization header",
			})
			return
		}

		claims, err := manager.Verify(tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "invalid or expired token",
			})
			return
		}

		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "invalid token subject",
			})
			return
		}

		role, err := bookingDomain.ParseRole(claims.Role)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "invalid token role",
			})
			return
		}

		c.Set(actorContextKey, bookingDomain.Actor{ID: userID, Role: role})
		c.Next()
	}
}

// RequireAdmin rejects requests whose actor is not an admin. It must run
// after Authenticate.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := GetActor(c)
		if !ok || !actor.Role.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"error":   "admin access required",
			})
			return
		}
		c.Next()
	}
}

// GetActor returns the authenticated actor stored by Authenticate.
func GetActor(c *gin.Context) (bookingDomain.Actor, bool) {
	v, exists := c.Get(actorContextKey)
	if !exists {
		return bookingDomain.Actor{}, false
	}
	actor, ok := v.(bookingDomain.Actor)
	return actor, ok
}
