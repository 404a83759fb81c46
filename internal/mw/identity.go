package mw

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// userIDKey is the context key holding the authenticated user id.
const userIDKey = "user_id"

// Identity reads the authenticated user id from the given trusted header,
// set by the upstream authentication proxy. Requests without a valid id are
// rejected; the service itself performs no credential checks.
func Identity(header string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(header)
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		userID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid user identity"})
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

// CurrentUserID returns the user id set by the Identity middleware.
func CurrentUserID(c *gin.Context) (int64, bool) {
	v, ok := c.Get(userIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}
