package handler

import (
	"net/http"
	"strings"

	"crewline/internal/service"

	"github.com/gin-gonic/gin"
)

const contextUserID = "userID"

// AuthMiddleware verifies the bearer token and stores the requester's user id
// on the request context.
func AuthMiddleware(tokens service.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token := strings.TrimPrefix(header, "Bearer ")
		if token == "" || token == header {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "missing bearer token",
			})
			return
		}

		userID, err := tokens.Verify(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "invalid token",
			})
			return
		}

		c.Set(contextUserID, userID)
		c.Next()
	}
}

func requesterID(c *gin.Context) string {
	return c.GetString(contextUserID)
}
