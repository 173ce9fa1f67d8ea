package middlewares

import (
	"github.com/gin-gonic/gin"

	"github.com/CyberMehedi/F-Year/utils"
)

// WebSocketAuthMiddleware authenticates websocket upgrades via a token query
// parameter, since browsers cannot set headers on websocket handshakes.
func WebSocketAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.AbortWithStatus(401)
			return
		}

		claims, err := utils.ParseToken(token)
		if err != nil {
			c.AbortWithStatus(401)
			return
		}

		c.Set("role", claims.Role)
		c.Set("user_id", claims.UserID)

		c.Next()
	}
}
