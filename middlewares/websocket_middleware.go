package middlewares

import (
	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/bar-order-app/utils"
)

// WebSocketAuthMiddleware authenticates socket upgrades, which cannot carry
// an Authorization header from the browser, by the token query parameter.
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
		c.Set("userID", claims.UserID)
		c.Next()
	}
}
