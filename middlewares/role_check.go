package middlewares

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/bar-order-app/models"
	"github.com/yeremiapane/bar-order-app/utils"
)

// RoleCheck validates the :role path segment of the live socket against the
// authenticated role. Admins may join any feed.
func RoleCheck() gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.Param("role")
		userRole, exists := c.Get("role")

		if !exists {
			utils.RespondError(c, http.StatusUnauthorized, fmt.Errorf("unauthorized"))
			c.Abort()
			return
		}

		switch role {
		case "admin":
			if userRole != models.RoleAdmin {
				utils.RespondError(c, http.StatusForbidden, fmt.Errorf("admin access required"))
				c.Abort()
				return
			}
		case "bartender":
			if userRole != models.RoleBartender && userRole != models.RoleAdmin {
				utils.RespondError(c, http.StatusForbidden, fmt.Errorf("bartender access required"))
				c.Abort()
				return
			}
		default:
			utils.RespondError(c, http.StatusNotFound, fmt.Errorf("unknown feed %q", role))
			c.Abort()
			return
		}

		c.Next()
	}
}
