package middlewares

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/bar-order-app/tablesession"
	"github.com/yeremiapane/bar-order-app/utils"
)

const TableTokenCookie = "table_token"

// SessionAuthorizer is the part of the table session guard the gate needs.
type SessionAuthorizer interface {
	Authorize(ctx context.Context, tableID, token string) (*tablesession.Session, error)
}

// TableToken reads a table token from the X-Table-Token header, the
// table_token cookie or the token query parameter, in that order.
func TableToken(c *gin.Context) string {
	if t := c.GetHeader("X-Table-Token"); t != "" {
		return t
	}
	if t, err := c.Cookie(TableTokenCookie); err == nil && t != "" {
		return t
	}
	return c.Query("token")
}

// TableSessionGate admits a request to /tables/:tableId/... only with a live
// session for that table.
func TableSessionGate(guard SessionAuthorizer) gin.HandlerFunc {
	return func(c *gin.Context) {
		tableID := c.Param("tableId")
		sess, err := guard.Authorize(c.Request.Context(), tableID, TableToken(c))
		if err != nil {
			if !errors.Is(err, tablesession.ErrSessionRequired) {
				utils.ErrLogger().WithError(err).WithField("tableId", tableID).Error("Table session lookup failed")
			}
			utils.RespondError(c, http.StatusUnauthorized, errors.New("table session required, scan the table QR code"))
			c.Abort()
			return
		}

		c.Set("tableSession", sess)
		c.Next()
	}
}
