package middlewares

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/bar-order-app/utils"
	"golang.org/x/time/rate"
)

// PaymentRateLimiter throttles payment mutations across all clients.
func PaymentRateLimiter(perSecond float64, burst int) gin.HandlerFunc {
	limiter := rate.NewLimiter(rate.Limit(perSecond), burst)
	return func(c *gin.Context) {
		if !limiter.Allow() {
			utils.RespondError(c, http.StatusTooManyRequests, errors.New("please wait before making another payment request"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// LogPaymentRequest writes an audit line for every payment mutation.
func LogPaymentRequest() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		utils.Logger().WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start),
			"userID":   c.GetString("userID"),
			"tableId":  c.Param("tableId"),
		}).Info("Payment request")
	}
}
