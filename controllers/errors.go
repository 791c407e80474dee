package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/bar-order-app/services"
	"github.com/yeremiapane/bar-order-app/tablesession"
	"github.com/yeremiapane/bar-order-app/utils"
)

// ErrNoPermission is returned to authenticated users outside the required role.
var ErrNoPermission = &CustomError{"You do not have permission"}

type CustomError struct {
	Message string
}

func (e *CustomError) Error() string {
	return e.Message
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrNotFound), errors.Is(err, tablesession.ErrTableNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrInvalidArgument),
		errors.Is(err, services.ErrInvalidTransition),
		errors.Is(err, services.ErrAlreadyPaid),
		errors.Is(err, services.ErrNotPaid),
		errors.Is(err, services.ErrAlreadyRefunded),
		errors.Is(err, tablesession.ErrTokenRequired):
		return http.StatusBadRequest
	case errors.Is(err, tablesession.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, tablesession.ErrInvalidToken), errors.Is(err, tablesession.ErrSessionRequired):
		return http.StatusUnauthorized
	case errors.Is(err, ErrNoPermission):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// respondServiceError writes err with its mapped status. Unexpected errors
// are logged and hidden behind a generic message.
func respondServiceError(c *gin.Context, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		utils.ErrLogger().WithError(err).WithField("path", c.FullPath()).Error("Request failed")
		utils.RespondError(c, code, errors.New("internal server error"))
		return
	}
	utils.RespondError(c, code, err)
}
