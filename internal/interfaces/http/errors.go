package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/brushline/paintquote/internal/domain/apperr"
)

// statusFor maps an application error to an HTTP status code
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperr.ErrValidation), errors.Is(err, apperr.ErrSchemeCoverage):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrNotFound), errors.Is(err, apperr.ErrPaymentRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrInvalidTransition),
		errors.Is(err, apperr.ErrInvalidJobState),
		errors.Is(err, apperr.ErrConcurrentModification):
		return http.StatusConflict
	case errors.Is(err, apperr.ErrAmountMismatch):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// writeError logs err and renders it in the standard response envelope.
// Internal failures are not echoed to the client.
func writeError(c *gin.Context, logger Logger, op string, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logger.Error(op+" failed", "error", err, "path", c.Request.URL.Path)
		msg = op + " failed"
	} else {
		logger.Info(op+" rejected", "error", err, "status", status)
	}
	if apperr.IsRetryable(err) {
		c.Header("Retry-After", "1")
	}
	c.JSON(status, Response{Success: false, Error: msg})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, Response{Success: false, Error: msg})
}
