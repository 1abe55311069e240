package handler

import (
	"net/http"

	"crewline/internal/apperr"

	"github.com/gin-gonic/gin"
)

// respondOK wraps a payload in the platform's uniform success envelope.
func respondOK(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

// respondError maps the error taxonomy onto HTTP status codes and the
// uniform {success, message} shape the clients expect.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		status = http.StatusBadRequest
	case apperr.KindAuthorization:
		status = http.StatusForbidden
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindConflict:
		status = http.StatusConflict
	}

	message := err.Error()
	if status == http.StatusInternalServerError {
		// Internal detail stays in the logs.
		message = "internal error"
	}

	c.JSON(status, gin.H{
		"success": false,
		"message": message,
	})
}
