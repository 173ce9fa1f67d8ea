package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type JSONResponse struct {
	Status  bool        `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func RespondJSON(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, JSONResponse{
		Status:  code >= 200 && code < 300,
		Message: message,
		Data:    data,
	})
}

func RespondError(c *gin.Context, code int, err error) {
	c.JSON(code, JSONResponse{
		Status:  false,
		Message: err.Error(),
		Data:    nil,
	})
}

// FieldErrors maps field names to human-readable validation messages.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	return "validation failed"
}

// RespondValidationError surfaces per-field reasons so clients can highlight
// the offending inputs.
func RespondValidationError(c *gin.Context, fields FieldErrors) {
	c.JSON(http.StatusBadRequest, gin.H{
		"status":  false,
		"message": "validation failed",
		"errors":  fields,
	})
}
