package httputil

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/imtaco/livecast/internal/errors"
)

var kindStatus = map[errors.Code]int{
	errors.ErrValidation:   http.StatusBadRequest,
	errors.ErrUnauthorized: http.StatusUnauthorized,
	errors.ErrForbidden:    http.StatusForbidden,
	errors.ErrNotFound:     http.StatusNotFound,
	errors.ErrConflict:     http.StatusConflict,
	errors.ErrPrecondition: http.StatusConflict,
	errors.ErrUpload:       http.StatusInternalServerError,
	errors.ErrServer:       http.StatusInternalServerError,
}

// StatusOf maps an error to its HTTP status through its kind.
func StatusOf(err error) int {
	return kindStatus[errors.KindOf(err)]
}

// AbortWithError writes the error envelope and stops the handler chain. details is
// omitted when nil.
func AbortWithError(c *gin.Context, err error, details any) {
	body := gin.H{
		"success": false,
		"error":   errors.Message(err),
		"kind":    string(errors.KindOf(err)),
	}
	if details != nil {
		body["details"] = details
	}
	c.AbortWithStatusJSON(StatusOf(err), body)
}
