// Package handlers provides the REST API served to the local browser UI.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/statistics102/course-monitor/internal/errors"
	"github.com/statistics102/course-monitor/internal/logging"
)

// Response is the JSON envelope of every non-file reply.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorBody  `json:"error,omitempty"`
}

// ErrorBody carries a user-facing message and a machine code.
type ErrorBody struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Messages shown when the failure detail is not meant for the user.
const (
	SubmitFailedMessage = "There was an error submitting your form. Please try again."
	InternalMessage     = "Something went wrong. Please try again."
)

func ok(c *gin.Context, status int, data interface{}) {
	c.JSON(status, Response{Success: true, Data: data})
}

func fail(c *gin.Context, status int, code apperrors.ErrorCode, message string) {
	c.JSON(status, Response{Success: false, Error: &ErrorBody{Message: message, Code: string(code)}})
}

// writeError maps err to a status code. Only codes that carry a
// user-facing message expose it; the rest get fallback.
func writeError(c *gin.Context, err error, fallback string) {
	code := apperrors.CodeOf(err)
	switch code {
	case apperrors.ErrNoData, apperrors.ErrInvalid:
		fail(c, http.StatusBadRequest, code, apperrors.MessageOf(err))
	case apperrors.ErrNotFound:
		fail(c, http.StatusNotFound, code, apperrors.MessageOf(err))
	case apperrors.ErrConfirmationRequired:
		fail(c, http.StatusConflict, code, apperrors.MessageOf(err))
	default:
		logging.Error("Request failed", err, map[string]interface{}{
			"path":       c.FullPath(),
			"request_id": RequestID(c),
		})
		fail(c, http.StatusInternalServerError, code, fallback)
	}
}
