package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/voxrelay/errors"
)

// MessageResponse is the plain error envelope, {"error": "..."}.
type MessageResponse struct {
	Error string `json:"error"`
}

// RespondWithError inspects err: an *apperrors.AppError sets the status and
// structured body; anything else becomes a generic 500.
func RespondWithError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.HTTPStatus, appErr.ToResponse())
		return
	}
	c.JSON(http.StatusInternalServerError, apperrors.Internal(err).ToResponse())
}

// RespondWithMessage sends {"error": message} with the AppError's status, or
// a 500 with a generic message.
func RespondWithMessage(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.HTTPStatus, MessageResponse{Error: appErr.Message})
		return
	}
	c.JSON(http.StatusInternalServerError, MessageResponse{Error: "Internal server error"})
}

// Error sends {"error": message} with status.
func Error(c *gin.Context, status int, message string) {
	c.JSON(status, MessageResponse{Error: message})
}
