package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"docstracker/internal/domain"
	"docstracker/internal/middleware"
)

// APIResponse is the standard envelope for all API responses.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
}

// APIError holds error details in the response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RespondOK sends a 200 success response.
func RespondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}

// RespondCreated sends a 201 success response.
func RespondCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, APIResponse{Success: true, Data: data})
}

// RespondError sends an error response with the given status code.
func RespondError(c *gin.Context, status int, code, msg string) {
	c.JSON(status, APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: msg},
	})
}

// MapDomainError translates domain errors to HTTP status codes and error codes.
// Configuration and master errors carry their own message since it names the
// offending file or column.
func MapDomainError(err error) (status int, code, msg string) {
	var cfgErr *domain.ConfigError
	var valErr *domain.ValidationError
	switch {
	case errors.As(err, &cfgErr):
		return http.StatusUnprocessableEntity, "INVALID_REFERENCE", cfgErr.Error()
	case errors.As(err, &valErr):
		return http.StatusUnprocessableEntity, "INVALID_MASTER", valErr.Error()
	case errors.Is(err, domain.ErrInvalidRoot):
		return http.StatusBadRequest, "INVALID_ROOT", err.Error()
	case errors.Is(err, domain.ErrPathNotAllowed):
		return http.StatusBadRequest, "PATH_NOT_ALLOWED", err.Error()
	case errors.Is(err, domain.ErrMasterRequired):
		return http.StatusBadRequest, "MASTER_REQUIRED", "declaration master is required for this run"
	case errors.Is(err, domain.ErrPublishDisabled):
		return http.StatusServiceUnavailable, "PUBLISH_DISABLED", "artifact publishing is not configured"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "RUN_CANCELLED", "run was cancelled before it finished"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred"
	}
}

// HandleError maps a domain error and sends the appropriate error response.
func HandleError(c *gin.Context, err error) {
	status, code, msg := MapDomainError(err)
	if status >= 500 {
		middleware.LoggerFrom(c).WithError(err).Error("handler: internal error")
	}
	RespondError(c, status, code, msg)
}

// requestLogger is a shorthand used by handlers for non-error logging.
func requestLogger(c *gin.Context) logrus.FieldLogger {
	return middleware.LoggerFrom(c)
}
