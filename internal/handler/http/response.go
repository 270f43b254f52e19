package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	domainErrors "github.com/sudo-mko/Libsys/internal/domain/errors"
)

// ResponseError is the error body returned by every failing endpoint.
type ResponseError struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// RespondWithError sends an error response with an explicit status and code.
func RespondWithError(c *gin.Context, statusCode int, message string, errorCode string, logger *zap.Logger) {
	logger.Warn("API error response",
		zap.Int("status_code", statusCode),
		zap.String("error_message", message),
		zap.String("error_code", errorCode),
		zap.String("path", c.Request.URL.Path),
		zap.String("method", c.Request.Method),
	)

	c.JSON(statusCode, ResponseError{
		Error: message,
		Code:  errorCode,
	})
}

// RespondWithDomainError maps a service error onto an HTTP response. An
// AppError carries its own status and code; sentinels fall into the standard
// buckets; anything unrecognized is a 500 with no detail leaked.
func RespondWithDomainError(c *gin.Context, err error, logger *zap.Logger) {
	var appErr *domainErrors.AppError
	if errors.As(err, &appErr) {
		RespondWithError(c, appErr.StatusCode, appErr.Message, appErr.Code, logger)
		return
	}

	switch {
	case domainErrors.IsUnauthorized(err):
		RespondWithError(c, http.StatusUnauthorized, err.Error(), "unauthorized", logger)
	case errors.Is(err, domainErrors.ErrForbidden):
		RespondWithError(c, http.StatusForbidden, err.Error(), "forbidden", logger)
	case domainErrors.IsNotFound(err):
		RespondWithError(c, http.StatusNotFound, err.Error(), "not_found", logger)
	case domainErrors.IsExpiry(err):
		RespondWithError(c, http.StatusGone, err.Error(), "expired", logger)
	case domainErrors.IsConflict(err):
		RespondWithError(c, http.StatusConflict, err.Error(), "conflict", logger)
	case errors.Is(err, domainErrors.ErrWeakPassword), errors.Is(err, domainErrors.ErrInvalidRequest),
		errors.Is(err, domainErrors.ErrNegativeAmount):
		RespondWithError(c, http.StatusBadRequest, err.Error(), "bad_request", logger)
	default:
		logger.Error("Unhandled service error", zap.Error(err),
			zap.String("path", c.Request.URL.Path))
		RespondWithError(c, http.StatusInternalServerError, "internal server error", "internal_error", logger)
	}
}

// RespondWithData sends a success response carrying only data.
func RespondWithData(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, data)
}

// RespondWithMessage sends a success response carrying only a message.
func RespondWithMessage(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, gin.H{"message": message})
}

// RespondWithCreated sends a 201 with the created resource.
func RespondWithCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}

// RespondWithNoContent sends a 204.
func RespondWithNoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
