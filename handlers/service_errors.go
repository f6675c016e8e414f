package handlers

import (
	"errors"
	"net/http"

	"github.com/oba/server/services"
	"github.com/oba/server/utils"
	"go.uber.org/zap"
)

// statusByType maps domain error types to HTTP status codes
var statusByType = map[services.ErrorType]int{
	services.ErrorTypeNotFound:     http.StatusNotFound,
	services.ErrorTypeValidation:   http.StatusBadRequest,
	services.ErrorTypeUnauthorized: http.StatusUnauthorized,
	services.ErrorTypeConflict:     http.StatusConflict,
	services.ErrorTypeExternal:     http.StatusBadGateway,
}

// HandleServiceError maps domain errors to HTTP responses. The response
// error field carries the domain code so clients can tell a stale session
// from an invalid token; internal causes are logged and never returned.
func HandleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if err == nil {
		return
	}

	errType := services.GetErrorType(err)
	status, ok := statusByType[errType]
	if !ok {
		if errType == services.ErrorTypeInternal {
			logger.Error("internal server error", zap.Error(err))
		} else {
			logger.Error("unhandled error type",
				zap.Error(err),
				zap.String("error_type", string(errType)))
		}
		if werr := utils.WriteInternalServerError(w, "An internal error occurred"); werr != nil {
			logger.Error("failed to write internal error response", zap.Error(werr))
		}
		return
	}

	code := services.GetErrorCode(err)
	message := err.Error()
	var de *services.DomainError
	if errors.As(err, &de) && de.Message != "" {
		message = de.Message
	}

	logger.Debug("handled service error",
		zap.String("type", string(errType)),
		zap.String("code", code),
		zap.Int("status", status))

	if werr := utils.WriteError(w, status, code, message, services.GetErrorDetails(err)); werr != nil {
		logger.Error("failed to write error response", zap.Error(werr))
	}
}

// HandleValidationError handles validation errors from request parsing
func HandleValidationError(w http.ResponseWriter, err error, logger *zap.Logger) {
	var details map[string]interface{}
	message := err.Error()

	var ve *utils.ValidationError
	if errors.As(err, &ve) {
		details = ve.Details()
		message = ve.Message
	}

	if werr := utils.WriteBadRequest(w, message, details); werr != nil {
		logger.Error("failed to write validation error response", zap.Error(werr))
	}
}
