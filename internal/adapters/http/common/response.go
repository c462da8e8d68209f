// Package common holds the shared types of the HTTP layer.
//
// Separate package so handlers and middleware can both use it without
// an import cycle.
package common

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/Haleralex/coinledger/internal/domain/errors"
)

// APIResponse is the envelope of every response.
type APIResponse struct {
	Success   bool      `json:"success"`
	Data      any       `json:"data,omitempty"`
	Error     *APIError `json:"error,omitempty"`
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
}

// APIError describes a failed request.
type APIError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
	Fields  []FieldError   `json:"fields,omitempty"`
}

// FieldError pins a validation failure to one field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error codes.
const (
	ErrCodeValidation          = "VALIDATION_ERROR"
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeBadRequest          = "BAD_REQUEST"
	ErrCodeInsufficientBalance = "INSUFFICIENT_BALANCE"
	ErrCodeConfiguration       = "CONFIGURATION_ERROR"
	ErrCodeConflict            = "IDEMPOTENCY_CONFLICT"
	ErrCodeInternal            = "INTERNAL_ERROR"
)

// Request ID plumbing. The RequestID middleware binds the id under this
// context key; the envelope reads it back here.

const RequestIDKey = "request_id"

// GetRequestID returns the request id bound to this request, or "".
func GetRequestID(c *gin.Context) string {
	if id, exists := c.Get(RequestIDKey); exists {
		if strID, ok := id.(string); ok {
			return strID
		}
	}
	return ""
}

// Response helpers

// Success sends a successful response.
func Success(c *gin.Context, statusCode int, data any) {
	c.JSON(statusCode, APIResponse{
		Success:   true,
		Data:      data,
		RequestID: GetRequestID(c),
		Timestamp: time.Now().UTC(),
	})
}

// Error sends an error response.
func Error(c *gin.Context, statusCode int, apiError *APIError) {
	c.JSON(statusCode, APIResponse{
		Success:   false,
		Error:     apiError,
		RequestID: GetRequestID(c),
		Timestamp: time.Now().UTC(),
	})
}

// ValidationErrorResponse sends a 422 with per-field errors.
func ValidationErrorResponse(c *gin.Context, fields []FieldError) {
	Error(c, http.StatusUnprocessableEntity, &APIError{
		Code:    ErrCodeValidation,
		Message: "Request validation failed",
		Fields:  fields,
	})
}

// NotFoundResponse sends a 404.
func NotFoundResponse(c *gin.Context, resource string) {
	Error(c, http.StatusNotFound, &APIError{
		Code:    ErrCodeNotFound,
		Message: resource + " not found",
	})
}

// BadRequestResponse sends a 400.
func BadRequestResponse(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, &APIError{
		Code:    ErrCodeBadRequest,
		Message: message,
	})
}

// InternalErrorResponse sends a 500. The message stays generic; the real
// cause goes to the log, never to the caller.
func InternalErrorResponse(c *gin.Context, message string) {
	Error(c, http.StatusInternalServerError, &APIError{
		Code:    ErrCodeInternal,
		Message: message,
	})
}

// HandleDomainError maps a domain error onto the HTTP status taxonomy:
//
//	validation          -> 422 with field detail
//	insufficient funds  -> 400 (business rejection, well-formed request)
//	configuration       -> 400 (system wallet missing or depleted)
//	not found           -> 404
//	idempotency dup     -> 409 (reserved: only when a re-read cannot resolve it)
//	anything else       -> 500
func HandleDomainError(c *gin.Context, err error) {
	var validationErr domainErrors.ValidationError
	if errors.As(err, &validationErr) {
		ValidationErrorResponse(c, []FieldError{
			{Field: validationErr.Field, Message: validationErr.Message, Code: "invalid"},
		})
		return
	}

	var insufficientErr *domainErrors.InsufficientFundsError
	if errors.As(err, &insufficientErr) {
		Error(c, http.StatusBadRequest, &APIError{
			Code:    ErrCodeInsufficientBalance,
			Message: "Insufficient balance for this operation",
			Details: map[string]any{
				"balance":  insufficientErr.Balance.String(),
				"required": insufficientErr.Required.String(),
			},
		})
		return
	}

	if domainErrors.IsConfiguration(err) {
		Error(c, http.StatusBadRequest, &APIError{
			Code:    ErrCodeConfiguration,
			Message: err.Error(),
		})
		return
	}

	if errors.Is(err, domainErrors.ErrInvalidMovementType) {
		BadRequestResponse(c, "unknown movement type")
		return
	}

	if domainErrors.IsNotFound(err) {
		NotFoundResponse(c, "Resource")
		return
	}

	if domainErrors.IsDuplicateIdempotencyKey(err) {
		Error(c, http.StatusConflict, &APIError{
			Code:    ErrCodeConflict,
			Message: "Idempotency key conflict could not be resolved, please retry",
		})
		return
	}

	InternalErrorResponse(c, "An unexpected error occurred")
}
