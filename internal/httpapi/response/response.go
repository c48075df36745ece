// Package response implements the {success, message, data, timestamp}
// envelope every HTTP endpoint replies with, grounded in
// auth/shared/responses/responses.go but with a real timestamp — the
// teacher's getCurrentTimestamp() returns a hardcoded literal.
package response

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// Envelope is the base response shape.
type Envelope struct {
	Success   bool       `json:"success"`
	Message   string     `json:"message,omitempty"`
	Data      any        `json:"data,omitempty"`
	Error     *ErrorInfo `json:"error,omitempty"`
	Timestamp string     `json:"timestamp"`
}

// ErrorInfo carries a machine-readable code alongside the message.
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// OK sends a 200 with data.
func OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: data, Timestamp: now()})
}

// Created sends a 201 with data.
func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, Envelope{Success: true, Data: data, Timestamp: now()})
}

// Message sends a 200 with a plain success message and no data.
func Message(c *gin.Context, message string) {
	c.JSON(http.StatusOK, Envelope{Success: true, Message: message, Timestamp: now()})
}

// Err sends a tagged error envelope at the given status code.
func Err(c *gin.Context, status int, code, message string) {
	c.JSON(status, Envelope{
		Success:   false,
		Error:     &ErrorInfo{Code: code, Message: message},
		Timestamp: now(),
	})
}

// ValidationErr renders go-playground/validator's field errors into the
// envelope's Details.
func ValidationErr(c *gin.Context, err error) {
	var details []map[string]string
	if verrs, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range verrs {
			details = append(details, map[string]string{
				"field":   fe.Field(),
				"tag":     fe.Tag(),
				"message": fieldErrorMessage(fe),
			})
		}
	}
	c.JSON(http.StatusBadRequest, Envelope{
		Success: false,
		Error: &ErrorInfo{
			Code:    "validation_error",
			Message: "validation failed",
			Details: details,
		},
		Timestamp: now(),
	})
}

func fieldErrorMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "email":
		return "invalid email format"
	case "min":
		return "value is too short"
	case "max":
		return "value is too long"
	case "oneof":
		return "value is not one of the allowed options"
	default:
		return "invalid value"
	}
}

// BadRequest sends a 400 error envelope.
func BadRequest(c *gin.Context, message string) { Err(c, http.StatusBadRequest, "bad_request", message) }

// NotFound sends a 404 error envelope.
func NotFound(c *gin.Context, message string) { Err(c, http.StatusNotFound, "not_found", message) }

// Conflict sends a 409 error envelope.
func Conflict(c *gin.Context, message string) { Err(c, http.StatusConflict, "conflict", message) }

// TooManyReqs sends a 429 error envelope.
func TooManyReqs(c *gin.Context, message string) {
	Err(c, http.StatusTooManyRequests, "rate_limited", message)
}

// Internal sends a 500 error envelope.
func Internal(c *gin.Context, message string) {
	Err(c, http.StatusInternalServerError, "internal_error", message)
}
