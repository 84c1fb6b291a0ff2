// Package errors provides the structured error type shared by the notification
// workers and its mapping onto BPMN job errors.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeInvalidEvent ErrorCode = "INVALID_EVENT"

	ErrCodeDoctorLookupFailed ErrorCode = "DOCTOR_LOOKUP_FAILED"
	ErrCodePushPublishFailed  ErrorCode = "PUSH_PUBLISH_FAILED"

	ErrCodeGatewayNotConfigured ErrorCode = "GATEWAY_NOT_CONFIGURED"
	ErrCodeGatewayRequestFailed ErrorCode = "GATEWAY_REQUEST_FAILED"

	ErrCodeReminderQueryFailed  ErrorCode = "REMINDER_QUERY_FAILED"
	ErrCodeReminderUpdateFailed ErrorCode = "REMINDER_UPDATE_FAILED"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeExternalService          ErrorCode = "EXTERNAL_SERVICE_ERROR"
	ErrCodeTimeout                  ErrorCode = "TIMEOUT"
	ErrCodeInternal                 ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	cause     error
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func newError(code ErrorCode, message string, cause error, retryable bool) *StandardError {
	details := ""
	if cause != nil {
		details = cause.Error()
	}
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// NewInvalidEventError is returned when a trigger payload cannot be decoded
// or is missing path parameters.
func NewInvalidEventError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidEvent,
		Message:   "Invalid document event",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewDoctorLookupFailedError(doctorID string, err error) *StandardError {
	e := newError(ErrCodeDoctorLookupFailed, "Failed to resolve doctor name", err, true)
	e.Metadata = map[string]interface{}{"doctorId": doctorID}
	return e
}

func NewPushPublishFailedError(topic string, err error) *StandardError {
	e := newError(ErrCodePushPublishFailed, "Failed to publish push notification", err, true)
	e.Metadata = map[string]interface{}{"topic": topic}
	return e
}

// NewGatewayNotConfiguredError names the missing setting.
func NewGatewayNotConfiguredError(setting string) *StandardError {
	return &StandardError{
		Code:      ErrCodeGatewayNotConfigured,
		Message:   "Chat gateway is not configured",
		Details:   fmt.Sprintf("missing %s", setting),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewGatewayRequestFailedError(err error) *StandardError {
	return newError(ErrCodeGatewayRequestFailed, "Chat gateway request failed", err, true)
}

func NewReminderQueryFailedError(err error) *StandardError {
	return newError(ErrCodeReminderQueryFailed, "Failed to query pending reminders", err, true)
}

func NewReminderUpdateFailedError(recordID string, err error) *StandardError {
	e := newError(ErrCodeReminderUpdateFailed, "Failed to mark reminder as sent", err, true)
	e.Metadata = map[string]interface{}{"recordId": recordID}
	return e
}

func NewDatabaseConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseConnectionFailed, "Database connection failed", err, true)
}

func NewExternalServiceError(service string, err error) *StandardError {
	return newError(ErrCodeExternalService, fmt.Sprintf("External service %s failed", service), err, true)
}

func NewTimeoutError(service string, err error) *StandardError {
	return newError(ErrCodeTimeout, fmt.Sprintf("Timeout calling %s", service), err, true)
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// GetRetryCount returns the number of job retries a code deserves.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseConnectionFailed,
		ErrCodeExternalService,
		ErrCodeReminderQueryFailed,
		ErrCodeDoctorLookupFailed,
		ErrCodePushPublishFailed:
		return 3
	case ErrCodeTimeout, ErrCodeGatewayRequestFailed:
		return 2
	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      string(stdErr.Code),
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// Is and As forward to the standard library so callers need a single import.
func Is(err, target error) bool { return stderrors.Is(err, target) }

func As(err error, target interface{}) bool { return stderrors.As(err, target) }

// AsStandardError wraps any error into a StandardError, keeping existing ones.
func AsStandardError(err error) *StandardError {
	if err == nil {
		return nil
	}
	var stdErr *StandardError
	if As(err, &stdErr) {
		return stdErr
	}
	return newError(ErrCodeInternal, "Unexpected error", err, false)
}

// CodeOf returns the error code of err, or INTERNAL_ERROR.
func CodeOf(err error) string {
	var stdErr *StandardError
	if As(err, &stdErr) {
		return string(stdErr.Code)
	}
	return string(ErrCodeInternal)
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "GATEWAY"):
		return "GATEWAY"
	case strings.Contains(codeStr, "PUSH"):
		return "PUSH"
	case strings.Contains(codeStr, "REMINDER") || strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "LOOKUP"):
		return "STORE"
	case strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
