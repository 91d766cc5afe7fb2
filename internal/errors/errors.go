package errors

import (
	"errors"
	"fmt"
	"maps"
	"net/http"
	"sort"
	"strings"
)

// ErrorCode represents a category of application error.
type ErrorCode string

const (
	// ErrCodeInvalidToken indicates a malformed or expired credential. Always fatal to the session.
	ErrCodeInvalidToken ErrorCode = "invalid_token"
	// ErrCodeNetwork indicates the remote API could not be reached.
	ErrCodeNetwork ErrorCode = "network"
	// ErrCodeAuth indicates the remote API rejected the credential.
	ErrCodeAuth ErrorCode = "auth"
	// ErrCodeServer indicates a remote failure unrelated to authentication.
	ErrCodeServer ErrorCode = "server"
	// ErrCodeValidation indicates invalid input data, locally or as judged by the remote API.
	ErrCodeValidation ErrorCode = "validation"
	// ErrCodeNotFound indicates a resource was not found.
	ErrCodeNotFound ErrorCode = "not_found"
	// ErrCodeInternal indicates an internal client error.
	ErrCodeInternal ErrorCode = "internal"
	// ErrCodeTimeout indicates a timeout occurred.
	ErrCodeTimeout ErrorCode = "timeout"
	// ErrCodeCanceled indicates the operation was canceled.
	ErrCodeCanceled ErrorCode = "canceled"
)

// AppError represents a structured application error with a code, message, and optional cause.
// It supports error wrapping and unwrapping for use with errors.Is and errors.As.
type AppError struct {
	// Code categorizes the error type
	Code ErrorCode
	// Message is a human-readable error message
	Message string
	// Cause is the underlying error that caused this error (optional)
	Cause error
	// Field is the specific field that caused the error (optional, for validation errors)
	Field string
	// Status is the HTTP status returned by the remote API (zero for local errors)
	Status int
	// Payload is the raw response body of a failed remote call
	Payload []byte
	// Fields carries per-field messages of a rejected form submission
	Fields map[string]string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause, enabling errors.Is and errors.As.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// InvalidToken creates an InvalidToken error with the given reason.
func InvalidToken(reason string) *AppError {
	return &AppError{
		Code:    ErrCodeInvalidToken,
		Message: "invalid token: " + reason,
	}
}

// Network wraps a transport failure.
func Network(cause error) *AppError {
	return &AppError{
		Code:    ErrCodeNetwork,
		Message: "network error",
		Cause:   cause,
	}
}

// Auth creates an error for a credential rejected by the remote API.
func Auth(status int, payload []byte) *AppError {
	return &AppError{
		Code:    ErrCodeAuth,
		Message: fmt.Sprintf("authentication rejected (%d %s)", status, http.StatusText(status)),
		Status:  status,
		Payload: payload,
	}
}

// Server creates an error for a remote failure. message should be what the remote reported;
// an empty message falls back to the status text.
func Server(status int, message string, payload []byte) *AppError {
	if message == "" {
		message = fmt.Sprintf("server error (%d %s)", status, http.StatusText(status))
	}
	return &AppError{
		Code:    ErrCodeServer,
		Message: message,
		Status:  status,
		Payload: payload,
	}
}

// ValidationFields creates a validation error carrying per-field messages from the remote API.
func ValidationFields(status int, fields map[string]string, payload []byte) *AppError {
	e := &AppError{
		Code:    ErrCodeValidation,
		Status:  status,
		Payload: payload,
		Fields:  maps.Clone(fields),
	}
	e.Message = e.JoinedFields("; ")
	if e.Message == "" {
		e.Message = "validation failed"
	}
	return e
}

// JoinedFields joins the per-field messages, ordered by field name, for single-line display.
func (e *AppError) JoinedFields(sep string) string {
	if e == nil || len(e.Fields) == 0 {
		return ""
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	msgs := make([]string, 0, len(keys))
	for _, k := range keys {
		msgs = append(msgs, e.Fields[k])
	}
	return strings.Join(msgs, sep)
}

// NotFound creates a new NotFound error.
func NotFound(message string) *AppError {
	return &AppError{
		Code:    ErrCodeNotFound,
		Message: message,
	}
}

// Validation creates a new Validation error.
func Validation(message string) *AppError {
	return &AppError{
		Code:    ErrCodeValidation,
		Message: message,
	}
}

// ValidationField creates a new Validation error for a specific field.
func ValidationField(field, message string) *AppError {
	return &AppError{
		Code:    ErrCodeValidation,
		Message: message,
		Field:   field,
	}
}

// Internalf creates a new Internal error with formatted message.
func Internalf(format string, args ...any) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an existing error with an AppError, preserving the cause.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an existing error with an AppError and formatted message.
func Wrapf(err error, code ErrorCode, format string, args ...any) *AppError {
	if err == nil {
		return nil
	}
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

// isCode checks if an error has a specific error code.
func isCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// IsInvalidToken checks if an error is an InvalidToken error.
func IsInvalidToken(err error) bool {
	return isCode(err, ErrCodeInvalidToken)
}

// IsNetwork checks if an error is a Network error.
func IsNetwork(err error) bool {
	return isCode(err, ErrCodeNetwork)
}

// IsAuth checks if an error is an Auth error.
func IsAuth(err error) bool {
	return isCode(err, ErrCodeAuth)
}

// IsServer checks if an error is a Server error.
func IsServer(err error) bool {
	return isCode(err, ErrCodeServer)
}

// IsNotFound checks if an error is a NotFound error.
func IsNotFound(err error) bool {
	return isCode(err, ErrCodeNotFound)
}

// IsValidation checks if an error is a Validation error.
func IsValidation(err error) bool {
	return isCode(err, ErrCodeValidation)
}

// IsInternal checks if an error is an Internal error.
func IsInternal(err error) bool {
	return isCode(err, ErrCodeInternal)
}

// IsTimeout checks if an error is a Timeout error.
func IsTimeout(err error) bool {
	return isCode(err, ErrCodeTimeout)
}

// IsCanceled checks if an error is a Canceled error.
func IsCanceled(err error) bool {
	return isCode(err, ErrCodeCanceled)
}

// GetCode returns the ErrorCode from an error, or empty string if not an AppError.
func GetCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// GetField returns the Field from an error, or empty string if not an AppError or no field set.
func GetField(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Field
	}
	return ""
}

// GetStatus returns the remote HTTP status carried by an error, or zero.
func GetStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}
	return 0
}

// UserMessage returns the text shown to a user for err: per-field messages joined with sep
// for validation errors, the AppError message otherwise, and err.Error() as the fallback.
func UserMessage(err error, sep string) string {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return err.Error()
	}
	if joined := appErr.JoinedFields(sep); joined != "" {
		return joined
	}
	return appErr.Message
}
