package error

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes for standardized API responses
const (
	// 4xxx - Client errors
	CodeValidation          = 4000
	CodeInsufficientCredits = 4001
	CodeInvalidAmount       = 4002
	CodeUpstream            = 4003
	CodeUnauthorized        = 4010
	CodeForbidden           = 4030
	CodeNotFound            = 4040
	CodeUserNotFound        = 4041
	CodeVideoNotFound       = 4042
	CodeConflict            = 4090
	CodeDuplicateLedger     = 4091

	// 5xxx - Server errors
	CodeInternalServer = 5000
)

// Base error types
var (
	// ErrValidation is returned when a request is missing fields or carries malformed values
	ErrValidation = errors.New("validation failed")

	// ErrInsufficientCredits is returned when a debit would take a balance below zero
	ErrInsufficientCredits = errors.New("insufficient credits")

	// ErrInvalidAmount is returned when a ledger amount is zero or negative
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrUnauthorized is returned when no valid credential was presented
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden is returned when the caller does not own the resource
	ErrForbidden = errors.New("forbidden")

	// ErrUserNotFound is returned when the requested user doesn't exist
	ErrUserNotFound = errors.New("user not found")

	// ErrVideoNotFound is returned when the requested video doesn't exist or is not visible to the caller
	ErrVideoNotFound = errors.New("video not found")

	// ErrPaymentNotFound is returned when no payment matches the lookup
	ErrPaymentNotFound = errors.New("payment not found")

	// ErrSessionNotFound is returned when an embedded session token is unknown
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionExpired is returned when an embedded session outlived its TTL
	ErrSessionExpired = errors.New("session expired")

	// ErrIntegrationNotFound is returned when the user has no CRM connection
	ErrIntegrationNotFound = errors.New("integration not found")

	// ErrDuplicateUser is returned when the username or email is already taken
	ErrDuplicateUser = errors.New("user already exists")

	// ErrDuplicateLedgerEntry is returned when a ledger entry with the same reference already exists
	ErrDuplicateLedgerEntry = errors.New("ledger entry with this reference already exists")

	// ErrInvalidTransition is returned when a video status change is not allowed
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrPaymentAlreadyCompleted is returned when completing a payment twice
	ErrPaymentAlreadyCompleted = errors.New("payment already completed")

	// ErrConstraintViolation is returned when a database constraint is violated
	ErrConstraintViolation = errors.New("database constraint violation")

	// ErrDatabaseConnection is returned when there's a problem connecting to the database
	ErrDatabaseConnection = errors.New("database connection error")

	// ErrUpstream is returned when a third-party dependency rejected or failed a call
	ErrUpstream = errors.New("upstream service error")

	// ErrInternalServer is returned for unexpected server-side errors
	ErrInternalServer = errors.New("internal server error")

	// ErrNotFound is returned when a generic resource is not found
	ErrNotFound = errors.New("resource not found")
)

// ErrorCode returns standardized error codes for known errors
func ErrorCode(err error) int {
	switch {
	case errors.Is(err, ErrInsufficientCredits):
		return CodeInsufficientCredits
	case errors.Is(err, ErrInvalidAmount):
		return CodeInvalidAmount
	case errors.Is(err, ErrValidation), errors.Is(err, ErrInvalidTransition):
		return CodeValidation
	case errors.Is(err, ErrUpstream):
		return CodeUpstream
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrSessionExpired), errors.Is(err, ErrSessionNotFound):
		return CodeUnauthorized
	case errors.Is(err, ErrForbidden):
		return CodeForbidden
	case errors.Is(err, ErrUserNotFound):
		return CodeUserNotFound
	case errors.Is(err, ErrVideoNotFound):
		return CodeVideoNotFound
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrPaymentNotFound), errors.Is(err, ErrIntegrationNotFound):
		return CodeNotFound
	case errors.Is(err, ErrDuplicateUser):
		return CodeConflict
	case errors.Is(err, ErrDuplicateLedgerEntry):
		return CodeDuplicateLedger
	default:
		return CodeInternalServer
	}
}

// HTTPStatus maps an error onto the HTTP status returned to clients
func HTTPStatus(err error) int {
	code := ErrorCode(err)
	switch {
	case code == CodeUnauthorized:
		return http.StatusUnauthorized
	case code == CodeForbidden:
		return http.StatusForbidden
	case code >= CodeNotFound && code < CodeConflict:
		return http.StatusNotFound
	case code >= CodeConflict && code < CodeInternalServer:
		return http.StatusConflict
	case code < CodeInternalServer:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the short message safe to show to a client
func PublicMessage(err error) string {
	var upstream *UpstreamError
	if errors.As(err, &upstream) && upstream.Message != "" {
		return upstream.Message
	}
	var validation *ValidationError
	if errors.As(err, &validation) {
		return validation.Error()
	}
	var insufficient *InsufficientCreditsError
	if errors.As(err, &insufficient) {
		return "Insufficient credits. Please purchase more credits."
	}
	if ErrorCode(err) == CodeInternalServer {
		return "Internal server error"
	}
	for _, base := range []error{
		ErrUnauthorized, ErrForbidden, ErrUserNotFound, ErrVideoNotFound, ErrPaymentNotFound,
		ErrIntegrationNotFound, ErrDuplicateUser, ErrInvalidAmount, ErrInvalidTransition,
		ErrSessionExpired, ErrSessionNotFound, ErrUpstream, ErrNotFound, ErrDuplicateLedgerEntry,
	} {
		if errors.Is(err, base) {
			return base.Error()
		}
	}
	return ErrValidation.Error()
}

// ValidationError describes a single invalid or missing field
type ValidationError struct {
	Field  string
	Reason string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// Is checks if the target error is an ErrValidation
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// LogFields returns a map of fields for structured logging
func (e *ValidationError) LogFields() map[string]any {
	return map[string]any{
		"error_type": "validation_error",
		"field":      e.Field,
		"reason":     e.Reason,
		"error_code": CodeValidation,
	}
}

// NewValidationError creates a validation error for the named field
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// InsufficientCreditsError provides detailed error information for a rejected debit
type InsufficientCreditsError struct {
	UserID    string
	Requested int64
}

// Error implements the error interface
func (e *InsufficientCreditsError) Error() string {
	return fmt.Sprintf("insufficient credits for user %s: requested %d", e.UserID, e.Requested)
}

// Is checks if the target error is an ErrInsufficientCredits
func (e *InsufficientCreditsError) Is(target error) bool {
	return target == ErrInsufficientCredits
}

// LogFields returns a map of fields for structured logging
func (e *InsufficientCreditsError) LogFields() map[string]any {
	return map[string]any{
		"error_type": "insufficient_credits",
		"user_id":    e.UserID,
		"requested":  e.Requested,
		"error_code": CodeInsufficientCredits,
	}
}

// NewInsufficientCreditsError creates a new detailed insufficient credits error
func NewInsufficientCreditsError(userID string, requested int64) error {
	return &InsufficientCreditsError{UserID: userID, Requested: requested}
}

// UpstreamError wraps a failure reported by a payment, CRM or dispatch provider
type UpstreamError struct {
	Provider string
	Message  string
	Status   int
	Err      error
}

// Error implements the error interface
func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (status %d): %v", e.Provider, e.Message, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %s (status %d)", e.Provider, e.Message, e.Status)
}

// Unwrap returns the underlying error
func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// Is checks if the target error is an ErrUpstream
func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstream
}

// LogFields returns a map of fields for structured logging
func (e *UpstreamError) LogFields() map[string]any {
	fields := map[string]any{
		"error_type": "upstream_error",
		"provider":   e.Provider,
		"message":    e.Message,
		"status":     e.Status,
		"error_code": CodeUpstream,
	}
	if e.Err != nil {
		fields["error"] = e.Err.Error()
	}
	return fields
}

// NewUpstreamError creates an upstream error; message is shown to the client when non-empty
func NewUpstreamError(provider, message string, status int, err error) error {
	return &UpstreamError{Provider: provider, Message: message, Status: status, Err: err}
}

// LedgerError represents an error related to a ledger mutation
type LedgerError struct {
	UserID    string
	Amount    int64
	Reference string
	Err       error
}

// Error implements the error interface for LedgerError
func (e *LedgerError) Error() string {
	return fmt.Sprintf("ledger operation failed for user %s (amount: %d, reference: %s): %v",
		e.UserID, e.Amount, e.Reference, e.Err)
}

// Unwrap returns the underlying error
func (e *LedgerError) Unwrap() error {
	return e.Err
}

// LogFields returns a map of fields for structured logging
func (e *LedgerError) LogFields() map[string]any {
	return map[string]any{
		"error_type": "ledger_error",
		"user_id":    e.UserID,
		"amount":     e.Amount,
		"reference":  e.Reference,
		"error":      e.Err.Error(),
		"error_code": ErrorCode(e.Err),
	}
}

// NewLedgerError wraps err with the ledger operation context
func NewLedgerError(userID string, amount int64, reference string, err error) error {
	return &LedgerError{UserID: userID, Amount: amount, Reference: reference, Err: err}
}

// LogFields extracts structured fields from err when it carries any
func LogFields(err error) map[string]any {
	var lf interface{ LogFields() map[string]any }
	if errors.As(err, &lf) {
		return lf.LogFields()
	}
	return map[string]any{"error": err.Error()}
}

// IsInsufficientCreditsError checks if the error is related to insufficient credits
func IsInsufficientCreditsError(err error) bool {
	return errors.Is(err, ErrInsufficientCredits)
}

// IsDuplicateLedgerEntry checks if the error reports an already applied ledger reference
func IsDuplicateLedgerEntry(err error) bool {
	return errors.Is(err, ErrDuplicateLedgerEntry)
}

// IsNotFoundError checks if the error is any "not found" type of error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrVideoNotFound) ||
		errors.Is(err, ErrPaymentNotFound) ||
		errors.Is(err, ErrIntegrationNotFound) ||
		errors.Is(err, ErrSessionNotFound)
}
