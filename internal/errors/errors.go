package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a leadsync error code.
type ErrorCode string

const (
	ErrInvalidRequest       ErrorCode = "INVALID_REQUEST"        // 400
	ErrNotFound             ErrorCode = "NOT_FOUND"              // 404
	ErrFileUnreadable       ErrorCode = "FILE_UNREADABLE"        // 422
	ErrMissingColumns       ErrorCode = "MISSING_COLUMNS"        // 422
	ErrNoDiscoverableFields ErrorCode = "NO_DISCOVERABLE_FIELDS" // 422
	ErrDiscoveryFailed      ErrorCode = "DISCOVERY_FAILED"       // 502
	ErrUpstream             ErrorCode = "UPSTREAM"               // 502
	ErrCancelled            ErrorCode = "CANCELLED"              // 499
	ErrInternal             ErrorCode = "INTERNAL"               // 500
)

// LeadError represents a structured error with code, status, and details.
type LeadError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
	cause   error
}

// Error implements the error interface.
func (e *LeadError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *LeadError) Unwrap() error {
	return e.cause
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *LeadError {
	return &LeadError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for a missing run, file or record.
func NewNotFound(identifier string) *LeadError {
	return &LeadError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("not found: %s", identifier),
		Details: map[string]any{"identifier": identifier},
	}
}

// NewFileUnreadable creates a 422 error for a CSV file that could not be read or decoded.
func NewFileUnreadable(path string, err error) *LeadError {
	msg := fmt.Sprintf("cannot read %s", path)
	if err != nil {
		msg = fmt.Sprintf("cannot read %s: %v", path, err)
	}
	return &LeadError{
		Code:    ErrFileUnreadable,
		Status:  422,
		Message: msg,
		Details: map[string]any{"path": path},
		cause:   err,
	}
}

// NewMissingColumns creates a 422 error when a known source layout lacks required columns.
func NewMissingColumns(path string, missing []string) *LeadError {
	return &LeadError{
		Code:    ErrMissingColumns,
		Status:  422,
		Message: fmt.Sprintf("%s is missing expected columns: %v", path, missing),
		Details: map[string]any{"path": path, "missing_columns": missing},
	}
}

// NewNoDiscoverableFields creates a 422 error for a board whose schema is wholly unusable.
func NewNoDiscoverableFields(listID string) *LeadError {
	return &LeadError{
		Code:    ErrNoDiscoverableFields,
		Status:  422,
		Message: fmt.Sprintf("cannot proceed: no discoverable fields on list %s", listID),
		Details: map[string]any{"list_id": listID},
	}
}

// NewDiscoveryFailed creates a 502 error when sampling the board failed.
func NewDiscoveryFailed(listID string, err error) *LeadError {
	msg := fmt.Sprintf("discovery failed for list %s", listID)
	if err != nil {
		msg = fmt.Sprintf("%s: %v", msg, err)
	}
	return &LeadError{
		Code:    ErrDiscoveryFailed,
		Status:  502,
		Message: msg,
		Details: map[string]any{"list_id": listID},
		cause:   err,
	}
}

// NewUpstream creates a 502 error for a non-success response from the board API.
func NewUpstream(op string, status int, body string) *LeadError {
	return &LeadError{
		Code:    ErrUpstream,
		Status:  502,
		Message: fmt.Sprintf("%s returned HTTP %d", op, status),
		Details: map[string]any{"operation": op, "http_status": status, "body": body},
	}
}

// NewCancelled creates a 499 error when an operation is interrupted by its context.
func NewCancelled(op string) *LeadError {
	return &LeadError{
		Code:    ErrCancelled,
		Status:  499,
		Message: fmt.Sprintf("%s cancelled", op),
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *LeadError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &LeadError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
		cause:   err,
	}
}

// Is checks if an error is (or wraps) a LeadError with the given code.
func Is(err error, code ErrorCode) bool {
	var lErr *LeadError
	if stderrors.As(err, &lErr) {
		return lErr.Code == code
	}
	return false
}
