package mcp

import (
	"errors"
	"fmt"

	"github.com/ganot/placement-desk/internal/repository"
)

// ErrUnknownMethod is returned for a method the handler does not serve.
var ErrUnknownMethod = errors.New("unknown method")

// APIError represents an MCP error response.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	Details      any    `json:"details,omitempty"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *APIError) CodeValue() string {
	return e.Code
}

func (e *APIError) MessageValue() string {
	return e.Message
}

func (e *APIError) DetailsValue() any {
	return e.Details
}

func (e *APIError) RecoveryHintValue() string {
	return e.RecoveryHint
}

// MapError maps domain errors to MCP error codes. The message keeps the
// underlying error text so it can be shown to the operator as is.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	msg := err.Error()
	switch {
	case errors.Is(err, ErrUnknownMethod):
		return &APIError{Code: "METHOD_NOT_FOUND", Message: msg, RecoveryHint: "List tools to see the supported methods"}
	case errors.Is(err, repository.ErrNotFound):
		return &APIError{Code: "NOT_FOUND", Message: msg, RecoveryHint: "Check the id, e.g. CS-2023-001, COMP-001 or PL-001"}
	case errors.Is(err, repository.ErrInvalidInput):
		return &APIError{Code: "VALIDATION_FAILED", Message: msg, RecoveryHint: "Fix the named field and resubmit"}
	case errors.Is(err, repository.ErrConflict):
		return &APIError{Code: "CONFLICT", Message: msg, RecoveryHint: "Use a different id or email, or update the existing record"}
	case errors.Is(err, repository.ErrForeignKeyViolation):
		return &APIError{Code: "UNKNOWN_REFERENCE", Message: msg, RecoveryHint: "Add the student or company before referencing it"}
	case errors.Is(err, repository.ErrRemoteWrite):
		return &APIError{Code: "REMOTE_WRITE_FAILED", Message: msg, RecoveryHint: "Check that the target sheet exists and is writable, then retry"}
	case errors.Is(err, repository.ErrRejected):
		return &APIError{Code: "REMOTE_REJECTED", Message: msg, RecoveryHint: "Check the spreadsheet id, sheet names and sharing settings"}
	case errors.Is(err, repository.ErrTransport):
		return &APIError{Code: "TRANSPORT_FAILED", Message: msg, RecoveryHint: "The spreadsheet service is unreachable; retry later"}
	default:
		return nil
	}
}

func mapError(err error) error {
	if apiErr := MapError(err); apiErr != nil {
		return apiErr
	}
	return err
}

// mapErrorWithDetails maps err and attaches a partial result, so callers
// still see what completed before the failure.
func mapErrorWithDetails(err error, details any) error {
	apiErr := MapError(err)
	if apiErr == nil {
		apiErr = &APIError{Code: "INTERRUPTED", Message: err.Error()}
	}
	out := *apiErr
	out.Details = details
	return &out
}
