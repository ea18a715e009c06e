// internal/domain/faults/faults.go

// Package faults defines the error taxonomy for the financial core.
//
// Every error on a fund-moving path carries a machine-readable code plus
// enough ids and amounts to reconstruct the failed operation for audit.
// Handlers map codes to HTTP statuses with Status; engines and the
// transaction manager branch on them with errors.Is / HasCode.
package faults

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes. Codes are stable; messages are not.
const (
	CodeValidation          = "validation_error"
	CodeNotFound            = "not_found"
	CodeActiveCycleExists   = "active_cycle_exists"
	CodeMidCycleNotReady    = "mid_cycle_not_ready"
	CodeAlreadyMember       = "already_member"
	CodePaymentRequirements = "payment_requirements_not_met"
	CodeConcurrency         = "concurrency_conflict"
	CodeInsufficientFunds   = "insufficient_funds"
	CodeExternalService     = "external_service_error"
)

// ErrStaleVersion is returned by repositories when an optimistic-concurrency
// save observes a version token that no longer matches. The transaction
// manager is the only component that retries it; everything else treats it
// as a bug to route through the manager.
var ErrStaleVersion = errors.New("stale aggregate version")

// Context identifies the entities and amounts involved in a failed
// financial operation.
type Context struct {
	CommunityID string `json:"community_id,omitempty"`
	UserID      string `json:"user_id,omitempty"`
	MidCycleID  string `json:"mid_cycle_id,omitempty"`
	Amount      string `json:"amount,omitempty"`
}

// Error is the taxonomy error type.
type Error struct {
	Code    string
	Message string
	Context Context
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// WithContext returns a copy of the error carrying entity context.
func (e *Error) WithContext(ctx Context) *Error {
	cp := *e
	cp.Context = ctx
	return &cp
}

// Validation reports malformed or missing input. Never retried.
func Validation(format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

// NotFound reports an id that does not resolve to an entity.
func NotFound(entity, id string) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf("%s %s not found", entity, id)}
}

// StateConflict reports an operation attempted in the wrong lifecycle state
// (active cycle exists, mid-cycle not ready, and so on). The caller must
// change state before retrying.
func StateConflict(code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Concurrency reports an optimistic-concurrency conflict that survived the
// bounded retry loop.
func Concurrency(op string, attempts int) *Error {
	return &Error{
		Code:    CodeConcurrency,
		Message: fmt.Sprintf("%s: gave up after %d conflicting attempts", op, attempts),
		Err:     ErrStaleVersion,
	}
}

// InsufficientFunds reports a wallet or backup-fund balance too low for the
// requested movement. Compensation uses it as a partial result, not an abort.
func InsufficientFunds(format string, args ...any) *Error {
	return &Error{Code: CodeInsufficientFunds, Message: fmt.Sprintf(format, args...)}
}

// External wraps a collaborator failure (notification hook, mailer). It is
// logged and never propagated to a financial operation's caller.
func External(op string, err error) *Error {
	return &Error{Code: CodeExternalService, Message: op, Err: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code string) bool {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Code == code
	}
	return false
}

// CodeOf extracts the taxonomy code, or "" for untyped errors.
func CodeOf(err error) string {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return ""
}

// Status maps an error to an HTTP status. Validation, not-found, and
// state-conflict errors are the caller's fault; concurrency and external
// failures are transient server-side conditions.
func Status(err error) int {
	switch CodeOf(err) {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeActiveCycleExists, CodeMidCycleNotReady, CodeAlreadyMember, CodePaymentRequirements:
		return http.StatusConflict
	case CodeInsufficientFunds:
		return http.StatusUnprocessableEntity
	case CodeConcurrency:
		return http.StatusServiceUnavailable
	case CodeExternalService:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
