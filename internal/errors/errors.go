package errors

import (
	"errors"
	"fmt"
)

// Error type constants
const (
	ValidationError = "VALIDATION_ERROR"
	NothingSelected = "NOTHING_SELECTED"
	SpawnFailed     = "SPAWN_FAILED"
	NonZeroExit     = "NON_ZERO_EXIT"
	LadderExhausted = "LADDER_EXHAUSTED"
	UnknownKind     = "UNKNOWN_KIND"
	ActionPanicked  = "ACTION_PANICKED"
	CatalogError    = "CATALOG_ERROR"
	ConfigError     = "CONFIG_ERROR"
)

// ErrNothingSelected is returned when a batch is submitted without actions.
var ErrNothingSelected = &RunError{
	Type:    NothingSelected,
	Message: "nothing selected",
	Hint:    "Select at least one app or tweak",
}

// RunError is a structured error carried through the CLI and the audit log.
type RunError struct {
	Type      string `json:"type"`
	Code      string `json:"code,omitempty"`
	Message   string `json:"message"`
	ActionID  string `json:"action_id,omitempty"`
	Retryable bool   `json:"retryable"`
	Hint      string `json:"hint,omitempty"`
	Wrapped   error  `json:"-"`
}

func (e *RunError) Error() string {
	msg := e.Message
	if e.Wrapped != nil {
		msg = fmt.Sprintf("%s: %v", e.Message, e.Wrapped)
	}
	if e.ActionID != "" {
		return fmt.Sprintf("[%s] action %s: %s", e.Type, e.ActionID, msg)
	}
	return fmt.Sprintf("[%s] %s", e.Type, msg)
}

func (e *RunError) Unwrap() error {
	return e.Wrapped
}

// Is matches on Type so callers can test against the sentinels.
func (e *RunError) Is(target error) bool {
	var t *RunError
	if errors.As(target, &t) {
		return e.Type == t.Type
	}
	return false
}

func NewValidationError(msg, hint string) *RunError {
	return &RunError{Type: ValidationError, Message: msg, Hint: hint}
}

func NewActionError(typ, actionID, msg string) *RunError {
	return &RunError{Type: typ, ActionID: actionID, Message: msg}
}

// Wrap attaches a type and message to err. It returns nil for a nil err.
func Wrap(err error, typ, msg string) *RunError {
	if err == nil {
		return nil
	}
	return &RunError{Type: typ, Message: msg, Wrapped: err}
}

// TypeOf returns the RunError type of err, or "" when err is not a RunError.
func TypeOf(err error) string {
	var re *RunError
	if errors.As(err, &re) {
		return re.Type
	}
	return ""
}
