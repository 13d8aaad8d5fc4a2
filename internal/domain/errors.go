package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrEnumeration means listing or parsing the resources failed.
	ErrEnumeration = errors.New("resource enumeration failed")
	// ErrMutation means a close, move or create call failed.
	ErrMutation = errors.New("resource mutation failed")
	// ErrUnknownAction means the action kind is not recognized.
	ErrUnknownAction = errors.New("unknown action")
	// ErrInvalidParams means the action parameters are out of range.
	ErrInvalidParams = errors.New("invalid action parameters")
	// ErrMetricsLog means the event log rejected an append.
	ErrMetricsLog = errors.New("metrics log failed")
	// ErrUndoNotFound means the undo entry expired or never existed.
	ErrUndoNotFound = errors.New("undo entry not found")
)

// ActionError carries the action kind and the requested parameters so the
// caller can build a user-facing message.
type ActionError struct {
	Action string
	Params string
	Err    error
}

func (e *ActionError) Error() string {
	if e.Params == "" {
		return fmt.Sprintf("%s: %v", e.Action, e.Err)
	}
	return fmt.Sprintf("%s(%s): %v", e.Action, e.Params, e.Err)
}

func (e *ActionError) Unwrap() error { return e.Err }
