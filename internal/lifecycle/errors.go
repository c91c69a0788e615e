package lifecycle

import (
	"errors"
	"fmt"

	"mailtasks-cli/internal/model"
)

var (
	ErrMessageRequired  = errors.New("message required")
	ErrAlreadyConnected = errors.New("mailbox already connected")
	ErrNotConnected     = errors.New("mailbox not connected")
)

// NotInSnapshotError rejects an action on a task the current replica does
// not hold.
type NotInSnapshotError struct {
	ID model.TaskID
}

func (e NotInSnapshotError) Error() string {
	return fmt.Sprintf("task not in current list: %s", e.ID)
}

func (e NotInSnapshotError) Is(target error) bool { return target == ErrNotInSnapshot }

var ErrNotInSnapshot = errors.New("task not in current list")

// PartialError reports a combined reply-and-complete whose reply was sent
// but whose completion failed.
type PartialError struct {
	Err error
}

func (e *PartialError) Error() string { return "reply sent; complete failed: " + e.Err.Error() }
func (e *PartialError) Unwrap() error { return e.Err }
