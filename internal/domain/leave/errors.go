package leave

import (
	"errors"
	"fmt"
)

var (
	ErrLeaveRequestNotFound         = errors.New("leave request not found")
	ErrNotOwner                     = errors.New("only the owner can modify this leave request")
	ErrNotReviewer                  = errors.New("user is not a reviewer of this leave request")
	ErrInvalidStatusTransition      = errors.New("leave request status does not allow this action")
	ErrLeaveRequestAlreadyProcessed = errors.New("leave request already processed")
	ErrLeaveAlreadyEnded            = errors.New("leave request has already ended")
	ErrReviewerNotFound             = errors.New("reviewer not found")
)

// ConflictError reports a uniqueness violation in the store on a specific field
type ConflictError struct {
	Field string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict on field %q", e.Field)
}

// TransitionError carries the rejected status change
type TransitionError struct {
	From  LeaveRequestStatus
	Event Event
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot apply %s to a leave request in status %s", e.Event, e.From)
}

func (e *TransitionError) Unwrap() error {
	if e.From.IsTerminal() {
		return ErrLeaveRequestAlreadyProcessed
	}
	return ErrInvalidStatusTransition
}
