package leave

import (
	"context"
)

// LeaveRequestRepository - interface for leave_requests and leave_request_reviewers tables
type LeaveRequestRepository interface {
	Create(ctx context.Context, request LeaveRequest) (LeaveRequest, error)
	GetByID(ctx context.Context, id string) (LeaveRequest, error)
	List(ctx context.Context, query LeaveRequestQuery) (Page, error)
	// Update replaces the owner-editable fields and the reviewer set
	Update(ctx context.Context, request LeaveRequest) (LeaveRequest, error)
	UpdateStatus(ctx context.Context, id string, status LeaveRequestStatus, reason *string) (LeaveRequest, error)
}

// Transactor runs fn atomically; repositories called with the ctx passed to
// fn take part in the same transaction
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
