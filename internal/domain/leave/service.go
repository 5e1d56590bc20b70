package leave

import (
	"context"

	"github.com/cmlabs-hris/leave-backend-go/internal/domain/user"
)

type LeaveService interface {
	CreateLeaveRequest(ctx context.Context, ownerID string, req CreateLeaveRequestRequest) (LeaveRequestResponse, error)
	UpdateLeaveRequest(ctx context.Context, editorID string, req UpdateLeaveRequestRequest) (LeaveRequestResponse, error)
	ReviewLeaveRequest(ctx context.Context, reviewerID string, req ReviewLeaveRequestRequest) (LeaveRequestResponse, error)
	CancelLeaveRequest(ctx context.Context, requestID string, ownerID string) (LeaveRequestResponse, error)
	GetLeaveRequest(ctx context.Context, requestID string) (LeaveRequestResponse, error)
	ListLeaveRequests(ctx context.Context, filter LeaveRequestFilter) (ListLeaveRequestResponse, error)
	ListReviewQueue(ctx context.Context, reviewerID string, filter LeaveRequestFilter) (ListLeaveRequestResponse, error)
	GetBalanceProjection(ctx context.Context, userID string, req BalanceRequest) (BalanceResponse, error)
}

// Notifier hears about every successful transition. Delivery is best-effort
// and never fails the transition.
type Notifier interface {
	LeaveSubmitted(ctx context.Context, request LeaveRequest)
	LeaveReviewed(ctx context.Context, request LeaveRequest, reviewer user.User)
	LeaveCancelled(ctx context.Context, request LeaveRequest)
}
