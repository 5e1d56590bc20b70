package leave

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/leave-backend-go/internal/domain/leave"
	"github.com/cmlabs-hris/leave-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/leave-backend-go/internal/pkg/validator"
)

type LeaveServiceImpl struct {
	tx        leave.Transactor
	leaveRepo leave.LeaveRequestRepository
	userRepo  user.UserRepository
	notifier  leave.Notifier
	now       func() time.Time
}

type Option func(*LeaveServiceImpl)

// WithClock replaces time.Now, used for "today" checks and balance projections
func WithClock(now func() time.Time) Option {
	return func(s *LeaveServiceImpl) {
		s.now = now
	}
}

func NewLeaveService(tx leave.Transactor, leaveRepo leave.LeaveRequestRepository, userRepo user.UserRepository, notifier leave.Notifier, opts ...Option) leave.LeaveService {
	s := &LeaveServiceImpl{
		tx:        tx,
		leaveRepo: leaveRepo,
		userRepo:  userRepo,
		notifier:  notifier,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateLeaveRequest implements leave.LeaveService.
func (s *LeaveServiceImpl) CreateLeaveRequest(ctx context.Context, ownerID string, req leave.CreateLeaveRequestRequest) (leave.LeaveRequestResponse, error) {
	if err := req.Validate(); err != nil {
		return leave.LeaveRequestResponse{}, err
	}
	if err := req.ValidateReviewersFor(ownerID); err != nil {
		return leave.LeaveRequestResponse{}, err
	}

	var created leave.LeaveRequest
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.userRepo.GetByID(ctx, ownerID); err != nil {
			return err
		}
		if err := s.ensureReviewersExist(ctx, req.Reviewers); err != nil {
			return err
		}

		request := leave.LeaveRequest{
			UserID: ownerID,
			Status: leave.LeaveRequestStatusPending,
		}
		req.ApplyTo(&request)

		var err error
		created, err = s.leaveRepo.Create(ctx, request)
		return err
	})
	if err != nil {
		return leave.LeaveRequestResponse{}, fmt.Errorf("create leave request: %w", err)
	}

	slog.InfoContext(ctx, "leave request created",
		"leave_request_id", created.ID,
		"user_id", ownerID,
		"from_date", created.FromDate.Format(time.DateOnly),
		"to_date", created.ToDate.Format(time.DateOnly),
	)
	s.notifier.LeaveSubmitted(ctx, created)

	return leave.ToResponse(created), nil
}

// UpdateLeaveRequest implements leave.LeaveService. Any edit sends the request
// back to pending and drops the previous decision reason.
func (s *LeaveServiceImpl) UpdateLeaveRequest(ctx context.Context, editorID string, req leave.UpdateLeaveRequestRequest) (leave.LeaveRequestResponse, error) {
	if err := req.Validate(); err != nil {
		return leave.LeaveRequestResponse{}, err
	}
	if err := checkRequestID(req.ID); err != nil {
		return leave.LeaveRequestResponse{}, err
	}

	var updated leave.LeaveRequest
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.leaveRepo.GetByID(ctx, req.ID)
		if err != nil {
			return err
		}
		if !existing.IsOwnedBy(editorID) {
			return leave.ErrNotOwner
		}

		transition, err := leave.NextStatus(existing.Status, leave.EventEdit)
		if err != nil {
			return err
		}
		if err := req.ValidateReviewersFor(existing.UserID); err != nil {
			return err
		}
		if err := s.ensureReviewersExist(ctx, req.Reviewers); err != nil {
			return err
		}

		req.ApplyTo(&existing)
		existing.Status = transition.To
		existing.StatusReason = nil

		updated, err = s.leaveRepo.Update(ctx, existing)
		return err
	})
	if err != nil {
		return leave.LeaveRequestResponse{}, fmt.Errorf("update leave request: %w", err)
	}

	slog.InfoContext(ctx, "leave request updated", "leave_request_id", updated.ID, "user_id", editorID)
	s.notifier.LeaveSubmitted(ctx, updated)

	return leave.ToResponse(updated), nil
}

// ReviewLeaveRequest implements leave.LeaveService. The reason is stored as the
// status reason whatever the decision.
func (s *LeaveServiceImpl) ReviewLeaveRequest(ctx context.Context, reviewerID string, req leave.ReviewLeaveRequestRequest) (leave.LeaveRequestResponse, error) {
	if err := req.Validate(); err != nil {
		return leave.LeaveRequestResponse{}, err
	}
	if err := checkRequestID(req.ID); err != nil {
		return leave.LeaveRequestResponse{}, err
	}

	var (
		reviewed leave.LeaveRequest
		reviewer user.User
		previous leave.LeaveRequestStatus
	)
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		reviewer, err = s.userRepo.GetByID(ctx, reviewerID)
		if err != nil {
			return err
		}

		existing, err := s.leaveRepo.GetByID(ctx, req.ID)
		if err != nil {
			return err
		}

		transition, transitionErr := leave.NextStatus(existing.Status, leave.ReviewEvent(req.IsApproved, req.IsFinal))
		if err := authorizeReview(existing, reviewer, req.IsFinal); err != nil {
			return err
		}
		if transitionErr != nil {
			return transitionErr
		}

		previous = existing.Status
		reviewed, err = s.leaveRepo.UpdateStatus(ctx, existing.ID, transition.To, req.Reason)
		return err
	})
	if err != nil {
		return leave.LeaveRequestResponse{}, fmt.Errorf("review leave request: %w", err)
	}

	slog.InfoContext(ctx, "leave request reviewed",
		"leave_request_id", reviewed.ID,
		"reviewer_id", reviewerID,
		"from_status", previous,
		"to_status", reviewed.Status,
	)
	s.notifier.LeaveReviewed(ctx, reviewed, reviewer)

	return leave.ToResponse(reviewed), nil
}

// authorizeReview checks the reviewer's relationship to the request before the
// transition outcome is revealed
func authorizeReview(request leave.LeaveRequest, reviewer user.User, isFinal bool) error {
	if isFinal {
		if !reviewer.CanGiveFinalApproval() {
			return user.ErrManagerAccessRequired
		}
		return nil
	}
	if !request.HasReviewer(reviewer.ID) {
		return leave.ErrNotReviewer
	}
	return nil
}

// CancelLeaveRequest implements leave.LeaveService.
func (s *LeaveServiceImpl) CancelLeaveRequest(ctx context.Context, requestID string, ownerID string) (leave.LeaveRequestResponse, error) {
	if err := checkRequestID(requestID); err != nil {
		return leave.LeaveRequestResponse{}, err
	}

	var cancelled leave.LeaveRequest
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.leaveRepo.GetByID(ctx, requestID)
		if err != nil {
			return err
		}
		if !existing.IsOwnedBy(ownerID) {
			return leave.ErrNotOwner
		}

		transition, err := leave.NextStatus(existing.Status, leave.EventCancel)
		if err != nil {
			return err
		}
		if existing.ToDate.Before(leave.TruncateToDate(s.now())) {
			return leave.ErrLeaveAlreadyEnded
		}

		cancelled, err = s.leaveRepo.UpdateStatus(ctx, existing.ID, transition.To, existing.StatusReason)
		return err
	})
	if err != nil {
		return leave.LeaveRequestResponse{}, fmt.Errorf("cancel leave request: %w", err)
	}

	slog.InfoContext(ctx, "leave request cancelled", "leave_request_id", cancelled.ID, "user_id", ownerID)
	s.notifier.LeaveCancelled(ctx, cancelled)

	return leave.ToResponse(cancelled), nil
}

// GetLeaveRequest implements leave.LeaveService.
func (s *LeaveServiceImpl) GetLeaveRequest(ctx context.Context, requestID string) (leave.LeaveRequestResponse, error) {
	if err := checkRequestID(requestID); err != nil {
		return leave.LeaveRequestResponse{}, err
	}

	request, err := s.leaveRepo.GetByID(ctx, requestID)
	if err != nil {
		return leave.LeaveRequestResponse{}, fmt.Errorf("get leave request: %w", err)
	}
	return leave.ToResponse(request), nil
}

// ListLeaveRequests implements leave.LeaveService.
func (s *LeaveServiceImpl) ListLeaveRequests(ctx context.Context, filter leave.LeaveRequestFilter) (leave.ListLeaveRequestResponse, error) {
	if err := filter.Validate(); err != nil {
		return leave.ListLeaveRequestResponse{}, err
	}

	page, err := s.leaveRepo.List(ctx, filter.Query())
	if err != nil {
		return leave.ListLeaveRequestResponse{}, fmt.Errorf("list leave requests: %w", err)
	}

	resp := leave.ListLeaveRequestResponse{
		Items:      make([]leave.LeaveRequestResponse, 0, len(page.Items)),
		NextCursor: page.NextCursor,
		Total:      page.Total,
	}
	for _, item := range page.Items {
		resp.Items = append(resp.Items, leave.ToResponse(item))
	}
	return resp, nil
}

// ListReviewQueue implements leave.LeaveService. It lists requests naming
// reviewerID as a reviewer.
func (s *LeaveServiceImpl) ListReviewQueue(ctx context.Context, reviewerID string, filter leave.LeaveRequestFilter) (leave.ListLeaveRequestResponse, error) {
	filter.ReviewerID = &reviewerID
	return s.ListLeaveRequests(ctx, filter)
}

// GetBalanceProjection implements leave.LeaveService.
func (s *LeaveServiceImpl) GetBalanceProjection(ctx context.Context, userID string, req leave.BalanceRequest) (leave.BalanceResponse, error) {
	if err := req.Validate(); err != nil {
		return leave.BalanceResponse{}, err
	}

	owner, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return leave.BalanceResponse{}, fmt.Errorf("get balance projection: %w", err)
	}

	slot := leave.TimeSlotFullDay
	if req.TimeSlot != nil {
		slot = leave.TimeSlot(*req.TimeSlot)
	}
	if !leave.SameDay(req.From, req.To) {
		slot = leave.TimeSlotFullDay
	}

	projection := leave.ProjectBalance(owner.Balance, req.From, req.To, slot, s.now())
	return leave.ToBalanceResponse(projection), nil
}

// ensureReviewersExist fails with ErrReviewerNotFound naming the first unknown id
func (s *LeaveServiceImpl) ensureReviewersExist(ctx context.Context, ids []string) error {
	reviewers, err := s.userRepo.GetByIDs(ctx, ids)
	if err != nil {
		return err
	}
	if len(reviewers) == len(ids) {
		return nil
	}

	found := make(map[string]struct{}, len(reviewers))
	for _, r := range reviewers {
		found[r.ID] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			return fmt.Errorf("%w: %s", leave.ErrReviewerNotFound, id)
		}
	}
	return errors.New("reviewer lookup returned unexpected users")
}

// checkRequestID answers not found for ids that no stored request can carry,
// so malformed path ids never reach the database as uuid parameters
func checkRequestID(id string) error {
	if !validator.IsValidUUID(id) {
		return leave.ErrLeaveRequestNotFound
	}
	return nil
}
