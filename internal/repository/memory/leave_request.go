package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/cmlabs-hris/leave-backend-go/internal/domain/leave"
	"github.com/cmlabs-hris/leave-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/leave-backend-go/internal/pkg/validator"
)

type leaveRequestRepository struct {
	store *Store
}

func cloneLeave(l leave.LeaveRequest) leave.LeaveRequest {
	l.Projects = append([]string{}, l.Projects...)
	l.ReviewerIDs = append([]string{}, l.ReviewerIDs...)
	l.User = nil
	l.Reviewers = nil
	return l
}

// hydrate joins owner and reviewers, as the SQL repository does. Caller holds mu.
func (r *leaveRequestRepository) hydrate(l leave.LeaveRequest) leave.LeaveRequest {
	l = cloneLeave(l)
	if owner, ok := r.store.users[l.UserID]; ok {
		l.User = &owner
	}
	l.Reviewers = make([]user.User, 0, len(l.ReviewerIDs))
	ids := l.ReviewerIDs[:0]
	for _, id := range l.ReviewerIDs {
		if u, ok := r.store.users[id]; ok {
			l.Reviewers = append(l.Reviewers, u)
			ids = append(ids, id)
		}
	}
	l.ReviewerIDs = ids
	return l
}

// checkReferences mirrors the foreign keys of the SQL schema. Caller holds mu.
func (r *leaveRequestRepository) checkReferences(l leave.LeaveRequest) error {
	if _, ok := r.store.users[l.UserID]; !ok {
		return fmt.Errorf("leave request owner %s: %w", l.UserID, user.ErrUserNotFound)
	}
	for _, id := range l.ReviewerIDs {
		if _, ok := r.store.users[id]; !ok {
			return fmt.Errorf("reviewer %s: %w", id, leave.ErrReviewerNotFound)
		}
	}
	if len(validator.Unique(l.ReviewerIDs)) != len(l.ReviewerIDs) {
		return &leave.ConflictError{Field: "reviewers"}
	}
	return nil
}

func (r *leaveRequestRepository) Create(ctx context.Context, request leave.LeaveRequest) (leave.LeaveRequest, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if request.ID == "" {
		id, err := newID()
		if err != nil {
			return leave.LeaveRequest{}, fmt.Errorf("generate leave request id: %w", err)
		}
		request.ID = id
	}
	if _, exists := r.store.leaves[request.ID]; exists {
		return leave.LeaveRequest{}, &leave.ConflictError{Field: "id"}
	}
	if err := r.checkReferences(request); err != nil {
		return leave.LeaveRequest{}, err
	}

	now := r.store.now()
	request.FromDate = leave.TruncateToDate(request.FromDate)
	request.ToDate = leave.TruncateToDate(request.ToDate)
	request.CreatedAt = now
	request.UpdatedAt = now
	remember(ctx, r.store.leaves, request.ID)
	r.store.leaves[request.ID] = cloneLeave(request)

	return r.hydrate(request), nil
}

func (r *leaveRequestRepository) GetByID(_ context.Context, id string) (leave.LeaveRequest, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	l, ok := r.store.leaves[id]
	if !ok {
		return leave.LeaveRequest{}, leave.ErrLeaveRequestNotFound
	}
	return r.hydrate(l), nil
}

func (r *leaveRequestRepository) Update(ctx context.Context, request leave.LeaveRequest) (leave.LeaveRequest, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	existing, ok := r.store.leaves[request.ID]
	if !ok {
		return leave.LeaveRequest{}, leave.ErrLeaveRequestNotFound
	}
	if err := r.checkReferences(request); err != nil {
		return leave.LeaveRequest{}, err
	}

	existing.FromDate = leave.TruncateToDate(request.FromDate)
	existing.ToDate = leave.TruncateToDate(request.ToDate)
	existing.TimeSlot = request.TimeSlot
	existing.Type = request.Type
	existing.Status = request.Status
	existing.StatusReason = request.StatusReason
	existing.Projects = request.Projects
	existing.ProjectDeadlines = request.ProjectDeadlines
	existing.ReviewerIDs = request.ReviewerIDs
	existing.UpdatedAt = r.store.now()
	remember(ctx, r.store.leaves, request.ID)
	r.store.leaves[request.ID] = cloneLeave(existing)

	return r.hydrate(existing), nil
}

func (r *leaveRequestRepository) UpdateStatus(ctx context.Context, id string, status leave.LeaveRequestStatus, reason *string) (leave.LeaveRequest, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	existing, ok := r.store.leaves[id]
	if !ok {
		return leave.LeaveRequest{}, leave.ErrLeaveRequestNotFound
	}
	existing.Status = status
	existing.StatusReason = reason
	existing.UpdatedAt = r.store.now()
	remember(ctx, r.store.leaves, id)
	r.store.leaves[id] = existing

	return r.hydrate(existing), nil
}

func (r *leaveRequestRepository) List(_ context.Context, query leave.LeaveRequestQuery) (leave.Page, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	matched := []leave.LeaveRequest{}
	for _, l := range r.store.leaves {
		if matchesQuery(l, query) {
			matched = append(matched, l)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return lessLeave(matched[i], matched[j])
	})

	page := leave.Page{Total: int64(len(matched)), Items: []leave.LeaveRequest{}}

	start := 0
	if query.Cursor != nil {
		cursor, ok := r.store.leaves[*query.Cursor]
		if !ok {
			return page, nil
		}
		start = sort.Search(len(matched), func(i int) bool {
			return !lessLeave(matched[i], cursor)
		})
	}

	limit := query.Limit
	if limit <= 0 {
		limit = leave.DefaultListLimit
	}
	end := start + limit
	if end < len(matched) {
		next := matched[end].ID
		page.NextCursor = &next
	} else {
		end = len(matched)
	}

	for _, l := range matched[start:end] {
		page.Items = append(page.Items, r.hydrate(l))
	}
	return page, nil
}

func lessLeave(a, b leave.LeaveRequest) bool {
	if !a.FromDate.Equal(b.FromDate) {
		return a.FromDate.Before(b.FromDate)
	}
	return a.ID < b.ID
}

func matchesQuery(l leave.LeaveRequest, q leave.LeaveRequestQuery) bool {
	if q.WindowEnd != nil && l.FromDate.After(*q.WindowEnd) {
		return false
	}
	if q.WindowStart != nil && l.ToDate.Before(*q.WindowStart) {
		return false
	}
	if len(q.Types) > 0 && !contains(q.Types, l.Type) {
		return false
	}
	if len(q.Statuses) > 0 && !contains(q.Statuses, l.Status) {
		return false
	}
	if len(q.UserIDs) > 0 && !validator.IsInSlice(l.UserID, q.UserIDs) {
		return false
	}
	if validator.IsInSlice(l.ID, q.ExcludedIDs) {
		return false
	}
	if q.ReviewerID != nil && !l.HasReviewer(*q.ReviewerID) {
		return false
	}
	return true
}

func contains[T comparable](values []T, v T) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
