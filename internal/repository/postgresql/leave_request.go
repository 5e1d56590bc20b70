package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cmlabs-hris/leave-backend-go/internal/domain/leave"
	"github.com/cmlabs-hris/leave-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/leave-backend-go/internal/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const leaveRequestSelect = `
	SELECT lr.id, lr.user_id, lr.from_date, lr.to_date, lr.time_slot, lr.type,
		   lr.status, lr.status_reason, lr.projects, lr.project_deadlines,
		   lr.created_at, lr.updated_at,
		   u.id, u.name, u.email, u.role, u.balance, u.onboarded_at, u.created_at, u.updated_at
	FROM leave_requests lr
	INNER JOIN users u ON lr.user_id = u.id
`

type leaveRequestRepositoryImpl struct {
	db *database.DB
}

func NewLeaveRequestRepository(db *database.DB) leave.LeaveRequestRepository {
	return &leaveRequestRepositoryImpl{db: db}
}

func scanLeaveRequest(row pgx.Row) (leave.LeaveRequest, error) {
	var lr leave.LeaveRequest
	var owner user.User
	err := row.Scan(
		&lr.ID,
		&lr.UserID,
		&lr.FromDate,
		&lr.ToDate,
		&lr.TimeSlot,
		&lr.Type,
		&lr.Status,
		&lr.StatusReason,
		&lr.Projects,
		&lr.ProjectDeadlines,
		&lr.CreatedAt,
		&lr.UpdatedAt,
		&owner.ID,
		&owner.Name,
		&owner.Email,
		&owner.Role,
		&owner.Balance,
		&owner.OnboardedAt,
		&owner.CreatedAt,
		&owner.UpdatedAt,
	)
	if err != nil {
		return leave.LeaveRequest{}, err
	}
	lr.FromDate = leave.TruncateToDate(lr.FromDate)
	lr.ToDate = leave.TruncateToDate(lr.ToDate)
	lr.User = &owner
	return lr, nil
}

// Create implements leave.LeaveRequestRepository. Call it inside a transaction
// so the request and its reviewer rows are written together.
func (r *leaveRequestRepositoryImpl) Create(ctx context.Context, request leave.LeaveRequest) (leave.LeaveRequest, error) {
	q := GetQuerier(ctx, r.db)

	if request.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return leave.LeaveRequest{}, fmt.Errorf("generate leave request id: %w", err)
		}
		request.ID = id.String()
	}

	query := `
		INSERT INTO leave_requests (
			id, user_id, from_date, to_date, time_slot, type,
			status, status_reason, projects, project_deadlines,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10,
			NOW(), NOW()
		)
	`

	_, err := q.Exec(ctx, query,
		request.ID, request.UserID, request.FromDate, request.ToDate, request.TimeSlot, request.Type,
		request.Status, request.StatusReason, nonNil(request.Projects), request.ProjectDeadlines,
	)
	if err != nil {
		return leave.LeaveRequest{}, translateLeaveError(err, "failed to create leave request")
	}

	if err := r.insertReviewers(ctx, q, request.ID, request.ReviewerIDs); err != nil {
		return leave.LeaveRequest{}, err
	}

	return r.GetByID(ctx, request.ID)
}

// GetByID implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) GetByID(ctx context.Context, id string) (leave.LeaveRequest, error) {
	q := GetQuerier(ctx, r.db)

	lr, err := scanLeaveRequest(q.QueryRow(ctx, leaveRequestSelect+` WHERE lr.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return leave.LeaveRequest{}, leave.ErrLeaveRequestNotFound
		}
		return leave.LeaveRequest{}, fmt.Errorf("failed to get leave request: %w", err)
	}

	items := []leave.LeaveRequest{lr}
	if err := r.attachReviewers(ctx, q, items); err != nil {
		return leave.LeaveRequest{}, err
	}
	return items[0], nil
}

// Update implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) Update(ctx context.Context, request leave.LeaveRequest) (leave.LeaveRequest, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE leave_requests
		SET from_date = $1, to_date = $2, time_slot = $3, type = $4,
			status = $5, status_reason = $6, projects = $7, project_deadlines = $8,
			updated_at = NOW()
		WHERE id = $9
	`

	tag, err := q.Exec(ctx, query,
		request.FromDate, request.ToDate, request.TimeSlot, request.Type,
		request.Status, request.StatusReason, nonNil(request.Projects), request.ProjectDeadlines,
		request.ID,
	)
	if err != nil {
		return leave.LeaveRequest{}, translateLeaveError(err, "failed to update leave request")
	}
	if tag.RowsAffected() == 0 {
		return leave.LeaveRequest{}, leave.ErrLeaveRequestNotFound
	}

	if _, err := q.Exec(ctx, `DELETE FROM leave_request_reviewers WHERE leave_request_id = $1`, request.ID); err != nil {
		return leave.LeaveRequest{}, fmt.Errorf("failed to clear reviewers: %w", err)
	}
	if err := r.insertReviewers(ctx, q, request.ID, request.ReviewerIDs); err != nil {
		return leave.LeaveRequest{}, err
	}

	return r.GetByID(ctx, request.ID)
}

// UpdateStatus implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) UpdateStatus(ctx context.Context, id string, status leave.LeaveRequestStatus, reason *string) (leave.LeaveRequest, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE leave_requests
		SET status = $1, status_reason = $2, updated_at = NOW()
		WHERE id = $3
	`
	tag, err := q.Exec(ctx, query, status, reason, id)
	if err != nil {
		return leave.LeaveRequest{}, fmt.Errorf("failed to update leave request status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return leave.LeaveRequest{}, leave.ErrLeaveRequestNotFound
	}

	return r.GetByID(ctx, id)
}

// List implements leave.LeaveRequestRepository. Rows are ordered by
// (from_date, id); the cursor row itself starts the page.
func (r *leaveRequestRepositoryImpl) List(ctx context.Context, query leave.LeaveRequestQuery) (leave.Page, error) {
	q := GetQuerier(ctx, r.db)

	whereClause, args := buildLeaveRequestWhere(query)

	var total int64
	countQuery := `SELECT COUNT(*) FROM leave_requests lr ` + whereClause
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return leave.Page{}, fmt.Errorf("failed to count leave requests: %w", err)
	}

	pageWhere := whereClause
	if query.Cursor != nil {
		args = append(args, *query.Cursor)
		cursorCond := fmt.Sprintf("(lr.from_date, lr.id) >= (SELECT c.from_date, c.id FROM leave_requests c WHERE c.id = $%d)", len(args))
		if pageWhere == "" {
			pageWhere = "WHERE " + cursorCond
		} else {
			pageWhere += " AND " + cursorCond
		}
	}

	limit := query.Limit
	if limit <= 0 {
		limit = leave.DefaultListLimit
	}
	args = append(args, limit+1)

	dataQuery := fmt.Sprintf(`%s %s ORDER BY lr.from_date ASC, lr.id ASC LIMIT $%d`, leaveRequestSelect, pageWhere, len(args))

	rows, err := q.Query(ctx, dataQuery, args...)
	if err != nil {
		return leave.Page{}, fmt.Errorf("failed to query leave requests: %w", err)
	}
	items := []leave.LeaveRequest{}
	for rows.Next() {
		lr, err := scanLeaveRequest(rows)
		if err != nil {
			rows.Close()
			return leave.Page{}, fmt.Errorf("failed to scan leave request: %w", err)
		}
		items = append(items, lr)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return leave.Page{}, fmt.Errorf("failed to iterate leave requests: %w", err)
	}

	page := leave.Page{Total: total}
	if len(items) > limit {
		next := items[limit].ID
		page.NextCursor = &next
		items = items[:limit]
	}

	if err := r.attachReviewers(ctx, q, items); err != nil {
		return leave.Page{}, err
	}
	page.Items = items
	return page, nil
}

// buildLeaveRequestWhere translates the query filters; the date window keeps
// requests whose [from_date, to_date] overlaps it
func buildLeaveRequestWhere(query leave.LeaveRequestQuery) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	add := func(format string, value interface{}) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(format, len(args)))
	}

	if query.WindowEnd != nil {
		add("lr.from_date <= $%d", *query.WindowEnd)
	}
	if query.WindowStart != nil {
		add("lr.to_date >= $%d", *query.WindowStart)
	}
	if len(query.Types) > 0 {
		add("lr.type = ANY($%d::text[])", toStrings(query.Types))
	}
	if len(query.Statuses) > 0 {
		add("lr.status = ANY($%d::text[])", toStrings(query.Statuses))
	}
	if len(query.UserIDs) > 0 {
		add("lr.user_id = ANY($%d::uuid[])", query.UserIDs)
	}
	if len(query.ExcludedIDs) > 0 {
		add("lr.id <> ALL($%d::uuid[])", query.ExcludedIDs)
	}
	if query.ReviewerID != nil {
		add("EXISTS (SELECT 1 FROM leave_request_reviewers rv WHERE rv.leave_request_id = lr.id AND rv.user_id = $%d)", *query.ReviewerID)
	}

	if len(conditions) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}

func (r *leaveRequestRepositoryImpl) insertReviewers(ctx context.Context, q database.Querier, requestID string, reviewerIDs []string) error {
	if len(reviewerIDs) == 0 {
		return nil
	}

	query := `
		INSERT INTO leave_request_reviewers (leave_request_id, user_id, position)
		SELECT $1::uuid, reviewer.id, reviewer.position - 1
		FROM unnest($2::uuid[]) WITH ORDINALITY AS reviewer(id, position)
	`
	if _, err := q.Exec(ctx, query, requestID, reviewerIDs); err != nil {
		return translateLeaveError(err, "failed to insert reviewers")
	}
	return nil
}

// attachReviewers loads the reviewer users of items in one query
func (r *leaveRequestRepositoryImpl) attachReviewers(ctx context.Context, q database.Querier, items []leave.LeaveRequest) error {
	if len(items) == 0 {
		return nil
	}

	ids := make([]string, len(items))
	index := make(map[string]int, len(items))
	for i := range items {
		ids[i] = items[i].ID
		index[items[i].ID] = i
		items[i].ReviewerIDs = []string{}
		items[i].Reviewers = []user.User{}
	}

	query := `
		SELECT rv.leave_request_id, ` + prefixed("u", userColumns) + `
		FROM leave_request_reviewers rv
		INNER JOIN users u ON rv.user_id = u.id
		WHERE rv.leave_request_id = ANY($1::uuid[])
		ORDER BY rv.leave_request_id, rv.position
	`
	rows, err := q.Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("failed to query reviewers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var requestID string
		var u user.User
		if err := rows.Scan(
			&requestID,
			&u.ID,
			&u.Name,
			&u.Email,
			&u.Role,
			&u.Balance,
			&u.OnboardedAt,
			&u.CreatedAt,
			&u.UpdatedAt,
		); err != nil {
			return fmt.Errorf("failed to scan reviewer: %w", err)
		}
		i, ok := index[requestID]
		if !ok {
			continue
		}
		items[i].ReviewerIDs = append(items[i].ReviewerIDs, u.ID)
		items[i].Reviewers = append(items[i].Reviewers, u)
	}
	return rows.Err()
}

func translateLeaveError(err error, msg string) error {
	if constraint, ok := uniqueViolationConstraint(err); ok {
		return &leave.ConflictError{Field: constraintField(constraint)}
	}
	return fmt.Errorf("%s: %w", msg, err)
}

func prefixed(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}

func toStrings[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
