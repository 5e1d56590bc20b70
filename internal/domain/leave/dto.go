package leave

import (
	"strings"
	"time"

	"github.com/cmlabs-hris/leave-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/leave-backend-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 100

	// NearbyLeavePadding widens a date filter so that leaves just before or
	// after the queried range stay visible
	NearbyLeavePadding = 7 * 24 * time.Hour
)

// LeaveRequestFields are the owner-editable fields, shared by create and update
type LeaveRequestFields struct {
	FromDate         string   `json:"from_date"`
	ToDate           string   `json:"to_date"`
	TimeSlot         *string  `json:"time_slot,omitempty"`
	Type             string   `json:"type"`
	Projects         []string `json:"projects"`
	ProjectDeadlines *string  `json:"project_deadlines,omitempty"`
	Reviewers        []string `json:"reviewers"`

	// Parsed by Validate
	From time.Time `json:"-"`
	To   time.Time `json:"-"`
}

func (r *LeaveRequestFields) Validate() error {
	var errs validator.ValidationErrors

	fromOK, toOK := false, false
	if validator.IsEmpty(r.FromDate) {
		errs = append(errs, validator.ValidationError{
			Field:   "from_date",
			Message: "from_date is required",
		})
	} else if d, ok := validator.IsValidDate(r.FromDate); !ok {
		errs = append(errs, validator.ValidationError{
			Field:   "from_date",
			Message: "from_date must be in YYYY-MM-DD format",
		})
	} else {
		r.From, fromOK = d, true
	}

	if validator.IsEmpty(r.ToDate) {
		errs = append(errs, validator.ValidationError{
			Field:   "to_date",
			Message: "to_date is required",
		})
	} else if d, ok := validator.IsValidDate(r.ToDate); !ok {
		errs = append(errs, validator.ValidationError{
			Field:   "to_date",
			Message: "to_date must be in YYYY-MM-DD format",
		})
	} else {
		r.To, toOK = d, true
	}

	if fromOK && toOK && r.From.After(r.To) {
		errs = append(errs, validator.ValidationError{
			Field:   "to_date",
			Message: "to_date must not be before from_date",
		})
	}

	if r.TimeSlot != nil && !TimeSlot(*r.TimeSlot).IsValid() {
		errs = append(errs, validator.ValidationError{
			Field:   "time_slot",
			Message: "time_slot must be one of: full-day, morning, afternoon",
		})
	}

	if !LeaveType(r.Type).IsValid() {
		errs = append(errs, validator.ValidationError{
			Field:   "type",
			Message: "type must be one of: sickness, kids, vacation, school-review",
		})
	}

	r.Projects = validator.Unique(r.Projects)

	if r.ProjectDeadlines != nil && validator.IsEmpty(*r.ProjectDeadlines) {
		r.ProjectDeadlines = nil
	}
	if r.ProjectDeadlines != nil && len(*r.ProjectDeadlines) > 2000 {
		errs = append(errs, validator.ValidationError{
			Field:   "project_deadlines",
			Message: "project_deadlines must not exceed 2000 characters",
		})
	}

	r.Reviewers = validator.Unique(r.Reviewers)
	if len(r.Reviewers) == 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "reviewers",
			Message: "at least one reviewer is required",
		})
	}
	for _, id := range r.Reviewers {
		if !validator.IsValidUUID(id) {
			errs = append(errs, validator.ValidationError{
				Field:   "reviewers",
				Message: "reviewers must be valid user ids",
			})
			break
		}
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// ValidateReviewersFor rejects a reviewer set that names the owner
func (r *LeaveRequestFields) ValidateReviewersFor(ownerID string) error {
	if validator.IsInSlice(ownerID, r.Reviewers) {
		return validator.ValidationErrors{{
			Field:   "reviewers",
			Message: "you cannot review your own leave request",
		}}
	}
	return nil
}

// ApplyTo copies the validated fields onto l and enforces the time-slot invariant
func (r *LeaveRequestFields) ApplyTo(l *LeaveRequest) {
	l.FromDate = r.From
	l.ToDate = r.To
	l.Type = LeaveType(r.Type)
	l.TimeSlot = ""
	if r.TimeSlot != nil {
		l.TimeSlot = TimeSlot(*r.TimeSlot)
	}
	l.NormalizeTimeSlot()
	l.Projects = r.Projects
	if l.Projects == nil {
		l.Projects = []string{}
	}
	l.ProjectDeadlines = r.ProjectDeadlines
	l.ReviewerIDs = r.Reviewers
}

type CreateLeaveRequestRequest struct {
	LeaveRequestFields
}

type UpdateLeaveRequestRequest struct {
	ID string `json:"-"`
	LeaveRequestFields
}

func (r *UpdateLeaveRequestRequest) Validate() error {
	var errs validator.ValidationErrors
	if validator.IsEmpty(r.ID) {
		errs = append(errs, validator.ValidationError{
			Field:   "id",
			Message: "id is required",
		})
	}
	if err := r.LeaveRequestFields.Validate(); err != nil {
		if fieldErrs, ok := err.(validator.ValidationErrors); ok {
			errs = append(errs, fieldErrs...)
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

type ReviewLeaveRequestRequest struct {
	ID         string  `json:"-"`
	IsApproved bool    `json:"is_approved"`
	Reason     *string `json:"reason,omitempty"`
	IsFinal    bool    `json:"is_final"`
}

func (r *ReviewLeaveRequestRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.ID) {
		errs = append(errs, validator.ValidationError{
			Field:   "id",
			Message: "id is required",
		})
	}

	if r.Reason != nil {
		trimmed := strings.TrimSpace(*r.Reason)
		if trimmed == "" {
			r.Reason = nil
		} else if len(trimmed) > 2000 {
			errs = append(errs, validator.ValidationError{
				Field:   "reason",
				Message: "reason must not exceed 2000 characters",
			})
		} else {
			r.Reason = &trimmed
		}
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// LeaveRequestFilter is the listing input as received from the client
type LeaveRequestFilter struct {
	FromDate    *string
	ToDate      *string
	Types       []string
	Statuses    []string
	UserIDs     []string
	ExcludedIDs []string
	ReviewerID  *string
	Cursor      *string
	Limit       int
}

func (f *LeaveRequestFilter) Validate() error {
	var errs validator.ValidationErrors

	var from, to time.Time
	if f.FromDate != nil {
		d, ok := validator.IsValidDate(*f.FromDate)
		if !ok {
			errs = append(errs, validator.ValidationError{
				Field:   "from_date",
				Message: "from_date must be in YYYY-MM-DD format",
			})
		}
		from = d
	}
	if f.ToDate != nil {
		d, ok := validator.IsValidDate(*f.ToDate)
		if !ok {
			errs = append(errs, validator.ValidationError{
				Field:   "to_date",
				Message: "to_date must be in YYYY-MM-DD format",
			})
		}
		to = d
	}
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		errs = append(errs, validator.ValidationError{
			Field:   "to_date",
			Message: "to_date must not be before from_date",
		})
	}

	for _, t := range f.Types {
		if !LeaveType(t).IsValid() {
			errs = append(errs, validator.ValidationError{
				Field:   "type",
				Message: "unknown leave type: " + t,
			})
		}
	}
	for _, s := range f.Statuses {
		if !LeaveRequestStatus(s).IsValid() {
			errs = append(errs, validator.ValidationError{
				Field:   "status",
				Message: "unknown status: " + s,
			})
		}
	}

	if f.Cursor != nil && !validator.IsValidUUID(*f.Cursor) {
		errs = append(errs, validator.ValidationError{
			Field:   "cursor",
			Message: "cursor must be a leave request id",
		})
	}
	if f.ReviewerID != nil && !validator.IsValidUUID(*f.ReviewerID) {
		errs = append(errs, validator.ValidationError{
			Field:   "reviewer_id",
			Message: "reviewer_id must be a valid UUID",
		})
	}
	for _, id := range validator.Unique(f.UserIDs) {
		if !validator.IsValidUUID(id) {
			errs = append(errs, validator.ValidationError{
				Field:   "user_id",
				Message: "user_id must be a valid UUID",
			})
			break
		}
	}
	for _, id := range validator.Unique(f.ExcludedIDs) {
		if !validator.IsValidUUID(id) {
			errs = append(errs, validator.ValidationError{
				Field:   "excluded_id",
				Message: "excluded_id must be a valid UUID",
			})
			break
		}
	}

	if f.Limit == 0 {
		f.Limit = DefaultListLimit
	}
	if f.Limit < 1 || f.Limit > MaxListLimit {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must be between 1 and 100",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// Query turns a validated filter into a repository query. The date range is
// padded on both sides by NearbyLeavePadding.
func (f *LeaveRequestFilter) Query() LeaveRequestQuery {
	q := LeaveRequestQuery{
		UserIDs:     validator.Unique(f.UserIDs),
		ExcludedIDs: validator.Unique(f.ExcludedIDs),
		ReviewerID:  f.ReviewerID,
		Cursor:      f.Cursor,
		Limit:       f.Limit,
	}
	for _, t := range validator.Unique(f.Types) {
		q.Types = append(q.Types, LeaveType(t))
	}
	for _, s := range validator.Unique(f.Statuses) {
		q.Statuses = append(q.Statuses, LeaveRequestStatus(s))
	}
	if f.FromDate != nil {
		if d, ok := validator.IsValidDate(*f.FromDate); ok {
			start := d.Add(-NearbyLeavePadding)
			q.WindowStart = &start
		}
	}
	if f.ToDate != nil {
		if d, ok := validator.IsValidDate(*f.ToDate); ok {
			end := d.Add(NearbyLeavePadding)
			q.WindowEnd = &end
		}
	}
	return q
}

// LeaveRequestQuery is what repositories filter on. A request matches the
// window when its [FromDate, ToDate] interval intersects [WindowStart, WindowEnd].
type LeaveRequestQuery struct {
	WindowStart *time.Time
	WindowEnd   *time.Time
	Types       []LeaveType
	Statuses    []LeaveRequestStatus
	UserIDs     []string
	ExcludedIDs []string
	ReviewerID  *string
	Cursor      *string
	Limit       int
}

// Page is one slice of a cursor-paginated listing
type Page struct {
	Items      []LeaveRequest
	NextCursor *string
	Total      int64
}

type LeaveRequestResponse struct {
	ID               string              `json:"id"`
	UserID           string              `json:"user_id"`
	User             *user.UserResponse  `json:"user,omitempty"`
	FromDate         string              `json:"from_date"`
	ToDate           string              `json:"to_date"`
	TimeSlot         string              `json:"time_slot"`
	Type             string              `json:"type"`
	Status           string              `json:"status"`
	StatusReason     *string             `json:"status_reason,omitempty"`
	Projects         []string            `json:"projects"`
	ProjectDeadlines *string             `json:"project_deadlines,omitempty"`
	Reviewers        []user.UserResponse `json:"reviewers"`
	DurationDays     float64             `json:"duration_days"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

func ToResponse(l LeaveRequest) LeaveRequestResponse {
	resp := LeaveRequestResponse{
		ID:               l.ID,
		UserID:           l.UserID,
		FromDate:         l.FromDate.Format(validator.DateLayout),
		ToDate:           l.ToDate.Format(validator.DateLayout),
		TimeSlot:         string(l.TimeSlot),
		Type:             string(l.Type),
		Status:           string(l.Status),
		StatusReason:     l.StatusReason,
		Projects:         l.Projects,
		ProjectDeadlines: l.ProjectDeadlines,
		Reviewers:        make([]user.UserResponse, 0, len(l.Reviewers)),
		DurationDays:     l.DurationDays(),
		CreatedAt:        l.CreatedAt,
		UpdatedAt:        l.UpdatedAt,
	}
	if resp.Projects == nil {
		resp.Projects = []string{}
	}
	if l.User != nil {
		u := user.ToResponse(*l.User)
		resp.User = &u
	}
	for _, r := range l.Reviewers {
		resp.Reviewers = append(resp.Reviewers, user.ToResponse(r))
	}
	return resp
}

type ListLeaveRequestResponse struct {
	Items      []LeaveRequestResponse `json:"items"`
	NextCursor *string                `json:"next_cursor,omitempty"`
	Total      int64                  `json:"total"`
}

// BalanceRequest asks for the balance projected at the start of a candidate leave
type BalanceRequest struct {
	FromDate string
	ToDate   string
	TimeSlot *string

	From time.Time
	To   time.Time
}

func (r *BalanceRequest) Validate() error {
	var errs validator.ValidationErrors

	if d, ok := validator.IsValidDate(r.FromDate); !ok {
		errs = append(errs, validator.ValidationError{
			Field:   "from",
			Message: "from must be in YYYY-MM-DD format",
		})
	} else {
		r.From = d
	}

	if validator.IsEmpty(r.ToDate) {
		r.To = r.From
	} else if d, ok := validator.IsValidDate(r.ToDate); !ok {
		errs = append(errs, validator.ValidationError{
			Field:   "to",
			Message: "to must be in YYYY-MM-DD format",
		})
	} else {
		r.To = d
	}

	if r.TimeSlot != nil && !TimeSlot(*r.TimeSlot).IsValid() {
		errs = append(errs, validator.ValidationError{
			Field:   "time_slot",
			Message: "time_slot must be one of: full-day, morning, afternoon",
		})
	}

	if len(errs) == 0 && r.From.After(r.To) {
		errs = append(errs, validator.ValidationError{
			Field:   "to",
			Message: "to must not be before from",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type BalanceResponse struct {
	Current       decimal.Decimal `json:"current"`
	OnDate        decimal.Decimal `json:"on_date"`
	OnDateDisplay string          `json:"on_date_display"`
	Date          string          `json:"date"`
	RequestedDays decimal.Decimal `json:"requested_days"`
	Delta         decimal.Decimal `json:"delta"`
	IsMissingDays bool            `json:"is_missing_days"`
}

func ToBalanceResponse(p BalanceProjection) BalanceResponse {
	return BalanceResponse{
		Current:       p.Current,
		OnDate:        p.OnDate,
		OnDateDisplay: FormatDays(p.OnDate),
		Date:          p.Date.Format(validator.DateLayout),
		RequestedDays: p.RequestedDays,
		Delta:         p.Delta,
		IsMissingDays: p.IsMissingDays(),
	}
}
