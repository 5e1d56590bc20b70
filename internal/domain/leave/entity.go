package leave

import (
	"time"

	"github.com/cmlabs-hris/leave-backend-go/internal/domain/user"
)

type LeaveType string

const (
	LeaveTypeSickness     LeaveType = "sickness"
	LeaveTypeKids         LeaveType = "kids"
	LeaveTypeVacation     LeaveType = "vacation"
	LeaveTypeSchoolReview LeaveType = "school-review"
)

func (t LeaveType) IsValid() bool {
	switch t {
	case LeaveTypeSickness, LeaveTypeKids, LeaveTypeVacation, LeaveTypeSchoolReview:
		return true
	}
	return false
}

// TimeSlot is only meaningful for single-day leaves
type TimeSlot string

const (
	TimeSlotFullDay   TimeSlot = "full-day"
	TimeSlotMorning   TimeSlot = "morning"
	TimeSlotAfternoon TimeSlot = "afternoon"
)

func (s TimeSlot) IsValid() bool {
	switch s {
	case TimeSlotFullDay, TimeSlotMorning, TimeSlotAfternoon:
		return true
	}
	return false
}

// IsHalfDay reports whether the slot covers half a working day
func (s TimeSlot) IsHalfDay() bool {
	return s == TimeSlotMorning || s == TimeSlotAfternoon
}

// LeaveRequest entity
type LeaveRequest struct {
	ID     string
	UserID string

	FromDate time.Time
	ToDate   time.Time
	TimeSlot TimeSlot
	Type     LeaveType

	Status       LeaveRequestStatus
	StatusReason *string

	Projects         []string
	ProjectDeadlines *string

	ReviewerIDs []string

	CreatedAt time.Time
	UpdatedAt time.Time

	// Relationships (for responses)
	User      *user.User
	Reviewers []user.User
}

// IsSingleDay reports whether the leave starts and ends on the same calendar day
func (l *LeaveRequest) IsSingleDay() bool {
	return SameDay(l.FromDate, l.ToDate)
}

// IsOwnedBy reports whether userID submitted the leave
func (l *LeaveRequest) IsOwnedBy(userID string) bool {
	return l.UserID == userID
}

// HasReviewer reports whether userID is in the leave's reviewer set
func (l *LeaveRequest) HasReviewer(userID string) bool {
	for _, id := range l.ReviewerIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// NormalizeTimeSlot applies the time-slot invariant: unset defaults to full-day,
// and multi-day leaves are always full-day.
func (l *LeaveRequest) NormalizeTimeSlot() {
	if l.TimeSlot == "" || !l.IsSingleDay() {
		l.TimeSlot = TimeSlotFullDay
	}
}

// DurationDays is the number of leave days the request consumes
func (l *LeaveRequest) DurationDays() float64 {
	return CountLeaveDays(l.FromDate, l.ToDate, l.TimeSlot)
}

// CountLeaveDays counts the inclusive calendar days between from and to.
// A single-day morning or afternoon counts as half a day.
func CountLeaveDays(from, to time.Time, slot TimeSlot) float64 {
	from, to = TruncateToDate(from), TruncateToDate(to)
	if to.Before(from) {
		from, to = to, from
	}
	days := int(to.Sub(from).Hours()/24) + 1
	if days == 1 && slot.IsHalfDay() {
		return 0.5
	}
	return float64(days)
}

// TruncateToDate drops the time of day, keeping the calendar date in UTC
func TruncateToDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SameDay reports whether a and b fall on the same calendar date
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
