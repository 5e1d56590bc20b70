package leave

import (
	"strings"
	"testing"
	"time"

	"github.com/cmlabs-hris/leave-backend-go/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

const (
	reviewerA = "0190a6b4-0001-7000-8000-000000000001"
	reviewerB = "0190a6b4-0002-7000-8000-000000000002"
)

func validFields() LeaveRequestFields {
	return LeaveRequestFields{
		FromDate:  "2025-06-02",
		ToDate:    "2025-06-02",
		Type:      string(LeaveTypeVacation),
		Projects:  []string{"Atlas", "Atlas"},
		Reviewers: []string{reviewerA, reviewerA, reviewerB},
	}
}

func fieldsOf(t *testing.T, err error) map[string]string {
	t.Helper()
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	return verrs.ToMap()
}

func TestLeaveRequestFields_Validate(t *testing.T) {
	f := validFields()
	require.NoError(t, f.Validate())

	assert.Equal(t, date(2025, 6, 2), f.From)
	assert.Equal(t, []string{"Atlas"}, f.Projects)
	assert.Equal(t, []string{reviewerA, reviewerB}, f.Reviewers)

	var l LeaveRequest
	f.ApplyTo(&l)
	assert.Equal(t, TimeSlotFullDay, l.TimeSlot)
	assert.Equal(t, []string{reviewerA, reviewerB}, l.ReviewerIDs)
}

func TestLeaveRequestFields_ValidateErrors(t *testing.T) {
	f := LeaveRequestFields{
		FromDate:         "2025-06-05",
		ToDate:           "2025-06-02",
		TimeSlot:         strPtr("evening"),
		Type:             "holiday",
		ProjectDeadlines: strPtr(strings.Repeat("x", 2001)),
	}

	fields := fieldsOf(t, f.Validate())
	assert.Contains(t, fields, "to_date")
	assert.Contains(t, fields, "time_slot")
	assert.Contains(t, fields, "type")
	assert.Contains(t, fields, "project_deadlines")
	assert.Contains(t, fields, "reviewers")
}

func TestLeaveRequestFields_ValidateRejectsMalformedReviewer(t *testing.T) {
	f := validFields()
	f.Reviewers = []string{reviewerA, "not-a-user-id"}

	fields := fieldsOf(t, f.Validate())
	assert.Equal(t, "reviewers must be valid user ids", fields["reviewers"])
}

func TestLeaveRequestFields_ValidateReviewersFor(t *testing.T) {
	f := validFields()
	require.NoError(t, f.Validate())

	assert.NoError(t, f.ValidateReviewersFor("owner"))
	fields := fieldsOf(t, f.ValidateReviewersFor(reviewerB))
	assert.Equal(t, "you cannot review your own leave request", fields["reviewers"])
}

func TestReviewLeaveRequestRequest_Validate(t *testing.T) {
	blank := ReviewLeaveRequestRequest{ID: "x", Reason: strPtr("   ")}
	require.NoError(t, blank.Validate())
	assert.Nil(t, blank.Reason)

	trimmed := ReviewLeaveRequestRequest{ID: "x", Reason: strPtr("  busy week ")}
	require.NoError(t, trimmed.Validate())
	assert.Equal(t, "busy week", *trimmed.Reason)

	missing := ReviewLeaveRequestRequest{}
	assert.Contains(t, fieldsOf(t, missing.Validate()), "id")
}

func TestLeaveRequestFilter_ValidateDefaultsLimit(t *testing.T) {
	f := LeaveRequestFilter{}
	require.NoError(t, f.Validate())
	assert.Equal(t, DefaultListLimit, f.Limit)

	tooMany := LeaveRequestFilter{Limit: MaxListLimit + 1}
	assert.Contains(t, fieldsOf(t, tooMany.Validate()), "limit")

	bad := LeaveRequestFilter{
		Types:    []string{"holiday"},
		Statuses: []string{"archived"},
		Cursor:   strPtr("not-an-id"),
		UserIDs:  []string{"nope"},
	}
	fields := fieldsOf(t, bad.Validate())
	assert.Contains(t, fields, "type")
	assert.Contains(t, fields, "status")
	assert.Contains(t, fields, "cursor")
	assert.Contains(t, fields, "user_id")
}

func TestLeaveRequestFilter_QueryPadsWindow(t *testing.T) {
	f := LeaveRequestFilter{
		FromDate: strPtr("2025-03-10"),
		ToDate:   strPtr("2025-03-12"),
		Types:    []string{"vacation", "vacation"},
	}
	require.NoError(t, f.Validate())

	q := f.Query()
	require.NotNil(t, q.WindowStart)
	require.NotNil(t, q.WindowEnd)
	assert.Equal(t, date(2025, 3, 3), *q.WindowStart)
	assert.Equal(t, date(2025, 3, 19), *q.WindowEnd)
	assert.Equal(t, []LeaveType{LeaveTypeVacation}, q.Types)
	assert.Equal(t, DefaultListLimit, q.Limit)
	assert.Equal(t, 7*24*time.Hour, NearbyLeavePadding)
}

func TestBalanceRequest_Validate(t *testing.T) {
	single := BalanceRequest{FromDate: "2025-06-02"}
	require.NoError(t, single.Validate())
	assert.Equal(t, single.From, single.To)

	reversed := BalanceRequest{FromDate: "2025-06-05", ToDate: "2025-06-02"}
	assert.Contains(t, fieldsOf(t, reversed.Validate()), "to")
}
