package postgresql_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cmlabs-hris/leave-backend-go/internal/domain/leave"
	"github.com/cmlabs-hris/leave-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/leave-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/leave-backend-go/internal/repository/postgresql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

type leaveFixture struct {
	repo     leave.LeaveRequestRepository
	owner    user.User
	reviewer user.User
}

func newLeaveFixture(t *testing.T, db *database.DB) leaveFixture {
	t.Helper()
	ctx := context.Background()
	users := postgresql.NewUserRepository(db)

	owner, err := users.Create(ctx, user.User{Name: "Owner", Email: "owner@example.com", Role: user.RoleUser})
	require.NoError(t, err)
	reviewer, err := users.Create(ctx, user.User{Name: "Reviewer", Email: "reviewer@example.com", Role: user.RoleUser})
	require.NoError(t, err)

	return leaveFixture{repo: postgresql.NewLeaveRequestRepository(db), owner: owner, reviewer: reviewer}
}

func (f leaveFixture) create(t *testing.T, from, to string, typ leave.LeaveType) leave.LeaveRequest {
	t.Helper()
	created, err := f.repo.Create(context.Background(), leave.LeaveRequest{
		UserID:      f.owner.ID,
		FromDate:    date(from),
		ToDate:      date(to),
		TimeSlot:    leave.TimeSlotFullDay,
		Type:        typ,
		Status:      leave.LeaveRequestStatusPending,
		Projects:    []string{"Atlas"},
		ReviewerIDs: []string{f.reviewer.ID},
	})
	require.NoError(t, err)
	return created
}

func TestLeaveRequestRepository_CreateAndGet(t *testing.T) {
	db := newTestDatabase(t)
	f := newLeaveFixture(t, db)
	ctx := context.Background()

	created := f.create(t, "2025-06-02", "2025-06-04", leave.LeaveTypeVacation)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, leave.LeaveRequestStatusPending, created.Status)
	assert.True(t, created.FromDate.Equal(date("2025-06-02")))
	assert.Equal(t, []string{"Atlas"}, created.Projects)
	require.Len(t, created.Reviewers, 1)
	assert.Equal(t, f.reviewer.ID, created.Reviewers[0].ID)
	require.NotNil(t, created.User)
	assert.Equal(t, "Owner", created.User.Name)

	_, err := f.repo.GetByID(ctx, "0190a6b4-9999-7000-8000-000000000000")
	assert.ErrorIs(t, err, leave.ErrLeaveRequestNotFound)
}

func TestLeaveRequestRepository_UpdateStatus(t *testing.T) {
	db := newTestDatabase(t)
	f := newLeaveFixture(t, db)
	ctx := context.Background()

	created := f.create(t, "2025-06-02", "2025-06-02", leave.LeaveTypeSickness)
	reason := "busy week"

	updated, err := f.repo.UpdateStatus(ctx, created.ID, leave.LeaveRequestStatusRefused, &reason)
	require.NoError(t, err)
	assert.Equal(t, leave.LeaveRequestStatusRefused, updated.Status)
	require.NotNil(t, updated.StatusReason)
	assert.Equal(t, reason, *updated.StatusReason)

	_, err = f.repo.UpdateStatus(ctx, "0190a6b4-9999-7000-8000-000000000000", leave.LeaveRequestStatusApproved, nil)
	assert.ErrorIs(t, err, leave.ErrLeaveRequestNotFound)
}

func TestLeaveRequestRepository_ListWindowAndCursor(t *testing.T) {
	db := newTestDatabase(t)
	f := newLeaveFixture(t, db)
	ctx := context.Background()

	first := f.create(t, "2025-03-01", "2025-03-05", leave.LeaveTypeVacation)
	second := f.create(t, "2025-03-10", "2025-03-12", leave.LeaveTypeKids)
	third := f.create(t, "2025-03-20", "2025-03-21", leave.LeaveTypeVacation)
	f.create(t, "2025-05-01", "2025-05-02", leave.LeaveTypeVacation)

	start, end := date("2025-03-04"), date("2025-03-20")
	page, err := f.repo.List(ctx, leave.LeaveRequestQuery{WindowStart: &start, WindowEnd: &end, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	require.Len(t, page.Items, 2)
	assert.Equal(t, first.ID, page.Items[0].ID)
	assert.Equal(t, second.ID, page.Items[1].ID)
	require.NotNil(t, page.NextCursor)
	assert.Equal(t, third.ID, *page.NextCursor)

	next, err := f.repo.List(ctx, leave.LeaveRequestQuery{WindowStart: &start, WindowEnd: &end, Limit: 2, Cursor: page.NextCursor})
	require.NoError(t, err)
	require.Len(t, next.Items, 1)
	assert.Equal(t, third.ID, next.Items[0].ID)
	assert.Nil(t, next.NextCursor)

	kids, err := f.repo.List(ctx, leave.LeaveRequestQuery{Types: []leave.LeaveType{leave.LeaveTypeKids}, Limit: 10})
	require.NoError(t, err)
	require.Len(t, kids.Items, 1)
	assert.Equal(t, second.ID, kids.Items[0].ID)

	reviewerID := f.reviewer.ID
	reviewed, err := f.repo.List(ctx, leave.LeaveRequestQuery{ReviewerID: &reviewerID, ExcludedIDs: []string{first.ID}, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, reviewed.Items, 3)
}

func TestTransactor_RollsBackOnError(t *testing.T) {
	db := newTestDatabase(t)
	f := newLeaveFixture(t, db)
	ctx := context.Background()
	tx := postgresql.NewTransactor(db)

	boom := errors.New("boom")
	err := tx.WithinTransaction(ctx, func(ctx context.Context) error {
		_, err := f.repo.Create(ctx, leave.LeaveRequest{
			UserID:      f.owner.ID,
			FromDate:    date("2025-07-01"),
			ToDate:      date("2025-07-01"),
			TimeSlot:    leave.TimeSlotMorning,
			Type:        leave.LeaveTypeKids,
			Status:      leave.LeaveRequestStatusPending,
			ReviewerIDs: []string{f.reviewer.ID},
		})
		require.NoError(t, err)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	page, err := f.repo.List(ctx, leave.LeaveRequestQuery{Limit: 10})
	require.NoError(t, err)
	assert.Zero(t, page.Total)
}

func TestLeaveRequestRepository_UniqueViolationCarriesField(t *testing.T) {
	db := newTestDatabase(t)
	f := newLeaveFixture(t, db)
	ctx := context.Background()

	existing := f.create(t, "2025-06-02", "2025-06-02", leave.LeaveTypeVacation)

	_, err := f.repo.Create(ctx, leave.LeaveRequest{
		ID:          existing.ID,
		UserID:      f.owner.ID,
		FromDate:    date("2025-06-09"),
		ToDate:      date("2025-06-09"),
		TimeSlot:    leave.TimeSlotFullDay,
		Type:        leave.LeaveTypeKids,
		Status:      leave.LeaveRequestStatusPending,
		ReviewerIDs: []string{f.reviewer.ID},
	})
	var conflict *leave.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "id", conflict.Field)

	existing.ReviewerIDs = []string{f.reviewer.ID, f.reviewer.ID}
	err = postgresql.NewTransactor(db).WithinTransaction(ctx, func(ctx context.Context) error {
		_, err := f.repo.Update(ctx, existing)
		return err
	})
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "reviewers", conflict.Field)
}
