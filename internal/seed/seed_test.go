package seed

import (
	"context"
	"testing"

	"github.com/cmlabs-hris/leave-backend-go/internal/domain/leave"
	"github.com/cmlabs-hris/leave-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/leave-backend-go/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seeder := func() *Seeder {
		return NewSeeder(store.Users(), store.LeaveRequests(), store.Transactor(), 42)
	}

	first, err := seeder().Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(accounts), first.UsersCreated)
	assert.Equal(t, maxOwners*leavesPerOwner, first.LeavesCreated)
	assert.Equal(t, user.RoleAdmin, first.Admin.Role)
	assert.Equal(t, UserEmail, first.User.Email)

	second, err := seeder().Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, second.UsersCreated)
	assert.Equal(t, len(accounts), second.UsersExisting)
	assert.Zero(t, second.LeavesCreated)

	page, err := store.LeaveRequests().List(ctx, leave.LeaveRequestQuery{Limit: leave.MaxListLimit})
	require.NoError(t, err)
	assert.Equal(t, int64(maxOwners*leavesPerOwner), page.Total)
}

func TestRun_LeavesRespectInvariants(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	_, err := NewSeeder(store.Users(), store.LeaveRequests(), store.Transactor(), 7).Run(ctx)
	require.NoError(t, err)

	page, err := store.LeaveRequests().List(ctx, leave.LeaveRequestQuery{Limit: leave.MaxListLimit})
	require.NoError(t, err)
	require.NotEmpty(t, page.Items)

	for _, l := range page.Items {
		assert.False(t, l.FromDate.After(l.ToDate))
		assert.NotEmpty(t, l.ReviewerIDs)
		assert.False(t, l.HasReviewer(l.UserID), "owner never reviews their own leave")
		assert.True(t, l.Status.IsValid())
		if !l.IsSingleDay() {
			assert.Equal(t, leave.TimeSlotFullDay, l.TimeSlot)
		}
		if l.Status == leave.LeaveRequestStatusRefused {
			require.NotNil(t, l.StatusReason)
		}
	}
}
