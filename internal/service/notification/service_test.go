package notification

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/leave-backend-go/internal/domain/notification"
	"github.com/cmlabs-hris/leave-backend-go/internal/pkg/sse"
	"github.com/cmlabs-hris/leave-backend-go/internal/pkg/validator"
	"github.com/cmlabs-hris/leave-backend-go/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const recipientID = "0190a6b4-1111-7000-8000-000000000001"

func newTestService(t *testing.T) (notification.Service, notification.Repository) {
	t.Helper()
	repo := memory.NewStore().Notifications()
	svc := NewNotificationService(repo, sse.NewHub(), Config{
		BatchSize:     10,
		FlushInterval: 10 * time.Millisecond,
		WorkerCount:   1,
		QueueSize:     10,
	})
	t.Cleanup(svc.Stop)
	return svc, repo
}

func leaveSubmitted(title string) notification.CreateNotificationRequest {
	return notification.CreateNotificationRequest{
		RecipientID: recipientID,
		Type:        notification.TypeLeaveSubmitted,
		Title:       title,
		Message:     "Bob demande 2 jours",
		Data:        map[string]interface{}{"leave_request_id": "abc"},
	}
}

func TestQueueNotification_PersistsAndCounts(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.QueueBulkNotification(ctx, []notification.CreateNotificationRequest{
		leaveSubmitted("first"),
		leaveSubmitted("second"),
	}))

	require.Eventually(t, func() bool {
		count, err := svc.GetUnreadCount(ctx, recipientID)
		return err == nil && count == 2
	}, time.Second, 5*time.Millisecond)

	list, err := svc.GetNotifications(ctx, notification.ListNotificationsRequest{UserID: recipientID})
	require.NoError(t, err)
	assert.Equal(t, 2, list.Total)
	assert.Equal(t, 2, list.UnreadCount)
	assert.Equal(t, 1, list.Page)
	assert.Equal(t, 20, list.PageSize)
	require.Len(t, list.Notifications, 2)
	for _, n := range list.Notifications {
		assert.NotEmpty(t, n.ID)
		assert.Equal(t, notification.TypeLeaveSubmitted, n.Type)
	}
}

func TestMarkAsRead(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.QueueNotification(ctx, leaveSubmitted("only")))
	require.Eventually(t, func() bool {
		count, _ := svc.GetUnreadCount(ctx, recipientID)
		return count == 1
	}, time.Second, 5*time.Millisecond)

	list, err := svc.GetNotifications(ctx, notification.ListNotificationsRequest{UserID: recipientID, UnreadOnly: true})
	require.NoError(t, err)
	require.Len(t, list.Notifications, 1)

	require.NoError(t, svc.MarkAsRead(ctx, recipientID, notification.MarkAsReadRequest{
		NotificationIDs: []string{list.Notifications[0].ID},
	}))

	count, err := svc.GetUnreadCount(ctx, recipientID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestMarkAsRead_RequiresIDs(t *testing.T) {
	svc, _ := newTestService(t)

	err := svc.MarkAsRead(context.Background(), recipientID, notification.MarkAsReadRequest{})

	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "notification_ids", verrs[0].Field)
}

func TestMalformedNotificationIDs(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	err := svc.MarkAsRead(ctx, recipientID, notification.MarkAsReadRequest{NotificationIDs: []string{"abc"}})
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "notification_ids", verrs[0].Field)

	err = svc.Delete(ctx, recipientID, "abc")
	assert.ErrorIs(t, err, notification.ErrNotificationNotFound)
}

func TestSubscribe_ReceivesPersistedNotification(t *testing.T) {
	svc, _ := newTestService(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, cleanup := svc.Subscribe(ctx, recipientID)
	defer cleanup()

	require.NoError(t, svc.QueueNotification(context.Background(), leaveSubmitted("live")))

	select {
	case event := <-events:
		assert.Equal(t, "notification", event.Event)
		assert.Equal(t, "live", event.Data.Title)
	case <-time.After(time.Second):
		t.Fatal("expected a notification event")
	}
}

func TestStop_FlushesQueueAndRejectsNewWork(t *testing.T) {
	repo := memory.NewStore().Notifications()
	svc := NewNotificationService(repo, sse.NewHub(), Config{
		BatchSize:     50,
		FlushInterval: time.Hour,
		WorkerCount:   1,
	})
	ctx := context.Background()

	require.NoError(t, svc.QueueNotification(ctx, leaveSubmitted("pending")))
	svc.Stop()

	count, err := repo.GetUnreadCount(ctx, recipientID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	assert.ErrorIs(t, svc.QueueNotification(ctx, leaveSubmitted("late")), notification.ErrServiceStopped)

	// Stop is idempotent
	svc.Stop()
}
