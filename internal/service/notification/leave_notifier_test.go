package notification

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/leave-backend-go/internal/domain/leave"
	"github.com/cmlabs-hris/leave-backend-go/internal/domain/notification"
	"github.com/cmlabs-hris/leave-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/leave-backend-go/internal/pkg/email"
	"github.com/cmlabs-hris/leave-backend-go/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingQueue struct {
	notification.Service
	mu   sync.Mutex
	reqs []notification.CreateNotificationRequest
}

func (q *recordingQueue) QueueBulkNotification(_ context.Context, reqs []notification.CreateNotificationRequest) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.reqs = append(q.reqs, reqs...)
	return nil
}

type sentEmail struct {
	kind string
	to   string
	data email.LeaveEmailData
}

type recordingEmail struct {
	sent []sentEmail
}

func (e *recordingEmail) SendLeaveSubmitted(to string, data email.LeaveEmailData) error {
	e.sent = append(e.sent, sentEmail{kind: "submitted", to: to, data: data})
	return nil
}

func (e *recordingEmail) SendLeaveDecision(to string, data email.LeaveEmailData) error {
	e.sent = append(e.sent, sentEmail{kind: "decision", to: to, data: data})
	return nil
}

type notifierFixture struct {
	notifier *LeaveNotifier
	queue    *recordingQueue
	mail     *recordingEmail
	owner    user.User
	peer     user.User
	admin    user.User
}

func newNotifierFixture(t *testing.T) notifierFixture {
	t.Helper()
	ctx := context.Background()
	users := memory.NewStore().Users()

	owner, err := users.Create(ctx, user.User{Name: "Olive", Email: "olive@example.com", Role: user.RoleUser})
	require.NoError(t, err)
	peer, err := users.Create(ctx, user.User{Name: "Pierre", Email: "pierre@example.com", Role: user.RoleUser})
	require.NoError(t, err)
	admin, err := users.Create(ctx, user.User{Name: "Ada", Email: "ada@example.com", Role: user.RoleAdmin})
	require.NoError(t, err)

	queue := &recordingQueue{}
	mail := &recordingEmail{}
	n := NewLeaveNotifier(queue, mail, users, LeaveNotifierConfig{AppName: "Congés", FrontendURL: "https://leaves.example.com/"})
	n.sendAsync = func(f func()) { f() }

	return notifierFixture{notifier: n, queue: queue, mail: mail, owner: owner, peer: peer, admin: admin}
}

func (f notifierFixture) request(status leave.LeaveRequestStatus) leave.LeaveRequest {
	owner := f.owner
	return leave.LeaveRequest{
		ID:          "0190a6b4-2222-7000-8000-000000000001",
		UserID:      owner.ID,
		User:        &owner,
		FromDate:    time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC),
		ToDate:      time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC),
		TimeSlot:    leave.TimeSlotFullDay,
		Type:        leave.LeaveTypeVacation,
		Status:      status,
		Projects:    []string{"Atlas", "Zephyr"},
		ReviewerIDs: []string{f.peer.ID},
		Reviewers:   []user.User{f.peer},
	}
}

func TestLeaveSubmitted_NotifiesAndEmailsReviewers(t *testing.T) {
	f := newNotifierFixture(t)

	f.notifier.LeaveSubmitted(context.Background(), f.request(leave.LeaveRequestStatusPending))

	require.Len(t, f.queue.reqs, 1)
	assert.Equal(t, f.peer.ID, f.queue.reqs[0].RecipientID)
	assert.Equal(t, notification.TypeLeaveSubmitted, f.queue.reqs[0].Type)
	assert.Contains(t, f.queue.reqs[0].Message, "Olive demande 3 jours (Vacances)")

	require.Len(t, f.mail.sent, 1)
	sent := f.mail.sent[0]
	assert.Equal(t, "submitted", sent.kind)
	assert.Equal(t, "pierre@example.com", sent.to)
	assert.Equal(t, "03/03/2025", sent.data.FromDate)
	assert.Equal(t, "05/03/2025", sent.data.ToDate)
	assert.Equal(t, "Atlas, Zephyr", sent.data.Projects)
	assert.Equal(t, "https://leaves.example.com/leaves/0190a6b4-2222-7000-8000-000000000001", sent.data.Link)
}

func TestLeaveReviewed_PeerApprovalAlertsAdmins(t *testing.T) {
	f := newNotifierFixture(t)

	f.notifier.LeaveReviewed(context.Background(), f.request(leave.LeaveRequestStatusPendingManager), f.peer)

	require.Len(t, f.queue.reqs, 2)
	assert.Equal(t, f.owner.ID, f.queue.reqs[0].RecipientID)
	assert.Equal(t, f.admin.ID, f.queue.reqs[1].RecipientID)
	assert.Empty(t, f.mail.sent, "no email until the decision is final")
}

func TestLeaveReviewed_FinalDecisionEmailsOwner(t *testing.T) {
	f := newNotifierFixture(t)
	request := f.request(leave.LeaveRequestStatusRefused)
	reason := "Période de livraison"
	request.StatusReason = &reason

	f.notifier.LeaveReviewed(context.Background(), request, f.admin)

	require.Len(t, f.queue.reqs, 1)
	assert.Equal(t, notification.TypeLeaveDecision, f.queue.reqs[0].Type)

	require.Len(t, f.mail.sent, 1)
	sent := f.mail.sent[0]
	assert.Equal(t, "decision", sent.kind)
	assert.Equal(t, "olive@example.com", sent.to)
	assert.False(t, sent.data.Approved)
	assert.Equal(t, reason, sent.data.Reason)
}

func TestLeaveCancelled_NotifiesReviewers(t *testing.T) {
	f := newNotifierFixture(t)

	f.notifier.LeaveCancelled(context.Background(), f.request(leave.LeaveRequestStatusCancelled))

	require.Len(t, f.queue.reqs, 1)
	assert.Equal(t, f.peer.ID, f.queue.reqs[0].RecipientID)
	assert.Equal(t, notification.TypeLeaveCancelled, f.queue.reqs[0].Type)
	assert.Empty(t, f.mail.sent)
}

func TestFormatDuration(t *testing.T) {
	day := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "0.5 jour", formatDuration(leave.LeaveRequest{FromDate: day, ToDate: day, TimeSlot: leave.TimeSlotMorning}))
	assert.Equal(t, "1 jour", formatDuration(leave.LeaveRequest{FromDate: day, ToDate: day, TimeSlot: leave.TimeSlotFullDay}))
	assert.Equal(t, "2 jours", formatDuration(leave.LeaveRequest{FromDate: day, ToDate: day.AddDate(0, 0, 1), TimeSlot: leave.TimeSlotFullDay}))
}
