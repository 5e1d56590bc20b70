package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/leave-backend-go/internal/domain/leave"
	"github.com/cmlabs-hris/leave-backend-go/internal/domain/notification"
	"github.com/cmlabs-hris/leave-backend-go/internal/domain/user"
)

const (
	// DefaultReminderHour is the UTC hour at which pending reviews are reminded
	DefaultReminderHour = 8
	// DefaultReminderLeadDays is how far ahead of the start date reminders begin
	DefaultReminderLeadDays = 3
)

type LeaveJobs struct {
	leaveRepo       leave.LeaveRequestRepository
	userRepo        user.UserRepository
	notificationSvc notification.Service

	now          func() time.Time
	reminderHour int
	leadDays     int
}

func NewLeaveJobs(leaveRepo leave.LeaveRequestRepository, userRepo user.UserRepository, notificationSvc notification.Service) *LeaveJobs {
	return &LeaveJobs{
		leaveRepo:       leaveRepo,
		userRepo:        userRepo,
		notificationSvc: notificationSvc,
		now:             time.Now,
		reminderHour:    DefaultReminderHour,
		leadDays:        DefaultReminderLeadDays,
	}
}

// WithClock replaces the time source
func (j *LeaveJobs) WithClock(now func() time.Time) *LeaveJobs {
	j.now = now
	return j
}

func (j *LeaveJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob("remind_pending_reviews", 1*time.Hour, j.RemindPendingReviews)
}

// RemindPendingReviews nudges whoever must act next on a request that is still
// undecided and starts within the lead window: the reviewers while pending, the
// admins once it waits for the manager.
func (j *LeaveJobs) RemindPendingReviews(ctx context.Context) error {
	now := j.now().UTC()
	// Only run once a day
	if now.Hour() != j.reminderHour {
		return nil
	}

	today := leave.TruncateToDate(now)
	until := today.AddDate(0, 0, j.leadDays)

	var admins []user.User
	adminsLoaded := false

	var reqs []notification.CreateNotificationRequest
	query := leave.LeaveRequestQuery{
		WindowStart: &today,
		WindowEnd:   &until,
		Statuses:    []leave.LeaveRequestStatus{leave.LeaveRequestStatusPending, leave.LeaveRequestStatusPendingManager},
		Limit:       leave.MaxListLimit,
	}
	for {
		page, err := j.leaveRepo.List(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to list pending leave requests: %w", err)
		}

		for _, request := range page.Items {
			if request.FromDate.Before(today) {
				continue
			}

			recipients := request.ReviewerIDs
			if request.Status == leave.LeaveRequestStatusPendingManager {
				if !adminsLoaded {
					admins, err = j.userRepo.ListAdmins(ctx)
					if err != nil {
						return fmt.Errorf("failed to list admins: %w", err)
					}
					adminsLoaded = true
				}
				recipients = make([]string, 0, len(admins))
				for _, admin := range admins {
					if admin.ID != request.UserID {
						recipients = append(recipients, admin.ID)
					}
				}
			}

			for _, recipientID := range recipients {
				reqs = append(reqs, reminderFor(request, recipientID))
			}
		}

		if page.NextCursor == nil {
			break
		}
		query.Cursor = page.NextCursor
	}

	if len(reqs) == 0 {
		slog.Info("Cron: No pending reviews to remind")
		return nil
	}

	if err := j.notificationSvc.QueueBulkNotification(ctx, reqs); err != nil {
		return fmt.Errorf("failed to queue review reminders: %w", err)
	}
	slog.Info("Cron: Pending review reminders queued", "count", len(reqs))
	return nil
}

func reminderFor(request leave.LeaveRequest, recipientID string) notification.CreateNotificationRequest {
	requester := "Un collaborateur"
	if request.User != nil && request.User.Name != "" {
		requester = request.User.Name
	}

	return notification.CreateNotificationRequest{
		RecipientID: recipientID,
		SenderID:    &request.UserID,
		Type:        notification.TypeLeaveReminder,
		Title:       "Demande de congés en attente",
		Message: fmt.Sprintf("La demande de %s commence le %s et attend toujours votre avis",
			requester, request.FromDate.Format("02/01/2006")),
		Data: map[string]interface{}{
			"leave_request_id": request.ID,
			"status":           string(request.Status),
			"from_date":        request.FromDate.Format("2006-01-02"),
		},
	}
}
