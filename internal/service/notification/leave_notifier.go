package notification

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cmlabs-hris/leave-backend-go/internal/domain/leave"
	"github.com/cmlabs-hris/leave-backend-go/internal/domain/notification"
	"github.com/cmlabs-hris/leave-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/leave-backend-go/internal/pkg/email"
	"github.com/shopspring/decimal"
)

const emailDateLayout = "02/01/2006"

// LeaveNotifierConfig carries the values rendered into leave emails
type LeaveNotifierConfig struct {
	AppName     string
	FrontendURL string
}

// LeaveNotifier turns leave transitions into in-app notifications and emails
type LeaveNotifier struct {
	notifications notification.Service
	email         email.EmailService
	userRepo      user.UserRepository
	cfg           LeaveNotifierConfig

	// sendAsync runs email delivery off the request path
	sendAsync func(func())
}

var _ leave.Notifier = (*LeaveNotifier)(nil)

func NewLeaveNotifier(notifications notification.Service, emailService email.EmailService, userRepo user.UserRepository, cfg LeaveNotifierConfig) *LeaveNotifier {
	return &LeaveNotifier{
		notifications: notifications,
		email:         emailService,
		userRepo:      userRepo,
		cfg:           cfg,
		sendAsync:     func(f func()) { go f() },
	}
}

// LeaveSubmitted notifies every reviewer of a new or edited request
func (n *LeaveNotifier) LeaveSubmitted(ctx context.Context, request leave.LeaveRequest) {
	requester := ownerName(request)
	typeLabel := leave.Label(leave.TypeLabels, string(request.Type))

	reqs := make([]notification.CreateNotificationRequest, 0, len(request.Reviewers))
	for _, reviewer := range request.Reviewers {
		reqs = append(reqs, notification.CreateNotificationRequest{
			RecipientID: reviewer.ID,
			SenderID:    &request.UserID,
			Type:        notification.TypeLeaveSubmitted,
			Title:       "Nouvelle demande de congés",
			Message:     fmt.Sprintf("%s demande %s (%s) du %s au %s", requester, formatDuration(request), typeLabel, request.FromDate.Format(emailDateLayout), request.ToDate.Format(emailDateLayout)),
			Data:        leaveData(request),
		})
	}
	n.queue(ctx, reqs)

	for _, reviewer := range request.Reviewers {
		data := n.emailData(request, reviewer.Name)
		to := reviewer.Email
		n.sendEmail(ctx, func() error { return n.email.SendLeaveSubmitted(to, data) }, request.ID, to)
	}
}

// LeaveReviewed tells the owner about the decision. A peer approval that hands
// the request over to management also notifies every admin.
func (n *LeaveNotifier) LeaveReviewed(ctx context.Context, request leave.LeaveRequest, reviewer user.User) {
	statusLabel := leave.Label(leave.StatusLabels, string(request.Status))
	reqs := []notification.CreateNotificationRequest{{
		RecipientID: request.UserID,
		SenderID:    &reviewer.ID,
		Type:        notification.TypeLeaveDecision,
		Title:       "Décision sur votre demande de congés",
		Message:     fmt.Sprintf("%s a mis à jour votre demande : %s", reviewer.Name, statusLabel),
		Data:        leaveData(request),
	}}

	if request.Status == leave.LeaveRequestStatusPendingManager {
		admins, err := n.userRepo.ListAdmins(ctx)
		if err != nil {
			slog.ErrorContext(ctx, "failed to load admins for leave notification", "leave_request_id", request.ID, "error", err)
		}
		for _, admin := range admins {
			if admin.ID == request.UserID || admin.ID == reviewer.ID {
				continue
			}
			reqs = append(reqs, notification.CreateNotificationRequest{
				RecipientID: admin.ID,
				SenderID:    &reviewer.ID,
				Type:        notification.TypeLeaveDecision,
				Title:       "Demande de congés à valider",
				Message:     fmt.Sprintf("La demande de %s attend votre validation", ownerName(request)),
				Data:        leaveData(request),
			})
		}
	}
	n.queue(ctx, reqs)

	if request.Status != leave.LeaveRequestStatusApproved && request.Status != leave.LeaveRequestStatusRefused {
		return
	}
	if request.User == nil {
		return
	}
	data := n.emailData(request, request.User.Name)
	data.Approved = request.Status == leave.LeaveRequestStatusApproved
	to := request.User.Email
	n.sendEmail(ctx, func() error { return n.email.SendLeaveDecision(to, data) }, request.ID, to)
}

// LeaveCancelled tells the reviewers they no longer need to act
func (n *LeaveNotifier) LeaveCancelled(ctx context.Context, request leave.LeaveRequest) {
	reqs := make([]notification.CreateNotificationRequest, 0, len(request.Reviewers))
	for _, reviewer := range request.Reviewers {
		reqs = append(reqs, notification.CreateNotificationRequest{
			RecipientID: reviewer.ID,
			SenderID:    &request.UserID,
			Type:        notification.TypeLeaveCancelled,
			Title:       "Demande de congés annulée",
			Message:     fmt.Sprintf("%s a annulé sa demande du %s au %s", ownerName(request), request.FromDate.Format(emailDateLayout), request.ToDate.Format(emailDateLayout)),
			Data:        leaveData(request),
		})
	}
	n.queue(ctx, reqs)
}

func (n *LeaveNotifier) queue(ctx context.Context, reqs []notification.CreateNotificationRequest) {
	if len(reqs) == 0 {
		return
	}
	if err := n.notifications.QueueBulkNotification(ctx, reqs); err != nil {
		slog.WarnContext(ctx, "failed to queue leave notifications", "count", len(reqs), "error", err)
	}
}

func (n *LeaveNotifier) sendEmail(ctx context.Context, send func() error, requestID, to string) {
	if n.email == nil || to == "" {
		return
	}
	logger := slog.Default()
	n.sendAsync(func() {
		if err := send(); err != nil {
			logger.Error("failed to send leave email", "leave_request_id", requestID, "to", to, "error", err)
		}
	})
	slog.DebugContext(ctx, "leave email scheduled", "leave_request_id", requestID, "to", to)
}

func (n *LeaveNotifier) emailData(request leave.LeaveRequest, recipientName string) email.LeaveEmailData {
	data := email.LeaveEmailData{
		AppName:       n.cfg.AppName,
		RecipientName: recipientName,
		RequesterName: ownerName(request),
		TypeLabel:     leave.Label(leave.TypeLabels, string(request.Type)),
		FromDate:      request.FromDate.Format(emailDateLayout),
		ToDate:        request.ToDate.Format(emailDateLayout),
		Duration:      formatDuration(request),
		TimeSlotLabel: leave.Label(leave.TimeSlotLabels, string(request.TimeSlot)),
		Projects:      strings.Join(request.Projects, ", "),
	}
	if request.ProjectDeadlines != nil {
		data.ProjectDeadlines = *request.ProjectDeadlines
	}
	if request.StatusReason != nil {
		data.Reason = *request.StatusReason
	}
	if n.cfg.FrontendURL != "" {
		data.Link = strings.TrimRight(n.cfg.FrontendURL, "/") + "/leaves/" + request.ID
	}
	return data
}

func ownerName(request leave.LeaveRequest) string {
	if request.User != nil && request.User.Name != "" {
		return request.User.Name
	}
	return "Un collaborateur"
}

// formatDuration renders "0.5 jour", "1 jour" or "3 jours"
func formatDuration(request leave.LeaveRequest) string {
	days := decimal.NewFromFloat(request.DurationDays())
	unit := "jour"
	if days.GreaterThan(decimal.NewFromInt(1)) {
		unit = "jours"
	}
	return days.String() + " " + unit
}

func leaveData(request leave.LeaveRequest) map[string]interface{} {
	return map[string]interface{}{
		"leave_request_id": request.ID,
		"status":           string(request.Status),
		"type":             string(request.Type),
		"from_date":        request.FromDate.Format("2006-01-02"),
		"to_date":          request.ToDate.Format("2006-01-02"),
	}
}
