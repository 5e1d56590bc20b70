package notification

import (
	"time"
)

// NotificationType represents the type of notification
type NotificationType string

const (
	TypeLeaveSubmitted NotificationType = "leave_submitted"
	TypeLeaveDecision  NotificationType = "leave_decision"
	TypeLeaveCancelled NotificationType = "leave_cancelled"
	TypeLeaveReminder  NotificationType = "leave_reminder"
)

// AllNotificationTypes returns all available notification types
func AllNotificationTypes() []NotificationType {
	return []NotificationType{
		TypeLeaveSubmitted,
		TypeLeaveDecision,
		TypeLeaveCancelled,
		TypeLeaveReminder,
	}
}

func (t NotificationType) IsValid() bool {
	for _, v := range AllNotificationTypes() {
		if v == t {
			return true
		}
	}
	return false
}

// Notification represents a notification entity
type Notification struct {
	ID          string
	RecipientID string
	SenderID    *string
	Type        NotificationType
	Title       string
	Message     string
	Data        map[string]interface{}
	IsRead      bool
	ReadAt      *time.Time
	CreatedAt   time.Time
}
