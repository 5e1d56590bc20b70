package notification

import "errors"

// Notification domain errors
var (
	ErrNotificationNotFound = errors.New("notification not found")
	ErrServiceStopped       = errors.New("notification service is stopped")
)
