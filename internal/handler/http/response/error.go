package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/leave-backend-go/internal/domain/leave"
	"github.com/cmlabs-hris/leave-backend-go/internal/domain/notification"
	"github.com/cmlabs-hris/leave-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/leave-backend-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	var conflictErr *leave.ConflictError
	if errors.As(err, &conflictErr) {
		ConflictWithDetails(w, "Conflicting value", map[string]string{
			conflictErr.Field: "already in use",
		})
		return
	}

	switch {
	// User domain errors
	case errors.Is(err, user.ErrUserNotFound):
		NotFound(w, "User not found")
	case errors.Is(err, user.ErrUserEmailExists):
		ConflictWithDetails(w, "Email already registered", map[string]string{
			"email": "already registered",
		})
	case errors.Is(err, user.ErrAdminPrivilegeRequired):
		Forbidden(w, "Admin privilege required")
	case errors.Is(err, user.ErrManagerAccessRequired):
		Forbidden(w, "Manager access required")
	case errors.Is(err, user.ErrInsufficientPermissions):
		Forbidden(w, "Insufficient permissions")

	// Leave domain errors
	case errors.Is(err, leave.ErrLeaveRequestNotFound):
		NotFound(w, "Leave request not found")
	case errors.Is(err, leave.ErrReviewerNotFound):
		NotFound(w, err.Error())
	case errors.Is(err, leave.ErrNotOwner):
		Forbidden(w, "Only the owner can modify this leave request")
	case errors.Is(err, leave.ErrNotReviewer):
		Forbidden(w, "You are not a reviewer of this leave request")
	case errors.Is(err, leave.ErrLeaveRequestAlreadyProcessed):
		Conflict(w, "Leave request already processed")
	case errors.Is(err, leave.ErrInvalidStatusTransition):
		Conflict(w, "Leave request status does not allow this action")
	case errors.Is(err, leave.ErrLeaveAlreadyEnded):
		Conflict(w, "Leave request has already ended")

	// Notification domain errors
	case errors.Is(err, notification.ErrNotificationNotFound):
		NotFound(w, "Notification not found")
	case errors.Is(err, notification.ErrServiceStopped):
		ServiceUnavailable(w, "Notifications are unavailable")

	// Default
	default:
		slog.Error("unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
