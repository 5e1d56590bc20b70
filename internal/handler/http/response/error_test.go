package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cmlabs-hris/leave-backend-go/internal/domain/leave"
	"github.com/cmlabs-hris/leave-backend-go/internal/domain/notification"
	"github.com/cmlabs-hris/leave-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/leave-backend-go/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func handle(t *testing.T, err error) (int, Response) {
	t.Helper()
	rec := httptest.NewRecorder()
	HandleError(rec, err)

	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	return rec.Code, resp
}

func TestHandleError_ConflictCarriesField(t *testing.T) {
	err := fmt.Errorf("update leave request: %w", &leave.ConflictError{Field: "reviewers"})

	code, resp := handle(t, err)

	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "CONFLICT", resp.Error.Code)
	assert.Equal(t, map[string]string{"reviewers": "already in use"}, resp.Error.Details)
}

func TestHandleError_Mapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"validation", validator.ValidationErrors{{Field: "type", Message: "bad"}}, http.StatusUnprocessableEntity},
		{"leave not found", fmt.Errorf("get: %w", leave.ErrLeaveRequestNotFound), http.StatusNotFound},
		{"reviewer not found", leave.ErrReviewerNotFound, http.StatusNotFound},
		{"not owner", leave.ErrNotOwner, http.StatusForbidden},
		{"not reviewer", leave.ErrNotReviewer, http.StatusForbidden},
		{"manager required", user.ErrManagerAccessRequired, http.StatusForbidden},
		{"terminal status", &leave.TransitionError{From: leave.LeaveRequestStatusApproved, Event: leave.EventCancel}, http.StatusConflict},
		{"already ended", leave.ErrLeaveAlreadyEnded, http.StatusConflict},
		{"email exists", user.ErrUserEmailExists, http.StatusConflict},
		{"notifications stopped", notification.ErrServiceStopped, http.StatusServiceUnavailable},
		{"unexpected", errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _ := handle(t, tt.err)
			assert.Equal(t, tt.code, code)
		})
	}
}
