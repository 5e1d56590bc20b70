package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cmlabs-hris/leave-backend-go/internal/config"
	"github.com/cmlabs-hris/leave-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/leave-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/leave-backend-go/internal/pkg/sse"
	"github.com/cmlabs-hris/leave-backend-go/internal/repository/memory"
	leaveService "github.com/cmlabs-hris/leave-backend-go/internal/service/leave"
	notificationService "github.com/cmlabs-hris/leave-backend-go/internal/service/notification"
	userService "github.com/cmlabs-hris/leave-backend-go/internal/service/user"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const handlerTestSecret = "test-secret-key-for-jwt"

type apiResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details"`
	} `json:"error"`
}

type testServer struct {
	router *chi.Mux
	jwt    jwt.Service
	owner  user.User
	peer   user.User
	admin  user.User
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()

	cfg := &config.Config{
		App: config.AppConfig{
			Env:         "staging",
			Name:        "Staging",
			Color:       "#ff9900",
			Emoji:       "🚧",
			Version:     "v-test",
			CORSOrigins: []string{"http://localhost:3000"},
		},
		JWT: config.JWTConfig{Secret: handlerTestSecret, AccessExpiration: "1h"},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store := memory.NewStore()
	users := store.Users()
	mk := func(name, email string, role user.Role) user.User {
		u, err := users.Create(ctx, user.User{Name: name, Email: email, Role: role, Balance: decimal.NewFromInt(12)})
		require.NoError(t, err)
		return u
	}
	owner := mk("Olive", "olive@example.com", user.RoleUser)
	peer := mk("Pierre", "pierre@example.com", user.RoleUser)
	admin := mk("Ada", "ada@example.com", user.RoleAdmin)

	jwtService := jwt.NewJWTService(handlerTestSecret, "1h")
	notifSvc := notificationService.NewNotificationService(store.Notifications(), sse.NewHub(), notificationService.Config{
		FlushInterval: 10 * time.Millisecond,
		WorkerCount:   1,
	})
	t.Cleanup(notifSvc.Stop)

	notifier := notificationService.NewLeaveNotifier(notifSvc, nil, users, notificationService.LeaveNotifierConfig{})
	leaveSvc := leaveService.NewLeaveService(store.Transactor(), store.LeaveRequests(), users, notifier)
	userSvc := userService.NewUserService(users)

	router := NewRouter(cfg, logger, jwtService, Handlers{
		Config:       NewConfigHandler(cfg.App),
		User:         NewUserHandler(userSvc, leaveSvc),
		Leave:        NewLeaveHandler(leaveSvc),
		Notification: NewNotificationHandler(notifSvc, jwtService),
	})

	return &testServer{router: router, jwt: jwtService, owner: owner, peer: peer, admin: admin}
}

func (s *testServer) do(t *testing.T, as *user.User, method, path string, body interface{}) (*httptest.ResponseRecorder, apiResponse) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if as != nil {
		token, _, err := s.jwt.GenerateAccessToken(as.ID, as.Email, as.Role)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var resp apiResponse
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

func (s *testServer) createLeave(t *testing.T) map[string]interface{} {
	t.Helper()
	rec, resp := s.do(t, &s.owner, http.MethodPost, "/api/v1/leaves", map[string]interface{}{
		"from_date": "2099-06-02",
		"to_date":   "2099-06-04",
		"type":      "vacation",
		"projects":  []string{"Atlas"},
		"reviewers": []string{s.peer.ID},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created map[string]interface{}
	require.NoError(t, json.Unmarshal(resp.Data, &created))
	return created
}

func TestHeartbeat(t *testing.T) {
	s := newTestServer(t)

	rec, _ := s.do(t, nil, http.MethodGet, "/ping", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestConfigEnvIsPublic(t *testing.T) {
	s := newTestServer(t)

	rec, resp := s.do(t, nil, http.MethodGet, "/api/v1/config/env", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var env EnvResponse
	require.NoError(t, json.Unmarshal(resp.Data, &env))
	assert.Equal(t, "Staging", env.Name)
	assert.Equal(t, "#ff9900", env.Color)
	assert.True(t, env.IsDev)
}

func TestLeavesRequireAuthentication(t *testing.T) {
	s := newTestServer(t)

	rec, resp := s.do(t, nil, http.MethodGet, "/api/v1/leaves", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, resp.Success)
}

func TestCreateLeave(t *testing.T) {
	s := newTestServer(t)

	created := s.createLeave(t)
	assert.Equal(t, "pending", created["status"])
	assert.Equal(t, "full-day", created["time_slot"])
	assert.Equal(t, 3.0, created["duration_days"])
}

func TestCreateLeave_ValidationError(t *testing.T) {
	s := newTestServer(t)

	rec, resp := s.do(t, &s.owner, http.MethodPost, "/api/v1/leaves", map[string]interface{}{
		"from_date": "2099-06-05",
		"to_date":   "2099-06-02",
		"type":      "holiday",
		"reviewers": []string{s.owner.ID},
	})

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
	assert.Contains(t, resp.Error.Details, "to_date")
	assert.Contains(t, resp.Error.Details, "type")
}

func TestCreateLeave_MalformedBody(t *testing.T) {
	s := newTestServer(t)
	token, _, err := s.jwt.GenerateAccessToken(s.owner.ID, s.owner.Email, s.owner.Role)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/leaves", bytes.NewBufferString("{"))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReviewLeave_Authorization(t *testing.T) {
	s := newTestServer(t)
	created := s.createLeave(t)
	id := created["id"].(string)

	rec, resp := s.do(t, &s.admin, http.MethodPost, "/api/v1/leaves/"+id+"/review", map[string]interface{}{"is_approved": true})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "FORBIDDEN", resp.Error.Code)

	rec, resp = s.do(t, &s.peer, http.MethodPost, "/api/v1/leaves/"+id+"/review", map[string]interface{}{"is_approved": true, "reason": "fine"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var reviewed map[string]interface{}
	require.NoError(t, json.Unmarshal(resp.Data, &reviewed))
	assert.Equal(t, "pending-manager", reviewed["status"])

	rec, _ = s.do(t, &s.peer, http.MethodPost, "/api/v1/leaves/"+id+"/review", map[string]interface{}{"is_approved": true, "is_final": true})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = s.do(t, &s.admin, http.MethodPost, "/api/v1/leaves/"+id+"/review", map[string]interface{}{"is_approved": true, "is_final": true})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, resp = s.do(t, &s.admin, http.MethodPost, "/api/v1/leaves/"+id+"/review", map[string]interface{}{"is_approved": false, "is_final": true})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "CONFLICT", resp.Error.Code)
}

func TestCancelLeave_OnlyOwner(t *testing.T) {
	s := newTestServer(t)
	id := s.createLeave(t)["id"].(string)

	rec, _ := s.do(t, &s.peer, http.MethodPost, "/api/v1/leaves/"+id+"/cancel", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, resp := s.do(t, &s.owner, http.MethodPost, "/api/v1/leaves/"+id+"/cancel", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var cancelled map[string]interface{}
	require.NoError(t, json.Unmarshal(resp.Data, &cancelled))
	assert.Equal(t, "cancelled", cancelled["status"])
}

func TestGetLeave_NotFound(t *testing.T) {
	s := newTestServer(t)

	rec, resp := s.do(t, &s.owner, http.MethodGet, "/api/v1/leaves/0190a6b4-9999-7000-8000-000000000000", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
}

func TestLeaveRoutes_MalformedID(t *testing.T) {
	s := newTestServer(t)

	rec, resp := s.do(t, &s.owner, http.MethodGet, "/api/v1/leaves/not-a-uuid", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)

	rec, _ = s.do(t, &s.owner, http.MethodPost, "/api/v1/leaves/not-a-uuid/cancel", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = s.do(t, &s.peer, http.MethodPost, "/api/v1/leaves/not-a-uuid/review", map[string]interface{}{"is_approved": true})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateLeave_MalformedReviewer(t *testing.T) {
	s := newTestServer(t)

	rec, resp := s.do(t, &s.owner, http.MethodPost, "/api/v1/leaves", map[string]interface{}{
		"from_date": "2099-06-02",
		"to_date":   "2099-06-02",
		"type":      "vacation",
		"reviewers": []string{"bob"},
	})

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.NotNil(t, resp.Error)
	assert.Contains(t, resp.Error.Details, "reviewers")
}

func TestListLeaves_QueryParameters(t *testing.T) {
	s := newTestServer(t)
	created := s.createLeave(t)

	rec, resp := s.do(t, &s.peer, http.MethodGet, "/api/v1/leaves?from_date=2099-06-10&to_date=2099-06-12&type=vacation,kids&limit=5", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var page struct {
		Items []map[string]interface{} `json:"items"`
		Total int64                    `json:"total"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &page))
	require.Len(t, page.Items, 1, "a leave ending within 7 days of the range is listed")
	assert.Equal(t, created["id"], page.Items[0]["id"])

	rec, _ = s.do(t, &s.peer, http.MethodGet, "/api/v1/leaves?limit=1000", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec, resp = s.do(t, &s.peer, http.MethodGet, "/api/v1/leaves/review", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(resp.Data, &page))
	assert.Len(t, page.Items, 1)
}

func TestLeaveConstants(t *testing.T) {
	s := newTestServer(t)

	rec, resp := s.do(t, &s.owner, http.MethodGet, "/api/v1/leaves/constants", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var constants struct {
		Types []struct {
			ID    string `json:"id"`
			Label string `json:"label"`
		} `json:"types"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &constants))
	assert.Len(t, constants.Types, 4)
}

func TestUsers(t *testing.T) {
	s := newTestServer(t)

	rec, resp := s.do(t, &s.owner, http.MethodGet, "/api/v1/users/me", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var me user.UserResponse
	require.NoError(t, json.Unmarshal(resp.Data, &me))
	assert.Equal(t, s.owner.ID, me.ID)

	rec, resp = s.do(t, &s.owner, http.MethodGet, "/api/v1/users?exclude_me=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var others []user.UserResponse
	require.NoError(t, json.Unmarshal(resp.Data, &others))
	assert.Len(t, others, 2)

	newUser := map[string]interface{}{"name": "Nina", "email": "nina@example.com"}
	rec, _ = s.do(t, &s.owner, http.MethodPost, "/api/v1/users", newUser)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = s.do(t, &s.admin, http.MethodPost, "/api/v1/users", newUser)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec, resp = s.do(t, &s.admin, http.MethodPost, "/api/v1/users", map[string]interface{}{"name": "Nina 2", "email": "NINA@example.com"})
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, resp.Error.Details, "email")
}

func TestUserBalance(t *testing.T) {
	s := newTestServer(t)

	rec, resp := s.do(t, &s.owner, http.MethodGet, "/api/v1/users/me/balance?from=2099-06-02&time_slot=morning", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var balance struct {
		RequestedDays decimal.Decimal `json:"requested_days"`
		IsMissingDays bool            `json:"is_missing_days"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &balance))
	assert.True(t, decimal.RequireFromString("0.5").Equal(balance.RequestedDays))
	assert.False(t, balance.IsMissingDays)

	rec, _ = s.do(t, &s.owner, http.MethodGet, "/api/v1/users/me/balance?from=tomorrow", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestNotifications_ReviewerIsNotified(t *testing.T) {
	s := newTestServer(t)
	s.createLeave(t)

	require.Eventually(t, func() bool {
		rec, resp := s.do(t, &s.peer, http.MethodGet, "/api/v1/notifications/unread-count", nil)
		if rec.Code != http.StatusOK {
			return false
		}
		var count struct {
			UnreadCount int `json:"unread_count"`
		}
		return json.Unmarshal(resp.Data, &count) == nil && count.UnreadCount == 1
	}, time.Second, 10*time.Millisecond)

	rec, _ := s.do(t, &s.peer, http.MethodPost, "/api/v1/notifications/read-all", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, resp := s.do(t, &s.peer, http.MethodGet, "/api/v1/notifications", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Total       int `json:"total"`
		UnreadCount int `json:"unread_count"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &list))
	assert.Equal(t, 1, list.Total)
	assert.Zero(t, list.UnreadCount)
}

func TestNotificationStream_RejectsAccessToken(t *testing.T) {
	s := newTestServer(t)
	access, _, err := s.jwt.GenerateAccessToken(s.owner.ID, s.owner.Email, s.owner.Role)
	require.NoError(t, err)

	rec, _ := s.do(t, nil, http.MethodGet, "/api/v1/notifications/stream?token="+access, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, resp := s.do(t, &s.owner, http.MethodGet, "/api/v1/notifications/sse-token", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var token struct {
		Token     string `json:"token"`
		ExpiresIn int    `json:"expires_in"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &token))
	assert.NotEmpty(t, token.Token)
	assert.Equal(t, 300, token.ExpiresIn)
}

func TestNotificationStream_SendsConnectedEvent(t *testing.T) {
	s := newTestServer(t)

	rec, _ := s.do(t, nil, http.MethodGet, "/api/v1/notifications/stream", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token, _, err := s.jwt.GenerateSSEToken(s.owner.ID)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/notifications/stream?token="+token, nil).WithContext(ctx)
	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))

	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, "event: connected\ndata: "), body)
	assert.Contains(t, body, `"user_id":"`+s.owner.ID+`"`)
	assert.Contains(t, body, `"status":"connected"`)
}
