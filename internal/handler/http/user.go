package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/leave-backend-go/internal/domain/leave"
	"github.com/cmlabs-hris/leave-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/leave-backend-go/internal/handler/http/response"
)

type UserHandler interface {
	GetMe(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	Create(w http.ResponseWriter, r *http.Request)
	GetBalance(w http.ResponseWriter, r *http.Request)
}

type UserHandlerImpl struct {
	userService  user.UserService
	leaveService leave.LeaveService
}

func NewUserHandler(userService user.UserService, leaveService leave.LeaveService) UserHandler {
	return &UserHandlerImpl{
		userService:  userService,
		leaveService: leaveService,
	}
}

// GetMe implements UserHandler.
func (h *UserHandlerImpl) GetMe(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r)
	if userID == "" {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	me, err := h.userService.GetMe(r.Context(), userID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, me)
}

// List implements UserHandler.
func (h *UserHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	filter := user.UserFilter{
		Search:     getOptionalQueryParam(r, "search"),
		ExcludeIDs: getListQueryParam(r, "exclude_id"),
	}
	if getBoolQueryParam(r, "exclude_me", false) {
		filter.ExcludeIDs = append(filter.ExcludeIDs, getUserIDFromContext(r))
	}

	users, err := h.userService.ListUsers(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, users)
}

// Create implements UserHandler.
func (h *UserHandlerImpl) Create(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r)
	if userID == "" {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	var req user.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("CreateUser decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	created, err := h.userService.CreateUser(r.Context(), userID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "User created successfully", created)
}

// GetBalance implements UserHandler.
func (h *UserHandlerImpl) GetBalance(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r)
	if userID == "" {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	query := r.URL.Query()
	req := leave.BalanceRequest{
		FromDate: query.Get("from"),
		ToDate:   query.Get("to"),
		TimeSlot: getOptionalQueryParam(r, "time_slot"),
	}

	balance, err := h.leaveService.GetBalanceProjection(r.Context(), userID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, balance)
}
