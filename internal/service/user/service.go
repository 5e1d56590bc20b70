package user

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/leave-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/leave-backend-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

type UserServiceImpl struct {
	userRepo user.UserRepository
}

func NewUserService(userRepo user.UserRepository) user.UserService {
	return &UserServiceImpl{userRepo: userRepo}
}

// GetMe implements user.UserService.
func (s *UserServiceImpl) GetMe(ctx context.Context, userID string) (user.UserResponse, error) {
	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return user.UserResponse{}, fmt.Errorf("get current user: %w", err)
	}
	return user.ToResponse(u), nil
}

// ListUsers implements user.UserService.
func (s *UserServiceImpl) ListUsers(ctx context.Context, filter user.UserFilter) ([]user.UserResponse, error) {
	filter.ExcludeIDs = validator.Unique(filter.ExcludeIDs)
	for _, id := range filter.ExcludeIDs {
		if !validator.IsValidUUID(id) {
			return nil, validator.ValidationErrors{{
				Field:   "exclude_id",
				Message: "exclude_id must be a valid UUID",
			}}
		}
	}

	users, err := s.userRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	resp := make([]user.UserResponse, 0, len(users))
	for _, u := range users {
		resp = append(resp, user.ToResponse(u))
	}
	return resp, nil
}

// CreateUser implements user.UserService. Only admins may create accounts.
func (s *UserServiceImpl) CreateUser(ctx context.Context, actorID string, req user.CreateUserRequest) (user.UserResponse, error) {
	actor, err := s.userRepo.GetByID(ctx, actorID)
	if err != nil {
		return user.UserResponse{}, fmt.Errorf("create user: %w", err)
	}
	if !actor.IsAdmin() {
		return user.UserResponse{}, user.ErrAdminPrivilegeRequired
	}

	if err := req.Validate(); err != nil {
		return user.UserResponse{}, err
	}

	newUser := user.User{
		Name:    req.Name,
		Email:   req.Email,
		Role:    user.Role(req.Role),
		Balance: decimal.Zero,
	}
	if req.Balance != nil {
		newUser.Balance = *req.Balance
	}
	if req.OnboardedAt != nil {
		onboarded, _ := time.Parse(validator.DateLayout, *req.OnboardedAt)
		newUser.OnboardedAt = &onboarded
	}

	created, err := s.userRepo.Create(ctx, newUser)
	if err != nil {
		return user.UserResponse{}, fmt.Errorf("create user: %w", err)
	}

	slog.InfoContext(ctx, "user created", "user_id", created.ID, "role", created.Role, "actor_id", actorID)
	return user.ToResponse(created), nil
}
