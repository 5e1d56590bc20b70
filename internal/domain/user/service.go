package user

import (
	"context"
)

type UserService interface {
	GetMe(ctx context.Context, userID string) (UserResponse, error)
	ListUsers(ctx context.Context, filter UserFilter) ([]UserResponse, error)
	CreateUser(ctx context.Context, actorID string, req CreateUserRequest) (UserResponse, error)
}
