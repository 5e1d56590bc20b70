package user

import (
	"context"
)

type UserRepository interface {
	Create(ctx context.Context, newUser User) (User, error)
	GetByID(ctx context.Context, id string) (User, error)
	GetByIDs(ctx context.Context, ids []string) ([]User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	List(ctx context.Context, filter UserFilter) ([]User, error)
	ListAdmins(ctx context.Context) ([]User, error)
}
