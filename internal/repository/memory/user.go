package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/cmlabs-hris/leave-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/leave-backend-go/internal/pkg/validator"
)

type userRepository struct {
	store *Store
}

func (r *userRepository) Create(ctx context.Context, newUser user.User) (user.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	newUser.Email = user.NormalizeEmail(newUser.Email)
	for _, u := range r.store.users {
		if u.Email == newUser.Email {
			return user.User{}, user.ErrUserEmailExists
		}
	}

	if newUser.ID == "" {
		id, err := newID()
		if err != nil {
			return user.User{}, fmt.Errorf("generate user id: %w", err)
		}
		newUser.ID = id
	}
	if _, exists := r.store.users[newUser.ID]; exists {
		return user.User{}, fmt.Errorf("user %s already exists", newUser.ID)
	}

	now := r.store.now()
	newUser.CreatedAt = now
	newUser.UpdatedAt = now
	remember(ctx, r.store.users, newUser.ID)
	r.store.users[newUser.ID] = newUser
	return newUser, nil
}

func (r *userRepository) GetByID(_ context.Context, id string) (user.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	u, ok := r.store.users[id]
	if !ok {
		return user.User{}, user.ErrUserNotFound
	}
	return u, nil
}

func (r *userRepository) GetByIDs(_ context.Context, ids []string) ([]user.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	users := []user.User{}
	for _, id := range ids {
		if u, ok := r.store.users[id]; ok {
			users = append(users, u)
		}
	}
	return users, nil
}

func (r *userRepository) GetByEmail(_ context.Context, email string) (user.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	email = user.NormalizeEmail(email)
	for _, u := range r.store.users {
		if u.Email == email {
			return u, nil
		}
	}
	return user.User{}, user.ErrUserNotFound
}

func (r *userRepository) List(_ context.Context, filter user.UserFilter) ([]user.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	search := ""
	if filter.Search != nil {
		search = strings.ToLower(strings.TrimSpace(*filter.Search))
	}

	users := []user.User{}
	for _, u := range r.store.users {
		if validator.IsInSlice(u.ID, filter.ExcludeIDs) {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(u.Name), search) && !strings.Contains(u.Email, search) {
			continue
		}
		users = append(users, u)
	}
	sortUsers(users)
	return users, nil
}

func (r *userRepository) ListAdmins(_ context.Context) ([]user.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	users := []user.User{}
	for _, u := range r.store.users {
		if u.IsAdmin() {
			users = append(users, u)
		}
	}
	sortUsers(users)
	return users, nil
}

func sortUsers(users []user.User) {
	sort.Slice(users, func(i, j int) bool {
		if users[i].Name != users[j].Name {
			return users[i].Name < users[j].Name
		}
		return users[i].ID < users[j].ID
	})
}
