package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/cmlabs-hris/leave-backend-go/internal/domain/notification"
	"github.com/cmlabs-hris/leave-backend-go/internal/pkg/validator"
)

type notificationRepository struct {
	store *Store
}

func (r *notificationRepository) Create(ctx context.Context, n *notification.Notification) error {
	return r.CreateBatch(ctx, []*notification.Notification{n})
}

func (r *notificationRepository) CreateBatch(ctx context.Context, notifications []*notification.Notification) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, n := range notifications {
		if n.ID == "" {
			id, err := newID()
			if err != nil {
				return fmt.Errorf("generate notification id: %w", err)
			}
			n.ID = id
		}
		if n.CreatedAt.IsZero() {
			n.CreatedAt = r.store.now()
		}
		remember(ctx, r.store.notifications, n.ID)
		r.store.notifications[n.ID] = *n
	}
	return nil
}

func (r *notificationRepository) GetByUserID(_ context.Context, userID string, page, pageSize int, unreadOnly bool) ([]*notification.Notification, int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var matched []notification.Notification
	for _, n := range r.store.notifications {
		if n.RecipientID != userID || (unreadOnly && n.IsRead) {
			continue
		}
		matched = append(matched, n)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	result := []*notification.Notification{}
	offset := (page - 1) * pageSize
	for i := offset; i >= 0 && i < len(matched) && i < offset+pageSize; i++ {
		n := matched[i]
		result = append(result, &n)
	}
	return result, len(matched), nil
}

func (r *notificationRepository) GetUnreadCount(_ context.Context, userID string) (int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	count := 0
	for _, n := range r.store.notifications {
		if n.RecipientID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (r *notificationRepository) MarkAsRead(ctx context.Context, ids []string, userID string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	now := r.store.now()
	for id, n := range r.store.notifications {
		if n.RecipientID != userID || n.IsRead || !validator.IsInSlice(id, ids) {
			continue
		}
		n.IsRead = true
		n.ReadAt = &now
		remember(ctx, r.store.notifications, id)
		r.store.notifications[id] = n
	}
	return nil
}

func (r *notificationRepository) MarkAllAsRead(ctx context.Context, userID string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	now := r.store.now()
	for id, n := range r.store.notifications {
		if n.RecipientID != userID || n.IsRead {
			continue
		}
		n.IsRead = true
		n.ReadAt = &now
		remember(ctx, r.store.notifications, id)
		r.store.notifications[id] = n
	}
	return nil
}

func (r *notificationRepository) Delete(ctx context.Context, id string, userID string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	n, ok := r.store.notifications[id]
	if !ok || n.RecipientID != userID {
		return notification.ErrNotificationNotFound
	}
	remember(ctx, r.store.notifications, id)
	delete(r.store.notifications, id)
	return nil
}
