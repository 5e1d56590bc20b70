// Package memory keeps every repository in process memory. It backs the
// DB_DRIVER=memory mode and the service tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/cmlabs-hris/leave-backend-go/internal/domain/leave"
	"github.com/cmlabs-hris/leave-backend-go/internal/domain/notification"
	"github.com/cmlabs-hris/leave-backend-go/internal/domain/user"
	"github.com/google/uuid"
)

type Store struct {
	// txMu serializes transactions; mu guards the maps
	txMu sync.Mutex
	mu   sync.RWMutex

	users         map[string]user.User
	leaves        map[string]leave.LeaveRequest
	notifications map[string]notification.Notification

	now func() time.Time
}

func NewStore() *Store {
	return &Store{
		users:         make(map[string]user.User),
		leaves:        make(map[string]leave.LeaveRequest),
		notifications: make(map[string]notification.Notification),
		now:           time.Now,
	}
}

// WithClock makes timestamps deterministic in tests
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) Users() user.UserRepository {
	return &userRepository{store: s}
}

func (s *Store) LeaveRequests() leave.LeaveRequestRepository {
	return &leaveRequestRepository{store: s}
}

func (s *Store) Notifications() notification.Repository {
	return &notificationRepository{store: s}
}

func (s *Store) Transactor() leave.Transactor {
	return &transactor{store: s}
}

func newID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

type txKey struct{}

// journal is the undo log of one transaction. Entries are appended while
// Store.mu is held for writing.
type journal struct {
	undo []func()
}

// remember records how to put key back to its current state when the
// transaction carried by ctx fails. Writes outside a transaction are not
// journaled, so a rollback never touches them.
func remember[V any](ctx context.Context, m map[string]V, key string) {
	j, ok := ctx.Value(txKey{}).(*journal)
	if !ok {
		return
	}
	prev, existed := m[key]
	j.undo = append(j.undo, func() {
		if existed {
			m[key] = prev
		} else {
			delete(m, key)
		}
	})
}

type transactor struct {
	store *Store
}

// WithinTransaction reverts the writes made through ctx when fn fails.
// Nested calls join the outer transaction.
func (t *transactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*journal); ok {
		return fn(ctx)
	}

	t.store.txMu.Lock()
	defer t.store.txMu.Unlock()

	j := &journal{}
	if err := fn(context.WithValue(ctx, txKey{}, j)); err != nil {
		t.store.rollback(j)
		return err
	}
	return nil
}

func (s *Store) rollback(j *journal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(j.undo) - 1; i >= 0; i-- {
		j.undo[i]()
	}
}
