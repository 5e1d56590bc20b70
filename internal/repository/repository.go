// Package repository picks the storage backend named by DB_DRIVER.
package repository

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cmlabs-hris/leave-backend-go/internal/config"
	"github.com/cmlabs-hris/leave-backend-go/internal/domain/leave"
	"github.com/cmlabs-hris/leave-backend-go/internal/domain/notification"
	"github.com/cmlabs-hris/leave-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/leave-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/leave-backend-go/internal/repository/memory"
	"github.com/cmlabs-hris/leave-backend-go/internal/repository/postgresql"
)

type Repositories struct {
	Users         user.UserRepository
	LeaveRequests leave.LeaveRequestRepository
	Notifications notification.Repository
	Transactor    leave.Transactor

	close func()
}

// Close releases the underlying connection pool, if any
func (r *Repositories) Close() {
	if r.close != nil {
		r.close()
	}
}

// Open connects to the configured backend. The postgres backend is migrated
// before use.
func Open(ctx context.Context, cfg *config.Config) (*Repositories, error) {
	switch cfg.Database.Driver {
	case config.DriverMemory:
		slog.Warn("using in-memory storage, data is lost on restart")
		store := memory.NewStore()
		return &Repositories{
			Users:         store.Users(),
			LeaveRequests: store.LeaveRequests(),
			Notifications: store.Notifications(),
			Transactor:    store.Transactor(),
		}, nil

	case config.DriverPostgres:
		db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL())
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		if err := database.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate database: %w", err)
		}
		return &Repositories{
			Users:         postgresql.NewUserRepository(db),
			LeaveRequests: postgresql.NewLeaveRequestRepository(db),
			Notifications: postgresql.NewNotificationRepository(db),
			Transactor:    postgresql.NewTransactor(db),
			close:         db.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
}
