package user

import (
	"time"

	"github.com/shopspring/decimal"
)

type Role string

const (
	RoleUser  Role = "user"  // Regular employee
	RoleAdmin Role = "admin" // Manager, gives final sign-off on leaves
)

type User struct {
	ID          string
	Name        string
	Email       string
	Role        Role
	Balance     decimal.Decimal // Leave balance in days
	OnboardedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsAdmin checks if user holds the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsManager checks if user has manager capability
func (u *User) IsManager() bool {
	return u.IsAdmin()
}

// CanGiveFinalApproval checks if user can move a leave from pending-manager to a final status
func (u *User) CanGiveFinalApproval() bool {
	return u.IsManager()
}

// IsValidRole reports whether r is one of the known roles
func IsValidRole(r Role) bool {
	return r == RoleUser || r == RoleAdmin
}
