package user

import (
	"strings"
	"time"

	"github.com/cmlabs-hris/leave-backend-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// UserResponse represents user data in API responses
type UserResponse struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Email       string          `json:"email"`
	Role        string          `json:"role"`
	Balance     decimal.Decimal `json:"balance"`
	OnboardedAt *time.Time      `json:"onboarded_at,omitempty"`
	CreatedAt   string          `json:"created_at"`
	UpdatedAt   string          `json:"updated_at"`
}

func ToResponse(u User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		Role:        string(u.Role),
		Balance:     u.Balance,
		OnboardedAt: u.OnboardedAt,
		CreatedAt:   u.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   u.UpdatedAt.Format(time.RFC3339),
	}
}

// UserFilter narrows user listings, used by the reviewer picker
type UserFilter struct {
	Search     *string
	ExcludeIDs []string
}

// CreateUserRequest represents request to create a new user
type CreateUserRequest struct {
	Name        string           `json:"name"`
	Email       string           `json:"email"`
	Role        string           `json:"role"`
	Balance     *decimal.Decimal `json:"balance,omitempty"`
	OnboardedAt *string          `json:"onboarded_at,omitempty"`
}

func (r *CreateUserRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.Name) {
		errs = append(errs, validator.ValidationError{
			Field:   "name",
			Message: "name is required",
		})
	}

	if validator.IsEmpty(r.Email) {
		errs = append(errs, validator.ValidationError{
			Field:   "email",
			Message: "email is required",
		})
	} else if !validator.IsValidEmail(r.Email) {
		errs = append(errs, validator.ValidationError{
			Field:   "email",
			Message: "invalid email format",
		})
	}

	if validator.IsEmpty(r.Role) {
		r.Role = string(RoleUser)
	} else if !IsValidRole(Role(r.Role)) {
		errs = append(errs, validator.ValidationError{
			Field:   "role",
			Message: "role must be one of: user, admin",
		})
	}

	if r.OnboardedAt != nil {
		if _, ok := validator.IsValidDate(*r.OnboardedAt); !ok {
			errs = append(errs, validator.ValidationError{
				Field:   "onboarded_at",
				Message: "onboarded_at must be in YYYY-MM-DD format",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}

	r.Email = NormalizeEmail(r.Email)
	return nil
}

// NormalizeEmail lowercases and trims an email; emails are unique case-insensitively
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
