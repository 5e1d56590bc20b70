// Package seed fills a store with demo accounts and leave requests. Every run
// is idempotent: users are keyed by email, leaves by owner, dates, type and slot.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/cmlabs-hris/leave-backend-go/internal/domain/leave"
	"github.com/cmlabs-hris/leave-backend-go/internal/domain/user"
	"github.com/shopspring/decimal"
)

const (
	AdminEmail = "admin@admin.com"
	UserEmail  = "user@user.com"

	leavesPerOwner = 3
	maxOwners      = 8
)

type account struct {
	Name    string
	Email   string
	Role    user.Role
	Balance int64
}

var accounts = []account{
	{Name: "Admin", Email: AdminEmail, Role: user.RoleAdmin, Balance: 25},
	{Name: "User", Email: UserEmail, Role: user.RoleUser, Balance: 25},
	{Name: "Camille Martin", Email: "camille.martin@example.com", Role: user.RoleUser, Balance: 25},
	{Name: "Hugo Bernard", Email: "hugo.bernard@example.com", Role: user.RoleUser, Balance: 25},
	{Name: "Léa Dubois", Email: "lea.dubois@example.com", Role: user.RoleUser, Balance: 25},
	{Name: "Louis Thomas", Email: "louis.thomas@example.com", Role: user.RoleUser, Balance: 25},
	{Name: "Chloé Robert", Email: "chloe.robert@example.com", Role: user.RoleUser, Balance: 25},
	{Name: "Jules Petit", Email: "jules.petit@example.com", Role: user.RoleUser, Balance: 25},
}

var projects = []string{
	"bearstudio-interne",
	"forkit-interne",
	"bs-squaden",
	"matmut-conseils-dev",
	"neofarm-dev",
	"bs-business",
}

var (
	allTypes     = []leave.LeaveType{leave.LeaveTypeKids, leave.LeaveTypeSchoolReview, leave.LeaveTypeSickness, leave.LeaveTypeVacation}
	allSlots     = []leave.TimeSlot{leave.TimeSlotFullDay, leave.TimeSlotMorning, leave.TimeSlotAfternoon}
	allStatuses  = []leave.LeaveRequestStatus{leave.LeaveRequestStatusApproved, leave.LeaveRequestStatusCancelled, leave.LeaveRequestStatusPending, leave.LeaveRequestStatusPendingManager, leave.LeaveRequestStatusRefused}
	baseSeedDate = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
)

// Result counts what a run created
type Result struct {
	UsersCreated  int
	UsersExisting int
	LeavesCreated int
	Admin         user.User
	User          user.User
}

type Seeder struct {
	users  user.UserRepository
	leaves leave.LeaveRequestRepository
	tx     leave.Transactor
	rng    *rand.Rand
}

// NewSeeder builds a seeder whose random choices are fixed by seed
func NewSeeder(users user.UserRepository, leaves leave.LeaveRequestRepository, tx leave.Transactor, seed uint64) *Seeder {
	return &Seeder{
		users:  users,
		leaves: leaves,
		tx:     tx,
		rng:    rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

func (s *Seeder) Run(ctx context.Context) (Result, error) {
	var res Result

	seeded, err := s.seedUsers(ctx, &res)
	if err != nil {
		return res, fmt.Errorf("seed users: %w", err)
	}
	if err := s.seedLeaves(ctx, seeded, &res); err != nil {
		return res, fmt.Errorf("seed leaves: %w", err)
	}

	slog.InfoContext(ctx, "seed completed",
		"users_existing", res.UsersExisting,
		"users_created", res.UsersCreated,
		"leaves_created", res.LeavesCreated,
	)
	return res, nil
}

func (s *Seeder) seedUsers(ctx context.Context, res *Result) ([]user.User, error) {
	seeded := make([]user.User, 0, len(accounts))
	for _, a := range accounts {
		u, err := s.users.GetByEmail(ctx, a.Email)
		switch {
		case err == nil:
			res.UsersExisting++
		case errors.Is(err, user.ErrUserNotFound):
			onboarded := baseSeedDate
			u, err = s.users.Create(ctx, user.User{
				Name:        a.Name,
				Email:       user.NormalizeEmail(a.Email),
				Role:        a.Role,
				Balance:     decimal.NewFromInt(a.Balance),
				OnboardedAt: &onboarded,
			})
			if err != nil {
				return nil, fmt.Errorf("create %s: %w", a.Email, err)
			}
			res.UsersCreated++
		default:
			return nil, fmt.Errorf("look up %s: %w", a.Email, err)
		}

		switch a.Email {
		case AdminEmail:
			res.Admin = u
		case UserEmail:
			res.User = u
		}
		seeded = append(seeded, u)
	}
	return seeded, nil
}

func (s *Seeder) seedLeaves(ctx context.Context, owners []user.User, res *Result) error {
	if len(owners) > maxOwners {
		owners = owners[:maxOwners]
	}

	for i, owner := range owners {
		existing, err := s.existingKeys(ctx, owner.ID)
		if err != nil {
			return err
		}

		for j := 0; j < leavesPerOwner; j++ {
			request, status, reason := s.randomLeave(owner, owners, res.Admin, i, j)

			key := seedKey(request)
			if _, ok := existing[key]; ok {
				continue
			}

			err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
				created, err := s.leaves.Create(ctx, request)
				if err != nil {
					return err
				}
				if status == leave.LeaveRequestStatusPending {
					return nil
				}
				_, err = s.leaves.UpdateStatus(ctx, created.ID, status, reason)
				return err
			})
			if err != nil {
				return fmt.Errorf("create leave for %s: %w", owner.Email, err)
			}
			existing[key] = struct{}{}
			res.LeavesCreated++
		}
	}
	return nil
}

// randomLeave spreads leaves over the year: owner i, leave j starts i*9+j*17+3 days after Jan 1st
func (s *Seeder) randomLeave(owner user.User, pool []user.User, admin user.User, i, j int) (leave.LeaveRequest, leave.LeaveRequestStatus, *string) {
	leaveType := pickOne(s.rng, allTypes)
	slot := pickOne(s.rng, allSlots)

	duration := 1
	if slot == leave.TimeSlotFullDay {
		duration = pickOne(s.rng, []int{1, 2, 3, 5})
	}
	from := baseSeedDate.AddDate(0, 0, i*9+j*17+3)
	to := from.AddDate(0, 0, duration-1)

	status := pickOne(s.rng, allStatuses)
	switch leaveType {
	case leave.LeaveTypeVacation:
		status = pickOne(s.rng, []leave.LeaveRequestStatus{leave.LeaveRequestStatusApproved, leave.LeaveRequestStatusPendingManager, leave.LeaveRequestStatusPending})
	case leave.LeaveTypeSickness:
		status = pickOne(s.rng, []leave.LeaveRequestStatus{leave.LeaveRequestStatusApproved, leave.LeaveRequestStatusPending, leave.LeaveRequestStatusRefused})
	}

	var reason *string
	switch status {
	case leave.LeaveRequestStatusRefused:
		r := "Période incompatible avec la charge projet"
		reason = &r
	case leave.LeaveRequestStatusCancelled:
		r := "Demande annulée par le salarié"
		reason = &r
	}

	var deadlines *string
	if s.rng.Float64() < 0.35 {
		d := "Deadline: " + from.AddDate(0, 0, 10).Format(time.DateOnly)
		deadlines = &d
	}

	request := leave.LeaveRequest{
		UserID:           owner.ID,
		FromDate:         from,
		ToDate:           to,
		TimeSlot:         slot,
		Type:             leaveType,
		Status:           leave.LeaveRequestStatusPending,
		Projects:         pickManyUnique(s.rng, projects, pickOne(s.rng, []int{1, 1, 2})),
		ProjectDeadlines: deadlines,
		ReviewerIDs:      s.pickReviewers(owner, pool, admin),
	}
	request.NormalizeTimeSlot()
	return request, status, reason
}

// pickReviewers prefers the admin and sometimes adds one peer. The owner is never a reviewer.
func (s *Seeder) pickReviewers(owner user.User, pool []user.User, admin user.User) []string {
	var reviewers []string
	if admin.ID != "" && admin.ID != owner.ID {
		reviewers = append(reviewers, admin.ID)
	}

	var peers []user.User
	for _, u := range pool {
		if u.ID != owner.ID && u.ID != admin.ID {
			peers = append(peers, u)
		}
	}
	if len(peers) > 0 && (len(reviewers) == 0 || s.rng.Float64() < 0.4) {
		reviewers = append(reviewers, pickOne(s.rng, peers).ID)
	}
	return reviewers
}

func (s *Seeder) existingKeys(ctx context.Context, ownerID string) (map[string]struct{}, error) {
	keys := make(map[string]struct{})
	query := leave.LeaveRequestQuery{UserIDs: []string{ownerID}, Limit: leave.MaxListLimit}
	for {
		page, err := s.leaves.List(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("list leaves of %s: %w", ownerID, err)
		}
		for _, l := range page.Items {
			keys[seedKey(l)] = struct{}{}
		}
		if page.NextCursor == nil {
			return keys, nil
		}
		query.Cursor = page.NextCursor
	}
}

func seedKey(l leave.LeaveRequest) string {
	return strings.Join([]string{
		l.UserID,
		string(l.Type),
		string(l.TimeSlot),
		l.FromDate.Format(time.DateOnly),
		l.ToDate.Format(time.DateOnly),
	}, "__")
}

func pickOne[T any](rng *rand.Rand, values []T) T {
	return values[rng.IntN(len(values))]
}

func pickManyUnique[T any](rng *rand.Rand, values []T, count int) []T {
	pool := append([]T(nil), values...)
	out := make([]T, 0, count)
	for len(pool) > 0 && len(out) < count {
		idx := rng.IntN(len(pool))
		out = append(out, pool[idx])
		pool = append(pool[:idx], pool[idx+1:]...)
	}
	return out
}
