package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/cmlabs-hris/leave-backend-go/internal/config"
	"github.com/cmlabs-hris/leave-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/leave-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/leave-backend-go/internal/repository"
	"github.com/cmlabs-hris/leave-backend-go/internal/seed"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "seed",
		Short:         "Seed demo data and mint development tokens",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newRunCmd(),
		newTokenCmd(),
	)

	return root
}

func newRunCmd() *cobra.Command {
	var randomSeed uint64

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Create demo users and leave requests (safe to rerun)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, repos, err := open(ctx)
			if err != nil {
				return err
			}
			defer repos.Close()

			res, err := seed.NewSeeder(repos.Users, repos.LeaveRequests, repos.Transactor, randomSeed).Run(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "✅ %d existing users 👉 %d users created\n", res.UsersExisting, res.UsersCreated)
			fmt.Fprintf(out, "✅ %d leaves created\n", res.LeavesCreated)

			jwtService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
			for _, u := range []user.User{res.Admin, res.User} {
				if err := printToken(cmd, jwtService, u); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().Uint64Var(&randomSeed, "seed", 1, "Seed of the random leave generator")
	return cmd
}

func newTokenCmd() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print an access token for an existing user",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, repos, err := open(ctx)
			if err != nil {
				return err
			}
			defer repos.Close()

			u, err := repos.Users.GetByEmail(ctx, email)
			if err != nil {
				return fmt.Errorf("find %s: %w", email, err)
			}
			return printToken(cmd, jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration), u)
		},
	}

	cmd.Flags().StringVar(&email, "email", seed.UserEmail, "Email of the user to sign a token for")
	return cmd
}

func open(ctx context.Context) (*config.Config, *repository.Repositories, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if cfg.Database.Driver == config.DriverMemory {
		return nil, nil, fmt.Errorf("seeding needs a persistent store, DB_DRIVER is %q", cfg.Database.Driver)
	}

	repos, err := repository.Open(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, repos, nil
}

func printToken(cmd *cobra.Command, jwtService jwt.Service, u user.User) error {
	token, expiresAt, err := jwtService.GenerateAccessToken(u.ID, u.Email, u.Role)
	if err != nil {
		return fmt.Errorf("sign token for %s: %w", u.Email, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "👉 %s (%s) token, expires %s:\n%s\n",
		u.Email, u.Role, time.Unix(expiresAt, 0).Format(time.RFC3339), token)
	return nil
}
