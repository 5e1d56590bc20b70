package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/leave-backend-go/internal/config"
	appHTTP "github.com/cmlabs-hris/leave-backend-go/internal/handler/http"
	"github.com/cmlabs-hris/leave-backend-go/internal/pkg/cron"
	"github.com/cmlabs-hris/leave-backend-go/internal/pkg/email"
	"github.com/cmlabs-hris/leave-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/leave-backend-go/internal/pkg/sse"
	"github.com/cmlabs-hris/leave-backend-go/internal/repository"
	"github.com/cmlabs-hris/leave-backend-go/internal/seed"
	leaveService "github.com/cmlabs-hris/leave-backend-go/internal/service/leave"
	notificationService "github.com/cmlabs-hris/leave-backend-go/internal/service/notification"
	userService "github.com/cmlabs-hris/leave-backend-go/internal/service/user"
	"github.com/go-chi/httplog/v3"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logFormat := httplog.SchemaECS.Concise(cfg.App.IsDev())
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       cfg.LogLevel(),
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "leave-backend"),
		slog.String("version", cfg.App.Version),
		slog.String("env", cfg.App.Env),
	)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repos, err := repository.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer repos.Close()

	if cfg.Database.Driver == config.DriverMemory {
		// An empty in-memory store is useless for a demo, so fill it on boot
		if _, err := seed.NewSeeder(repos.Users, repos.LeaveRequests, repos.Transactor, 1).Run(ctx); err != nil {
			return fmt.Errorf("seed memory store: %w", err)
		}
	}

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	emailService, err := email.NewEmailService(cfg.SMTP)
	if err != nil {
		return fmt.Errorf("initialize email service: %w", err)
	}

	hub := sse.NewHub()
	notifService := notificationService.NewNotificationService(repos.Notifications, hub, notificationService.Config{})
	defer notifService.Stop()

	leaveNotifier := notificationService.NewLeaveNotifier(notifService, emailService, repos.Users, notificationService.LeaveNotifierConfig{
		AppName:     cfg.App.Name,
		FrontendURL: cfg.App.FrontendURL,
	})

	leaveSvc := leaveService.NewLeaveService(repos.Transactor, repos.LeaveRequests, repos.Users, leaveNotifier)
	userSvc := userService.NewUserService(repos.Users)

	scheduler := cron.NewScheduler(ctx)
	cron.NewLeaveJobs(repos.LeaveRequests, repos.Users, notifService).RegisterJobs(scheduler)
	scheduler.Start()
	defer scheduler.Stop()

	router := appHTTP.NewRouter(cfg, logger, JWTService, appHTTP.Handlers{
		Config:       appHTTP.NewConfigHandler(cfg.App),
		User:         appHTTP.NewUserHandler(userSvc, leaveSvc),
		Leave:        appHTTP.NewLeaveHandler(leaveSvc),
		Notification: appHTTP.NewNotificationHandler(notifService, JWTService),
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", server.Addr, "db_driver", cfg.Database.Driver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// Open SSE streams only end when the hub closes
	scheduler.Stop()
	notifService.Stop()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
