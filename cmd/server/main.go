package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"expense-manager/internal/auth"
	"expense-manager/internal/config"
	"expense-manager/internal/handlers"
	"expense-manager/internal/logger"
	"expense-manager/internal/models"
	"expense-manager/internal/storage"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

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

	log, err := logger.New(!cfg.IsProduction(), logger.Level(cfg.LogLevel))
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	if cfg.UsingDevSecret {
		log.Warn("JWT_SECRET not set, signing tokens with the development secret")
	}

	ctx := context.Background()
	store, err := storage.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.StoreDriver, err)
	}
	defer store.Close()
	log.Info("store connected", zap.String("driver", cfg.StoreDriver))

	if err := seedAdmin(ctx, store, cfg.AdminEmail, cfg.AdminPassword, log); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	tokens := auth.NewTokenService(cfg.JWTSecret, auth.TokenTTL)
	h := handlers.NewHandlers(store, tokens, log)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           setupRouter(h, log, cfg.CORSOrigins),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGTERM, syscall.SIGINT)
	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-stop:
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// setupRouter mounts the API on a ServeMux and wraps it in the shared
// middleware chain.
func setupRouter(h *handlers.Handlers, log *zap.Logger, origins []string) http.Handler {
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	return chi.Chain(
		middleware.RequestID,
		middleware.RealIP,
		handlers.RequestLogger(log),
		middleware.Recoverer,
		cors.Handler(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
			MaxAge:         300,
		}),
	).Handler(mux)
}

// seedAdmin creates the configured admin account when the store has no users.
func seedAdmin(ctx context.Context, store storage.Store, email, password string, log *zap.Logger) error {
	if email == "" || password == "" {
		return nil
	}

	count, err := store.UserCount(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	user := &models.User{Email: email, PasswordHash: hash, UserName: "admin"}
	if err := store.CreateUser(ctx, user); err != nil {
		return err
	}

	log.Info("seeded admin user", zap.String("user_id", user.ID), zap.String("email", user.Email))
	return nil
}
