package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"expense-manager/internal/config"
	"expense-manager/internal/models"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when no record matches both id and owner.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateEmail is returned when a user with the same email exists.
	ErrDuplicateEmail = errors.New("email already registered")
)

// Store persists users, expenses and savings goals. Expense and savings
// lookups are always scoped to an owner id.
type Store interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUserProfile(ctx context.Context, id string, upd models.ProfileUpdate) (*models.User, error)
	UserCount(ctx context.Context) (int, error)

	CreateExpense(ctx context.Context, e *models.Expense) error
	ListExpenses(ctx context.Context, userID string) ([]models.Expense, error)
	GetExpense(ctx context.Context, id, userID string) (*models.Expense, error)
	UpdateExpense(ctx context.Context, e *models.Expense) error
	DeleteExpense(ctx context.Context, id, userID string) error

	CreateSavings(ctx context.Context, s *models.Savings) error
	ListSavings(ctx context.Context, userID string) ([]models.Savings, error)
	GetSavings(ctx context.Context, id, userID string) (*models.Savings, error)
	UpdateSavings(ctx context.Context, s *models.Savings) error
	DeleteSavings(ctx context.Context, id, userID string) error

	Close() error
}

// Open connects to the store selected by cfg.StoreDriver.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.StoreDriver {
	case config.DriverMongo:
		return NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDatabase)
	case config.DriverSQLite:
		return NewSQLiteStore(cfg.DBPath)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

func newID() string {
	return uuid.NewString()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
