package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"expense-manager/internal/models"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// SQLiteStore is an embedded Store used for local development, the admin
// CLI and tests.
type SQLiteStore struct {
	conn *sql.DB
}

// NewSQLiteStore opens a database connection and runs migrations.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One connection keeps ":memory:" databases coherent and serializes writers.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, err
	}

	db := &SQLiteStore{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, err
	}

	return db, nil
}

func (db *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			email TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			user_name TEXT NOT NULL DEFAULT '',
			monthly_budget REAL NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS expenses (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL REFERENCES users(id),
			title TEXT NOT NULL,
			amount REAL NOT NULL,
			category TEXT NOT NULL DEFAULT '',
			date DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_expenses_user ON expenses(user_id, date)`,
		`CREATE TABLE IF NOT EXISTS savings (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL REFERENCES users(id),
			category TEXT NOT NULL,
			name TEXT NOT NULL,
			target_amount REAL NOT NULL,
			current_amount REAL NOT NULL DEFAULT 0,
			start_date DATETIME NOT NULL,
			end_date DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_savings_user ON savings(user_id, end_date)`,
	}

	for _, m := range migrations {
		if _, err := db.conn.Exec(m); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the database connection.
func (db *SQLiteStore) Close() error {
	return db.conn.Close()
}

func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		code := sqliteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
			(code == sqlite3.SQLITE_CONSTRAINT && strings.Contains(sqliteErr.Error(), "UNIQUE"))
	}
	return false
}

// affectedOne maps a zero-row write to ErrNotFound.
func affectedOne(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateUser inserts u, assigning its id and creation time.
func (db *SQLiteStore) CreateUser(ctx context.Context, u *models.User) error {
	u.ID = newID()
	u.Email = normalizeEmail(u.Email)
	u.CreatedAt = time.Now().UTC()

	_, err := db.conn.ExecContext(ctx,
		"INSERT INTO users (id, email, password_hash, user_name, monthly_budget, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		u.ID, u.Email, u.PasswordHash, u.UserName, u.MonthlyBudget, u.CreatedAt,
	)
	if isUniqueViolation(err) {
		return ErrDuplicateEmail
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

const userColumns = "id, email, password_hash, user_name, monthly_budget, created_at"

func scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.UserName, &u.MonthlyBudget, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}

// GetUserByID retrieves a user by ID.
func (db *SQLiteStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return scanUser(db.conn.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id))
}

// GetUserByEmail retrieves a user by email.
func (db *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(db.conn.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE email = ?", normalizeEmail(email)))
}

// UpdateUserProfile applies the non-nil fields of upd and returns the updated user.
func (db *SQLiteStore) UpdateUserProfile(ctx context.Context, id string, upd models.ProfileUpdate) (*models.User, error) {
	result, err := db.conn.ExecContext(ctx,
		"UPDATE users SET user_name = COALESCE(?, user_name), monthly_budget = COALESCE(?, monthly_budget) WHERE id = ?",
		upd.UserName, upd.MonthlyBudget, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	if err := affectedOne(result); err != nil {
		return nil, err
	}
	return db.GetUserByID(ctx, id)
}

// UserCount returns the number of users in the database.
func (db *SQLiteStore) UserCount(ctx context.Context) (int, error) {
	var count int
	err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count)
	return count, err
}

// CreateExpense inserts e, assigning its id.
func (db *SQLiteStore) CreateExpense(ctx context.Context, e *models.Expense) error {
	e.ID = newID()
	if e.Date.IsZero() {
		e.Date = time.Now()
	}
	e.Date = e.Date.UTC()

	_, err := db.conn.ExecContext(ctx,
		"INSERT INTO expenses (id, user_id, title, amount, category, date) VALUES (?, ?, ?, ?, ?, ?)",
		e.ID, e.UserID, e.Title, e.Amount, e.Category, e.Date,
	)
	if err != nil {
		return fmt.Errorf("insert expense: %w", err)
	}
	return nil
}

// ListExpenses returns the user's expenses, newest first.
func (db *SQLiteStore) ListExpenses(ctx context.Context, userID string) ([]models.Expense, error) {
	rows, err := db.conn.QueryContext(ctx,
		"SELECT id, user_id, title, amount, category, date FROM expenses WHERE user_id = ? ORDER BY date DESC",
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	expenses := []models.Expense{}
	for rows.Next() {
		var e models.Expense
		if err := rows.Scan(&e.ID, &e.UserID, &e.Title, &e.Amount, &e.Category, &e.Date); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}

	return expenses, rows.Err()
}

// GetExpense retrieves a single expense owned by userID.
func (db *SQLiteStore) GetExpense(ctx context.Context, id, userID string) (*models.Expense, error) {
	row := db.conn.QueryRowContext(ctx,
		"SELECT id, user_id, title, amount, category, date FROM expenses WHERE id = ? AND user_id = ?",
		id, userID,
	)

	var e models.Expense
	err := row.Scan(&e.ID, &e.UserID, &e.Title, &e.Amount, &e.Category, &e.Date)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan expense: %w", err)
	}
	return &e, nil
}

// UpdateExpense overwrites the expense matching both e.ID and e.UserID.
func (db *SQLiteStore) UpdateExpense(ctx context.Context, e *models.Expense) error {
	e.Date = e.Date.UTC()
	result, err := db.conn.ExecContext(ctx,
		"UPDATE expenses SET title = ?, amount = ?, category = ?, date = ? WHERE id = ? AND user_id = ?",
		e.Title, e.Amount, e.Category, e.Date, e.ID, e.UserID,
	)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	return affectedOne(result)
}

// DeleteExpense removes the expense matching both id and userID.
func (db *SQLiteStore) DeleteExpense(ctx context.Context, id, userID string) error {
	result, err := db.conn.ExecContext(ctx, "DELETE FROM expenses WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return affectedOne(result)
}

const savingsColumns = "id, user_id, category, name, target_amount, current_amount, start_date, end_date"

type scanner interface {
	Scan(dest ...any) error
}

func scanSavings(row scanner) (*models.Savings, error) {
	var s models.Savings
	if err := row.Scan(&s.ID, &s.UserID, &s.Category, &s.Name, &s.TargetAmount, &s.CurrentAmount, &s.StartDate, &s.EndDate); err != nil {
		return nil, err
	}
	return &s, nil
}

// CreateSavings inserts s, assigning its id.
func (db *SQLiteStore) CreateSavings(ctx context.Context, s *models.Savings) error {
	s.ID = newID()
	s.StartDate, s.EndDate = s.StartDate.UTC(), s.EndDate.UTC()

	_, err := db.conn.ExecContext(ctx,
		"INSERT INTO savings ("+savingsColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		s.ID, s.UserID, s.Category, s.Name, s.TargetAmount, s.CurrentAmount, s.StartDate, s.EndDate,
	)
	if err != nil {
		return fmt.Errorf("insert savings: %w", err)
	}
	return nil
}

// ListSavings returns the user's savings goals, soonest deadline first.
func (db *SQLiteStore) ListSavings(ctx context.Context, userID string) ([]models.Savings, error) {
	rows, err := db.conn.QueryContext(ctx,
		"SELECT "+savingsColumns+" FROM savings WHERE user_id = ? ORDER BY end_date ASC",
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list savings: %w", err)
	}
	defer rows.Close()

	savings := []models.Savings{}
	for rows.Next() {
		s, err := scanSavings(rows)
		if err != nil {
			return nil, fmt.Errorf("scan savings: %w", err)
		}
		savings = append(savings, *s)
	}

	return savings, rows.Err()
}

// GetSavings retrieves a single savings goal owned by userID.
func (db *SQLiteStore) GetSavings(ctx context.Context, id, userID string) (*models.Savings, error) {
	s, err := scanSavings(db.conn.QueryRowContext(ctx,
		"SELECT "+savingsColumns+" FROM savings WHERE id = ? AND user_id = ?",
		id, userID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan savings: %w", err)
	}
	return s, nil
}

// UpdateSavings overwrites the savings goal matching both s.ID and s.UserID.
func (db *SQLiteStore) UpdateSavings(ctx context.Context, s *models.Savings) error {
	s.StartDate, s.EndDate = s.StartDate.UTC(), s.EndDate.UTC()
	result, err := db.conn.ExecContext(ctx, `
		UPDATE savings
		SET category = ?, name = ?, target_amount = ?, current_amount = ?, start_date = ?, end_date = ?
		WHERE id = ? AND user_id = ?`,
		s.Category, s.Name, s.TargetAmount, s.CurrentAmount, s.StartDate, s.EndDate, s.ID, s.UserID,
	)
	if err != nil {
		return fmt.Errorf("update savings: %w", err)
	}
	return affectedOne(result)
}

// DeleteSavings removes the savings goal matching both id and userID.
func (db *SQLiteStore) DeleteSavings(ctx context.Context, id, userID string) error {
	result, err := db.conn.ExecContext(ctx, "DELETE FROM savings WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("delete savings: %w", err)
	}
	return affectedOne(result)
}
