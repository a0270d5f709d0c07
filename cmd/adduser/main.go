package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"expense-manager/internal/auth"
	"expense-manager/internal/config"
	"expense-manager/internal/models"
	"expense-manager/internal/storage"

	"golang.org/x/term"
)

const openTimeout = 10 * time.Second

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("adduser", flag.ContinueOnError)
	fs.SetOutput(stderr)

	email := fs.String("email", "", "Email address used to log in")
	passwordFlag := fs.String("password", "", "Password (optional, will prompt if omitted)")
	userName := fs.String("name", "", "Display name")
	budget := fs.Float64("budget", 0, "Monthly budget")
	dbPath := fs.String("db", "", "Path to SQLite database file (overrides STORE_DRIVER)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if strings.TrimSpace(*email) == "" {
		fmt.Fprintln(stdout, "Usage: adduser -email <email> [-password <password>] [-name <name>] [-budget <amount>] [-db <db_path>]")
		fs.PrintDefaults()
		return fmt.Errorf("missing required flags: email")
	}

	password := *passwordFlag
	if password == "" {
		fmt.Fprint(stdout, "Password: ")
		var err error
		password, err = readPassword(stdin)
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(stdout)
	}

	if strings.TrimSpace(password) == "" {
		return fmt.Errorf("password cannot be empty")
	}

	// The store is resolved the same way the server resolves it, so
	// MONGODB_URI or STORE_DRIVER reach the production database.
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if *dbPath != "" {
		cfg.StoreDriver = config.DriverSQLite
		cfg.DBPath = *dbPath
	}

	ctx, cancel := context.WithTimeout(context.Background(), openTimeout)
	defer cancel()

	store, err := storage.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()
	fmt.Fprintf(stderr, "Using %s store\n", cfg.StoreDriver)

	if _, err := store.GetUserByEmail(ctx, *email); err == nil {
		return fmt.Errorf("user %s already exists", *email)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("failed to look up user: %w", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:         *email,
		PasswordHash:  hash,
		UserName:      *userName,
		MonthlyBudget: *budget,
	}
	if err := store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrDuplicateEmail) {
			return fmt.Errorf("user %s already exists", *email)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Fprintf(stdout, "User %s created successfully with ID %s\n", user.Email, user.ID)
	return nil
}

func readPassword(stdin io.Reader) (string, error) {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		bytePassword, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(bytePassword), nil
	}

	// Pipes and tests
	scanner := bufio.NewScanner(stdin)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
