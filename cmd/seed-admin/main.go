// Command seed-admin creates or resets the bootstrap administrator account.
//
// Usage:
//
//	seed-admin -email admin@example.com -name "Portal Admin"
//
// The password is read from SEED_ADMIN_PASSWORD, or generated and printed once.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/straye-as/vendor-portal-api/internal/auth"
	"github.com/straye-as/vendor-portal-api/internal/config"
	"github.com/straye-as/vendor-portal-api/internal/database"
	"github.com/straye-as/vendor-portal-api/internal/domain"
	"github.com/straye-as/vendor-portal-api/internal/logger"
	"github.com/straye-as/vendor-portal-api/internal/repository"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Seed error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	email := flag.String("email", os.Getenv("SEED_ADMIN_EMAIL"), "admin email address")
	name := flag.String("name", "Administrator", "display name")
	flag.Parse()

	if strings.TrimSpace(*email) == "" {
		return fmt.Errorf("an email is required (-email or SEED_ADMIN_EMAIL)")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	basicCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	log, err := logger.NewLogger(&basicCfg.Logging, &basicCfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	cfg, err := config.LoadWithSecrets(ctx, log)
	if err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}

	db, err := database.NewDatabase(&cfg.Database, log)
	if err != nil {
		return err
	}

	password := os.Getenv("SEED_ADMIN_PASSWORD")
	generated := password == ""
	if generated {
		if password, err = auth.TemporaryPassword(16); err != nil {
			return err
		}
	} else if len(password) < cfg.Auth.MinPasswordLength {
		return fmt.Errorf("SEED_ADMIN_PASSWORD must be at least %d characters", cfg.Auth.MinPasswordLength)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	user := &domain.User{
		Email:        strings.TrimSpace(*email),
		Name:         *name,
		Role:         domain.RoleAdmin,
		PasswordHash: hash,
	}
	if err := repository.NewUserRepository(db).Upsert(ctx, user); err != nil {
		return fmt.Errorf("failed to save admin: %w", err)
	}

	log.Info("admin account ready", zap.Uint("user_id", user.ID), zap.String("email", user.Email))
	if generated {
		fmt.Printf("Generated password for %s: %s\n", user.Email, password)
	}
	return nil
}
