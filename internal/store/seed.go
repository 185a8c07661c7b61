// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/enrollhq/crm/internal/auth"
	"github.com/enrollhq/crm/internal/model"
)

// seedAccount describes one demo login created by Seed.
type seedAccount struct {
	Name     string
	Email    string
	Password string
	Role     string
}

var seedAccounts = []seedAccount{
	{Name: "Admin User", Email: "admin@example.com", Password: "admin123", Role: model.RoleAdmin},
	{Name: "Staff User", Email: "staff@example.com", Password: "staff123", Role: model.RoleStaff},
}

// Seed resets the user table to the two demo accounts. Existing users
// are removed first so repeated runs converge on the same state. Leads
// and notes are left untouched apart from assignments being cleared by
// the foreign key action.
func Seed(ctx context.Context, db *sql.DB, log *slog.Logger) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning seed transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	q := New(tx)

	if err := q.DeleteAllUsers(ctx); err != nil {
		return fmt.Errorf("clearing users: %w", err)
	}

	for _, acct := range seedAccounts {
		hash, err := auth.HashPassword(acct.Password)
		if err != nil {
			return fmt.Errorf("hashing password for %s: %w", acct.Email, err)
		}
		if _, err := q.CreateUser(ctx, CreateUserParams{
			Name:         acct.Name,
			Email:        acct.Email,
			PasswordHash: hash,
			Role:         acct.Role,
		}); err != nil {
			return fmt.Errorf("creating user %s: %w", acct.Email, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing seed transaction: %w", err)
	}

	for _, acct := range seedAccounts {
		log.Info("seeded account",
			"email", acct.Email,
			"password", acct.Password,
			"role", acct.Role)
	}

	return nil
}
