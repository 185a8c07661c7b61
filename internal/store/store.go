// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package store provides database access for users, leads, and notes.
package store

import (
	"context"
	"database/sql"
	"time"
)

// DBTX is the interface shared by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

// Queries holds prepared query methods against a database or transaction.
type Queries struct {
	db DBTX
}

// New creates a new Queries instance.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// WithTx returns a Queries instance bound to the given transaction.
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// User represents a staff or admin account row.
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	LastLoginAt  sql.NullTime
}

// IsAdmin returns true if the user has admin role.
func (u *User) IsAdmin() bool {
	return u.Role == "admin"
}

// Lead represents a prospective-student inquiry row.
type Lead struct {
	ID         int64
	FirstName  string
	LastName   string
	Email      string
	Phone      string
	Course     string
	Message    string
	Source     string
	Status     string
	AssignedTo sql.NullInt64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Note represents a staff comment attached to a lead.
type Note struct {
	ID        int64
	LeadID    int64
	UserID    int64
	Text      string
	CreatedAt time.Time
}

// NoteWithAuthor is a note joined with its author's projection.
type NoteWithAuthor struct {
	Note
	AuthorName  string
	AuthorEmail string
}
