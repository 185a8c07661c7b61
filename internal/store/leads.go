// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"strings"
	"time"
)

const createLead = `
INSERT INTO leads (first_name, last_name, email, phone, course, message, source, status, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, 'new', ?, ?)
RETURNING id, first_name, last_name, email, phone, course, message, source, status, assigned_to, created_at, updated_at
`

// CreateLeadParams holds the fields for creating a lead.
type CreateLeadParams struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Course    string
	Message   string
	Source    string
}

// CreateLead inserts a new lead with status "new" and returns the created row.
func (q *Queries) CreateLead(ctx context.Context, arg CreateLeadParams) (Lead, error) {
	now := time.Now().UTC()
	row := q.db.QueryRowContext(ctx, createLead,
		arg.FirstName, arg.LastName, arg.Email, arg.Phone,
		arg.Course, arg.Message, arg.Source, now, now)
	return scanLead(row)
}

const getLead = `
SELECT id, first_name, last_name, email, phone, course, message, source, status, assigned_to, created_at, updated_at
FROM leads WHERE id = ?
`

// GetLead fetches a lead by ID.
func (q *Queries) GetLead(ctx context.Context, id int64) (Lead, error) {
	return scanLead(q.db.QueryRowContext(ctx, getLead, id))
}

const getLeadByEmail = `
SELECT id, first_name, last_name, email, phone, course, message, source, status, assigned_to, created_at, updated_at
FROM leads WHERE email = ?
`

// GetLeadByEmail fetches a lead by email address.
func (q *Queries) GetLeadByEmail(ctx context.Context, email string) (Lead, error) {
	return scanLead(q.db.QueryRowContext(ctx, getLeadByEmail, email))
}

// ListLeadsParams filters the lead listing. Zero values mean no filter.
type ListLeadsParams struct {
	Status string
	Course string
	Limit  int64
}

// ListLeads returns leads newest first, optionally filtered by status
// and course. A zero Limit returns all matching rows.
func (q *Queries) ListLeads(ctx context.Context, arg ListLeadsParams) ([]Lead, error) {
	var (
		sb   strings.Builder
		args []any
	)
	sb.WriteString(`SELECT id, first_name, last_name, email, phone, course, message, source, status, assigned_to, created_at, updated_at FROM leads`)
	var conds []string
	if arg.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, arg.Status)
	}
	if arg.Course != "" {
		conds = append(conds, "course = ?")
		args = append(args, arg.Course)
	}
	if len(conds) > 0 {
		sb.WriteString(" WHERE " + strings.Join(conds, " AND "))
	}
	sb.WriteString(" ORDER BY created_at DESC, id DESC")
	if arg.Limit > 0 {
		sb.WriteString(" LIMIT ?")
		args = append(args, arg.Limit)
	}

	rows, err := q.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var leads []Lead
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, l)
	}
	return leads, rows.Err()
}

const updateLead = `
UPDATE leads
SET first_name = ?, last_name = ?, email = ?, phone = ?, course = ?,
    message = ?, source = ?, status = ?, assigned_to = ?, updated_at = ?
WHERE id = ?
RETURNING id, first_name, last_name, email, phone, course, message, source, status, assigned_to, created_at, updated_at
`

// UpdateLeadParams holds the full column set for an update. Handlers
// merge partial input into the existing row before calling UpdateLead.
type UpdateLeadParams struct {
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
}

// UpdateLead writes all mutable lead columns and returns the updated row.
func (q *Queries) UpdateLead(ctx context.Context, arg UpdateLeadParams) (Lead, error) {
	row := q.db.QueryRowContext(ctx, updateLead,
		arg.FirstName, arg.LastName, arg.Email, arg.Phone, arg.Course,
		arg.Message, arg.Source, arg.Status, arg.AssignedTo, time.Now().UTC(), arg.ID)
	return scanLead(row)
}

const deleteLead = `DELETE FROM leads WHERE id = ?`

// DeleteLead removes a lead and, via foreign keys, its notes.
func (q *Queries) DeleteLead(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, deleteLead, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

const countLeads = `SELECT COUNT(*) FROM leads`

// CountLeads returns the total number of leads.
func (q *Queries) CountLeads(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countLeads).Scan(&n)
	return n, err
}

const countLeadsByStatus = `
SELECT status, COUNT(*) FROM leads GROUP BY status
`

// CountLeadsByStatus returns lead counts keyed by status. Statuses with
// no leads are absent from the map.
func (q *Queries) CountLeadsByStatus(ctx context.Context) (map[string]int64, error) {
	rows, err := q.db.QueryContext(ctx, countLeadsByStatus)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[string]int64)
	for rows.Next() {
		var (
			status string
			n      int64
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

const countLeadsSince = `SELECT COUNT(*) FROM leads WHERE created_at >= ?`

// CountLeadsSince returns the number of leads created at or after the
// given time.
func (q *Queries) CountLeadsSince(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countLeadsSince, since.UTC()).Scan(&n)
	return n, err
}

const listLeadsSince = `
SELECT id, first_name, last_name, email, phone, course, message, source, status, assigned_to, created_at, updated_at
FROM leads WHERE created_at >= ? ORDER BY created_at DESC, id DESC
`

// ListLeadsSince returns leads created at or after the given time,
// newest first.
func (q *Queries) ListLeadsSince(ctx context.Context, since time.Time) ([]Lead, error) {
	rows, err := q.db.QueryContext(ctx, listLeadsSince, since.UTC())
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var leads []Lead
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, l)
	}
	return leads, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLead(row rowScanner) (Lead, error) {
	var l Lead
	err := row.Scan(&l.ID, &l.FirstName, &l.LastName, &l.Email, &l.Phone,
		&l.Course, &l.Message, &l.Source, &l.Status, &l.AssignedTo,
		&l.CreatedAt, &l.UpdatedAt)
	return l, err
}
