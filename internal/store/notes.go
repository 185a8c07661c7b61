// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"
)

const createNote = `
INSERT INTO notes (lead_id, user_id, text, created_at)
VALUES (?, ?, ?, ?)
RETURNING id, lead_id, user_id, text, created_at
`

// CreateNoteParams holds the fields for creating a note.
type CreateNoteParams struct {
	LeadID int64
	UserID int64
	Text   string
}

// CreateNote inserts a note against a lead and returns the created row.
func (q *Queries) CreateNote(ctx context.Context, arg CreateNoteParams) (Note, error) {
	row := q.db.QueryRowContext(ctx, createNote,
		arg.LeadID, arg.UserID, arg.Text, time.Now().UTC())
	var n Note
	err := row.Scan(&n.ID, &n.LeadID, &n.UserID, &n.Text, &n.CreatedAt)
	return n, err
}

const listNotesByLead = `
SELECT n.id, n.lead_id, n.user_id, n.text, n.created_at, u.name, u.email
FROM notes n
JOIN users u ON u.id = n.user_id
WHERE n.lead_id = ?
ORDER BY n.created_at DESC, n.id DESC
`

// ListNotesByLead returns a lead's notes with author details, newest first.
func (q *Queries) ListNotesByLead(ctx context.Context, leadID int64) ([]NoteWithAuthor, error) {
	rows, err := q.db.QueryContext(ctx, listNotesByLead, leadID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var notes []NoteWithAuthor
	for rows.Next() {
		var n NoteWithAuthor
		if err := rows.Scan(&n.ID, &n.LeadID, &n.UserID, &n.Text, &n.CreatedAt,
			&n.AuthorName, &n.AuthorEmail); err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

const getNoteAuthor = `
SELECT id, name, email FROM users WHERE id = ?
`

// NoteAuthor is the author projection returned alongside a new note.
type NoteAuthor struct {
	ID    int64
	Name  string
	Email string
}

// GetNoteAuthor fetches the id, name and email of a note's author.
func (q *Queries) GetNoteAuthor(ctx context.Context, userID int64) (NoteAuthor, error) {
	var a NoteAuthor
	err := q.db.QueryRowContext(ctx, getNoteAuthor, userID).Scan(&a.ID, &a.Name, &a.Email)
	return a, err
}

const countNotesByLead = `SELECT COUNT(*) FROM notes WHERE lead_id = ?`

// CountNotesByLead returns the number of notes attached to a lead.
func (q *Queries) CountNotesByLead(ctx context.Context, leadID int64) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countNotesByLead, leadID).Scan(&n)
	return n, err
}
