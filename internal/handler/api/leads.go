// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/enrollhq/crm/internal/model"
	"github.com/enrollhq/crm/internal/store"
)

// emailPattern requires one @ with a dot somewhere after it and no
// whitespace anywhere.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// LeadResponse represents a lead in API responses.
type LeadResponse struct {
	ID         int64     `json:"id"`
	FirstName  string    `json:"firstName"`
	LastName   string    `json:"lastName"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone"`
	Course     string    `json:"course"`
	Message    string    `json:"message"`
	Source     string    `json:"source"`
	Status     string    `json:"status"`
	AssignedTo *int64    `json:"assignedTo"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// AuthorResponse represents a note author in API responses.
type AuthorResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// NoteResponse represents a note in API responses.
type NoteResponse struct {
	ID        int64          `json:"id"`
	Text      string         `json:"text"`
	CreatedAt time.Time      `json:"createdAt"`
	Author    AuthorResponse `json:"author"`
}

// LeadDetailResponse is a lead together with its notes.
type LeadDetailResponse struct {
	LeadResponse
	Notes []NoteResponse `json:"notes"`
}

// CreateLeadRequest represents the request body for capturing a lead.
type CreateLeadRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Course    string `json:"course"`
	Message   string `json:"message"`
}

// UpdateLeadRequest represents the request body for updating a lead.
// Pointer fields distinguish absent from empty: only fields present in
// the JSON body are applied.
type UpdateLeadRequest struct {
	Status     *string       `json:"status,omitempty"`
	AssignedTo OptionalInt64 `json:"assignedTo,omitempty"`
	Course     *string       `json:"course,omitempty"`
	Message    *string       `json:"message,omitempty"`
}

// OptionalInt64 is a nullable int64 that records whether its key was
// present in the JSON body at all, so "assignedTo": null can clear an
// assignment while an absent key leaves it untouched.
type OptionalInt64 struct {
	Set   bool
	Valid bool
	Value int64
}

// UnmarshalJSON implements json.Unmarshaler. It only runs when the key
// is present in the body.
func (o *OptionalInt64) UnmarshalJSON(b []byte) error {
	o.Set = true
	if string(b) == "null" {
		return nil
	}
	if err := json.Unmarshal(b, &o.Value); err != nil {
		return err
	}
	o.Valid = true
	return nil
}

func storeLeadToResponse(l store.Lead) LeadResponse {
	resp := LeadResponse{
		ID:        l.ID,
		FirstName: l.FirstName,
		LastName:  l.LastName,
		Email:     l.Email,
		Phone:     l.Phone,
		Course:    l.Course,
		Message:   l.Message,
		Source:    l.Source,
		Status:    l.Status,
		CreatedAt: l.CreatedAt,
		UpdatedAt: l.UpdatedAt,
	}
	if l.AssignedTo.Valid {
		resp.AssignedTo = &l.AssignedTo.Int64
	}
	return resp
}

func storeNoteToResponse(n store.NoteWithAuthor) NoteResponse {
	return NoteResponse{
		ID:        n.ID,
		Text:      n.Text,
		CreatedAt: n.CreatedAt,
		Author: AuthorResponse{
			ID:    n.UserID,
			Name:  n.AuthorName,
			Email: n.AuthorEmail,
		},
	}
}

// CreateLead handles POST /api/leads. Public: this is the endpoint the
// website intake form submits to.
func (h *Handler) CreateLead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateLeadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid JSON body", nil)
		return
	}

	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.Email = strings.TrimSpace(req.Email)
	req.Phone = strings.TrimSpace(req.Phone)
	req.Course = strings.TrimSpace(req.Course)

	fieldErrors := make(map[string]string)
	if req.FirstName == "" {
		fieldErrors["firstName"] = "First name is required"
	}
	if req.Email == "" {
		fieldErrors["email"] = "Email is required"
	} else if !emailPattern.MatchString(req.Email) {
		fieldErrors["email"] = "Invalid email format"
	}
	if req.Phone == "" {
		fieldErrors["phone"] = "Phone is required"
	}
	if len(fieldErrors) > 0 {
		WriteBadRequest(w, "Missing required fields", fieldErrors)
		return
	}

	if _, err := h.queries.GetLeadByEmail(ctx, req.Email); err == nil {
		WriteConflict(w, "duplicate_email", "A lead with this email already exists")
		return
	} else if !errors.Is(err, sql.ErrNoRows) {
		h.log.Error("checking for existing lead", "error", err)
		WriteInternalError(w, "Failed to create lead")
		return
	}

	lead, err := h.queries.CreateLead(ctx, store.CreateLeadParams{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Course:    req.Course,
		Message:   h.sanitize.Sanitize(req.Message),
		Source:    model.SourceWebsite,
	})
	if err != nil {
		// The unique index can still fire under concurrent submits.
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			WriteConflict(w, "duplicate_email", "A lead with this email already exists")
			return
		}
		h.log.Error("creating lead", "error", err)
		WriteInternalError(w, "Failed to create lead")
		return
	}

	// Notification is best effort and must never delay the response.
	if h.notifier != nil {
		go func(l store.Lead) {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			if err := h.notifier.NotifyNewLead(ctx, l); err != nil {
				h.log.Error("sending new lead notification", "lead_id", l.ID, "error", err)
			}
		}(lead)
	}

	WriteCreated(w, storeLeadToResponse(lead))
}

// ListLeads handles GET /api/leads. Session protected.
func (h *Handler) ListLeads(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	leads, err := h.queries.ListLeads(ctx, store.ListLeadsParams{
		Status: r.URL.Query().Get("status"),
		Course: r.URL.Query().Get("course"),
	})
	if err != nil {
		h.log.Error("listing leads", "error", err)
		WriteInternalError(w, "Failed to list leads")
		return
	}

	responses := make([]LeadResponse, 0, len(leads))
	for _, l := range leads {
		responses = append(responses, storeLeadToResponse(l))
	}

	WriteSuccess(w, responses, &Meta{Total: int64(len(responses))})
}

// GetLead handles GET /api/leads/{id}. Returns the lead with its notes
// and their author details.
func (h *Handler) GetLead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		WriteBadRequest(w, "Invalid lead ID", nil)
		return
	}

	lead, err := h.queries.GetLead(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			WriteNotFound(w, "Lead not found")
			return
		}
		h.log.Error("fetching lead", "lead_id", id, "error", err)
		WriteInternalError(w, "Failed to fetch lead")
		return
	}

	notes, err := h.queries.ListNotesByLead(ctx, id)
	if err != nil {
		h.log.Error("listing notes", "lead_id", id, "error", err)
		WriteInternalError(w, "Failed to fetch lead")
		return
	}

	detail := LeadDetailResponse{
		LeadResponse: storeLeadToResponse(lead),
		Notes:        make([]NoteResponse, 0, len(notes)),
	}
	for _, n := range notes {
		detail.Notes = append(detail.Notes, storeNoteToResponse(n))
	}

	WriteSuccess(w, detail, nil)
}

// UpdateLead handles PUT /api/leads/{id}. Partial update: only fields
// present in the body are applied.
func (h *Handler) UpdateLead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		WriteBadRequest(w, "Invalid lead ID", nil)
		return
	}

	var req UpdateLeadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid JSON body", nil)
		return
	}

	lead, err := h.queries.GetLead(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			WriteNotFound(w, "Lead not found")
			return
		}
		h.log.Error("fetching lead", "lead_id", id, "error", err)
		WriteInternalError(w, "Failed to update lead")
		return
	}

	params := store.UpdateLeadParams{
		ID:         lead.ID,
		FirstName:  lead.FirstName,
		LastName:   lead.LastName,
		Email:      lead.Email,
		Phone:      lead.Phone,
		Course:     lead.Course,
		Message:    lead.Message,
		Source:     lead.Source,
		Status:     lead.Status,
		AssignedTo: lead.AssignedTo,
	}

	if req.Status != nil {
		if !model.IsValidStatus(*req.Status) {
			WriteBadRequest(w, "Invalid status", map[string]string{
				"status": "Must be one of: " + strings.Join(model.ValidStatuses(), ", "),
			})
			return
		}
		params.Status = *req.Status
	}
	if req.Course != nil {
		params.Course = strings.TrimSpace(*req.Course)
	}
	if req.Message != nil {
		params.Message = h.sanitize.Sanitize(*req.Message)
	}
	if req.AssignedTo.Set {
		if req.AssignedTo.Valid {
			if _, err := h.queries.GetUser(ctx, req.AssignedTo.Value); err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					WriteBadRequest(w, "Assigned user does not exist", nil)
					return
				}
				h.log.Error("checking assignee", "user_id", req.AssignedTo.Value, "error", err)
				WriteInternalError(w, "Failed to update lead")
				return
			}
			params.AssignedTo = sql.NullInt64{Int64: req.AssignedTo.Value, Valid: true}
		} else {
			params.AssignedTo = sql.NullInt64{}
		}
	}

	updated, err := h.queries.UpdateLead(ctx, params)
	if err != nil {
		h.log.Error("updating lead", "lead_id", id, "error", err)
		WriteInternalError(w, "Failed to update lead")
		return
	}

	WriteSuccess(w, storeLeadToResponse(updated), nil)
}

// CreateNoteRequest represents the request body for adding a note.
type CreateNoteRequest struct {
	Text   string `json:"text"`
	UserID int64  `json:"userId"`
}

// CreateNote handles POST /api/leads/{id}/notes.
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	leadID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		WriteBadRequest(w, "Invalid lead ID", nil)
		return
	}

	var req CreateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid JSON body", nil)
		return
	}

	req.Text = strings.TrimSpace(req.Text)
	if req.Text == "" || req.UserID == 0 {
		WriteBadRequest(w, "Text and userId are required", nil)
		return
	}

	if _, err := h.queries.GetLead(ctx, leadID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			WriteNotFound(w, "Lead not found")
			return
		}
		h.log.Error("fetching lead", "lead_id", leadID, "error", err)
		WriteInternalError(w, "Failed to add note")
		return
	}

	author, err := h.queries.GetNoteAuthor(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			WriteNotFound(w, "User not found")
			return
		}
		h.log.Error("fetching note author", "user_id", req.UserID, "error", err)
		WriteInternalError(w, "Failed to add note")
		return
	}

	note, err := h.queries.CreateNote(ctx, store.CreateNoteParams{
		LeadID: leadID,
		UserID: req.UserID,
		Text:   h.sanitize.Sanitize(req.Text),
	})
	if err != nil {
		h.log.Error("creating note", "lead_id", leadID, "error", err)
		WriteInternalError(w, "Failed to add note")
		return
	}

	WriteCreated(w, NoteResponse{
		ID:        note.ID,
		Text:      note.Text,
		CreatedAt: note.CreatedAt,
		Author: AuthorResponse{
			ID:    author.ID,
			Name:  author.Name,
			Email: author.Email,
		},
	})
}
