// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/enrollhq/crm/internal/auth"
	"github.com/enrollhq/crm/internal/middleware"
	"github.com/enrollhq/crm/internal/model"
	"github.com/enrollhq/crm/internal/render"
	"github.com/enrollhq/crm/internal/store"
	"github.com/enrollhq/crm/internal/version"
)

// recentLeadCount is how many leads the dashboard overview shows.
const recentLeadCount = 8

// StatusCount pairs a lead status with its lead count.
type StatusCount struct {
	Status string
	Count  int64
}

// DashboardData is the template data for the overview page.
type DashboardData struct {
	TotalLeads     int64
	TotalUsers     int64
	StatusCounts   []StatusCount
	ConversionRate float64
	RecentLeads    []store.Lead
}

// Dashboard renders the overview page. All stats are computed
// server-side.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	totalLeads, err := h.queries.CountLeads(ctx)
	if err != nil {
		h.serverError(w, "counting leads", err)
		return
	}

	totalUsers, err := h.queries.CountUsers(ctx)
	if err != nil {
		h.serverError(w, "counting users", err)
		return
	}

	byStatus, err := h.queries.CountLeadsByStatus(ctx)
	if err != nil {
		h.serverError(w, "counting leads by status", err)
		return
	}

	// Fixed status order, zeroes included
	counts := make([]StatusCount, 0, len(model.ValidStatuses()))
	for _, s := range model.ValidStatuses() {
		counts = append(counts, StatusCount{Status: s, Count: byStatus[s]})
	}

	var conversionRate float64
	if totalLeads > 0 {
		conversionRate = float64(byStatus[model.StatusEnrolled]) / float64(totalLeads) * 100
	}

	recent, err := h.queries.ListLeads(ctx, store.ListLeadsParams{Limit: recentLeadCount})
	if err != nil {
		h.serverError(w, "listing recent leads", err)
		return
	}

	h.render(w, r, "crm/dashboard", render.TemplateData{
		Title: "Dashboard",
		User:  middleware.GetUser(r),
		Data: DashboardData{
			TotalLeads:     totalLeads,
			TotalUsers:     totalUsers,
			StatusCounts:   counts,
			ConversionRate: conversionRate,
			RecentLeads:    recent,
		},
	})
}

// LeadsData is the template data for the lead list page.
type LeadsData struct {
	Leads    []store.Lead
	Statuses []string
	Courses  []string
}

// Leads renders the lead list. Filtering, sorting and CSV export run
// client-side against the full table.
func (h *Handler) Leads(w http.ResponseWriter, r *http.Request) {
	leads, err := h.queries.ListLeads(r.Context(), store.ListLeadsParams{})
	if err != nil {
		h.serverError(w, "listing leads", err)
		return
	}

	h.render(w, r, "crm/leads", render.TemplateData{
		Title: "Leads",
		User:  middleware.GetUser(r),
		Data: LeadsData{
			Leads:    leads,
			Statuses: model.ValidStatuses(),
			Courses:  model.Courses(),
		},
	})
}

// LeadDetailData is the template data for the lead detail page.
type LeadDetailData struct {
	Lead     store.Lead
	Notes    []store.NoteWithAuthor
	Users    []store.User
	Statuses []string
	Courses  []string
}

// LeadDetail renders a single lead with its notes and edit forms.
func (h *Handler) LeadDetail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	lead, err := h.queries.GetLead(ctx, id)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	notes, err := h.queries.ListNotesByLead(ctx, id)
	if err != nil {
		h.serverError(w, "listing notes", err)
		return
	}

	users, err := h.queries.ListUsers(ctx)
	if err != nil {
		h.serverError(w, "listing users", err)
		return
	}

	h.render(w, r, "crm/lead_detail", render.TemplateData{
		Title: lead.FirstName + " " + lead.LastName,
		User:  middleware.GetUser(r),
		Data: LeadDetailData{
			Lead:     lead,
			Notes:    notes,
			Users:    users,
			Statuses: model.ValidStatuses(),
			Courses:  model.Courses(),
		},
	})
}

// UsersData is the template data for the user management page.
type UsersData struct {
	Users         []store.User
	CurrentUserID int64
	Roles         []string
}

// Users renders the user management page. Admin only.
func (h *Handler) Users(w http.ResponseWriter, r *http.Request) {
	users, err := h.queries.ListUsers(r.Context())
	if err != nil {
		h.serverError(w, "listing users", err)
		return
	}

	h.render(w, r, "crm/users", render.TemplateData{
		Title: "Users",
		User:  middleware.GetUser(r),
		Data: UsersData{
			Users:         users,
			CurrentUserID: middleware.GetUserID(r),
			Roles:         model.ValidRoles,
		},
	})
}

// CreateUser handles the new-account form on the user management page.
// Admin only.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.flashError(w, r, RouteCRMUsers, "Invalid form data")
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")
	role := r.FormValue("role")

	if name == "" || email == "" || password == "" {
		h.flashError(w, r, RouteCRMUsers, "Name, email and password are required")
		return
	}
	if !model.IsValidRole(role) {
		h.flashError(w, r, RouteCRMUsers, "Invalid role")
		return
	}
	if len(password) < 8 {
		h.flashError(w, r, RouteCRMUsers, "Password must be at least 8 characters")
		return
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		h.serverError(w, "hashing password", err)
		return
	}

	if _, err := h.queries.CreateUser(r.Context(), store.CreateUserParams{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			h.flashError(w, r, RouteCRMUsers, "A user with this email already exists")
			return
		}
		h.serverError(w, "creating user", err)
		return
	}

	h.log.Info("user created", "email", email, "role", role, "by", middleware.GetUserEmail(r))
	h.flashSuccess(w, r, RouteCRMUsers, "User created")
}

// SettingsData is the template data for the settings page.
type SettingsData struct {
	Version              *version.Info
	Environment          string
	BaseURL              string
	NotificationsEnabled bool
	DigestEnabled        bool
	DigestSchedule       string
	SenderEmail          string
	AdminEmail           string
}

// Settings renders the static settings panel.
func (h *Handler) Settings(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "crm/settings", render.TemplateData{
		Title: "Settings",
		User:  middleware.GetUser(r),
		Data: SettingsData{
			Version:              h.versionInfo,
			Environment:          h.cfg.Env,
			BaseURL:              h.cfg.BaseURL,
			NotificationsEnabled: h.cfg.NotificationsEnabled(),
			DigestEnabled:        h.cfg.DigestEnabled(),
			DigestSchedule:       h.cfg.DigestSchedule,
			SenderEmail:          h.cfg.SenderEmail,
			AdminEmail:           h.cfg.AdminEmail,
		},
	})
}
