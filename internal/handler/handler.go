// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package handler provides HTTP handlers for the public site and the
// staff dashboard.
package handler

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/alexedwards/scs/v2"

	"github.com/enrollhq/crm/internal/config"
	"github.com/enrollhq/crm/internal/render"
	"github.com/enrollhq/crm/internal/store"
	"github.com/enrollhq/crm/internal/version"
)

// Route constants shared across handlers.
const (
	RouteRoot     = "/"
	RouteLogin    = "/login"
	RouteCRM      = "/crm"
	RouteCRMUsers = "/crm/users"
	RouteCRMLeads = "/crm/leads"
)

// Handler holds shared dependencies for page handlers.
type Handler struct {
	db             *sql.DB
	queries        *store.Queries
	renderer       *render.Renderer
	sessionManager *scs.SessionManager
	cfg            *config.Config
	versionInfo    *version.Info
	log            *slog.Logger
}

// New creates a new page handler.
func New(db *sql.DB, renderer *render.Renderer, sm *scs.SessionManager, cfg *config.Config, vi *version.Info, log *slog.Logger) *Handler {
	return &Handler{
		db:             db,
		queries:        store.New(db),
		renderer:       renderer,
		sessionManager: sm,
		cfg:            cfg,
		versionInfo:    vi,
		log:            log,
	}
}

// render renders a template and reports a 500 on failure.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, name string, data render.TemplateData) {
	if err := h.renderer.Render(w, r, name, data); err != nil {
		h.log.Error("rendering template", "template", name, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// flashError sets an error flash and redirects.
func (h *Handler) flashError(w http.ResponseWriter, r *http.Request, target, message string) {
	h.renderer.SetFlash(r, message, "error")
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// flashSuccess sets a success flash and redirects.
func (h *Handler) flashSuccess(w http.ResponseWriter, r *http.Request, target, message string) {
	h.renderer.SetFlash(r, message, "success")
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// serverError logs the error and replies with a generic 500 page.
func (h *Handler) serverError(w http.ResponseWriter, msg string, err error) {
	h.log.Error(msg, "error", err)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}
