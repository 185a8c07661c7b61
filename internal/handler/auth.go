// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/enrollhq/crm/internal/auth"
	"github.com/enrollhq/crm/internal/middleware"
	"github.com/enrollhq/crm/internal/render"
)

// LoginForm renders the login page. Already-authenticated users are
// sent straight to the dashboard.
func (h *Handler) LoginForm(w http.ResponseWriter, r *http.Request) {
	if userID := h.sessionManager.GetInt64(r.Context(), middleware.SessionKeyUserID); userID > 0 {
		if _, err := h.queries.GetUser(r.Context(), userID); err == nil {
			http.Redirect(w, r, RouteCRM, http.StatusSeeOther)
			return
		}
	}

	h.render(w, r, "auth/login", render.TemplateData{
		Title: "Sign In",
	})
}

// Login handles the login form submission.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.flashError(w, r, RouteLogin, "Invalid form data")
		return
	}

	email := r.FormValue("email")
	password := r.FormValue("password")

	if email == "" || password == "" {
		h.flashError(w, r, RouteLogin, "Email and password are required")
		return
	}

	user, err := h.queries.GetUserByEmail(r.Context(), email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			h.log.Debug("login attempt for non-existent user", "email", email)
		} else {
			h.log.Error("database error during login", "error", err)
		}
		// Same message whether the account exists or not
		h.flashError(w, r, RouteLogin, "Invalid email or password")
		return
	}

	valid, err := auth.CheckPassword(password, user.PasswordHash)
	if err != nil || !valid {
		if err != nil {
			h.log.Error("password check error", "error", err)
		}
		h.flashError(w, r, RouteLogin, "Invalid email or password")
		return
	}

	// Re-hash if the stored hash uses outdated parameters
	if auth.NeedsRehash(user.PasswordHash) {
		if newHash, err := auth.HashPassword(password); err == nil {
			if err := h.queries.UpdateUserPassword(r.Context(), user.ID, newHash); err != nil {
				h.log.Error("failed to re-hash password", "error", err, "user_id", user.ID)
			}
		}
	}

	if err := h.queries.UpdateUserLastLogin(r.Context(), user.ID, time.Now()); err != nil {
		// Don't block login on this error
		h.log.Error("failed to update last login time", "error", err, "user_id", user.ID)
	}

	// Regenerate session ID to prevent session fixation
	if err := h.sessionManager.RenewToken(r.Context()); err != nil {
		h.serverError(w, "renewing session token", err)
		return
	}
	h.sessionManager.Put(r.Context(), middleware.SessionKeyUserID, user.ID)

	h.log.Info("user signed in", "user_id", user.ID, "email", user.Email)
	http.Redirect(w, r, RouteCRM, http.StatusSeeOther)
}

// Logout destroys the session and redirects to the login page.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessionManager.Destroy(r.Context()); err != nil {
		h.log.Error("destroying session", "error", err)
	}
	http.Redirect(w, r, RouteLogin, http.StatusSeeOther)
}
