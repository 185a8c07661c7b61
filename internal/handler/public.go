// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"

	"github.com/enrollhq/crm/internal/model"
	"github.com/enrollhq/crm/internal/render"
)

// HomeData is the template data for the public landing page.
type HomeData struct {
	Courses []string
}

// Home renders the public landing page with the lead intake form.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != RouteRoot {
		http.NotFound(w, r)
		return
	}

	h.render(w, r, "public/home", render.TemplateData{
		Title: "Apply Now",
		Data:  HomeData{Courses: model.Courses()},
	})
}

// Thanks renders the confirmation page shown after a successful inquiry.
func (h *Handler) Thanks(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "public/thanks", render.TemplateData{
		Title: "Thank You",
	})
}
