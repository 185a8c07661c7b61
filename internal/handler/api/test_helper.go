// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	_ "github.com/mattn/go-sqlite3"

	"github.com/enrollhq/crm/internal/store"
	"github.com/enrollhq/crm/internal/testutil"
)

// testSetup creates a test database and API handler for testing.
func testSetup(t *testing.T) (*sql.DB, *Handler) {
	t.Helper()
	db := testutil.TestMemoryDB(t)
	return db, NewHandler(db, testutil.TestLoggerSilent(), nil)
}

// recordingNotifier captures notified leads for assertions.
type recordingNotifier struct {
	mu    sync.Mutex
	leads []store.Lead
	done  chan struct{}
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{done: make(chan struct{}, 8)}
}

func (n *recordingNotifier) NotifyNewLead(_ context.Context, lead store.Lead) error {
	n.mu.Lock()
	n.leads = append(n.leads, lead)
	n.mu.Unlock()
	n.done <- struct{}{}
	return nil
}

func (n *recordingNotifier) notified() []store.Lead {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]store.Lead(nil), n.leads...)
}

// createTestUser inserts a user directly and returns it.
func createTestUser(t *testing.T, db *sql.DB, email, role string) store.User {
	t.Helper()
	u, err := store.New(db).CreateUser(context.Background(), store.CreateUserParams{
		Name:         "Test User",
		Email:        email,
		PasswordHash: "$argon2id$v=19$m=19456,t=2,p=1$c2FsdA$aGFzaA",
		Role:         role,
	})
	if err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// createTestLead inserts a lead directly and returns it.
func createTestLead(t *testing.T, db *sql.DB, email string) store.Lead {
	t.Helper()
	l, err := store.New(db).CreateLead(context.Background(), store.CreateLeadParams{
		FirstName: "Jane",
		LastName:  "Doe",
		Email:     email,
		Phone:     "+1 555 0100",
		Course:    "Data Science",
		Message:   "Interested in the fall intake.",
		Source:    "website",
	})
	if err != nil {
		t.Fatalf("failed to create test lead: %v", err)
	}
	return l
}

// requestWithURLParams adds chi URL parameters to a request.
func requestWithURLParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// newJSONRequest creates an HTTP request with JSON body and optional URL params.
func newJSONRequest(t *testing.T, method, path string, body string, params map[string]string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if len(params) > 0 {
		req = requestWithURLParams(req, params)
	}
	return req
}

// newGetRequest creates an HTTP GET request with optional URL params.
func newGetRequest(t *testing.T, path string, params map[string]string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if len(params) > 0 {
		req = requestWithURLParams(req, params)
	}
	return req
}

// newDeleteRequest creates an HTTP DELETE request with optional URL params.
func newDeleteRequest(t *testing.T, path string, params map[string]string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodDelete, path, nil)
	if len(params) > 0 {
		req = requestWithURLParams(req, params)
	}
	return req
}
