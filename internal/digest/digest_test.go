package digest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/enrollhq/crm/internal/config"
	"github.com/enrollhq/crm/internal/mailer"
	"github.com/enrollhq/crm/internal/store"
	"github.com/enrollhq/crm/internal/testutil"
)

func TestRun_SendsDigest(t *testing.T) {
	db := testutil.TestMemoryDB(t)
	ctx := context.Background()

	q := store.New(db)
	for _, email := range []string{"a@example.com", "b@example.com"} {
		_, err := q.CreateLead(ctx, store.CreateLeadParams{
			FirstName: "Jane",
			LastName:  "Doe",
			Email:     email,
			Phone:     "123",
			Course:    "Data Science",
			Source:    "website",
		})
		require.NoError(t, err)
	}

	var got mailer.Message
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"id":"em_1"}`))
	}))
	defer srv.Close()

	cfg := &config.Config{AutosendAPIKey: "key", SenderEmail: "noreply@school.edu"}
	m := mailer.New(cfg, testutil.TestLoggerSilent(), mailer.WithEndpoint(srv.URL))

	d := New(db, m, "admin@school.edu", "0 8 * * *", testutil.TestLoggerSilent())
	require.NoError(t, d.Run(ctx))

	assert.Equal(t, "admin@school.edu", got.To.Email)
	assert.Contains(t, got.Subject, "2 new lead(s)")
	assert.Contains(t, got.Text, "a@example.com")
	assert.Contains(t, got.Text, "(Data Science)")
	assert.Equal(t, []string{"lead-digest"}, got.Categories)
}

func TestRun_SkipsWhenNoLeads(t *testing.T) {
	db := testutil.TestMemoryDB(t)

	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	cfg := &config.Config{AutosendAPIKey: "key", SenderEmail: "noreply@school.edu"}
	m := mailer.New(cfg, testutil.TestLoggerSilent(), mailer.WithEndpoint(srv.URL))

	d := New(db, m, "admin@school.edu", "0 8 * * *", testutil.TestLoggerSilent())
	require.NoError(t, d.Run(context.Background()))
	assert.False(t, called, "no mail should be sent when there are no new leads")
}

func TestRun_SkipsWhenMailerDisabled(t *testing.T) {
	db := testutil.TestMemoryDB(t)

	m := mailer.New(&config.Config{}, testutil.TestLoggerSilent())
	d := New(db, m, "admin@school.edu", "0 8 * * *", testutil.TestLoggerSilent())
	require.NoError(t, d.Run(context.Background()))
}
