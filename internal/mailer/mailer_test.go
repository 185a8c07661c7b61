package mailer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/enrollhq/crm/internal/config"
	"github.com/enrollhq/crm/internal/store"
	"github.com/enrollhq/crm/internal/testutil"
)

func testConfig(apiKey string) *config.Config {
	return &config.Config{
		AutosendAPIKey: apiKey,
		SenderEmail:    "noreply@school.edu",
		SenderName:     "Admissions CRM",
		AdminEmail:     "admin@school.edu",
		BaseURL:        "https://crm.school.edu",
	}
}

func testLead() store.Lead {
	return store.Lead{
		ID:        42,
		FirstName: "Jane",
		LastName:  "Doe",
		Email:     "jane@example.com",
		Phone:     "+1 555 0100",
		Course:    "Data Science",
		Message:   "Interested in the fall intake.",
	}
}

func TestSend_SkippedWithoutAPIKey(t *testing.T) {
	m := New(testConfig(""), testutil.TestLoggerSilent())

	result, err := m.Send(context.Background(), Message{
		To:      Address{Email: "x@example.com"},
		Subject: "test",
	})
	require.NoError(t, err)
	assert.True(t, result.Skipped)
	assert.False(t, result.Success)
	assert.False(t, m.Enabled())
}

func TestNotifyNewLead_Payload(t *testing.T) {
	var (
		gotAuth string
		gotBody Message
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"em_123","message":"queued"}`))
	}))
	defer srv.Close()

	m := New(testConfig("key-abc"), testutil.TestLoggerSilent(), WithEndpoint(srv.URL))

	require.NoError(t, m.NotifyNewLead(context.Background(), testLead()))

	assert.Equal(t, "Bearer key-abc", gotAuth)
	assert.Equal(t, "admin@school.edu", gotBody.To.Email)
	assert.Equal(t, "noreply@school.edu", gotBody.From.Email)
	assert.Equal(t, "New lead: Jane Doe", gotBody.Subject)
	assert.Equal(t, "jane@example.com", gotBody.ReplyTo)
	assert.Equal(t, []string{"new-lead", "admin-notification"}, gotBody.Categories)
	assert.Contains(t, gotBody.HTML, "https://crm.school.edu/crm/leads/42")
	assert.Contains(t, gotBody.Text, "Jane Doe")
	assert.Contains(t, gotBody.Text, "+1 555 0100")
	assert.NotEmpty(t, gotBody.HTML)
}

func TestSend_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream broken", http.StatusBadGateway)
	}))
	defer srv.Close()

	m := New(testConfig("key-abc"), testutil.TestLoggerSilent(), WithEndpoint(srv.URL))

	result, err := m.Send(context.Background(), Message{To: Address{Email: "x@example.com"}})
	assert.Error(t, err)
	assert.False(t, result.Success)
}

func TestNotifyNewLead_SkippedWithoutAPIKey(t *testing.T) {
	m := New(testConfig(""), testutil.TestLoggerSilent())
	assert.NoError(t, m.NotifyNewLead(context.Background(), testLead()))
}

func TestNewLeadHTML_EscapesUserInput(t *testing.T) {
	m := New(testConfig("key"), testutil.TestLoggerSilent())

	lead := testLead()
	lead.FirstName = "<b>Jane</b>"
	html := m.newLeadHTML(lead, lead.FirstName)
	assert.NotContains(t, html, "<b>Jane</b>")
	assert.Contains(t, html, "&lt;b&gt;Jane&lt;/b&gt;")
}
