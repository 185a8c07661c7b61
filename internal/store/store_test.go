package store_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/enrollhq/crm/internal/model"
	"github.com/enrollhq/crm/internal/store"
	"github.com/enrollhq/crm/internal/testutil"
)

func newTestQueries(t *testing.T) (*store.Queries, *sql.DB) {
	t.Helper()
	db, cleanup := testutil.TestDB(t)
	t.Cleanup(cleanup)
	return store.New(db), db
}

func createTestUser(t *testing.T, q *store.Queries, email, role string) store.User {
	t.Helper()
	u, err := q.CreateUser(context.Background(), store.CreateUserParams{
		Name:         "Test User",
		Email:        email,
		PasswordHash: "$argon2id$v=19$m=19456,t=2,p=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaGhhc2hoYXNoaGFzaGhhc2hoYXNoaGFzaGhhc2g",
		Role:         role,
	})
	require.NoError(t, err)
	return u
}

func createTestLead(t *testing.T, q *store.Queries, email string) store.Lead {
	t.Helper()
	l, err := q.CreateLead(context.Background(), store.CreateLeadParams{
		FirstName: "Jane",
		LastName:  "Doe",
		Email:     email,
		Phone:     "+1 555 0100",
		Course:    "Data Science",
		Message:   "Interested in the fall intake.",
		Source:    model.SourceWebsite,
	})
	require.NoError(t, err)
	return l
}

func TestCreateUser(t *testing.T) {
	q, _ := newTestQueries(t)
	ctx := context.Background()

	u := createTestUser(t, q, "admin@example.com", model.RoleAdmin)
	assert.NotZero(t, u.ID)
	assert.Equal(t, "admin@example.com", u.Email)
	assert.Equal(t, model.RoleAdmin, u.Role)
	assert.False(t, u.LastLoginAt.Valid)

	// Duplicate email violates the unique constraint.
	_, err := q.CreateUser(ctx, store.CreateUserParams{
		Name:         "Other",
		Email:        "admin@example.com",
		PasswordHash: "x",
		Role:         model.RoleStaff,
	})
	assert.Error(t, err)
}

func TestGetUserByEmail(t *testing.T) {
	q, _ := newTestQueries(t)
	ctx := context.Background()

	created := createTestUser(t, q, "staff@example.com", model.RoleStaff)

	u, err := q.GetUserByEmail(ctx, "staff@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, u.ID)

	_, err = q.GetUserByEmail(ctx, "nobody@example.com")
	assert.True(t, errors.Is(err, sql.ErrNoRows))
}

func TestListUsers_NewestFirst(t *testing.T) {
	q, _ := newTestQueries(t)
	ctx := context.Background()

	createTestUser(t, q, "first@example.com", model.RoleStaff)
	createTestUser(t, q, "second@example.com", model.RoleStaff)

	users, err := q.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "second@example.com", users[0].Email)
	assert.Equal(t, "first@example.com", users[1].Email)
}

func TestDeleteUser(t *testing.T) {
	q, _ := newTestQueries(t)
	ctx := context.Background()

	u := createTestUser(t, q, "gone@example.com", model.RoleStaff)
	require.NoError(t, q.DeleteUser(ctx, u.ID))

	err := q.DeleteUser(ctx, u.ID)
	assert.True(t, errors.Is(err, sql.ErrNoRows))
}

func TestDeleteUser_ClearsLeadAssignment(t *testing.T) {
	q, _ := newTestQueries(t)
	ctx := context.Background()

	u := createTestUser(t, q, "owner@example.com", model.RoleStaff)
	l := createTestLead(t, q, "lead@example.com")

	_, err := q.UpdateLead(ctx, store.UpdateLeadParams{
		ID:         l.ID,
		FirstName:  l.FirstName,
		LastName:   l.LastName,
		Email:      l.Email,
		Phone:      l.Phone,
		Course:     l.Course,
		Message:    l.Message,
		Source:     l.Source,
		Status:     model.StatusContacted,
		AssignedTo: sql.NullInt64{Int64: u.ID, Valid: true},
	})
	require.NoError(t, err)

	require.NoError(t, q.DeleteUser(ctx, u.ID))

	got, err := q.GetLead(ctx, l.ID)
	require.NoError(t, err)
	assert.False(t, got.AssignedTo.Valid, "assignment should be cleared when the user is deleted")
}

func TestCreateLead_Defaults(t *testing.T) {
	q, _ := newTestQueries(t)

	l := createTestLead(t, q, "jane@example.com")
	assert.NotZero(t, l.ID)
	assert.Equal(t, model.StatusNew, l.Status)
	assert.Equal(t, model.SourceWebsite, l.Source)
	assert.False(t, l.AssignedTo.Valid)
	assert.WithinDuration(t, time.Now().UTC(), l.CreatedAt, 5*time.Second)
}

func TestCreateLead_DuplicateEmail(t *testing.T) {
	q, _ := newTestQueries(t)

	createTestLead(t, q, "dup@example.com")
	_, err := q.CreateLead(context.Background(), store.CreateLeadParams{
		FirstName: "John",
		Email:     "dup@example.com",
		Phone:     "+1 555 0101",
		Source:    model.SourceWebsite,
	})
	assert.Error(t, err)
}

func TestListLeads_Filters(t *testing.T) {
	q, _ := newTestQueries(t)
	ctx := context.Background()

	a := createTestLead(t, q, "a@example.com")
	b := createTestLead(t, q, "b@example.com")
	createTestLead(t, q, "c@example.com")

	_, err := q.UpdateLead(ctx, store.UpdateLeadParams{
		ID: a.ID, FirstName: a.FirstName, LastName: a.LastName,
		Email: a.Email, Phone: a.Phone, Course: a.Course,
		Message: a.Message, Source: a.Source, Status: model.StatusEnrolled,
	})
	require.NoError(t, err)
	_, err = q.UpdateLead(ctx, store.UpdateLeadParams{
		ID: b.ID, FirstName: b.FirstName, LastName: b.LastName,
		Email: b.Email, Phone: b.Phone, Course: "Web Development",
		Message: b.Message, Source: b.Source, Status: model.StatusEnrolled,
	})
	require.NoError(t, err)

	all, err := q.ListLeads(ctx, store.ListLeadsParams{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	enrolled, err := q.ListLeads(ctx, store.ListLeadsParams{Status: model.StatusEnrolled})
	require.NoError(t, err)
	assert.Len(t, enrolled, 2)

	combined, err := q.ListLeads(ctx, store.ListLeadsParams{
		Status: model.StatusEnrolled,
		Course: "Web Development",
	})
	require.NoError(t, err)
	require.Len(t, combined, 1)
	assert.Equal(t, b.ID, combined[0].ID)

	limited, err := q.ListLeads(ctx, store.ListLeadsParams{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestListLeads_NewestFirst(t *testing.T) {
	q, _ := newTestQueries(t)

	first := createTestLead(t, q, "older@example.com")
	second := createTestLead(t, q, "newer@example.com")

	leads, err := q.ListLeads(context.Background(), store.ListLeadsParams{})
	require.NoError(t, err)
	require.Len(t, leads, 2)
	assert.Equal(t, second.ID, leads[0].ID)
	assert.Equal(t, first.ID, leads[1].ID)
}

func TestUpdateLead(t *testing.T) {
	q, _ := newTestQueries(t)
	ctx := context.Background()

	l := createTestLead(t, q, "update@example.com")

	updated, err := q.UpdateLead(ctx, store.UpdateLeadParams{
		ID:        l.ID,
		FirstName: "Janet",
		LastName:  l.LastName,
		Email:     l.Email,
		Phone:     l.Phone,
		Course:    l.Course,
		Message:   l.Message,
		Source:    l.Source,
		Status:    model.StatusInterested,
	})
	require.NoError(t, err)
	assert.Equal(t, "Janet", updated.FirstName)
	assert.Equal(t, model.StatusInterested, updated.Status)
	assert.Equal(t, l.CreatedAt, updated.CreatedAt)
}

func TestCountLeadsByStatus(t *testing.T) {
	q, _ := newTestQueries(t)
	ctx := context.Background()

	createTestLead(t, q, "s1@example.com")
	l := createTestLead(t, q, "s2@example.com")
	_, err := q.UpdateLead(ctx, store.UpdateLeadParams{
		ID: l.ID, FirstName: l.FirstName, LastName: l.LastName,
		Email: l.Email, Phone: l.Phone, Course: l.Course,
		Message: l.Message, Source: l.Source, Status: model.StatusRejected,
	})
	require.NoError(t, err)

	counts, err := q.CountLeadsByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[model.StatusNew])
	assert.Equal(t, int64(1), counts[model.StatusRejected])
	_, ok := counts[model.StatusEnrolled]
	assert.False(t, ok, "statuses with no leads should be absent")
}

func TestNotes(t *testing.T) {
	q, _ := newTestQueries(t)
	ctx := context.Background()

	u := createTestUser(t, q, "author@example.com", model.RoleStaff)
	l := createTestLead(t, q, "noted@example.com")

	n1, err := q.CreateNote(ctx, store.CreateNoteParams{
		LeadID: l.ID, UserID: u.ID, Text: "Called, no answer.",
	})
	require.NoError(t, err)
	n2, err := q.CreateNote(ctx, store.CreateNoteParams{
		LeadID: l.ID, UserID: u.ID, Text: "Follow-up scheduled.",
	})
	require.NoError(t, err)

	notes, err := q.ListNotesByLead(ctx, l.ID)
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, n2.ID, notes[0].ID, "notes should be newest first")
	assert.Equal(t, n1.ID, notes[1].ID)
	assert.Equal(t, "Test User", notes[0].AuthorName)
	assert.Equal(t, "author@example.com", notes[0].AuthorEmail)
}

func TestNotes_CascadeOnLeadDelete(t *testing.T) {
	q, _ := newTestQueries(t)
	ctx := context.Background()

	u := createTestUser(t, q, "author@example.com", model.RoleStaff)
	l := createTestLead(t, q, "cascade@example.com")

	_, err := q.CreateNote(ctx, store.CreateNoteParams{
		LeadID: l.ID, UserID: u.ID, Text: "Will be removed with the lead.",
	})
	require.NoError(t, err)

	require.NoError(t, q.DeleteLead(ctx, l.ID))

	n, err := q.CountNotesByLead(ctx, l.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSeed(t *testing.T) {
	q, db := newTestQueries(t)
	ctx := context.Background()

	// A pre-existing account must not survive seeding.
	createTestUser(t, q, "leftover@example.com", model.RoleAdmin)

	require.NoError(t, store.Seed(ctx, db, testutil.TestLoggerSilent()))

	users, err := q.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)

	admin, err := q.GetUserByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, admin.Role)

	staff, err := q.GetUserByEmail(ctx, "staff@example.com")
	require.NoError(t, err)
	assert.Equal(t, model.RoleStaff, staff.Role)

	_, err = q.GetUserByEmail(ctx, "leftover@example.com")
	assert.True(t, errors.Is(err, sql.ErrNoRows))

	// Seeding twice converges on the same two accounts.
	require.NoError(t, store.Seed(ctx, db, testutil.TestLoggerSilent()))
	users, err = q.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}
