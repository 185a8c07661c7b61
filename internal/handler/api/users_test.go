package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/enrollhq/crm/internal/middleware"
	"github.com/enrollhq/crm/internal/model"
	"github.com/enrollhq/crm/internal/store"
)

// asUser attaches a user to the request context the way LoadUser does.
func asUser(r *http.Request, u store.User) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), middleware.ContextKeyUser, u))
}

func TestListUsers(t *testing.T) {
	db, h := testSetup(t)
	createTestUser(t, db, "admin@example.com", model.RoleAdmin)
	createTestUser(t, db, "staff@example.com", model.RoleStaff)

	rec := httptest.NewRecorder()
	h.ListUsers(rec, newGetRequest(t, "/api/users", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var users []UserResponse
	decodeData(t, rec, &users)
	require.Len(t, users, 2)
	assert.Equal(t, "staff@example.com", users[0].Email, "newest user first")
	assert.NotContains(t, rec.Body.String(), "argon2id", "password hashes must never be exposed")
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestDeleteUser(t *testing.T) {
	db, h := testSetup(t)
	admin := createTestUser(t, db, "admin@example.com", model.RoleAdmin)
	staff := createTestUser(t, db, "staff@example.com", model.RoleStaff)

	id := strconv.FormatInt(staff.ID, 10)
	rec := httptest.NewRecorder()
	req := asUser(newDeleteRequest(t, "/api/users/"+id, map[string]string{"id": id}), admin)
	h.DeleteUser(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	_, err := store.New(db).GetUser(context.Background(), staff.ID)
	assert.Error(t, err)
}

func TestDeleteUser_SelfDeleteBlocked(t *testing.T) {
	db, h := testSetup(t)
	admin := createTestUser(t, db, "admin@example.com", model.RoleAdmin)

	id := strconv.FormatInt(admin.ID, 10)
	rec := httptest.NewRecorder()
	req := asUser(newDeleteRequest(t, "/api/users/"+id, map[string]string{"id": id}), admin)
	h.DeleteUser(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "your own account")

	// The account still exists.
	_, err := store.New(db).GetUser(context.Background(), admin.ID)
	assert.NoError(t, err)
}

func TestDeleteUser_Errors(t *testing.T) {
	db, h := testSetup(t)
	admin := createTestUser(t, db, "admin@example.com", model.RoleAdmin)

	rec := httptest.NewRecorder()
	h.DeleteUser(rec, asUser(newDeleteRequest(t, "/api/users/abc", map[string]string{"id": "abc"}), admin))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.DeleteUser(rec, asUser(newDeleteRequest(t, "/api/users/999", map[string]string{"id": "999"}), admin))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
