package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coolwednesday/bookstore-go-app/internal/apperr"
	"github.com/coolwednesday/bookstore-go-app/internal/models"
)

type stubAuthenticator struct {
	users map[string]*models.User
}

func (s *stubAuthenticator) Authenticate(_ context.Context, token string) (*models.User, error) {
	if user, ok := s.users[token]; ok {
		return user, nil
	}
	return nil, apperr.Unauthenticated("invalid or expired session token")
}

func okHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func TestAuthMiddleware(t *testing.T) {
	auth := &stubAuthenticator{users: map[string]*models.User{
		"good-token": {ID: 7, Email: "reader@example.com", Roles: []string{models.RoleUser}},
	}}

	router := mux.NewRouter()
	router.Use(AuthMiddleware(auth))
	router.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
		user := UserFromContext(r.Context())
		require.NotNil(t, user)
		assert.Equal(t, int64(7), user.ID)
		w.WriteHeader(http.StatusOK)
	})

	// valid token reaches the handler with the user in context
	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// missing header
	req = httptest.NewRequest("GET", "/me", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// wrong scheme
	req = httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Basic good-token")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// unknown token
	req = httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer bad-token")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAdmin(t *testing.T) {
	auth := &stubAuthenticator{users: map[string]*models.User{
		"user-token":  {ID: 1, Roles: []string{models.RoleUser}},
		"admin-token": {ID: 2, Roles: []string{models.RoleUser, models.RoleAdmin}},
	}}

	router := mux.NewRouter()
	router.Use(AuthMiddleware(auth))
	router.Handle("/admin", RequireAdmin(http.HandlerFunc(okHandler)))

	req := httptest.NewRequest("GET", "/admin", nil)
	req.Header.Set("Authorization", "Bearer admin-token")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest("GET", "/admin", nil)
	req.Header.Set("Authorization", "Bearer user-token")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	// generated when absent
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get("X-Request-ID"))

	// honored when supplied
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, "req-123", seen)
	assert.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))
}

func TestRecoverMiddleware(t *testing.T) {
	handler := RecoverMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())
}
