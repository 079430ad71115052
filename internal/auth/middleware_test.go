package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMiddleware(t *testing.T) (*Middleware, *PasetoService, *fakeUserStore) {
	t.Helper()

	tokens, err := NewPasetoService(testSecret())
	require.NoError(t, err)

	store := newFakeUserStore()
	return NewMiddleware(tokens, store), tokens, store
}

// echoIdentity records whether an identity was resolved for the request
func echoIdentity(sawUser *bool, gotID *uuid.UUID) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id, ok := GetUserIDFromContext(r.Context()); ok {
			*sawUser = true
			*gotID = id
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthenticate_NoHeaderIsAnonymous(t *testing.T) {
	mw, _, _ := newTestMiddleware(t)

	var sawUser bool
	var gotID uuid.UUID
	handler := mw.Authenticate(echoIdentity(&sawUser, &gotID))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, sawUser, "anonymous request must carry no identity")
}

func TestAuthenticate_MalformedPrefixIsAnonymous(t *testing.T) {
	mw, tokens, _ := newTestMiddleware(t)

	token, err := tokens.CreateToken(uuid.New(), time.Minute)
	require.NoError(t, err)

	// The prefix is case-sensitive and must include the space
	for _, header := range []string{
		"bearer " + token,
		"BEARER " + token,
		"Bearer" + token,
		"Token " + token,
		"Bearer ",
	} {
		var sawUser bool
		var gotID uuid.UUID
		handler := mw.Authenticate(echoIdentity(&sawUser, &gotID))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", header)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code, "header %q", header)
		assert.False(t, sawUser, "header %q must be treated as anonymous", header)
	}
}

func TestAuthenticate_ValidToken(t *testing.T) {
	mw, tokens, _ := newTestMiddleware(t)

	userID := uuid.New()
	token, err := tokens.CreateToken(userID, time.Minute)
	require.NoError(t, err)

	var sawUser bool
	var gotID uuid.UUID
	handler := mw.Authenticate(echoIdentity(&sawUser, &gotID))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, sawUser)
	assert.Equal(t, userID, gotID)
}

func TestAuthenticate_InvalidTokenRejected(t *testing.T) {
	mw, _, _ := newTestMiddleware(t)

	var sawUser bool
	var gotID uuid.UUID
	handler := mw.Authenticate(echoIdentity(&sawUser, &gotID))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, sawUser)
}

func TestAuthenticate_ExpiredTokenRejected(t *testing.T) {
	mw, tokens, _ := newTestMiddleware(t)

	token, err := tokens.CreateToken(uuid.New(), -time.Second)
	require.NoError(t, err)

	var sawUser bool
	var gotID uuid.UUID
	handler := mw.Authenticate(echoIdentity(&sawUser, &gotID))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, sawUser)
}

func TestRequireUser(t *testing.T) {
	mw, _, _ := newTestMiddleware(t)

	handler := mw.RequireUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// Anonymous
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Identified
	ctx := context.WithValue(context.Background(), UserIDContextKey, uuid.New())
	req = httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireAdmin(t *testing.T) {
	mw, _, store := newTestMiddleware(t)
	ctx := context.Background()

	admin, err := store.Create(ctx, "admin@x.com", "hash")
	require.NoError(t, err)
	regular, err := store.Create(ctx, "user@x.com", "hash")
	require.NoError(t, err)

	handler := mw.RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	serve := func(id uuid.UUID) int {
		reqCtx := context.WithValue(context.Background(), UserIDContextKey, id)
		req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(reqCtx)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, serve(admin.ID))
	assert.Equal(t, http.StatusForbidden, serve(regular.ID))
	// An id the store has never seen is not a distinct error, just not admin
	assert.Equal(t, http.StatusForbidden, serve(uuid.New()))

	// Anonymous never reaches the role check
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
