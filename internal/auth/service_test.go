package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couponvault/couponvault/internal/user"
)

// fakeUserStore implements UserStore in memory with the same semantics the
// Postgres repository provides: first user ever created is admin, duplicate
// emails are rejected.
type fakeUserStore struct {
	mu    sync.Mutex
	users map[string]*user.User // keyed by email
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[string]*user.User)}
}

func (f *fakeUserStore) Create(_ context.Context, email, passwordHash string) (*user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.users[email]; ok {
		return nil, user.ErrDuplicateEmail
	}

	u := &user.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: passwordHash,
		IsAdmin:      len(f.users) == 0,
		CreatedAt:    time.Now(),
	}
	f.users[email] = u
	return u, nil
}

func (f *fakeUserStore) GetByEmail(_ context.Context, email string) (*user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[email]
	if !ok {
		return nil, user.ErrNotFound
	}
	return u, nil
}

func (f *fakeUserStore) GetByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, user.ErrNotFound
}

func (f *fakeUserStore) IsAdmin(ctx context.Context, id uuid.UUID) (bool, error) {
	u, err := f.GetByID(ctx, id)
	if err != nil {
		return false, nil
	}
	return u.IsAdmin, nil
}

func newTestService(t *testing.T) (*Service, *PasetoService, *fakeUserStore) {
	t.Helper()

	tokens, err := NewPasetoService(testSecret())
	require.NoError(t, err)

	store := newFakeUserStore()
	return NewService(store, tokens, 3*time.Minute), tokens, store
}

func TestRegisterThenLogin(t *testing.T) {
	svc, tokens, _ := newTestService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, "a@x.com", "pw1")
	require.NoError(t, err)

	token, err := svc.Login(ctx, "a@x.com", "pw1")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := tokens.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, u.ID.String(), claims.UserID, "token subject must be the registered user's id")
}

func TestRegister_FirstUserBecomesAdmin(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.Register(ctx, "a@x.com", "pw1")
	require.NoError(t, err)
	assert.True(t, first.IsAdmin)

	second, err := svc.Register(ctx, "b@x.com", "pw2")
	require.NoError(t, err)
	assert.False(t, second.IsAdmin)

	third, err := svc.Register(ctx, "c@x.com", "pw3")
	require.NoError(t, err)
	assert.False(t, third.IsAdmin)
}

func TestRegister_IdempotentForExistingEmail(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	original, err := svc.Register(ctx, "a@x.com", "pw1")
	require.NoError(t, err)

	// Same email, different password: no error, same account, password kept
	again, err := svc.Register(ctx, "a@x.com", "different")
	require.NoError(t, err)
	assert.Equal(t, original.ID, again.ID)

	token, err := svc.Login(ctx, "a@x.com", "pw1")
	require.NoError(t, err)
	assert.NotEmpty(t, token, "original password must still work")

	token, err = svc.Login(ctx, "a@x.com", "different")
	require.NoError(t, err)
	assert.Empty(t, token, "second registration must not have changed the password")
}

func TestRegister_Validation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "", "pw1")
	assert.ErrorIs(t, err, ErrEmailRequired)

	_, err = svc.Register(ctx, "not-an-email", "pw1")
	assert.ErrorIs(t, err, ErrInvalidEmailFormat)

	_, err = svc.Register(ctx, "a@x.com", "")
	assert.ErrorIs(t, err, ErrPasswordRequired)
}

func TestLogin_FailuresAreIndistinguishable(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "a@x.com", "pw1")
	require.NoError(t, err)

	// Unknown account and wrong password must look identical to the caller
	unknown, err := svc.Login(ctx, "nobody@x.com", "pw1")
	require.NoError(t, err)

	wrongPassword, err := svc.Login(ctx, "a@x.com", "nope")
	require.NoError(t, err)

	assert.Equal(t, unknown, wrongPassword)
	assert.Empty(t, unknown)
}

func TestCurrentUser(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, "a@x.com", "pw1")
	require.NoError(t, err)

	got, err := svc.CurrentUser(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, u.Email, got.Email)

	// Unknown subject resolves to nil, not an error
	got, err = svc.CurrentUser(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, got)
}
