package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSecret() []byte {
	return []byte("0123456789abcdef0123456789abcdef")
}

func TestNewPasetoService_KeyLength(t *testing.T) {
	_, err := NewPasetoService([]byte("too short"))
	assert.Error(t, err)

	_, err = NewPasetoService(testSecret())
	assert.NoError(t, err)
}

func TestCreateAndVerifyToken(t *testing.T) {
	svc, err := NewPasetoService(testSecret())
	require.NoError(t, err)

	userID := uuid.New()
	token, err := svc.CreateToken(userID, 3*time.Minute)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.WithinDuration(t, time.Now().Add(3*time.Minute), claims.ExpiresAt, 5*time.Second)
}

func TestVerifyToken_Expired(t *testing.T) {
	svc, err := NewPasetoService(testSecret())
	require.NoError(t, err)

	// Issued already past its expiry; correct signature must not save it
	token, err := svc.CreateToken(uuid.New(), -time.Second)
	require.NoError(t, err)

	claims, err := svc.VerifyToken(token)
	assert.Error(t, err)
	assert.Nil(t, claims)
}

func TestVerifyToken_WrongKey(t *testing.T) {
	svc, err := NewPasetoService(testSecret())
	require.NoError(t, err)

	other, err := NewPasetoService([]byte("fedcba9876543210fedcba9876543210"))
	require.NoError(t, err)

	token, err := svc.CreateToken(uuid.New(), 3*time.Minute)
	require.NoError(t, err)

	_, err = other.VerifyToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyToken_Garbage(t *testing.T) {
	svc, err := NewPasetoService(testSecret())
	require.NoError(t, err)

	_, err = svc.VerifyToken("v4.local.not-a-real-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
