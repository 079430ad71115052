package auth

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/couponvault/couponvault/internal/user"
)

// TokenService defines the interface for token creation and validation.
// The production implementation is PasetoService (PASETO v4.local).
type TokenService interface {
	CreateToken(userID uuid.UUID, duration time.Duration) (string, error)
	VerifyToken(tokenStr string) (*TokenClaims, error)
}

// UserStore defines the persistence operations the auth layer needs.
// Users are write-once: no update or delete is exposed anywhere.
type UserStore interface {
	Create(ctx context.Context, email, passwordHash string) (*user.User, error)
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	IsAdmin(ctx context.Context, id uuid.UUID) (bool, error)
}
