package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"

	"github.com/couponvault/couponvault/internal/user"
)

var (
	ErrEmailRequired      = errors.New("email is required")
	ErrPasswordRequired   = errors.New("password is required")
	ErrInvalidEmailFormat = errors.New("invalid email format")
)

// Service handles authentication business logic
type Service struct {
	users         UserStore
	tokenService  TokenService
	tokenDuration time.Duration
}

func NewService(users UserStore, tokenService TokenService, tokenDuration time.Duration) *Service {
	return &Service{
		users:         users,
		tokenService:  tokenService,
		tokenDuration: tokenDuration,
	}
}

// Register creates a new user account. Registration is idempotent: an email
// that already exists returns the existing account unchanged, and the stored
// password is never touched. The first user ever created becomes admin.
func (s *Service) Register(ctx context.Context, email, password string) (*user.User, error) {
	if email == "" {
		return nil, ErrEmailRequired
	}
	if len(email) > 254 {
		return nil, ErrInvalidEmailFormat
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidEmailFormat
	}
	if password == "" {
		return nil, ErrPasswordRequired
	}

	existing, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, user.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	passwordHash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	newUser, err := s.users.Create(ctx, email, passwordHash)
	if err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			// Lost a race with a concurrent registration of the same
			// email; idempotency means we return the winner's account
			return s.users.GetByEmail(ctx, email)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return newUser, nil
}

// Login authenticates a user and returns a bearer token. An unknown email
// and a wrong password both yield an empty token with no error, so login
// responses cannot be used to enumerate accounts.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	if email == "" || password == "" {
		return "", nil
	}

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("failed to get user: %w", err)
	}

	if !VerifyPassword(existing.PasswordHash, password) {
		return "", nil
	}

	token, err := s.tokenService.CreateToken(existing.ID, s.tokenDuration)
	if err != nil {
		return "", fmt.Errorf("failed to create token: %w", err)
	}

	return token, nil
}

// CurrentUser returns the user for a resolved subject id, or nil if the id
// no longer exists in the store.
func (s *Service) CurrentUser(ctx context.Context, id uuid.UUID) (*user.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}
