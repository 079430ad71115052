package coupon

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var ErrInvalidExpiry = errors.New("expires_in_days must be positive")

// Service holds the ledger business rules. Role enforcement for the
// admin-only operations lives in the authorization middleware; the service
// assumes its caller has already been gated.
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// Create registers a new coupon expiring expiresInDays from now, optionally
// pre-assigned to an owner. Duplicate codes fail with ErrDuplicateCode.
func (s *Service) Create(ctx context.Context, code, description, service string, expiresInDays int, ownerID *uuid.UUID) (*Coupon, error) {
	if expiresInDays <= 0 {
		return nil, ErrInvalidExpiry
	}

	now := time.Now().UTC()
	c := &Coupon{
		ID:          uuid.New(),
		Code:        code,
		Description: description,
		Service:     service,
		ExpiresAt:   now.AddDate(0, 0, expiresInDays),
		OwnerID:     ownerID,
		CreatedAt:   now,
	}

	if err := s.store.Create(ctx, c); err != nil {
		return nil, err
	}

	return c, nil
}

// Get fetches one coupon by code, or nil when it does not exist
func (s *Service) Get(ctx context.Context, code string) (*Coupon, error) {
	c, err := s.store.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return c, nil
}

// List returns all coupons, newest first; activeOnly drops expired ones
func (s *Service) List(ctx context.Context, activeOnly bool) ([]Coupon, error) {
	return s.store.List(ctx, activeOnly)
}

// ListOwned returns the caller's active coupons, newest first
func (s *Service) ListOwned(ctx context.Context, ownerID uuid.UUID) ([]Coupon, error) {
	return s.store.ListOwnedActive(ctx, ownerID)
}

// Claim attempts the atomic ownership transfer. Nil without error means the
// claim did not happen; the caller is told nothing about why.
func (s *Service) Claim(ctx context.Context, code string, userID uuid.UUID) (*Coupon, error) {
	c, err := s.store.Claim(ctx, code, userID)
	if err != nil {
		return nil, fmt.Errorf("claim failed: %w", err)
	}
	return c, nil
}

// Release gives up ownership. False without error means no row changed.
func (s *Service) Release(ctx context.Context, code string, userID uuid.UUID) (bool, error) {
	ok, err := s.store.Release(ctx, code, userID)
	if err != nil {
		return false, fmt.Errorf("release failed: %w", err)
	}
	return ok, nil
}

// Update applies a partial update; false when the code does not exist
func (s *Service) Update(ctx context.Context, code string, patch Patch) (bool, error) {
	if patch.ExpiresInDays != nil && *patch.ExpiresInDays <= 0 {
		return false, ErrInvalidExpiry
	}
	return s.store.Update(ctx, code, patch)
}

// Delete removes a coupon; false when nothing was deleted
func (s *Service) Delete(ctx context.Context, code string) (bool, error) {
	return s.store.Delete(ctx, code)
}
