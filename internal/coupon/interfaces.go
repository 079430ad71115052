package coupon

import (
	"context"

	"github.com/google/uuid"
)

// Store owns the atomic ledger operations over coupon rows. Claim and
// Release must be conditional single-statement writes (or equivalently
// locked transactions) with respect to concurrent callers; implementations
// must never do an unguarded read-then-write for them.
type Store interface {
	Create(ctx context.Context, c *Coupon) error
	GetByCode(ctx context.Context, code string) (*Coupon, error)
	List(ctx context.Context, activeOnly bool) ([]Coupon, error)
	ListOwnedActive(ctx context.Context, ownerID uuid.UUID) ([]Coupon, error)
	Claim(ctx context.Context, code string, ownerID uuid.UUID) (*Coupon, error)
	Release(ctx context.Context, code string, ownerID uuid.UUID) (bool, error)
	Update(ctx context.Context, code string, patch Patch) (bool, error)
	Delete(ctx context.Context, code string) (bool, error)
}
