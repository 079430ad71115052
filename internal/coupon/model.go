package coupon

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound      = errors.New("coupon not found")
	ErrDuplicateCode = errors.New("coupon code already exists")
)

// Coupon is an expiring, exclusively ownable record. Code is the
// human-facing key; OwnerID is nil while unclaimed.
type Coupon struct {
	ID          uuid.UUID  `json:"id"`
	Code        string     `json:"code"`
	Description string     `json:"description"`
	Service     string     `json:"service"`
	ExpiresAt   time.Time  `json:"expires_at"`
	OwnerID     *uuid.UUID `json:"owner_id"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Claimable reports whether the coupon can be claimed at the given instant:
// no current owner and expiry strictly in the future.
func (c *Coupon) Claimable(now time.Time) bool {
	return c.OwnerID == nil && c.ExpiresAt.After(now)
}

// OwnerOp selects what an update does to the owner field. "No instruction"
// and "clear" are different operations and must stay representable as
// distinct states.
type OwnerOp int

const (
	OwnerUnchanged OwnerOp = iota
	OwnerAssign
	OwnerClear
)

// Patch describes a partial update. Nil pointer fields are left unchanged;
// the owner field follows OwnerOp, with OwnerID only read for OwnerAssign.
type Patch struct {
	Description   *string
	Service       *string
	ExpiresInDays *int
	OwnerOp       OwnerOp
	OwnerID       uuid.UUID
}
