package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User row. Users are created once at registration and never updated or
// deleted; is_admin is fixed at creation time.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           uuid.UUID `bun:"id,pk,type:uuid"`
	Email        string    `bun:"email,notnull,unique"`
	PasswordHash string    `bun:"password_hash,notnull"`
	IsAdmin      bool      `bun:"is_admin,notnull"`
	CreatedAt    time.Time `bun:"created_at,notnull"`
}

// Coupon row. Code is the human-facing key used for all lookups and
// mutations; OwnerID is nil while the coupon is unclaimed.
type Coupon struct {
	bun.BaseModel `bun:"table:coupons,alias:c"`

	ID          uuid.UUID  `bun:"id,pk,type:uuid"`
	Code        string     `bun:"code,notnull,unique"`
	Description string     `bun:"description,notnull"`
	Service     string     `bun:"service,notnull"`
	ExpiresAt   time.Time  `bun:"expires_at,notnull"`
	OwnerID     *uuid.UUID `bun:"owner_id,type:uuid"`
	CreatedAt   time.Time  `bun:"created_at,notnull"`
}
