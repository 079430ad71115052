package coupon

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/couponvault/couponvault/internal/database"
)

// Repository implements Store on top of Postgres via bun
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new coupon row
func (r *Repository) Create(ctx context.Context, c *Coupon) error {
	dbCoupon := &database.Coupon{
		ID:          c.ID,
		Code:        c.Code,
		Description: c.Description,
		Service:     c.Service,
		ExpiresAt:   c.ExpiresAt,
		OwnerID:     c.OwnerID,
		CreatedAt:   c.CreatedAt,
	}

	_, err := r.db.NewInsert().
		Model(dbCoupon).
		Exec(ctx)

	if err != nil {
		if strings.Contains(err.Error(), "duplicate key value violates unique constraint") {
			return ErrDuplicateCode
		}
		return fmt.Errorf("failed to create coupon: %w", err)
	}

	return nil
}

// GetByCode retrieves a coupon by its code
func (r *Repository) GetByCode(ctx context.Context, code string) (*Coupon, error) {
	dbCoupon := new(database.Coupon)
	err := r.db.NewSelect().
		Model(dbCoupon).
		Where("code = ?", code).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get coupon by code: %w", err)
	}

	return mapDBCouponToModel(dbCoupon), nil
}

// List returns coupons newest-created-first; activeOnly filters to coupons
// whose expiry is strictly in the future.
func (r *Repository) List(ctx context.Context, activeOnly bool) ([]Coupon, error) {
	var dbCoupons []database.Coupon

	query := r.db.NewSelect().
		Model(&dbCoupons).
		Order("created_at DESC")
	if activeOnly {
		query = query.Where("expires_at > ?", time.Now())
	}

	if err := query.Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list coupons: %w", err)
	}

	return mapDBCouponsToModels(dbCoupons), nil
}

// ListOwnedActive returns the given user's unexpired coupons, newest first
func (r *Repository) ListOwnedActive(ctx context.Context, ownerID uuid.UUID) ([]Coupon, error) {
	var dbCoupons []database.Coupon

	err := r.db.NewSelect().
		Model(&dbCoupons).
		Where("owner_id = ?", ownerID).
		Where("expires_at > ?", time.Now()).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list owned coupons: %w", err)
	}

	return mapDBCouponsToModels(dbCoupons), nil
}

// Claim transfers ownership to ownerID iff the row is still unowned and
// unexpired at the instant of the write. The conditional UPDATE is the sole
// arbiter under concurrency: of N simultaneous claims exactly one changes
// the row. A nil result collapses not-found, already-owned and expired.
func (r *Repository) Claim(ctx context.Context, code string, ownerID uuid.UUID) (*Coupon, error) {
	res, err := r.db.NewUpdate().
		Model((*database.Coupon)(nil)).
		Set("owner_id = ?", ownerID).
		Where("code = ?", code).
		Where("owner_id IS NULL").
		Where("expires_at > ?", time.Now()).
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to claim coupon: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return nil, nil
	}

	return r.GetByCode(ctx, code)
}

// Release clears the owner iff the caller currently holds the coupon.
// False collapses not-found, not-owner and already-unowned.
func (r *Repository) Release(ctx context.Context, code string, ownerID uuid.UUID) (bool, error) {
	res, err := r.db.NewUpdate().
		Model((*database.Coupon)(nil)).
		Set("owner_id = NULL").
		Where("code = ?", code).
		Where("owner_id = ?", ownerID).
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to release coupon: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows == 1, nil
}

// Update merges the patch into the current row inside a transaction holding
// a row lock, so the read-merge-write cannot interleave with a concurrent
// claim or release on the same code. Returns false if the code does not exist.
func (r *Repository) Update(ctx context.Context, code string, patch Patch) (bool, error) {
	var updated bool

	err := r.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		cur := new(database.Coupon)
		err := tx.NewSelect().
			Model(cur).
			Where("code = ?", code).
			For("UPDATE").
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil
			}
			return fmt.Errorf("failed to load coupon for update: %w", err)
		}

		if patch.Description != nil {
			cur.Description = *patch.Description
		}
		if patch.Service != nil {
			cur.Service = *patch.Service
		}
		if patch.ExpiresInDays != nil {
			cur.ExpiresAt = time.Now().AddDate(0, 0, *patch.ExpiresInDays)
		}
		switch patch.OwnerOp {
		case OwnerAssign:
			ownerID := patch.OwnerID
			cur.OwnerID = &ownerID
		case OwnerClear:
			cur.OwnerID = nil
		}

		if _, err := tx.NewUpdate().Model(cur).WherePK().Exec(ctx); err != nil {
			return fmt.Errorf("failed to update coupon: %w", err)
		}

		updated = true
		return nil
	})
	if err != nil {
		return false, err
	}

	return updated, nil
}

// Delete removes the coupon row. Idempotent: false when nothing was deleted.
func (r *Repository) Delete(ctx context.Context, code string) (bool, error) {
	res, err := r.db.NewDelete().
		Model((*database.Coupon)(nil)).
		Where("code = ?", code).
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to delete coupon: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows == 1, nil
}

// mapDBCouponToModel converts database model to domain model
func mapDBCouponToModel(dbc *database.Coupon) *Coupon {
	return &Coupon{
		ID:          dbc.ID,
		Code:        dbc.Code,
		Description: dbc.Description,
		Service:     dbc.Service,
		ExpiresAt:   dbc.ExpiresAt,
		OwnerID:     dbc.OwnerID,
		CreatedAt:   dbc.CreatedAt,
	}
}

func mapDBCouponsToModels(dbCoupons []database.Coupon) []Coupon {
	coupons := make([]Coupon, 0, len(dbCoupons))
	for i := range dbCoupons {
		coupons = append(coupons, *mapDBCouponToModel(&dbCoupons[i]))
	}
	return coupons
}
