package user

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

var (
	ErrNotFound       = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already exists")
)

// Repository handles user data persistence
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new user. The first user ever created becomes admin.
// The existence check and the insert run in one transaction holding a
// table lock, so two concurrent first registrations cannot both (or
// neither) end up admin.
func (r *Repository) Create(ctx context.Context, email, passwordHash string) (*User, error) {
	dbUser := &database.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}

	err := r.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		// Blocks concurrent inserts until the admin decision is committed
		if _, err := tx.ExecContext(ctx, "LOCK TABLE users IN SHARE ROW EXCLUSIVE MODE"); err != nil {
			return fmt.Errorf("failed to lock users table: %w", err)
		}

		count, err := tx.NewSelect().
			Model((*database.User)(nil)).
			Count(ctx)
		if err != nil {
			return fmt.Errorf("failed to count users: %w", err)
		}

		dbUser.IsAdmin = count == 0

		if _, err := tx.NewInsert().Model(dbUser).Exec(ctx); err != nil {
			if strings.Contains(err.Error(), "duplicate key value violates unique constraint") {
				return ErrDuplicateEmail
			}
			return fmt.Errorf("failed to create user: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return mapDBUserToModel(dbUser), nil
}

// GetByEmail retrieves a user by email (case-sensitive, as stored)
func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	dbUser := new(database.User)
	err := r.db.NewSelect().
		Model(dbUser).
		Where("email = ?", email).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// GetByID retrieves a user by ID
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	dbUser := new(database.User)
	err := r.db.NewSelect().
		Model(dbUser).
		Where("id = ?", id).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// IsAdmin reports whether the given user id holds the admin flag.
// An unknown id is simply not an admin; callers cannot tell the two apart.
func (r *Repository) IsAdmin(ctx context.Context, id uuid.UUID) (bool, error) {
	count, err := r.db.NewSelect().
		Model((*database.User)(nil)).
		Where("id = ?", id).
		Where("is_admin = ?", true).
		Count(ctx)

	if err != nil {
		return false, fmt.Errorf("failed to check admin flag: %w", err)
	}

	return count > 0, nil
}

// mapDBUserToModel converts database model to domain model
func mapDBUserToModel(dbu *database.User) *User {
	return &User{
		ID:           dbu.ID,
		Email:        dbu.Email,
		PasswordHash: dbu.PasswordHash,
		IsAdmin:      dbu.IsAdmin,
		CreatedAt:    dbu.CreatedAt,
	}
}
