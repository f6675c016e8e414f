package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/oba/server/models"
)

var (
	// ErrNotFound is returned when no identity record matches the lookup
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate is returned when a unique key (email or provider+external id) already exists
	ErrDuplicate = errors.New("duplicate record")
)

// TransactionManager manages database transactions following the GrantPulse pattern
type TransactionManager interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) (Transaction, error)

	// InTransaction executes a function within a transaction
	// Automatically commits if function succeeds, rolls back on error
	InTransaction(ctx context.Context, fn func(ctx context.Context, tx Transaction) error) error
}

// Transaction represents a database transaction
type Transaction interface {
	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Context returns the transaction context
	Context() context.Context
}

// UserRepository is the identity record store
type UserRepository interface {
	// Create creates a new user. Returns ErrDuplicate on unique key conflicts.
	Create(ctx context.Context, user *models.User) error

	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)

	// GetByEmail retrieves a user by email
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// GetByProviderExternalID retrieves a social account by provider-scoped subject
	GetByProviderExternalID(ctx context.Context, provider models.Provider, externalID string) (*models.User, error)

	// GetByRefreshToken retrieves the user currently holding the given refresh token
	GetByRefreshToken(ctx context.Context, refreshToken string) (*models.User, error)

	// ExistsByEmail reports whether an identity with the email exists
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// UpdateProfile writes the mutable profile fields (email, nickname, avatar)
	UpdateProfile(ctx context.Context, user *models.User) error

	// SetRefreshToken overwrites the refresh token slot. A nil token logs the user out.
	SetRefreshToken(ctx context.Context, id uuid.UUID, refreshToken *string) error

	// RotateRefreshToken atomically replaces current with next. It returns the
	// owning user, or ErrNotFound when no record holds current.
	RotateRefreshToken(ctx context.Context, current, next string) (*models.User, error)

	// Delete deletes a user
	Delete(ctx context.Context, id uuid.UUID) error
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	Users UserRepository
}
