// Package memory provides an in-process identity store used for local
// development (STORE_DRIVER=memory) and service tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/oba/server/models"
	"github.com/oba/server/repositories"
	"go.uber.org/zap"
)

// UserRepository implements repositories.UserRepository on top of a map.
// All methods hold one mutex, so RotateRefreshToken is a compare-and-swap.
type UserRepository struct {
	mu     sync.Mutex
	users  map[uuid.UUID]*models.User
	logger *zap.Logger
}

// NewUserRepository creates an empty store
func NewUserRepository(logger *zap.Logger) *UserRepository {
	return &UserRepository{
		users:  make(map[uuid.UUID]*models.User),
		logger: logger,
	}
}

// Create creates a new user, enforcing the same unique keys as the SQL schema
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.ID]; ok {
		return fmt.Errorf("failed to create user: %w", repositories.ErrDuplicate)
	}
	for _, u := range r.users {
		if user.Provider == models.ProviderLocal && u.Provider == models.ProviderLocal && u.Email == user.Email {
			return fmt.Errorf("failed to create user: %w", repositories.ErrDuplicate)
		}
		if user.ExternalID != nil && u.ExternalID != nil &&
			u.Provider == user.Provider && *u.ExternalID == *user.ExternalID {
			return fmt.Errorf("failed to create user: %w", repositories.ErrDuplicate)
		}
	}

	r.users[user.ID] = clone(user)
	r.logger.Debug("user created",
		zap.String("id", user.ID.String()),
		zap.String("provider", string(user.Provider)))
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return clone(u), nil
}

// GetByEmail retrieves a user by email, preferring the local account
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	local, err := r.find(func(u *models.User) bool {
		return u.Email == email && u.Provider == models.ProviderLocal
	})
	if err == nil {
		return local, nil
	}
	return r.find(func(u *models.User) bool { return u.Email == email })
}

// GetByProviderExternalID retrieves a social account by provider-scoped subject
func (r *UserRepository) GetByProviderExternalID(ctx context.Context, provider models.Provider, externalID string) (*models.User, error) {
	return r.find(func(u *models.User) bool {
		return u.Provider == provider && u.ExternalID != nil && *u.ExternalID == externalID
	})
}

// GetByRefreshToken retrieves the user holding the refresh token
func (r *UserRepository) GetByRefreshToken(ctx context.Context, refreshToken string) (*models.User, error) {
	return r.find(func(u *models.User) bool {
		return u.RefreshToken != nil && *u.RefreshToken == refreshToken
	})
}

// ExistsByEmail reports whether a user with the email exists
func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.GetByEmail(ctx, email)
	if err == repositories.ErrNotFound {
		return false, nil
	}
	return err == nil, err
}

// UpdateProfile writes email, nickname and avatar
func (r *UserRepository) UpdateProfile(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[user.ID]
	if !ok {
		return fmt.Errorf("user %s: %w", user.ID, repositories.ErrNotFound)
	}
	u.Email = user.Email
	u.Nickname = user.Nickname
	u.AvatarURL = user.AvatarURL
	u.UpdatedAt = user.UpdatedAt
	return nil
}

// SetRefreshToken overwrites the refresh token slot
func (r *UserRepository) SetRefreshToken(ctx context.Context, id uuid.UUID, refreshToken *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return fmt.Errorf("user %s: %w", id, repositories.ErrNotFound)
	}
	u.RefreshToken = copyString(refreshToken)
	return nil
}

// RotateRefreshToken replaces current with next when some user holds current
func (r *UserRepository) RotateRefreshToken(ctx context.Context, current, next string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.RefreshToken != nil && *u.RefreshToken == current {
			u.RefreshToken = &next
			r.logger.Debug("refresh token rotated", zap.String("id", u.ID.String()))
			return clone(u), nil
		}
	}
	return nil, repositories.ErrNotFound
}

// Delete deletes a user
func (r *UserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return fmt.Errorf("user %s: %w", id, repositories.ErrNotFound)
	}
	delete(r.users, id)
	return nil
}

// Count returns the number of stored identities
func (r *UserRepository) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users)
}

func (r *UserRepository) find(match func(*models.User) bool) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if match(u) {
			return clone(u), nil
		}
	}
	return nil, repositories.ErrNotFound
}

func clone(u *models.User) *models.User {
	c := *u
	c.PasswordHash = copyString(u.PasswordHash)
	c.ExternalID = copyString(u.ExternalID)
	c.RefreshToken = copyString(u.RefreshToken)
	return &c
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
