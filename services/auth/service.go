// Package auth orchestrates sign-up, login, social login and the refresh
// token lifecycle on top of the identity store and the token codec.
package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/oba/server/models"
	"github.com/oba/server/repositories"
	"github.com/oba/server/services"
	"github.com/oba/server/services/credentials"
	"github.com/oba/server/services/providers"
	"github.com/oba/server/token"
	"go.uber.org/zap"
)

// TokenIssuer is the subset of token.Codec the service needs
type TokenIssuer interface {
	IssuePair(subject, email, role string) (*token.Pair, error)
	ValidateRefresh(raw string) (*token.Claims, error)
}

// SignUpInput carries the fields of a credential registration
type SignUpInput struct {
	Email    string
	Password string
	Nickname string
}

// Service implements the authentication operations
type Service struct {
	users    repositories.UserRepository
	txMgr    repositories.TransactionManager
	verifier *credentials.Verifier
	tokens   TokenIssuer
	logger   *zap.Logger
}

// NewService creates a new authentication service
func NewService(
	users repositories.UserRepository,
	txMgr repositories.TransactionManager,
	verifier *credentials.Verifier,
	tokens TokenIssuer,
	logger *zap.Logger,
) *Service {
	return &Service{
		users:    users,
		txMgr:    txMgr,
		verifier: verifier,
		tokens:   tokens,
		logger:   logger,
	}
}

// SignUp registers a LOCAL account with role USER
func (s *Service) SignUp(ctx context.Context, in SignUpInput) (*models.User, error) {
	email := normalizeEmail(in.Email)
	if email == "" {
		return nil, services.Wrap(services.ErrInvalidInput, errors.New("email is required")).
			WithDetail("email", "required")
	}

	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, services.WrapInternal("failed to check email", err)
	}
	if exists {
		return nil, services.ErrDuplicateIdentity
	}

	digest, err := s.verifier.Register(in.Password)
	if err != nil {
		if errors.Is(err, credentials.ErrEmptyPassword) || errors.Is(err, credentials.ErrPasswordTooLong) {
			return nil, services.Wrap(services.ErrInvalidInput, err).WithDetail("password", err.Error())
		}
		return nil, services.WrapInternal("failed to hash password", err)
	}

	nickname := strings.TrimSpace(in.Nickname)
	if nickname == "" {
		nickname, _, _ = strings.Cut(email, "@")
	}

	user := models.NewLocalUser(email, digest, nickname)
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, services.ErrDuplicateIdentity
		}
		return nil, services.WrapInternal("failed to create user", err)
	}

	s.logger.Info("user signed up", zap.String("user_id", user.ID.String()))
	return user, nil
}

// Login verifies credentials and starts a new session. A missing account,
// a social-only account and a wrong password all return ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string) (*token.Pair, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			s.verifier.Verify(password, nil)
			return nil, services.ErrInvalidCredentials
		}
		return nil, services.WrapInternal("failed to load user", err)
	}

	if !s.verifier.Verify(password, user.PasswordHash) {
		s.logger.Warn("login rejected", zap.String("user_id", user.ID.String()))
		return nil, services.ErrInvalidCredentials
	}

	pair, err := s.startSession(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user logged in", zap.String("user_id", user.ID.String()))
	return pair, nil
}

// SocialLogin upserts the identity described by a provider payload and
// returns its principal. Tokens are issued separately through IssueTokens.
func (s *Service) SocialLogin(ctx context.Context, provider string, attrs map[string]any) (*models.Principal, error) {
	profile, err := providers.Normalize(provider, attrs)
	if err != nil {
		return nil, err
	}

	user, err := s.upsertSocial(ctx, profile)
	if errors.Is(err, repositories.ErrDuplicate) {
		// A concurrent first login created the row; the retry takes the update path.
		user, err = s.upsertSocial(ctx, profile)
	}
	if err != nil {
		if services.GetErrorType(err) != "" {
			return nil, err
		}
		return nil, services.WrapInternal("failed to upsert social account", err)
	}

	s.logger.Info("social login",
		zap.String("user_id", user.ID.String()),
		zap.String("provider", string(profile.Provider)))

	principal := user.Principal()
	return &principal, nil
}

func (s *Service) upsertSocial(ctx context.Context, profile *providers.Profile) (*models.User, error) {
	return services.WithTransactionResult(ctx, s.txMgr, func(ctx context.Context) (*models.User, error) {
		user, err := s.users.GetByProviderExternalID(ctx, profile.Provider, profile.ExternalID)
		if errors.Is(err, repositories.ErrNotFound) {
			user = models.NewSocialUser(profile.Provider, profile.ExternalID, profile.Email, profile.Name, profile.AvatarURL)
			if err := s.users.Create(ctx, user); err != nil {
				return nil, err
			}
			return user, nil
		}
		if err != nil {
			return nil, err
		}

		user.UpdateProfile(profile.Email, profile.Name, profile.AvatarURL)
		if err := s.users.UpdateProfile(ctx, user); err != nil {
			return nil, err
		}
		return user, nil
	})
}

// IssueTokens starts a session for a principal that has already been authenticated
func (s *Service) IssueTokens(ctx context.Context, principal models.Principal) (*token.Pair, error) {
	user, err := s.lookup(ctx, principal)
	if err != nil {
		return nil, err
	}
	return s.startSession(ctx, user)
}

// Reissue exchanges a refresh token for a new pair. The presented token is
// single-use: rotation is one compare-and-replace on the stored slot, so of
// two concurrent calls with the same token exactly one succeeds.
func (s *Service) Reissue(ctx context.Context, refreshToken string) (*token.Pair, error) {
	claims, err := s.tokens.ValidateRefresh(refreshToken)
	if err != nil {
		return nil, services.ErrInvalidToken
	}

	user, err := s.users.GetByRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			s.logger.Warn("reissue with stale refresh token", zap.String("user_id", claims.Subject))
			return nil, services.ErrStaleSession
		}
		return nil, services.WrapInternal("failed to load session", err)
	}
	if user.ID.String() != claims.Subject {
		return nil, services.ErrStaleSession
	}

	pair, err := s.issue(user)
	if err != nil {
		return nil, err
	}

	if _, err := s.users.RotateRefreshToken(ctx, refreshToken, pair.RefreshToken); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			s.logger.Warn("refresh token consumed concurrently", zap.String("user_id", claims.Subject))
			return nil, services.ErrStaleSession
		}
		return nil, services.WrapInternal("failed to rotate refresh token", err)
	}

	return pair, nil
}

// Logout clears the caller's refresh token. Repeating it is harmless.
func (s *Service) Logout(ctx context.Context, principal models.Principal) error {
	id, err := parseSubject(principal)
	if err != nil {
		return err
	}
	if err := s.users.SetRefreshToken(ctx, id, nil); err != nil {
		return s.mapLookupError(err)
	}
	s.logger.Info("user logged out", zap.String("user_id", principal.Subject))
	return nil
}

// DeleteAccount removes the caller's identity record
func (s *Service) DeleteAccount(ctx context.Context, principal models.Principal) error {
	id, err := parseSubject(principal)
	if err != nil {
		return err
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return s.mapLookupError(err)
	}
	s.logger.Info("account deleted", zap.String("user_id", principal.Subject))
	return nil
}

// Me returns the caller's identity record
func (s *Service) Me(ctx context.Context, principal models.Principal) (*models.User, error) {
	return s.lookup(ctx, principal)
}

// UserByID returns any identity record; it backs the admin lookup
func (s *Service) UserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapLookupError(err)
	}
	return user, nil
}

func (s *Service) lookup(ctx context.Context, principal models.Principal) (*models.User, error) {
	id, err := parseSubject(principal)
	if err != nil {
		return nil, err
	}
	return s.UserByID(ctx, id)
}

// startSession issues a pair and overwrites the stored refresh token in one write
func (s *Service) startSession(ctx context.Context, user *models.User) (*token.Pair, error) {
	pair, err := s.issue(user)
	if err != nil {
		return nil, err
	}
	if err := s.users.SetRefreshToken(ctx, user.ID, &pair.RefreshToken); err != nil {
		return nil, s.mapLookupError(err)
	}
	return pair, nil
}

func (s *Service) issue(user *models.User) (*token.Pair, error) {
	pair, err := s.tokens.IssuePair(user.ID.String(), user.Email, string(user.Role))
	if err != nil {
		return nil, services.WrapInternal("failed to issue tokens", err)
	}
	return pair, nil
}

func (s *Service) mapLookupError(err error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return services.Wrap(services.ErrUserNotFound, err)
	}
	return services.WrapInternal("identity store failure", err)
}

func parseSubject(principal models.Principal) (uuid.UUID, error) {
	id, err := uuid.Parse(principal.Subject)
	if err != nil {
		return uuid.Nil, services.ErrInvalidToken
	}
	return id, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
