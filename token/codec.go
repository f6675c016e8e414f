// Package token issues and validates the HS256 access and refresh tokens.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/oba/server/config"
)

// Kind distinguishes access tokens from refresh tokens via the typ claim
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// TokenType is the authorization scheme clients send back
const TokenType = "Bearer"

var (
	// ErrInvalidToken covers every validation failure: malformed, bad
	// signature, expired, wrong algorithm, wrong issuer, wrong kind.
	ErrInvalidToken = errors.New("invalid token")

	// ErrMissingSecret is returned by NewCodec when no signing secret is configured
	ErrMissingSecret = errors.New("jwt signing secret is required")
)

// Claims carried by both token kinds. Refresh tokens leave Email and Role empty.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	Kind  Kind   `json:"typ"`
}

// Pair is the credential bundle returned by login and reissue
type Pair struct {
	TokenType             string    `json:"token_type"`
	AccessToken           string    `json:"access_token"`
	AccessTokenExpiresAt  time.Time `json:"access_token_expires_at"`
	RefreshToken          string    `json:"refresh_token"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at"`
}

// Codec signs and validates tokens with a process-wide secret that is
// read-only after construction.
type Codec struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewCodec creates a codec from configuration
func NewCodec(cfg config.JWTConfig) (*Codec, error) {
	if cfg.Secret == "" {
		return nil, ErrMissingSecret
	}
	if cfg.AccessTokenTTL <= 0 || cfg.RefreshTokenTTL <= 0 {
		return nil, fmt.Errorf("token lifetimes must be positive")
	}
	return &Codec{
		secret:     []byte(cfg.Secret),
		issuer:     cfg.Issuer,
		accessTTL:  cfg.AccessTokenTTL,
		refreshTTL: cfg.RefreshTokenTTL,
		now:        time.Now,
	}, nil
}

// IssuePair signs a new access and refresh token for subject.
// Each token gets a random jti, so two pairs issued in the same second differ.
func (c *Codec) IssuePair(subject, email, role string) (*Pair, error) {
	now := c.now().UTC().Truncate(time.Second)
	accessExp := now.Add(c.accessTTL)
	refreshExp := now.Add(c.refreshTTL)

	access, err := c.sign(Claims{
		RegisteredClaims: c.registered(subject, now, accessExp),
		Email:            email,
		Role:             role,
		Kind:             KindAccess,
	})
	if err != nil {
		return nil, err
	}

	refresh, err := c.sign(Claims{
		RegisteredClaims: c.registered(subject, now, refreshExp),
		Kind:             KindRefresh,
	})
	if err != nil {
		return nil, err
	}

	return &Pair{
		TokenType:             TokenType,
		AccessToken:           access,
		AccessTokenExpiresAt:  accessExp,
		RefreshToken:          refresh,
		RefreshTokenExpiresAt: refreshExp,
	}, nil
}

// ValidateAccess parses an access token
func (c *Codec) ValidateAccess(raw string) (*Claims, error) {
	return c.validate(raw, KindAccess)
}

// ValidateRefresh parses a refresh token
func (c *Codec) ValidateRefresh(raw string) (*Claims, error) {
	return c.validate(raw, KindRefresh)
}

func (c *Codec) registered(subject string, issuedAt, expiresAt time.Time) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Issuer:    c.issuer,
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
}

func (c *Codec) sign(claims Claims) (string, error) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", claims.Kind, err)
	}
	return signed, nil
}

func (c *Codec) validate(raw string, kind Kind) (*Claims, error) {
	if raw == "" {
		return nil, ErrInvalidToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(c.now),
	}
	if c.issuer != "" {
		opts = append(opts, jwt.WithIssuer(c.issuer))
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return c.secret, nil
	}, opts...)
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Kind != kind || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
