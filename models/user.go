package models

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// UserRole represents the single role label carried by an identity
type UserRole string

const (
	RoleUser  UserRole = "USER"
	RoleAdmin UserRole = "ADMIN"
)

// Provider identifies where an identity originated
type Provider string

const (
	ProviderLocal  Provider = "LOCAL"
	ProviderGoogle Provider = "GOOGLE"
	ProviderKakao  Provider = "KAKAO"
	ProviderNaver  Provider = "NAVER"
)

// ParseProvider converts a registration id such as "google" into a Provider.
// The second return value is false for unknown names.
func ParseProvider(name string) (Provider, bool) {
	switch p := Provider(strings.ToUpper(strings.TrimSpace(name))); p {
	case ProviderLocal, ProviderGoogle, ProviderKakao, ProviderNaver:
		return p, true
	default:
		return "", false
	}
}

// Slug returns the lowercase registration id used in URLs
func (p Provider) Slug() string {
	return strings.ToLower(string(p))
}

// MaxNicknameLength is the nickname column width in characters
const MaxNicknameLength = 100

// clampNickname cuts name to MaxNicknameLength characters
func clampNickname(name string) string {
	if utf8.RuneCountInString(name) <= MaxNicknameLength {
		return name
	}
	return string([]rune(name)[:MaxNicknameLength])
}

// User is the identity record shared by credential and social login.
// RefreshToken holds the single outstanding refresh token; nil means logged out.
type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash *string   `json:"-" db:"password_hash"`
	Nickname     string    `json:"nickname" db:"nickname"`
	AvatarURL    string    `json:"avatar_url,omitempty" db:"avatar_url"`
	Role         UserRole  `json:"role" db:"role"`
	Provider     Provider  `json:"provider" db:"provider"`
	ExternalID   *string   `json:"-" db:"external_id"`
	RefreshToken *string   `json:"-" db:"refresh_token"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// NewLocalUser creates a credential-based identity with role USER
func NewLocalUser(email, passwordHash, nickname string) *User {
	now := time.Now().UTC()
	return &User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: &passwordHash,
		Nickname:     clampNickname(nickname),
		Role:         RoleUser,
		Provider:     ProviderLocal,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// NewSocialUser creates an identity originating from an OAuth2 provider
func NewSocialUser(provider Provider, externalID, email, name, avatarURL string) *User {
	now := time.Now().UTC()
	return &User{
		ID:         uuid.New(),
		Email:      email,
		Nickname:   clampNickname(name),
		AvatarURL:  avatarURL,
		Role:       RoleUser,
		Provider:   provider,
		ExternalID: &externalID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// UpdateProfile refreshes the provider-supplied profile fields
func (u *User) UpdateProfile(email, name, avatarURL string) {
	u.Email = email
	u.Nickname = clampNickname(name)
	u.AvatarURL = avatarURL
	u.UpdatedAt = time.Now().UTC()
}

// IsAdmin returns true if the user has admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsLoggedIn reports whether a refresh token is currently outstanding
func (u *User) IsLoggedIn() bool {
	return u.RefreshToken != nil
}

// Principal is the authenticated caller attached to a request context.
// Subject is the identity ID as a string; it never changes for the life of the account.
type Principal struct {
	Subject string   `json:"sub"`
	Email   string   `json:"email"`
	Role    UserRole `json:"role"`
}

// Principal returns the principal for u
func (u *User) Principal() Principal {
	return Principal{
		Subject: u.ID.String(),
		Email:   u.Email,
		Role:    u.Role,
	}
}
