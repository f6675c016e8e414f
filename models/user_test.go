package models

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProvider(t *testing.T) {
	tests := []struct {
		input string
		want  Provider
		ok    bool
	}{
		{"google", ProviderGoogle, true},
		{"KAKAO", ProviderKakao, true},
		{" naver ", ProviderNaver, true},
		{"local", ProviderLocal, true},
		{"github", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseProvider(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestProvider_Slug(t *testing.T) {
	assert.Equal(t, "google", ProviderGoogle.Slug())
	assert.Equal(t, "local", ProviderLocal.Slug())
}

func TestNewLocalUser(t *testing.T) {
	u := NewLocalUser("a@x.com", "hash", "alice")

	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "a@x.com", u.Email)
	require.NotNil(t, u.PasswordHash)
	assert.Equal(t, "hash", *u.PasswordHash)
	assert.Equal(t, RoleUser, u.Role)
	assert.Equal(t, ProviderLocal, u.Provider)
	assert.Nil(t, u.ExternalID)
	assert.False(t, u.IsLoggedIn())
	assert.False(t, u.IsAdmin())
	assert.Equal(t, u.CreatedAt, u.UpdatedAt)
}

func TestNewSocialUser(t *testing.T) {
	u := NewSocialUser(ProviderKakao, "12345", "k@x.com", "kim", "http://img")

	assert.Nil(t, u.PasswordHash)
	require.NotNil(t, u.ExternalID)
	assert.Equal(t, "12345", *u.ExternalID)
	assert.Equal(t, ProviderKakao, u.Provider)
	assert.Equal(t, "kim", u.Nickname)
	assert.Equal(t, "http://img", u.AvatarURL)
	assert.Equal(t, RoleUser, u.Role)
}

func TestUser_UpdateProfile(t *testing.T) {
	u := NewSocialUser(ProviderGoogle, "sub-1", "old@x.com", "old", "")
	id := u.ID
	created := u.CreatedAt

	u.UpdateProfile("new@x.com", "new", "http://pic")

	assert.Equal(t, id, u.ID)
	assert.Equal(t, created, u.CreatedAt)
	assert.Equal(t, "new@x.com", u.Email)
	assert.Equal(t, "new", u.Nickname)
	assert.Equal(t, "http://pic", u.AvatarURL)
	assert.False(t, u.UpdatedAt.Before(created))
}

func TestNicknameIsClamped(t *testing.T) {
	long := strings.Repeat("가", MaxNicknameLength+5)

	local := NewLocalUser("a@x.com", "hash", long)
	assert.Equal(t, MaxNicknameLength, utf8.RuneCountInString(local.Nickname))

	social := NewSocialUser(ProviderNaver, "n1", "n@x.com", long, "")
	assert.Equal(t, MaxNicknameLength, utf8.RuneCountInString(social.Nickname))

	social.UpdateProfile("n@x.com", strings.Repeat("b", MaxNicknameLength+1), "")
	assert.Equal(t, strings.Repeat("b", MaxNicknameLength), social.Nickname)

	social.UpdateProfile("n@x.com", "short", "")
	assert.Equal(t, "short", social.Nickname)
}

func TestUser_Principal(t *testing.T) {
	u := NewLocalUser("a@x.com", "hash", "")
	u.Role = RoleAdmin

	p := u.Principal()
	assert.Equal(t, u.ID.String(), p.Subject)
	assert.Equal(t, "a@x.com", p.Email)
	assert.Equal(t, RoleAdmin, p.Role)
	assert.True(t, u.IsAdmin())

	hash := "rt"
	u.RefreshToken = &hash
	assert.True(t, u.IsLoggedIn())
}
