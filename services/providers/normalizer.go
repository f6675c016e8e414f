// Package providers translates OAuth2 userinfo payloads into one profile shape.
// Nothing here touches the store or issues tokens.
package providers

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/oba/server/models"
	"github.com/oba/server/services"
)

// Profile is the canonical identity extracted from a provider payload
type Profile struct {
	Provider   models.Provider
	ExternalID string
	Email      string
	Name       string
	AvatarURL  string
}

// NormalizeFunc maps one provider's raw attributes into a Profile
type NormalizeFunc func(attrs map[string]any) Profile

var normalizers = map[models.Provider]NormalizeFunc{
	models.ProviderGoogle: normalizeGoogle,
	models.ProviderKakao:  normalizeKakao,
	models.ProviderNaver:  normalizeNaver,
}

// Supported lists the providers that have a normalizer
func Supported() []models.Provider {
	return []models.Provider{models.ProviderGoogle, models.ProviderKakao, models.ProviderNaver}
}

// Lookup resolves a registration id such as "kakao" to a social provider
func Lookup(name string) (models.Provider, error) {
	p, ok := models.ParseProvider(name)
	if !ok {
		return "", services.ErrUnsupportedProvider
	}
	if _, ok := normalizers[p]; !ok {
		return "", services.ErrUnsupportedProvider
	}
	return p, nil
}

// Normalize extracts a Profile from attrs using the named provider's layout
func Normalize(provider string, attrs map[string]any) (*Profile, error) {
	p, err := Lookup(provider)
	if err != nil {
		return nil, err
	}

	profile := normalizers[p](attrs)
	profile.Provider = p
	profile.Email = strings.ToLower(profile.Email)
	if profile.ExternalID == "" {
		return nil, services.ErrMalformedProfile
	}
	return &profile, nil
}

// google: flat OpenID Connect userinfo
func normalizeGoogle(attrs map[string]any) Profile {
	return Profile{
		ExternalID: stringAttr(attrs, "sub"),
		Email:      stringAttr(attrs, "email"),
		Name:       stringAttr(attrs, "name"),
		AvatarURL:  stringAttr(attrs, "picture"),
	}
}

// kakao: numeric id at the top level, profile under kakao_account.profile
func normalizeKakao(attrs map[string]any) Profile {
	account := mapAttr(attrs, "kakao_account")
	profile := mapAttr(account, "profile")
	return Profile{
		ExternalID: stringAttr(attrs, "id"),
		Email:      stringAttr(account, "email"),
		Name:       stringAttr(profile, "nickname"),
		AvatarURL:  stringAttr(profile, "profile_image_url"),
	}
}

// naver: everything under response
func normalizeNaver(attrs map[string]any) Profile {
	resp := mapAttr(attrs, "response")
	return Profile{
		ExternalID: stringAttr(resp, "id"),
		Email:      stringAttr(resp, "email"),
		Name:       stringAttr(resp, "name"),
		AvatarURL:  stringAttr(resp, "profile_image"),
	}
}

func mapAttr(attrs map[string]any, key string) map[string]any {
	if attrs == nil {
		return nil
	}
	m, _ := attrs[key].(map[string]any)
	return m
}

// stringAttr reads key as a string. Numbers are rendered without exponent so
// a kakao id decoded as float64 keeps all its digits.
func stringAttr(attrs map[string]any, key string) string {
	if attrs == nil {
		return ""
	}
	switch v := attrs[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return ""
	}
}
