package auth

import (
	"sort"

	"github.com/oba/server/config"
	"github.com/oba/server/models"
	"golang.org/x/oauth2"
)

// Provider is a configured OAuth2 client for one social login provider
type Provider struct {
	Name        models.Provider
	OAuth       *oauth2.Config
	UserInfoURL string
}

type providerEndpoint struct {
	endpoint    oauth2.Endpoint
	userInfoURL string
	scopes      []string
}

var endpoints = map[models.Provider]providerEndpoint{
	models.ProviderGoogle: {
		endpoint: oauth2.Endpoint{
			AuthURL:  "https://accounts.google.com/o/oauth2/auth",
			TokenURL: "https://oauth2.googleapis.com/token",
		},
		userInfoURL: "https://openidconnect.googleapis.com/v1/userinfo",
		scopes:      []string{"openid", "profile", "email"},
	},
	models.ProviderKakao: {
		endpoint: oauth2.Endpoint{
			AuthURL:   "https://kauth.kakao.com/oauth/authorize",
			TokenURL:  "https://kauth.kakao.com/oauth/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
		userInfoURL: "https://kapi.kakao.com/v2/user/me",
		scopes:      []string{"profile_nickname", "profile_image", "account_email"},
	},
	models.ProviderNaver: {
		endpoint: oauth2.Endpoint{
			AuthURL:   "https://nid.naver.com/oauth2.0/authorize",
			TokenURL:  "https://nid.naver.com/oauth2.0/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
		userInfoURL: "https://openapi.naver.com/v1/nid/me",
	},
}

// NewProviders builds an OAuth2 client for every provider with credentials configured
func NewProviders(cfg config.OAuthConfig) map[models.Provider]*Provider {
	clients := map[models.Provider]config.OAuthClientConfig{
		models.ProviderGoogle: cfg.Google,
		models.ProviderKakao:  cfg.Kakao,
		models.ProviderNaver:  cfg.Naver,
	}

	providers := make(map[models.Provider]*Provider)
	for name, client := range clients {
		if !client.Enabled() {
			continue
		}
		ep := endpoints[name]
		providers[name] = &Provider{
			Name: name,
			OAuth: &oauth2.Config{
				ClientID:     client.ClientID,
				ClientSecret: client.ClientSecret,
				RedirectURL:  client.RedirectURL,
				Endpoint:     ep.endpoint,
				Scopes:       ep.scopes,
			},
			UserInfoURL: ep.userInfoURL,
		}
	}
	return providers
}

// providerSlugs lists the lowercase names of the configured providers
func providerSlugs(providers map[models.Provider]*Provider) []string {
	slugs := make([]string, 0, len(providers))
	for name := range providers {
		slugs = append(slugs, name.Slug())
	}
	sort.Strings(slugs)
	return slugs
}
