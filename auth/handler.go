// Package auth runs the OAuth2 authorization-code flow for social login and
// hands the provider's userinfo payload to the authentication service.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/oba/server/handlers"
	"github.com/oba/server/models"
	"github.com/oba/server/services"
	"github.com/oba/server/services/providers"
	"github.com/oba/server/token"
	"github.com/oba/server/utils"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const (
	// StateCookieName is the cookie name for OAuth state (CSRF)
	StateCookieName = "oauth_state"

	// VerifierCookieName is the cookie name for the PKCE code verifier
	VerifierCookieName = "oauth_verifier"
)

const (
	flowCookiePath   = "/api/auth/oauth2"
	flowCookieMaxAge = 600
	maxUserInfoBytes = 1 << 20
)

// SocialAuthenticator is the part of the authentication service used by the callback
type SocialAuthenticator interface {
	SocialLogin(ctx context.Context, provider string, attrs map[string]any) (*models.Principal, error)
	IssueTokens(ctx context.Context, principal models.Principal) (*token.Pair, error)
}

// Handler handles the social login redirect and callback
type Handler struct {
	providers   map[models.Provider]*Provider
	service     SocialAuthenticator
	frontEndURL string
	httpClient  *http.Client
	logger      *zap.Logger
}

// NewHandler creates a new OAuth2 handler. An empty frontEndURL makes the
// callback answer with the token pair as JSON instead of redirecting.
func NewHandler(registry map[models.Provider]*Provider, service SocialAuthenticator, frontEndURL string, logger *zap.Logger) *Handler {
	return &Handler{
		providers:   registry,
		service:     service,
		frontEndURL: frontEndURL,
		httpClient:  http.DefaultClient,
		logger:      logger,
	}
}

// WithHTTPClient sets the client used for the token exchange and userinfo fetch
func (h *Handler) WithHTTPClient(c *http.Client) *Handler {
	h.httpClient = c
	return h
}

// Providers returns the slugs of the configured providers
func (h *Handler) Providers() []string {
	return providerSlugs(h.providers)
}

// HandleLogin handles GET /api/auth/oauth2/{provider} by redirecting to the consent page
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	p, ok := h.provider(w, r)
	if !ok {
		return
	}

	state, err := generateSecureState()
	if err != nil {
		h.logger.Error("failed to generate state", zap.Error(err))
		_ = utils.WriteInternalServerError(w, "Failed to initiate login")
		return
	}
	verifier := oauth2.GenerateVerifier()

	secure := isSecure(p)
	setFlowCookie(w, StateCookieName, state, flowCookieMaxAge, secure)
	setFlowCookie(w, VerifierCookieName, verifier, flowCookieMaxAge, secure)

	authURL := p.OAuth.AuthCodeURL(state, oauth2.AccessTypeOnline, oauth2.S256ChallengeOption(verifier))
	http.Redirect(w, r, authURL, http.StatusFound)
}

// HandleCallback handles GET /api/auth/oauth2/{provider}/callback: it exchanges
// the code, fetches userinfo, upserts the identity and issues a token pair.
func (h *Handler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	p, ok := h.provider(w, r)
	if !ok {
		return
	}
	requestID := chimw.GetReqID(r.Context())
	query := r.URL.Query()

	if reason := query.Get("error"); reason != "" {
		h.logger.Info("provider denied authorization",
			zap.String("request_id", requestID),
			zap.String("provider", p.Name.Slug()),
			zap.String("reason", reason))
		_ = utils.WriteUnauthorized(w, "Authorization was denied")
		return
	}

	code := query.Get("code")
	state := query.Get("state")
	if code == "" {
		_ = utils.WriteBadRequest(w, "Missing authorization code", nil)
		return
	}
	if state == "" {
		_ = utils.WriteBadRequest(w, "Missing state parameter", nil)
		return
	}

	stateCookie, err := r.Cookie(StateCookieName)
	if err != nil || stateCookie.Value != state {
		_ = utils.WriteBadRequest(w, "Invalid or expired state", nil)
		return
	}
	verifierCookie, err := r.Cookie(VerifierCookieName)
	if err != nil || verifierCookie.Value == "" {
		_ = utils.WriteBadRequest(w, "Invalid or expired state", nil)
		return
	}

	secure := isSecure(p)
	setFlowCookie(w, StateCookieName, "", -1, secure)
	setFlowCookie(w, VerifierCookieName, "", -1, secure)

	ctx := context.WithValue(r.Context(), oauth2.HTTPClient, h.httpClient)

	providerToken, err := p.OAuth.Exchange(ctx, code, oauth2.VerifierOption(verifierCookie.Value))
	if err != nil {
		h.logger.Warn("token exchange failed",
			zap.String("request_id", requestID),
			zap.String("provider", p.Name.Slug()),
			zap.Error(err))
		_ = utils.WriteUnauthorized(w, "Authentication failed")
		return
	}

	attrs, err := h.fetchUserInfo(ctx, p, providerToken)
	if err != nil {
		h.logger.Warn("userinfo request failed",
			zap.String("request_id", requestID),
			zap.String("provider", p.Name.Slug()),
			zap.Error(err))
		handlers.HandleServiceError(w, services.WrapExternal("failed to load provider profile", err), h.logger)
		return
	}

	principal, err := h.service.SocialLogin(r.Context(), string(p.Name), attrs)
	if err != nil {
		handlers.HandleServiceError(w, err, h.logger)
		return
	}

	pair, err := h.service.IssueTokens(r.Context(), *principal)
	if err != nil {
		handlers.HandleServiceError(w, err, h.logger)
		return
	}

	if h.frontEndURL == "" {
		_ = utils.WriteOK(w, "login succeeded", pair)
		return
	}
	http.Redirect(w, r, h.redirectTarget(pair), http.StatusFound)
}

// fetchUserInfo loads the provider's userinfo document. Numbers are kept as
// json.Number so large numeric ids survive without float rounding.
func (h *Handler) fetchUserInfo(ctx context.Context, p *Provider, tok *oauth2.Token) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.UserInfoURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.OAuth.Client(ctx, tok).Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxUserInfoBytes))
		return nil, fmt.Errorf("userinfo returned status %d", resp.StatusCode)
	}

	dec := json.NewDecoder(io.LimitReader(resp.Body, maxUserInfoBytes))
	dec.UseNumber()
	var attrs map[string]any
	if err := dec.Decode(&attrs); err != nil {
		return nil, fmt.Errorf("failed to decode userinfo: %w", err)
	}
	return attrs, nil
}

// redirectTarget puts the pair in the URL fragment, which browsers never send to servers
func (h *Handler) redirectTarget(pair *token.Pair) string {
	fragment := url.Values{
		"token_type":    {pair.TokenType},
		"access_token":  {pair.AccessToken},
		"refresh_token": {pair.RefreshToken},
	}
	return strings.TrimSuffix(h.frontEndURL, "/") + "/oauth2/redirect#" + fragment.Encode()
}

// provider resolves the {provider} URL parameter, writing an error response on failure
func (h *Handler) provider(w http.ResponseWriter, r *http.Request) (*Provider, bool) {
	name, err := providers.Lookup(chi.URLParam(r, "provider"))
	if err != nil {
		handlers.HandleServiceError(w, err, h.logger)
		return nil, false
	}
	p, ok := h.providers[name]
	if !ok {
		_ = utils.WriteNotFound(w, "Login provider is not configured")
		return nil, false
	}
	return p, true
}

func isSecure(p *Provider) bool {
	return strings.HasPrefix(p.OAuth.RedirectURL, "https")
}

// setFlowCookie sets a short-lived cookie scoped to the OAuth2 routes. SameSite
// Lax is required so the cookie survives the top-level redirect back from the provider.
func setFlowCookie(w http.ResponseWriter, name, value string, maxAge int, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     flowCookiePath,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func generateSecureState() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
