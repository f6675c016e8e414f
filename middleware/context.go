package middleware

import (
	"context"

	"github.com/oba/server/models"
)

type contextKey string

// PrincipalKey is the context key for the authenticated caller
const PrincipalKey contextKey = "principal"

// GetPrincipalFromContext retrieves the authenticated caller from context
func GetPrincipalFromContext(ctx context.Context) (models.Principal, bool) {
	p, ok := ctx.Value(PrincipalKey).(models.Principal)
	return p, ok
}

// WithPrincipal adds the authenticated caller to the context
func WithPrincipal(ctx context.Context, principal models.Principal) context.Context {
	return context.WithValue(ctx, PrincipalKey, principal)
}
