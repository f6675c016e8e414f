package handlers

import (
	"context"
	"net/http"

	"github.com/oba/server/middleware"
	"github.com/oba/server/models"
	"github.com/oba/server/utils"
	"go.uber.org/zap"
)

// AccountService is the part of auth.Service behind the authenticated endpoints
type AccountService interface {
	Logout(ctx context.Context, principal models.Principal) error
	DeleteAccount(ctx context.Context, principal models.Principal) error
	Me(ctx context.Context, principal models.Principal) (*models.User, error)
}

// UserHandler handles requests made on behalf of the authenticated caller
type UserHandler struct {
	service AccountService
	logger  *zap.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(service AccountService, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		logger:  logger,
	}
}

// HandleLogout handles POST /api/users/logout
func (h *UserHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}
	if err := h.service.Logout(r.Context(), principal); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	utils.WriteNoContent(w)
}

// HandleDeleteAccount handles DELETE /api/users/me
func (h *UserHandler) HandleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteAccount(r.Context(), principal); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	utils.WriteNoContent(w)
}

// HandleMe handles GET /api/users/me
func (h *UserHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}
	user, err := h.service.Me(r.Context(), principal)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, "", NewUserResponse(user))
}

func (h *UserHandler) principal(w http.ResponseWriter, r *http.Request) (models.Principal, bool) {
	p, ok := middleware.GetPrincipalFromContext(r.Context())
	if !ok {
		_ = utils.WriteUnauthorized(w, "Authentication required")
	}
	return p, ok
}
