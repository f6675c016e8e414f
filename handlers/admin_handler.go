package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/oba/server/models"
	"github.com/oba/server/utils"
	"go.uber.org/zap"
)

// UserDirectory looks up identities by id
type UserDirectory interface {
	UserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// AdminHandler serves the ADMIN-only endpoints
type AdminHandler struct {
	users  UserDirectory
	logger *zap.Logger
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(users UserDirectory, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		users:  users,
		logger: logger,
	}
}

// HandleGetUser handles GET /api/admin/users/{id}
func (h *AdminHandler) HandleGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		_ = utils.WriteBadRequest(w, "invalid user id", nil)
		return
	}

	user, err := h.users.UserByID(r.Context(), id)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, "", NewUserResponse(user))
}
