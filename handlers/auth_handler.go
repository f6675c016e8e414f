package handlers

import (
	"context"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/oba/server/models"
	"github.com/oba/server/services/auth"
	"github.com/oba/server/token"
	"github.com/oba/server/utils"
	"go.uber.org/zap"
)

// CredentialService is the part of auth.Service behind the public auth endpoints
type CredentialService interface {
	SignUp(ctx context.Context, in auth.SignUpInput) (*models.User, error)
	Login(ctx context.Context, email, password string) (*token.Pair, error)
	Reissue(ctx context.Context, refreshToken string) (*token.Pair, error)
}

// AuthHandler handles sign-up, login and token reissue
type AuthHandler struct {
	service CredentialService
	logger  *zap.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(service CredentialService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		logger:  logger,
	}
}

// HandleSignUp handles POST /api/auth/signup
func (h *AuthHandler) HandleSignUp(w http.ResponseWriter, r *http.Request) {
	var req SignUpRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.service.SignUp(r.Context(), auth.SignUpInput{
		Email:    req.Email,
		Password: req.Password,
		Nickname: req.Nickname,
	})
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteCreated(w, "sign-up completed", NewUserResponse(user))
}

// HandleLogin handles POST /api/auth/login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !h.decode(w, r, &req) {
		return
	}

	pair, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, "login succeeded", pair)
}

// HandleReissue handles POST /api/auth/reissue
func (h *AuthHandler) HandleReissue(w http.ResponseWriter, r *http.Request) {
	var req ReissueRequest
	if !h.decode(w, r, &req) {
		return
	}

	pair, err := h.service.Reissue(r.Context(), req.RefreshToken)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, "tokens reissued", pair)
}

// decode reads and validates the request body, writing a 400 on failure
func (h *AuthHandler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := utils.DecodeJSON(w, r, dst); err != nil {
		h.logger.Debug("rejected request body",
			zap.String("request_id", chimw.GetReqID(r.Context())),
			zap.Error(err))
		HandleValidationError(w, err, h.logger)
		return false
	}
	if err := utils.ValidateStruct(dst); err != nil {
		HandleValidationError(w, err, h.logger)
		return false
	}
	return true
}
