package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/oba/server/middleware"
	"github.com/oba/server/models"
	"github.com/oba/server/services"
	"github.com/oba/server/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

// MockAccountService is a mock implementation of AccountService
type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) Logout(ctx context.Context, principal models.Principal) error {
	return m.Called(ctx, principal).Error(0)
}

func (m *MockAccountService) DeleteAccount(ctx context.Context, principal models.Principal) error {
	return m.Called(ctx, principal).Error(0)
}

func (m *MockAccountService) Me(ctx context.Context, principal models.Principal) (*models.User, error) {
	args := m.Called(ctx, principal)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func withPrincipal(req *http.Request, p models.Principal) *http.Request {
	return req.WithContext(middleware.WithPrincipal(req.Context(), p))
}

func TestUserHandler(t *testing.T) {
	logger := zap.NewNop()
	user := models.NewLocalUser("a@x.com", "digest", "alice")
	principal := user.Principal()

	t.Run("logout returns 204", func(t *testing.T) {
		svc := new(MockAccountService)
		svc.On("Logout", mock.Anything, principal).Return(nil)

		w := httptest.NewRecorder()
		NewUserHandler(svc, logger).HandleLogout(w, withPrincipal(httptest.NewRequest(http.MethodPost, "/api/users/logout", nil), principal))

		assert.Equal(t, http.StatusNoContent, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("delete returns 204", func(t *testing.T) {
		svc := new(MockAccountService)
		svc.On("DeleteAccount", mock.Anything, principal).Return(nil)

		w := httptest.NewRecorder()
		NewUserHandler(svc, logger).HandleDeleteAccount(w, withPrincipal(httptest.NewRequest(http.MethodDelete, "/api/users/me", nil), principal))

		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("delete of a missing account returns 404", func(t *testing.T) {
		svc := new(MockAccountService)
		svc.On("DeleteAccount", mock.Anything, principal).Return(services.ErrUserNotFound)

		w := httptest.NewRecorder()
		NewUserHandler(svc, logger).HandleDeleteAccount(w, withPrincipal(httptest.NewRequest(http.MethodDelete, "/api/users/me", nil), principal))

		assert.Equal(t, http.StatusNotFound, w.Code)
		var body utils.ErrorResponse
		decodeBody(t, w, &body)
		assert.Equal(t, "user_not_found", body.Error)
	})

	t.Run("me returns profile", func(t *testing.T) {
		svc := new(MockAccountService)
		svc.On("Me", mock.Anything, principal).Return(user, nil)

		w := httptest.NewRecorder()
		NewUserHandler(svc, logger).HandleMe(w, withPrincipal(httptest.NewRequest(http.MethodGet, "/api/users/me", nil), principal))

		assert.Equal(t, http.StatusOK, w.Code)
		var body struct {
			Data UserResponse `json:"data"`
		}
		decodeBody(t, w, &body)
		assert.Equal(t, user.ID.String(), body.Data.ID)
		assert.Equal(t, "alice", body.Data.Nickname)
		assert.Equal(t, models.ProviderLocal, body.Data.Provider)
	})

	t.Run("missing principal is unauthorized", func(t *testing.T) {
		svc := new(MockAccountService)
		h := NewUserHandler(svc, logger)

		for _, fn := range []http.HandlerFunc{h.HandleLogout, h.HandleDeleteAccount, h.HandleMe} {
			w := httptest.NewRecorder()
			fn(w, httptest.NewRequest(http.MethodGet, "/api/users/me", nil))
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		}
		svc.AssertNotCalled(t, "Logout", mock.Anything, mock.Anything)
		svc.AssertNotCalled(t, "Me", mock.Anything, mock.Anything)
	})
}
