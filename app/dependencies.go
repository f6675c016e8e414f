package app

import (
	"context"
	"fmt"

	"github.com/oba/server/auth"
	"github.com/oba/server/config"
	"github.com/oba/server/handlers"
	"github.com/oba/server/middleware"
	"github.com/oba/server/repositories"
	"github.com/oba/server/repositories/memory"
	"github.com/oba/server/repositories/postgres"
	authsvc "github.com/oba/server/services/auth"
	"github.com/oba/server/services/credentials"
	"github.com/oba/server/token"
	"go.uber.org/zap"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	Logger *zap.Logger

	// RepoFactory is nil when the memory store is selected
	RepoFactory *postgres.RepositoryFactory

	// Store
	Users     repositories.UserRepository
	TxManager repositories.TransactionManager

	// Auth core
	Tokens         *token.Codec
	AuthService    *authsvc.Service
	AuthMiddleware *middleware.AuthMiddleware

	// HTTP handlers
	AuthHandler   *handlers.AuthHandler
	UserHandler   *handlers.UserHandler
	AdminHandler  *handlers.AdminHandler
	HealthHandler *handlers.HealthHandler
	OAuthHandler  *auth.Handler
}

// NewDependencies creates and wires up all application dependencies
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	// The codec first: a missing signing secret is the one fatal startup error
	tokens, err := token.NewCodec(cfg.JWT)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token codec: %w", err)
	}
	deps.Tokens = tokens

	if err := deps.initStore(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	deps.initServices(cfg)
	deps.initHandlers(cfg)

	logger.Info("all dependencies initialized successfully",
		zap.String("store_driver", cfg.StoreDriver),
		zap.Strings("oauth_providers", deps.OAuthHandler.Providers()))
	return deps, nil
}

// initStore selects the identity store
func (d *Dependencies) initStore(ctx context.Context, cfg *config.Config) error {
	if cfg.StoreDriver == config.StoreDriverMemory {
		d.Users = memory.NewUserRepository(d.Logger)
		d.TxManager = memory.NewTransactionManager()
		d.Logger.Warn("using in-memory identity store; data is lost on restart")
		return nil
	}

	factory, err := postgres.NewRepositoryFactory(cfg, d.Logger)
	if err != nil {
		return fmt.Errorf("failed to create repository factory: %w", err)
	}
	d.RepoFactory = factory

	if cfg.Database.AutoMigrate {
		if err := factory.InitSchema(ctx); err != nil {
			_ = factory.Close()
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	}

	repos := factory.NewRepositories()
	d.Users = repos.Users
	d.TxManager = factory.GetTransactionManager()

	d.Logger.Info("repositories initialized",
		zap.String("connection", cfg.Database.LogString()))
	return nil
}

func (d *Dependencies) initServices(cfg *config.Config) {
	verifier := credentials.NewVerifier(credentials.NewBcryptHasher(cfg.Password.BcryptCost))
	d.AuthService = authsvc.NewService(d.Users, d.TxManager, verifier, d.Tokens, d.Logger)
	d.AuthMiddleware = middleware.NewAuthMiddleware(d.Tokens, d.Logger)
}

func (d *Dependencies) initHandlers(cfg *config.Config) {
	d.AuthHandler = handlers.NewAuthHandler(d.AuthService, d.Logger)
	d.UserHandler = handlers.NewUserHandler(d.AuthService, d.Logger)
	d.AdminHandler = handlers.NewAdminHandler(d.AuthService, d.Logger)

	providers := auth.NewProviders(cfg.OAuth)
	if len(providers) == 0 {
		d.Logger.Warn("no social login providers configured")
	}
	d.OAuthHandler = auth.NewHandler(providers, d.AuthService, cfg.OAuth.FrontEndURL, d.Logger)

	// a nil *postgres.DB must not become a non-nil interface
	var db handlers.HealthChecker
	if d.RepoFactory != nil {
		db = d.RepoFactory.GetDB()
	}
	d.HealthHandler = handlers.NewHealthHandler(db, handlers.StatusResponse{
		Environment: cfg.Environment,
		StoreDriver: cfg.StoreDriver,
		Providers:   d.OAuthHandler.Providers(),
	}, d.Logger)
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	if d.RepoFactory != nil {
		if err := d.RepoFactory.Close(); err != nil {
			return fmt.Errorf("failed to close database: %w", err)
		}
		d.RepoFactory = nil
		d.Logger.Info("database connection closed")
	}

	_ = d.Logger.Sync()
	return nil
}
