package app

import (
	"context"
	"fmt"

	"github.com/roomnotes/backend/auth"
	"github.com/roomnotes/backend/config"
	"github.com/roomnotes/backend/middleware"
	"github.com/roomnotes/backend/repositories"
	"github.com/roomnotes/backend/repositories/postgres"
	"github.com/roomnotes/backend/services/activity"
	"github.com/roomnotes/backend/services/ai"
	"github.com/roomnotes/backend/services/audio"
	"github.com/roomnotes/backend/services/folder"
	"github.com/roomnotes/backend/services/providers"
	"github.com/roomnotes/backend/services/providers/gemini"
	"github.com/roomnotes/backend/services/question"
	"github.com/roomnotes/backend/services/ratelimit"
	"github.com/roomnotes/backend/services/retrieval"
	"github.com/roomnotes/backend/services/room"
	"github.com/roomnotes/backend/token"
	"go.uber.org/zap"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	DB     *postgres.DB
	Logger *zap.Logger

	// Repository Factory
	RepoFactory *postgres.RepositoryFactory

	// Repositories
	Users       repositories.UserRepository
	Folders     repositories.FolderRepository
	Rooms       repositories.RoomRepository
	AudioChunks repositories.AudioChunkRepository
	Questions   repositories.QuestionRepository
	Activities  repositories.ActivityRepository
	TxManager   repositories.TransactionManager

	// Providers
	ProviderRegistry *providers.Registry
	Provider         providers.Provider

	// Services
	RetrievalService *retrieval.RetrievalService
	QuestionService  *question.QuestionService
	RoomService      *room.RoomService
	FolderService    *folder.FolderService
	AudioService     *audio.AudioService
	ActivityService  *activity.ActivityService
	AIService        *ai.AIService
	RateLimitService *ratelimit.RateLimitService

	// Auth
	TokenManager        *token.Manager
	AuthHandler         *auth.Handler
	AuthMiddleware      *middleware.AuthMiddleware
	RateLimitMiddleware *middleware.RateLimitMiddleware
}

// NewDependencies creates and wires up all application dependencies
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initDatabase(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	deps.initRepositories()
	deps.initProviders(cfg)
	deps.initAuth(cfg)
	deps.initServices(cfg)

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// initDatabase initializes the PostgreSQL connection, verifies it and
// applies the schema
func (d *Dependencies) initDatabase(ctx context.Context, cfg *config.Config) error {
	factory, err := postgres.NewRepositoryFactory(cfg, d.Logger)
	if err != nil {
		return fmt.Errorf("failed to create repository factory: %w", err)
	}

	d.RepoFactory = factory
	d.DB = factory.GetDB()

	if err := d.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	if err := d.DB.InitSchema(ctx); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	d.Logger.Info("database connection established",
		zap.String("connection", cfg.Database.LogString()))

	return nil
}

// initRepositories initializes all repository instances
func (d *Dependencies) initRepositories() {
	repos := d.RepoFactory.NewRepositories()

	d.Users = repos.Users
	d.Folders = repos.Folders
	d.Rooms = repos.Rooms
	d.AudioChunks = repos.AudioChunks
	d.Questions = repos.Questions
	d.Activities = repos.Activities
	d.TxManager = d.RepoFactory.GetTransactionManager()

	d.Logger.Info("repositories initialized")
}

// initProviders initializes the provider registry with the Gemini adapter
func (d *Dependencies) initProviders(cfg *config.Config) {
	registry := providers.NewRegistry()

	adapter := gemini.NewGeminiAdapter(providers.ProviderConfig{
		APIKey:          cfg.Gemini.APIKey,
		BaseURL:         cfg.Gemini.BaseURL,
		GenerationModel: cfg.Gemini.GenerationModel,
		EmbeddingModel:  cfg.Gemini.EmbeddingModel,
		Timeout:         cfg.Gemini.Timeout,
		MaxRetries:      cfg.Gemini.MaxRetries,
		RetryDelay:      cfg.Gemini.RetryDelay,
	})

	if err := registry.RegisterProvider(adapter); err != nil {
		d.Logger.Warn("failed to register provider", zap.Error(err))
	}

	if cfg.Gemini.APIKey == "" {
		d.Logger.Warn("no Gemini API key configured, provider calls will fail")
	}

	d.ProviderRegistry = registry
	d.Provider = adapter
	d.Logger.Info("providers initialized", zap.Strings("providers", registry.ListProviders()))
}

// initAuth initializes the token manager, auth handler and auth middleware
func (d *Dependencies) initAuth(cfg *config.Config) {
	d.TokenManager = token.NewManager(token.Config{
		Secret: cfg.JWT.Secret,
		Issuer: cfg.JWT.Issuer,
		TTL:    cfg.JWT.TTL,
	})
	d.AuthHandler = auth.NewHandler(d.Users, d.TokenManager, d.Logger)
	d.AuthMiddleware = middleware.NewAuthMiddleware(d.TokenManager, d.Logger)
	d.Logger.Info("auth initialized")
}

// initServices wires the domain services
func (d *Dependencies) initServices(cfg *config.Config) {
	d.RetrievalService = retrieval.NewRetrievalService(d.AudioChunks, d.Logger)
	d.QuestionService = question.NewQuestionService(d.Provider, d.RetrievalService, d.Questions, d.Rooms, d.Logger)
	d.RoomService = room.NewRoomService(d.Provider, d.Rooms, d.Folders, d.AudioChunks, d.TxManager, d.Logger)
	d.FolderService = folder.NewFolderService(d.Folders, d.Logger)
	d.AudioService = audio.NewAudioService(d.Provider, d.AudioChunks, d.Rooms, d.Logger)
	d.ActivityService = activity.NewActivityService(d.Provider, d.Activities, d.AudioChunks, d.Rooms, d.Logger)
	d.AIService = ai.NewAIService(d.Provider, d.AudioChunks, d.Rooms, d.Logger)

	d.RateLimitService = ratelimit.NewRateLimitService(d.DB.DB, ratelimit.Config{
		RequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
		RequestsPerHour:   cfg.RateLimit.RequestsPerHour,
		RequestsPerDay:    cfg.RateLimit.RequestsPerDay,
	}, d.Logger)
	d.RateLimitMiddleware = middleware.NewRateLimitMiddleware(d.RateLimitService, d.Logger)

	d.Logger.Info("services initialized")
}

// StartBackgroundWorkers launches maintenance workers. They stop when the
// context is cancelled.
func (d *Dependencies) StartBackgroundWorkers(ctx context.Context) {
	if d.Config.RateLimit.Enabled {
		go d.RateLimitService.StartCleanupWorker(ctx,
			d.Config.RateLimit.CleanupInterval,
			d.Config.RateLimit.Retention)
	}
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	if d.RepoFactory != nil {
		if err := d.RepoFactory.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
	}

	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}

	return nil
}
