package container

import (
	"context"
	"fmt"
	"net/http"

	"excelytics/adapters/cache"
	"excelytics/adapters/llm"
	"excelytics/adapters/sqldb"
	"excelytics/admin"
	"excelytics/ai"
	"excelytics/app"
	"excelytics/internal/api"
	"excelytics/internal/auth"
	"excelytics/internal/config"
	"excelytics/internal/logging"
	"excelytics/internal/upload"
	"excelytics/internal/usage"
	"excelytics/ports"

	"github.com/jmoiron/sqlx"
)

const memoryCacheEntries = 1024

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config

	// Infrastructure
	DB    *sqlx.DB
	Cache ports.Cache
	LLM   *llm.OpenAIClient

	// Repositories (data access layer)
	UserRepo  ports.UserRepository
	FileRepo  ports.FileRepository
	UsageRepo ports.LLMUsageRepository

	// Services
	Usage    *usage.Service
	Auth     *app.AuthService
	Files    *app.FileService
	Insights *app.InsightService
	Admin    *app.AdminService
}

// New creates a new dependency injection container
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	return &Container{Config: cfg}, nil
}

// InitWithDatabase initializes components that require database access
func (c *Container) InitWithDatabase(ctx context.Context, db *sqlx.DB) error {
	if db == nil {
		return fmt.Errorf("database connection cannot be nil")
	}
	c.DB = db

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database connection test failed: %w", err)
	}

	c.initRepositories()
	c.initCache(ctx)
	if err := c.initAIComponents(); err != nil {
		return fmt.Errorf("failed to initialize AI components: %w", err)
	}
	if err := c.initServices(); err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	logging.Info().
		Str("driver", c.Config.Database.Driver).
		Bool("llm", c.LLM != nil).
		Msg("container initialized")
	return nil
}

// initRepositories initializes data access repositories
func (c *Container) initRepositories() {
	c.UserRepo = sqldb.NewUserRepository(c.DB)
	c.FileRepo = sqldb.NewFileRepository(c.DB)
	c.UsageRepo = sqldb.NewLLMUsageRepository(c.DB)
}

// initCache prefers redis and falls back to an in-process cache when
// redis is not configured or unreachable.
func (c *Container) initCache(ctx context.Context) {
	rc := c.Config.Redis
	if rc.Addr != "" {
		redisCache, err := cache.NewRedisCache(ctx, cache.RedisConfig{Addr: rc.Addr, Password: rc.Password, DB: rc.DB})
		if err == nil {
			c.Cache = redisCache
			logging.Info().Str("addr", rc.Addr).Msg("insight cache: redis")
			return
		}
		logging.Warn().Err(err).Str("addr", rc.Addr).Msg("redis unavailable, using in-memory insight cache")
	}
	c.Cache = cache.NewMemoryCache(memoryCacheEntries)
}

// initAIComponents builds the single LLM client. Without an API key the
// service still starts and insight requests fail as upstream errors.
func (c *Container) initAIComponents() error {
	if c.Config.AI.OpenAIKey == "" {
		logging.Warn().Msg("OPENAI_API_KEY not set, insights are disabled")
		return nil
	}
	client, err := llm.NewClient(llm.Config{
		APIKey:      c.Config.AI.OpenAIKey,
		BaseURL:     c.Config.AI.BaseURL,
		Timeout:     c.Config.AI.Timeout,
		Temperature: c.Config.AI.Temperature,
	})
	if err != nil {
		return err
	}
	c.LLM = client
	return nil
}

func (c *Container) initServices() error {
	tokens, err := auth.NewJWTManager(c.Config.Auth.JWTSecret, c.Config.Auth.TokenTTL)
	if err != nil {
		return err
	}

	maxBytes := c.Config.Upload.MaxBytes
	c.Usage = usage.NewService(c.UsageRepo)
	c.Auth = app.NewAuthService(c.UserRepo, tokens)
	c.Files = app.NewFileService(c.FileRepo, upload.NewGate(maxBytes), upload.NewStager(c.Config.Upload.TmpDir, maxBytes), c.Cache)
	c.Admin = app.NewAdminService(c.UserRepo, c.FileRepo, c.Usage, c.Cache)

	var client ports.LLMClient
	if c.LLM != nil {
		client = c.LLM
	}
	prompts := ai.NewInsightPromptBuilder(ai.NewPromptManager(c.Config.AI.PromptsDir))
	c.Insights = app.NewInsightService(c.Files, client, prompts, c.Usage, c.Cache, app.InsightConfig{
		Model:          c.Config.AI.OpenAIModel,
		MaxTokens:      c.Config.AI.MaxTokens,
		Timeout:        c.Config.AI.Timeout,
		SampleRows:     c.Config.Insight.SampleRows,
		MaxConcurrency: c.Config.Insight.MaxConcurrency,
		CacheTTL:       c.Config.Insight.CacheTTL,
	})
	return nil
}

// EnsureAdmin creates the bootstrap admin from ADMIN_EMAIL/ADMIN_PASSWORD.
func (c *Container) EnsureAdmin(ctx context.Context) error {
	email := c.Config.Auth.AdminEmail
	if email == "" {
		return nil
	}
	created, err := c.Auth.EnsureAdmin(ctx, email, c.Config.Auth.AdminPassword)
	if err != nil {
		return err
	}
	if created {
		logging.Info().Str("email", email).Msg("bootstrap admin created")
	}
	return nil
}

// Router builds the HTTP handler for the whole API.
func (c *Container) Router() http.Handler {
	adminServer := admin.NewServer(c.Admin, c.Files, c.Config.Server.GinMode)
	cfg := api.RouterConfig{
		Auth:           c.Auth,
		Files:          c.Files,
		Insights:       c.Insights,
		Admin:          adminServer.Handler(),
		DB:             c.DB,
		MaxUploadBytes: c.Config.Upload.MaxBytes,
		AllowedOrigins: c.Config.Server.AllowedOrigins,
	}
	cfg.DefaultRateLimits()
	return api.NewRouter(cfg)
}

// Shutdown gracefully shuts down all components
func (c *Container) Shutdown(ctx context.Context) error {
	if c.Usage != nil {
		done := make(chan struct{})
		go func() {
			c.Usage.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			logging.Warn().Msg("gave up waiting for pending usage records")
		}
	}
	if c.LLM != nil {
		_ = c.LLM.Close()
	}
	if c.Cache != nil {
		if err := c.Cache.Close(); err != nil {
			logging.Warn().Err(err).Msg("failed to close cache")
		}
	}
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
