package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fulmenhq/gofulmen/logging"
	"go.uber.org/zap"

	"github.com/ghlink/ghlink/internal/ailink"
	"github.com/ghlink/ghlink/internal/config"
	"github.com/ghlink/ghlink/internal/core/engine"
	"github.com/ghlink/ghlink/internal/core/gateway"
	"github.com/ghlink/ghlink/internal/core/store"
	"github.com/ghlink/ghlink/internal/tools"
)

// app bundles the collaborators one process shares: a single admission
// window and gateway client behind every transport.
type app struct {
	cfg      *config.Config
	limiter  *engine.RateLimiter
	client   *gateway.Client
	store    *store.Store
	ai       *ailink.Service
	registry *tools.Registry
	logger   *logging.Logger
}

// newApp builds the tool stack from cfg. Store and AI are optional: a
// disabled store or a missing provider key leaves them nil.
func newApp(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*app, error) {
	if err := cfg.RequireToken(); err != nil {
		return nil, err
	}

	credential, err := gateway.NewCredential(cfg.GitHub.Token, userAgent(cfg.GitHub.UserAgent))
	if err != nil {
		return nil, err
	}

	limiter, err := engine.NewRateLimiter(cfg.GitHub.RateLimit.MaxRequests, cfg.GitHub.RateLimit.Window)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, limiter: limiter, logger: logger}

	if cfg.Store.Enabled {
		db, err := openStore(ctx, cfg.Store)
		if err != nil {
			return nil, err
		}
		a.store = db
	}

	opts := gateway.Options{
		BaseURL:    cfg.GitHub.BaseURL,
		Credential: credential,
		Admission:  limiter,
		Timeout:    cfg.GitHub.Timeout,
		Logger:     logger,
	}
	if a.store != nil {
		opts.Observer = a.store
	}
	client, err := gateway.New(opts)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.client = client

	if cfg.AILink.Enabled() {
		service, err := ailink.NewService(cfg.AILink)
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("configure ailink: %w", err)
		}
		a.ai = service
	} else if logger != nil {
		logger.Debug("AILink not configured, AI tools will report it")
	}

	deps := tools.Deps{GitHub: client, Logger: logger}
	if a.store != nil {
		deps.Store = a.store
	}
	if a.ai != nil {
		deps.AI = a.ai
	}
	registry, err := tools.NewCatalog(deps)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.registry = registry

	if logger != nil {
		logger.Debug("Tool stack ready",
			zap.Int("tools", registry.Len()),
			zap.String("base_url", client.BaseURL()),
			zap.String("user_agent", credential.UserAgent()),
			zap.Int("max_requests", cfg.GitHub.RateLimit.MaxRequests),
			zap.Duration("window", cfg.GitHub.RateLimit.Window),
			zap.Bool("store", a.store != nil),
			zap.Bool("ailink", a.ai != nil))
	}
	return a, nil
}

// Close releases the store.
func (a *app) Close() error {
	if a == nil || a.store == nil {
		return nil
	}
	return a.store.Close()
}

// userAgent appends the build version to the default client identifier.
func userAgent(configured string) string {
	configured = strings.TrimSpace(configured)
	if configured == "" || configured == config.DefaultUserAgent {
		return config.DefaultUserAgent + "/" + versionInfo.Version
	}
	return configured
}

func openStore(ctx context.Context, cfg config.StoreConfig) (*store.Store, error) {
	db, err := store.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

var errStoreDisabled = errors.New("store is disabled (set store.enabled or GHLINK_DB_ENABLED)")

// openConfiguredStore opens the metadata store for commands that only read it.
func openConfiguredStore(ctx context.Context) (*store.Store, error) {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return nil, err
	}
	if !cfg.Store.Enabled {
		return nil, errStoreDisabled
	}
	return openStore(ctx, cfg.Store)
}
