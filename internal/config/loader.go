// Package config loads the ghlink configuration from viper (defaults and
// config file) and gofulmen environment overrides into a typed Config.
package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	gfconfig "github.com/fulmenhq/gofulmen/config"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/ghlink/ghlink/internal/appid"
)

// Defaults applied before any file or environment layer.
const (
	DefaultBaseURL     = "https://api.github.com"
	DefaultUserAgent   = "ghlink"
	DefaultMaxRequests = 5000
)

var (
	appConfig *Config
	configMu  sync.RWMutex
)

// ErrMissingToken is returned by RequireToken when no GitHub credential is
// configured.
var ErrMissingToken = errors.New("github token is not configured (set GHLINK_GITHUB_TOKEN or GITHUB_TOKEN)")

// EnvVarSpec defines environment variable mappings for config fields
type EnvVarSpec = gfconfig.EnvVarSpec

// Environment variable types
const (
	EnvString = gfconfig.EnvString
	EnvInt    = gfconfig.EnvInt
	EnvBool   = gfconfig.EnvBool
)

// SetDefaults registers the default layer on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("github.token", "")
	v.SetDefault("github.base_url", DefaultBaseURL)
	v.SetDefault("github.user_agent", DefaultUserAgent)
	v.SetDefault("github.timeout", "30s")
	v.SetDefault("github.rate_limit.max_requests", DefaultMaxRequests)
	v.SetDefault("github.rate_limit.window", "1h")

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("store.enabled", true)
	v.SetDefault("store.driver", "libsql")
	v.SetDefault("store.path", "")
	v.SetDefault("store.url", "")
	v.SetDefault("store.auth_token", "")

	v.SetDefault("ailink.provider", "openrouter")
	v.SetDefault("ailink.base_url", "")
	v.SetDefault("ailink.api_key", "")
	v.SetDefault("ailink.model", "")
	v.SetDefault("ailink.timeout", "60s")
	v.SetDefault("ailink.max_tokens", 0)
	v.SetDefault("ailink.temperature", 0.0)
	v.SetDefault("ailink.referer", "")
	v.SetDefault("ailink.title", "ghlink")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.profile", "structured")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)

	v.SetDefault("health.enabled", true)
}

// Load decodes v's settings, applies environment and runtime overrides,
// validates the result and stores it as the process snapshot. A nil v uses
// the global viper instance.
func Load(ctx context.Context, v *viper.Viper, runtimeOverrides ...map[string]any) (*Config, error) {
	if v == nil {
		v = viper.GetViper()
	}
	SetDefaults(v)

	prefix := appid.EnvPrefix(ctx)
	envOverrides, err := gfconfig.LoadEnvOverrides(envSpecs(prefix))
	if err != nil {
		return nil, fmt.Errorf("failed to load environment overrides: %w", err)
	}
	applyFallbackEnv(prefix, envOverrides)

	merged := v.AllSettings()
	mergeInto(merged, envOverrides)
	for _, overrides := range runtimeOverrides {
		mergeInto(merged, overrides)
	}

	cfg, err := decode(merged)
	if err != nil {
		return nil, err
	}

	if cfg.Store.Enabled && strings.TrimSpace(cfg.Store.URL) == "" && strings.TrimSpace(cfg.Store.Path) == "" {
		cfg.Store.Path = DefaultStorePath(ctx)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	setConfig(cfg)
	return cfg, nil
}

func decode(settings map[string]any) (*Config, error) {
	cfg := &Config{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
			mapstructure.StringToFloat64HookFunc(),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := decoder.Decode(settings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

// Validate rejects settings the gateway cannot run with. The token is
// checked separately by RequireToken since some commands never reach GitHub.
func (c *Config) Validate() error {
	var problems []string

	limit := c.GitHub.RateLimit
	if limit.MaxRequests <= 0 {
		problems = append(problems, fmt.Sprintf("github.rate_limit.max_requests must be positive, got %d", limit.MaxRequests))
	}
	if limit.Window <= 0 {
		problems = append(problems, fmt.Sprintf("github.rate_limit.window must be positive, got %s", limit.Window))
	}
	if c.GitHub.Timeout <= 0 {
		problems = append(problems, fmt.Sprintf("github.timeout must be positive, got %s", c.GitHub.Timeout))
	}
	if parsed, err := url.Parse(c.GitHub.BaseURL); err != nil || parsed.Scheme == "" || parsed.Host == "" {
		problems = append(problems, fmt.Sprintf("github.base_url is not an absolute URL: %q", c.GitHub.BaseURL))
	}
	if c.Store.Enabled {
		switch strings.TrimSpace(c.Store.Driver) {
		case "", "libsql", "sqlite":
		default:
			problems = append(problems, fmt.Sprintf("store.driver must be libsql or sqlite, got %q", c.Store.Driver))
		}
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		problems = append(problems, fmt.Sprintf("server.port out of range: %d", c.Server.Port))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// RequireToken fails when no GitHub token is configured.
func (c *Config) RequireToken() error {
	if strings.TrimSpace(c.GitHub.Token) == "" {
		return ErrMissingToken
	}
	return nil
}

// GetConfig returns the snapshot stored by the last successful Load.
func GetConfig() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return appConfig
}

func setConfig(cfg *Config) {
	configMu.Lock()
	defer configMu.Unlock()
	appConfig = cfg
}

func envSpecs(prefix string) []EnvVarSpec {
	return []EnvVarSpec{
		// Duration fields stay strings; the decode hook converts them.
		{Name: prefix + "GITHUB_TOKEN", Path: []string{"github", "token"}, Type: EnvString},
		{Name: prefix + "GITHUB_BASE_URL", Path: []string{"github", "base_url"}, Type: EnvString},
		{Name: prefix + "GITHUB_USER_AGENT", Path: []string{"github", "user_agent"}, Type: EnvString},
		{Name: prefix + "GITHUB_TIMEOUT", Path: []string{"github", "timeout"}, Type: EnvString},
		{Name: prefix + "RATE_LIMIT_MAX_REQUESTS", Path: []string{"github", "rate_limit", "max_requests"}, Type: EnvInt},
		{Name: prefix + "RATE_LIMIT_WINDOW", Path: []string{"github", "rate_limit", "window"}, Type: EnvString},

		{Name: prefix + "HOST", Path: []string{"server", "host"}, Type: EnvString},
		{Name: prefix + "PORT", Path: []string{"server", "port"}, Type: EnvInt},
		{Name: prefix + "READ_TIMEOUT", Path: []string{"server", "read_timeout"}, Type: EnvString},
		{Name: prefix + "WRITE_TIMEOUT", Path: []string{"server", "write_timeout"}, Type: EnvString},
		{Name: prefix + "IDLE_TIMEOUT", Path: []string{"server", "idle_timeout"}, Type: EnvString},
		{Name: prefix + "SHUTDOWN_TIMEOUT", Path: []string{"server", "shutdown_timeout"}, Type: EnvString},
		{Name: prefix + "ADMIN_TOKEN", Path: []string{"server", "admin_token"}, Type: EnvString},

		{Name: prefix + "LOG_LEVEL", Path: []string{"logging", "level"}, Type: EnvString},
		{Name: prefix + "LOG_PROFILE", Path: []string{"logging", "profile"}, Type: EnvString},

		{Name: prefix + "DB_ENABLED", Path: []string{"store", "enabled"}, Type: EnvBool},
		{Name: prefix + "DB_DRIVER", Path: []string{"store", "driver"}, Type: EnvString},
		{Name: prefix + "DB_PATH", Path: []string{"store", "path"}, Type: EnvString},
		{Name: prefix + "DB_URL", Path: []string{"store", "url"}, Type: EnvString},
		{Name: prefix + "DB_AUTH_TOKEN", Path: []string{"store", "auth_token"}, Type: EnvString},

		{Name: prefix + "AILINK_PROVIDER", Path: []string{"ailink", "provider"}, Type: EnvString},
		{Name: prefix + "AILINK_BASE_URL", Path: []string{"ailink", "base_url"}, Type: EnvString},
		{Name: prefix + "AILINK_API_KEY", Path: []string{"ailink", "api_key"}, Type: EnvString},
		{Name: prefix + "AILINK_MODEL", Path: []string{"ailink", "model"}, Type: EnvString},
		{Name: prefix + "AILINK_TIMEOUT", Path: []string{"ailink", "timeout"}, Type: EnvString},
		{Name: prefix + "AILINK_MAX_TOKENS", Path: []string{"ailink", "max_tokens"}, Type: EnvInt},

		{Name: prefix + "METRICS_ENABLED", Path: []string{"metrics", "enabled"}, Type: EnvBool},
		{Name: prefix + "METRICS_PORT", Path: []string{"metrics", "port"}, Type: EnvInt},

		{Name: prefix + "HEALTH_ENABLED", Path: []string{"health", "enabled"}, Type: EnvBool},
	}
}

// applyFallbackEnv honours the conventional unprefixed GITHUB_TOKEN and
// OPENROUTER_API_KEY when the prefixed variables are unset.
func applyFallbackEnv(prefix string, envOverrides map[string]any) {
	fallbacks := []struct {
		prefixed string
		plain    string
		path     []string
	}{
		{prefix + "GITHUB_TOKEN", "GITHUB_TOKEN", []string{"github", "token"}},
		{prefix + "AILINK_API_KEY", "OPENROUTER_API_KEY", []string{"ailink", "api_key"}},
	}
	for _, fb := range fallbacks {
		if strings.TrimSpace(os.Getenv(fb.prefixed)) != "" {
			continue
		}
		value := strings.TrimSpace(os.Getenv(fb.plain))
		if value == "" {
			continue
		}
		parent := envOverrides
		for _, key := range fb.path[:len(fb.path)-1] {
			parent = ensureMap(parent, key)
		}
		parent[fb.path[len(fb.path)-1]] = value
	}
}

// mergeInto deep-merges src over dst. Nested maps merge; other values replace.
func mergeInto(dst, src map[string]any) {
	for key, value := range src {
		if nested, ok := value.(map[string]any); ok {
			mergeInto(ensureMap(dst, key), nested)
			continue
		}
		dst[key] = value
	}
}

func ensureMap(parent map[string]any, key string) map[string]any {
	if existing, ok := parent[key]; ok {
		if typed, ok := existing.(map[string]any); ok {
			return typed
		}
	}
	next := map[string]any{}
	parent[key] = next
	return next
}

// DefaultConfigPath returns the XDG-compliant path to the user config file.
func DefaultConfigPath(ctx context.Context) string {
	configDir := gfconfig.GetAppConfigDir(appid.ConfigName(ctx))
	if strings.TrimSpace(configDir) == "" {
		return ""
	}
	return filepath.Join(configDir, "config.yaml")
}

// DefaultStorePath returns the XDG-compliant path to the metadata database.
func DefaultStorePath(ctx context.Context) string {
	name := appid.ConfigName(ctx)
	dataDir := gfconfig.GetAppDataDir(name)
	if strings.TrimSpace(dataDir) == "" {
		return "./" + name + ".db"
	}
	return filepath.Join(dataDir, name+".db")
}
