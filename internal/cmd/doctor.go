package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/fulmenhq/gofulmen/crucible"
	"github.com/fulmenhq/gofulmen/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/ghlink/ghlink/internal/config"
	"github.com/ghlink/ghlink/internal/observability"
	"github.com/ghlink/ghlink/internal/tools"
)

var doctorOnline bool

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run diagnostic checks",
	Long: `Run diagnostic checks on the installation and configuration.

--online also calls GET /rate_limit to verify the token; that endpoint does
not count against the GitHub quota.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		log := observability.CLILogger
		identity := GetAppIdentity()

		log.Info("=== " + identity.BinaryName + " doctor ===")
		log.Info("")

		allChecks := true
		total := 7
		if doctorOnline {
			total++
		}
		step := 0
		next := func() int { step++; return step }

		goVersion := runtime.Version()
		log.Info(fmt.Sprintf("[%d/%d] Checking Go runtime... ✅ %s %s/%s", next(), total, goVersion, runtime.GOOS, runtime.GOARCH),
			zap.String("go_version", goVersion))

		version := crucible.GetVersion()
		if version.Gofulmen != "" && version.Crucible != "" {
			log.Info(fmt.Sprintf("[%d/%d] Checking Gofulmen/Crucible... ✅ gofulmen %s, crucible %s", next(), total, version.Gofulmen, version.Crucible))
		} else {
			log.Warn(fmt.Sprintf("[%d/%d] Checking Gofulmen/Crucible... ⚠️  version metadata unavailable", next(), total))
			allChecks = false
		}

		configPath := config.DefaultConfigPath(ctx)
		if configPath == "" {
			log.Warn(fmt.Sprintf("[%d/%d] Checking config file... ⚠️  cannot resolve config directory", next(), total))
			allChecks = false
		} else {
			log.Info(fmt.Sprintf("[%d/%d] Checking config file... ✅ %s (%s)", next(), total, configPath, existenceStatus(fileExists(configPath))),
				zap.String("config_path", configPath))
		}

		cfg, cfgErr := loadConfig(ctx)
		if cfgErr != nil {
			log.Error(fmt.Sprintf("[%d/%d] Checking configuration... ❌ %v", next(), total, cfgErr))
			log.Info("")
			log.Warn("⚠️  Remaining checks skipped: fix the configuration first.")
			return cfgErr
		}
		log.Info(fmt.Sprintf("[%d/%d] Checking configuration... ✅ %d requests per %s against %s",
			next(), total, cfg.GitHub.RateLimit.MaxRequests, cfg.GitHub.RateLimit.Window, cfg.GitHub.BaseURL))

		if cfg.RequireToken() == nil {
			log.Info(fmt.Sprintf("[%d/%d] Checking GitHub token... ✅ configured (%s)", next(), total, redact(cfg.GitHub.Token)))
		} else {
			prefix := identity.EnvPrefix
			log.Error(fmt.Sprintf("[%d/%d] Checking GitHub token... ❌ not set (%sGITHUB_TOKEN %s, GITHUB_TOKEN %s)",
				next(), total, prefix, envStatus(prefix+"GITHUB_TOKEN"), envStatus("GITHUB_TOKEN")))
			allChecks = false
		}

		checkStore(log, cfg, next(), total, &allChecks)

		if cfg.AILink.Enabled() {
			log.Info(fmt.Sprintf("[%d/%d] Checking AI provider... ✅ %s", next(), total, cfg.AILink.Provider))
		} else {
			log.Warn(fmt.Sprintf("[%d/%d] Checking AI provider... ⚠️  not configured (AI tools will report it)", next(), total))
		}

		if doctorOnline {
			n := next()
			if cfg.RequireToken() != nil {
				log.Warn(fmt.Sprintf("[%d/%d] Checking GitHub connectivity... ⚠️  skipped (no token)", n, total))
			} else if a, err := newApp(ctx, cfg, log); err != nil {
				log.Error(fmt.Sprintf("[%d/%d] Checking GitHub connectivity... ❌ %v", n, total, err))
				allChecks = false
			} else {
				result := a.registry.Invoke(tools.WithTransport(ctx, "cli"), "get_rate_limit", nil)
				_ = a.Close()
				if result.Success {
					log.Info(fmt.Sprintf("[%d/%d] Checking GitHub connectivity... ✅ token accepted", n, total))
				} else {
					log.Error(fmt.Sprintf("[%d/%d] Checking GitHub connectivity... ❌ %s (%s)", n, total, result.Error, result.Kind))
					allChecks = false
				}
			}
		}

		log.Info("")
		if allChecks {
			log.Info(fmt.Sprintf("✅ All checks passed! Your %s installation is healthy.", identity.BinaryName))
		} else {
			log.Warn("⚠️  Some checks failed. Review the output above for details.")
		}
		return nil
	},
}

func checkStore(log *logging.Logger, cfg *config.Config, n, total int, allChecks *bool) {
	switch {
	case !cfg.Store.Enabled:
		log.Info(fmt.Sprintf("[%d/%d] Checking database... ✅ disabled", n, total))
	case cfg.Store.URL != "":
		log.Info(fmt.Sprintf("[%d/%d] Checking database... ✅ %s (remote)", n, total, cfg.Store.URL))
	default:
		absPath, _ := filepath.Abs(cfg.Store.Path)
		info, err := os.Stat(absPath)
		switch {
		case err == nil:
			log.Info(fmt.Sprintf("[%d/%d] Checking database... ✅ %s (%s, %s)", n, total, absPath, cfg.Store.Driver, formatFileSize(info.Size())),
				zap.String("db_path", absPath))
		case os.IsNotExist(err):
			log.Info(fmt.Sprintf("[%d/%d] Checking database... ✅ %s (created on first use)", n, total, absPath))
		default:
			log.Warn(fmt.Sprintf("[%d/%d] Checking database... ⚠️  %s (error: %v)", n, total, absPath, err))
			*allChecks = false
		}
	}
}

var (
	doctorInitForce bool
	doctorInitToken string
)

var doctorInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := config.DefaultConfigPath(cmd.Context())
		if configPath == "" {
			return fmt.Errorf("config path not resolved")
		}
		if fileExists(configPath) && !doctorInitForce {
			return fmt.Errorf("config file already exists: %s (use --force to overwrite)", configPath)
		}

		token := strings.TrimSpace(doctorInitToken)
		if strings.EqualFold(token, "prompt") {
			value, err := promptForValue(cmd.InOrStdin(), cmd.ErrOrStderr(), "Enter GitHub token (leave blank to use GITHUB_TOKEN): ")
			if err != nil {
				return err
			}
			token = value
		}

		data, err := buildInitConfig(token)
		if err != nil {
			return err
		}

		if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
		mode := os.FileMode(0644)
		if token != "" {
			mode = 0600
		}
		if err := os.WriteFile(configPath, data, mode); err != nil {
			return fmt.Errorf("write config file: %w", err)
		}

		observability.CLILogger.Info("Config initialized", zap.String("path", configPath))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
	doctorCmd.AddCommand(doctorInitCmd)

	doctorCmd.Flags().BoolVar(&doctorOnline, "online", false, "verify the token against GitHub")
	doctorInitCmd.Flags().BoolVar(&doctorInitForce, "force", false, "overwrite existing config file")
	doctorInitCmd.Flags().StringVar(&doctorInitToken, "token", "", "GitHub token to store, or 'prompt' to enter it")
}

// buildInitConfig renders the default settings as YAML.
func buildInitConfig(token string) ([]byte, error) {
	github := map[string]any{
		"base_url": config.DefaultBaseURL,
		"timeout":  "30s",
		"rate_limit": map[string]any{
			"max_requests": config.DefaultMaxRequests,
			"window":       "1h",
		},
	}
	if token != "" {
		github["token"] = token
	}

	doc := map[string]any{
		"github":  github,
		"store":   map[string]any{"enabled": true, "driver": "libsql"},
		"server":  map[string]any{"host": "localhost", "port": 8080},
		"logging": map[string]any{"level": "info"},
	}
	body, err := yaml.Marshal(doc)
	if err != nil {
		return nil, err
	}
	header := "# ghlink config - created by 'ghlink doctor init'\n"
	if token == "" {
		header += "# github.token is read from GHLINK_GITHUB_TOKEN or GITHUB_TOKEN when unset here.\n"
	}
	return append([]byte(header), body...), nil
}

// redact keeps only the token's type prefix and last four characters.
func redact(token string) string {
	token = strings.TrimSpace(token)
	if len(token) <= 8 {
		return "****"
	}
	prefix := ""
	if i := strings.Index(token, "_"); i > 0 && i < 12 {
		prefix = token[:i+1]
	}
	return prefix + "****" + token[len(token)-4:]
}

// formatFileSize returns a human-readable file size
func formatFileSize(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)
	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/float64(GB))
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d bytes", bytes)
	}
}

func promptForValue(in io.Reader, out io.Writer, prompt string) (string, error) {
	if _, err := fmt.Fprint(out, prompt); err != nil {
		return "", err
	}
	reader := bufio.NewReader(in)
	value, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimSpace(value), nil
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

func existenceStatus(exists bool) string {
	if exists {
		return "exists"
	}
	return "missing"
}

func envStatus(name string) string {
	if strings.TrimSpace(os.Getenv(name)) != "" {
		return "(set)"
	}
	return "(not set)"
}
