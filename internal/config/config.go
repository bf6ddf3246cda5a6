package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/harunnryd/moltbot/internal/pathutil"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type Config struct {
	Log       LogConfig       `koanf:"log"`
	Workspace WorkspaceConfig `koanf:"workspace"`
	Security  SecurityConfig  `koanf:"security"`
	Moltbook  MoltbookConfig  `koanf:"moltbook"`
	Safety    SafetyConfig    `koanf:"safety"`
	Scheduler SchedulerConfig `koanf:"scheduler"`
}

type LogConfig struct {
	Level string `koanf:"level"`
}

type WorkspaceConfig struct {
	// Root is the directory every relative policy path resolves against.
	Root string `koanf:"root"`
	// StateDir defaults to "<root>/.moltbot" when empty.
	StateDir string `koanf:"state_dir"`
}

type SecurityConfig struct {
	// PolicyPath defaults to "<state_dir>/security/sandbox.json" when empty.
	PolicyPath         string   `koanf:"policy_path"`
	ViolationThreshold int      `koanf:"violation_threshold"`
	AuditLog           string   `koanf:"audit_log"`
	RedactPatterns     []string `koanf:"redact_patterns"`
}

type MoltbookConfig struct {
	BaseURL      string `koanf:"base_url"`
	AuthToken    string `koanf:"auth_token"`
	AgentName    string `koanf:"agent_name"`
	Timeout      string `koanf:"timeout"`
	MaxAttempts  int    `koanf:"max_attempts"`
	RetryBackoff string `koanf:"retry_backoff"`
}

type SafetyConfig struct {
	DryRun bool `koanf:"dry_run"`
}

type SchedulerConfig struct {
	LockTimeout      string `koanf:"lock_timeout"`
	LockRetry        string `koanf:"lock_retry"`
	PollInterval     string `koanf:"poll_interval"`
	StaleLockTTL     string `koanf:"stale_lock_ttl"`
	ForceCleanupLock bool   `koanf:"force_cleanup_lock"`
}

const (
	DefaultLogLevel                   = "info"
	DefaultSecurityViolationThreshold = 10
	DefaultMoltbookBaseURL            = "https://www.moltbook.com"
	DefaultMoltbookAgentName          = "moltbot-agent"
	DefaultMoltbookTimeout            = "30s"
	DefaultMoltbookMaxAttempts        = 3
	DefaultMoltbookRetryBackoff       = "1s"
	DefaultSafetyDryRun               = true
	DefaultSchedulerLockTimeout       = "5s"
	DefaultSchedulerLockRetry         = "100ms"
	DefaultSchedulerPollInterval      = "500ms"
	DefaultSchedulerStaleLockTTL      = "15m"
	DefaultRedactPattern              = `token=[^&\s]+`

	envPrefix = "MOLTBOT_"
)

// flagKeys maps persistent CLI flags onto config keys.
var flagKeys = map[string]string{
	"log-level": "log.level",
	"workspace": "workspace.root",
	"state-dir": "workspace.state_dir",
	"policy":    "security.policy_path",
	"dry-run":   "safety.dry_run",
}

// Load merges hardcoded defaults, the YAML config file, MOLTBOT_* environment
// variables and finally command flags. cmd may be nil.
func Load(cmd *cobra.Command) (*Config, error) {
	k := koanf.New(".")

	workspaceRoot, err := os.Getwd()
	if err != nil {
		workspaceRoot = "."
	}

	defaults := map[string]interface{}{
		"log.level":                    DefaultLogLevel,
		"workspace.root":               workspaceRoot,
		"workspace.state_dir":          "",
		"security.policy_path":         "",
		"security.violation_threshold": DefaultSecurityViolationThreshold,
		"security.audit_log":           "",
		"security.redact_patterns":     []string{DefaultRedactPattern},
		"moltbook.base_url":            DefaultMoltbookBaseURL,
		"moltbook.auth_token":          "",
		"moltbook.agent_name":          DefaultMoltbookAgentName,
		"moltbook.timeout":             DefaultMoltbookTimeout,
		"moltbook.max_attempts":        DefaultMoltbookMaxAttempts,
		"moltbook.retry_backoff":       DefaultMoltbookRetryBackoff,
		"safety.dry_run":               DefaultSafetyDryRun,
		"scheduler.lock_timeout":       DefaultSchedulerLockTimeout,
		"scheduler.lock_retry":         DefaultSchedulerLockRetry,
		"scheduler.poll_interval":      DefaultSchedulerPollInterval,
		"scheduler.stale_lock_ttl":     DefaultSchedulerStaleLockTTL,
		"scheduler.force_cleanup_lock": false,
	}
	for key, value := range defaults {
		k.Set(key, value)
	}

	// Config file loading
	configPath := ""
	if cmd != nil {
		if flag := cmd.Flags().Lookup("config"); flag != nil {
			configPath = strings.TrimSpace(flag.Value.String())
		}
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, err
		}
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			globalPath := filepath.Join(home, ".moltbot", "config.yaml")
			if err := k.Load(file.Provider(globalPath), yaml.Parser()); err != nil {
				slog.Debug("Global config not found or invalid", "path", globalPath, "error", err)
			}
		}
	}

	// MOLTBOT_SECURITY_VIOLATION_THRESHOLD -> security.violation_threshold
	k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "_", ".", 1)
	}), nil)

	if cmd != nil {
		k.Load(posflag.ProviderWithFlag(cmd.Flags(), ".", k, func(f *pflag.Flag) (string, interface{}) {
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(cmd.Flags(), f)
		}), nil)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	if err := normalizePathFields(&cfg); err != nil {
		return nil, err
	}

	// Post-Process: the platform's well-known token variable fills a missing token.
	if cfg.Moltbook.AuthToken == "" {
		cfg.Moltbook.AuthToken = os.Getenv("MOLTBOOK_AUTH_TOKEN")
	}

	return &cfg, nil
}

func normalizePathFields(cfg *Config) error {
	if cfg == nil {
		return nil
	}

	root, err := expandConfiguredPath(cfg.Workspace.Root)
	if err != nil {
		return err
	}
	if root != "" {
		abs, err := filepath.Abs(root)
		if err != nil {
			return err
		}
		cfg.Workspace.Root = abs
	}

	for _, field := range []*string{&cfg.Workspace.StateDir, &cfg.Security.PolicyPath, &cfg.Security.AuditLog} {
		expanded, err := expandConfiguredPath(*field)
		if err != nil {
			return err
		}
		if expanded != "" {
			*field = expanded
		}
	}

	return nil
}

func expandConfiguredPath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", nil
	}
	return pathutil.Expand(path)
}
