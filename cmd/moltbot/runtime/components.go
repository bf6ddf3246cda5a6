package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/harunnryd/moltbot/internal/clock"
	"github.com/harunnryd/moltbot/internal/config"
	moltErrors "github.com/harunnryd/moltbot/internal/errors"
	"github.com/harunnryd/moltbot/internal/moltbook"
	"github.com/harunnryd/moltbot/internal/pathutil"
	"github.com/harunnryd/moltbot/internal/policy"
	"github.com/harunnryd/moltbot/internal/scheduler"
	"github.com/harunnryd/moltbot/internal/store"
)

// RuntimeComponents is the wired policy stack one CLI invocation works with.
type RuntimeComponents struct {
	Ctx    context.Context
	Cancel context.CancelFunc

	Config *config.Config
	Layout store.Layout

	PolicyPath   string
	PolicyLoaded bool

	Normalizer   *pathutil.Normalizer
	Violations   *policy.ViolationLog
	AuditSink    *policy.FileAuditSink
	PolicyEngine *policy.Engine
	Guard        *policy.Guard

	// escalatedAt holds the violation count at which the threshold was
	// crossed, or zero.
	escalatedAt atomic.Int64
}

func NewRuntimeComponents(ctx context.Context, cfg *config.Config, home string) (*RuntimeComponents, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)

	components := &RuntimeComponents{
		Ctx:    ctx,
		Cancel: cancel,
		Config: cfg,
	}

	layout, err := store.ResolveLayout(cfg.Workspace.Root, cfg.Workspace.StateDir)
	if err != nil {
		components.cleanup()
		return nil, fmt.Errorf("resolve state dir: %w", err)
	}
	components.Layout = layout

	if home == "" {
		home, err = pathutil.ResolveHomeDir()
		if err != nil {
			components.cleanup()
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
	}

	normalizer, err := pathutil.NewNormalizer(cfg.Workspace.Root, home)
	if err != nil {
		components.cleanup()
		return nil, fmt.Errorf("init path normalizer: %w", err)
	}
	components.Normalizer = normalizer

	auditPath, err := pathutil.ExpandUnder(normalizer.Root(), cfg.Security.AuditLog)
	if err != nil {
		components.cleanup()
		return nil, fmt.Errorf("resolve audit log path: %w", err)
	}

	opts := []policy.ViolationLogOption{
		policy.WithThresholdHook(func(count int) {
			components.escalatedAt.Store(int64(count))
		}),
	}
	if auditPath != "" {
		sink, err := policy.NewFileAuditSink(auditPath, cfg.Security.RedactPatterns...)
		if err != nil {
			components.cleanup()
			return nil, fmt.Errorf("init audit sink: %w", err)
		}
		components.AuditSink = sink
		opts = append(opts, policy.WithAuditSink(sink))
	}
	components.Violations = policy.NewViolationLog(cfg.Security.ViolationThreshold, opts...)

	components.PolicyPath, err = pathutil.ExpandUnder(normalizer.Root(), cfg.Security.PolicyPath)
	if err != nil {
		components.cleanup()
		return nil, fmt.Errorf("resolve policy path: %w", err)
	}
	if components.PolicyPath == "" {
		components.PolicyPath = layout.PolicyPath()
	}

	doc, loaded := policy.LoadDocumentOrDefault(components.PolicyPath)
	components.PolicyLoaded = loaded
	components.PolicyEngine = policy.NewEngine(doc, normalizer, components.Violations)
	components.Guard = policy.NewGuard(components.PolicyEngine)

	slog.Debug("Runtime initialized",
		"workspace", normalizer.Root(),
		"state_dir", layout.StateDir,
		"policy", components.PolicyPath,
		"policy_loaded", loaded)

	return components, nil
}

// ActionClient returns the dry-run client while safety.dry_run is on and a
// policy-guarded platform client otherwise.
func (c *RuntimeComponents) ActionClient() (moltbook.Platform, error) {
	if c.Config.Safety.DryRun {
		slog.Info("Dry run enabled, platform actions will only be logged")
		return moltbook.NewDryRunClient(), nil
	}

	mc := c.Config.Moltbook
	if strings.TrimSpace(mc.AuthToken) == "" {
		return nil, moltErrors.InvalidInput("moltbook.auth_token is required when dry run is disabled")
	}

	timeout, backoff, err := mc.Durations()
	if err != nil {
		return nil, err
	}

	return moltbook.NewClient(moltbook.Config{
		BaseURL:      mc.BaseURL,
		AuthToken:    mc.AuthToken,
		UserAgent:    userAgent(mc.AgentName),
		Timeout:      timeout,
		MaxAttempts:  mc.MaxAttempts,
		RetryBackoff: backoff,
		Policy:       c.PolicyEngine,
	})
}

// NewScheduler binds a scheduler to the runtime context and action client.
func (c *RuntimeComponents) NewScheduler(clk clock.Clock) (*scheduler.Scheduler, error) {
	client, err := c.ActionClient()
	if err != nil {
		return nil, err
	}
	return scheduler.NewScheduler(c.Ctx, client, clk), nil
}

// RecordedViolations prefers the audit mirror, which outlives the process.
func (c *RuntimeComponents) RecordedViolations() ([]policy.Violation, error) {
	if c.AuditSink == nil {
		return c.PolicyEngine.Violations(), nil
	}
	return policy.ReadAuditLog(c.AuditSink.Path())
}

// Escalated reports whether this process recorded more violations than the
// configured threshold, and the count at which that happened.
func (c *RuntimeComponents) Escalated() (int, bool) {
	count := c.escalatedAt.Load()
	return int(count), count > 0
}

func (c *RuntimeComponents) Stop() {
	c.cleanup()
}

func (c *RuntimeComponents) cleanup() {
	if c.Cancel != nil {
		c.Cancel()
	}
}

func userAgent(agentName string) string {
	name := strings.TrimSpace(agentName)
	if name == "" || name == config.DefaultMoltbookAgentName {
		return moltbook.DefaultUserAgent
	}
	return name + "/1.0"
}
