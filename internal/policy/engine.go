package policy

import (
	"log/slog"
	"net/url"
	"strings"

	"github.com/harunnryd/moltbot/internal/glob"
	"github.com/harunnryd/moltbot/internal/pathutil"
)

// Kind names the reason a check was denied.
type Kind string

const (
	KindRead                  Kind = "read"
	KindReadOutsideWorkspace  Kind = "read-outside-workspace"
	KindReadNotAllowed        Kind = "read-not-allowed"
	KindWrite                 Kind = "write"
	KindWriteOutsideWorkspace Kind = "write-outside-workspace"
	KindWriteNotAllowed       Kind = "write-not-allowed"
	KindExecuteBlocked        Kind = "execute-blocked"
	KindExecuteNotAllowed     Kind = "execute-not-allowed"
	KindNetworkDisabled       Kind = "network-disabled"
	KindNetworkInvalidURL     Kind = "network-invalid-url"
	KindNetworkBlocked        Kind = "network-blocked"
	KindNetworkNotAllowed     Kind = "network-not-allowed"
)

// Status is a read-only snapshot of the engine.
type Status struct {
	Enabled        bool   `json:"enabled" yaml:"enabled"`
	StrictMode     bool   `json:"strictMode" yaml:"strictMode"`
	ViolationCount int    `json:"violationCount" yaml:"violationCount"`
	WorkspaceRoot  string `json:"workspaceRoot" yaml:"workspaceRoot"`
}

// Engine answers capability questions against an immutable Document.
// Every check fails closed: anything not explicitly allowed is denied and
// recorded in the violation log. Engine is safe for concurrent use.
type Engine struct {
	doc        *Document
	normalizer *pathutil.Normalizer
	violations *ViolationLog

	readAllowed  glob.Set
	writeAllowed glob.Set
	blocked      glob.Set
}

func NewEngine(doc *Document, normalizer *pathutil.Normalizer, violations *ViolationLog) *Engine {
	if doc == nil {
		doc = DefaultDocument()
	}
	if violations == nil {
		violations = NewViolationLog(DefaultViolationThreshold)
	}

	doc = doc.Clone()
	e := &Engine{
		doc:          doc,
		normalizer:   normalizer,
		violations:   violations,
		readAllowed:  glob.CompileAll(doc.AllowedPaths.Read, normalizer),
		writeAllowed: glob.CompileAll(doc.AllowedPaths.Write, normalizer),
		blocked:      glob.CompileAll(doc.BlockedPaths.Paths, normalizer),
	}

	if doc.Security.Enabled {
		slog.Info("Sandbox mode enabled",
			"workspace", normalizer.Root(),
			"strict", doc.Security.StrictMode,
			"isolated", doc.Security.IsolatedWorkspace)
	} else {
		slog.Warn("Sandbox mode disabled, all operations allowed")
	}

	return e
}

func (e *Engine) CanRead(path string) bool {
	return e.checkPath(path, e.readAllowed, KindRead, KindReadOutsideWorkspace, KindReadNotAllowed)
}

func (e *Engine) CanWrite(path string) bool {
	return e.checkPath(path, e.writeAllowed, KindWrite, KindWriteOutsideWorkspace, KindWriteNotAllowed)
}

// checkPath applies blocklist, then containment, then allowlist, then default
// deny. Violations carry the normalized path that was judged.
func (e *Engine) checkPath(path string, allowed glob.Set, blockedKind, outsideKind, notAllowedKind Kind) bool {
	if !e.doc.Security.Enabled {
		return true
	}

	normalized := e.normalizer.Normalize(path)

	if e.blocked.Match(normalized) {
		e.violations.Record(blockedKind, normalized)
		return false
	}

	if e.doc.Security.IsolatedWorkspace && !e.normalizer.Contains(normalized) {
		e.violations.Record(outsideKind, normalized)
		return false
	}

	if allowed.Match(normalized) {
		return true
	}

	e.violations.Record(notAllowedKind, normalized)
	return false
}

// CanExecute denies any command containing a blocked substring, then allows
// commands starting with an allowed prefix. allowedPaths.execute is not consulted.
func (e *Engine) CanExecute(command string) bool {
	if !e.doc.Security.Enabled {
		return true
	}

	for _, blocked := range e.doc.AllowedCommands.BlockedCommands {
		if strings.Contains(command, blocked) {
			e.violations.Record(KindExecuteBlocked, command)
			return false
		}
	}

	for _, allowed := range e.doc.AllowedCommands.Commands {
		if strings.HasPrefix(command, allowed) {
			return true
		}
	}

	e.violations.Record(KindExecuteNotAllowed, command)
	return false
}

func (e *Engine) CanAccessNetwork(rawURL string) bool {
	if !e.doc.Security.Enabled {
		return true
	}

	if !e.doc.NetworkAccess.Enabled {
		e.violations.Record(KindNetworkDisabled, rawURL)
		return false
	}

	host, ok := parseHost(rawURL)
	if !ok {
		e.violations.Record(KindNetworkInvalidURL, rawURL)
		return false
	}

	for _, blocked := range e.doc.NetworkAccess.BlockedDomains {
		if domainMatches(host, blocked) {
			e.violations.Record(KindNetworkBlocked, rawURL)
			return false
		}
	}

	for _, allowed := range e.doc.NetworkAccess.AllowedDomains {
		if domainMatches(host, allowed) {
			return true
		}
	}

	e.violations.Record(KindNetworkNotAllowed, rawURL)
	return false
}

func parseHost(rawURL string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", false
	}
	host := strings.TrimSuffix(strings.ToLower(u.Hostname()), ".")
	if host == "" {
		return "", false
	}
	return host, true
}

// domainMatches is a suffix match on label boundaries. Entries are literal;
// "*" is not a wildcard.
func domainMatches(host, domain string) bool {
	d := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(domain)), ".")
	if d == "" {
		return false
	}
	return host == d || strings.HasSuffix(host, "."+d)
}

func (e *Engine) Status() Status {
	return Status{
		Enabled:        e.doc.Security.Enabled,
		StrictMode:     e.doc.Security.StrictMode,
		ViolationCount: e.violations.Count(),
		WorkspaceRoot:  e.normalizer.Root(),
	}
}

func (e *Engine) Violations() []Violation {
	return e.violations.List()
}

// Threshold is the violation count above which the engine escalates.
func (e *Engine) Threshold() int {
	return e.violations.Threshold()
}

// Document returns a copy of the policy in force.
func (e *Engine) Document() *Document {
	return e.doc.Clone()
}

// Normalize exposes the engine's path canonicalization to callers that must
// act on exactly the path that was checked.
func (e *Engine) Normalize(path string) string {
	return e.normalizer.Normalize(path)
}
