package policy

import (
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/harunnryd/moltbot/internal/clock"
)

// DefaultViolationThreshold is the count above which the log signals an
// escalation.
const DefaultViolationThreshold = 10

type Violation struct {
	Kind   Kind      `json:"kind" yaml:"kind"`
	Target string    `json:"target" yaml:"target"`
	At     time.Time `json:"at" yaml:"at"`
}

// AuditSink receives every recorded violation. Sink failures are logged and
// never affect the decision that produced the violation.
type AuditSink interface {
	Append(v Violation) error
}

// ViolationLog is an append-only, in-memory record of denied checks.
type ViolationLog struct {
	mu          sync.RWMutex
	entries     []Violation
	threshold   int
	clock       clock.Clock
	sink        AuditSink
	onThreshold func(count int)
}

type ViolationLogOption func(*ViolationLog)

func WithClock(c clock.Clock) ViolationLogOption {
	return func(l *ViolationLog) {
		if c != nil {
			l.clock = c
		}
	}
}

func WithAuditSink(sink AuditSink) ViolationLogOption {
	return func(l *ViolationLog) {
		l.sink = sink
	}
}

// WithThresholdHook registers fn to run once, when the count first exceeds
// the threshold.
func WithThresholdHook(fn func(count int)) ViolationLogOption {
	return func(l *ViolationLog) {
		l.onThreshold = fn
	}
}

func NewViolationLog(threshold int, opts ...ViolationLogOption) *ViolationLog {
	if threshold <= 0 {
		threshold = DefaultViolationThreshold
	}
	l := &ViolationLog{
		threshold: threshold,
		clock:     clock.Real(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *ViolationLog) Record(kind Kind, target string) Violation {
	v := Violation{Kind: kind, Target: target, At: l.clock.Now()}

	l.mu.Lock()
	l.entries = append(l.entries, v)
	count := len(l.entries)
	l.mu.Unlock()

	slog.Warn("Security violation", "kind", string(kind), "target", target, "count", count)

	if l.sink != nil {
		if err := l.sink.Append(v); err != nil {
			slog.Error("Failed to append violation to audit sink", "error", err)
		}
	}

	if count == l.threshold+1 {
		slog.Error("Too many security violations, agent may be compromised", "count", count, "threshold", l.threshold)
		if l.onThreshold != nil {
			l.onThreshold(count)
		}
	}

	return v
}

func (l *ViolationLog) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// List returns a copy of the recorded violations in insertion order.
func (l *ViolationLog) List() []Violation {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.entries)
}

func (l *ViolationLog) Threshold() int {
	return l.threshold
}
