package config

import (
	"fmt"
	"strings"
	"time"

	moltErrors "github.com/harunnryd/moltbot/internal/errors"
)

// SchedulerTimings is SchedulerConfig with its duration strings parsed.
type SchedulerTimings struct {
	LockTimeout  time.Duration
	LockRetry    time.Duration
	PollInterval time.Duration
	StaleLockTTL time.Duration
}

// Timings parses every scheduler duration, substituting the default for
// empty values.
func (c SchedulerConfig) Timings() (SchedulerTimings, error) {
	var t SchedulerTimings
	var err error

	if t.LockTimeout, err = parseDuration("scheduler.lock_timeout", c.LockTimeout, DefaultSchedulerLockTimeout); err != nil {
		return SchedulerTimings{}, err
	}
	if t.LockRetry, err = parseDuration("scheduler.lock_retry", c.LockRetry, DefaultSchedulerLockRetry); err != nil {
		return SchedulerTimings{}, err
	}
	if t.PollInterval, err = parseDuration("scheduler.poll_interval", c.PollInterval, DefaultSchedulerPollInterval); err != nil {
		return SchedulerTimings{}, err
	}
	if t.StaleLockTTL, err = parseDuration("scheduler.stale_lock_ttl", c.StaleLockTTL, DefaultSchedulerStaleLockTTL); err != nil {
		return SchedulerTimings{}, err
	}
	return t, nil
}

// Durations returns the per-attempt timeout and the initial retry backoff.
func (c MoltbookConfig) Durations() (timeout, backoff time.Duration, err error) {
	if timeout, err = parseDuration("moltbook.timeout", c.Timeout, DefaultMoltbookTimeout); err != nil {
		return 0, 0, err
	}
	if backoff, err = parseDuration("moltbook.retry_backoff", c.RetryBackoff, DefaultMoltbookRetryBackoff); err != nil {
		return 0, 0, err
	}
	return timeout, backoff, nil
}

// parseDuration rejects malformed and negative values, naming the key.
func parseDuration(key, value, fallback string) (time.Duration, error) {
	candidate := strings.TrimSpace(value)
	if candidate == "" {
		candidate = fallback
	}

	d, err := time.ParseDuration(candidate)
	if err != nil {
		return 0, moltErrors.InvalidInput(fmt.Sprintf("%s: parse duration %q: %v", key, candidate, err))
	}
	if d < 0 {
		return 0, moltErrors.InvalidInput(fmt.Sprintf("%s: duration %q is negative", key, candidate))
	}
	return d, nil
}
