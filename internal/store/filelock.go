package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	moltErrors "github.com/harunnryd/moltbot/internal/errors"

	"github.com/gofrs/flock"
)

const (
	DefaultLockTimeout = 5 * time.Second
	DefaultLockRetry   = 100 * time.Millisecond
)

// WorkspaceLock keeps a second foreground scheduler from running against the
// same state directory.
type WorkspaceLock struct {
	fileLock   *flock.Flock
	lockPath   string
	acquiredAt time.Time
	mu         sync.RWMutex
}

type LockConfig struct {
	Timeout time.Duration
	Retry   time.Duration
}

// AcquireWorkspaceLock polls for the lock until it is acquired, cfg.Timeout
// elapses or ctx ends. Contention is reported as ErrConflict.
func AcquireWorkspaceLock(ctx context.Context, lockPath string, cfg LockConfig) (*WorkspaceLock, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultLockTimeout
	}
	if cfg.Retry <= 0 {
		cfg.Retry = DefaultLockRetry
	}

	if err := os.MkdirAll(filepath.Dir(lockPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create lock dir: %w", err)
	}

	lockCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	fileLock := flock.New(lockPath)
	locked, err := fileLock.TryLockContext(lockCtx, cfg.Retry)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return nil, fmt.Errorf("lock acquisition failed: %w", err)
	}
	if !locked {
		return nil, moltErrors.Conflict(fmt.Sprintf("workspace is locked by another instance (%s, timeout after %v)", lockPath, cfg.Timeout))
	}

	wl := &WorkspaceLock{
		fileLock:   fileLock,
		lockPath:   lockPath,
		acquiredAt: time.Now(),
	}
	slog.Info("File lock acquired", "path", lockPath)
	return wl, nil
}

func (wl *WorkspaceLock) Unlock() {
	wl.mu.Lock()
	defer wl.mu.Unlock()

	if wl.fileLock == nil {
		slog.Warn("Workspace lock already released", "path", wl.lockPath)
		return
	}

	held := time.Since(wl.acquiredAt)
	if err := wl.fileLock.Unlock(); err != nil {
		slog.Error("Failed to release file lock", "path", wl.lockPath, "error", err)
	} else {
		slog.Info("File lock released", "path", wl.lockPath, "held_duration_ms", held.Milliseconds())
	}
	wl.fileLock = nil
}

func (wl *WorkspaceLock) IsLocked() bool {
	wl.mu.RLock()
	defer wl.mu.RUnlock()
	return wl.fileLock != nil
}

func (wl *WorkspaceLock) HeldDuration() time.Duration {
	wl.mu.RLock()
	defer wl.mu.RUnlock()
	if wl.fileLock == nil {
		return 0
	}
	return time.Since(wl.acquiredAt)
}

// CleanupStaleLock removes a lock file older than maxAge. Without force it
// only reports what it found.
func CleanupStaleLock(lockPath string, maxAge time.Duration, force bool) error {
	info, err := os.Stat(lockPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	age := time.Since(info.ModTime())
	if age <= maxAge {
		return nil
	}

	slog.Warn("Found stale lock file", "path", lockPath, "age", age, "max_age", maxAge)
	if !force {
		slog.Info("Stale lock detected but not cleaning (use --force-clean-lock to remove)", "path", lockPath)
		return nil
	}

	if err := os.Remove(lockPath); err != nil {
		slog.Error("Failed to remove stale lock file", "path", lockPath, "error", err)
		return err
	}
	slog.Info("Stale lock file removed", "path", lockPath)
	return nil
}
