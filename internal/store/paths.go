package store

import (
	"path/filepath"
	"strings"

	"github.com/harunnryd/moltbot/internal/pathutil"
)

// StateDirName is the default state directory created under the workspace root.
const StateDirName = ".moltbot"

// Layout locates every file the agent keeps under its state directory.
type Layout struct {
	StateDir string
}

// ResolveLayout resolves stateDir against workspaceRoot. An empty stateDir
// means "<workspaceRoot>/.moltbot".
func ResolveLayout(workspaceRoot, stateDir string) (Layout, error) {
	root, err := pathutil.Expand(strings.TrimSpace(workspaceRoot))
	if err != nil {
		return Layout{}, err
	}
	root, err = filepath.Abs(root)
	if err != nil {
		return Layout{}, err
	}

	dir, err := pathutil.ExpandUnder(root, stateDir)
	if err != nil {
		return Layout{}, err
	}
	if dir == "" {
		dir = filepath.Join(root, StateDirName)
	}
	return Layout{StateDir: filepath.Clean(dir)}, nil
}

// PolicyPath is the default policy document location.
func (l Layout) PolicyPath() string {
	return filepath.Join(l.StateDir, "security", "sandbox.json")
}

// AuditLogPath is the default JSON-lines violation mirror.
func (l Layout) AuditLogPath() string {
	return filepath.Join(l.StateDir, "security", "violations.jsonl")
}

// LockPath is the workspace lock held by a foreground scheduler.
func (l Layout) LockPath() string {
	return filepath.Join(l.StateDir, "workspace.lock")
}

// ReportPath is where the last scheduling session's tasks are written.
func (l Layout) ReportPath() string {
	return filepath.Join(l.StateDir, "scheduler", "tasks.json")
}
