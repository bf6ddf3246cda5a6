package policy

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	moltErrors "github.com/harunnryd/moltbot/internal/errors"

	"github.com/google/shlex"
	"github.com/natefinch/atomic"
)

// Guard turns engine decisions into errors so callers can propagate a denial
// with the rest of their failures.
type Guard struct {
	engine *Engine
}

func NewGuard(engine *Engine) *Guard {
	return &Guard{engine: engine}
}

func (g *Guard) Read(path string) error {
	if !g.engine.CanRead(path) {
		return moltErrors.PermissionDenied(fmt.Sprintf("read access denied: %s", path))
	}
	return nil
}

func (g *Guard) Write(path string) error {
	if !g.engine.CanWrite(path) {
		return moltErrors.PermissionDenied(fmt.Sprintf("write access denied: %s", path))
	}
	return nil
}

func (g *Guard) Network(rawURL string) error {
	if !g.engine.CanAccessNetwork(rawURL) {
		return moltErrors.PermissionDenied(fmt.Sprintf("network access denied: %s", rawURL))
	}
	return nil
}

// Exec checks command and returns it split into argv.
func (g *Guard) Exec(command string) ([]string, error) {
	if !g.engine.CanExecute(command) {
		return nil, moltErrors.PermissionDenied(fmt.Sprintf("command execution denied: %s", command))
	}

	argv, err := shlex.Split(command)
	if err != nil {
		return nil, moltErrors.InvalidInput(fmt.Sprintf("invalid command %q: %v", command, err))
	}
	if len(argv) == 0 {
		return nil, moltErrors.InvalidInput("command is empty")
	}
	return argv, nil
}

func (g *Guard) ReadFile(path string) ([]byte, error) {
	if err := g.Read(path); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(g.engine.Normalize(path))
	if os.IsNotExist(err) {
		return nil, moltErrors.NotFound(fmt.Sprintf("file not found: %s", path))
	}
	return data, err
}

// WriteFile replaces the file atomically, creating parent directories.
func (g *Guard) WriteFile(path string, data []byte) error {
	if err := g.Write(path); err != nil {
		return err
	}

	target := g.engine.Normalize(path)
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	if err := atomic.WriteFile(target, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
