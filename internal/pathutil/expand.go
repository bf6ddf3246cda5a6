package pathutil

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"
)

// Expand resolves environment variables and a leading home marker in a
// configured path. The marker follows the same rule as Normalize: "~" alone
// or followed by a separator. "~user/x" is left untouched.
func Expand(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", nil
	}

	expanded := os.ExpandEnv(trimmed)
	if isHomeRef(expanded) {
		home, err := ResolveHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		expanded = home + expanded[1:]
	}

	return filepath.Clean(expanded), nil
}

// ExpandUnder expands path and anchors a relative result at base. An empty
// path yields "".
func ExpandUnder(base, path string) (string, error) {
	expanded, err := Expand(path)
	if err != nil || expanded == "" {
		return expanded, err
	}
	if filepath.IsAbs(expanded) {
		return expanded, nil
	}
	return filepath.Join(base, expanded), nil
}

// ResolveHomeDir returns the current user's home directory. Candidates that
// still carry an unexpanded "~" are skipped.
func ResolveHomeDir() (string, error) {
	if home, err := os.UserHomeDir(); err == nil && usableHome(home) {
		return strings.TrimSpace(home), nil
	}
	if current, err := user.Current(); err == nil && usableHome(current.HomeDir) {
		return strings.TrimSpace(current.HomeDir), nil
	}

	envHome := strings.TrimSpace(os.Getenv("HOME"))
	switch {
	case envHome == "":
		return "", fmt.Errorf("HOME is not set")
	case !usableHome(envHome):
		return "", fmt.Errorf("HOME is not fully resolved: %s", envHome)
	default:
		return envHome, nil
	}
}

func usableHome(dir string) bool {
	trimmed := strings.TrimSpace(dir)
	return trimmed != "" && !isHomeRef(trimmed)
}
