package pathutil

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Normalizer canonicalizes paths against a fixed workspace root so that every
// policy comparison operates on absolute, cleaned strings. It performs no I/O
// after construction.
type Normalizer struct {
	root string
	home string
}

// NewNormalizer captures the workspace root (made absolute) and the home
// directory used to expand a leading "~". An empty homeDir disables expansion.
func NewNormalizer(workspaceRoot, homeDir string) (*Normalizer, error) {
	root := strings.TrimSpace(workspaceRoot)
	if root == "" {
		return nil, fmt.Errorf("workspace root is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve workspace root: %w", err)
	}

	home := strings.TrimSpace(homeDir)
	if home != "" {
		home = filepath.Clean(home)
	}

	return &Normalizer{root: abs, home: home}, nil
}

// Root returns the absolute workspace root.
func (n *Normalizer) Root() string {
	return n.root
}

// Normalize expands a leading home marker, resolves relative paths against
// the workspace root and collapses "." and ".." segments.
// Normalize(Normalize(p)) == Normalize(p) for every p.
func (n *Normalizer) Normalize(path string) string {
	p := path
	if n.home != "" && isHomeRef(p) {
		p = n.home + p[1:]
	}
	if !filepath.IsAbs(p) {
		p = filepath.Join(n.root, p)
	}
	return filepath.Clean(p)
}

// Contains reports whether an already normalized path is the workspace root
// or lies beneath it. A sibling such as "<root>-other" is not contained.
func (n *Normalizer) Contains(normalized string) bool {
	if normalized == n.root {
		return true
	}
	prefix := n.root
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(normalized, prefix)
}

func isHomeRef(p string) bool {
	if p == "~" {
		return true
	}
	return strings.HasPrefix(p, "~/") || strings.HasPrefix(p, "~"+string(filepath.Separator))
}
