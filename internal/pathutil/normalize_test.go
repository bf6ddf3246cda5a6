package pathutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestNormalizer(t *testing.T) *Normalizer {
	t.Helper()
	n, err := NewNormalizer("/work/agent", "/home/molt")
	require.NoError(t, err)
	return n
}

func TestNormalizer_Normalize(t *testing.T) {
	n := newTestNormalizer(t)

	tests := []struct {
		in   string
		want string
	}{
		{"src/config.ts", "/work/agent/src/config.ts"},
		{"./src/../docs/a.md", "/work/agent/docs/a.md"},
		{"~/.ssh/id_rsa", "/home/molt/.ssh/id_rsa"},
		{"~", "/home/molt"},
		{"~other/file", "/work/agent/~other/file"},
		{"../outside.txt", "/work/outside.txt"},
		{"/etc//passwd", "/etc/passwd"},
		{"", "/work/agent"},
		{"logs/", "/work/agent/logs"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, filepath.FromSlash(tt.want), n.Normalize(tt.in))
		})
	}
}

func TestNormalizer_Idempotent(t *testing.T) {
	n := newTestNormalizer(t)

	inputs := []string{
		"", ".", "..", "~", "~/", "~/a/../b", "~user/x", "a/./b/", "../../x",
		"/abs//x/./y/..", "src/**/*", "~/.aws/**", "logs/test.log", "a/~/b",
	}
	for _, in := range inputs {
		once := n.Normalize(in)
		assert.Equal(t, once, n.Normalize(once), "input %q", in)
	}
}

func TestNormalizer_Contains(t *testing.T) {
	n := newTestNormalizer(t)

	assert.True(t, n.Contains(n.Normalize("src/config.ts")))
	assert.True(t, n.Contains(n.Root()))
	assert.False(t, n.Contains(n.Normalize("~/Documents/test.txt")))
	assert.False(t, n.Contains(n.Normalize("/work/agent-evil/x")))
	assert.False(t, n.Contains(n.Normalize("../sibling")))
}

func TestNewNormalizer_RequiresRoot(t *testing.T) {
	_, err := NewNormalizer("  ", "/home/molt")
	require.Error(t, err)
}

func TestNormalizer_EmptyHomeDisablesExpansion(t *testing.T) {
	n, err := NewNormalizer("/work/agent", "")
	require.NoError(t, err)
	assert.Equal(t, filepath.FromSlash("/work/agent/~/.ssh"), n.Normalize("~/.ssh"))
}
