package glob

import (
	"path/filepath"
	"testing"

	"github.com/harunnryd/moltbot/internal/pathutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testNormalizer(t *testing.T) *pathutil.Normalizer {
	t.Helper()
	n, err := pathutil.NewNormalizer("/work/agent", "/home/molt")
	require.NoError(t, err)
	return n
}

func TestPatternMatch(t *testing.T) {
	n := testNormalizer(t)

	tests := []struct {
		name    string
		pattern string
		path    string
		want    bool
	}{
		{"exact relative", "README.md", "README.md", true},
		{"exact absolute", "/etc/hosts", "/etc/hosts", true},
		{"doublestar zero segments", "src/**/*", "src/config.ts", true},
		{"doublestar many segments", "src/**/*", "src/a/b/c/config.ts", true},
		{"doublestar other tree", "src/**/*", "docs/config.ts", false},
		{"trailing doublestar", "~/.ssh/**", "~/.ssh/id_rsa", true},
		{"trailing doublestar nested", "~/.aws/**", "~/.aws/sso/cache/token.json", true},
		{"single star same segment", "logs/*", "logs/app.log", true},
		{"single star stops at separator", "logs/*", "logs/2024/app.log", false},
		{"single star prefix", "logs/*.log", "logs/app.log", true},
		{"single star wrong ext", "logs/*.log", "logs/app.txt", false},
		{"question mark", "data/file?.csv", "data/file1.csv", true},
		{"question mark needs one char", "data/file?.csv", "data/file.csv", false},
		{"question mark stops at separator", "data/a?b.csv", "data/a/b.csv", false},
		{"brackets are literal", "data/[1]/*.csv", "data/[1]/x.csv", true},
		{"brackets are not a class", "data/[1]/*.csv", "data/1/x.csv", false},
		{"braces are literal", "data/{a,b}/*", "data/{a,b}/x", true},
		{"braces are not alternation", "data/{a,b}/*", "data/a/x", false},
		{"directory prefix rule", "logs/", "logs/app.log", true},
		{"parent directory rule", "src", "src/config.ts", true},
		{"parent rule needs separator", "src", "src-old/config.ts", false},
		{"no match", "docs/**/*", "src/config.ts", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Compile(tt.pattern, n)
			assert.Equal(t, tt.want, p.Match(n.Normalize(tt.path)))
		})
	}
}

func TestPatternMatchRootWithMetacharacters(t *testing.T) {
	roots := []struct {
		root string
		home string
	}{
		{"/tmp/proj[1]", "/home/dev[1]"},
		{"/tmp/proj{old}", "/home/dev{old}"},
		{"/tmp/proj{a,b}", "/home/dev{a,b}"},
		{`/tmp/proj\x`, `/home/dev\x`},
		{"/tmp/plain", "/home/dev"},
	}

	for _, r := range roots {
		t.Run(r.root, func(t *testing.T) {
			n, err := pathutil.NewNormalizer(r.root, r.home)
			require.NoError(t, err)

			assert.True(t, Compile("src/**/*", n).Match(n.Normalize("src/config.ts")))
			assert.True(t, Compile("logs/*.log", n).Match(n.Normalize("logs/app.log")))
			assert.True(t, Compile("data/file?.csv", n).Match(n.Normalize("data/file1.csv")))

			blocked := CompileAll([]string{"~/.ssh/**", "~/.aws/**"}, n)
			assert.True(t, blocked.Match(n.Normalize("~/.ssh/id_rsa")))
			assert.True(t, blocked.Match(filepath.Join(r.home, ".aws", "credentials")))
			assert.False(t, blocked.Match(n.Normalize("~/notes.txt")))
		})
	}
}

func TestDoubleStarCrossesSeparatorsSingleStarDoesNot(t *testing.T) {
	n := testNormalizer(t)
	path := n.Normalize("data/2024/06/report.json")

	assert.True(t, Compile("data/**/report.json", n).Match(path))
	assert.False(t, Compile("data/*/report.json", n).Match(path))
}

func TestSetMatchAny(t *testing.T) {
	n := testNormalizer(t)
	set := CompileAll([]string{"logs/**/*", "data/**/*"}, n)

	assert.True(t, set.Match(n.Normalize("data/x.json")))
	assert.True(t, set.Match(n.Normalize("logs/test.log")))
	assert.False(t, set.Match(n.Normalize("src/x.ts")))
	assert.False(t, Set(nil).Match(n.Normalize("anything")))

	assert.True(t, Matches(n.Normalize("logs/test.log"), []string{"logs/**/*"}, n))
}

func TestPatternKeepsRawForm(t *testing.T) {
	n := testNormalizer(t)
	p := Compile("src/**/*", n)
	assert.Equal(t, "src/**/*", p.String())
	assert.Equal(t, filepath.FromSlash("/work/agent/src/**/*"), p.normalized)
}

func TestValidate(t *testing.T) {
	require.NoError(t, Validate("src/**/*"))
	require.NoError(t, Validate("logs/"))
	require.NoError(t, Validate("src/[a-"))
	require.NoError(t, Validate("archive/{old}/**"))
	require.Error(t, Validate(""))
	require.Error(t, Validate("   "))
}

func TestHasWildcard(t *testing.T) {
	assert.True(t, HasWildcard("src/*"))
	assert.True(t, HasWildcard("file?.txt"))
	assert.False(t, HasWildcard("src/"))
}
