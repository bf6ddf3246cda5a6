package policy

import (
	"os"
	"path/filepath"
	"testing"

	moltErrors "github.com/harunnryd/moltbot/internal/errors"
	"github.com/harunnryd/moltbot/internal/pathutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTempGuard(t *testing.T) (*Guard, string) {
	t.Helper()
	root := t.TempDir()
	n, err := pathutil.NewNormalizer(root, t.TempDir())
	require.NoError(t, err)
	return NewGuard(NewEngine(nil, n, nil)), root
}

func TestGuard_WriteFileThenReadBack(t *testing.T) {
	guard, root := newTempGuard(t)

	require.NoError(t, guard.WriteFile("data/feed/latest.json", []byte(`{"ok":true}`)))

	raw, err := os.ReadFile(filepath.Join(root, "data", "feed", "latest.json"))
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, string(raw))
}

func TestGuard_ReadFile(t *testing.T) {
	guard, root := newTempGuard(t)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "docs"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "docs", "guide.md"), []byte("# guide"), 0644))

	data, err := guard.ReadFile("docs/guide.md")
	require.NoError(t, err)
	assert.Equal(t, "# guide", string(data))

	_, err = guard.ReadFile("docs/missing.md")
	assert.ErrorIs(t, err, moltErrors.ErrNotFound)
}

func TestGuard_DeniedOperationsDoNoIO(t *testing.T) {
	guard, root := newTempGuard(t)

	err := guard.WriteFile("src/index.ts", []byte("x"))
	assert.ErrorIs(t, err, moltErrors.ErrPermissionDenied)
	_, statErr := os.Stat(filepath.Join(root, "src", "index.ts"))
	assert.True(t, os.IsNotExist(statErr))

	_, err = guard.ReadFile("/etc/passwd")
	assert.ErrorIs(t, err, moltErrors.ErrPermissionDenied)
}

func TestGuard_Exec(t *testing.T) {
	guard, _ := newTempGuard(t)

	argv, err := guard.Exec(`npm run cli post --title "hello world"`)
	require.NoError(t, err)
	assert.Equal(t, []string{"npm", "run", "cli", "post", "--title", "hello world"}, argv)

	_, err = guard.Exec("sudo npm test")
	assert.ErrorIs(t, err, moltErrors.ErrPermissionDenied)

	_, err = guard.Exec(`npm test "unterminated`)
	assert.ErrorIs(t, err, moltErrors.ErrInvalidInput)
}

func TestGuard_Network(t *testing.T) {
	guard, _ := newTempGuard(t)

	assert.NoError(t, guard.Network("https://moltbook.com/api/v1/posts"))
	assert.ErrorIs(t, guard.Network("https://example.org"), moltErrors.ErrPermissionDenied)
	assert.ErrorIs(t, guard.Read("~/.aws/config"), moltErrors.ErrPermissionDenied)
	assert.NoError(t, guard.Write("logs/run.log"))
}

func TestGuard_WriteFileReplacesExisting(t *testing.T) {
	guard, root := newTempGuard(t)
	target := filepath.Join(root, "logs", "run.log")

	require.NoError(t, guard.WriteFile("logs/run.log", []byte("first")))
	require.NoError(t, guard.WriteFile("./logs/../logs/run.log", []byte("second")))

	raw, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "second", string(raw))

	entries, err := os.ReadDir(filepath.Dir(target))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestGuard_DeniedWriteRecordsNormalizedTarget(t *testing.T) {
	guard, root := newTempGuard(t)

	err := guard.WriteFile("../escape.txt", []byte("x"))
	assert.ErrorIs(t, err, moltErrors.ErrPermissionDenied)

	violations := guard.engine.Violations()
	require.Len(t, violations, 1)
	assert.Equal(t, KindWriteOutsideWorkspace, violations[0].Kind)
	assert.Equal(t, filepath.Join(filepath.Dir(root), "escape.txt"), violations[0].Target)

	_, statErr := os.Stat(filepath.Join(filepath.Dir(root), "escape.txt"))
	assert.True(t, os.IsNotExist(statErr))
}
