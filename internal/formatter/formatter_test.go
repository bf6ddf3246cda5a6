package formatter

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/harunnryd/moltbot/internal/moltbook"
	"github.com/harunnryd/moltbot/internal/policy"
	"github.com/harunnryd/moltbot/internal/scheduler"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

var testTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func sampleTasks() []scheduler.Task {
	return []scheduler.Task{
		{
			ID:           "post_01HZX",
			Kind:         scheduler.KindPost,
			Post:         &moltbook.PostData{Submolt: "general", Title: "Hello", Body: "first"},
			ScheduledFor: testTime,
			Status:       scheduler.StatusPending,
			CreatedAt:    testTime,
		},
		{
			ID:           "comment_01HZY",
			Kind:         scheduler.KindComment,
			Comment:      &moltbook.CommentData{PostID: "p1", Body: "nice"},
			ScheduledFor: testTime,
			Status:       scheduler.StatusFailed,
			CreatedAt:    testTime,
			Error:        "rate limited",
		},
	}
}

func sampleViolations() []policy.Violation {
	return []policy.Violation{
		{Kind: policy.KindRead, Target: "~/.ssh/id_rsa", At: testTime},
		{Kind: policy.KindNetworkNotAllowed, Target: "https://malicious.com", At: testTime},
	}
}

func TestFormatterFactory_Create(t *testing.T) {
	factory := NewFormatterFactory()

	tests := []struct {
		name    string
		format  OutputFormat
		wantErr bool
	}{
		{name: "table format", format: OutputFormatTable},
		{name: "json format", format: OutputFormatJSON},
		{name: "yaml format", format: OutputFormatYAML},
		{name: "invalid format", format: OutputFormat("invalid"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := factory.Create(tt.format)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, f)
		})
	}
}

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    OutputFormat
		wantErr bool
	}{
		{input: "table", want: OutputFormatTable},
		{input: "JSON", want: OutputFormatJSON},
		{input: " yaml ", want: OutputFormatYAML},
		{input: "xml", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseOutputFormat(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestJSONFormatter_FormatTasks(t *testing.T) {
	out, err := NewJSONFormatter().FormatTasks(sampleTasks())
	require.NoError(t, err)

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "post_01HZX", decoded[0]["id"])
	assert.Equal(t, "rate limited", decoded[1]["error"])
	assert.Contains(t, decoded[0], "scheduled_for")
}

func TestJSONFormatter_EmptyListsRenderAsArrays(t *testing.T) {
	f := NewJSONFormatter()

	out, err := f.FormatTasks(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", out)

	out, err = f.FormatViolations(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", out)
}

func TestYAMLFormatter_FormatViolations(t *testing.T) {
	out, err := NewYAMLFormatter().FormatViolations(sampleViolations())
	require.NoError(t, err)

	var decoded []map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "read", decoded[0]["kind"])
	assert.Equal(t, "https://malicious.com", decoded[1]["target"])
}

func TestTableFormatter_FormatTasks(t *testing.T) {
	f := NewTableFormatter()

	out, err := f.FormatTasks(sampleTasks())
	require.NoError(t, err)
	assert.Contains(t, out, "post_01HZX")
	assert.Contains(t, out, "general: Hello")
	assert.Contains(t, out, "rate limited")

	out, err = f.FormatTasks(nil)
	require.NoError(t, err)
	assert.Equal(t, "No tasks found", out)
}

func TestTableFormatter_FormatViolations(t *testing.T) {
	f := NewTableFormatter()

	out, err := f.FormatViolations(sampleViolations())
	require.NoError(t, err)
	assert.Contains(t, out, "network-not-allowed")
	assert.Contains(t, out, "~/.ssh/id_rsa")

	out, err = f.FormatViolations(nil)
	require.NoError(t, err)
	assert.Equal(t, "No violations recorded", out)
}

func TestTableFormatter_FormatReport(t *testing.T) {
	report := policy.Report{
		Status:          policy.Status{Enabled: true, StrictMode: true, ViolationCount: 2, WorkspaceRoot: "/work/agent"},
		Violations:      sampleViolations(),
		Recommendations: []string{"2 security violations detected; review the violation log"},
	}

	out, err := NewTableFormatter().FormatReport(report)
	require.NoError(t, err)
	assert.Contains(t, out, "/work/agent")
	assert.Contains(t, out, "Recommendations:")
	assert.Contains(t, out, "review the violation log")
}

func TestEncode(t *testing.T) {
	doc := policy.DefaultDocument()

	out, err := Encode(OutputFormatJSON, doc)
	require.NoError(t, err)
	assert.Contains(t, out, `"isolatedWorkspace": true`)

	out, err = Encode(OutputFormatYAML, doc)
	require.NoError(t, err)
	assert.Contains(t, out, "isolatedWorkspace: true")

	_, err = Encode(OutputFormatTable, doc)
	assert.Error(t, err)
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", truncateString("short", 10))
	assert.Equal(t, "abcdefg...", truncateString("abcdefghijklmnop", 10))
}

func sampleFeed() *moltbook.Feed {
	return &moltbook.Feed{
		Posts: []moltbook.Post{
			{ID: "p1", Submolt: "art", Title: "Hello molts", Author: "scout", Votes: 3, CommentCount: 1},
		},
		NextCursor: "abc",
	}
}

func TestFormatFeed(t *testing.T) {
	out, err := NewTableFormatter().FormatFeed(sampleFeed())
	require.NoError(t, err)
	assert.Contains(t, out, "Hello molts")
	assert.Contains(t, out, "scout")
	assert.Contains(t, out, "Next cursor: abc")

	out, err = NewTableFormatter().FormatFeed(&moltbook.Feed{})
	require.NoError(t, err)
	assert.Equal(t, "No posts found", out)

	out, err = NewJSONFormatter().FormatFeed(nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"posts":[]}`, out)

	out, err = NewYAMLFormatter().FormatFeed(sampleFeed())
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "abc", decoded["nextCursor"])
	assert.Len(t, decoded["posts"], 1)
}
