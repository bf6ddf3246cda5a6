package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/harunnryd/moltbot/internal/moltbook"
	"github.com/harunnryd/moltbot/internal/policy"
	"github.com/harunnryd/moltbot/internal/scheduler"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"
)

type TableFormatter struct {
	headerStyle  lipgloss.Style
	cellStyle    lipgloss.Style
	oddRowStyle  lipgloss.Style
	evenRowStyle lipgloss.Style
	borderStyle  lipgloss.Style
}

func NewTableFormatter() *TableFormatter {
	purple := lipgloss.Color("99")
	gray := lipgloss.Color("245")
	lightGray := lipgloss.Color("241")

	return &TableFormatter{
		headerStyle: lipgloss.NewStyle().
			Foreground(purple).
			Bold(true).
			Align(lipgloss.Center).
			Padding(0, 1),
		cellStyle: lipgloss.NewStyle().
			Padding(0, 1),
		oddRowStyle: lipgloss.NewStyle().
			Foreground(gray).
			Padding(0, 1),
		evenRowStyle: lipgloss.NewStyle().
			Foreground(lightGray).
			Padding(0, 1),
		borderStyle: lipgloss.NewStyle().
			Foreground(purple),
	}
}

func (f *TableFormatter) list(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(f.borderStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return f.headerStyle
			case row%2 == 0:
				return f.evenRowStyle
			default:
				return f.oddRowStyle
			}
		}).
		Headers(headers...)
}

func (f *TableFormatter) keyValue() *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(f.borderStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if col == 0 {
				return f.headerStyle
			}
			return f.cellStyle
		})
}

func (f *TableFormatter) FormatTasks(tasks []scheduler.Task) (string, error) {
	if len(tasks) == 0 {
		return "No tasks found", nil
	}

	t := f.list("ID", "Kind", "Scheduled For", "Status", "Detail")
	for _, task := range tasks {
		t.Row(
			task.ID,
			string(task.Kind),
			formatTime(task.ScheduledFor),
			string(task.Status),
			truncateString(taskDetail(task), 40),
		)
	}
	return t.String(), nil
}

func taskDetail(task scheduler.Task) string {
	switch {
	case task.Error != "":
		return task.Error
	case task.ResultID != "":
		return "result " + task.ResultID
	case task.Post != nil:
		return fmt.Sprintf("%s: %s", task.Post.Submolt, task.Post.Title)
	case task.Comment != nil:
		return fmt.Sprintf("on %s: %s", task.Comment.PostID, task.Comment.Body)
	default:
		return ""
	}
}

func (f *TableFormatter) FormatViolations(violations []policy.Violation) (string, error) {
	if len(violations) == 0 {
		return "No violations recorded", nil
	}

	t := f.list("#", "Kind", "Target", "At")
	for i, v := range violations {
		t.Row(
			fmt.Sprintf("%d", i+1),
			string(v.Kind),
			truncateString(v.Target, 50),
			formatTime(v.At),
		)
	}
	return t.String(), nil
}

func (f *TableFormatter) FormatStatus(status policy.Status) (string, error) {
	t := f.keyValue()
	t.Row("Enabled", fmt.Sprintf("%t", status.Enabled))
	t.Row("Strict Mode", fmt.Sprintf("%t", status.StrictMode))
	t.Row("Violations", fmt.Sprintf("%d", status.ViolationCount))
	t.Row("Workspace", status.WorkspaceRoot)
	return t.String(), nil
}

func (f *TableFormatter) FormatReport(report policy.Report) (string, error) {
	status, err := f.FormatStatus(report.Status)
	if err != nil {
		return "", err
	}
	violations, err := f.FormatViolations(report.Violations)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(status)
	b.WriteString("\n")
	b.WriteString(violations)
	b.WriteString("\n")
	if len(report.Recommendations) == 0 {
		b.WriteString("No recommendations")
		return b.String(), nil
	}
	b.WriteString("Recommendations:")
	for _, r := range report.Recommendations {
		b.WriteString("\n  - ")
		b.WriteString(r)
	}
	return b.String(), nil
}

func (f *TableFormatter) FormatFeed(feed *moltbook.Feed) (string, error) {
	feed = normalizeFeed(feed)
	if len(feed.Posts) == 0 {
		return "No posts found", nil
	}

	t := f.list("ID", "Submolt", "Title", "Author", "Votes", "Comments")
	for _, p := range feed.Posts {
		t.Row(
			p.ID,
			p.Submolt,
			truncateString(p.Title, 40),
			p.Author,
			fmt.Sprintf("%d", p.Votes),
			fmt.Sprintf("%d", p.CommentCount),
		)
	}

	out := t.String()
	if feed.NextCursor != "" {
		out += "\nNext cursor: " + feed.NextCursor
	}
	return out, nil
}

// normalizeFeed guarantees a non-nil feed with a non-nil post list.
func normalizeFeed(feed *moltbook.Feed) *moltbook.Feed {
	if feed == nil {
		return &moltbook.Feed{Posts: []moltbook.Post{}}
	}
	if feed.Posts == nil {
		clone := *feed
		clone.Posts = []moltbook.Post{}
		return &clone
	}
	return feed
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(time.DateTime)
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
