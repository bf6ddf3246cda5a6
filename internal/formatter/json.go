package formatter

import (
	"encoding/json"

	"github.com/harunnryd/moltbot/internal/moltbook"
	"github.com/harunnryd/moltbot/internal/policy"
	"github.com/harunnryd/moltbot/internal/scheduler"
)

type JSONFormatter struct{}

func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

func (f *JSONFormatter) FormatTasks(tasks []scheduler.Task) (string, error) {
	if tasks == nil {
		tasks = []scheduler.Task{}
	}
	return marshalJSON(tasks)
}

func (f *JSONFormatter) FormatViolations(violations []policy.Violation) (string, error) {
	if violations == nil {
		violations = []policy.Violation{}
	}
	return marshalJSON(violations)
}

func (f *JSONFormatter) FormatStatus(status policy.Status) (string, error) {
	return marshalJSON(status)
}

func (f *JSONFormatter) FormatReport(report policy.Report) (string, error) {
	return marshalJSON(report)
}

func (f *JSONFormatter) FormatFeed(feed *moltbook.Feed) (string, error) {
	return marshalJSON(normalizeFeed(feed))
}

func marshalJSON(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
