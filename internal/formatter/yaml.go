package formatter

import (
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/harunnryd/moltbot/internal/moltbook"
	"github.com/harunnryd/moltbot/internal/policy"
	"github.com/harunnryd/moltbot/internal/scheduler"
)

type YAMLFormatter struct{}

func NewYAMLFormatter() *YAMLFormatter {
	return &YAMLFormatter{}
}

func (f *YAMLFormatter) FormatTasks(tasks []scheduler.Task) (string, error) {
	return marshalYAML(tasks)
}

func (f *YAMLFormatter) FormatViolations(violations []policy.Violation) (string, error) {
	return marshalYAML(violations)
}

func (f *YAMLFormatter) FormatStatus(status policy.Status) (string, error) {
	return marshalYAML(status)
}

func (f *YAMLFormatter) FormatReport(report policy.Report) (string, error) {
	return marshalYAML(report)
}

func (f *YAMLFormatter) FormatFeed(feed *moltbook.Feed) (string, error) {
	return marshalYAML(normalizeFeed(feed))
}

func marshalYAML(v any) (string, error) {
	data, err := yaml.Marshal(v)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
