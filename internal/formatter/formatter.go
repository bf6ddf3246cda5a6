package formatter

import (
	"fmt"
	"strings"

	"github.com/harunnryd/moltbot/internal/moltbook"
	"github.com/harunnryd/moltbot/internal/policy"
	"github.com/harunnryd/moltbot/internal/scheduler"
)

type OutputFormat string

const (
	OutputFormatTable OutputFormat = "table"
	OutputFormatJSON  OutputFormat = "json"
	OutputFormatYAML  OutputFormat = "yaml"
)

// Formatter renders the CLI's query results.
type Formatter interface {
	FormatTasks([]scheduler.Task) (string, error)
	FormatViolations([]policy.Violation) (string, error)
	FormatStatus(policy.Status) (string, error)
	FormatReport(policy.Report) (string, error)
	FormatFeed(*moltbook.Feed) (string, error)
}

type FormatterFactory struct{}

func NewFormatterFactory() *FormatterFactory {
	return &FormatterFactory{}
}

func (f *FormatterFactory) Create(format OutputFormat) (Formatter, error) {
	switch format {
	case OutputFormatTable:
		return NewTableFormatter(), nil
	case OutputFormatJSON:
		return NewJSONFormatter(), nil
	case OutputFormatYAML:
		return NewYAMLFormatter(), nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s (supported: table, json, yaml)", format)
	}
}

func ParseOutputFormat(s string) (OutputFormat, error) {
	format := OutputFormat(strings.ToLower(strings.TrimSpace(s)))
	switch format {
	case OutputFormatTable, OutputFormatJSON, OutputFormatYAML:
		return format, nil
	default:
		return "", fmt.Errorf("invalid output format: %s (supported: table, json, yaml)", s)
	}
}

// Encode renders an arbitrary value as JSON or YAML.
func Encode(format OutputFormat, v any) (string, error) {
	switch format {
	case OutputFormatJSON:
		return marshalJSON(v)
	case OutputFormatYAML:
		return marshalYAML(v)
	default:
		return "", fmt.Errorf("unsupported output format: %s (supported: json, yaml)", format)
	}
}
