package policy

import (
	"fmt"
	"log/slog"
	"strings"

	moltErrors "github.com/harunnryd/moltbot/internal/errors"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// LoadDocument reads a JSON or YAML policy file. Keys missing from the file
// keep their built-in default; lists present in the file replace the
// default list entirely.
func LoadDocument(path string) (*Document, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, moltErrors.InvalidInput("policy path is empty")
	}

	k := koanf.New(".")
	for key, value := range defaultDocumentValues() {
		k.Set(key, value)
	}

	// The YAML parser also accepts JSON documents.
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("load policy document %s: %w", path, err)
	}

	var doc Document
	if err := k.UnmarshalWithConf("", &doc, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, fmt.Errorf("decode policy document %s: %w", path, err)
	}

	if err := ValidateDocument(&doc); err != nil {
		return nil, fmt.Errorf("validate policy document %s: %w", path, err)
	}

	return &doc, nil
}

// LoadDocumentOrDefault never fails: an unreadable or invalid document is
// logged and replaced by DefaultDocument. The bool reports whether the file
// was used.
func LoadDocumentOrDefault(path string) (*Document, bool) {
	doc, err := LoadDocument(path)
	if err != nil {
		slog.Warn("Sandbox config not found or invalid, using defaults", "path", path, "error", err)
		return DefaultDocument(), false
	}
	slog.Debug("Sandbox config loaded", "path", path)
	return doc, true
}

func defaultDocumentValues() map[string]interface{} {
	d := DefaultDocument()
	return map[string]interface{}{
		"security.enabled":                     d.Security.Enabled,
		"security.strictMode":                  d.Security.StrictMode,
		"security.isolatedWorkspace":           d.Security.IsolatedWorkspace,
		"allowedPaths.read":                    d.AllowedPaths.Read,
		"allowedPaths.write":                   d.AllowedPaths.Write,
		"allowedPaths.execute":                 d.AllowedPaths.Execute,
		"blockedPaths.paths":                   d.BlockedPaths.Paths,
		"allowedCommands.commands":             d.AllowedCommands.Commands,
		"allowedCommands.blockedCommands":      d.AllowedCommands.BlockedCommands,
		"networkAccess.enabled":                d.NetworkAccess.Enabled,
		"networkAccess.allowedDomains":         d.NetworkAccess.AllowedDomains,
		"networkAccess.blockedDomains":         d.NetworkAccess.BlockedDomains,
		"networkAccess.allowedPorts":           d.NetworkAccess.AllowedPorts,
		"resourceLimits.maxMemoryMB":           d.ResourceLimits.MaxMemoryMB,
		"resourceLimits.maxCPUPercent":         d.ResourceLimits.MaxCPUPercent,
		"resourceLimits.maxFileSize":           d.ResourceLimits.MaxFileSize,
		"resourceLimits.maxConcurrentRequests": d.ResourceLimits.MaxConcurrentRequests,
		"resourceLimits.requestTimeout":        d.ResourceLimits.RequestTimeout,
	}
}
