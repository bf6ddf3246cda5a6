package policy

import (
	"fmt"
	"strings"

	moltErrors "github.com/harunnryd/moltbot/internal/errors"
	"github.com/harunnryd/moltbot/internal/glob"
)

// ValidateDocument rejects documents the engine could not evaluate faithfully.
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return moltErrors.InvalidInput("policy document is nil")
	}

	lists := []struct {
		name     string
		patterns []string
	}{
		{"allowedPaths.read", doc.AllowedPaths.Read},
		{"allowedPaths.write", doc.AllowedPaths.Write},
		{"blockedPaths.paths", doc.BlockedPaths.Paths},
	}
	for _, list := range lists {
		for _, pattern := range list.patterns {
			if err := glob.Validate(pattern); err != nil {
				return moltErrors.InvalidInput(fmt.Sprintf("%s: %v", list.name, err))
			}
		}
	}

	for _, cmd := range doc.AllowedCommands.Commands {
		if strings.TrimSpace(cmd) == "" {
			return moltErrors.InvalidInput("allowedCommands.commands: empty entry would allow every command")
		}
	}
	for _, cmd := range doc.AllowedCommands.BlockedCommands {
		if strings.TrimSpace(cmd) == "" {
			return moltErrors.InvalidInput("allowedCommands.blockedCommands: empty entry would block every command")
		}
	}

	for _, domain := range doc.NetworkAccess.AllowedDomains {
		if strings.TrimSpace(domain) == "" {
			return moltErrors.InvalidInput("networkAccess.allowedDomains: empty entry")
		}
	}

	for _, port := range doc.NetworkAccess.AllowedPorts {
		if port <= 0 || port > 65535 {
			return moltErrors.InvalidInput(fmt.Sprintf("networkAccess.allowedPorts: invalid port %d", port))
		}
	}

	return validateResourceLimits(doc.ResourceLimits)
}

func validateResourceLimits(rl ResourceLimits) error {
	if rl.MaxMemoryMB < 0 {
		return moltErrors.InvalidInput("max memory cannot be negative")
	}

	if rl.MaxCPUPercent < 0 || rl.MaxCPUPercent > 100 {
		return moltErrors.InvalidInput("max CPU percent must be between 0 and 100")
	}

	if rl.MaxConcurrentRequests < 0 {
		return moltErrors.InvalidInput("max concurrent requests cannot be negative")
	}

	if rl.RequestTimeout < 0 {
		return moltErrors.InvalidInput("request timeout cannot be negative")
	}

	return nil
}
