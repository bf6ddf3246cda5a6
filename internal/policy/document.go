package policy

import "slices"

// Document is the policy loaded once at startup. Nothing mutates it after
// the engine is constructed.
type Document struct {
	Security        SecuritySettings `json:"security" yaml:"security"`
	AllowedPaths    AllowedPaths     `json:"allowedPaths" yaml:"allowedPaths"`
	BlockedPaths    BlockedPaths     `json:"blockedPaths" yaml:"blockedPaths"`
	AllowedCommands CommandRules     `json:"allowedCommands" yaml:"allowedCommands"`
	NetworkAccess   NetworkAccess    `json:"networkAccess" yaml:"networkAccess"`
	ResourceLimits  ResourceLimits   `json:"resourceLimits" yaml:"resourceLimits"`
}

type SecuritySettings struct {
	Enabled           bool `json:"enabled" yaml:"enabled"`
	StrictMode        bool `json:"strictMode" yaml:"strictMode"`
	IsolatedWorkspace bool `json:"isolatedWorkspace" yaml:"isolatedWorkspace"`
}

type AllowedPaths struct {
	Read  []string `json:"read" yaml:"read"`
	Write []string `json:"write" yaml:"write"`
	// Execute is carried for compatibility with existing documents.
	// CanExecute consults AllowedCommands.Commands instead.
	Execute []string `json:"execute" yaml:"execute"`
}

type BlockedPaths struct {
	Paths []string `json:"paths" yaml:"paths"`
}

type CommandRules struct {
	Commands        []string `json:"commands" yaml:"commands"`
	BlockedCommands []string `json:"blockedCommands" yaml:"blockedCommands"`
}

type NetworkAccess struct {
	Enabled        bool     `json:"enabled" yaml:"enabled"`
	AllowedDomains []string `json:"allowedDomains" yaml:"allowedDomains"`
	BlockedDomains []string `json:"blockedDomains" yaml:"blockedDomains"`
	AllowedPorts   []int    `json:"allowedPorts" yaml:"allowedPorts"`
}

// ResourceLimits is policy metadata. The engine reports it but does not enforce it.
type ResourceLimits struct {
	MaxMemoryMB           int    `json:"maxMemoryMB" yaml:"maxMemoryMB"`
	MaxCPUPercent         int    `json:"maxCPUPercent" yaml:"maxCPUPercent"`
	MaxFileSize           string `json:"maxFileSize" yaml:"maxFileSize"`
	MaxConcurrentRequests int    `json:"maxConcurrentRequests" yaml:"maxConcurrentRequests"`
	RequestTimeout        int    `json:"requestTimeout" yaml:"requestTimeout"`
}

const (
	DefaultMaxMemoryMB           = 512
	DefaultMaxCPUPercent         = 50
	DefaultMaxFileSize           = "10MB"
	DefaultMaxConcurrentRequests = 5
	DefaultRequestTimeoutMillis  = 30000
)

// DefaultDocument is the conservative built-in policy used when no document
// can be loaded.
func DefaultDocument() *Document {
	return &Document{
		Security: SecuritySettings{
			Enabled:           true,
			StrictMode:        true,
			IsolatedWorkspace: true,
		},
		AllowedPaths: AllowedPaths{
			Read:    []string{"src/**/*", "docs/**/*", ".moltbot/**/*"},
			Write:   []string{"logs/**/*", "data/**/*"},
			Execute: []string{"npm", "node", "tsx"},
		},
		BlockedPaths: BlockedPaths{
			Paths: []string{"~/.ssh/**", "~/.aws/**"},
		},
		AllowedCommands: CommandRules{
			Commands:        []string{"npm run cli", "npm test"},
			BlockedCommands: []string{"rm -rf", "sudo", "curl", "wget"},
		},
		NetworkAccess: NetworkAccess{
			Enabled:        true,
			AllowedDomains: []string{"moltbook.com", "wearetheartmakers.com"},
			BlockedDomains: []string{"*"},
			AllowedPorts:   []int{443, 80},
		},
		ResourceLimits: ResourceLimits{
			MaxMemoryMB:           DefaultMaxMemoryMB,
			MaxCPUPercent:         DefaultMaxCPUPercent,
			MaxFileSize:           DefaultMaxFileSize,
			MaxConcurrentRequests: DefaultMaxConcurrentRequests,
			RequestTimeout:        DefaultRequestTimeoutMillis,
		},
	}
}

// Clone returns a deep copy so the engine never shares slices with its caller.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	c := *d
	c.AllowedPaths.Read = slices.Clone(d.AllowedPaths.Read)
	c.AllowedPaths.Write = slices.Clone(d.AllowedPaths.Write)
	c.AllowedPaths.Execute = slices.Clone(d.AllowedPaths.Execute)
	c.BlockedPaths.Paths = slices.Clone(d.BlockedPaths.Paths)
	c.AllowedCommands.Commands = slices.Clone(d.AllowedCommands.Commands)
	c.AllowedCommands.BlockedCommands = slices.Clone(d.AllowedCommands.BlockedCommands)
	c.NetworkAccess.AllowedDomains = slices.Clone(d.NetworkAccess.AllowedDomains)
	c.NetworkAccess.BlockedDomains = slices.Clone(d.NetworkAccess.BlockedDomains)
	c.NetworkAccess.AllowedPorts = slices.Clone(d.NetworkAccess.AllowedPorts)
	return &c
}
