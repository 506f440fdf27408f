package threadshift

import (
	"go.uber.org/zap"

	"github.com/ppiankov/threadshift/internal/settings"
)

// Option configures a Client at creation time.
type Option func(*clientConfig)

type clientConfig struct {
	configPath  string
	profileName string
	backend     string
	storePath   string
	auditLog    string
	logger      *zap.Logger
}

// WithConfigFile loads settings from a threadshift config YAML. Other
// options override what the file sets.
func WithConfigFile(path string) Option {
	return func(c *clientConfig) { c.configPath = path }
}

// WithProfile applies a mapping profile (e.g., "formalwear").
func WithProfile(name string) Option {
	return func(c *clientConfig) { c.profileName = name }
}

// WithMemoryStore keeps settings and history in memory only.
func WithMemoryStore() Option {
	return func(c *clientConfig) { c.backend = settings.BackendMemory }
}

// WithStore selects a persistent settings backend ("sqlite" or "file").
func WithStore(backend, path string) Option {
	return func(c *clientConfig) {
		c.backend = backend
		c.storePath = path
	}
}

// WithAuditLog appends every swap and reversal to a hash-chained JSONL log.
func WithAuditLog(path string) Option {
	return func(c *clientConfig) { c.auditLog = path }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(log *zap.Logger) Option {
	return func(c *clientConfig) { c.logger = log }
}
