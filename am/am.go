package am

import "time"

// Config represents the tzmeta configuration
type Config struct {
	Node     NodeConfig     `mapstructure:"node" toml:"node" json:"node" yaml:"node"`
	Resolver ResolverConfig `mapstructure:"resolver" toml:"resolver" json:"resolver" yaml:"resolver"`
	Server   ServerConfig   `mapstructure:"server" toml:"server" json:"server" yaml:"server"`
	Log      LogConfig      `mapstructure:"log" toml:"log" json:"log" yaml:"log"`
}

// NodeConfig configures the Tezos node RPC used for view simulation
type NodeConfig struct {
	Endpoint          string  `mapstructure:"endpoint" toml:"endpoint" json:"endpoint" yaml:"endpoint"`
	TimeoutSeconds    int     `mapstructure:"timeout_seconds" toml:"timeout_seconds" json:"timeout_seconds" yaml:"timeout_seconds"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second" toml:"requests_per_second" json:"requests_per_second" yaml:"requests_per_second"` // 0 = unlimited
	MinVersion        string  `mapstructure:"min_version" toml:"min_version" json:"min_version" yaml:"min_version"`                                 // semver constraint, empty = no check
}

// ResolverConfig configures metadata URI resolution
type ResolverConfig struct {
	IPFSGateway    string `mapstructure:"ipfs_gateway" toml:"ipfs_gateway" json:"ipfs_gateway" yaml:"ipfs_gateway"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" toml:"timeout_seconds" json:"timeout_seconds" yaml:"timeout_seconds"`
	BlockPrivateIP bool   `mapstructure:"block_private_ip" toml:"block_private_ip" json:"block_private_ip" yaml:"block_private_ip"`
	MaxBytes       int64  `mapstructure:"max_bytes" toml:"max_bytes" json:"max_bytes" yaml:"max_bytes"`
}

// ServerConfig configures the HTTP/websocket server
type ServerConfig struct {
	Port           *int     `mapstructure:"port" toml:"port" json:"port" yaml:"port"` // nil = default 8716, 0 is invalid (omit for default)
	AllowedOrigins []string `mapstructure:"allowed_origins" toml:"allowed_origins" json:"allowed_origins" yaml:"allowed_origins"`
	LogTheme       string   `mapstructure:"log_theme" toml:"log_theme" json:"log_theme" yaml:"log_theme"` // Color theme: gruvbox, everforest
}

// LogConfig configures log output
type LogConfig struct {
	JSON bool `mapstructure:"json" toml:"json" json:"json" yaml:"json"`
}

// Server port constants
const (
	DefaultServerPort = 8716
)

// File system constants
const (
	DefaultDirPermissions  = 0755 // Standard directory permissions (rwxr-xr-x)
	DefaultFilePermissions = 0644 // Standard file permissions (rw-r--r--)
)

// NodeTimeout returns the node request timeout
func (c *Config) NodeTimeout() time.Duration {
	return time.Duration(c.Node.TimeoutSeconds) * time.Second
}

// ResolverTimeout returns the URI fetch timeout
func (c *Config) ResolverTimeout() time.Duration {
	return time.Duration(c.Resolver.TimeoutSeconds) * time.Second
}
