package am

import (
	"fmt"

	"github.com/spf13/viper"
)

// Default values shared by SetDefaults and the getters
const (
	DefaultNodeEndpoint   = "https://mainnet.tezos.ecadinfra.com"
	DefaultIPFSGateway    = "https://ipfs.io/ipfs/"
	DefaultLogTheme       = "everforest"
	DefaultResolverMaxLen = 4 << 20
)

var defaultAllowedOrigins = []string{
	"http://localhost",
	"https://localhost",
	"http://127.0.0.1",
	"https://127.0.0.1",
}

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	// Node defaults
	v.SetDefault("node.endpoint", DefaultNodeEndpoint)
	v.SetDefault("node.timeout_seconds", 30)
	v.SetDefault("node.requests_per_second", 10.0)
	v.SetDefault("node.min_version", "")

	// Resolver defaults
	v.SetDefault("resolver.ipfs_gateway", DefaultIPFSGateway)
	v.SetDefault("resolver.timeout_seconds", 20)
	v.SetDefault("resolver.block_private_ip", true)
	v.SetDefault("resolver.max_bytes", DefaultResolverMaxLen)

	// Server configuration defaults
	v.SetDefault("server.port", DefaultServerPort)
	v.SetDefault("server.allowed_origins", defaultAllowedOrigins)
	v.SetDefault("server.log_theme", DefaultLogTheme)

	v.SetDefault("log.json", false)
}

// BindEnvVars explicitly binds the settings most often overridden per shell
func BindEnvVars(v *viper.Viper) {
	v.BindEnv("node.endpoint", "TZMETA_NODE_ENDPOINT")
	v.BindEnv("resolver.ipfs_gateway", "TZMETA_RESOLVER_IPFS_GATEWAY")
	v.BindEnv("server.log_theme", "TZMETA_LOG_THEME")
}

// GetServerPort returns the configured port, or DefaultServerPort
func (c *Config) GetServerPort() int {
	if c.Server.Port == nil {
		return DefaultServerPort
	}
	return *c.Server.Port
}

// GetServerAllowedOrigins returns the allowed websocket/CORS origins
func (c *Config) GetServerAllowedOrigins() []string {
	if len(c.Server.AllowedOrigins) == 0 {
		return defaultAllowedOrigins
	}
	return c.Server.AllowedOrigins
}

// GetServerLogTheme returns the log theme (default: everforest)
func (c *Config) GetServerLogTheme() string {
	if c.Server.LogTheme == "" {
		return DefaultLogTheme
	}
	return c.Server.LogTheme
}

// String returns a string representation of the config
func (c *Config) String() string {
	return fmt.Sprintf("Config{Node: %s, Resolver: {Gateway: %s}, Server: {Port: %d}}",
		c.Node.Endpoint, c.Resolver.IPFSGateway, c.GetServerPort())
}
