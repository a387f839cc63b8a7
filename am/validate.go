package am

import (
	"net/url"

	"github.com/Masterminds/semver/v3"

	"github.com/teranos/tzmeta/errors"
)

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Node.Endpoint == "" {
		return errors.WithHint(errors.New("node.endpoint cannot be empty"),
			"set node.endpoint in am.toml or TZMETA_NODE_ENDPOINT")
	}
	if err := validateHTTPURL("node.endpoint", c.Node.Endpoint); err != nil {
		return err
	}
	if c.Node.TimeoutSeconds <= 0 {
		return errors.Newf("node.timeout_seconds must be > 0, got %d", c.Node.TimeoutSeconds)
	}
	// 0 = no pacing, negative = invalid
	if c.Node.RequestsPerSecond < 0 {
		return errors.Newf("node.requests_per_second must be >= 0, got %f", c.Node.RequestsPerSecond)
	}
	if c.Node.MinVersion != "" {
		if _, err := semver.NewConstraint(c.Node.MinVersion); err != nil {
			return errors.Wrapf(err, "node.min_version %q is not a version constraint", c.Node.MinVersion)
		}
	}

	if err := validateHTTPURL("resolver.ipfs_gateway", c.Resolver.IPFSGateway); err != nil {
		return err
	}
	if c.Resolver.TimeoutSeconds <= 0 {
		return errors.Newf("resolver.timeout_seconds must be > 0, got %d", c.Resolver.TimeoutSeconds)
	}
	if c.Resolver.MaxBytes <= 0 {
		return errors.Newf("resolver.max_bytes must be > 0, got %d", c.Resolver.MaxBytes)
	}

	// Server port: 0 is invalid (omit for default), negative or above 65535 is invalid
	if c.Server.Port != nil && *c.Server.Port == 0 {
		return errors.Newf("server.port cannot be 0 (omit for default port %d)", DefaultServerPort)
	}
	if c.Server.Port != nil && (*c.Server.Port < 0 || *c.Server.Port > 65535) {
		return errors.Newf("server.port must be in 1..65535, got %d", *c.Server.Port)
	}
	switch c.Server.LogTheme {
	case "", "everforest", "gruvbox":
	default:
		return errors.Newf("server.log_theme must be everforest or gruvbox, got %q", c.Server.LogTheme)
	}

	return nil
}

func validateHTTPURL(key, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return errors.Wrapf(err, "%s is not a URL", key)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.Newf("%s must be an http(s) URL, got %q", key, raw)
	}
	if u.Host == "" {
		return errors.Newf("%s has no host: %q", key, raw)
	}
	return nil
}
