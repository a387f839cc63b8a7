package node

import (
	"context"
	"fmt"

	"github.com/Masterminds/semver/v3"

	"github.com/teranos/tzmeta/errors"
)

type versionResponse struct {
	Version struct {
		Major int `json:"major"`
		Minor int `json:"minor"`
	} `json:"version"`
}

// NodeVersion asks the node for its release version
func (c *Client) NodeVersion(ctx context.Context) (*semver.Version, error) {
	var resp versionResponse
	if err := c.get(ctx, "/version", &resp); err != nil {
		return nil, errors.Wrap(err, "failed to query node version")
	}
	v, err := semver.NewVersion(fmt.Sprintf("%d.%d.0", resp.Version.Major, resp.Version.Minor))
	if err != nil {
		return nil, errors.Wrap(err, "node reported an unparsable version")
	}
	return v, nil
}

// CheckVersion enforces the configured minimum version constraint.
// An empty constraint accepts any node.
func (c *Client) CheckVersion(ctx context.Context) error {
	if c.minVersion == "" {
		return nil
	}

	constraint, err := semver.NewConstraint(c.minVersion)
	if err != nil {
		return errors.Wrapf(err, "invalid node version constraint %q", c.minVersion)
	}

	v, err := c.NodeVersion(ctx)
	if err != nil {
		return err
	}
	if !constraint.Check(v) {
		return errors.WithHint(
			errors.Wrapf(errors.ErrNodeIncompatible, "node at %s runs %s, need %s", c.endpoint, v, c.minVersion),
			"point [node] endpoint at a newer node or relax [node] min_version",
		)
	}

	c.logger.Infow("Node version accepted", "version", v.String(), "constraint", c.minVersion)
	return nil
}
