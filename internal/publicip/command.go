package publicip

import (
	"context"
	"fmt"

	"github.com/umutbasal/whoami/internal/runner"
)

// Command looks addresses up by running an external tool per family, such as
// curl against an echo service or dig against OpenDNS.
type Command struct {
	Runner runner.Runner
	IPv4   []string
	IPv6   []string
}

func (c *Command) Lookup(ctx context.Context, family Family) (string, error) {
	argv := c.IPv4
	if family == IPv6 {
		argv = c.IPv6
	}
	if len(argv) == 0 {
		return "", fmt.Errorf("%s lookup: %w", family, runner.ErrEmptyCommand)
	}

	out, err := c.Runner.Run(ctx, argv)
	if err != nil {
		return "", fmt.Errorf("%s lookup: %w", family, err)
	}
	ip, err := normalize(out, family)
	if err != nil {
		return "", fmt.Errorf("%s lookup %q: %w", family, argv[0], err)
	}
	return ip, nil
}
