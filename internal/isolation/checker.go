package isolation

import (
	"context"
	"fmt"

	"github.com/umutbasal/whoami/internal/runner"
)

// Checker invokes the local isolation-check tool and parses its report.
type Checker struct {
	argv   []string
	runner runner.Runner
}

// NewChecker returns a Checker for argv. An empty argv disables the tool.
func NewChecker(r runner.Runner, argv []string) *Checker {
	return &Checker{argv: argv, runner: r}
}

// Check runs the tool once. Any failure yields Unavailable() together with
// the error so callers may log or surface it.
func (c *Checker) Check(ctx context.Context) (Posture, error) {
	if c == nil || len(c.argv) == 0 {
		return Unavailable(), nil
	}

	out, err := c.runner.Run(ctx, c.argv)
	if err != nil {
		return Unavailable(), fmt.Errorf("isolation check: %w", err)
	}
	return ParseReport(out), nil
}
