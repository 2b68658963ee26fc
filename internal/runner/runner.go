package runner

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
	"unicode/utf8"
)

var (
	ErrEmptyCommand = errors.New("empty command")
	ErrNotUTF8      = errors.New("output is not valid utf-8")
)

// Runner executes an external command and returns its standard output.
type Runner interface {
	Run(ctx context.Context, argv []string) (string, error)
}

// Exec runs commands as child processes, each bounded by Timeout.
type Exec struct {
	Timeout time.Duration
}

func NewExec(timeout time.Duration) *Exec {
	return &Exec{Timeout: timeout}
}

func (e *Exec) Run(ctx context.Context, argv []string) (string, error) {
	if len(argv) == 0 || strings.TrimSpace(argv[0]) == "" {
		return "", ErrEmptyCommand
	}

	cctx := ctx
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		cctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	c := exec.CommandContext(cctx, argv[0], argv[1:]...)
	var stderr strings.Builder
	c.Stderr = &stderr

	b, err := c.Output()
	if errors.Is(cctx.Err(), context.DeadlineExceeded) {
		return "", fmt.Errorf("%s timeout", argv[0])
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w: %s", argv[0], err, strings.TrimSpace(stderr.String()))
	}
	if !utf8.Valid(b) {
		return "", fmt.Errorf("%s: %w", argv[0], ErrNotUTF8)
	}
	return string(b), nil
}

// Func adapts a function to Runner.
type Func func(ctx context.Context, argv []string) (string, error)

func (f Func) Run(ctx context.Context, argv []string) (string, error) {
	return f(ctx, argv)
}
