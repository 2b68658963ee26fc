package store

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"github.com/umutbasal/whoami/internal/metrics"
	"github.com/umutbasal/whoami/internal/sysinfo"
)

const (
	DefaultTTL            = 10 * time.Second
	DefaultRefreshTimeout = 5 * time.Second
)

// Entry is one consistent capture of environment and host metrics. It is
// never mutated after it has been published.
type Entry struct {
	Environment map[string]string
	System      sysinfo.Snapshot
	RefreshedAt time.Time
	Generation  string
}

type Options struct {
	TTL            time.Duration
	RefreshTimeout time.Duration
	Clock          clock.Clock
	Logger         *slog.Logger
	Metrics        *metrics.Metrics
}

type Store struct {
	env     EnvProvider
	sys     sysinfo.Provider
	ttl     time.Duration
	timeout time.Duration
	clock   clock.Clock
	logger  *slog.Logger
	metrics *metrics.Metrics

	mu          sync.RWMutex
	cur         *Entry
	lastAttempt time.Time
}

// New creates a Store and performs the initial refresh before returning.
func New(ctx context.Context, env EnvProvider, sys sysinfo.Provider, opts Options) *Store {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.RefreshTimeout <= 0 {
		opts.RefreshTimeout = DefaultRefreshTimeout
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	s := &Store{
		env:     env,
		sys:     sys,
		ttl:     opts.TTL,
		timeout: opts.RefreshTimeout,
		clock:   opts.Clock,
		logger:  opts.Logger,
		metrics: opts.Metrics,
	}

	s.mu.Lock()
	s.refreshLocked(ctx)
	s.mu.Unlock()
	return s
}

// TTL returns the configured time-to-live.
func (s *Store) TTL() time.Duration { return s.ttl }

// Current returns the cached entry, refreshing it first when it has expired.
// The returned Entry is shared and must be treated as read-only; use
// Environment for a private copy.
func (s *Store) Current(ctx context.Context) *Entry {
	s.mu.RLock()
	if !s.expiredLocked() {
		e := s.cur
		s.mu.RUnlock()
		s.metrics.StoreRead(true)
		return e
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	// another reader may have refreshed while we waited for the lock
	if s.expiredLocked() {
		s.metrics.StoreRead(false)
		s.refreshLocked(ctx)
	} else {
		s.metrics.StoreRead(true)
	}
	return s.cur
}

// Environment returns a copy of the cached environment.
func (s *Store) Environment(ctx context.Context) map[string]string {
	src := s.Current(ctx).Environment
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

// System returns a copy of the cached host metrics.
func (s *Store) System(ctx context.Context) sysinfo.Snapshot {
	return s.Current(ctx).System.Clone()
}

// Refresh re-reads the environment and host metrics regardless of age.
func (s *Store) Refresh(ctx context.Context) *Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshLocked(ctx)
	return s.cur
}

func (s *Store) expiredLocked() bool {
	return s.cur == nil || s.clock.Since(s.lastAttempt) > s.ttl
}

// refreshLocked must be called with mu held for writing. The refresh is not
// owned by the request that triggered it, so cancellation of ctx is ignored.
func (s *Store) refreshLocked(ctx context.Context) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	start := s.clock.Now()
	env := s.env.Environ()
	err := s.sys.Refresh(ctx)
	elapsed := s.clock.Since(start)
	s.lastAttempt = s.clock.Now()
	s.metrics.Refresh(elapsed, err)

	if err != nil && s.cur != nil {
		// keep serving the previous entry as a whole
		s.logger.Warn("store refresh failed, serving cached snapshot",
			"error", err,
			"generation", s.cur.Generation,
			"age", s.clock.Since(s.cur.RefreshedAt).String(),
		)
		return
	}

	next := &Entry{
		Environment: env,
		System:      s.sys.Snapshot(),
		RefreshedAt: s.lastAttempt,
		Generation:  uuid.NewString(),
	}
	s.cur = next

	if err != nil {
		s.logger.Warn("store initial refresh incomplete", "error", err, "generation", next.Generation)
		return
	}
	s.logger.Debug("store refreshed",
		"generation", next.Generation,
		"env_vars", len(env),
		"duration", elapsed.String(),
	)
}
