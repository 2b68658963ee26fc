package httpserver

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/umutbasal/whoami/internal/isolation"
	"github.com/umutbasal/whoami/internal/negotiate"
	"github.com/umutbasal/whoami/internal/publicip"
	"github.com/umutbasal/whoami/internal/report"
)

// GenerationHeader carries the id of the cached environment and host
// metrics entry the response was built from.
const GenerationHeader = "X-Snapshot-Generation"

// lookups holds the per-request collaborator results. Fields are always
// populated, with sentinels on failure.
type lookups struct {
	addrs   publicip.Addresses
	posture isolation.Posture
	err     error
}

func (s *Server) handleWhoami(w http.ResponseWriter, r *http.Request) {
	mode := negotiate.Decide(r)
	s.metrics.Request(mode.String())

	ctx := r.Context()
	entry := s.store.Current(ctx)
	found := s.lookup(ctx)

	snap := report.Build(report.Input{
		Headers:     r.Header,
		Host:        r.Host,
		Environment: entry.Environment,
		RemoteIP:    remoteIP(r),
		PublicIPs:   found.addrs,
		Isolation:   found.posture,
		System:      entry.System,
	}, mode.Verbose())

	s.logger.Debug("whoami request",
		"method", r.Method,
		"path", r.URL.Path,
		"format", mode.String(),
		"request_id", middleware.GetReqID(ctx),
		"generation", entry.Generation,
	)

	w.Header().Set(GenerationHeader, entry.Generation)

	if s.cfg.Strict && found.err != nil {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusBadGateway)
		for _, err := range multierr.Errors(found.err) {
			_, _ = w.Write([]byte(err.Error() + "\n"))
		}
		return
	}

	body, contentType := report.Render(snap, mode, s.renderOptions(mode))
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

func (s *Server) renderOptions(mode negotiate.Mode) report.Options {
	if mode.JSON {
		return report.Options{NormalizeGlyphs: s.cfg.NormalizeGlyphsJSON}
	}
	return report.Options{NormalizeGlyphs: s.cfg.NormalizeGlyphsHTML}
}

// lookup runs the public IP and isolation collaborators concurrently. A
// failing source never aborts the others.
func (s *Server) lookup(ctx context.Context) lookups {
	var (
		out                lookups
		v4Err, v6Err, iErr error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		out.addrs.IPv4, v4Err = publicip.Resolve(gctx, s.publicIP, publicip.IPv4)
		return nil
	})
	g.Go(func() error {
		out.addrs.IPv6, v6Err = publicip.Resolve(gctx, s.publicIP, publicip.IPv6)
		return nil
	})
	g.Go(func() error {
		out.posture, iErr = s.isolation.Check(gctx)
		return nil
	})
	_ = g.Wait()

	s.sourceFailed(ctx, "public_ipv4", v4Err)
	s.sourceFailed(ctx, "public_ipv6", v6Err)
	s.sourceFailed(ctx, "isolation", iErr)

	out.err = multierr.Combine(v4Err, v6Err, iErr)
	return out
}

func (s *Server) sourceFailed(ctx context.Context, source string, err error) {
	if err == nil {
		return
	}
	s.metrics.SourceFailure(source)
	s.logger.Warn("collaborator lookup failed",
		"source", source,
		"error", err,
		"request_id", middleware.GetReqID(ctx),
	)
}
