package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/umutbasal/whoami/internal/config"
	"github.com/umutbasal/whoami/internal/httpserver"
	"github.com/umutbasal/whoami/internal/isolation"
	"github.com/umutbasal/whoami/internal/logging"
	"github.com/umutbasal/whoami/internal/metrics"
	"github.com/umutbasal/whoami/internal/publicip"
	"github.com/umutbasal/whoami/internal/runner"
	"github.com/umutbasal/whoami/internal/store"
	"github.com/umutbasal/whoami/internal/sysinfo"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the diagnostic server",
	Long: `Start the whoami server.

Configuration is read from built-in defaults, then the optional YAML file,
then WHOAMI_* environment variables, then flags.

The server runs until interrupted (Ctrl+C) or it receives SIGTERM.

Example:
  whoami serve
  whoami serve -c /etc/whoami.yaml --metrics-listen 127.0.0.1:9100`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("config", "c", "", "path to config file")
	serveCmd.Flags().String("listen", "", "listen address (overrides config)")
	serveCmd.Flags().String("metrics-listen", "", "Prometheus metrics listen address (overrides config)")
}

// loadConfig applies the file, environment and flag layers.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return config.Config{}, err
	}
	if v, _ := cmd.Flags().GetString("listen"); v != "" {
		cfg.ListenAddr = v
	}
	if v, _ := cmd.Flags().GetString("metrics-listen"); v != "" {
		cfg.MetricsAddr = v
	}
	return cfg, nil
}

// newPublicIPLookup picks the public address source named by the config.
func newPublicIPLookup(cfg config.Config, r runner.Runner) publicip.Lookup {
	timeout := cfg.CommandTimeout.Duration()
	switch cfg.PublicIP.Source {
	case config.SourceDNS:
		return publicip.NewDNS(cfg.PublicIP.DNSResolverV4, cfg.PublicIP.DNSResolverV6, timeout)
	case config.SourceSTUN:
		return &publicip.STUN{Servers: cfg.PublicIP.STUNServers, Timeout: timeout}
	case config.SourceOff:
		return publicip.Disabled{}
	}
	return &publicip.Command{
		Runner: r,
		IPv4:   cfg.PublicIP.IPv4Command,
		IPv6:   cfg.PublicIP.IPv6Command,
	}
}

// newHandler wires the store and collaborators behind the router.
func newHandler(ctx context.Context, cfg config.Config, env store.EnvProvider, sys sysinfo.Provider, r runner.Runner, m *metrics.Metrics, logger *slog.Logger) (http.Handler, error) {
	st := store.New(ctx, env, sys, store.Options{
		TTL:            cfg.CacheTTL.Duration(),
		RefreshTimeout: cfg.RefreshTimeout.Duration(),
		Logger:         logger,
		Metrics:        m,
	})

	return httpserver.NewRouter(httpserver.RouterDeps{
		Config:    cfg,
		Store:     st,
		PublicIP:  newPublicIPLookup(cfg, r),
		Isolation: isolation.NewChecker(r, cfg.IsolationCommand),
		Metrics:   m,
		Logger:    logger,
	})
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var m *metrics.Metrics
	if cfg.MetricsAddr != "" {
		m = metrics.New()
	}

	h, err := newHandler(ctx, cfg, store.OSEnviron{}, sysinfo.NewCollector("/"),
		runner.NewExec(cfg.CommandTimeout.Duration()), m, logger)
	if err != nil {
		return fmt.Errorf("router init: %w", err)
	}

	servers := []*http.Server{{
		Addr:              cfg.ListenAddr,
		Handler:           h,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout.Duration(),
	}}
	if m != nil {
		servers = append(servers, &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           m.Handler(),
			ReadHeaderTimeout: cfg.ReadHeaderTimeout.Duration(),
		})
	}

	logger.Info("whoami listening",
		"addr", cfg.ListenAddr,
		"metrics_addr", cfg.MetricsAddr,
		"cache_ttl", cfg.CacheTTL.Duration().String(),
		"public_ip_source", cfg.PublicIP.Source,
		"version", version,
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, srv := range servers {
		srv := srv
		g.Go(func() error {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("listen %s: %w", srv.Addr, err)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		var errs []error
		for _, srv := range servers {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, fmt.Errorf("shutdown %s: %w", srv.Addr, err))
			}
		}
		if err := errors.Join(errs...); err != nil {
			logger.Warn("shutdown incomplete", "error", err, "timeout", shutdownTimeout.String())
			return err
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	logger.Info("shutdown complete")
	return nil
}
