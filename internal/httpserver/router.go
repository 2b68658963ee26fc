package httpserver

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/umutbasal/whoami/internal/config"
	"github.com/umutbasal/whoami/internal/isolation"
	"github.com/umutbasal/whoami/internal/metrics"
	"github.com/umutbasal/whoami/internal/publicip"
	"github.com/umutbasal/whoami/internal/store"
)

type RouterDeps struct {
	Config    config.Config
	Store     *store.Store
	PublicIP  publicip.Lookup
	Isolation *isolation.Checker
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
}

type Server struct {
	cfg       config.Config
	store     *store.Store
	publicIP  publicip.Lookup
	isolation *isolation.Checker
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

func NewRouter(deps RouterDeps) (http.Handler, error) {
	if deps.Store == nil {
		return nil, fmt.Errorf("router: store is required")
	}
	s := &Server{
		cfg:       deps.Config,
		store:     deps.Store,
		publicIP:  deps.PublicIP,
		isolation: deps.Isolation,
		metrics:   deps.Metrics,
		logger:    deps.Logger,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	if len(s.cfg.TrustedProxies) > 0 {
		proxies, err := newTrustedProxies(s.cfg.TrustedProxies)
		if err != nil {
			return nil, err
		}
		r.Use(proxies.middleware)
	}
	r.Use(middleware.Recoverer)
	if t := s.cfg.RequestTimeout.Duration(); t > 0 {
		r.Use(middleware.Timeout(t))
	}

	// every method and path gets the diagnostic page
	r.HandleFunc("/", s.handleWhoami)
	r.HandleFunc("/*", s.handleWhoami)
	r.NotFound(s.handleWhoami)
	r.MethodNotAllowed(s.handleWhoami)

	return r, nil
}
