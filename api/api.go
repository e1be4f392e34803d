package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/mpramodhpe/oneview-redfish-toolkit/internal/config"
	sloghttp "github.com/samber/slog-http"
	"github.com/sebest/xff"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// HandlerMapping is a map of routes to http.Handlers.
type HandlerMapping map[string]http.Handler

// Api represents the HTTP API server with all its dependencies.
type Api struct {
	config   *config.Config
	logger   *slog.Logger
	handlers HandlerMapping

	mu         sync.Mutex // protects httpServer and stopped
	httpServer *http.Server
	stopped    bool
}

// New creates a new Api instance with the given configuration.
func New(cfg *config.Config, logger *slog.Logger) *Api {
	return &Api{
		config:   cfg,
		logger:   logger,
		handlers: make(HandlerMapping),
	}
}

func (a *Api) AddHandler(path string, handler http.Handler) {
	if handler != nil {
		a.handlers[path] = otelhttp.WithRouteTag(path, handler)
	} else {
		a.logger.Warn("Attempted to add nil handler", "path", path)
	}
}

// Handler builds the middleware chain around the registered handlers.
func (a *Api) Handler() (http.Handler, error) {
	mux := http.NewServeMux()

	for path, handler := range a.handlers {
		mux.Handle(path, handler)
	}

	// wrap the mux with an OpenTelemetry interceptor
	httpHandler := otelhttp.NewHandler(mux, "oneview-redfish-http")

	trustedProxies, err := ParseTrustedProxies(a.config.TrustedProxies)
	if err != nil {
		return nil, err
	}
	if len(trustedProxies) > 0 {
		xffmw, err := xff.New(xff.Options{
			AllowedSubnets: trustedProxies,
		})
		if err != nil {
			return nil, fmt.Errorf("trusted proxies: %w", err)
		}
		httpHandler = xffmw.Handler(httpHandler)
	}

	config := sloghttp.Config{
		WithRequestID:      true,
		WithUserAgent:      true,
		WithRequestBody:    false,
		WithResponseBody:   false,
		WithRequestHeader:  false,
		WithResponseHeader: false,

		// Filter health checks and other noise
		Filters: []sloghttp.Filter{
			sloghttp.IgnorePathContains("/healthcheck"),
			sloghttp.IgnorePathContains("/metrics"),
		},
	}

	// Apply recovery middleware first
	httpHandler = sloghttp.Recovery(httpHandler)

	// Apply logging middleware
	httpHandler = sloghttp.NewWithConfig(a.logger, config)(httpHandler)

	return httpHandler, nil
}

// Start builds the handler chain and serves until Shutdown is called.
func (a *Api) Start() error {
	handler, err := a.Handler()
	if err != nil {
		return err
	}

	a.mu.Lock()
	if a.stopped {
		a.mu.Unlock()
		return nil
	}
	srv := &http.Server{
		Addr:         a.config.ListenAddress(),
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  90 * time.Second,
	}
	a.httpServer = srv
	a.mu.Unlock()

	a.logger.Info("Starting HTTP server", "address", srv.Addr)

	// Start server - this blocks
	err = srv.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		a.logger.Error("HTTP server failed to start", "error", err)
		return err
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (a *Api) Shutdown(ctx context.Context) error {
	a.mu.Lock()
	a.stopped = true
	srv := a.httpServer
	a.httpServer = nil
	a.mu.Unlock()

	if srv == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	a.logger.Info("Shutting down HTTP server...")
	if err := srv.Shutdown(ctx); err != nil {
		a.logger.Error("Failed to shutdown HTTP server gracefully", "error", err)
		return err
	}

	a.logger.Info("HTTP server shutdown complete")

	return nil
}

// ParseTrustedProxies turns a comma separated list of IPs and CIDRs into CIDRs.
// Bare addresses become single host networks.
func ParseTrustedProxies(trustedProxies string) ([]string, error) {
	var result []string
	for cidr := range strings.SplitSeq(trustedProxies, ",") {
		cidr = strings.TrimSpace(cidr)
		if cidr == "" {
			continue
		}
		if _, _, err := net.ParseCIDR(cidr); err != nil {
			ip := net.ParseIP(cidr)
			if ip == nil {
				return nil, fmt.Errorf("invalid ip cidr in trusted_proxies: %q", cidr)
			}
			if ip.To4() != nil {
				cidr += "/32"
			} else {
				cidr += "/128"
			}
		}
		result = append(result, cidr)
	}

	return result, nil
}
