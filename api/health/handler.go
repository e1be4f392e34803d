package health

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"runtime"
	"sort"
	"time"
)

// Check reports whether one dependency of the gateway is usable.
type Check func(ctx context.Context) error

// handler handles health check requests.
type handler struct {
	logger    *slog.Logger
	gitRev    string
	startTime time.Time
	checks    map[string]Check
	timeout   time.Duration
}

// New creates a new health handler. The service is degraded while any check fails.
func New(logger *slog.Logger, gitRev string, startTime time.Time, checks map[string]Check) http.Handler {
	return &handler{
		logger:    logger,
		gitRev:    gitRev,
		startTime: startTime,
		checks:    checks,
		timeout:   5 * time.Second,
	}
}

// ServeHTTP processes health check requests.
func (h *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.logger.Debug("Handling health check", "path", r.URL.Path, "method", r.Method)

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status, code := "healthy", http.StatusOK
	results := make(map[string]string, len(names))
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			h.logger.Warn("Health check failed", "check", name, "error", err)
			results[name] = err.Error()
			status, code = "degraded", http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}

	response := map[string]any{
		"status":     status,
		"git_rev":    h.gitRev,
		"uptime":     time.Since(h.startTime).Seconds(),
		"goroutines": runtime.NumGoroutine(),
		"checks":     results,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("Failed to encode health response", "error", err)
	}
}
