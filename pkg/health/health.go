// Package health provides a concurrent health-check framework. Services
// register Check functions for their dependencies (loaded dictionaries,
// PostgreSQL, Redis) and the Checker probes them in parallel to produce an
// aggregate Report for Kubernetes liveness and readiness probes.
//
// A degraded component (for example Redis being down while annotation
// caching is optional) does not fail readiness; only StatusDown does.
package health

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// Status represents the health state of a component or the system overall.
type Status string

const (
	StatusUp       Status = "up"
	StatusDown     Status = "down"
	StatusDegraded Status = "degraded"
)

// Check probes a single dependency and returns its status.
type Check func(ctx context.Context) ComponentHealth

// ComponentHealth holds the result of a single component check.
type ComponentHealth struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// Report is the aggregated result of all component checks.
type Report struct {
	Status     Status                     `json:"status"`
	Components map[string]ComponentHealth `json:"components"`
	Timestamp  string                     `json:"timestamp"`
}

// Checker manages registered health checks and runs them concurrently.
type Checker struct {
	checks map[string]Check
	mu     sync.RWMutex
	logger *slog.Logger
}

// NewChecker creates an empty Checker.
func NewChecker() *Checker {
	return &Checker{
		checks: make(map[string]Check),
		logger: slog.Default().With("component", "health"),
	}
}

// Register adds a named health check. Registering the same name twice
// replaces the earlier check.
func (c *Checker) Register(name string, check Check) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = check
}

type checkResult struct {
	name   string
	health ComponentHealth
}

// Run executes all registered checks concurrently and returns an aggregated
// Report. The overall status is the worst status among all components, where
// down outranks degraded.
func (c *Checker) Run(ctx context.Context) Report {
	c.mu.RLock()
	names := make([]string, 0, len(c.checks))
	checks := make([]Check, 0, len(c.checks))
	for name, check := range c.checks {
		names = append(names, name)
		checks = append(checks, check)
	}
	c.mu.RUnlock()

	results := make(chan checkResult, len(checks))
	for i := range checks {
		go func(name string, check Check) {
			start := time.Now()
			h := check(ctx)
			h.Latency = time.Since(start).Round(time.Millisecond).String()
			results <- checkResult{name: name, health: h}
		}(names[i], checks[i])
	}

	report := Report{
		Status:     StatusUp,
		Components: make(map[string]ComponentHealth, len(checks)),
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}
	for range checks {
		res := <-results
		report.Components[res.name] = res.health
		switch res.health.Status {
		case StatusDown:
			report.Status = StatusDown
		case StatusDegraded:
			if report.Status == StatusUp {
				report.Status = StatusDegraded
			}
		}
	}
	if report.Status != StatusUp {
		c.logger.Warn("health check not fully up", "status", report.Status)
	}
	return report
}

// LiveHandler returns an HTTP handler for Kubernetes liveness probes. It
// confirms only that the process is serving requests.
func (c *Checker) LiveHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{
			"status": "alive",
		})
	}
}

// ReadyHandler returns an HTTP handler for Kubernetes readiness probes.
// A degraded report still serves 200 so optional dependencies do not take
// the service out of rotation.
func (c *Checker) ReadyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		report := c.Run(ctx)
		w.Header().Set("Content-Type", "application/json")
		if report.Status == StatusDown {
			w.WriteHeader(http.StatusServiceUnavailable)
		} else {
			w.WriteHeader(http.StatusOK)
		}
		json.NewEncoder(w).Encode(report)
	}
}
