// Package health serves liveness and readiness endpoints for the bot.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jonny/instance-bot/pkg/version"
)

type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
)

type CheckFunc func(ctx context.Context) error

// Checker runs named readiness checks concurrently, each bounded by timeout.
type Checker struct {
	mu      sync.RWMutex
	checks  map[string]CheckFunc
	timeout time.Duration
}

func NewChecker(timeout time.Duration) *Checker {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Checker{
		checks:  make(map[string]CheckFunc),
		timeout: timeout,
	}
}

func (c *Checker) Register(name string, check CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = check
}

// ComponentStatus is the outcome of one named check.
type ComponentStatus struct {
	Status    Status `json:"status"`
	Error     string `json:"error,omitempty"`
	LatencyMS int64  `json:"latency_ms"`
}

type Report struct {
	Status  Status                     `json:"status"`
	Version string                     `json:"version"`
	Checks  map[string]ComponentStatus `json:"checks,omitempty"`
}

// Check runs every registered check. One failing component makes the whole
// report unhealthy but never stops the other checks.
func (c *Checker) Check(ctx context.Context) Report {
	c.mu.RLock()
	checks := make(map[string]CheckFunc, len(c.checks))
	for name, fn := range c.checks {
		checks[name] = fn
	}
	c.mu.RUnlock()

	var (
		mu      sync.Mutex
		results = make(map[string]ComponentStatus, len(checks))
		g       errgroup.Group
	)
	for name, fn := range checks {
		g.Go(func() error {
			status := c.run(ctx, fn)
			mu.Lock()
			results[name] = status
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	report := Report{Status: StatusHealthy, Version: version.Version, Checks: results}
	for _, r := range results {
		if r.Status != StatusHealthy {
			report.Status = StatusUnhealthy
			break
		}
	}
	return report
}

func (c *Checker) run(ctx context.Context, fn CheckFunc) ComponentStatus {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	started := time.Now()
	err := fn(ctx)
	status := ComponentStatus{Status: StatusHealthy, LatencyMS: time.Since(started).Milliseconds()}
	if err != nil {
		status.Status = StatusUnhealthy
		status.Error = err.Error()
	}
	return status
}

func (c *Checker) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, Report{Status: StatusHealthy, Version: version.Version})
	}
}

func (c *Checker) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := c.Check(r.Context())
		status := http.StatusOK
		if report.Status != StatusHealthy {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, report)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
