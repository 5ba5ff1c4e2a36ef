// Package health provides the health check endpoint.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// Status represents the health status of a service.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// CheckResult represents the result of a single health check.
type CheckResult struct {
	Status   Status `json:"status"`
	Duration string `json:"duration"`
	Error    string `json:"error,omitempty"`
}

// Report is the overall health status.
type Report struct {
	Status    Status                 `json:"status"`
	Checks    map[string]CheckResult `json:"checks"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version,omitempty"`
}

type check struct {
	name     string
	fn       func(ctx context.Context) error
	timeout  time.Duration
	critical bool
}

// Checker runs registered checks concurrently.
type Checker struct {
	mu      sync.RWMutex
	checks  []check
	version string
}

// NewChecker creates a checker reporting version.
func NewChecker(version string) *Checker {
	return &Checker{version: version}
}

// AddCheck adds a check. A failing non-critical check degrades the report;
// a failing critical check makes it unhealthy.
func (hc *Checker) AddCheck(name string, fn func(context.Context) error, timeout time.Duration, critical bool) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	hc.checks = append(hc.checks, check{name: name, fn: fn, timeout: timeout, critical: critical})
}

// Check runs all checks.
func (hc *Checker) Check(ctx context.Context) Report {
	hc.mu.RLock()
	checks := append([]check(nil), hc.checks...)
	hc.mu.RUnlock()

	report := Report{
		Status:    StatusHealthy,
		Checks:    make(map[string]CheckResult, len(checks)),
		Timestamp: time.Now(),
		Version:   hc.version,
	}

	results := make([]CheckResult, len(checks))
	var wg sync.WaitGroup
	for i, c := range checks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = run(ctx, c)
		}()
	}
	wg.Wait()

	for i, c := range checks {
		report.Checks[c.name] = results[i]
		if results[i].Status == StatusHealthy {
			continue
		}
		if c.critical {
			report.Status = StatusUnhealthy
		} else if report.Status == StatusHealthy {
			report.Status = StatusDegraded
		}
	}
	return report
}

func run(ctx context.Context, c check) CheckResult {
	timeout := c.timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	err := c.fn(ctx)
	result := CheckResult{Status: StatusHealthy, Duration: time.Since(start).String()}
	if err != nil {
		result.Status = StatusUnhealthy
		result.Error = err.Error()
	}
	return result
}

// Handler serves the report as JSON: 200 unless unhealthy, then 503.
func (hc *Checker) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		report := hc.Check(r.Context())

		w.Header().Set("Content-Type", "application/json")
		if report.Status == StatusUnhealthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		} else {
			w.WriteHeader(http.StatusOK)
		}
		_ = json.NewEncoder(w).Encode(report)
	})
}

// CapacityCheck fails once count reaches limit. A zero limit disables it.
func CapacityCheck(what string, count func() int, limit int) func(context.Context) error {
	return func(ctx context.Context) error {
		if limit <= 0 {
			return nil
		}
		if n := count(); n >= limit {
			return fmt.Errorf("%s at capacity: %d/%d", what, n, limit)
		}
		return nil
	}
}
