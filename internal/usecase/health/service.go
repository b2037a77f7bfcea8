// Package health aggregates component checks for the /health endpoint.
package health

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
	// Unhealthy indicates total failure.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// DefaultCheckTimeout bounds every individual check.
const DefaultCheckTimeout = 3 * time.Second

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

type check struct {
	name string
	fn   func(context.Context) error
}

// Service coordinates health checks.
type Service struct {
	checks  []check
	timeout time.Duration
	logger  *zap.Logger
}

// New creates a Service. Any checker can be nil and is then skipped.
func New(db Pinger, storage Pinger, embedding EmbeddingChecker) *Service {
	s := &Service{timeout: DefaultCheckTimeout, logger: zap.NewNop()}
	if db != nil {
		s.checks = append(s.checks, check{"database", db.Ping})
	}
	if storage != nil {
		s.checks = append(s.checks, check{"storage", storage.Ping})
	}
	if embedding != nil {
		s.checks = append(s.checks, check{"embedding", embedding.HealthCheck})
	}
	return s
}

// WithTimeout overrides the per-check timeout.
func (s *Service) WithTimeout(d time.Duration) *Service {
	if d > 0 {
		s.timeout = d
	}
	return s
}

// WithLogger sets the logger that records failing checks.
func (s *Service) WithLogger(l *zap.Logger) *Service {
	if l != nil {
		s.logger = l
	}
	return s
}

// Check runs all configured checks concurrently and aggregates the results.
func (s *Service) Check(ctx context.Context) Report {
	results := make([]CheckResult, len(s.checks))

	var wg sync.WaitGroup
	for i, c := range s.checks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = s.run(ctx, c)
		}()
	}
	wg.Wait()

	checks := make(map[string]CheckResult, len(s.checks))
	failed := 0
	for i, c := range s.checks {
		checks[c.name] = results[i]
		if results[i] == CheckError {
			failed++
		}
	}

	status := Healthy
	switch {
	case failed > 0 && failed == len(checks):
		status = Unhealthy
	case failed > 0:
		status = Degraded
	}
	return Report{Status: status, Checks: checks}
}

func (s *Service) run(ctx context.Context, c check) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := c.fn(ctx); err != nil {
		s.logger.Warn("Health check failed", zap.String("check", c.name), zap.Error(err))
		return CheckError
	}
	return CheckOK
}
