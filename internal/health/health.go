// Package health aggregates independent per-store health probes into one
// overall status.
package health

import (
	"context"
	"fmt"
	"time"

	"github.com/dbsmedya/polyseed/internal/logger"
	"github.com/dbsmedya/polyseed/internal/store"
)

// Status classifies a single store probe.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
	StatusUnknown   Status = "unknown"
)

// OverallStatus classifies the fleet as a whole.
type OverallStatus string

const (
	OverallHealthy   OverallStatus = "healthy"
	OverallDegraded  OverallStatus = "degraded"
	OverallUnhealthy OverallStatus = "unhealthy"
)

// Report holds the outcome of one store probe.
type Report struct {
	Store        string
	Status       Status
	ResponseTime time.Duration
	Detail       string
	Err          error
}

// Counts summarizes report statuses.
type Counts struct {
	Total     int
	Healthy   int
	Unhealthy int
	Unknown   int
}

// OverallHealth is the aggregate of all store probes from one check.
type OverallHealth struct {
	Overall   OverallStatus
	Reports   []Report
	Summary   Counts
	Timestamp time.Time
}

// Summary is the flattened form consumed by external observability
// collaborators: one boolean per store.
type Summary struct {
	Status    OverallStatus
	Checks    map[string]bool
	Timestamp time.Time
}

// Aggregator probes all store connections concurrently with a hard
// per-probe timeout so one unresponsive store never stalls the check.
type Aggregator struct {
	conns        []store.Connection
	probeTimeout time.Duration
	logger       *logger.Logger
}

// NewAggregator creates an aggregator over the given connections.
func NewAggregator(conns []store.Connection, probeTimeout time.Duration, log *logger.Logger) *Aggregator {
	if log == nil {
		log = logger.NewDefault()
	}
	if probeTimeout <= 0 {
		probeTimeout = 5 * time.Second
	}
	return &Aggregator{
		conns:        conns,
		probeTimeout: probeTimeout,
		logger:       log,
	}
}

// CheckAll runs every probe concurrently and classifies the results.
// A probe that errors or fails to respond within the timeout is
// unhealthy, never unknown. CheckAll always returns within roughly one
// probe timeout even if a probe goroutine never resolves.
func (a *Aggregator) CheckAll(ctx context.Context) OverallHealth {
	results := make([]Report, len(a.conns))
	done := make(chan int, len(a.conns))

	for i, conn := range a.conns {
		go func(idx int, c store.Connection) {
			results[idx] = a.probe(ctx, c)
			done <- idx
		}(i, conn)
	}

	for range a.conns {
		<-done
	}

	health := OverallHealth{
		Reports:   results,
		Timestamp: time.Now(),
	}
	for _, r := range results {
		health.Summary.Total++
		switch r.Status {
		case StatusHealthy:
			health.Summary.Healthy++
		case StatusUnhealthy:
			health.Summary.Unhealthy++
		default:
			health.Summary.Unknown++
		}
	}
	health.Overall = classify(health.Summary)

	if health.Overall != OverallHealthy {
		a.logger.Warnw("Health check degraded",
			"overall", health.Overall,
			"healthy", health.Summary.Healthy,
			"total", health.Summary.Total,
		)
	}

	return health
}

// probe runs one health check under the probe timeout. The check itself
// runs in its own goroutine so a hung store client cannot block the
// bounded wait.
func (a *Aggregator) probe(ctx context.Context, conn store.Connection) Report {
	probeCtx, cancel := context.WithTimeout(ctx, a.probeTimeout)
	defer cancel()

	start := time.Now()
	errCh := make(chan error, 1)
	go func() {
		errCh <- conn.HealthCheck(probeCtx)
	}()

	select {
	case err := <-errCh:
		elapsed := time.Since(start)
		if err != nil {
			return Report{
				Store:        conn.Name(),
				Status:       StatusUnhealthy,
				ResponseTime: elapsed,
				Err:          err,
			}
		}
		return Report{
			Store:        conn.Name(),
			Status:       StatusHealthy,
			ResponseTime: elapsed,
			Detail:       "ok",
		}
	case <-probeCtx.Done():
		return Report{
			Store:        conn.Name(),
			Status:       StatusUnhealthy,
			ResponseTime: time.Since(start),
			Err:          fmt.Errorf("health check timed out after %s", a.probeTimeout),
		}
	}
}

// Summarize flattens an aggregate check into per-store booleans.
func (a *Aggregator) Summarize(ctx context.Context) Summary {
	health := a.CheckAll(ctx)

	checks := make(map[string]bool, len(health.Reports))
	for _, r := range health.Reports {
		checks[r.Store] = r.Status == StatusHealthy
	}

	return Summary{
		Status:    health.Overall,
		Checks:    checks,
		Timestamp: health.Timestamp,
	}
}

// classify derives the overall label: healthy iff every store is healthy,
// unhealthy iff none are, degraded otherwise.
func classify(c Counts) OverallStatus {
	switch {
	case c.Total == 0 || c.Healthy == c.Total:
		return OverallHealthy
	case c.Healthy == 0:
		return OverallUnhealthy
	default:
		return OverallDegraded
	}
}
