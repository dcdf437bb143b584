// Package lifecycle owns startup, health monitoring, and shutdown of the
// store fleet.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/multierr"

	"github.com/dbsmedya/polyseed/internal/config"
	"github.com/dbsmedya/polyseed/internal/health"
	"github.com/dbsmedya/polyseed/internal/logger"
	"github.com/dbsmedya/polyseed/internal/store"
)

// State is the coordinator lifecycle state.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateInitializing  State = "initializing"
	StateReady         State = "ready"
	StateShuttingDown  State = "shutting_down"
	StateStopped       State = "stopped"
)

// ErrNotInitialized is returned when store accessors are used before the
// coordinator reaches the ready state.
var ErrNotInitialized = errors.New("lifecycle coordinator not initialized")

// ConnectionError reports a store that could not be reached during
// initialization after all retry attempts were exhausted.
type ConnectionError struct {
	Store    string
	Attempts int
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("store %s unreachable after %d attempts: %v", e.Store, e.Attempts, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// Coordinator connects and verifies every store with bounded retry,
// monitors health on a periodic timer, and disconnects in reverse
// dependency order on shutdown.
type Coordinator struct {
	conns  []store.Connection // dependency order: first connected, last disconnected first
	cfg    config.LifecycleConfig
	agg    *health.Aggregator
	guard  *store.Guard
	logger *logger.Logger

	mu    sync.Mutex
	state State

	monitorStop chan struct{}
	monitorDone chan struct{}

	// OnUnhealthy, when set, is invoked by the monitor loop whenever a
	// periodic check reports anything other than healthy.
	OnUnhealthy func(health.OverallHealth)
}

// NewCoordinator creates a coordinator over the given connections. The
// slice order is the dependency order used for connect; disconnect runs
// in reverse.
func NewCoordinator(conns []store.Connection, cfg config.LifecycleConfig, agg *health.Aggregator, guard *store.Guard, log *logger.Logger) *Coordinator {
	if log == nil {
		log = logger.NewDefault()
	}
	return &Coordinator{
		conns:  conns,
		cfg:    cfg,
		agg:    agg,
		guard:  guard,
		logger: log,
		state:  StateUninitialized,
	}
}

// State returns the current lifecycle state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Coordinator) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// Initialize connects and verifies every store, retrying each with
// exponential backoff (delay = baseDelay * 2^(attempt-1)). Exhausting the
// attempts for any store fails initialization entirely: already-connected
// stores are disconnected and the coordinator stays uninitialized.
func (c *Coordinator) Initialize(ctx context.Context) error {
	c.mu.Lock()
	switch c.state {
	case StateUninitialized, StateStopped:
		c.state = StateInitializing
	case StateReady:
		c.mu.Unlock()
		return nil
	default:
		s := c.state
		c.mu.Unlock()
		return fmt.Errorf("cannot initialize from state %s", s)
	}
	c.mu.Unlock()

	c.logger.Infow("Initializing store connections",
		"stores", len(c.conns),
		"max_attempts", c.cfg.MaxAttempts,
		"base_delay", c.cfg.BaseDelay(),
	)

	for i, conn := range c.conns {
		if err := c.verifyConnection(ctx, conn); err != nil {
			// No partial ready state: undo everything connected so far.
			c.disconnectRange(ctx, i-1)
			c.setState(StateUninitialized)
			return err
		}
	}

	c.setState(StateReady)

	if c.cfg.MonitorEnabled {
		c.startMonitor()
	}

	c.logger.Infow("All stores connected and verified", "stores", len(c.conns))
	return nil
}

// verifyConnection connects and health-checks a single store under the
// retry policy.
func (c *Coordinator) verifyConnection(ctx context.Context, conn store.Connection) error {
	log := c.logger.WithStore(conn.Name())

	var lastErr error
	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			delay := backoffDelay(c.cfg.BaseDelay(), attempt-1)
			log.Warnw("Retrying store connection",
				"attempt", attempt,
				"max_attempts", c.cfg.MaxAttempts,
				"delay", delay,
			)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return &ConnectionError{Store: conn.Name(), Attempts: attempt - 1, Err: ctx.Err()}
			}
		}

		if err := conn.Connect(ctx); err != nil {
			lastErr = err
			continue
		}
		if err := conn.HealthCheck(ctx); err != nil {
			lastErr = err
			_ = conn.Disconnect(ctx)
			continue
		}

		log.Infow("Store connected", "attempt", attempt)
		return nil
	}

	return &ConnectionError{Store: conn.Name(), Attempts: c.cfg.MaxAttempts, Err: lastErr}
}

// backoffDelay returns the delay applied after failed attempt n:
// baseDelay * 2^(n-1).
func backoffDelay(base time.Duration, attempt int) time.Duration {
	return base * (1 << uint(attempt-1))
}

// startMonitor starts the periodic health monitor, replacing (never
// stacking) any running instance.
func (c *Coordinator) startMonitor() {
	interval := c.cfg.Interval()
	if interval <= 0 {
		interval = time.Minute
	}
	c.startMonitorWithInterval(interval)
}

func (c *Coordinator) startMonitorWithInterval(interval time.Duration) {
	c.stopMonitor()

	c.mu.Lock()
	stop := make(chan struct{})
	done := make(chan struct{})
	c.monitorStop = stop
	c.monitorDone = done
	c.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				result := c.agg.CheckAll(context.Background())
				if result.Overall != health.OverallHealthy {
					c.logger.Warnw("Periodic health check not healthy",
						"overall", result.Overall,
						"healthy", result.Summary.Healthy,
						"total", result.Summary.Total,
					)
					if c.OnUnhealthy != nil {
						c.OnUnhealthy(result)
					}
				}
			}
		}
	}()
}

// stopMonitor stops the monitor loop and waits for it to exit.
func (c *Coordinator) stopMonitor() {
	c.mu.Lock()
	stop := c.monitorStop
	done := c.monitorDone
	c.monitorStop = nil
	c.monitorDone = nil
	c.mu.Unlock()

	if stop != nil {
		close(stop)
		<-done
	}
}

// Connections returns all store connections. Fails before ready.
func (c *Coordinator) Connections() ([]store.Connection, error) {
	if c.State() != StateReady {
		return nil, ErrNotInitialized
	}
	return c.conns, nil
}

// Store returns the named store connection. Fails before ready.
func (c *Coordinator) Store(name string) (store.Connection, error) {
	if c.State() != StateReady {
		return nil, ErrNotInitialized
	}
	for _, conn := range c.conns {
		if conn.Name() == name {
			return conn, nil
		}
	}
	return nil, fmt.Errorf("unknown store %q", name)
}

// Status produces a fresh per-store connectivity map. Never cached.
func (c *Coordinator) Status(ctx context.Context) map[string]bool {
	status := make(map[string]bool, len(c.conns))
	for _, conn := range c.conns {
		status[conn.Name()] = conn.HealthCheck(ctx) == nil
	}
	return status
}

// GracefulShutdown stops the monitor, waits out a short grace window for
// in-flight operations, then disconnects stores in reverse dependency
// order. Disconnect errors are collected, not swallowed.
func (c *Coordinator) GracefulShutdown(ctx context.Context) error {
	c.mu.Lock()
	if c.state == StateStopped {
		c.mu.Unlock()
		return nil
	}
	c.state = StateShuttingDown
	c.mu.Unlock()

	c.logger.Info("Graceful shutdown started")
	c.stopMonitor()

	if grace := c.cfg.ShutdownGrace(); grace > 0 {
		select {
		case <-time.After(grace):
		case <-ctx.Done():
		}
	}

	err := c.disconnectRange(ctx, len(c.conns)-1)
	c.setState(StateStopped)

	if err != nil {
		c.logger.Errorw("Shutdown completed with errors", "error", err)
		return err
	}
	c.logger.Info("Shutdown complete")
	return nil
}

// disconnectRange disconnects conns[0..upto] in reverse order, collecting
// every error.
func (c *Coordinator) disconnectRange(ctx context.Context, upto int) error {
	var errs error
	for i := upto; i >= 0; i-- {
		conn := c.conns[i]
		if err := conn.Disconnect(ctx); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("disconnect %s: %w", conn.Name(), err))
		}
	}
	return errs
}

// ReconnectAll performs a forced full recovery: shutdown then initialize.
func (c *Coordinator) ReconnectAll(ctx context.Context) error {
	c.logger.Info("Forced reconnect of all stores")
	if err := c.GracefulShutdown(ctx); err != nil {
		c.logger.Warnw("Shutdown during reconnect reported errors", "error", err)
	}
	return c.Initialize(ctx)
}

// CleanAll wipes all seeded data from every store. Refused in production
// regardless of any caller-supplied flag; requires the ready state.
func (c *Coordinator) CleanAll(ctx context.Context) error {
	if err := c.guard.Check("clean all stores"); err != nil {
		return err
	}
	if c.State() != StateReady {
		return ErrNotInitialized
	}

	var errs error
	for _, conn := range c.conns {
		if err := conn.Clean(ctx); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("clean %s: %w", conn.Name(), err))
		}
	}
	if errs != nil {
		return errs
	}

	c.logger.Info("All stores cleaned")
	return nil
}
