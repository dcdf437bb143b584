package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbsmedya/polyseed/internal/logger"
	"github.com/dbsmedya/polyseed/internal/store"
)

// fakeConn implements store.Connection with a scriptable health check.
type fakeConn struct {
	name     string
	checkErr error
	delay    time.Duration
	block    bool // never respond at all
}

func (f *fakeConn) Name() string                         { return f.name }
func (f *fakeConn) Connect(ctx context.Context) error    { return nil }
func (f *fakeConn) Disconnect(ctx context.Context) error { return nil }
func (f *fakeConn) Clean(ctx context.Context) error      { return nil }

func (f *fakeConn) HealthCheck(ctx context.Context) error {
	if f.block {
		select {} // hang forever
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return f.checkErr
}

func conns(c ...store.Connection) []store.Connection { return c }

func TestCheckAll_AllHealthy(t *testing.T) {
	agg := NewAggregator(conns(
		&fakeConn{name: "mysql"},
		&fakeConn{name: "mongo"},
		&fakeConn{name: "redis"},
		&fakeConn{name: "vector"},
	), time.Second, logger.NewNop())

	health := agg.CheckAll(context.Background())

	assert.Equal(t, OverallHealthy, health.Overall)
	assert.Equal(t, Counts{Total: 4, Healthy: 4}, health.Summary)
	assert.False(t, health.Timestamp.IsZero())
	for _, r := range health.Reports {
		assert.Equal(t, StatusHealthy, r.Status)
		assert.NoError(t, r.Err)
	}
}

func TestCheckAll_AllFailing(t *testing.T) {
	boom := errors.New("connection refused")
	agg := NewAggregator(conns(
		&fakeConn{name: "mysql", checkErr: boom},
		&fakeConn{name: "redis", checkErr: boom},
	), time.Second, logger.NewNop())

	health := agg.CheckAll(context.Background())

	assert.Equal(t, OverallUnhealthy, health.Overall)
	assert.Equal(t, Counts{Total: 2, Unhealthy: 2}, health.Summary)
}

func TestCheckAll_MixedIsDegraded(t *testing.T) {
	agg := NewAggregator(conns(
		&fakeConn{name: "mysql"},
		&fakeConn{name: "mongo", checkErr: errors.New("no primary")},
		&fakeConn{name: "redis"},
	), time.Second, logger.NewNop())

	health := agg.CheckAll(context.Background())

	assert.Equal(t, OverallDegraded, health.Overall)
	assert.Equal(t, Counts{Total: 3, Healthy: 2, Unhealthy: 1}, health.Summary)
}

// Exactly one of the three labels must hold for every healthy/total split.
func TestClassify_Exhaustive(t *testing.T) {
	for total := 1; total <= 4; total++ {
		for healthy := 0; healthy <= total; healthy++ {
			c := Counts{Total: total, Healthy: healthy, Unhealthy: total - healthy}
			got := classify(c)
			switch {
			case healthy == total:
				assert.Equal(t, OverallHealthy, got)
			case healthy == 0:
				assert.Equal(t, OverallUnhealthy, got)
			default:
				assert.Equal(t, OverallDegraded, got)
			}
		}
	}
}

func TestCheckAll_TimeoutClassifiedUnhealthy(t *testing.T) {
	agg := NewAggregator(conns(
		&fakeConn{name: "mysql"},
		&fakeConn{name: "mongo", delay: 500 * time.Millisecond},
	), 50*time.Millisecond, logger.NewNop())

	health := agg.CheckAll(context.Background())

	assert.Equal(t, OverallDegraded, health.Overall)
	var mongoReport Report
	for _, r := range health.Reports {
		if r.Store == "mongo" {
			mongoReport = r
		}
	}
	assert.Equal(t, StatusUnhealthy, mongoReport.Status)
	require.Error(t, mongoReport.Err)
	assert.Contains(t, mongoReport.Err.Error(), "timed out")
}

func TestCheckAll_BlockedProbeDoesNotStall(t *testing.T) {
	agg := NewAggregator(conns(
		&fakeConn{name: "mysql"},
		&fakeConn{name: "vector", block: true},
	), 50*time.Millisecond, logger.NewNop())

	start := time.Now()
	health := agg.CheckAll(context.Background())
	elapsed := time.Since(start)

	assert.Less(t, elapsed, time.Second, "blocked probe must not stall CheckAll")
	assert.Equal(t, OverallDegraded, health.Overall)
	assert.Equal(t, 1, health.Summary.Healthy)
	assert.Equal(t, 1, health.Summary.Unhealthy)
}

func TestSummarize(t *testing.T) {
	agg := NewAggregator(conns(
		&fakeConn{name: "mysql"},
		&fakeConn{name: "mongo"},
		&fakeConn{name: "redis", checkErr: errors.New("down")},
		&fakeConn{name: "vector"},
	), time.Second, logger.NewNop())

	summary := agg.Summarize(context.Background())

	assert.Equal(t, OverallDegraded, summary.Status)
	assert.Equal(t, map[string]bool{
		"mysql":  true,
		"mongo":  true,
		"redis":  false,
		"vector": true,
	}, summary.Checks)
	assert.False(t, summary.Timestamp.IsZero())
}
