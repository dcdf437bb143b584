package seed

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFixedDelay(t *testing.T) {
	s := FixedDelay{Interval: 500 * time.Millisecond}
	assert.Equal(t, 500*time.Millisecond, s.Delay(2))
	assert.Equal(t, 500*time.Millisecond, s.Delay(5))
}

func TestIncrementalDelay(t *testing.T) {
	s := IncrementalDelay{Base: time.Second}
	assert.Equal(t, time.Second, s.Delay(2))
	assert.Equal(t, 2*time.Second, s.Delay(3))
	assert.Equal(t, 3*time.Second, s.Delay(4))
}

func TestExponentialBackoff(t *testing.T) {
	s := ExponentialBackoff{Base: time.Second}
	assert.Equal(t, time.Duration(0), s.Delay(1))
	assert.Equal(t, time.Second, s.Delay(2))
	assert.Equal(t, 2*time.Second, s.Delay(3))
	assert.Equal(t, 4*time.Second, s.Delay(4))
}

func TestExponentialBackoff_Cap(t *testing.T) {
	s := ExponentialBackoff{Base: time.Second, Max: 3 * time.Second}
	assert.Equal(t, 3*time.Second, s.Delay(4))
	assert.Equal(t, 3*time.Second, s.Delay(10))
}

func TestSleep_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, sleep(ctx, time.Minute))
}
