package sweeper

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"labequip-backend/config"
)

type countingSweeper struct {
	calls atomic.Int32
	err   error
}

func (c *countingSweeper) SweepOverdue(context.Context) (int, error) {
	c.calls.Add(1)
	return 2, c.err
}

func TestRunner_DisabledReturnsImmediately(t *testing.T) {
	s := &countingSweeper{}
	r := NewRunner(config.SweeperConfig{Enabled: false, Interval: time.Millisecond}, s)

	done := make(chan struct{})
	go func() {
		r.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("disabled runner did not return")
	}
	assert.Zero(t, s.calls.Load())
}

func TestRunner_SweepsUntilCancelled(t *testing.T) {
	s := &countingSweeper{err: errors.New("db down")}
	r := NewRunner(config.SweeperConfig{Enabled: true, Interval: 5 * time.Millisecond}, s)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return s.calls.Load() >= 3 }, time.Second, time.Millisecond,
		"failures must not stop the loop")
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("runner did not stop after cancel")
	}
}
