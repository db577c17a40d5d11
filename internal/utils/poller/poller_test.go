package poller

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPoller_RunsUntilStopped(t *testing.T) {
	var calls atomic.Int32
	p := NewPoller("test", 5*time.Millisecond, func(ctx context.Context) error {
		// failures must not stop the loop
		if calls.Add(1)%2 == 0 {
			return errors.New("boom")
		}
		return nil
	})

	done := make(chan struct{})
	go func() {
		p.Start(context.Background())
		close(done)
	}()

	assert.Eventually(t, func() bool { return calls.Load() >= 3 }, time.Second, time.Millisecond)
	p.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop")
	}
}

func TestPoller_StopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := NewPoller("test", time.Hour, func(ctx context.Context) error { return nil })

	done := make(chan struct{})
	go func() {
		p.Start(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop")
	}
}
