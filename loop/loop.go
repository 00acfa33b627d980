// Package loop runs a per-frame callback until it is told to stop.
package loop

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"
)

// Ticker is a source of frame times. time.Ticker is the production one;
// tests drive Manual instead.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct {
	t *time.Ticker
}

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop() { t.t.Stop() }

// NewTicker returns a wall-clock ticker firing hz times per second.
func NewTicker(hz int) (Ticker, error) {
	if hz <= 0 {
		return nil, fmt.Errorf("invalid frame rate: %d", hz)
	}
	d := time.Second / time.Duration(hz)
	if d <= 0 {
		return nil, fmt.Errorf("invalid frame rate: %d", hz)
	}
	return timeTicker{t: time.NewTicker(d)}, nil
}

// Config controls Run.
type Config struct {
	// Frames stops the loop after N frames (0 = run until cancelled).
	Frames uint64
}

// Run calls step once per tick until ctx is done, the frame limit is
// reached or step fails. It stops the ticker on return.
func Run(ctx context.Context, t Ticker, cfg Config, step func() error) error {
	defer t.Stop()

	var frame uint64
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-t.C():
			if !ok {
				return nil
			}
			if err := step(); err != nil {
				return err
			}
			frame++
			if cfg.Frames > 0 && frame >= cfg.Frames {
				return nil
			}
		}
	}
}

// Step advances n frames synchronously, without any clock.
func Step(n int, step func() error) error {
	for i := 0; i < n; i++ {
		if err := step(); err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
	}
	return nil
}

// Manual is a Ticker that only fires when Tick is called.
type Manual struct {
	ch      chan time.Time
	now     time.Time
	stopped atomic.Bool
}

func NewManual(start time.Time) *Manual {
	return &Manual{ch: make(chan time.Time), now: start}
}

func (m *Manual) C() <-chan time.Time { return m.ch }

func (m *Manual) Stop() { m.stopped.Store(true) }

// Tick delivers one frame, advancing the fake clock by d. It blocks until
// the loop receives it.
func (m *Manual) Tick(d time.Duration) {
	m.now = m.now.Add(d)
	m.ch <- m.now
}

// Close ends the frame stream; Run returns nil once it notices.
func (m *Manual) Close() { close(m.ch) }

func (m *Manual) Stopped() bool { return m.stopped.Load() }
