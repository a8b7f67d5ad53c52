// internal/sched/tickclock.go

package sched

import (
	"sync"
	"sync/atomic"
	"time"
)

// SimClock is the simulated time. Only the simulator advances it.
type SimClock struct {
	now int64
}

func (c *SimClock) Now() int64 { return c.now }

// Advance moves the clock forward by d; non-positive values are ignored so
// the clock never decreases.
func (c *SimClock) Advance(d int64) {
	if d > 0 {
		c.now += d
	}
}

func (c *SimClock) Reset() { c.now = 0 }

// TickClock is the wall-clock trigger that drives a Runner. It emits on Ch
// at a fixed interval and counts the ticks it emitted.
type TickClock struct {
	Ch     chan struct{}
	count  atomic.Int64
	ticker *time.Ticker
	stop   chan struct{}
	once   sync.Once
}

// NewTickClock creates a clock but does not start it.
func NewTickClock(buffer int) *TickClock {
	return &TickClock{
		Ch:   make(chan struct{}, buffer),
		stop: make(chan struct{}),
	}
}

// Start begins emitting ticks at the given interval. A tick is dropped when
// the consumer has not drained the previous ones.
func (c *TickClock) Start(interval time.Duration) {
	c.ticker = time.NewTicker(interval)
	go func() {
		defer c.ticker.Stop()
		for {
			select {
			case <-c.ticker.C:
				select {
				case c.Ch <- struct{}{}:
					c.count.Add(1)
				default:
				}
			case <-c.stop:
				close(c.Ch)
				return
			}
		}
	}()
}

// SetInterval changes the cadence of a started clock.
func (c *TickClock) SetInterval(interval time.Duration) {
	if c.ticker != nil {
		c.ticker.Reset(interval)
	}
}

// Stop signals the clock to stop emitting ticks. Safe to call more than once.
func (c *TickClock) Stop() {
	c.once.Do(func() { close(c.stop) })
}

// Count returns the number of ticks emitted so far.
func (c *TickClock) Count() int64 {
	return c.count.Load()
}
