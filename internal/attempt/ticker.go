package attempt

import (
	"sync"
	"time"
)

// Countdown drives a machine's per-second tick from its own goroutine.
// Stop is the scoped release of the timer: the take-quiz flow defers it so
// every exit path (submit, auto-submit, navigation away) cancels the tick
// before the attempt is discarded. A stopped countdown can never deliver
// another tick.
type Countdown struct {
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// StartCountdown ticks fn once per interval until stopped. fn receives the
// machine's expired signal through its own return handling; the countdown
// itself is agnostic to what a tick does.
func StartCountdown(interval time.Duration, fn func()) *Countdown {
	c := &Countdown{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go func() {
		defer close(c.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-c.stop:
				return
			case <-ticker.C:
				fn()
			}
		}
	}()
	return c
}

// Stop cancels the countdown and waits for the tick goroutine to exit, so
// no tick can run after Stop returns. Safe to call more than once.
func (c *Countdown) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
	<-c.done
}
