package lifecycle

import (
	"sync"
	"time"
)

// Scheduler is a source of repeating tick events. The production
// implementation is timer-driven; tests substitute a manual one so tick
// interleavings can be driven deterministically.
type Scheduler interface {
	// Schedule runs fn repeatedly until the returned stop function is
	// called. Stop is idempotent.
	Schedule(interval time.Duration, fn func()) (stop func())
}

// TickerScheduler drives ticks from a wall-clock ticker.
type TickerScheduler struct{}

func (TickerScheduler) Schedule(interval time.Duration, fn func()) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ticker.C:
				fn()
			case <-done:
				ticker.Stop()
				return
			}
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() { close(done) })
	}
}
