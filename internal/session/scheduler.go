package session

import (
	"sync"
	"time"
)

// Scheduler runs a callback on a fixed period. The manager uses exactly
// one scheduled task per session.
type Scheduler interface {
	// Every calls fn every period until the returned stop function is
	// called. stop is safe to call more than once and from within fn.
	Every(period time.Duration, fn func()) (stop func())
}

// TickerScheduler is the production Scheduler backed by time.Ticker.
type TickerScheduler struct{}

// Every starts a goroutine that calls fn on every tick.
func (TickerScheduler) Every(period time.Duration, fn func()) func() {
	ticker := time.NewTicker(period)
	done := make(chan struct{})

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				select {
				case <-done:
					return
				default:
				}
				fn()
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() { close(done) })
	}
}
