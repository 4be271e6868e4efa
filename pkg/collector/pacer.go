package collector

import "time"

// Pacer spaces out calls to the provider. Delays are fixed; a Pacer never
// lengthens them after a failure.
type Pacer interface {
	Pause(d time.Duration)
}

// SleepPacer blocks the caller for the full delay.
type SleepPacer struct{}

func (SleepPacer) Pause(d time.Duration) {
	if d > 0 {
		time.Sleep(d)
	}
}

// NoopPacer returns immediately.
type NoopPacer struct{}

func (NoopPacer) Pause(time.Duration) {}
