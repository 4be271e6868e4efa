package logger

import (
	"fmt"
	"time"
)

// ProgressReporter logs how far a sequential batch has advanced.
type ProgressReporter struct {
	total       int
	current     int
	description string
	interval    time.Duration
	startTime   time.Time
	lastUpdate  time.Time
	logger      *Logger
}

// NewProgressReporter creates a reporter that logs at most once per interval
// plus once on completion.
func NewProgressReporter(log *Logger, total int, description string, interval time.Duration) *ProgressReporter {
	now := time.Now()
	return &ProgressReporter{
		total:       total,
		description: description,
		interval:    interval,
		startTime:   now,
		lastUpdate:  now,
		logger:      log.WithField("component", "progress"),
	}
}

// Update increments the progress counter and reports when due
func (pr *ProgressReporter) Update(increment int) {
	pr.current += increment
	now := time.Now()

	if now.Sub(pr.lastUpdate) >= pr.interval || pr.current >= pr.total {
		pr.report()
		pr.lastUpdate = now
	}
}

// Current returns the number of completed units
func (pr *ProgressReporter) Current() int {
	return pr.current
}

// Percentage returns completion in the 0..100 range; an empty batch is complete.
func (pr *ProgressReporter) Percentage() float64 {
	if pr.total <= 0 {
		return 100
	}
	return float64(pr.current) / float64(pr.total) * 100
}

func (pr *ProgressReporter) report() {
	elapsed := time.Since(pr.startTime)

	var eta string
	if pr.current > 0 && pr.current < pr.total {
		avgTimePerItem := elapsed / time.Duration(pr.current)
		remaining := time.Duration(pr.total-pr.current) * avgTimePerItem
		eta = fmt.Sprintf(" (ETA: %s)", remaining.Round(time.Second))
	}

	pr.logger.WithFields(map[string]interface{}{
		"current": pr.current,
		"total":   pr.total,
		"elapsed": elapsed.Round(time.Second).String(),
	}).Info(fmt.Sprintf("%s: %d/%d (%.1f%%)%s", pr.description, pr.current, pr.total, pr.Percentage(), eta))
}
