// Package metrics records pipeline and LLM metrics in a Prometheus registry.
package metrics

import (
	"time"
)

// Recorder defines the interface for recording pipeline metrics.
type Recorder interface {
	// ObserveRequest records a completed LLM request.
	ObserveRequest(model string, promptTokens, completionTokens int, success bool, errorType string, duration time.Duration)

	// IncThrottle counts rate-limit rejections and waits.
	IncThrottle(model, reason string)

	// ObserveQueueWait records time spent waiting for rate limit capacity.
	ObserveQueueWait(model string, duration time.Duration)

	// ObserveTitle records the terminal outcome of one unit of work.
	ObserveTitle(status string)
}

// NoopRecorder discards everything.
type NoopRecorder struct{}

// Nop returns a recorder that discards all metrics.
func Nop() Recorder {
	return NoopRecorder{}
}

func (NoopRecorder) ObserveRequest(string, int, int, bool, string, time.Duration) {}

func (NoopRecorder) IncThrottle(string, string) {}

func (NoopRecorder) ObserveQueueWait(string, time.Duration) {}

func (NoopRecorder) ObserveTitle(string) {}
