// Package metrics records fixture operation outcomes. The Recorder
// interface keeps the pipeline decoupled from any metrics backend; the
// default recorder does nothing.
package metrics

import (
	"context"
	"time"
)

// Recorder observes one completed operation: its name, whether it
// succeeded, and how long it took.
type Recorder interface {
	Observe(ctx context.Context, operation string, success bool, elapsed time.Duration)
}

// Nop returns a recorder that discards every observation.
func Nop() Recorder {
	return nopRecorder{}
}

type nopRecorder struct{}

func (nopRecorder) Observe(context.Context, string, bool, time.Duration) {}
