// Package metrics defines the pipeline's metrics recording abstraction.
package metrics

import "time"

// Recorder receives pipeline measurements. Implementations must be safe for
// concurrent use.
type Recorder interface {
	// IncludeResolved counts one resolved include directive by kind
	// (block, inline, dynamic, remote).
	IncludeResolved(kind string)

	// AnchorMiss counts an anchor that matched no element.
	AnchorMiss()

	// DynamicPanel counts one materialized dynamic panel.
	DynamicPanel()

	// RunCompleted records one finished top-level operation.
	RunCompleted(mode, outcome string, d time.Duration)

	// CacheAccess records file cache hit/miss totals observed at run end.
	CacheAccess(hits, misses int64)
}

// Noop discards all measurements.
type Noop struct{}

func (Noop) IncludeResolved(string)                     {}
func (Noop) AnchorMiss()                                {}
func (Noop) DynamicPanel()                              {}
func (Noop) RunCompleted(string, string, time.Duration) {}
func (Noop) CacheAccess(int64, int64)                   {}

// OrNoop returns r, or a Noop recorder when r is nil.
func OrNoop(r Recorder) Recorder {
	if r == nil {
		return Noop{}
	}
	return r
}
