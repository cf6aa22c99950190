package metrics

import (
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.IncludeResolved("block")
	pr.IncludeResolved("inline")
	pr.AnchorMiss()
	pr.DynamicPanel()
	pr.RunCompleted("render", "success", 150*time.Millisecond)
	pr.CacheAccess(3, 1)
	// Basic scrape to ensure metrics encode without panic
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if len(mfs) == 0 {
		t.Fatalf("expected metrics, got none")
	}
}

func TestPrometheusRecorderNilRegistry(t *testing.T) {
	pr := NewPrometheusRecorder(nil)
	pr.IncludeResolved("dynamic")
	pr.RunCompleted("include", "error", time.Millisecond)
}
