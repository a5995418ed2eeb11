// Package metrics provides optional Prometheus instrumentation for mapping
// evaluation. The core engine stays metrics free; callers that want
// visibility wrap individual mappings with Collector.Instrument.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/warpmap/warp"
)

// Collector owns the evaluation metrics for a set of instrumented mappings.
type Collector struct {
	evaluations *prometheus.CounterVec
	points      *prometheus.CounterVec
	failures    *prometheus.CounterVec
}

// NewCollector creates the metric vectors and registers them with reg.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "warp_transform_evaluations_total",
			Help: "Batch transform evaluations, by mapping class and direction.",
		}, []string{"class", "direction"}),
		points: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "warp_transform_points_total",
			Help: "Points transformed, by mapping class and direction.",
		}, []string{"class", "direction"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "warp_transform_failures_total",
			Help: "Failed transform evaluations, by mapping class and direction.",
		}, []string{"class", "direction"}),
	}
	for _, col := range []prometheus.Collector{c.evaluations, c.points, c.failures} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Instrument wraps m so every TranForward and TranInverse call is counted.
// The wrapper satisfies warp.Mapping and delegates everything else to m; it
// does not take an extra counted reference.
func (c *Collector) Instrument(m warp.Mapping) warp.Mapping {
	return &instrumented{Mapping: m, c: c}
}

type instrumented struct {
	warp.Mapping
	c *Collector
}

func (im *instrumented) TranForward(points [][]float64) ([][]float64, error) {
	out, err := im.Mapping.TranForward(points)
	im.c.observe(im.ClassName(), "forward", points, err)
	return out, err
}

func (im *instrumented) TranInverse(points [][]float64) ([][]float64, error) {
	out, err := im.Mapping.TranInverse(points)
	im.c.observe(im.ClassName(), "inverse", points, err)
	return out, err
}

func (c *Collector) observe(class, direction string, points [][]float64, err error) {
	c.evaluations.WithLabelValues(class, direction).Inc()
	if err != nil {
		c.failures.WithLabelValues(class, direction).Inc()
		return
	}
	if len(points) > 0 {
		c.points.WithLabelValues(class, direction).Add(float64(len(points[0])))
	}
}
