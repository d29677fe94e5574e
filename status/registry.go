package status

import (
	"fmt"
	"sync/atomic"
)

// Registry is the central metrics facade
// Components cache pointers at construction; hot paths write directly to atomics
type Registry struct {
	Bools   *MetricMap[atomic.Bool]
	Ints    *MetricMap[atomic.Int64]
	Floats  *MetricMap[AtomicFloat]
	Strings *MetricMap[AtomicString]
}

// NewRegistry creates an initialized Registry
func NewRegistry() *Registry {
	return &Registry{
		Bools:   NewMetricMap[atomic.Bool](),
		Ints:    NewMetricMap[atomic.Int64](),
		Floats:  NewMetricMap[AtomicFloat](),
		Strings: NewMetricMap[AtomicString](),
	}
}

// TotalCount returns total metrics across all types
func (r *Registry) TotalCount() int {
	return r.Bools.Count() + r.Ints.Count() + r.Floats.Count() + r.Strings.Count()
}

// Sample is a point-in-time reading of one metric
type Sample struct {
	Key   string
	Value string
}

// Snapshot reads every metric, grouped by type and sorted by key within a type
func (r *Registry) Snapshot() []Sample {
	out := make([]Sample, 0, r.TotalCount())
	r.Bools.Range(func(key string, v *atomic.Bool) {
		out = append(out, Sample{Key: key, Value: fmt.Sprint(v.Load())})
	})
	r.Ints.Range(func(key string, v *atomic.Int64) {
		out = append(out, Sample{Key: key, Value: fmt.Sprint(v.Load())})
	})
	r.Floats.Range(func(key string, v *AtomicFloat) {
		out = append(out, Sample{Key: key, Value: fmt.Sprintf("%.3f", v.Get())})
	})
	r.Strings.Range(func(key string, v *AtomicString) {
		out = append(out, Sample{Key: key, Value: v.Load()})
	})
	return out
}
