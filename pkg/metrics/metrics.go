package metrics

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
)

// Type is the Prometheus metric type.
type Type string

// Metric types.
const (
	TypeCounter   Type = "counter"
	TypeGauge     Type = "gauge"
	TypeHistogram Type = "histogram"
)

// Sample is one exposed line.
type Sample struct {
	Name   string
	Labels map[string]string
	Value  float64
}

// Metric is implemented by every metric family.
type Metric interface {
	Name() string
	Help() string
	Type() Type
	Collect() []Sample
}

// atomicFloat stores a float64 as bits for lock-free updates.
type atomicFloat struct {
	bits atomic.Uint64
}

func (a *atomicFloat) Load() float64 { return math.Float64frombits(a.bits.Load()) }

func (a *atomicFloat) Store(v float64) { a.bits.Store(math.Float64bits(v)) }

func (a *atomicFloat) Add(delta float64) {
	for {
		old := a.bits.Load()
		if a.bits.CompareAndSwap(old, math.Float64bits(math.Float64frombits(old)+delta)) {
			return
		}
	}
}

// family is the label-keyed series map shared by all metric types.
type family[S any] struct {
	name       string
	help       string
	labelNames []string
	newSeries  func() *S

	mu     sync.RWMutex
	series map[string]*S
	labels map[string]map[string]string
}

func newFamily[S any](name, help string, labelNames []string, newSeries func() *S) *family[S] {
	return &family[S]{
		name:       name,
		help:       help,
		labelNames: labelNames,
		newSeries:  newSeries,
		series:     make(map[string]*S),
		labels:     make(map[string]map[string]string),
	}
}

func (f *family[S]) Name() string { return f.name }

func (f *family[S]) Help() string { return f.help }

// with returns the series for values, creating it on first use.
// A wrong number of values is a programming error and panics.
func (f *family[S]) with(values []string) *S {
	if len(values) != len(f.labelNames) {
		panic(fmt.Sprintf("metrics: %s expects %d label values, got %d", f.name, len(f.labelNames), len(values)))
	}
	key := strings.Join(values, "\x00")

	f.mu.RLock()
	s, ok := f.series[key]
	f.mu.RUnlock()
	if ok {
		return s
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok = f.series[key]; ok {
		return s
	}
	labels := make(map[string]string, len(values))
	for i, n := range f.labelNames {
		labels[n] = values[i]
	}
	s = f.newSeries()
	f.series[key] = s
	f.labels[key] = labels
	return s
}

// lookup returns an existing series without creating it.
func (f *family[S]) lookup(values []string) (*S, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	s, ok := f.series[strings.Join(values, "\x00")]
	return s, ok
}

// each visits series in label-key order so output is stable.
func (f *family[S]) each(fn func(labels map[string]string, s *S)) {
	f.mu.RLock()
	keys := make([]string, 0, len(f.series))
	for k := range f.series {
		keys = append(keys, k)
	}
	f.mu.RUnlock()
	slices.Sort(keys)

	for _, k := range keys {
		f.mu.RLock()
		s, labels := f.series[k], f.labels[k]
		f.mu.RUnlock()
		fn(labels, s)
	}
}

// Counter is a monotonically increasing family.
type Counter struct {
	*family[atomicFloat]
}

func (c *Counter) Type() Type { return TypeCounter }

// Inc adds one to the series for the given label values.
func (c *Counter) Inc(values ...string) { c.Add(1, values...) }

// Add adds delta to the series. Negative deltas are ignored.
func (c *Counter) Add(delta float64, values ...string) {
	if delta < 0 {
		return
	}
	c.with(values).Add(delta)
}

// Value returns the current value of a series, zero if it does not exist.
func (c *Counter) Value(values ...string) float64 {
	if v, ok := c.lookup(values); ok {
		return v.Load()
	}
	return 0
}

func (c *Counter) Collect() []Sample {
	var out []Sample
	c.each(func(labels map[string]string, v *atomicFloat) {
		out = append(out, Sample{Name: c.name, Labels: labels, Value: v.Load()})
	})
	return out
}

// Gauge is a family of values that go up and down. A gauge created with
// NewGaugeFunc has a single series sampled at collection time.
type Gauge struct {
	*family[atomicFloat]
	fn func() float64
}

func (g *Gauge) Type() Type { return TypeGauge }

// Set sets the series for the given label values.
func (g *Gauge) Set(v float64, values ...string) { g.with(values).Store(v) }

// Add adds delta to the series.
func (g *Gauge) Add(delta float64, values ...string) { g.with(values).Add(delta) }

func (g *Gauge) Collect() []Sample {
	if g.fn != nil {
		return []Sample{{Name: g.name, Value: g.fn()}}
	}
	var out []Sample
	g.each(func(labels map[string]string, v *atomicFloat) {
		out = append(out, Sample{Name: g.name, Labels: labels, Value: v.Load()})
	})
	return out
}

// histogramSeries holds per-bucket (non-cumulative) counts.
type histogramSeries struct {
	counts []atomic.Uint64
	sum    atomicFloat
	count  atomic.Uint64
}

// Histogram is a family of bucketed distributions. The last bucket is +Inf.
type Histogram struct {
	*family[histogramSeries]
	buckets []float64
}

func (h *Histogram) Type() Type { return TypeHistogram }

// Observe records v in the series for the given label values.
func (h *Histogram) Observe(v float64, values ...string) {
	s := h.with(values)
	i, _ := slices.BinarySearch(h.buckets, v)
	s.counts[i].Add(1)
	s.sum.Add(v)
	s.count.Add(1)
}

func (h *Histogram) Collect() []Sample {
	var out []Sample
	h.each(func(labels map[string]string, s *histogramSeries) {
		var cumulative uint64
		for i, bound := range h.buckets {
			cumulative += s.counts[i].Load()
			bl := make(map[string]string, len(labels)+1)
			for k, v := range labels {
				bl[k] = v
			}
			bl["le"] = formatFloat(bound)
			out = append(out, Sample{Name: h.name + "_bucket", Labels: bl, Value: float64(cumulative)})
		}
		out = append(out,
			Sample{Name: h.name + "_sum", Labels: labels, Value: s.sum.Load()},
			Sample{Name: h.name + "_count", Labels: labels, Value: float64(s.count.Load())},
		)
	})
	return out
}

// DefaultBuckets suit request durations in seconds.
var DefaultBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

// Registry owns a set of uniquely named metrics.
type Registry struct {
	mu      sync.RWMutex
	metrics []Metric
	names   map[string]bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{names: make(map[string]bool)}
}

// NewCounter registers a counter. Duplicate names panic.
func (r *Registry) NewCounter(name, help string, labels ...string) *Counter {
	c := &Counter{family: newFamily(name, help, labels, func() *atomicFloat { return &atomicFloat{} })}
	r.register(c)
	return c
}

// NewGauge registers a gauge.
func (r *Registry) NewGauge(name, help string, labels ...string) *Gauge {
	g := &Gauge{family: newFamily(name, help, labels, func() *atomicFloat { return &atomicFloat{} })}
	r.register(g)
	return g
}

// NewGaugeFunc registers an unlabelled gauge whose value is fn() at scrape time.
func (r *Registry) NewGaugeFunc(name, help string, fn func() float64) *Gauge {
	g := &Gauge{family: newFamily[atomicFloat](name, help, nil, nil), fn: fn}
	r.register(g)
	return g
}

// NewHistogram registers a histogram. buckets need not be sorted.
func (r *Registry) NewHistogram(name, help string, buckets []float64, labels ...string) *Histogram {
	bounds := slices.Clone(buckets)
	slices.Sort(bounds)
	if len(bounds) == 0 || !math.IsInf(bounds[len(bounds)-1], 1) {
		bounds = append(bounds, math.Inf(1))
	}
	h := &Histogram{buckets: bounds}
	h.family = newFamily(name, help, labels, func() *histogramSeries {
		return &histogramSeries{counts: make([]atomic.Uint64, len(bounds))}
	})
	r.register(h)
	return h
}

func (r *Registry) register(m Metric) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.names[m.Name()] {
		panic("metrics: duplicate metric " + m.Name())
	}
	r.names[m.Name()] = true
	r.metrics = append(r.metrics, m)
}

// Metrics returns the registered metrics in registration order.
func (r *Registry) Metrics() []Metric {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.metrics)
}
