// Package metrics tracks render-path observability for the session
// manager: how many renders happened, how long they took, how large the
// resulting change maps were, and how many components the registry
// garbage-collected. It does not attempt to cover transport- or
// process-level metrics — those belong to whatever surrounds a session
// manager deployment, not to the diff engine's domain.
package metrics

import (
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// Metrics holds the counters and histograms a session.Manager updates:
// the session gauges on Open/Close, the render figures on every Render.
type Metrics struct {
	SessionsActive *Gauge
	SessionsTotal  *Counter

	RenderCount    *Counter
	RenderDuration *Histogram
	ChangeMapBytes *Histogram

	ComponentsGCed *Counter
	ErrorsTotal    *CounterVec

	namespace string
}

// New creates a metrics instance under the given namespace, used as the
// prefix for every exported series name.
func New(namespace string) *Metrics {
	return &Metrics{
		SessionsActive: NewGauge(namespace+"_sessions_active", "Number of live sessions"),
		SessionsTotal:  NewCounter(namespace+"_sessions_total", "Total sessions created"),

		RenderCount:    NewCounter(namespace+"_render_total", "Total render calls"),
		RenderDuration: NewHistogram(namespace+"_render_duration_seconds", "Render call duration"),
		ChangeMapBytes: NewHistogram(namespace+"_changemap_bytes", "Encoded change map size"),

		ComponentsGCed: NewCounter(namespace+"_components_gced_total", "Components removed by registry GC"),
		ErrorsTotal:    NewCounterVec(namespace+"_errors_total", "Render errors", "kind"),

		namespace: namespace,
	}
}

// Handler exposes the metrics in Prometheus text-exposition format.
func (m *Metrics) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")

		m.writeMetric(w, "sessions_active", m.SessionsActive.Value())
		m.writeMetric(w, "sessions_total", m.SessionsTotal.Value())
		m.writeMetric(w, "render_total", m.RenderCount.Value())
		m.writeMetric(w, "components_gced_total", m.ComponentsGCed.Value())

		for kind, value := range m.ErrorsTotal.Values() {
			m.writeMetricWithLabel(w, "errors_total", "kind", kind, value)
		}

		m.writeHistogram(w, "render_duration_seconds", m.RenderDuration)
		m.writeHistogram(w, "changemap_bytes", m.ChangeMapBytes)
	})
}

func (m *Metrics) writeMetric(w http.ResponseWriter, name string, value float64) {
	fmt.Fprintf(w, "%s_%s %f\n", m.namespace, name, value)
}

func (m *Metrics) writeMetricWithLabel(w http.ResponseWriter, name, labelName, labelValue string, value float64) {
	fmt.Fprintf(w, "%s_%s{%s=\"%s\"} %f\n", m.namespace, name, labelName, labelValue, value)
}

func (m *Metrics) writeHistogram(w http.ResponseWriter, name string, h *Histogram) {
	stats := h.Stats()
	fmt.Fprintf(w, "%s_%s_sum %f\n", m.namespace, name, stats.Sum)
	fmt.Fprintf(w, "%s_%s_count %d\n", m.namespace, name, stats.Count)
	fmt.Fprintf(w, "%s_%s_min %f\n", m.namespace, name, stats.Min)
	fmt.Fprintf(w, "%s_%s_max %f\n", m.namespace, name, stats.Max)
	fmt.Fprintf(w, "%s_%s_avg %f\n", m.namespace, name, stats.Avg)
}

// RecordRender updates the render-path counters for one completed (or
// failed) render call.
func (m *Metrics) RecordRender(d time.Duration, changeMapBytes int, componentsGCed int, err error) {
	m.RenderCount.Inc()
	m.RenderDuration.ObserveDuration(d)
	if err != nil {
		m.ErrorsTotal.Inc(errorKind(err))
		return
	}
	m.ChangeMapBytes.Observe(float64(changeMapBytes))
	if componentsGCed > 0 {
		m.ComponentsGCed.Add(int64(componentsGCed))
	}
}

func errorKind(err error) string {
	if err == nil {
		return "none"
	}
	return fmt.Sprintf("%T", err)
}

// Counter is a monotonically increasing counter.
type Counter struct {
	name  string
	help  string
	value int64
}

// NewCounter creates a new counter.
func NewCounter(name, help string) *Counter {
	return &Counter{name: name, help: help}
}

// Inc increments the counter by 1.
func (c *Counter) Inc() {
	atomic.AddInt64(&c.value, 1)
}

// Add adds the given value to the counter.
func (c *Counter) Add(delta int64) {
	atomic.AddInt64(&c.value, delta)
}

// Value returns the current counter value.
func (c *Counter) Value() float64 {
	return float64(atomic.LoadInt64(&c.value))
}

// Gauge is a value that can go up and down.
type Gauge struct {
	name  string
	help  string
	value int64
}

// NewGauge creates a new gauge.
func NewGauge(name, help string) *Gauge {
	return &Gauge{name: name, help: help}
}

// Set sets the gauge to a value.
func (g *Gauge) Set(value float64) {
	atomic.StoreInt64(&g.value, int64(value))
}

// Inc increments the gauge by 1.
func (g *Gauge) Inc() {
	atomic.AddInt64(&g.value, 1)
}

// Dec decrements the gauge by 1.
func (g *Gauge) Dec() {
	atomic.AddInt64(&g.value, -1)
}

// Value returns the current gauge value.
func (g *Gauge) Value() float64 {
	return float64(atomic.LoadInt64(&g.value))
}

// CounterVec is a counter with a single label dimension.
type CounterVec struct {
	name   string
	help   string
	label  string
	values map[string]*Counter
	mu     sync.RWMutex
}

// NewCounterVec creates a new counter vector with one label name.
func NewCounterVec(name, help, label string) *CounterVec {
	return &CounterVec{
		name:   name,
		help:   help,
		label:  label,
		values: make(map[string]*Counter),
	}
}

// WithLabel returns the counter for the given label value, creating it
// on first use.
func (cv *CounterVec) WithLabel(value string) *Counter {
	cv.mu.Lock()
	defer cv.mu.Unlock()

	if c, ok := cv.values[value]; ok {
		return c
	}
	c := NewCounter(cv.name, cv.help)
	cv.values[value] = c
	return c
}

// Inc increments the counter for the given label value.
func (cv *CounterVec) Inc(label string) {
	cv.WithLabel(label).Inc()
}

// Values returns a snapshot of every label's current counter value.
func (cv *CounterVec) Values() map[string]float64 {
	cv.mu.RLock()
	defer cv.mu.RUnlock()

	result := make(map[string]float64, len(cv.values))
	for label, counter := range cv.values {
		result[label] = counter.Value()
	}
	return result
}

// Histogram tracks the distribution of observed values. Stats (count,
// sum, min, max, average) cover every observation since creation; the
// raw sample slice is capped so long-running sessions don't grow it
// without limit — once it passes 10000 entries the oldest 5000 are
// dropped.
type Histogram struct {
	name   string
	help   string
	values []float64
	sum    float64
	count  int64
	min    float64
	max    float64
	mu     sync.Mutex
}

// NewHistogram creates a new histogram.
func NewHistogram(name, help string) *Histogram {
	return &Histogram{name: name, help: help, min: -1}
}

// Observe records a value.
func (h *Histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.values = append(h.values, value)
	h.sum += value
	h.count++

	if h.min < 0 || value < h.min {
		h.min = value
	}
	if value > h.max {
		h.max = value
	}

	if len(h.values) > 10000 {
		h.values = h.values[5000:]
	}
}

// ObserveDuration records a duration value in seconds.
func (h *Histogram) ObserveDuration(d time.Duration) {
	h.Observe(d.Seconds())
}

// Stats returns histogram statistics as of the call.
func (h *Histogram) Stats() HistogramStats {
	h.mu.Lock()
	defer h.mu.Unlock()

	stats := HistogramStats{Count: h.count, Sum: h.sum, Min: h.min, Max: h.max}
	if h.count > 0 {
		stats.Avg = h.sum / float64(h.count)
	}
	return stats
}

// HistogramStats is a point-in-time summary of a Histogram.
type HistogramStats struct {
	Count int64
	Sum   float64
	Min   float64
	Max   float64
	Avg   float64
}
