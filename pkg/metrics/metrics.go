// Package metrics is a small Prometheus-text-format registry: counters,
// gauges, and histograms, optionally labelled, rendered on an HTTP
// /metrics endpoint. It exists so the ingestion commands can expose
// operational numbers without pulling in a full metrics client.
package metrics

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultBuckets serve histograms that measure durations in seconds.
var DefaultBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60}

// Counter only ever goes up.
type Counter struct{ n atomic.Int64 }

func (c *Counter) Inc()         { c.n.Add(1) }
func (c *Counter) Add(d int64)  { c.n.Add(d) }
func (c *Counter) Value() int64 { return c.n.Load() }

// Gauge holds a value that can move both ways.
type Gauge struct{ n atomic.Int64 }

func (g *Gauge) Set(v int64)  { g.n.Store(v) }
func (g *Gauge) Inc()         { g.n.Add(1) }
func (g *Gauge) Dec()         { g.n.Add(-1) }
func (g *Gauge) Value() int64 { return g.n.Load() }

// Histogram counts observations into fixed upper-bound buckets.
type Histogram struct {
	mu     sync.Mutex
	bounds []float64
	counts []uint64
	sum    float64
	total  uint64
}

// Observe records one value.
func (h *Histogram) Observe(v float64) {
	h.mu.Lock()
	h.sum += v
	h.total++
	for i, b := range h.bounds {
		if v <= b {
			h.counts[i]++
			break
		}
	}
	h.mu.Unlock()
}

// Since observes the seconds elapsed from t.
func (h *Histogram) Since(t time.Time) { h.Observe(time.Since(t).Seconds()) }

// Registry holds named metric series. A series name may carry baked-in
// labels (see WithLabels); series sharing a base name share one HELP/TYPE
// header in the rendered output.
type Registry struct {
	mu         sync.Mutex
	counters   map[string]*Counter
	gauges     map[string]*Gauge
	histograms map[string]*Histogram
	bases      []string // registration order of base names
	kind       map[string]string
	help       map[string]string
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		counters:   make(map[string]*Counter),
		gauges:     make(map[string]*Gauge),
		histograms: make(map[string]*Histogram),
		kind:       make(map[string]string),
		help:       make(map[string]string),
	}
}

// WithLabels bakes label pairs into a series name:
// WithLabels("jobs", "source", "python") -> `jobs{source="python"}`.
func WithLabels(name string, kvs ...string) string {
	if len(kvs) == 0 || len(kvs)%2 != 0 {
		return name
	}
	var b strings.Builder
	b.WriteString(name)
	b.WriteByte('{')
	for i := 0; i < len(kvs); i += 2 {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%s=%q", kvs[i], kvs[i+1])
	}
	b.WriteByte('}')
	return b.String()
}

// Counter returns the counter registered under name, creating it on first
// use. Repeated calls with the same name share one counter.
func (r *Registry) Counter(name, help string) *Counter {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.counters[name]; ok {
		return c
	}
	c := &Counter{}
	r.counters[name] = c
	r.register(name, "counter", help)
	return c
}

// Gauge returns the gauge registered under name, creating it on first use.
func (r *Registry) Gauge(name, help string) *Gauge {
	r.mu.Lock()
	defer r.mu.Unlock()
	if g, ok := r.gauges[name]; ok {
		return g
	}
	g := &Gauge{}
	r.gauges[name] = g
	r.register(name, "gauge", help)
	return g
}

// Histogram returns the histogram registered under name, creating it with
// the given bucket bounds (DefaultBuckets when nil) on first use.
func (r *Registry) Histogram(name, help string, bounds []float64) *Histogram {
	r.mu.Lock()
	defer r.mu.Unlock()
	if h, ok := r.histograms[name]; ok {
		return h
	}
	if bounds == nil {
		bounds = DefaultBuckets
	}
	sorted := append([]float64(nil), bounds...)
	sort.Float64s(sorted)
	h := &Histogram{bounds: sorted, counts: make([]uint64, len(sorted))}
	r.histograms[name] = h
	r.register(name, "histogram", help)
	return h
}

// register must run under mu.
func (r *Registry) register(name, kind, help string) {
	base := baseName(name)
	if _, known := r.kind[base]; !known {
		r.bases = append(r.bases, base)
	}
	r.kind[base] = kind
	if help != "" {
		r.help[base] = help
	}
}

// Render produces the Prometheus text exposition of every series, grouped
// under one HELP/TYPE header per base name.
func (r *Registry) Render() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var b strings.Builder
	for _, base := range r.bases {
		if h := r.help[base]; h != "" {
			fmt.Fprintf(&b, "# HELP %s %s\n", base, h)
		}
		fmt.Fprintf(&b, "# TYPE %s %s\n", base, r.kind[base])

		switch r.kind[base] {
		case "counter":
			for _, name := range matching(r.counters, base) {
				fmt.Fprintf(&b, "%s %d\n", name, r.counters[name].Value())
			}
		case "gauge":
			for _, name := range matching(r.gauges, base) {
				fmt.Fprintf(&b, "%s %d\n", name, r.gauges[name].Value())
			}
		case "histogram":
			for _, name := range matching(r.histograms, base) {
				renderHistogram(&b, base, name, r.histograms[name])
			}
		}
	}
	return b.String()
}

// matching lists the series in m that share a base name, sorted. Must run
// under mu.
func matching[T any](m map[string]T, base string) []string {
	names := make([]string, 0, len(m))
	for n := range m {
		if baseName(n) == base {
			names = append(names, n)
		}
	}
	sort.Strings(names)
	return names
}

func renderHistogram(b *strings.Builder, base, name string, h *Histogram) {
	h.mu.Lock()
	bounds := append([]float64(nil), h.bounds...)
	counts := append([]uint64(nil), h.counts...)
	sum, total := h.sum, h.total
	h.mu.Unlock()

	labels := labelPart(name)
	var cumulative uint64
	for i, bound := range bounds {
		cumulative += counts[i]
		fmt.Fprintf(b, "%s_bucket{le=\"%g\"%s} %d\n", base, bound, labels, cumulative)
	}
	fmt.Fprintf(b, "%s_bucket{le=\"+Inf\"%s} %d\n", base, labels, total)
	fmt.Fprintf(b, "%s_sum%s %g\n", base, rewrap(labels), sum)
	fmt.Fprintf(b, "%s_count%s %d\n", base, rewrap(labels), total)
}

// baseName strips baked-in labels from a series name.
func baseName(name string) string {
	if i := strings.IndexByte(name, '{'); i >= 0 {
		return name[:i]
	}
	return name
}

// labelPart returns `,k="v"` for a labelled series name, for splicing into
// a bucket label set, or "" for a plain one.
func labelPart(name string) string {
	i := strings.IndexByte(name, '{')
	if i < 0 || len(name) <= i+2 {
		return ""
	}
	return "," + name[i+1:len(name)-1]
}

// rewrap turns a labelPart back into a standalone `{k="v"}` suffix.
func rewrap(labels string) string {
	if labels == "" {
		return ""
	}
	return "{" + labels[1:] + "}"
}

// Handler serves the rendered registry.
func (r *Registry) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		_, _ = w.Write([]byte(r.Render()))
	})
}

// ServeAsync serves /metrics on the given port in the background; the
// commands treat metrics serving as best-effort.
func (r *Registry) ServeAsync(port int) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())
	go func() {
		if err := http.ListenAndServe(fmt.Sprintf(":%d", port), mux); err != nil {
			fmt.Printf("metrics: server on :%d stopped: %v\n", port, err)
		}
	}()
}
