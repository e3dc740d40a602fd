package prometheus

import (
	"net/http"

	compassAuth "github.com/careercompass/compassAuth"
	"github.com/careercompass/compassAuth/metrics/export/internaldefs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type metricsSource interface {
	MetricsSnapshot() compassAuth.MetricsSnapshot
	AuditStats() compassAuth.AuditStats
}

// Collector publishes a Manager's counters as a prometheus.Collector. Values
// are read from a fresh snapshot on every scrape.
type Collector struct {
	source          metricsSource
	counters        []counterDesc
	histograms      []histogramDesc
	auditDropped    *prometheus.Desc
	auditSinkPanics *prometheus.Desc
}

type counterDesc struct {
	id   compassAuth.MetricID
	desc *prometheus.Desc
}

type histogramDesc struct {
	id   compassAuth.MetricID
	desc *prometheus.Desc
}

// NewCollector reads from manager.
func NewCollector(manager *compassAuth.Manager) *Collector {
	return NewCollectorFromSource(manager)
}

// NewCollectorFromSource reads from any snapshot source.
func NewCollectorFromSource(source metricsSource) *Collector {
	c := &Collector{
		source:          source,
		counters:        make([]counterDesc, 0, len(internaldefs.CounterDefs)),
		histograms:      make([]histogramDesc, 0, len(internaldefs.HistogramDefs)),
		auditDropped:    prometheus.NewDesc(internaldefs.AuditDroppedName, internaldefs.AuditDroppedHelp, nil, nil),
		auditSinkPanics: prometheus.NewDesc(internaldefs.AuditSinkPanicsName, internaldefs.AuditSinkPanicsHelp, nil, nil),
	}
	for _, def := range internaldefs.CounterDefs {
		c.counters = append(c.counters, counterDesc{id: def.ID, desc: prometheus.NewDesc(def.Name, def.Help, nil, nil)})
	}
	for _, def := range internaldefs.HistogramDefs {
		c.histograms = append(c.histograms, histogramDesc{id: def.ID, desc: prometheus.NewDesc(def.Name, def.Help, nil, nil)})
	}
	return c
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, cd := range c.counters {
		ch <- cd.desc
	}
	for _, hd := range c.histograms {
		ch <- hd.desc
	}
	ch <- c.auditDropped
	ch <- c.auditSinkPanics
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	if c.source == nil {
		return
	}
	snapshot := c.source.MetricsSnapshot()

	for _, cd := range c.counters {
		ch <- prometheus.MustNewConstMetric(cd.desc, prometheus.CounterValue, float64(snapshot.Counters[cd.id]))
	}

	for _, hd := range c.histograms {
		cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(snapshot.Histograms[hd.id]))
		buckets := make(map[float64]uint64, len(internaldefs.HistogramUpperBounds))
		for i, le := range internaldefs.HistogramUpperBounds {
			buckets[le] = cumulative[i]
		}
		// Sum is not tracked by the core snapshot.
		ch <- prometheus.MustNewConstHistogram(hd.desc, cumulative[len(cumulative)-1], 0, buckets)
	}

	audit := c.source.AuditStats()
	ch <- prometheus.MustNewConstMetric(c.auditDropped, prometheus.CounterValue, float64(audit.Dropped))
	ch <- prometheus.MustNewConstMetric(c.auditSinkPanics, prometheus.CounterValue, float64(audit.SinkPanics))
}

// Handler serves the collector from a private registry, leaving the global
// default registry untouched.
func Handler(c *Collector) (http.Handler, error) {
	reg := prometheus.NewRegistry()
	if err := reg.Register(c); err != nil {
		return nil, err
	}
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), nil
}
