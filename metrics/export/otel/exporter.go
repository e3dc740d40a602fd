package otel

import (
	"context"
	"errors"
	"fmt"

	compassAuth "github.com/careercompass/compassAuth"
	"github.com/careercompass/compassAuth/metrics/export/internaldefs"
	"go.opentelemetry.io/otel/metric"
)

var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

type metricsSource interface {
	MetricsSnapshot() compassAuth.MetricsSnapshot
	AuditStats() compassAuth.AuditStats
}

// stateSource is implemented by *compassAuth.Manager.
type stateSource interface {
	Snapshot() compassAuth.Snapshot
}

type observedCounter struct {
	id         compassAuth.MetricID
	instrument metric.Int64ObservableCounter
}

type observedHistogram struct {
	id      compassAuth.MetricID
	buckets [8]metric.Int64ObservableGauge
	count   metric.Int64ObservableGauge
}

// OTelExporter mirrors a Manager's snapshot into observable OTel instruments.
// Histogram buckets are published as cumulative gauges, one per bound, because
// the snapshot carries counts without individual samples.
type OTelExporter struct {
	source          metricsSource
	registration    metric.Registration
	counters        []observedCounter
	histograms      []observedHistogram
	auditDropped    metric.Int64ObservableCounter
	auditSinkPanics metric.Int64ObservableCounter
	state           metric.Int64ObservableGauge
}

func NewOTelExporter(meter metric.Meter, manager *compassAuth.Manager) (*OTelExporter, error) {
	if manager == nil {
		return nil, ErrNilSource
	}
	return NewOTelExporterFromSource(meter, manager)
}

func NewOTelExporterFromSource(meter metric.Meter, source metricsSource) (*OTelExporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	exporter := &OTelExporter{
		source:     source,
		counters:   make([]observedCounter, 0, len(internaldefs.CounterDefs)),
		histograms: make([]observedHistogram, 0, len(internaldefs.HistogramDefs)),
	}

	observables := make([]metric.Observable, 0, len(internaldefs.CounterDefs)+len(internaldefs.HistogramDefs)*9+3)

	for _, def := range internaldefs.CounterDefs {
		ins, err := meter.Int64ObservableCounter(def.Name, metric.WithDescription(def.Help))
		if err != nil {
			return nil, fmt.Errorf("create observable counter %s: %w", def.Name, err)
		}
		exporter.counters = append(exporter.counters, observedCounter{id: def.ID, instrument: ins})
		observables = append(observables, ins)
	}

	for _, def := range internaldefs.HistogramDefs {
		h := observedHistogram{id: def.ID}
		for i := 0; i < len(internaldefs.HistogramBoundSuffix); i++ {
			name := def.Name + "_bucket_le_" + internaldefs.HistogramBoundSuffix[i]
			ins, err := meter.Int64ObservableGauge(name, metric.WithDescription("Cumulative histogram bucket count."))
			if err != nil {
				return nil, fmt.Errorf("create histogram bucket gauge %s: %w", name, err)
			}
			h.buckets[i] = ins
			observables = append(observables, ins)
		}
		countName := def.Name + "_count"
		countIns, err := meter.Int64ObservableGauge(countName, metric.WithDescription("Histogram total sample count."))
		if err != nil {
			return nil, fmt.Errorf("create histogram count gauge %s: %w", countName, err)
		}
		h.count = countIns
		observables = append(observables, countIns)
		exporter.histograms = append(exporter.histograms, h)
	}

	auditDropped, err := meter.Int64ObservableCounter(
		internaldefs.AuditDroppedName,
		metric.WithDescription(internaldefs.AuditDroppedHelp),
	)
	if err != nil {
		return nil, fmt.Errorf("create audit dropped counter: %w", err)
	}
	exporter.auditDropped = auditDropped
	observables = append(observables, auditDropped)

	sinkPanics, err := meter.Int64ObservableCounter(
		internaldefs.AuditSinkPanicsName,
		metric.WithDescription(internaldefs.AuditSinkPanicsHelp),
	)
	if err != nil {
		return nil, fmt.Errorf("create audit sink panics counter: %w", err)
	}
	exporter.auditSinkPanics = sinkPanics
	observables = append(observables, sinkPanics)

	states, hasState := source.(stateSource)
	if hasState {
		stateIns, err := meter.Int64ObservableGauge(internaldefs.SessionStateName, metric.WithDescription(internaldefs.SessionStateHelp))
		if err != nil {
			return nil, fmt.Errorf("create session state gauge: %w", err)
		}
		exporter.state = stateIns
		observables = append(observables, stateIns)
	}

	registration, err := meter.RegisterCallback(func(_ context.Context, observer metric.Observer) error {
		snapshot := exporter.source.MetricsSnapshot()
		for _, c := range exporter.counters {
			observer.ObserveInt64(c.instrument, int64(snapshot.Counters[c.id]))
		}
		for _, h := range exporter.histograms {
			nonCumulative := internaldefs.NormalizeBuckets(snapshot.Histograms[h.id])
			cumulative := internaldefs.CumulativeBuckets(nonCumulative)
			for i := 0; i < len(cumulative); i++ {
				observer.ObserveInt64(h.buckets[i], int64(cumulative[i]))
			}
			observer.ObserveInt64(h.count, int64(cumulative[len(cumulative)-1]))
		}
		audit := exporter.source.AuditStats()
		observer.ObserveInt64(exporter.auditDropped, int64(audit.Dropped))
		observer.ObserveInt64(exporter.auditSinkPanics, int64(audit.SinkPanics))
		if hasState {
			observer.ObserveInt64(exporter.state, int64(states.Snapshot().State))
		}
		return nil
	}, observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}

	exporter.registration = registration
	return exporter, nil
}

// Close unregisters the collection callback.
func (e *OTelExporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
