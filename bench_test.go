package compassAuth

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/careercompass/compassAuth/store"
)

func BenchmarkMetricsInc(b *testing.B) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		m.Inc(MetricLoginSuccess)
	}
}

func BenchmarkMetricsIncDisabled(b *testing.B) {
	m := NewMetrics(MetricsConfig{Enabled: false})
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		m.Inc(MetricLoginSuccess)
	}
}

func BenchmarkMetricsIncParallel(b *testing.B) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	b.ReportAllocs()
	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			m.Inc(MetricLoginSuccess)
		}
	})
}

func BenchmarkMetricsObserveLatencyParallel(b *testing.B) {
	m := NewMetrics(MetricsConfig{
		Enabled:                 true,
		EnableLatencyHistograms: true,
	})
	d := 120 * time.Millisecond
	b.ReportAllocs()
	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			m.Observe(MetricOperationLatency, d)
		}
	})
}

type packedBenchmarkMetrics struct {
	counters [metricIDCount]uint64
}

func (m *packedBenchmarkMetrics) Inc(id MetricID) {
	atomic.AddUint64(&m.counters[id], 1)
}

var mixedHotMetricIDs = [...]MetricID{
	MetricRestoreAuthenticated,
	MetricRegisterSuccess,
	MetricLoginSuccess,
	MetricLoginFailure,
	MetricLogout,
	MetricForgotPasswordRequest,
}

// The padded/packed pair shows what the cache-line padding in Metrics buys
// under contention.
func BenchmarkMetricsIncMixedParallelPadded(b *testing.B) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	b.ReportAllocs()
	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		idx := 0
		for pb.Next() {
			m.Inc(mixedHotMetricIDs[idx])
			idx++
			if idx == len(mixedHotMetricIDs) {
				idx = 0
			}
		}
	})
}

func BenchmarkMetricsIncMixedParallelPacked(b *testing.B) {
	m := &packedBenchmarkMetrics{}
	b.ReportAllocs()
	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		idx := 0
		for pb.Next() {
			m.Inc(mixedHotMetricIDs[idx])
			idx++
			if idx == len(mixedHotMetricIDs) {
				idx = 0
			}
		}
	})
}

func newBenchmarkManager(b *testing.B, accounts int) *Manager {
	b.Helper()

	backend := store.NewMemoryBackend()
	m, err := New().
		WithConfig(testConfig()).
		WithBackend(backend).
		WithLogger(quietLogger()).
		Build()
	if err != nil {
		b.Fatalf("build: %v", err)
	}
	b.Cleanup(m.Close)
	m.Restore(context.Background())

	for i := 0; i < accounts; i++ {
		_, err := m.Register(context.Background(), RegisterInput{
			Email:    fmt.Sprintf("user%d@example.com", i),
			Password: "Passw0rd",
			Name:     "Bench User",
		})
		if err != nil {
			b.Fatalf("seed register: %v", err)
		}
	}
	return m
}

func BenchmarkLogin(b *testing.B) {
	m := newBenchmarkManager(b, 100)
	ctx := context.Background()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := m.Login(ctx, "user99@example.com", "Passw0rd"); err != nil {
			b.Fatalf("login failed: %v", err)
		}
	}
}

func BenchmarkVerify(b *testing.B) {
	m := newBenchmarkManager(b, 1)
	ctx := context.Background()
	if _, err := m.Login(ctx, "user0@example.com", "Passw0rd"); err != nil {
		b.Fatalf("login failed: %v", err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := m.Verify(ctx); err != nil {
			b.Fatalf("verify failed: %v", err)
		}
	}
}
