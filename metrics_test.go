package compassAuth

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestMetricsDisabledNoIncrement(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: false})
	m.Inc(MetricLoginSuccess)

	if got := m.Value(MetricLoginSuccess); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
	if snap := m.Snapshot(); len(snap.Counters) != 0 {
		t.Fatalf("expected empty snapshot, got %v", snap.Counters)
	}
}

func TestMetricsConcurrentIncrementSafe(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	const goroutines = 16
	const perG = 2000

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perG; j++ {
				m.Inc(MetricLogout)
			}
		}()
	}
	wg.Wait()

	want := uint64(goroutines * perG)
	if got := m.Value(MetricLogout); got != want {
		t.Fatalf("expected %d, got %d", want, got)
	}
}

func TestMetricsHistogramBucketCorrectness(t *testing.T) {
	m := NewMetrics(MetricsConfig{
		Enabled:                 true,
		EnableLatencyHistograms: true,
	})

	observations := []time.Duration{
		2 * time.Millisecond,
		20 * time.Millisecond,
		80 * time.Millisecond,
		200 * time.Millisecond,
		400 * time.Millisecond,
		time.Second,
		2 * time.Second,
		5 * time.Second,
	}
	for _, d := range observations {
		m.Observe(MetricOperationLatency, d)
	}
	// Only the operation latency metric carries a histogram.
	m.Observe(MetricLoginSuccess, time.Millisecond)

	buckets := m.Snapshot().Histograms[MetricOperationLatency]
	if len(buckets) != histBucketCount {
		t.Fatalf("expected %d buckets, got %d", histBucketCount, len(buckets))
	}
	for i, v := range buckets {
		if v != 1 {
			t.Fatalf("bucket %d expected 1, got %d", i, v)
		}
	}
}

func TestManagerCountsOperations(t *testing.T) {
	h := restored(t)
	ctx := context.Background()

	h.register(t, "a@b.com", "Passw0rd", "A B")
	_, _ = h.manager.Register(ctx, RegisterInput{Email: "a@b.com", Password: "Passw0rd", Name: "A B"})
	_, _ = h.manager.Register(ctx, RegisterInput{Email: "bad", Password: "x", Name: "1"})
	_, _ = h.manager.Login(ctx, "a@b.com", "Passw0rd")
	_, _ = h.manager.Login(ctx, "admin@careercompass.com", "admin123")
	_, _ = h.manager.Login(ctx, "a@b.com", "wrong")
	h.manager.Logout(ctx)
	_, _ = h.manager.ForgotPassword(ctx, "a@b.com")
	_, _ = h.manager.ForgotPassword(ctx, "ghost@b.com")

	snap := h.manager.MetricsSnapshot()
	want := map[MetricID]uint64{
		MetricRestoreAnonymous:      1,
		MetricRegisterSuccess:       1,
		MetricRegisterDuplicate:     1,
		MetricRegisterInvalid:       1,
		MetricLoginSuccess:          2,
		MetricLoginAdmin:            1,
		MetricLoginFailure:          1,
		MetricLogout:                1,
		MetricForgotPasswordRequest: 1,
		MetricForgotPasswordUnknown: 1,
	}
	for id, n := range want {
		if got := snap.Counters[id]; got != n {
			t.Fatalf("metric %d: expected %d, got %d", id, n, got)
		}
	}

	var observed uint64
	for _, v := range snap.Histograms[MetricOperationLatency] {
		observed += v
	}
	// Restore, three registers, three logins, two reset requests.
	if observed != 9 {
		t.Fatalf("expected 9 latency observations, got %d", observed)
	}
}

func TestManagerMetricsDisabled(t *testing.T) {
	h := restored(t, func(b *Builder) {
		b.WithMetricsEnabled(false).WithLatencyHistograms(false)
	})
	_, _ = h.manager.Login(context.Background(), "admin@careercompass.com", "admin123")

	if snap := h.manager.MetricsSnapshot(); len(snap.Counters) != 0 || len(snap.Histograms) != 0 {
		t.Fatalf("expected empty snapshot, got %+v", snap)
	}
}
