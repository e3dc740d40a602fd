package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	compassAuth "github.com/careercompass/compassAuth"
	promexport "github.com/careercompass/compassAuth/metrics/export/prometheus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
)

type benchConfig struct {
	accounts    int
	concurrency int
	metrics     bool
}

func newBenchCmd(run runner) *cobra.Command {
	cfg := &benchConfig{}

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Measure register, login and reset latency against the configured store",
		Long: `Registers --accounts synthetic users, logs each one in, then requests a
password reset for each, reporting latency percentiles per phase. Pass
--latency 0 to measure the store rather than the simulated delay.`,
		RunE: run(func(cmd *cobra.Command, a *app) error {
			return runBench(cmd.Context(), cmd.OutOrStdout(), a.manager, cfg)
		}),
	}

	cmd.Flags().IntVar(&cfg.accounts, "accounts", 200, "synthetic accounts to create")
	cmd.Flags().IntVar(&cfg.concurrency, "concurrency", 8, "concurrent workers")
	cmd.Flags().BoolVar(&cfg.metrics, "metrics", false, "print Prometheus metrics after the run")

	return cmd
}

func runBench(ctx context.Context, w io.Writer, m *compassAuth.Manager, cfg *benchConfig) error {
	if cfg.accounts <= 0 || cfg.concurrency <= 0 {
		return errors.New("accounts and concurrency must be > 0")
	}

	// Emails carry the start time so repeated runs against a durable store do
	// not collide on registration.
	runID := time.Now().UnixNano()
	email := func(i int) string { return fmt.Sprintf("bench-%d-%d@example.com", runID, i) }
	const password = "Bench1234"

	register := runPhase(cfg, func(i int) error {
		_, err := m.Register(ctx, compassAuth.RegisterInput{Email: email(i), Password: password, Name: "Bench User"})
		return err
	})
	login := runPhase(cfg, func(i int) error {
		_, err := m.Login(ctx, email(i), password)
		return err
	})
	reset := runPhase(cfg, func(i int) error {
		_, err := m.ForgotPassword(ctx, email(i))
		return err
	})
	m.Logout(ctx)

	fmt.Fprintln(w, "---- results ----")
	printStats(w, "register", register)
	printStats(w, "login", login)
	printStats(w, "forgot-password", reset)

	if cfg.metrics {
		return writeMetrics(w, m)
	}
	return nil
}

// runPhase calls op once for every account index across the worker pool.
func runPhase(cfg *benchConfig, op func(i int) error) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, cfg.accounts)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < cfg.concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= cfg.accounts {
					return
				}
				t0 := time.Now()
				err := op(i)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	return computeStats(time.Since(start), latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total, failures: failures}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	return samples[(len(samples)-1)*p/100]
}

func printStats(w io.Writer, name string, s phaseStats) {
	fmt.Fprintf(w, "%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}

func writeMetrics(w io.Writer, m *compassAuth.Manager) error {
	reg := prometheus.NewRegistry()
	if err := reg.Register(promexport.NewCollector(m)); err != nil {
		return err
	}
	families, err := reg.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
