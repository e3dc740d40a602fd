package compassAuth

import (
	"errors"
	"time"

	"github.com/careercompass/compassAuth/token"
)

// Config tunes a Manager. The zero value is not usable; start from
// [DefaultConfig].
type Config struct {
	// TokenTTL is the lifetime of a minted session token.
	TokenTTL time.Duration
	// SimulatedLatency is slept before each operation body to mimic a network
	// round trip. It is not cancellable.
	SimulatedLatency time.Duration

	Audit   AuditConfig
	Metrics MetricsConfig
}

// AuditConfig controls the asynchronous audit trail.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls in-process counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns the settings the CareerCompass front end runs with.
func DefaultConfig() Config {
	return Config{
		TokenTTL:         token.DefaultTTL,
		SimulatedLatency: time.Second,
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: true,
		},
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.TokenTTL <= 0 {
		return errors.New("TokenTTL must be > 0")
	}
	if c.SimulatedLatency < 0 {
		return errors.New("SimulatedLatency must be >= 0")
	}
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}
	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return errors.New("latency histograms require metrics to be enabled")
	}
	return nil
}
