package compassAuth

import (
	"errors"
	"log/slog"
	"time"

	"github.com/careercompass/compassAuth/internal"
	"github.com/careercompass/compassAuth/store"
	"github.com/careercompass/compassAuth/token"
)

// Builder assembles a Manager. A Builder builds exactly once.
type Builder struct {
	config  Config
	store   *store.Store
	backend store.Backend
	logger  *slog.Logger

	auditSink AuditSink
	secrets   SecretMatcher
	reserved  *ReservedCredential
	now       func() time.Time

	built bool
}

// New returns a Builder seeded with [DefaultConfig] and the [DefaultAdmin]
// reserved credential.
func New() *Builder {
	admin := DefaultAdmin
	return &Builder{
		config:   DefaultConfig(),
		reserved: &admin,
	}
}

// WithConfig replaces the whole Config, including metrics settings made
// earlier on this Builder.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithStore injects a ready Store. It takes precedence over WithBackend.
func (b *Builder) WithStore(s *store.Store) *Builder {
	b.store = s
	return b
}

// WithBackend wraps backend in a Store using the builder's logger.
func (b *Builder) WithBackend(backend store.Backend) *Builder {
	b.backend = backend
	return b
}

// WithLogger sets the logger for the Manager, its store and audit trail.
// Defaults to slog.Default.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithAuditSink sets where audit events go. Audit must also be enabled in
// Config.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithSecretMatcher replaces PlaintextSecrets for sealing and matching
// directory passwords.
func (b *Builder) WithSecretMatcher(sm SecretMatcher) *Builder {
	b.secrets = sm
	return b
}

// WithReservedCredential replaces the built-in admin login.
func (b *Builder) WithReservedCredential(rc ReservedCredential) *Builder {
	b.reserved = &rc
	return b
}

// WithoutReservedAdmin disables the built-in admin login entirely.
func (b *Builder) WithoutReservedAdmin() *Builder {
	b.reserved = nil
	return b
}

// WithClock overrides time.Now for token issuance, expiry checks, and
// record timestamps.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// WithMetricsEnabled toggles the in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the operation latency histogram. It needs
// metrics enabled.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and returns a Manager in StateUnknown.
// Call [Manager.Restore] before serving consumers.
func (b *Builder) Build() (*Manager, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := b.config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}

	st := b.store
	if st == nil {
		if b.backend == nil {
			return nil, errors.New("store or backend required")
		}
		st = store.NewStore(b.backend, logger)
	}

	now := b.now
	if now == nil {
		now = time.Now
	}

	if b.reserved != nil {
		if b.reserved.Email == "" || b.reserved.ID == "" {
			return nil, errors.New("reserved credential requires Email and ID")
		}
		if b.reserved.Role != RoleAdmin && b.reserved.Role != RoleUser {
			return nil, errors.New("reserved credential has unknown role")
		}
	}

	codec, err := token.NewCodec(token.Config{TTL: cfg.TokenTTL, Now: now})
	if err != nil {
		return nil, err
	}

	secrets := b.secrets
	if secrets == nil {
		secrets = PlaintextSecrets{}
	}

	m := &Manager{
		cfg:      cfg,
		store:    st,
		codec:    codec,
		ids:      internal.NewIDGenerator(),
		secrets:  secrets,
		reserved: b.reserved,
		validate: newInputValidator(),
		logger:   logger.With("component", "session_manager"),
		now:      now,
		state:    StateUnknown,
	}
	m.audit = newAuditTrail(cfg.Audit, b.auditSink, logger.With("component", "audit_trail"))
	m.metrics = NewMetrics(cfg.Metrics)

	b.built = true

	return m, nil
}
