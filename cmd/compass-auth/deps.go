package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alicebob/miniredis/v2"
	compassAuth "github.com/careercompass/compassAuth"
	"github.com/careercompass/compassAuth/store"
	"github.com/redis/go-redis/v9"
)

func newLogger(cfg logConfig, w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, fmt.Errorf("log.level: %w", err)
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

// openBackend returns the configured backend and a func releasing whatever it
// opened.
func openBackend(cfg storeConfig, logger *slog.Logger) (store.Backend, func(), error) {
	switch cfg.Driver {
	case driverMemory:
		return store.NewMemoryBackend(), func() {}, nil

	case driverFile:
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o700); err != nil {
			return nil, nil, fmt.Errorf("create store directory: %w", err)
		}
		return store.NewFileBackend(cfg.Path), func() {}, nil

	case driverRedis:
		addr := cfg.RedisAddr
		var mr *miniredis.Miniredis
		if addr == "" {
			var err error
			mr, err = miniredis.Run()
			if err != nil {
				return nil, nil, fmt.Errorf("start miniredis: %w", err)
			}
			addr = mr.Addr()
			logger.Info("using in-process miniredis; data will not survive this run", "addr", addr)
		}
		client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		cleanup := func() {
			_ = client.Close()
			if mr != nil {
				mr.Close()
			}
		}
		return store.NewRedisBackend(client, cfg.Prefix), cleanup, nil

	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// app carries what every subcommand needs once config is loaded.
type app struct {
	cfg     cliConfig
	logger  *slog.Logger
	manager *compassAuth.Manager
	cleanup func()
}

func newApp(cfg cliConfig, stderr io.Writer) (*app, error) {
	logger, err := newLogger(cfg.Log, stderr)
	if err != nil {
		return nil, err
	}

	backend, closeBackend, err := openBackend(cfg.Store, logger)
	if err != nil {
		return nil, err
	}

	mcfg := compassAuth.DefaultConfig()
	mcfg.SimulatedLatency = cfg.Latency
	mcfg.Audit.Enabled = cfg.Audit

	b := compassAuth.New().
		WithConfig(mcfg).
		WithBackend(backend).
		WithLogger(logger)
	if cfg.Audit {
		b.WithAuditSink(compassAuth.NewSlogSink(logger))
	}

	m, err := b.Build()
	if err != nil {
		closeBackend()
		return nil, err
	}

	return &app{
		cfg:     cfg,
		logger:  logger,
		manager: m,
		cleanup: func() {
			m.Close()
			closeBackend()
		},
	}, nil
}

func (a *app) Close() {
	if a != nil && a.cleanup != nil {
		a.cleanup()
	}
}
