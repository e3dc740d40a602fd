package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

const (
	driverMemory = "memory"
	driverFile   = "file"
	driverRedis  = "redis"
)

type storeConfig struct {
	Driver    string `koanf:"driver"`
	Path      string `koanf:"path"`
	RedisAddr string `koanf:"redis_addr"`
	Prefix    string `koanf:"prefix"`
}

type logConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type cliConfig struct {
	Store   storeConfig   `koanf:"store"`
	Latency time.Duration `koanf:"latency"`
	Audit   bool          `koanf:"audit"`
	Log     logConfig     `koanf:"log"`
}

// registerConfigFlags declares every config key as a flag. Flag defaults are
// the built-in defaults; a config file overrides them and explicitly set
// flags override the file.
func registerConfigFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "YAML config file")
	fs.String("store.driver", driverFile, "credential store: memory, file, or redis")
	fs.String("store.path", defaultStorePath(), "file store location")
	fs.String("store.redis_addr", "", "redis address; empty starts an in-process miniredis")
	fs.String("store.prefix", "compass", "redis key prefix")
	fs.Duration("latency", time.Second, "simulated latency per operation")
	fs.Bool("audit", false, "log audit events to stderr")
	fs.String("log.level", "warn", "log level: debug, info, warn, error")
	fs.String("log.format", "text", "log format: text or json")
}

func defaultStorePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "compass-auth.json"
	}
	return filepath.Join(dir, "compass-auth", "store.json")
}

func loadConfig(fs *pflag.FlagSet) (cliConfig, error) {
	k := koanf.New(".")

	path, err := fs.GetString("config")
	if err != nil {
		return cliConfig{}, err
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return cliConfig{}, fmt.Errorf("load config %s: %w", path, err)
		}
	}
	if err := k.Load(posflag.Provider(fs, ".", k), nil); err != nil {
		return cliConfig{}, fmt.Errorf("load flags: %w", err)
	}

	var cfg cliConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return cliConfig{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, cfg.validate()
}

func (c cliConfig) validate() error {
	switch c.Store.Driver {
	case driverMemory, driverRedis:
	case driverFile:
		if c.Store.Path == "" {
			return errors.New("store.path is required for the file driver")
		}
	default:
		return fmt.Errorf("unknown store.driver %q", c.Store.Driver)
	}
	if c.Latency < 0 {
		return errors.New("latency must be >= 0")
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log.format %q", c.Log.Format)
	}
	return nil
}
