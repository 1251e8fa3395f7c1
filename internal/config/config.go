// Package config loads server settings from defaults, an optional YAML file,
// RICHDOCS_* environment variables and command-line flags, in that order of
// increasing precedence.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned when a setting is out of range or unparsable.
var ErrInvalidConfig = errors.New("invalid config")

// LookupFunc reads an environment variable. os.LookupEnv satisfies it.
type LookupFunc func(key string) (string, bool)

// Config holds the server settings.
type Config struct {
	// Addr is the HTTP listen address.
	Addr string `yaml:"addr"`
	// HistorySize caps each document's undo log and rebase window.
	HistorySize int `yaml:"historySize"`
	// SnapshotEvery is the number of operations between snapshots.
	SnapshotEvery int `yaml:"snapshotEvery"`
	// WrapWidth is the layout width in cells. Zero disables wrapping.
	WrapWidth float64 `yaml:"wrapWidth"`
	// TabWidth is the number of cells a tab occupies.
	TabWidth int `yaml:"tabWidth"`
	// LogLevel is a zap level name: debug, info, warn or error.
	LogLevel string `yaml:"logLevel"`
	// Development switches to the human-readable console logger.
	Development bool `yaml:"development"`
	// ReadHeaderTimeout bounds how long a client may take to send headers.
	ReadHeaderTimeout time.Duration `yaml:"readHeaderTimeout"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Addr:              ":8080",
		HistorySize:       100,
		SnapshotEvery:     50,
		TabWidth:          4,
		LogLevel:          "info",
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// Validate checks every setting.
func (c Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: empty listen address", ErrInvalidConfig)
	case c.HistorySize <= 0:
		return fmt.Errorf("%w: history size %d", ErrInvalidConfig, c.HistorySize)
	case c.SnapshotEvery <= 0:
		return fmt.Errorf("%w: snapshot interval %d", ErrInvalidConfig, c.SnapshotEvery)
	case c.WrapWidth < 0:
		return fmt.Errorf("%w: wrap width %g", ErrInvalidConfig, c.WrapWidth)
	case c.TabWidth <= 0:
		return fmt.Errorf("%w: tab width %d", ErrInvalidConfig, c.TabWidth)
	case c.ReadHeaderTimeout <= 0:
		return fmt.Errorf("%w: read header timeout %s", ErrInvalidConfig, c.ReadHeaderTimeout)
	}

	if _, err := c.Level(); err != nil {
		return err
	}

	return nil
}

// Level parses LogLevel.
func (c Config) Level() (zapcore.Level, error) {
	level, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return zapcore.InfoLevel, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	return level, nil
}

// Decode overlays the YAML document read from r onto c. Keys that are absent
// keep their current value.
func (c *Config) Decode(r io.Reader) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	return nil
}

// LoadFile overlays the YAML file at path onto c.
func (c *Config) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := c.Decode(f); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	return nil
}

// ApplyEnv overlays the RICHDOCS_* variables found by lookup onto c.
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	if v, ok := lookup("RICHDOCS_ADDR"); ok {
		c.Addr = v
	}

	if v, ok := lookup("RICHDOCS_LOG_LEVEL"); ok {
		c.LogLevel = v
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"RICHDOCS_HISTORY_SIZE", &c.HistorySize},
		{"RICHDOCS_SNAPSHOT_EVERY", &c.SnapshotEvery},
		{"RICHDOCS_TAB_WIDTH", &c.TabWidth},
	}

	for _, e := range ints {
		v, ok := lookup(e.key)
		if !ok {
			continue
		}

		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalidConfig, e.key, v)
		}

		*e.dst = n
	}

	if v, ok := lookup("RICHDOCS_WRAP_WIDTH"); ok {
		w, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%w: RICHDOCS_WRAP_WIDTH=%q", ErrInvalidConfig, v)
		}

		c.WrapWidth = w
	}

	if v, ok := lookup("RICHDOCS_DEVELOPMENT"); ok {
		dev, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: RICHDOCS_DEVELOPMENT=%q", ErrInvalidConfig, v)
		}

		c.Development = dev
	}

	if v, ok := lookup("RICHDOCS_READ_HEADER_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: RICHDOCS_READ_HEADER_TIMEOUT=%q", ErrInvalidConfig, v)
		}

		c.ReadHeaderTimeout = d
	}

	return nil
}

// Parse builds the configuration for a server started with args. The YAML
// file named by -config or RICHDOCS_CONFIG is applied first, then the
// environment, then the flags that were set explicitly.
func Parse(args []string, lookup LookupFunc) (Config, error) {
	cfg := Default()
	flags := cfg

	fs := flag.NewFlagSet("richdocs", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	path := fs.String("config", "", "path to a YAML config file")
	fs.StringVar(&flags.Addr, "addr", cfg.Addr, "HTTP listen address")
	fs.IntVar(&flags.HistorySize, "history", cfg.HistorySize, "undo history size per document")
	fs.IntVar(&flags.SnapshotEvery, "snapshot-every", cfg.SnapshotEvery, "operations between snapshots")
	fs.Float64Var(&flags.WrapWidth, "wrap", cfg.WrapWidth, "wrap width in cells, 0 disables wrapping")
	fs.IntVar(&flags.TabWidth, "tab-width", cfg.TabWidth, "cells per tab")
	fs.StringVar(&flags.LogLevel, "log-level", cfg.LogLevel, "log level")
	fs.BoolVar(&flags.Development, "dev", cfg.Development, "human-readable logs")
	fs.DurationVar(&flags.ReadHeaderTimeout, "read-header-timeout", cfg.ReadHeaderTimeout, "HTTP read header timeout")

	if err := fs.Parse(args); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if *path == "" {
		*path, _ = lookup("RICHDOCS_CONFIG")
	}

	if *path != "" {
		if err := cfg.LoadFile(*path); err != nil {
			return Config{}, err
		}
	}

	if err := cfg.ApplyEnv(lookup); err != nil {
		return Config{}, err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "addr":
			cfg.Addr = flags.Addr
		case "history":
			cfg.HistorySize = flags.HistorySize
		case "snapshot-every":
			cfg.SnapshotEvery = flags.SnapshotEvery
		case "wrap":
			cfg.WrapWidth = flags.WrapWidth
		case "tab-width":
			cfg.TabWidth = flags.TabWidth
		case "log-level":
			cfg.LogLevel = flags.LogLevel
		case "dev":
			cfg.Development = flags.Development
		case "read-header-timeout":
			cfg.ReadHeaderTimeout = flags.ReadHeaderTimeout
		}
	})

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
