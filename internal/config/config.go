package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/cronbeat/cronbeat/internal/logger"
	"github.com/cronbeat/cronbeat/internal/notifier"
	"github.com/cronbeat/cronbeat/internal/schedule"
)

// FileConfig represents the top-level TOML structure.
type FileConfig struct {
	Timezone string          `toml:"timezone" mapstructure:"timezone"`
	Store    StoreConfig     `toml:"store" mapstructure:"store"`
	History  HistoryConfig   `toml:"history" mapstructure:"history"`
	Notifier notifier.Config `toml:"notifier" mapstructure:"notifier"`
	Log      logger.Config   `toml:"log" mapstructure:"log"`
	Server   ServerConfig    `toml:"server" mapstructure:"server"`
	Tasks    []TaskConfig    `toml:"tasks" mapstructure:"tasks"`
}

type StoreConfig struct {
	DSN string `toml:"dsn" mapstructure:"dsn"`
	// LeasePath enables the SQLite-backed exclusion lease for TryBegin.
	LeasePath string `toml:"lease_path" mapstructure:"lease_path"`
}

type HistoryConfig struct {
	DSN string `toml:"dsn" mapstructure:"dsn"`
}

type ServerConfig struct {
	Listen   string `toml:"listen" mapstructure:"listen"`
	BasePath string `toml:"base_path" mapstructure:"base_path"`
}

type TaskConfig struct {
	Name             string        `toml:"name" mapstructure:"name"`
	Frequency        time.Duration `toml:"frequency" mapstructure:"frequency"`
	RuntimeThreshold time.Duration `toml:"runtime_threshold" mapstructure:"runtime_threshold"`
	FixedRunTimes    []string      `toml:"fixed_run_times" mapstructure:"fixed_run_times"`
	StandardLogSink  string        `toml:"standard_log_sink" mapstructure:"standard_log_sink"`
	ErrorLogSink     string        `toml:"error_log_sink" mapstructure:"error_log_sink"`
}

// Config is the validated, decoded configuration.
type Config struct {
	FileConfig

	loc *time.Location
}

// Load reads and validates a TOML config file. Soft schedule findings
// (threshold not below frequency) are logged when the registry is built,
// not here.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	var fc FileConfig
	if err := v.Unmarshal(&fc); err != nil {
		return nil, err
	}

	c := &Config{FileConfig: fc}
	if fc.Timezone == "" {
		c.loc = time.UTC
	} else {
		loc, err := time.LoadLocation(fc.Timezone)
		if err != nil {
			return nil, fmt.Errorf("invalid timezone %q: %w", fc.Timezone, err)
		}
		c.loc = loc
	}

	if c.Store.DSN == "" {
		c.Store.DSN = "memory://"
	}
	if c.Server.Listen == "" {
		c.Server.Listen = ":8080"
	}

	if len(fc.Tasks) == 0 {
		return nil, fmt.Errorf("config %s declares no tasks", path)
	}
	seen := make(map[string]bool, len(fc.Tasks))
	for _, tc := range fc.Tasks {
		if tc.Name == "" {
			return nil, fmt.Errorf("task entry without a name")
		}
		if seen[tc.Name] {
			return nil, fmt.Errorf("duplicate task %s", tc.Name)
		}
		seen[tc.Name] = true
		if _, err := tc.toEntry(); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Location returns the declared reference timezone (UTC by default).
func (c *Config) Location() *time.Location { return c.loc }

// Entries converts the task table to schedule entries.
func (c *Config) Entries() ([]schedule.Entry, error) {
	out := make([]schedule.Entry, 0, len(c.Tasks))
	for _, tc := range c.Tasks {
		e, err := tc.toEntry()
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// Registry builds the schedule registry in the declared timezone.
func (c *Config) Registry() (*schedule.Registry, error) {
	entries, err := c.Entries()
	if err != nil {
		return nil, err
	}
	return schedule.New(c.loc, entries)
}

func (tc TaskConfig) toEntry() (schedule.Entry, error) {
	e := schedule.Entry{
		Name:             tc.Name,
		Frequency:        tc.Frequency,
		RuntimeThreshold: tc.RuntimeThreshold,
		StandardLogSink:  tc.StandardLogSink,
		ErrorLogSink:     tc.ErrorLogSink,
	}
	for _, s := range tc.FixedRunTimes {
		tod, err := schedule.ParseTimeOfDay(s)
		if err != nil {
			return schedule.Entry{}, fmt.Errorf("task %s: %w", tc.Name, err)
		}
		e.FixedRunTimes = append(e.FixedRunTimes, tod)
	}
	if err := e.Validate(); err != nil {
		return schedule.Entry{}, err
	}
	return e, nil
}
