// Package cliconfig holds the CLI configuration for xferbench with
// flag-over-environment-over-file precedence.
package cliconfig

import (
	"fmt"
	"strconv"
	"time"

	"github.com/bft-labs/xferbench/internal/domain"
)

// DefaultServiceURL is the receiver endpoint a run targets when none is
// configured.
const DefaultServiceURL = "http://127.0.0.1:8085"

// Config holds CLI configuration for every xferbench subcommand.
type Config struct {
	// Sender side.
	ServiceURL       string
	Strategy         string
	ChunkSize        int
	SubBatchSize     int
	Lanes            int
	RequestTimeout   time.Duration
	ChunkWaitCeiling time.Duration
	SourceDB         string

	// Receiver side.
	ListenAddr        string
	ReceiverDB        string
	RejectProbability float64
	RejectSeed        int64

	// Seeder.
	SeedCount int

	Debug bool
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		ServiceURL:        DefaultServiceURL,
		Strategy:          "sync",
		ChunkSize:         500,
		SubBatchSize:      100,
		Lanes:             10,
		RequestTimeout:    30 * time.Second,
		ChunkWaitCeiling:  60 * time.Second,
		SourceDB:          "xferbench-source.db",
		ListenAddr:        ":8085",
		ReceiverDB:        "",
		RejectProbability: 0.01,
		RejectSeed:        0,
		SeedCount:         10000,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	switch c.Strategy {
	case "sync", "async", "stream":
	default:
		return fmt.Errorf("%w: strategy must be sync, async or stream, got %q", domain.ErrInvalidConfig, c.Strategy)
	}
	if c.ServiceURL == "" {
		return fmt.Errorf("%w: service-url is required", domain.ErrInvalidConfig)
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk-size must be positive", domain.ErrInvalidConfig)
	}
	if c.SubBatchSize <= 0 {
		return fmt.Errorf("%w: sub-batch-size must be positive", domain.ErrInvalidConfig)
	}
	if c.Lanes <= 0 {
		return fmt.Errorf("%w: lanes must be positive", domain.ErrInvalidConfig)
	}
	if c.RejectProbability < 0 || c.RejectProbability > 1 {
		return fmt.Errorf("%w: reject-probability must be within [0, 1]", domain.ErrInvalidConfig)
	}
	if c.SeedCount <= 0 {
		return fmt.Errorf("%w: seed-count must be positive", domain.ErrInvalidConfig)
	}
	return nil
}

// configSetter helps apply configuration values while respecting flag
// precedence. It only applies values if the corresponding flag hasn't
// been explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setFloat sets a float64 value from a pointer if not nil and flag not
// changed. A pointer is used because zero is a meaningful probability.
func (s *configSetter) setFloat(flag string, value *float64, dst *float64) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setDuration parses and sets a duration from string if valid and flag
// not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not
// changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses a string to int and sets the destination if
// valid. Used for environment variables that come as strings.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}

// setInt64FromString parses a string to int64 and sets the destination
// if valid.
func (s *configSetter) setInt64FromString(flag, value string, dst *int64) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = i
	return nil
}

// setFloatFromString parses a string to float64 and sets the
// destination. Zero is accepted.
func (s *configSetter) setFloatFromString(flag, value string, dst *float64) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = f
	return nil
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
