package cliconfig

import (
	"errors"
	"testing"
	"time"

	"github.com/bft-labs/xferbench/internal/domain"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.ServiceURL != DefaultServiceURL {
		t.Errorf("ServiceURL = %v, want %v", cfg.ServiceURL, DefaultServiceURL)
	}
	if cfg.Strategy != "sync" {
		t.Errorf("Strategy = %v, want sync", cfg.Strategy)
	}
	if cfg.ChunkSize != 500 {
		t.Errorf("ChunkSize = %v, want 500", cfg.ChunkSize)
	}
	if cfg.SubBatchSize != 100 {
		t.Errorf("SubBatchSize = %v, want 100", cfg.SubBatchSize)
	}
	if cfg.Lanes != 10 {
		t.Errorf("Lanes = %v, want 10", cfg.Lanes)
	}
	if cfg.RequestTimeout != 30*time.Second {
		t.Errorf("RequestTimeout = %v, want 30s", cfg.RequestTimeout)
	}
	if cfg.ChunkWaitCeiling != 60*time.Second {
		t.Errorf("ChunkWaitCeiling = %v, want 60s", cfg.ChunkWaitCeiling)
	}
	if cfg.RejectProbability != 0.01 {
		t.Errorf("RejectProbability = %v, want 0.01", cfg.RejectProbability)
	}
	if cfg.SeedCount != 10000 {
		t.Errorf("SeedCount = %v, want 10000", cfg.SeedCount)
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := DefaultConfig()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "default config is valid",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "async strategy accepted",
			mutate:  func(c *Config) { c.Strategy = "async" },
			wantErr: false,
		},
		{
			name:    "stream strategy accepted",
			mutate:  func(c *Config) { c.Strategy = "stream" },
			wantErr: false,
		},
		{
			name:    "unknown strategy rejected",
			mutate:  func(c *Config) { c.Strategy = "multicast" },
			wantErr: true,
		},
		{
			name:    "empty service url rejected",
			mutate:  func(c *Config) { c.ServiceURL = "" },
			wantErr: true,
		},
		{
			name:    "zero chunk size rejected",
			mutate:  func(c *Config) { c.ChunkSize = 0 },
			wantErr: true,
		},
		{
			name:    "negative sub-batch size rejected",
			mutate:  func(c *Config) { c.SubBatchSize = -1 },
			wantErr: true,
		},
		{
			name:    "zero lanes rejected",
			mutate:  func(c *Config) { c.Lanes = 0 },
			wantErr: true,
		},
		{
			name:    "probability above one rejected",
			mutate:  func(c *Config) { c.RejectProbability = 1.5 },
			wantErr: true,
		},
		{
			name:    "negative probability rejected",
			mutate:  func(c *Config) { c.RejectProbability = -0.1 },
			wantErr: true,
		},
		{
			name:    "zero probability accepted",
			mutate:  func(c *Config) { c.RejectProbability = 0 },
			wantErr: false,
		},
		{
			name:    "zero seed count rejected",
			mutate:  func(c *Config) { c.SeedCount = 0 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, domain.ErrInvalidConfig) {
				t.Errorf("Validate() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}
