package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations and pointers
// where zero is a meaningful value, to make TOML friendly.
type FileConfig struct {
	ServiceURL       string `toml:"service_url"`
	Strategy         string `toml:"strategy"`
	ChunkSize        int    `toml:"chunk_size"`
	SubBatchSize     int    `toml:"sub_batch_size"`
	Lanes            int    `toml:"lanes"`
	RequestTimeout   string `toml:"request_timeout"`
	ChunkWaitCeiling string `toml:"chunk_wait_ceiling"`
	SourceDB         string `toml:"source_db"`

	ListenAddr        string   `toml:"listen_addr"`
	ReceiverDB        string   `toml:"receiver_db"`
	RejectProbability *float64 `toml:"reject_probability"`
	RejectSeed        *int64   `toml:"reject_seed"`

	SeedCount int `toml:"seed_count"`

	Debug *bool `toml:"debug"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path,
// ~/.xferbench/config.toml if the home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".xferbench", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config
// struct. It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("service-url", fc.ServiceURL, &cfg.ServiceURL)
	s.setString("strategy", fc.Strategy, &cfg.Strategy)
	s.setString("source-db", fc.SourceDB, &cfg.SourceDB)
	s.setString("listen-addr", fc.ListenAddr, &cfg.ListenAddr)
	s.setString("receiver-db", fc.ReceiverDB, &cfg.ReceiverDB)

	s.setInt("chunk-size", fc.ChunkSize, &cfg.ChunkSize)
	s.setInt("sub-batch-size", fc.SubBatchSize, &cfg.SubBatchSize)
	s.setInt("lanes", fc.Lanes, &cfg.Lanes)
	s.setInt("seed-count", fc.SeedCount, &cfg.SeedCount)

	if err := s.setDuration("request-timeout", fc.RequestTimeout, &cfg.RequestTimeout); err != nil {
		return err
	}
	if err := s.setDuration("chunk-wait-ceiling", fc.ChunkWaitCeiling, &cfg.ChunkWaitCeiling); err != nil {
		return err
	}

	s.setFloat("reject-probability", fc.RejectProbability, &cfg.RejectProbability)
	if fc.RejectSeed != nil && !changed["reject-seed"] {
		cfg.RejectSeed = *fc.RejectSeed
	}

	s.setBool("debug", fc.Debug, &cfg.Debug)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
