package cliconfig

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestApplyFileConfig(t *testing.T) {
	quarter := 0.25
	zero := 0.0
	seed := int64(42)
	debugOn := true

	tests := []struct {
		name       string
		fileConfig FileConfig
		changed    map[string]bool
		initial    Config
		expected   Config
		wantErr    bool
	}{
		{
			name: "applies all valid config values",
			fileConfig: FileConfig{
				ServiceURL:        "http://file:9000",
				Strategy:          "async",
				ChunkSize:         250,
				SubBatchSize:      50,
				Lanes:             4,
				RequestTimeout:    "15s",
				ChunkWaitCeiling:  "45s",
				SourceDB:          "file-source.db",
				ListenAddr:        ":9000",
				ReceiverDB:        "file-receiver.db",
				RejectProbability: &quarter,
				RejectSeed:        &seed,
				SeedCount:         2000,
				Debug:             &debugOn,
			},
			changed: map[string]bool{},
			initial: Config{},
			expected: Config{
				ServiceURL:        "http://file:9000",
				Strategy:          "async",
				ChunkSize:         250,
				SubBatchSize:      50,
				Lanes:             4,
				RequestTimeout:    15 * time.Second,
				ChunkWaitCeiling:  45 * time.Second,
				SourceDB:          "file-source.db",
				ListenAddr:        ":9000",
				ReceiverDB:        "file-receiver.db",
				RejectProbability: 0.25,
				RejectSeed:        42,
				SeedCount:         2000,
				Debug:             true,
			},
			wantErr: false,
		},
		{
			name: "respects changed flags",
			fileConfig: FileConfig{
				ServiceURL: "http://file:9000",
				Strategy:   "stream",
			},
			changed: map[string]bool{"service-url": true},
			initial: Config{
				ServiceURL: "http://flag:7000",
			},
			expected: Config{
				ServiceURL: "http://flag:7000", // unchanged because flag was set
				Strategy:   "stream",
			},
			wantErr: false,
		},
		{
			name: "zero probability from file is applied",
			fileConfig: FileConfig{
				RejectProbability: &zero,
			},
			changed: map[string]bool{},
			initial: Config{
				RejectProbability: 0.01,
			},
			expected: Config{
				RejectProbability: 0,
			},
			wantErr: false,
		},
		{
			name: "empty values leave config untouched",
			fileConfig: FileConfig{},
			changed:    map[string]bool{},
			initial: Config{
				ServiceURL: "http://keep:8085",
				ChunkSize:  500,
			},
			expected: Config{
				ServiceURL: "http://keep:8085",
				ChunkSize:  500,
			},
			wantErr: false,
		},
		{
			name: "invalid duration returns error",
			fileConfig: FileConfig{
				RequestTimeout: "soon",
			},
			changed: map[string]bool{},
			initial: Config{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.initial
			err := ApplyFileConfig(&cfg, tt.fileConfig, tt.changed)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ApplyFileConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if cfg != tt.expected {
				t.Errorf("config = %+v, want %+v", cfg, tt.expected)
			}
		})
	}
}

func TestLoadFileConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	content := strings.Join([]string{
		`service_url = "http://toml:8085"`,
		`strategy = "stream"`,
		`chunk_size = 100`,
		`request_timeout = "20s"`,
		`reject_probability = 0.5`,
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	fc, err := LoadFileConfig(path)
	if err != nil {
		t.Fatalf("LoadFileConfig() error = %v", err)
	}
	if fc.ServiceURL != "http://toml:8085" {
		t.Errorf("ServiceURL = %v, want http://toml:8085", fc.ServiceURL)
	}
	if fc.Strategy != "stream" {
		t.Errorf("Strategy = %v, want stream", fc.Strategy)
	}
	if fc.ChunkSize != 100 {
		t.Errorf("ChunkSize = %v, want 100", fc.ChunkSize)
	}
	if fc.RequestTimeout != "20s" {
		t.Errorf("RequestTimeout = %v, want 20s", fc.RequestTimeout)
	}
	if fc.RejectProbability == nil || *fc.RejectProbability != 0.5 {
		t.Errorf("RejectProbability = %v, want 0.5", fc.RejectProbability)
	}
}

func TestLoadFileConfig_MissingFile(t *testing.T) {
	if _, err := LoadFileConfig(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	if FileExists(path) {
		t.Error("FileExists() = true for missing file")
	}
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if !FileExists(path) {
		t.Error("FileExists() = false for existing file")
	}
}
