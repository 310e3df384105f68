package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config must validate, got: %v", err)
	}
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{
			name:   "port too small",
			mutate: func(c *Config) { c.Agent.Port = 0 },
		},
		{
			name:   "port too large",
			mutate: func(c *Config) { c.Agent.Port = 70000 },
		},
		{
			name:   "zero chunk size",
			mutate: func(c *Config) { c.Upload.ChunkSize = 0 },
		},
		{
			name:   "misaligned chunk size",
			mutate: func(c *Config) { c.Upload.ChunkSize = 300000 },
		},
		{
			name:   "max backoff below initial",
			mutate: func(c *Config) { c.Upload.MaxBackoff = 100 * time.Millisecond },
		},
		{
			name:   "missing CA path",
			mutate: func(c *Config) { c.Security.CACertPath = "" },
		},
		{
			name:   "unknown log level",
			mutate: func(c *Config) { c.Logging.Level = "VERBOSE" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
agent:
  address: "127.0.0.1"
  port: 6000
upload:
  chunkSize: 524288
  initialBackoff: 2s
  maxBackoff: 1m
logging:
  level: "DEBUG"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	if cfg.Agent.Address != "127.0.0.1" {
		t.Errorf("address = %q, want 127.0.0.1", cfg.Agent.Address)
	}
	if cfg.Agent.Port != 6000 {
		t.Errorf("port = %d, want 6000", cfg.Agent.Port)
	}
	if cfg.Upload.ChunkSize != 524288 {
		t.Errorf("chunk size = %d, want 524288", cfg.Upload.ChunkSize)
	}
	if cfg.Upload.InitialBackoff != 2*time.Second {
		t.Errorf("initial backoff = %v, want 2s", cfg.Upload.InitialBackoff)
	}
	// untouched values keep defaults
	if cfg.Upload.RequestTimeout != DefaultConfig.Upload.RequestTimeout {
		t.Errorf("request timeout = %v, want default %v", cfg.Upload.RequestTimeout, DefaultConfig.Upload.RequestTimeout)
	}
}

func TestLoadFromFileRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	if err := os.WriteFile(path, []byte("agent:\n  port: -1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFromFile(path); err == nil {
		t.Error("expected error for invalid config file")
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("FILECOLLECT_AGENT_PORT", "50099")
	t.Setenv("FILECOLLECT_UPLOAD_CHUNK_SIZE", "262144")
	t.Setenv("FILECOLLECT_ISSUANCE_ENDPOINT", "https://issuer.internal/v1/sign")

	cfg := DefaultConfig
	loadFromEnv(&cfg)

	if cfg.Agent.Port != 50099 {
		t.Errorf("port = %d, want 50099", cfg.Agent.Port)
	}
	if cfg.Upload.ChunkSize != 262144 {
		t.Errorf("chunk size = %d, want 262144", cfg.Upload.ChunkSize)
	}
	if cfg.Issuance.Endpoint != "https://issuer.internal/v1/sign" {
		t.Errorf("issuance endpoint = %q", cfg.Issuance.Endpoint)
	}
}

func TestGetAgentAddress(t *testing.T) {
	cfg := DefaultConfig
	cfg.Agent.Address = "10.0.0.5"
	cfg.Agent.Port = 50055
	if got := cfg.GetAgentAddress(); got != "10.0.0.5:50055" {
		t.Errorf("GetAgentAddress() = %q", got)
	}
}
