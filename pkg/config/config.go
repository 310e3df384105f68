package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the complete application configuration for both the agent
// daemon and the cfx CLI.
type Config struct {
	Agent    AgentConfig    `yaml:"agent" json:"agent"`
	Upload   UploadConfig   `yaml:"upload" json:"upload"`
	Issuance IssuanceConfig `yaml:"issuance" json:"issuance"`
	Security SecurityConfig `yaml:"security" json:"security"`
	Logging  LoggingConfig  `yaml:"logging" json:"logging"`
}

// AgentConfig holds the gRPC listen/dial endpoint of the agent.
type AgentConfig struct {
	Address string        `yaml:"address" json:"address"`
	Port    int           `yaml:"port" json:"port"`
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
}

// UploadConfig tunes the resumable transfer loop.
type UploadConfig struct {
	// ChunkSize is the transfer unit. Non-final chunks must stay a
	// multiple of the remote endpoint's 256 KiB granularity.
	ChunkSize      int           `yaml:"chunkSize" json:"chunkSize"`
	InitialBackoff time.Duration `yaml:"initialBackoff" json:"initialBackoff"`
	MaxBackoff     time.Duration `yaml:"maxBackoff" json:"maxBackoff"`
	RequestTimeout time.Duration `yaml:"requestTimeout" json:"requestTimeout"`
}

// IssuanceConfig points at the external signed-URL issuance endpoint.
type IssuanceConfig struct {
	Endpoint string        `yaml:"endpoint" json:"endpoint"`
	Timeout  time.Duration `yaml:"timeout" json:"timeout"`
}

// SecurityConfig holds the mTLS material for the agent channel.
type SecurityConfig struct {
	ServerCertPath string `yaml:"serverCertPath" json:"serverCertPath"`
	ServerKeyPath  string `yaml:"serverKeyPath" json:"serverKeyPath"`
	CACertPath     string `yaml:"caCertPath" json:"caCertPath"`
	ClientCertPath string `yaml:"clientCertPath" json:"clientCertPath"`
	ClientKeyPath  string `yaml:"clientKeyPath" json:"clientKeyPath"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// DefaultConfig is the base layer every load starts from.
var DefaultConfig = Config{
	Agent: AgentConfig{
		Address: "0.0.0.0",
		Port:    50055,
		Timeout: 30 * time.Second,
	},
	Upload: UploadConfig{
		ChunkSize:      8 * 1024 * 1024,
		InitialBackoff: 1 * time.Second,
		MaxBackoff:     30 * time.Second,
		RequestTimeout: 2 * time.Minute,
	},
	Issuance: IssuanceConfig{
		Timeout: 15 * time.Second,
	},
	Security: SecurityConfig{
		ServerCertPath: "./certs/server-cert.pem",
		ServerKeyPath:  "./certs/server-key.pem",
		CACertPath:     "./certs/ca-cert.pem",
		ClientCertPath: "./certs/client-cert.pem",
		ClientKeyPath:  "./certs/client-key.pem",
	},
	Logging: LoggingConfig{
		Level:  "INFO",
		Format: "text",
	},
}

// remoteChunkGranularity is dictated by the storage provider: every
// non-final chunk of a resumable upload must be a multiple of 256 KiB.
const remoteChunkGranularity = 256 * 1024

// LoadConfig loads configuration in order of precedence: environment
// variables over a config file over built-in defaults. The returned string
// names the file the config came from.
func LoadConfig() (*Config, string, error) {
	cfg := DefaultConfig

	path, err := loadFromFile(&cfg)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load config file: %w", err)
	}

	loadFromEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, "", fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, path, nil
}

func loadFromFile(cfg *Config) (string, error) {
	configPaths := []string{
		os.Getenv("FILECOLLECT_CONFIG_PATH"),
		"./config.yaml",
		"./config/config.yaml",
		"/etc/filecollect/config.yaml",
	}

	for _, path := range configPaths {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return "", fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
		return path, nil
	}

	return "built-in defaults (no config file found)", nil
}

func loadFromEnv(cfg *Config) {
	if val := os.Getenv("FILECOLLECT_AGENT_ADDRESS"); val != "" {
		cfg.Agent.Address = val
	}
	if val := os.Getenv("FILECOLLECT_AGENT_PORT"); val != "" {
		if port, err := strconv.Atoi(val); err == nil {
			cfg.Agent.Port = port
		}
	}
	if val := os.Getenv("FILECOLLECT_AGENT_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Agent.Timeout = d
		}
	}

	if val := os.Getenv("FILECOLLECT_UPLOAD_CHUNK_SIZE"); val != "" {
		if size, err := strconv.Atoi(val); err == nil {
			cfg.Upload.ChunkSize = size
		}
	}
	if val := os.Getenv("FILECOLLECT_UPLOAD_INITIAL_BACKOFF"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Upload.InitialBackoff = d
		}
	}
	if val := os.Getenv("FILECOLLECT_UPLOAD_MAX_BACKOFF"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Upload.MaxBackoff = d
		}
	}
	if val := os.Getenv("FILECOLLECT_UPLOAD_REQUEST_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Upload.RequestTimeout = d
		}
	}

	if val := os.Getenv("FILECOLLECT_ISSUANCE_ENDPOINT"); val != "" {
		cfg.Issuance.Endpoint = val
	}
	if val := os.Getenv("FILECOLLECT_ISSUANCE_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Issuance.Timeout = d
		}
	}

	if val := os.Getenv("FILECOLLECT_SERVER_CERT_PATH"); val != "" {
		cfg.Security.ServerCertPath = val
	}
	if val := os.Getenv("FILECOLLECT_SERVER_KEY_PATH"); val != "" {
		cfg.Security.ServerKeyPath = val
	}
	if val := os.Getenv("FILECOLLECT_CA_CERT_PATH"); val != "" {
		cfg.Security.CACertPath = val
	}
	if val := os.Getenv("FILECOLLECT_CLIENT_CERT_PATH"); val != "" {
		cfg.Security.ClientCertPath = val
	}
	if val := os.Getenv("FILECOLLECT_CLIENT_KEY_PATH"); val != "" {
		cfg.Security.ClientKeyPath = val
	}

	if val := os.Getenv("LOG_LEVEL"); val != "" {
		cfg.Logging.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		cfg.Logging.Format = val
	}
}

// Validate checks the configuration for values the rest of the system
// cannot work with.
func (c *Config) Validate() error {
	if c.Agent.Port < 1 || c.Agent.Port > 65535 {
		return fmt.Errorf("invalid agent port: %d", c.Agent.Port)
	}

	if c.Upload.ChunkSize <= 0 {
		return fmt.Errorf("invalid upload chunk size: %d", c.Upload.ChunkSize)
	}
	if c.Upload.ChunkSize%remoteChunkGranularity != 0 {
		return fmt.Errorf("upload chunk size %d is not a multiple of %d", c.Upload.ChunkSize, remoteChunkGranularity)
	}
	if c.Upload.InitialBackoff <= 0 || c.Upload.MaxBackoff < c.Upload.InitialBackoff {
		return fmt.Errorf("invalid backoff bounds: initial=%v max=%v", c.Upload.InitialBackoff, c.Upload.MaxBackoff)
	}

	if c.Security.ServerCertPath == "" || c.Security.ServerKeyPath == "" {
		return fmt.Errorf("server certificate and key paths are required")
	}
	if c.Security.CACertPath == "" {
		return fmt.Errorf("CA certificate path is required")
	}

	validLevels := map[string]bool{
		"DEBUG": true, "INFO": true, "WARN": true, "ERROR": true,
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	return nil
}

func (c *Config) GetAgentAddress() string {
	return fmt.Sprintf("%s:%d", c.Agent.Address, c.Agent.Port)
}

func (c *Config) ToYAML() ([]byte, error) {
	return yaml.Marshal(c)
}

func (c *Config) SaveToFile(path string) error {
	data, err := c.ToYAML()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LoadFromFile loads a specific configuration file without consulting the
// search path or the environment.
func LoadFromFile(path string) (*Config, error) {
	cfg := DefaultConfig

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}
