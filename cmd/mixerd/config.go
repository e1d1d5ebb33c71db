// config.go - Configuration management for the mixer daemon
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config represents the daemon configuration
type Config struct {
	// Pool settings
	Denomination     string `json:"denomination"`
	MerkleTreeHeight int    `json:"merkle_tree_height"`
	RootHistorySize  int    `json:"root_history_size"`

	// Server
	ListenAddr string `json:"listen_addr"`

	// File paths
	LedgerPath       string `json:"ledger_path"`
	KeyDir           string `json:"key_dir"`
	ProvingKeyFile   string `json:"proving_key_file"`
	VerifyingKeyFile string `json:"verifying_key_file"`

	// Logging
	LogLevel string `json:"log_level"`
	LogFile  string `json:"log_file"`

	// Rate limiting
	RateLimitTokens int `json:"rate_limit_tokens"`
	RateLimitRefill int `json:"rate_limit_refill_per_second"`

	// Security
	EnableAudit  bool   `json:"enable_audit"`
	AuditLogPath string `json:"audit_log_path"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Denomination:     "1000000000000000000",
		MerkleTreeHeight: 20,
		RootHistorySize:  30,
		ListenAddr:       "127.0.0.1:8545",
		LedgerPath:       "ledger.json",
		KeyDir:           "keys",
		ProvingKeyFile:   "withdraw_pk.bin",
		VerifyingKeyFile: "withdraw_vk.bin",
		LogLevel:         "info",
		LogFile:          "mixerd.log",
		RateLimitTokens:  100,
		RateLimitRefill:  10,
		EnableAudit:      true,
		AuditLogPath:     "audit.log",
	}
}

// LoadConfig loads configuration from file or creates default
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); err == nil {
		file, err := os.Open(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open config file: %w", err)
		}
		defer file.Close()

		config := DefaultConfig()
		if err := json.NewDecoder(file).Decode(config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
		if err := config.Validate(); err != nil {
			return nil, err
		}
		return config, nil
	}

	// No config file; write the defaults so the operator has a template.
	config := DefaultConfig()
	if err := config.Save(configPath); err != nil {
		return nil, err
	}
	return config, nil
}

// Save writes the configuration to disk
func (c *Config) Save(configPath string) error {
	if dir := filepath.Dir(configPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	file, err := os.Create(configPath)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	return enc.Encode(c)
}

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	if c.Denomination == "" {
		return fmt.Errorf("denomination must be set")
	}
	if c.MerkleTreeHeight < 1 || c.MerkleTreeHeight > 32 {
		return fmt.Errorf("merkle_tree_height must be between 1 and 32")
	}
	if c.RootHistorySize < 1 {
		return fmt.Errorf("root_history_size must be at least 1")
	}
	if c.ListenAddr == "" {
		return fmt.Errorf("listen_addr must be set")
	}
	if c.RateLimitTokens < 1 || c.RateLimitRefill < 1 {
		return fmt.Errorf("rate limit settings must be positive")
	}
	return nil
}

// ProvingKeyPath returns the full path of the proving key
func (c *Config) ProvingKeyPath() string {
	return filepath.Join(c.KeyDir, c.ProvingKeyFile)
}

// VerifyingKeyPath returns the full path of the verifying key
func (c *Config) VerifyingKeyPath() string {
	return filepath.Join(c.KeyDir, c.VerifyingKeyFile)
}
