// Package config loads the on-disk YAML configuration consumed by the
// distributor CLI, following the teacher's flat os.ReadFile +
// yaml.Unmarshal pattern. The CLI (parsed with github.com/jessevdk/go-flags)
// takes only this file's path via --config; no config key is overridden
// from the command line.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds every key spec.md §6 recognises, plus the ambient keys
// (logging, cache, concurrency, metrics) that the spec's Non-goals never
// excludes.
type Config struct {
	RPCURL          string `yaml:"rpc_url"`
	WrapperAddr     string `yaml:"wrapper_addr"`
	DistributorAddr string `yaml:"distributor_addr"`
	PrivateKey      string `yaml:"private_key"`
	OperatorFee     float64 `yaml:"operator_fee"`
	OutputFile      string `yaml:"output_file"`
	IPFSGateway     string `yaml:"ipfs_gateway"`
	IPFSAPI         string `yaml:"ipfs_api"`
	// TokenAddr is informational; the authoritative token list always
	// comes from distributor.getTokens() (spec.md §6).
	TokenAddr string `yaml:"token_addr"`

	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`
	CachePath   string `yaml:"cache_path"`
	Concurrency int    `yaml:"concurrency"`
	MetricsAddr string `yaml:"metrics_addr"`
}

// Load reads and parses the YAML config file at path, then applies
// defaults for unset ambient keys.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "text"
	}
	if c.CachePath == "" {
		c.CachePath = "./distributor-cache"
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 12
	}
	if c.OutputFile == "" {
		c.OutputFile = "proof.json"
	}
}

// Validate checks the fields required for the given subcommand are
// present (spec.md §7's config-missing error kind). requireSigner is
// true for `generate` and `claim`, which submit transactions.
func (c *Config) Validate(requireSigner bool) error {
	if c.RPCURL == "" {
		return fmt.Errorf("config: rpc_url is required")
	}
	if c.DistributorAddr == "" {
		return fmt.Errorf("config: distributor_addr is required")
	}
	if c.WrapperAddr == "" {
		return fmt.Errorf("config: wrapper_addr is required")
	}
	if requireSigner && c.PrivateKey == "" {
		return fmt.Errorf("config: private_key is required for this operation")
	}
	return nil
}
