package config

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config represents the full Vesper configuration
type Config struct {
	Agent   AgentConfig   `mapstructure:"agent"`
	Solana  SolanaConfig  `mapstructure:"solana"`
	Backend BackendConfig `mapstructure:"backend"`
	Twitter TwitterConfig `mapstructure:"twitter"`
	OpenAI  OpenAIConfig  `mapstructure:"openai"`
}

// AgentConfig contains the lifecycle settings of the agent loop
type AgentConfig struct {
	Name              string `mapstructure:"name"`
	Interval          string `mapstructure:"interval"`
	SurvivalThreshold string `mapstructure:"survival_threshold"`
	UpkeepAmount      string `mapstructure:"upkeep_amount"`
	UpkeepRecipient   string `mapstructure:"upkeep_recipient"`
	FeedbackInterval  string `mapstructure:"feedback_interval"`
	RecentPostWindow  int    `mapstructure:"recent_post_window"`
	DisableFollowUp   bool   `mapstructure:"disable_follow_up"`
	PromptDir         string `mapstructure:"prompt_dir"`
}

// SolanaConfig contains wallet and RPC settings
type SolanaConfig struct {
	RPCURL           string `mapstructure:"rpc_url"`
	PrivateKeySecret string `mapstructure:"private_key_secret"`
}

// BackendConfig contains the terminal backend API settings
type BackendConfig struct {
	BaseURL      string `mapstructure:"base_url"`
	APIKeySecret string `mapstructure:"api_key_secret"`
}

// TwitterConfig contains the X API identity and credential sources
type TwitterConfig struct {
	UserID             string `mapstructure:"user_id"`
	Username           string `mapstructure:"username"`
	APIKeySecret       string `mapstructure:"api_key_secret"`
	APISecretSecret    string `mapstructure:"api_secret_secret"`
	AccessTokenSecret  string `mapstructure:"access_token_secret"`
	AccessSecretSecret string `mapstructure:"access_secret_secret"`
}

// OpenAIConfig contains the reasoning model settings
type OpenAIConfig struct {
	Model        string `mapstructure:"model"`
	APIKeySecret string `mapstructure:"api_key_secret"`
}

// Load loads configuration from file and environment
func Load() (*Config, error) {
	cfg := &Config{}

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Apply defaults
	applyDefaults(cfg)

	return cfg, nil
}

// applyDefaults sets default values for unset fields
func applyDefaults(cfg *Config) {
	if cfg.Agent.Name == "" {
		cfg.Agent.Name = "Vesper"
	}

	if cfg.Agent.Interval == "" {
		cfg.Agent.Interval = "1800s"
	}

	if cfg.Agent.SurvivalThreshold == "" {
		cfg.Agent.SurvivalThreshold = "0.005"
	}

	if cfg.Agent.UpkeepAmount == "" {
		cfg.Agent.UpkeepAmount = "0.005"
	}

	if cfg.Agent.FeedbackInterval == "" {
		cfg.Agent.FeedbackInterval = "24h"
	}

	if cfg.Agent.RecentPostWindow == 0 {
		cfg.Agent.RecentPostWindow = 10
	}

	if cfg.Agent.PromptDir == "" {
		cfg.Agent.PromptDir = "prompts"
	}

	if cfg.Solana.RPCURL == "" {
		cfg.Solana.RPCURL = "https://api.mainnet-beta.solana.com"
	}

	if cfg.OpenAI.Model == "" {
		cfg.OpenAI.Model = "gpt-4o"
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if _, err := time.ParseDuration(c.Agent.Interval); err != nil {
		return fmt.Errorf("invalid interval: %w", err)
	}

	if _, err := time.ParseDuration(c.Agent.FeedbackInterval); err != nil {
		return fmt.Errorf("invalid feedback_interval: %w", err)
	}

	threshold, err := decimal.NewFromString(c.Agent.SurvivalThreshold)
	if err != nil {
		return fmt.Errorf("invalid survival_threshold: %w", err)
	}
	if threshold.IsNegative() {
		return fmt.Errorf("survival_threshold must not be negative")
	}

	upkeep, err := decimal.NewFromString(c.Agent.UpkeepAmount)
	if err != nil {
		return fmt.Errorf("invalid upkeep_amount: %w", err)
	}
	if !upkeep.IsPositive() {
		return fmt.Errorf("upkeep_amount must be positive")
	}

	if c.Agent.RecentPostWindow < 0 {
		return fmt.Errorf("recent_post_window must not be negative")
	}

	return nil
}

// ValidateForRun performs additional validation required before running the agent
func (c *Config) ValidateForRun() error {
	if err := c.Validate(); err != nil {
		return err
	}

	if c.Agent.UpkeepRecipient == "" {
		return fmt.Errorf("upkeep recipient address is required")
	}

	if c.Solana.RPCURL == "" {
		return fmt.Errorf("solana RPC URL is required")
	}

	if c.Twitter.UserID == "" {
		return fmt.Errorf("twitter user_id is required")
	}

	if c.Twitter.Username == "" {
		return fmt.Errorf("twitter username is required")
	}

	return nil
}

// Interval returns the parsed cycle interval. Validate must have passed.
func (c *Config) Interval() time.Duration {
	d, _ := time.ParseDuration(c.Agent.Interval)
	return d
}

// FeedbackInterval returns the parsed feedback gate window. Validate must
// have passed.
func (c *Config) FeedbackInterval() time.Duration {
	d, _ := time.ParseDuration(c.Agent.FeedbackInterval)
	return d
}

// SurvivalThreshold returns the parsed survival threshold in SOL. Validate
// must have passed.
func (c *Config) SurvivalThreshold() decimal.Decimal {
	d, _ := decimal.NewFromString(c.Agent.SurvivalThreshold)
	return d
}

// UpkeepAmount returns the parsed per-cycle upkeep debit in SOL. Validate
// must have passed.
func (c *Config) UpkeepAmount() decimal.Decimal {
	d, _ := decimal.NewFromString(c.Agent.UpkeepAmount)
	return d
}
