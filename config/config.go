// Package config loads the daemon configuration from the environment and an optional .env file using Viper.
package config

import (
	"errors"
	"time"

	"github.com/layer-3/cleos/core"
	"github.com/spf13/viper"
)

// Config holds daemon configuration
type Config struct {
	// HTTPAddr is the address the HTTP bridge listens on.
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// RedisURL selects the Redis session store and event stream; empty uses memory and in-process events.
	RedisURL string `mapstructure:"REDIS_URL"`

	ChainID     string `mapstructure:"CHAIN_ID"`
	RPCProtocol string `mapstructure:"RPC_PROTOCOL"`
	RPCHost     string `mapstructure:"RPC_HOST"`
	RPCPort     int    `mapstructure:"RPC_PORT"`

	// SessionLifetime is how long a login is reused (e.g. "168h").
	SessionLifetime string `mapstructure:"SESSION_LIFETIME"`
	// TokenTTL is the lifetime of bearer tokens issued by the bridge.
	TokenTTL string `mapstructure:"TOKEN_TTL"`

	// Account and Permission answer the login delegate of the daemon.
	Account    string `mapstructure:"CLEOS_ACCOUNT"`
	Permission string `mapstructure:"CLEOS_PERMISSION"`
	// SignTopic is where transactions are published for the signer.
	SignTopic string `mapstructure:"SIGN_TOPIC"`

	LogDebug bool `mapstructure:"LOG_DEBUG"`
}

// Load reads .env (if present), then builds and validates Config from the environment.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // a missing .env is fine

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":9000")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("CHAIN_ID", "")
	v.SetDefault("RPC_PROTOCOL", "http")
	v.SetDefault("RPC_HOST", "127.0.0.1")
	v.SetDefault("RPC_PORT", 8888)
	v.SetDefault("SESSION_LIFETIME", "168h")
	v.SetDefault("TOKEN_TTL", "15m")
	v.SetDefault("CLEOS_ACCOUNT", "")
	v.SetDefault("CLEOS_PERMISSION", "active")
	v.SetDefault("SIGN_TOPIC", "cleos.sign")
	v.SetDefault("LOG_DEBUG", false)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("config: HTTP_ADDR must be set")
	}
	if cfg.ChainID == "" {
		return nil, errors.New("config: CHAIN_ID must be set")
	}
	if cfg.RPCPort <= 0 || cfg.RPCPort > 65535 {
		return nil, errors.New("config: RPC_PORT must be between 1 and 65535")
	}
	if !positiveDuration(cfg.SessionLifetime) {
		return nil, errors.New("config: SESSION_LIFETIME must be a positive duration")
	}
	if !positiveDuration(cfg.TokenTTL) {
		return nil, errors.New("config: TOKEN_TTL must be a positive duration")
	}

	return &cfg, nil
}

// Chains returns the single configured chain
func (c *Config) Chains() []core.Chain {
	return []core.Chain{{
		ChainID: c.ChainID,
		RPCEndpoints: []core.RPCEndpoint{{
			Protocol: c.RPCProtocol,
			Host:     c.RPCHost,
			Port:     c.RPCPort,
		}},
	}}
}

func positiveDuration(s string) bool {
	d, err := time.ParseDuration(s)
	return err == nil && d > 0
}

// Lifetime parses SessionLifetime. Returns 168h if unset or invalid.
func (c *Config) Lifetime() time.Duration {
	d, err := time.ParseDuration(c.SessionLifetime)
	if err != nil || d <= 0 {
		return 168 * time.Hour
	}
	return d
}

// TokenLifetime parses TokenTTL. Returns 15m if unset or invalid.
func (c *Config) TokenLifetime() time.Duration {
	d, err := time.ParseDuration(c.TokenTTL)
	if err != nil || d <= 0 {
		return 15 * time.Minute
	}
	return d
}
