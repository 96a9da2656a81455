package types

import (
	"errors"
	"time"
)

// Config holds every setting the jembatan binary reads from config.yaml,
// the environment and flags.
type Config struct {
	DataDir string       `mapstructure:"data_dir" json:"data_dir" yaml:"data_dir"`
	Remote  RemoteConfig `mapstructure:"remote" json:"remote" yaml:"remote"`
	Photos  PhotoConfig  `mapstructure:"photos" json:"photos" yaml:"photos"`
	Server  ServerConfig `mapstructure:"server" json:"server" yaml:"server"`
	Log     LogConfig    `mapstructure:"log" json:"log" yaml:"log"`
}

// RemoteConfig selects the remote document store. An empty URI means the
// remote store is not available and the dashboard runs from the local
// snapshot.
type RemoteConfig struct {
	URI        string        `mapstructure:"uri" json:"uri" yaml:"uri"`
	Database   string        `mapstructure:"database" json:"database" yaml:"database"`
	Collection string        `mapstructure:"collection" json:"collection" yaml:"collection"`
	Timeout    time.Duration `mapstructure:"timeout" json:"timeout" yaml:"timeout"`
}

// Enabled reports whether a remote store is configured.
func (c RemoteConfig) Enabled() bool {
	return c.URI != ""
}

// PhotoConfig configures the S3-compatible photo bucket. An empty bucket
// disables photo uploads.
type PhotoConfig struct {
	Bucket        string `mapstructure:"bucket" json:"bucket" yaml:"bucket"`
	Region        string `mapstructure:"region" json:"region" yaml:"region"`
	Endpoint      string `mapstructure:"endpoint" json:"endpoint" yaml:"endpoint"`
	PathStyle     bool   `mapstructure:"path_style" json:"path_style" yaml:"path_style"`
	PublicBaseURL string `mapstructure:"public_base_url" json:"public_base_url" yaml:"public_base_url"`
}

// Enabled reports whether photo storage is configured.
func (c PhotoConfig) Enabled() bool {
	return c.Bucket != ""
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr        string   `mapstructure:"addr" json:"addr" yaml:"addr"`
	CORSOrigins []string `mapstructure:"cors_origins" json:"cors_origins" yaml:"cors_origins"`
}

// LogConfig configures logging. An empty Dir logs to stderr.
type LogConfig struct {
	Level      string `mapstructure:"level" json:"level" yaml:"level"`
	Dir        string `mapstructure:"dir" json:"dir" yaml:"dir"`
	MaxAgeDays int    `mapstructure:"max_age_days" json:"max_age_days" yaml:"max_age_days"`
}

// Config validation errors.
var (
	ErrDatabaseEmpty    = errors.New("remote database must not be empty")
	ErrCollectionEmpty  = errors.New("remote collection must not be empty")
	ErrTimeoutInvalid   = errors.New("remote timeout must be positive")
	ErrServerAddrEmpty  = errors.New("server address must not be empty")
	ErrLogMaxAgeInvalid = errors.New("log max age must not be negative")
)

// Validate checks that the Config is well-formed. Remote settings are only
// checked when a remote URI is configured.
func (c Config) Validate() error {
	if c.Remote.Enabled() {
		if c.Remote.Database == "" {
			return ErrDatabaseEmpty
		}
		if c.Remote.Collection == "" {
			return ErrCollectionEmpty
		}
		if c.Remote.Timeout <= 0 {
			return ErrTimeoutInvalid
		}
	}
	if c.Server.Addr == "" {
		return ErrServerAddrEmpty
	}
	if c.Log.MaxAgeDays < 0 {
		return ErrLogMaxAgeInvalid
	}
	return nil
}
