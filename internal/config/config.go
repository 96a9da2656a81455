// Package config loads config.yaml from the configuration directory with
// Viper. Values can be overridden by JEMBATAN_* environment variables,
// which may also come from a .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/satpel-tasikmalaya/jembatan/pkg/types"
)

const (
	fileName = "config"
	fileType = "yaml"
	fileExt  = "config.yaml"

	// EnvPrefix prefixes environment overrides, e.g. JEMBATAN_REMOTE_URI.
	EnvPrefix = "JEMBATAN"
)

// Config keys.
const (
	KeyDataDir          = "data_dir"
	KeyRemoteURI        = "remote.uri"
	KeyRemoteDatabase   = "remote.database"
	KeyRemoteCollection = "remote.collection"
	KeyRemoteTimeout    = "remote.timeout"
	KeyPhotosBucket     = "photos.bucket"
	KeyPhotosRegion     = "photos.region"
	KeyPhotosEndpoint   = "photos.endpoint"
	KeyPhotosPathStyle  = "photos.path_style"
	KeyPhotosPublicURL  = "photos.public_base_url"
	KeyServerAddr       = "server.addr"
	KeyServerCORS       = "server.cors_origins"
	KeyLogLevel         = "log.level"
	KeyLogDir           = "log.dir"
	KeyLogMaxAgeDays    = "log.max_age_days"
)

var defaults = map[string]any{
	KeyDataDir:          "",
	KeyRemoteURI:        "",
	KeyRemoteDatabase:   "jembatan",
	KeyRemoteCollection: "jembatan",
	KeyRemoteTimeout:    10 * time.Second,
	KeyPhotosBucket:     "",
	KeyPhotosRegion:     "us-east-1",
	KeyPhotosEndpoint:   "",
	KeyPhotosPathStyle:  false,
	KeyPhotosPublicURL:  "",
	KeyServerAddr:       ":8080",
	KeyServerCORS:       []string{"*"},
	KeyLogLevel:         "info",
	KeyLogDir:           "",
	KeyLogMaxAgeDays:    2,
}

// defaultConfigYAML is written to config.yaml on first run.
const defaultConfigYAML = `# jembatan configuration
# Every key can be overridden with a JEMBATAN_ environment variable,
# e.g. JEMBATAN_REMOTE_URI.

# Data directory for the local store (optional; overridable by --data-dir)
# data_dir:

# Remote document store. Leave uri empty to run from local storage only.
remote:
  uri: ""
  database: jembatan
  collection: jembatan
  timeout: 10s

# S3-compatible photo bucket. Leave bucket empty to disable photos.
photos:
  bucket: ""
  region: us-east-1
  # endpoint: http://localhost:9000
  # path_style: true
  # public_base_url: https://cdn.example.com

server:
  addr: ":8080"
  cors_origins: ["*"]

log:
  level: info
  # dir: ./logs
  max_age_days: 2
`

// Load reads config.yaml from configDir. It creates the directory and a
// default config.yaml on first run; a missing file is not an error.
func Load(configDir string) (types.Config, error) {
	if err := EnsureDefaultFile(configDir); err != nil {
		return types.Config{}, err
	}
	if err := loadDotEnv(configDir); err != nil {
		return types.Config{}, err
	}

	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetConfigName(fileName)
	v.SetConfigType(fileType)
	v.AddConfigPath(configDir)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return types.Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return types.Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// EnsureDefaultFile creates configDir and writes a default config.yaml if
// none exists.
func EnsureDefaultFile(configDir string) error {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("ensure config dir: %w", err)
	}
	path := filepath.Join(configDir, fileExt)
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}

// loadDotEnv loads .env from the working directory and from configDir.
// Variables already set in the environment win.
func loadDotEnv(configDir string) error {
	for _, path := range []string{".env", filepath.Join(configDir, ".env")} {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
	}
	return nil
}
