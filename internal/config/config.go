package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("loglevel", func(fl validator.FieldLevel) bool {
		switch fl.Field().String() {
		case "", "debug", "info", "warn", "error":
			return true
		}
		return false
	})
}

// Config holds the feedsearch configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Index    IndexConfig    `yaml:"index"`
	Cache    CacheConfig    `yaml:"cache"`
	Auth     AuthConfig     `yaml:"auth"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level" validate:"loglevel"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys" validate:"dive,required"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec" validate:"gt=0"`
	WriteTimeoutSec int `yaml:"write_timeout_sec" validate:"gt=0"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec" validate:"gt=0"`
}

// DatabaseConfig holds entity store connection settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db" validate:"gte=0"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec" validate:"gt=0"`
}

// IndexConfig holds search index settings.
type IndexConfig struct {
	Path             string `yaml:"path"` // empty keeps the index in memory
	BatchSize        int    `yaml:"batch_size" validate:"gt=0"`
	CommitIntervalMs int    `yaml:"commit_interval_ms" validate:"gt=0"`
	PollIntervalMs   int    `yaml:"poll_interval_ms" validate:"gt=0"`
	MaxClauseCount   int    `yaml:"max_clause_count" validate:"gt=0"`
	ResultLimit      int    `yaml:"result_limit" validate:"gte=0"` // 0 = unlimited
	ReindexBatchSize int    `yaml:"reindex_batch_size" validate:"gt=0"`
}

// CacheConfig holds location resolution cache settings.
type CacheConfig struct {
	LocationSize   int `yaml:"location_size" validate:"gt=0"`
	LocationTTLSec int `yaml:"location_ttl_sec" validate:"gt=0"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse decodes YAML configuration, expands ${VAR} references, applies
// defaults and validates the result.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Index.BatchSize <= 0 {
		c.Index.BatchSize = 500
	}
	if c.Index.CommitIntervalMs <= 0 {
		c.Index.CommitIntervalMs = 1000
	}
	if c.Index.PollIntervalMs <= 0 {
		c.Index.PollIntervalMs = 100
	}
	if c.Index.MaxClauseCount <= 0 {
		c.Index.MaxClauseCount = 1024
	}
	if c.Index.ReindexBatchSize <= 0 {
		c.Index.ReindexBatchSize = 200
	}
	if c.Cache.LocationSize <= 0 {
		c.Cache.LocationSize = 1024
	}
	if c.Cache.LocationTTLSec <= 0 {
		c.Cache.LocationTTLSec = 300
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%s failed %q validation, got %v", fieldPath(fe.Namespace()), fe.Tag(), fe.Value())
		}
		return err
	}
	return nil
}

// fieldPath turns "Config.Index.BatchSize" into "index.batchsize".
func fieldPath(ns string) string {
	_, rest, found := strings.Cut(ns, ".")
	if !found {
		rest = ns
	}
	return strings.ToLower(rest)
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
