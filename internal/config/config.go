package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config holds the configuration for the newscheck service
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Model   ModelConfig   `yaml:"model"`
	Storage StorageConfig `yaml:"storage"`
	Fetcher FetcherConfig `yaml:"fetcher"`
	Log     LogConfig     `yaml:"log"`
}

// ServerConfig holds HTTP listener settings
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// ModelConfig holds the artifact location and training knobs
type ModelConfig struct {
	ArtifactPath string  `yaml:"artifact_path"`
	MaxFeatures  int     `yaml:"max_features"`
	MaxDF        float64 `yaml:"max_df"`
	C            float64 `yaml:"c"`
	MaxIter      int     `yaml:"max_iter"`
	TestSize     float64 `yaml:"test_size"`
	Seed         int64   `yaml:"seed"`
}

// StorageConfig holds submission history settings
type StorageConfig struct {
	DBPath         string `yaml:"db_path"`
	ContentLimit   int    `yaml:"content_limit"`
	DefaultPerPage int    `yaml:"default_per_page"`
	MaxPerPage     int    `yaml:"max_per_page"`
}

// FetcherConfig holds URL ingestion settings
type FetcherConfig struct {
	Timeout           time.Duration `yaml:"timeout"`
	UserAgent         string        `yaml:"user_agent"`
	EnableRobotsCheck bool          `yaml:"enable_robots_check"`
	MaxBodyBytes      int64         `yaml:"max_body_bytes"`
	MinHostDelay      time.Duration `yaml:"min_host_delay"`
	HostStateExpiry   time.Duration `yaml:"host_state_expiry"`
	RobotsCacheTTL    time.Duration `yaml:"robots_cache_ttl"`
}

// LogConfig holds logger settings
type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Defaults returns the built-in configuration
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Model: ModelConfig{
			ArtifactPath: "./data/model.json",
			MaxFeatures:  5000,
			MaxDF:        0.9,
			C:            1.0,
			MaxIter:      1000,
			TestSize:     0.2,
			Seed:         42,
		},
		Storage: StorageConfig{
			DBPath:         "./data/newscheck.db",
			ContentLimit:   1000,
			DefaultPerPage: 10,
			MaxPerPage:     100,
		},
		Fetcher: FetcherConfig{
			Timeout:           10 * time.Second,
			UserAgent:         "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
			EnableRobotsCheck: true,
			MaxBodyBytes:      5 << 20,
			MinHostDelay:      time.Second,
			HostStateExpiry:   10 * time.Minute,
			RobotsCacheTTL:    24 * time.Hour,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from environment variables with defaults.
// When NEWSCHECK_CONFIG names a YAML file it is applied first.
func Load() (*Config, error) {
	return LoadFile(GetStringEnv("NEWSCHECK_CONFIG", ""))
}

// LoadFile applies the YAML file at path (if any) over the defaults, then
// environment overrides.
func LoadFile(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Server.Addr = GetStringEnv("SERVER_ADDR", c.Server.Addr)
	c.Server.ReadTimeout = GetDurationEnv("SERVER_READ_TIMEOUT", c.Server.ReadTimeout)
	c.Server.WriteTimeout = GetDurationEnv("SERVER_WRITE_TIMEOUT", c.Server.WriteTimeout)

	c.Model.ArtifactPath = GetStringEnv("MODEL_ARTIFACT_PATH", c.Model.ArtifactPath)
	c.Model.MaxFeatures = GetIntEnv("MODEL_MAX_FEATURES", c.Model.MaxFeatures)
	c.Model.MaxDF = GetFloatEnv("MODEL_MAX_DF", c.Model.MaxDF)
	c.Model.C = GetFloatEnv("MODEL_C", c.Model.C)
	c.Model.MaxIter = GetIntEnv("MODEL_MAX_ITER", c.Model.MaxIter)
	c.Model.TestSize = GetFloatEnv("MODEL_TEST_SIZE", c.Model.TestSize)
	c.Model.Seed = int64(GetIntEnv("MODEL_SEED", int(c.Model.Seed)))

	c.Storage.DBPath = GetStringEnv("STORAGE_DB_PATH", c.Storage.DBPath)
	c.Storage.ContentLimit = GetIntEnv("STORAGE_CONTENT_LIMIT", c.Storage.ContentLimit)
	c.Storage.DefaultPerPage = GetIntEnv("STORAGE_DEFAULT_PER_PAGE", c.Storage.DefaultPerPage)
	c.Storage.MaxPerPage = GetIntEnv("STORAGE_MAX_PER_PAGE", c.Storage.MaxPerPage)

	c.Fetcher.Timeout = GetDurationEnv("FETCHER_TIMEOUT", c.Fetcher.Timeout)
	c.Fetcher.UserAgent = GetStringEnv("FETCHER_USER_AGENT", c.Fetcher.UserAgent)
	c.Fetcher.EnableRobotsCheck = GetBoolEnv("FETCHER_ENABLE_ROBOTS_CHECK", c.Fetcher.EnableRobotsCheck)
	c.Fetcher.MaxBodyBytes = int64(GetIntEnv("FETCHER_MAX_BODY_BYTES", int(c.Fetcher.MaxBodyBytes)))
	c.Fetcher.MinHostDelay = GetDurationEnv("FETCHER_MIN_HOST_DELAY", c.Fetcher.MinHostDelay)
	c.Fetcher.HostStateExpiry = GetDurationEnv("FETCHER_HOST_STATE_EXPIRY", c.Fetcher.HostStateExpiry)
	c.Fetcher.RobotsCacheTTL = GetDurationEnv("FETCHER_ROBOTS_CACHE_TTL", c.Fetcher.RobotsCacheTTL)

	c.Log.Level = GetStringEnv("LOG_LEVEL", c.Log.Level)
	c.Log.JSON = GetBoolEnv("LOG_JSON", c.Log.JSON)
}

// Validate rejects values the service cannot run with
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server addr is required")
	}
	if c.Model.ArtifactPath == "" {
		return fmt.Errorf("model artifact_path is required")
	}
	if c.Model.MaxFeatures <= 0 {
		return fmt.Errorf("model max_features must be positive, got %d", c.Model.MaxFeatures)
	}
	if c.Model.MaxDF <= 0 || c.Model.MaxDF > 1 {
		return fmt.Errorf("model max_df must be in (0, 1], got %g", c.Model.MaxDF)
	}
	if c.Model.C <= 0 {
		return fmt.Errorf("model c must be positive, got %g", c.Model.C)
	}
	if c.Model.TestSize < 0 || c.Model.TestSize >= 1 {
		return fmt.Errorf("model test_size must be in [0, 1), got %g", c.Model.TestSize)
	}
	if c.Storage.DBPath == "" {
		return fmt.Errorf("storage db_path is required")
	}
	if c.Storage.DefaultPerPage <= 0 || c.Storage.MaxPerPage < c.Storage.DefaultPerPage {
		return fmt.Errorf("storage paging: default_per_page %d, max_per_page %d", c.Storage.DefaultPerPage, c.Storage.MaxPerPage)
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	return nil
}

func GetStringEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func GetIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func GetFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func GetBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func GetDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
