package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"ewsclient/internal/pkg/logger"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// ServerConfig holds server-level config
type ServerConfig struct {
	ServiceName string `yaml:"service_name"`
	Port        int    `yaml:"port" validate:"min=1,max=65535"`
	// OtelCollectorURL is the OTLP/HTTP collector host:port; empty disables tracing.
	OtelCollectorURL string `yaml:"otel_collector_url"`
}

type LogConfig struct {
	LogLevel string `yaml:"level" validate:"omitempty,oneof=debug info warn warning error"`
}

// EWSConfig describes the remote EWS endpoint
type EWSConfig struct {
	URL       string        `yaml:"url" validate:"omitempty,url"`
	APIKey    string        `yaml:"api_key"`
	UserAgent string        `yaml:"user_agent"`
	Timeout   time.Duration `yaml:"timeout_seconds"`
}

// Redis connection config
type RedisConfig struct {
	Addr           string        `yaml:"addr"`
	Password       string        `yaml:"password"`
	DB             int           `yaml:"db" validate:"min=0"`
	EnableTLS      bool          `yaml:"enable_tls"`
	ConnectTimeout time.Duration `yaml:"connect_timeout_seconds"`
	CertContent    string        `yaml:"cert_content"`
}

// BackOffConfig controls how server back-off hints are shared
type BackOffConfig struct {
	Enabled   bool   `yaml:"enabled"`
	KeyPrefix string `yaml:"key_prefix" validate:"required_if=Enabled true"`
}

// MockConfig holds settings for the local mock EWS endpoint
type MockConfig struct {
	BackOffMilliseconds uint64 `yaml:"back_off_milliseconds"`
}

// AppConfig is the main config struct that holds all configs
type AppConfig struct {
	Server  ServerConfig  `yaml:"server"`
	Logging LogConfig     `yaml:"logging"`
	EWS     EWSConfig     `yaml:"ews"`
	Redis   RedisConfig   `yaml:"redis"`
	BackOff BackOffConfig `yaml:"backoff"`
	Mock    MockConfig    `yaml:"mock"`
}

var validate = validator.New()

func assignDefaultConfigValues(cfg *AppConfig) *AppConfig {

	// server config defaults
	cfg.Server.ServiceName = GetEnvOrDefaultAsString("SERVICE_NAME", orDefault(cfg.Server.ServiceName, "ews-mock"))
	cfg.Server.Port = GetEnvOrDefaultAsInt("SERVER_PORT", orDefaultInt(cfg.Server.Port, 8080))
	cfg.Server.OtelCollectorURL = GetEnvOrDefaultAsString("OTEL_COLLECTOR_URL", cfg.Server.OtelCollectorURL)

	// log config defaults
	cfg.Logging.LogLevel = GetEnvOrDefaultAsString("LOGGING_LEVEL", orDefault(cfg.Logging.LogLevel, "info"))

	// EWS endpoint defaults
	cfg.EWS.URL = GetEnvOrDefaultAsString("EWS_URL", cfg.EWS.URL)
	cfg.EWS.APIKey = GetEnvOrDefaultAsString("EWS_API_KEY", cfg.EWS.APIKey)
	cfg.EWS.UserAgent = GetEnvOrDefaultAsString("EWS_USER_AGENT", orDefault(cfg.EWS.UserAgent, "ewsclient"))
	cfg.EWS.Timeout = time.Duration(GetEnvOrDefaultAsInt("EWS_TIMEOUT_SECONDS",
		orDefaultInt(int(cfg.EWS.Timeout), 30))) * time.Second

	// Redis config defaults
	cfg.Redis.Addr = GetEnvOrDefaultAsString("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = GetEnvOrDefaultAsString("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = GetEnvOrDefaultAsInt("REDIS_DB", cfg.Redis.DB)
	cfg.Redis.EnableTLS = GetEnvOrDefaultAsBool("REDIS_ENABLE_TLS", cfg.Redis.EnableTLS)
	cfg.Redis.ConnectTimeout = time.Duration(GetEnvOrDefaultAsInt("REDIS_CONNECT_TIMEOUT_SECONDS",
		orDefaultInt(int(cfg.Redis.ConnectTimeout), 10))) * time.Second
	cfg.Redis.CertContent = GetEnvOrDefaultAsString("REDIS_TLS_CERT", cfg.Redis.CertContent)

	// back-off store defaults
	cfg.BackOff.Enabled = GetEnvOrDefaultAsBool("BACKOFF_ENABLED", cfg.BackOff.Enabled)
	cfg.BackOff.KeyPrefix = GetEnvOrDefaultAsString("BACKOFF_KEY_PREFIX", orDefault(cfg.BackOff.KeyPrefix, "ews:backoff:"))

	// mock endpoint defaults
	cfg.Mock.BackOffMilliseconds = uint64(GetEnvOrDefaultAsInt("MOCK_BACKOFF_MILLISECONDS",
		orDefaultInt(int(cfg.Mock.BackOffMilliseconds), 25)))

	return cfg
}

// Validate checks the loaded configuration
func (c *AppConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s(%s)", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(fields, ", "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// LoadFromConfigFilePath loads and parses config file into AppConfig
func LoadFromConfigFilePath(configPath string) (*AppConfig, error) {

	// #nosec G304: configPath comes from the operator
	data, err := os.ReadFile(configPath)
	if err != nil {
		logger.Error("Failed to read config file", err, zap.String("path", configPath))
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		logger.Error("Failed to unmarshal config", err)
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	assignDefaultConfigValues(&cfg)

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration failed validation", err)
		return nil, err
	}

	logger.Info("Configuration loaded successfully", zap.String("path", configPath))

	return &cfg, nil
}

func GetEnvOrDefaultAsInt(key string, defaultValue int) int {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return defaultValue
	}
	return int(value)
}

func GetEnvOrDefaultAsBool(key string, defaultValue bool) bool {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// GetEnvOrDefaultAsString returns the value of the given env variable or the default value if not set.
func GetEnvOrDefaultAsString(key, defaultVal string) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	return defaultVal
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func orDefaultInt(value, fallback int) int {
	if value == 0 {
		return fallback
	}
	return value
}

// LoadFromConfig loads an optional .env file and then the config file named by CONFIG_PATH.
func LoadFromConfig() (*AppConfig, error) {
	envFile := GetEnvOrDefaultAsString("ENV_FILE", ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("Failed to load env file", zap.String("path", envFile), zap.Error(err))
	}

	configPath := GetEnvOrDefaultAsString("CONFIG_PATH", "configs/config.yaml")

	cfg, err := LoadFromConfigFilePath(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
	}

	return cfg, nil
}
