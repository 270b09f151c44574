package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// AppConfig holds the complete configuration for the service
type AppConfig struct {
	Environment   string              `mapstructure:"environment"`
	LogLevel      string              `mapstructure:"log_level"`
	ServiceName   string              `mapstructure:"service_name"`
	API           APIConfig           `mapstructure:"api"`
	Observability ObservabilityConfig `mapstructure:"observability"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Queue         QueueConfig         `mapstructure:"queue"`
	Processor     ProcessorConfig     `mapstructure:"processor"`
	Auth          AuthConfig          `mapstructure:"auth"`
}

type APIConfig struct {
	Addr string `mapstructure:"addr"`
}

type ObservabilityConfig struct {
	Addr string `mapstructure:"addr"`
}

type RedisConfig struct {
	URL string `mapstructure:"url"`
}

type PostgresConfig struct {
	URI      string `mapstructure:"uri"`
	MaxConns int    `mapstructure:"max_conns"`
	MinConns int    `mapstructure:"min_conns"`
}

type QueueConfig struct {
	Key string `mapstructure:"key"`
}

type ProcessorConfig struct {
	BatchSize int           `mapstructure:"batch_size"`
	Interval  time.Duration `mapstructure:"interval"`
}

type AuthConfig struct {
	MaxTimestampAge time.Duration `mapstructure:"max_timestamp_age"`
}

// Load loads configuration from file and environment variables
func Load(path string) (*AppConfig, error) {
	v := viper.New()

	// Default values
	v.SetDefault("environment", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("api.addr", ":8080")
	v.SetDefault("observability.addr", ":8081")
	v.SetDefault("redis.url", "redis://localhost:6379")
	v.SetDefault("postgres.max_conns", 20)
	v.SetDefault("postgres.min_conns", 2)
	v.SetDefault("queue.key", "playerdata:queue")
	v.SetDefault("processor.batch_size", 100)
	v.SetDefault("processor.interval", 5*time.Second)
	v.SetDefault("auth.max_timestamp_age", 5*time.Minute)

	// Environment variables
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Config file
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	// Bind environment variables explicitly for nested structs so Unmarshal picks them up
	v.BindEnv("service_name", "SERVICE_NAME")
	v.BindEnv("environment", "ENVIRONMENT")
	v.BindEnv("log_level", "LOG_LEVEL")
	v.BindEnv("api.addr", "API_ADDR")
	v.BindEnv("observability.addr", "OBSERVABILITY_ADDR")
	v.BindEnv("redis.url", "REDIS_URL")
	v.BindEnv("postgres.uri", "POSTGRES_URI")
	v.BindEnv("postgres.max_conns", "POSTGRES_MAX_CONNS")
	v.BindEnv("postgres.min_conns", "POSTGRES_MIN_CONNS")
	v.BindEnv("queue.key", "QUEUE_KEY")
	v.BindEnv("processor.batch_size", "PROCESSOR_BATCH_SIZE")
	v.BindEnv("processor.interval", "PROCESSOR_INTERVAL")
	v.BindEnv("auth.max_timestamp_age", "AUTH_MAX_TIMESTAMP_AGE")

	var config AppConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks if the configuration is valid
func (c *AppConfig) Validate() error {
	if c.ServiceName == "" {
		return errors.New("service_name is required")
	}
	if c.Redis.URL == "" {
		return errors.New("redis.url is required")
	}
	if c.Postgres.URI == "" {
		return errors.New("postgres.uri is required")
	}
	if c.Queue.Key == "" {
		return errors.New("queue.key is required")
	}
	if c.Processor.BatchSize < 1 {
		return errors.New("processor.batch_size must be at least 1")
	}
	if c.Processor.Interval <= 0 {
		return errors.New("processor.interval must be positive")
	}
	if c.Auth.MaxTimestampAge <= 0 {
		return errors.New("auth.max_timestamp_age must be positive")
	}
	return nil
}
