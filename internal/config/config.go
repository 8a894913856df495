package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"

	"github.com/medbridge/portal-api/internal/email"
	"github.com/medbridge/portal-api/internal/repository/postgres"
	"github.com/medbridge/portal-api/internal/service/appointment"
	"github.com/medbridge/portal-api/pkg/worker"
)

type Config struct {
	Server   ServerConfig                 `mapstructure:"server"`
	Database postgres.DBConfig            `mapstructure:"database"`
	Redis    RedisConfig                  `mapstructure:"redis"`
	Email    email.Config                 `mapstructure:"email"`
	Triage   appointment.Config           `mapstructure:"triage"`
	Outbox   worker.OutboxProcessorConfig `mapstructure:"outbox"`
	JWT      JWTConfig
	Secrets  Secrets
}

type ServerConfig struct {
	Port           int `mapstructure:"port"`
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
	RateLimit      int `mapstructure:"rate_limit"`
	RateBurst      int `mapstructure:"rate_burst"`
}

type RedisConfig struct {
	URL          string        `mapstructure:"url"`
	MaxRetries   int           `mapstructure:"max_retries"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
}

type JWTConfig struct {
	Secret string
}

// Secrets are environment-only settings, never read from the config
// file. JWT_SECRET and DB_PASSWORD have no file fallback.
type Secrets struct {
	JWTSecret  string `envconfig:"JWT_SECRET" required:"true"`
	DBPassword string `envconfig:"DB_PASSWORD"`
}

// LoadConfig reads the yaml config and overlays environment-only
// secrets. A missing JWT secret fails startup.
func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := envconfig.Process("", &config.Secrets); err != nil {
		return nil, fmt.Errorf("failed to read environment secrets: %w", err)
	}

	config.JWT.Secret = config.Secrets.JWTSecret
	if config.Secrets.DBPassword != "" {
		config.Database.Password = config.Secrets.DBPassword
	}

	return &config, nil
}
