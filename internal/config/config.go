// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const defaultJWTSecret = "your-secret-key-change-in-production"

// Store backends accepted by STORE_BACKEND.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
	StoreSQL    = "sql"
)

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	Port           string `mapstructure:"PORT"`
	Env            string `mapstructure:"APP_ENV"`
	InstanceID     string `mapstructure:"INSTANCE_ID"`
	JWTSecret      string `mapstructure:"JWT_SECRET"`
	SessionTTLHrs  int    `mapstructure:"SESSION_TTL_HOURS"`
	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`

	ReportsAPIURL        string `mapstructure:"REPORTS_API_URL"`
	ReportsAPITimeoutSec int    `mapstructure:"REPORTS_API_TIMEOUT_SECONDS"`

	StoreBackend string `mapstructure:"STORE_BACKEND"`
	StorePrefix  string `mapstructure:"STORE_PREFIX"`
	RedisURL     string `mapstructure:"REDIS_URL"`

	DBDriver   string `mapstructure:"DB_DRIVER"`
	DBHost     string `mapstructure:"DB_HOST"`
	DBPort     string `mapstructure:"DB_PORT"`
	DBUser     string `mapstructure:"DB_USER"`
	DBPassword string `mapstructure:"DB_PASSWORD"`
	DBName     string `mapstructure:"DB_NAME"`
	DBSSLMode  string `mapstructure:"DB_SSLMODE"`
	DBPath     string `mapstructure:"DB_PATH"`

	TracingEnabled  bool    `mapstructure:"TRACING_ENABLED"`
	TracingEndpoint string  `mapstructure:"TRACING_ENDPOINT"`
	TracingSample   float64 `mapstructure:"TRACING_SAMPLE_RATIO"`
}

// LoadConfig loads application configuration from .env, file and environment variables.
func LoadConfig() (*Config, error) {
	// A missing .env is the normal case outside local development.
	_ = godotenv.Load()

	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()

	_ = viper.ReadInConfig()

	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	if env != "development" && env != "test" {
		viper.SetConfigName("config." + env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("required profile-specific config 'config.%s.yml' not found: %w", env, err)
		}
		log.Printf("Loaded profile-specific configuration: config.%s.yml", env)
	}

	setDefaults()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	config.normalize()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("INSTANCE_ID", "")
	viper.SetDefault("JWT_SECRET", defaultJWTSecret)
	viper.SetDefault("SESSION_TTL_HOURS", 24)
	viper.SetDefault("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000")
	viper.SetDefault("REPORTS_API_URL", "http://localhost:5000")
	viper.SetDefault("REPORTS_API_TIMEOUT_SECONDS", 10)
	viper.SetDefault("STORE_BACKEND", StoreMemory)
	viper.SetDefault("STORE_PREFIX", "smartbarangay:")
	viper.SetDefault("REDIS_URL", "localhost:6379")
	viper.SetDefault("DB_DRIVER", "sqlite")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "user")
	viper.SetDefault("DB_PASSWORD", "password")
	viper.SetDefault("DB_NAME", "smartbarangay")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DB_PATH", "smartbarangay.db")
	viper.SetDefault("TRACING_ENABLED", false)
	viper.SetDefault("TRACING_ENDPOINT", "")
	viper.SetDefault("TRACING_SAMPLE_RATIO", 1.0)
}

func (c *Config) normalize() {
	c.Env = strings.ToLower(strings.TrimSpace(c.Env))
	c.StoreBackend = strings.ToLower(strings.TrimSpace(c.StoreBackend))
	c.DBDriver = strings.ToLower(strings.TrimSpace(c.DBDriver))
	c.DBSSLMode = strings.ToLower(strings.TrimSpace(c.DBSSLMode))
	c.ReportsAPIURL = strings.TrimRight(strings.TrimSpace(c.ReportsAPIURL), "/")
}

// IsProduction reports whether the service runs with production strictness.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// SessionTTL is the lifetime of issued session tokens.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLHrs) * time.Hour
}

// ReportsAPITimeout bounds each call to the reports API.
func (c *Config) ReportsAPITimeout() time.Duration {
	return time.Duration(c.ReportsAPITimeoutSec) * time.Second
}

// Validate ensures that required configuration values are present and meet security standards.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.ReportsAPIURL == "" {
		return errors.New("REPORTS_API_URL is required")
	}
	if c.SessionTTLHrs <= 0 {
		return errors.New("SESSION_TTL_HOURS must be positive")
	}
	if c.ReportsAPITimeoutSec <= 0 {
		return errors.New("REPORTS_API_TIMEOUT_SECONDS must be positive")
	}

	switch c.StoreBackend {
	case StoreMemory:
	case StoreRedis:
		if c.RedisURL == "" {
			return errors.New("REDIS_URL is required when STORE_BACKEND=redis")
		}
	case StoreSQL:
		if c.DBDriver != "postgres" && c.DBDriver != "sqlite" {
			return fmt.Errorf("DB_DRIVER must be postgres or sqlite, got %q", c.DBDriver)
		}
	default:
		return fmt.Errorf("STORE_BACKEND must be one of memory, redis, sql; got %q", c.StoreBackend)
	}

	if c.IsProduction() {
		if c.JWTSecret == defaultJWTSecret {
			return errors.New("JWT_SECRET must be changed from the default value in production")
		}
		if len(c.JWTSecret) < 32 {
			return errors.New("JWT_SECRET must be at least 32 characters in production")
		}
		if c.StoreBackend == StoreMemory {
			return errors.New("STORE_BACKEND=memory is not allowed in production")
		}
		if c.StoreBackend == StoreSQL && c.DBDriver == "postgres" {
			if c.DBPassword == "password" || c.DBPassword == "" {
				return errors.New("a strong DB_PASSWORD is required in production")
			}
			if c.DBSSLMode == "disable" || c.DBSSLMode == "" {
				return errors.New("DB_SSLMODE must not be 'disable' in production")
			}
		}
		if c.AllowedOrigins == "*" {
			log.Println("WARNING: ALLOWED_ORIGINS is set to '*' in production. This is insecure.")
		}
	} else if len(c.JWTSecret) < 32 {
		log.Println("WARNING: JWT_SECRET is shorter than 32 characters. Consider using a stronger secret for production.")
	}

	return nil
}
