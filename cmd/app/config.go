package main

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"glimo/internal/cache"
	"glimo/internal/payment"
	"glimo/internal/repository"
	"glimo/pkg/notify"
	"glimo/pkg/storage"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	configPath   = "./"
	configName   = "config"
	configFormat = "yaml"
)

type Config struct {
	Database repository.Config `yaml:"database"`
	Server   ServerConfig      `yaml:"server"`
	Redis    cache.Config      `yaml:"redis"`
	Auth     AuthConfig        `yaml:"auth"`
	Storage  storage.Config    `yaml:"storage"`
	Payments PaymentsConfig    `yaml:"payments"`
	Telegram notify.Config     `yaml:"telegram"`
	Realtime RealtimeConfig    `yaml:"realtime"`

	RateLimit RateLimitConfig `yaml:"rateLimit"`
	Snowflake SnowflakeConfig `yaml:"snowflake"`

	LogLevel    string `yaml:"logLevel"`
	LogEncoding string `yaml:"logEncoding"`
}

type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            string        `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwtSecret"`
	Audience  string `yaml:"audience"`
}

type PaymentsConfig struct {
	payment.Config `mapstructure:",squash" yaml:",inline"`

	PremiumPriceID string `yaml:"premiumPriceID"`
	// Bundles maps a stars amount ("120") to its provider price id.
	Bundles map[string]string `yaml:"bundles"`
}

type RealtimeConfig struct {
	// Broker is "local" for a single instance or "redis" for several.
	Broker         string   `yaml:"broker"`
	AllowedOrigins []string `yaml:"allowedOrigins"`
}

type RateLimitConfig struct {
	MessagesPerMinute int `yaml:"messagesPerMinute"`
	CheckoutPerMinute int `yaml:"checkoutPerMinute"`
}

type SnowflakeConfig struct {
	Node int64 `yaml:"node"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8888")
	v.SetDefault("server.shutdownTimeout", 10*time.Second)
	v.SetDefault("realtime.broker", "local")
	v.SetDefault("rateLimit.messagesPerMinute", 60)
	v.SetDefault("rateLimit.checkoutPerMinute", 10)
	v.SetDefault("logLevel", "info")
	v.SetDefault("logEncoding", "json")
}

// LoadConfig reads config.yaml from dir (the working directory when empty),
// a .env file if present, and APP_ prefixed environment overrides.
func LoadConfig(dir string) (*Config, error) {
	if dir == "" {
		dir = configPath
	}

	if err := godotenv.Load(filepath.Join(dir, ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigName(configName)
	v.AddConfigPath(dir)
	v.SetConfigType(configFormat)
	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwtSecret is required")
	}
	if c.Realtime.Broker != "local" && c.Realtime.Broker != "redis" {
		return fmt.Errorf("realtime.broker must be local or redis, got %q", c.Realtime.Broker)
	}
	return nil
}
