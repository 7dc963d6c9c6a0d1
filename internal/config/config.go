package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/fjod/go_cart/storefront/internal/checkout"
)

const (
	SessionStoreMemory = "memory"
	SessionStoreRedis  = "redis"
)

type Config struct {
	HTTPPort        string        `mapstructure:"HTTP_PORT"`
	GatewayBaseURL  string        `mapstructure:"GATEWAY_BASE_URL"`
	GatewayTimeout  time.Duration `mapstructure:"GATEWAY_TIMEOUT"`
	RequestTimeout  time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	CheckoutTimeout time.Duration `mapstructure:"CHECKOUT_TIMEOUT"`
	ShutdownTimeout time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`
	SessionStore    string        `mapstructure:"SESSION_STORE"`
	SessionTTL      time.Duration `mapstructure:"SESSION_TTL"`
	RedisAddr       string        `mapstructure:"REDIS_ADDR"`
	RedisPassword   string        `mapstructure:"REDIS_PASSWORD"`
	KafkaBrokers    []string      `mapstructure:"KAFKA_BROKERS"`
	CheckoutTopic   string        `mapstructure:"CHECKOUT_TOPIC"`
	CheckoutMode    checkout.Mode `mapstructure:"CHECKOUT_MODE"`
	CatalogCacheTTL time.Duration `mapstructure:"CATALOG_CACHE_TTL"`
	BreakerFailures uint32        `mapstructure:"BREAKER_MAX_FAILURES"`
	BreakerReset    time.Duration `mapstructure:"BREAKER_RESET"`
	LogLevel        string        `mapstructure:"LOG_LEVEL"`
}

var defaults = map[string]any{
	"HTTP_PORT":            "8080",
	"GATEWAY_BASE_URL":     "http://localhost:5000/api",
	"GATEWAY_TIMEOUT":      10 * time.Second,
	"REQUEST_TIMEOUT":      15 * time.Second,
	"CHECKOUT_TIMEOUT":     2 * time.Minute,
	"SHUTDOWN_TIMEOUT":     10 * time.Second,
	"SESSION_STORE":        SessionStoreMemory,
	"SESSION_TTL":          2 * time.Hour,
	"REDIS_ADDR":           "localhost:6379",
	"REDIS_PASSWORD":       "",
	"KAFKA_BROKERS":        "",
	"CHECKOUT_TOPIC":       checkout.DefaultTopic,
	"CHECKOUT_MODE":        string(checkout.ModePerItem),
	"CATALOG_CACHE_TTL":    30 * time.Second,
	"BREAKER_MAX_FAILURES": 5,
	"BREAKER_RESET":        30 * time.Second,
	"LOG_LEVEL":            "info",
}

// Load reads defaults, then an optional config file, then the environment.
// An empty path looks for storefront.yaml in the working directory and /etc/storefront.
func Load(path string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("storefront")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/storefront")
	}
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.KafkaBrokers = cleanList(cfg.KafkaBrokers)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func cleanList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func (c *Config) Validate() error {
	var problems []string
	if strings.TrimSpace(c.GatewayBaseURL) == "" {
		problems = append(problems, "GATEWAY_BASE_URL is required")
	}
	switch c.SessionStore {
	case SessionStoreMemory:
	case SessionStoreRedis:
		if c.RedisAddr == "" {
			problems = append(problems, "REDIS_ADDR is required for the redis session store")
		}
	default:
		problems = append(problems, fmt.Sprintf("SESSION_STORE must be %q or %q", SessionStoreMemory, SessionStoreRedis))
	}
	mode, ok := checkout.ParseMode(string(c.CheckoutMode))
	if !ok {
		problems = append(problems, fmt.Sprintf("CHECKOUT_MODE must be %q or %q", checkout.ModePerItem, checkout.ModeSingleOrder))
	}
	c.CheckoutMode = mode
	if c.SessionTTL <= 0 {
		problems = append(problems, "SESSION_TTL must be positive")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}
