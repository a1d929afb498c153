package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"logging"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Market struct {
		Products        []string           `yaml:"products"`
		BasePrices      map[string]float64 `yaml:"base_prices"`
		PriceTickPeriod time.Duration      `yaml:"price_tick_period"`
		IotTickPeriod   time.Duration      `yaml:"iot_tick_period"`
		SeedHistoryDays int                `yaml:"seed_history_days"`
		ExportThreshold float64            `yaml:"export_threshold"`
	} `yaml:"market"`
	Forecast struct {
		Alpha       float64 `yaml:"alpha"`
		Beta        float64 `yaml:"beta"`
		Window      int     `yaml:"window"`
		DefaultDays int     `yaml:"default_days"`
	} `yaml:"forecast"`
	Cache struct {
		Backend string        `yaml:"backend"` // memory or redis
		TTL     time.Duration `yaml:"ttl"`
		Redis   struct {
			Host     string `yaml:"host"`
			Port     int    `yaml:"port"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	Kafka struct {
		Enabled      bool          `yaml:"enabled"`
		Brokers      []string      `yaml:"brokers"`
		Topic        string        `yaml:"topic"`
		RequiredAcks int           `yaml:"required_acks"`
		Compression  string        `yaml:"compression"`
		MaxAttempts  int           `yaml:"max_attempts"`
		BatchSize    int           `yaml:"batch_size"`
		Linger       time.Duration `yaml:"linger"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
		ReadTimeout  time.Duration `yaml:"read_timeout"`
		Async        bool          `yaml:"async"`
	} `yaml:"kafka"`
	Stream struct {
		Enabled        bool          `yaml:"enabled"`
		URL            string        `yaml:"url"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay"`
	} `yaml:"stream"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("PORT"); v != "" {
		fmt.Sscanf(v, "%d", &c.Server.Port)
	}
	if v := os.Getenv("CACHE_BACKEND"); v != "" {
		c.Cache.Backend = v
	}
	if v := os.Getenv("REDIS_HOST"); v != "" {
		c.Cache.Redis.Host = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
		c.Kafka.Enabled = true
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}

	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8090
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stdout"
	}
	if c.Metrics.Enabled && c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if len(c.Market.Products) == 0 {
		c.Market.Products = []string{"soymeal", "sunflower_cake", "husk", "specialty"}
	}
	if len(c.Market.BasePrices) == 0 {
		c.Market.BasePrices = map[string]float64{
			"soymeal":        42000,
			"sunflower_cake": 38500,
			"husk":           12000,
			"specialty":      55000,
		}
	}
	if c.Market.PriceTickPeriod == 0 {
		c.Market.PriceTickPeriod = 5 * time.Second
	}
	if c.Market.IotTickPeriod == 0 {
		c.Market.IotTickPeriod = 4 * time.Second
	}
	if c.Market.SeedHistoryDays == 0 {
		c.Market.SeedHistoryDays = 90
	}
	if c.Market.ExportThreshold == 0 {
		c.Market.ExportThreshold = 45000
	}
	if c.Forecast.Alpha == 0 {
		c.Forecast.Alpha = 0.3
	}
	if c.Forecast.Beta == 0 {
		c.Forecast.Beta = 0.1
	}
	if c.Forecast.Window == 0 {
		c.Forecast.Window = 30
	}
	if c.Forecast.DefaultDays == 0 {
		c.Forecast.DefaultDays = 30
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = "memory"
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = 30 * time.Second
	}
	if c.Cache.Redis.Prefix == "" {
		c.Cache.Redis.Prefix = "agropulse"
	}
	if c.Stream.ReconnectDelay == 0 {
		c.Stream.ReconnectDelay = 3 * time.Second
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Cache.Backend != "memory" && c.Cache.Backend != "redis" {
		return fmt.Errorf("cache.backend must be 'memory' or 'redis', got '%s'", c.Cache.Backend)
	}
	for _, p := range c.Market.Products {
		if _, ok := c.Market.BasePrices[p]; !ok {
			return fmt.Errorf("market.base_prices missing product '%s'", p)
		}
	}
	if c.Forecast.Alpha <= 0 || c.Forecast.Alpha >= 1 {
		return fmt.Errorf("forecast.alpha must be in (0,1)")
	}
	if c.Forecast.Beta <= 0 || c.Forecast.Beta >= 1 {
		return fmt.Errorf("forecast.beta must be in (0,1)")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers required when kafka is enabled")
	}
	if c.Kafka.Enabled && c.Kafka.Topic == "" {
		return fmt.Errorf("kafka.topic required when kafka is enabled")
	}
	return nil
}
