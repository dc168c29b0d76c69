package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/irwan019/GrkApp/internal/domain/entities"
)

type Config struct {
	App         AppConfig
	OpenMeteo   OpenMeteoConfig
	Dashboard   DashboardConfig
	API         APIConfig
	Kafka       KafkaConfig
	Minio       MinioConfig
	HealthCheck HealthCheckConfig
}

type AppConfig struct {
	Name            string        `mapstructure:"name"`
	Env             string        `mapstructure:"env"`
	LogLevel        string        `mapstructure:"log_level"`
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type OpenMeteoConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	Timeout      time.Duration `mapstructure:"timeout"`
	PastDays     int           `mapstructure:"past_days"`
	ForecastDays int           `mapstructure:"forecast_days"`
	RateLimit    float64       `mapstructure:"rate_limit"`
	RateBurst    int           `mapstructure:"rate_burst"`
}

type DashboardConfig struct {
	RefreshInterval time.Duration       `mapstructure:"refresh_interval"`
	JobTimeout      time.Duration       `mapstructure:"job_timeout"`
	Timezone        string              `mapstructure:"timezone"`
	PeriodMaxDays   int                 `mapstructure:"period_max_days"`
	ChartWidth      int                 `mapstructure:"chart_width"`
	ChartHeight     int                 `mapstructure:"chart_height"`
	Locations       []entities.Location `mapstructure:"locations"`
}

// Zone loads the display time zone.
func (d DashboardConfig) Zone() (*time.Location, error) {
	return time.LoadLocation(d.Timezone)
}

type APIConfig struct {
	BasePath           string        `mapstructure:"base_path"`
	CorsAllowedOrigins []string      `mapstructure:"cors_allowed_origins"`
	RateLimit          int           `mapstructure:"rate_limit"`
	RateLimitWindow    time.Duration `mapstructure:"rate_limit_window"`
}

type KafkaConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Brokers      []string      `mapstructure:"brokers"`
	Topic        string        `mapstructure:"topic"`
	RequiredAcks int16         `mapstructure:"required_acks"`
	MaxRetries   int           `mapstructure:"max_retries"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

type MinioConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Region    string `mapstructure:"region"`
}

type HealthCheckConfig struct {
	Timeout       time.Duration `mapstructure:"timeout"`
	RetryInterval time.Duration `mapstructure:"retry_interval"`
	MaxRetries    int           `mapstructure:"max_retries"`
}

// Load reads .env, then config.yaml (or configFile when given), then the
// environment. Later sources win.
func Load(configFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	v := viper.New()

	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/grkapp/")
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	overrideFromEnv(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "grkapp")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.port", 8080)
	v.SetDefault("app.shutdown_timeout", "15s")

	v.SetDefault("openmeteo.base_url", "https://air-quality-api.open-meteo.com/v1")
	v.SetDefault("openmeteo.timeout", "10s")
	v.SetDefault("openmeteo.past_days", 7)
	v.SetDefault("openmeteo.forecast_days", 2)
	v.SetDefault("openmeteo.rate_limit", 2.0)
	v.SetDefault("openmeteo.rate_burst", 4)

	v.SetDefault("dashboard.refresh_interval", "10m")
	v.SetDefault("dashboard.job_timeout", "1m")
	v.SetDefault("dashboard.timezone", "Asia/Jakarta")
	v.SetDefault("dashboard.period_max_days", entities.DefaultPeriodMaxDays)
	v.SetDefault("dashboard.chart_width", 1000)
	v.SetDefault("dashboard.chart_height", 420)
	v.SetDefault("dashboard.locations", entities.DefaultLocations())

	v.SetDefault("api.base_path", "/api/v1")
	v.SetDefault("api.cors_allowed_origins", []string{"*"})
	v.SetDefault("api.rate_limit", 100)
	v.SetDefault("api.rate_limit_window", "1m")

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"kafka:9092"})
	v.SetDefault("kafka.topic", "grk-snapshots")
	v.SetDefault("kafka.required_acks", 1)
	v.SetDefault("kafka.max_retries", 3)
	v.SetDefault("kafka.timeout", "5s")

	v.SetDefault("minio.enabled", false)
	v.SetDefault("minio.endpoint", "minio:9000")
	v.SetDefault("minio.access_key", "minioadmin")
	v.SetDefault("minio.secret_key", "minioadmin")
	v.SetDefault("minio.use_ssl", false)
	v.SetDefault("minio.region", "")

	v.SetDefault("healthcheck.timeout", "5s")
	v.SetDefault("healthcheck.retry_interval", "2s")
	v.SetDefault("healthcheck.max_retries", 3)
}

func overrideFromEnv(v *viper.Viper) {
	if env := os.Getenv("APP_ENV"); env != "" {
		v.Set("app.env", env)
	}
	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		v.Set("app.log_level", logLevel)
	}
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			v.Set("app.port", p)
		}
	}

	if baseURL := os.Getenv("OPEN_METEO_BASE_URL"); baseURL != "" {
		v.Set("openmeteo.base_url", baseURL)
	}

	if interval := os.Getenv("REFRESH_INTERVAL"); interval != "" {
		v.Set("dashboard.refresh_interval", interval)
	}
	if tz := os.Getenv("DASHBOARD_TIMEZONE"); tz != "" {
		v.Set("dashboard.timezone", tz)
	}

	if enabled := os.Getenv("KAFKA_ENABLED"); enabled != "" {
		v.Set("kafka.enabled", enabled == "true" || enabled == "1")
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		v.Set("kafka.brokers", splitList(brokers))
	}
	if topic := os.Getenv("KAFKA_SNAPSHOT_TOPIC"); topic != "" {
		v.Set("kafka.topic", topic)
	}

	if enabled := os.Getenv("MINIO_ENABLED"); enabled != "" {
		v.Set("minio.enabled", enabled == "true" || enabled == "1")
	}
	if endpoint := os.Getenv("MINIO_ENDPOINT"); endpoint != "" {
		v.Set("minio.endpoint", endpoint)
	}
	if accessKey := os.Getenv("MINIO_ACCESS_KEY"); accessKey != "" {
		v.Set("minio.access_key", accessKey)
	}
	if secretKey := os.Getenv("MINIO_SECRET_KEY"); secretKey != "" {
		v.Set("minio.secret_key", secretKey)
	}
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func validateConfig(cfg *Config) error {
	if cfg.App.Port <= 0 || cfg.App.Port > 65535 {
		return fmt.Errorf("app port %d is out of range", cfg.App.Port)
	}
	if cfg.OpenMeteo.BaseURL == "" {
		return fmt.Errorf("Open-Meteo base URL must not be empty")
	}
	if cfg.OpenMeteo.PastDays < cfg.Dashboard.PeriodMaxDays {
		return fmt.Errorf("openmeteo.past_days (%d) must cover dashboard.period_max_days (%d)",
			cfg.OpenMeteo.PastDays, cfg.Dashboard.PeriodMaxDays)
	}
	if cfg.OpenMeteo.ForecastDays < 1 {
		return fmt.Errorf("openmeteo.forecast_days must be at least 1")
	}

	if cfg.Dashboard.RefreshInterval < time.Second {
		return fmt.Errorf("refresh interval must be at least 1s")
	}
	if cfg.Dashboard.PeriodMaxDays <= 0 {
		return fmt.Errorf("dashboard.period_max_days must be positive")
	}
	if _, err := cfg.Dashboard.Zone(); err != nil {
		return fmt.Errorf("unknown time zone %q: %w", cfg.Dashboard.Timezone, err)
	}
	if _, err := entities.NewCatalog(cfg.Dashboard.Locations); err != nil {
		return err
	}

	if cfg.Kafka.Enabled {
		if len(cfg.Kafka.Brokers) == 0 {
			return fmt.Errorf("Kafka broker list must not be empty")
		}
		if cfg.Kafka.Topic == "" {
			return fmt.Errorf("Kafka topic must not be empty")
		}
	}

	if cfg.Minio.Enabled && cfg.Minio.Endpoint == "" {
		return fmt.Errorf("Minio endpoint must not be empty")
	}

	return nil
}
