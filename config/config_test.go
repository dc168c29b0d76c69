package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irwan019/GrkApp/internal/domain/entities"
)

var envKeys = []string{
	"APP_ENV", "LOG_LEVEL", "PORT", "OPEN_METEO_BASE_URL", "REFRESH_INTERVAL",
	"DASHBOARD_TIMEZONE", "KAFKA_ENABLED", "KAFKA_BROKERS", "KAFKA_SNAPSHOT_TOPIC",
	"MINIO_ENABLED", "MINIO_ENDPOINT", "MINIO_ACCESS_KEY", "MINIO_SECRET_KEY",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	originalDir, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(originalDir) })
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	chdir(t, t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "grkapp", cfg.App.Name)
	assert.Equal(t, 8080, cfg.App.Port)
	assert.Equal(t, "https://air-quality-api.open-meteo.com/v1", cfg.OpenMeteo.BaseURL)
	assert.Equal(t, 7, cfg.OpenMeteo.PastDays)
	assert.Equal(t, 2, cfg.OpenMeteo.ForecastDays)
	assert.Equal(t, 10*time.Minute, cfg.Dashboard.RefreshInterval)
	assert.Equal(t, "Asia/Jakarta", cfg.Dashboard.Timezone)
	assert.Equal(t, entities.DefaultLocations(), cfg.Dashboard.Locations)
	assert.Equal(t, "/api/v1", cfg.API.BasePath)
	assert.False(t, cfg.Kafka.Enabled)
	assert.False(t, cfg.Minio.Enabled)

	zone, err := cfg.Dashboard.Zone()
	require.NoError(t, err)
	_, offset := time.Date(2026, 10, 19, 0, 0, 0, 0, zone).Zone()
	assert.Equal(t, 7*3600, offset)
}

func TestLoad_FromFileAndEnv(t *testing.T) {
	clearEnv(t)

	configContent := `
app:
  name: "grkapp-test"
  env: "test"
  log_level: "debug"
  port: 9090

openmeteo:
  base_url: "http://localhost:1234/v1"
  timeout: "3s"

dashboard:
  refresh_interval: "5m"
  locations:
    - name: "Monas"
      latitude: -6.1754
      longitude: 106.8272
    - name: "Ancol"
      latitude: -6.1225
      longitude: 106.8330

kafka:
  enabled: true
  brokers:
    - "localhost:9092"
  topic: "grk-test"
  required_acks: 1
`

	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.yaml"), []byte(configContent), 0644))
	chdir(t, tmpDir)

	t.Run("load from file", func(t *testing.T) {
		cfg, err := Load("")
		require.NoError(t, err)

		assert.Equal(t, "grkapp-test", cfg.App.Name)
		assert.Equal(t, "debug", cfg.App.LogLevel)
		assert.Equal(t, 9090, cfg.App.Port)
		assert.Equal(t, "http://localhost:1234/v1", cfg.OpenMeteo.BaseURL)
		assert.Equal(t, 3*time.Second, cfg.OpenMeteo.Timeout)
		assert.Equal(t, 5*time.Minute, cfg.Dashboard.RefreshInterval)
		require.Len(t, cfg.Dashboard.Locations, 2)
		assert.Equal(t, "Monas", cfg.Dashboard.Locations[0].Name)
		assert.Equal(t, 106.8330, cfg.Dashboard.Locations[1].Longitude)
		assert.True(t, cfg.Kafka.Enabled)
		assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
		assert.Equal(t, int16(1), cfg.Kafka.RequiredAcks)
	})

	t.Run("override with environment variables", func(t *testing.T) {
		t.Setenv("OPEN_METEO_BASE_URL", "http://env.example/v1")
		t.Setenv("KAFKA_BROKERS", "a:9092, b:9092")
		t.Setenv("REFRESH_INTERVAL", "30s")
		t.Setenv("PORT", "7070")

		cfg, err := Load("")
		require.NoError(t, err)

		assert.Equal(t, "http://env.example/v1", cfg.OpenMeteo.BaseURL)
		assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
		assert.Equal(t, 30*time.Second, cfg.Dashboard.RefreshInterval)
		assert.Equal(t, 7070, cfg.App.Port)
	})

	t.Run("explicit file path", func(t *testing.T) {
		other := filepath.Join(t.TempDir(), "other.yaml")
		require.NoError(t, os.WriteFile(other, []byte("app:\n  name: other\n"), 0644))

		cfg, err := Load(other)
		require.NoError(t, err)
		assert.Equal(t, "other", cfg.App.Name)
	})

	t.Run("missing explicit file", func(t *testing.T) {
		_, err := Load(filepath.Join(tmpDir, "nope.yaml"))
		assert.Error(t, err)
	})
}

func TestValidateConfig(t *testing.T) {
	valid := func() *Config {
		return &Config{
			App:       AppConfig{Port: 8080},
			OpenMeteo: OpenMeteoConfig{BaseURL: "http://x", PastDays: 7, ForecastDays: 2},
			Dashboard: DashboardConfig{
				RefreshInterval: 10 * time.Minute,
				Timezone:        "Asia/Jakarta",
				PeriodMaxDays:   7,
				Locations:       entities.DefaultLocations(),
			},
		}
	}

	testCases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"bad port", func(c *Config) { c.App.Port = 0 }, "out of range"},
		{"empty base url", func(c *Config) { c.OpenMeteo.BaseURL = "" }, "base URL must not be empty"},
		{"history shorter than period", func(c *Config) { c.OpenMeteo.PastDays = 3 }, "must cover dashboard.period_max_days"},
		{"no forecast", func(c *Config) { c.OpenMeteo.ForecastDays = 0 }, "forecast_days"},
		{"short interval", func(c *Config) { c.Dashboard.RefreshInterval = time.Millisecond }, "at least 1s"},
		{"unknown zone", func(c *Config) { c.Dashboard.Timezone = "Mars/Olympus" }, "unknown time zone"},
		{"no locations", func(c *Config) { c.Dashboard.Locations = nil }, "at least one location"},
		{"kafka without brokers", func(c *Config) { c.Kafka = KafkaConfig{Enabled: true, Topic: "t"} }, "broker list"},
		{"kafka without topic", func(c *Config) { c.Kafka = KafkaConfig{Enabled: true, Brokers: []string{"b"}} }, "topic"},
		{"minio without endpoint", func(c *Config) { c.Minio = MinioConfig{Enabled: true} }, "Minio endpoint"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(cfg)
			err := validateConfig(cfg)
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}
