package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	FileName  = "flightplanner.cfg.json"
	EnvPrefix = "FLIGHTPLANNER"
)

// MemoryConfig holds plan export settings
type MemoryConfig struct {
	OutputDir      string `json:"outputDir" mapstructure:"outputDir"`
	CompressOutput bool   `json:"compressOutput" mapstructure:"compressOutput"`
	Format         string `json:"format" mapstructure:"format"` // json or msgpack
}

// WebSocketConfig holds live plan streaming settings
type WebSocketConfig struct {
	URL    string `json:"url" mapstructure:"url"`
	Secret string `json:"secret" mapstructure:"secret"`
}

// StorageConfig selects where saved and updated plans go
type StorageConfig struct {
	Type      string          `json:"type" mapstructure:"type"` // memory, gorm, websocket, none
	Memory    MemoryConfig    `json:"memory" mapstructure:"memory"`
	WebSocket WebSocketConfig `json:"websocket" mapstructure:"websocket"`
}

// OTelConfig holds OpenTelemetry settings
type OTelConfig struct {
	Enabled        bool          `json:"enabled" mapstructure:"enabled"`
	ServiceName    string        `json:"serviceName" mapstructure:"serviceName"`
	BatchTimeout   time.Duration `json:"batchTimeout" mapstructure:"batchTimeout"`
	MetricInterval time.Duration `json:"metricInterval" mapstructure:"metricInterval"`
	Endpoint       string        `json:"endpoint" mapstructure:"endpoint"`
	Insecure       bool          `json:"insecure" mapstructure:"insecure"`
}

// PlanDefaults are the inputs of a freshly reset plan
type PlanDefaults struct {
	Speed    float64 `json:"defaultSpeed" mapstructure:"defaultSpeed"`
	Altitude float64 `json:"defaultAltitude" mapstructure:"defaultAltitude"`
}

// Load reads configuration from the JSON file in configDir, an optional .env
// next to it and FLIGHTPLANNER_* environment variables, over the defaults.
func Load(configDir string) error {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./logs")

	viper.SetDefault("http.listen", ":8080")

	viper.SetDefault("plan.defaultSpeed", 250)
	viper.SetDefault("plan.defaultAltitude", 30000)

	viper.SetDefault("refdata.airports", "./data/airports.geojson")
	viper.SetDefault("refdata.navaids", "./data/navaids.geojson")
	viper.SetDefault("refdata.cacheTTL", "1h")

	viper.SetDefault("db.enabled", false)
	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "flightplanner")
	viper.SetDefault("db.sqlitePath", "./flightplanner.db")

	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.memory.outputDir", "./plans")
	viper.SetDefault("storage.memory.compressOutput", false)
	viper.SetDefault("storage.memory.format", "json")
	viper.SetDefault("storage.websocket.url", "")
	viper.SetDefault("storage.websocket.secret", "")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "")
	viper.SetDefault("influx.org", "flightplanner")
	viper.SetDefault("influx.bucket", "plans")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "flightplanner")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.metricInterval", "1m")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)

	if err := godotenv.Load(filepath.Join(configDir, ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("error reading .env file: %w", err)
	}

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}

	return nil
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetDuration returns a duration config value such as "5s".
func GetDuration(key string) time.Duration {
	return viper.GetDuration(key)
}

// GetStorageConfig returns the plan storage settings.
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type: viper.GetString("storage.type"),
		Memory: MemoryConfig{
			OutputDir:      viper.GetString("storage.memory.outputDir"),
			CompressOutput: viper.GetBool("storage.memory.compressOutput"),
			Format:         viper.GetString("storage.memory.format"),
		},
		WebSocket: WebSocketConfig{
			URL:    viper.GetString("storage.websocket.url"),
			Secret: viper.GetString("storage.websocket.secret"),
		},
	}
}

// GetOTelConfig returns the OpenTelemetry settings.
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:        viper.GetBool("otel.enabled"),
		ServiceName:    viper.GetString("otel.serviceName"),
		BatchTimeout:   viper.GetDuration("otel.batchTimeout"),
		MetricInterval: viper.GetDuration("otel.metricInterval"),
		Endpoint:       viper.GetString("otel.endpoint"),
		Insecure:       viper.GetBool("otel.insecure"),
	}
}

// GetPlanDefaults returns the speed and altitude of a new plan.
func GetPlanDefaults() PlanDefaults {
	return PlanDefaults{
		Speed:    viper.GetFloat64("plan.defaultSpeed"),
		Altitude: viper.GetFloat64("plan.defaultAltitude"),
	}
}
