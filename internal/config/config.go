// internal/config/config.go
package config

import (
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Forecast ForecastConfig
	Reorder  ReorderConfig
	Batch    BatchConfig
	Cache    CacheConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

// ForecastConfig carries the modelling policy knobs. The interval multipliers
// and the guardrail tolerance are deliberately configurable rather than
// hard-coded: they are policy, not math.
type ForecastConfig struct {
	SeasonalPeriod     int     // days per seasonal cycle
	MinHistoryDays     int     // absolute floor on usable history
	ACFThreshold       float64 // lag-7 autocorrelation needed to pick the seasonal model
	GuardrailTolerance float64 // max positive price coefficient before neutralization
	ToleranceBand      float64 // backtest success band around actuals
	UpperBoundRatio    float64 // interval bound multipliers, ~85% band
	LowerBoundRatio    float64
	MaxHorizonDays     int
}

type ReorderConfig struct {
	DefaultLeadTimeDays  int
	RecommendedOrderDays int
	DefaultServiceLevel  float64
}

type BatchConfig struct {
	Workers        int
	TimeoutSeconds int
}

type CacheConfig struct {
	Enabled                   bool
	RedisURL                  string
	RedisHost                 string
	RedisPort                 string
	RedisPassword             string
	RedisDB                   int
	RecommendationsTTLSeconds int
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		// Set default values
		viper.SetDefault("SERVER_PORT", "8080")
		viper.SetDefault("SERVER_MODE", "debug")
		viper.SetDefault("SERVER_READ_TIMEOUT", 30)
		viper.SetDefault("SERVER_WRITE_TIMEOUT", 120)
		viper.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
		viper.SetDefault("FORECAST_SEASONAL_PERIOD", 7)
		viper.SetDefault("FORECAST_MIN_HISTORY_DAYS", 14)
		viper.SetDefault("FORECAST_ACF_THRESHOLD", 0.25)
		viper.SetDefault("FORECAST_GUARDRAIL_TOLERANCE", 0.05)
		viper.SetDefault("FORECAST_TOLERANCE_BAND", 0.20)
		viper.SetDefault("FORECAST_UPPER_BOUND_RATIO", 1.15)
		viper.SetDefault("FORECAST_LOWER_BOUND_RATIO", 0.85)
		viper.SetDefault("FORECAST_MAX_HORIZON_DAYS", 90)
		viper.SetDefault("REORDER_DEFAULT_LEAD_TIME_DAYS", 3)
		viper.SetDefault("REORDER_RECOMMENDED_ORDER_DAYS", 14)
		viper.SetDefault("REORDER_DEFAULT_SERVICE_LEVEL", 0.95)
		viper.SetDefault("BATCH_WORKERS", 4)
		viper.SetDefault("BATCH_TIMEOUT_SECONDS", 120)
		viper.SetDefault("CACHE_ENABLED", false)
		viper.SetDefault("REDIS_URL", "")
		viper.SetDefault("REDIS_HOST", "127.0.0.1")
		viper.SetDefault("REDIS_PORT", "6379")
		viper.SetDefault("REDIS_PASSWORD", "")
		viper.SetDefault("REDIS_DB", 0)
		viper.SetDefault("CACHE_RECOMMENDATIONS_TTL_SECONDS", 60)

		// Read from environment variables
		viper.AutomaticEnv()

		instance = &Config{
			Server: ServerConfig{
				Port:           viper.GetString("SERVER_PORT"),
				Mode:           viper.GetString("SERVER_MODE"),
				ReadTimeout:    viper.GetInt("SERVER_READ_TIMEOUT"),
				WriteTimeout:   viper.GetInt("SERVER_WRITE_TIMEOUT"),
				AllowedOrigins: viper.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
			},
			Forecast: ForecastConfig{
				SeasonalPeriod:     viper.GetInt("FORECAST_SEASONAL_PERIOD"),
				MinHistoryDays:     viper.GetInt("FORECAST_MIN_HISTORY_DAYS"),
				ACFThreshold:       viper.GetFloat64("FORECAST_ACF_THRESHOLD"),
				GuardrailTolerance: viper.GetFloat64("FORECAST_GUARDRAIL_TOLERANCE"),
				ToleranceBand:      viper.GetFloat64("FORECAST_TOLERANCE_BAND"),
				UpperBoundRatio:    viper.GetFloat64("FORECAST_UPPER_BOUND_RATIO"),
				LowerBoundRatio:    viper.GetFloat64("FORECAST_LOWER_BOUND_RATIO"),
				MaxHorizonDays:     viper.GetInt("FORECAST_MAX_HORIZON_DAYS"),
			},
			Reorder: ReorderConfig{
				DefaultLeadTimeDays:  viper.GetInt("REORDER_DEFAULT_LEAD_TIME_DAYS"),
				RecommendedOrderDays: viper.GetInt("REORDER_RECOMMENDED_ORDER_DAYS"),
				DefaultServiceLevel:  viper.GetFloat64("REORDER_DEFAULT_SERVICE_LEVEL"),
			},
			Batch: BatchConfig{
				Workers:        viper.GetInt("BATCH_WORKERS"),
				TimeoutSeconds: viper.GetInt("BATCH_TIMEOUT_SECONDS"),
			},
			Cache: CacheConfig{
				Enabled:                   viper.GetBool("CACHE_ENABLED"),
				RedisURL:                  viper.GetString("REDIS_URL"),
				RedisHost:                 viper.GetString("REDIS_HOST"),
				RedisPort:                 viper.GetString("REDIS_PORT"),
				RedisPassword:             viper.GetString("REDIS_PASSWORD"),
				RedisDB:                   viper.GetInt("REDIS_DB"),
				RecommendationsTTLSeconds: viper.GetInt("CACHE_RECOMMENDATIONS_TTL_SECONDS"),
			},
		}
	})

	return instance
}
