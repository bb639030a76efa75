package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string `env:"PORT,      default=8080"`
	Env       string `env:"ENV,       default=development"`
	JWTSecret string `env:"JWT_SECRET"`
	LogLevel  string `env:"LOG_LEVEL, default=info"`

	// AdminUserID is the singleton admin caller id for the chat surface.
	AdminUserID int64 `env:"ADMIN_USER_ID"`
	// DefaultBalance is the starting balance for lazily created accounts.
	DefaultBalance int64 `env:"DEFAULT_BALANCE, default=5"`
	// DailyGrant is the free-credit top-up applied once per calendar day.
	DailyGrant int64 `env:"DAILY_GRANT, default=10"`
	// SpecialBalance is the sentinel balance for special accounts.
	SpecialBalance int64 `env:"SPECIAL_BALANCE, default=999"`
	// ChargeCost is the price of one paid operation for a normal caller.
	ChargeCost int64 `env:"CHARGE_COST, default=1"`
	// DayTimezone is the time zone that defines calendar-day boundaries for
	// the daily grant and the usage caps alike.
	DayTimezone string `env:"DAY_TZ, default=UTC"`
	// FeatureCaps maps feature tags to their per-day invocation ceiling,
	// e.g. "views:5,exports:2". Features not listed are uncapped.
	FeatureCaps map[string]int64 `env:"FEATURE_CAPS, default=views:5"`
	// Workers is the dispatcher worker pool size.
	Workers int `env:"WORKERS, default=8"`

	Mongo MongoConfig
	Redis RedisConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=credit_engine"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR, default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,   default=0"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return &cfg
}

// DayLocation resolves the configured day-boundary time zone.
func (c *Config) DayLocation() (*time.Location, error) {
	loc, err := time.LoadLocation(c.DayTimezone)
	if err != nil {
		return nil, fmt.Errorf("config: invalid DAY_TZ %q: %w", c.DayTimezone, err)
	}
	return loc, nil
}
