package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"distribution/internal/core/domain/services"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"

	LockMemory = "memory"
	LockRedis  = "redis"

	EventsLog    = "log"
	EventsPubSub = "pubsub"
)

type Config struct {
	HTTPPort   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string

	StorageDriver string
	LockDriver    string
	RedisAddress  string

	EventsDriver          string
	PubSubProjectID       string
	PubSubTopic           string
	PubSubCredentialsJSON string

	ReconcileSchedule string
	LowStockSchedule  string

	LogLevel   string
	TuningFile string
}

// LoadConfig reads the environment, after loading .env when one exists.
func LoadConfig() (Config, error) {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("loading .env: %w", err)
	}

	cfg := Config{
		HTTPPort:              envOr("HTTP_PORT", "8080"),
		DBHost:                os.Getenv("DB_HOST"),
		DBPort:                envOr("DB_PORT", "5432"),
		DBUser:                os.Getenv("DB_USER"),
		DBPassword:            os.Getenv("DB_PASSWORD"),
		DBName:                os.Getenv("DB_NAME"),
		DBSslMode:             envOr("DB_SSLMODE", "disable"),
		StorageDriver:         envOr("STORAGE_DRIVER", StoragePostgres),
		LockDriver:            envOr("LOCK_DRIVER", LockMemory),
		RedisAddress:          os.Getenv("REDIS_ADDRESS"),
		EventsDriver:          envOr("EVENTS_DRIVER", EventsLog),
		PubSubProjectID:       os.Getenv("PUBSUB_PROJECT_ID"),
		PubSubTopic:           os.Getenv("PUBSUB_TOPIC"),
		PubSubCredentialsJSON: os.Getenv("PUBSUB_CREDENTIALS_JSON"),
		ReconcileSchedule:     os.Getenv("RECONCILE_SCHEDULE"),
		LowStockSchedule:      os.Getenv("LOW_STOCK_SCHEDULE"),
		LogLevel:              envOr("LOG_LEVEL", "info"),
		TuningFile:            os.Getenv("TUNING_FILE"),
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	var errList []error
	switch c.StorageDriver {
	case StorageMemory:
	case StoragePostgres:
		if c.DBHost == "" || c.DBName == "" {
			errList = append(errList, errors.New("DB_HOST and DB_NAME are required for postgres storage"))
		}
	default:
		errList = append(errList, fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver))
	}

	switch c.LockDriver {
	case LockMemory:
	case LockRedis:
		if c.RedisAddress == "" {
			errList = append(errList, errors.New("REDIS_ADDRESS is required for redis locks"))
		}
	default:
		errList = append(errList, fmt.Errorf("unknown LOCK_DRIVER %q", c.LockDriver))
	}

	switch c.EventsDriver {
	case EventsLog:
	case EventsPubSub:
		if c.PubSubProjectID == "" || c.PubSubTopic == "" {
			errList = append(errList, errors.New("PUBSUB_PROJECT_ID and PUBSUB_TOPIC are required for pubsub events"))
		}
	default:
		errList = append(errList, fmt.Errorf("unknown EVENTS_DRIVER %q", c.EventsDriver))
	}

	return errors.Join(errList...)
}

// DSN builds the postgres connection string.
func (c Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSslMode)
}

func (c Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Tuning holds the weights of the allocation engine and the route sequencer.
type Tuning struct {
	Scoring services.ScoringPolicy `toml:"scoring"`
	Route   services.RoutePolicy   `toml:"route"`
}

func DefaultTuning() Tuning {
	return Tuning{
		Scoring: services.DefaultScoringPolicy(),
		Route:   services.DefaultRoutePolicy(),
	}
}

// LoadTuning overlays the TOML file at path on the defaults. An empty path
// returns the defaults.
func LoadTuning(path string) (Tuning, error) {
	tuning := DefaultTuning()
	if path == "" {
		return tuning, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Tuning{}, fmt.Errorf("reading tuning file: %w", err)
	}
	if _, err = toml.Decode(string(data), &tuning); err != nil {
		return Tuning{}, fmt.Errorf("parsing tuning file: %w", err)
	}
	if err = tuning.Validate(); err != nil {
		return Tuning{}, fmt.Errorf("validating tuning file: %w", err)
	}
	return tuning, nil
}

func (t Tuning) Validate() error {
	var errList []error
	if t.Scoring.DistanceKmPerPoint <= 0 {
		errList = append(errList, errors.New("scoring.distance_km_per_point must be positive"))
	}
	if t.Scoring.StockMaxPoints < 0 {
		errList = append(errList, errors.New("scoring.stock_max_points must not be negative"))
	}
	if t.Route.PriorityFactor < 0 {
		errList = append(errList, errors.New("route.priority_factor must not be negative"))
	}
	if t.Route.MinutesPerKm < 0 {
		errList = append(errList, errors.New("route.minutes_per_km must not be negative"))
	}
	return errors.Join(errList...)
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
