package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"anoa.com/pencraft/pkg/database"
	"anoa.com/pencraft/pkg/events"
	"anoa.com/pencraft/pkg/storage"
	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv         string
	Port           string
	AllowedOrigins []string

	Database database.Config
	RedisURL string

	JWTSecret string
	JWTTTL    time.Duration

	MeiliSearchHost string
	MeiliMasterKey  string

	Cloudinary storage.CloudinaryConfig

	EventBroker  string
	NATSURL      string
	KafkaBrokers []string
	KafkaTopic   string

	ViewSyncSchedule string
	SeedOnStart      bool

	LogLevel  string
	LogFormat string
}

func Load() (*Config, error) {
	// Don't fail if .env doesn't exist (might be prod env vars)
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:         getEnv("APP_ENV", "development"),
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),

		Database: database.Config{
			Driver:   getEnv("DB_DRIVER", database.DriverPostgres),
			Host:     os.Getenv("DB_HOST"),
			Port:     os.Getenv("DB_PORT"),
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASS"),
			Name:     getEnv("DB_NAME", "pencraft"),
			URL:      os.Getenv("DATABASE_URL"),
		},
		RedisURL: os.Getenv("REDIS_URL"),

		JWTSecret: getEnv("JWT_SECRET", "change-me"),

		MeiliSearchHost: os.Getenv("MEILISEARCH_HOST"),
		MeiliMasterKey:  os.Getenv("MEILI_MASTER_KEY"),

		Cloudinary: storage.CloudinaryConfig{
			URL:        os.Getenv("CLOUDINARY_URL"),
			CloudName:  os.Getenv("CLOUDINARY_CLOUD_NAME"),
			APIKey:     os.Getenv("CLOUDINARY_API_KEY"),
			APISecret:  os.Getenv("CLOUDINARY_API_SECRET"),
			RootFolder: getEnv("CLOUDINARY_UPLOAD_FOLDER", "pencraft"),
		},

		EventBroker:  strings.ToLower(getEnv("EVENT_BROKER", events.BrokerNone)),
		NATSURL:      getEnv("NATS_URL", "nats://localhost:4222"),
		KafkaBrokers: splitList(getEnv("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "pencraft.events"),

		ViewSyncSchedule: getEnv("VIEW_SYNC_SCHEDULE", "@every 1m"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	minutes, err := strconv.Atoi(getEnv("JWT_TTL_MINUTES", "60"))
	if err != nil || minutes <= 0 {
		return nil, fmt.Errorf("invalid JWT_TTL_MINUTES: %q", os.Getenv("JWT_TTL_MINUTES"))
	}
	cfg.JWTTTL = time.Duration(minutes) * time.Minute

	cfg.SeedOnStart, err = strconv.ParseBool(getEnv("SEED_ON_START", strconv.FormatBool(cfg.AppEnv == "development")))
	if err != nil {
		return nil, fmt.Errorf("invalid SEED_ON_START: %w", err)
	}

	switch cfg.Database.Driver {
	case database.DriverPostgres, database.DriverMySQL, database.DriverMemory:
	default:
		return nil, fmt.Errorf("invalid DB_DRIVER: %q", cfg.Database.Driver)
	}

	switch cfg.EventBroker {
	case events.BrokerNone, events.BrokerNATS, events.BrokerKafka:
	default:
		return nil, fmt.Errorf("invalid EVENT_BROKER: %q", cfg.EventBroker)
	}

	if cfg.AppEnv == "production" && cfg.JWTSecret == "change-me" {
		return nil, fmt.Errorf("JWT_SECRET must be set in production")
	}

	return cfg, nil
}

func (c *Config) UsesMemoryStore() bool {
	return c.Database.Driver == database.DriverMemory
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
