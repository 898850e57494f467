package database

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverMemory   = "memory"
)

type Config struct {
	Driver   string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	URL      string
}

var (
	DB   *gorm.DB
	once sync.Once
)

// Connect opens the shared connection once. Later calls return the same
// handle and error.
func Connect(cfg Config) (*gorm.DB, error) {
	var connErr error
	once.Do(func() {
		dialector, err := Dialector(cfg)
		if err != nil {
			connErr = err
			return
		}

		db, err := gorm.Open(dialector, &gorm.Config{
			TranslateError: true,
			Logger:         logger.Default.LogMode(logger.Warn),
		})
		if err != nil {
			connErr = fmt.Errorf("failed to connect database: %w", err)
			return
		}

		sqlDB, err := db.DB()
		if err != nil {
			connErr = err
			return
		}
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)

		slog.Info("database connected", "driver", cfg.Driver, "host", cfg.Host, "name", cfg.Name)
		DB = db
	})

	if DB == nil && connErr == nil {
		connErr = fmt.Errorf("database connection was not established")
	}
	return DB, connErr
}

// Dialector picks the gorm driver for cfg.Driver.
func Dialector(cfg Config) (gorm.Dialector, error) {
	switch cfg.Driver {
	case DriverPostgres, "":
		dsn := cfg.URL
		if dsn == "" {
			dsn = fmt.Sprintf(
				"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
				valueOrDefault(cfg.Host, "localhost"),
				valueOrDefault(cfg.User, "postgres"),
				cfg.Password,
				valueOrDefault(cfg.Name, "pencraft"),
				valueOrDefault(cfg.Port, "5432"),
			)
		}
		return postgres.Open(dsn), nil
	case DriverMySQL:
		dsn := cfg.URL
		if dsn == "" {
			dsn = fmt.Sprintf(
				"%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
				valueOrDefault(cfg.User, "root"),
				cfg.Password,
				valueOrDefault(cfg.Host, "localhost"),
				valueOrDefault(cfg.Port, "3306"),
				valueOrDefault(cfg.Name, "pencraft"),
			)
		}
		return mysql.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func valueOrDefault(val, fallback string) string {
	if val != "" {
		return val
	}
	return fallback
}
