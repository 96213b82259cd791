package config

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/vnkhanh/mente-abundante-backend/logger"
	"github.com/vnkhanh/mente-abundante-backend/models"
)

// DSN prefers DATABASE_URL and falls back to the discrete DB_* variables.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode, c.DBTimeZone,
	)
}

// InitDB opens the postgres pool, applies pool limits and migrates the schema.
// The caller owns the returned handle and closes it on shutdown.
func InitDB(cfg *Config, log *logger.Logger) (*gorm.DB, error) {
	level := gormlogger.Warn
	if cfg.DBLogSQL {
		level = gormlogger.Info
	}
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(level),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	if err := AutoMigrate(db); err != nil {
		return nil, err
	}
	log.Info("postgres connected and migrated", "host", cfg.DBHost, "database", cfg.DBName)
	return db, nil
}

// AutoMigrate creates or updates every table the platform uses.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Session{},
		&models.Section{},
		&models.Movie{},
		&models.SectionMovie{},
		&models.Video{},
		&models.MovieStreaming{},
		&models.UserProgress{},
	); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	return nil
}

// CloseDB releases the pool.
func CloseDB(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
