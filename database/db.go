package database

import (
	"fmt"
	"time"

	"webhook-service/config"
	"webhook-service/models"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const connectAttempts = 10

// Dialector picks the gorm driver configured by DB_DRIVER.
func Dialector(cfg *config.Config) (gorm.Dialector, error) {
	switch cfg.DBDriver {
	case config.DriverPostgres:
		return postgres.Open(cfg.PostgresDSN()), nil
	case config.DriverSQLite:
		// busy_timeout lets concurrent movers wait for the write lock
		return sqlite.Open(cfg.SQLitePath + "?_busy_timeout=5000&_journal_mode=WAL"), nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
}

// Connect opens the database with retries and configures the pool.
func Connect(cfg *config.Config, logger *zap.Logger) (*gorm.DB, error) {
	dialector, err := Dialector(cfg)
	if err != nil {
		return nil, err
	}

	gormCfg := &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Warn)}

	var db *gorm.DB
	for i := 0; i < connectAttempts; i++ {
		db, err = gorm.Open(dialector, gormCfg)
		if err == nil {
			sqlDB, poolErr := db.DB()
			if poolErr == nil {
				if cfg.DBDriver == config.DriverSQLite {
					sqlDB.SetMaxOpenConns(1)
				} else {
					sqlDB.SetMaxOpenConns(25)
					sqlDB.SetMaxIdleConns(5)
					sqlDB.SetConnMaxLifetime(5 * time.Minute)
				}
			}
			logger.Info("Connected to database", zap.String("driver", cfg.DBDriver))
			return db, nil
		}

		logger.Warn("DB connection failed, retrying",
			zap.Int("attempt", i+1),
			zap.Error(err),
		)
		time.Sleep(time.Duration(i+1) * 2 * time.Second)
	}

	return nil, fmt.Errorf("failed to connect to %s after retries: %w", cfg.DBDriver, err)
}

// Migrate creates the pending, confirmed and cancelled tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.PendingPayment{}); err != nil {
		return fmt.Errorf("migrate pending: %w", err)
	}
	for _, dest := range []models.Destination{models.DestinationConfirmed, models.DestinationCancelled} {
		if err := db.Table(dest.TableName()).AutoMigrate(&models.SettledPayment{}); err != nil {
			return fmt.Errorf("migrate %s: %w", dest, err)
		}
	}
	return nil
}

func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	return sqlDB.Close()
}
