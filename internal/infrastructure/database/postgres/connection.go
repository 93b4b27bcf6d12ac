package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"robot-dispatch/internal/config"
	"robot-dispatch/internal/infrastructure/database/postgres/models"
	"robot-dispatch/internal/logger"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

const uniqueViolation = "23505"

type DB struct {
	*gorm.DB
}

func NewDB(cfg *config.Config) (*DB, error) {
	db, err := Open(postgres.Open(cfg.Database.DSN()), cfg.Server.Environment)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB.DB()
	if err != nil {
		return nil, fmt.Errorf("error getting sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}

	logger.Info("Database connection established",
		zap.String("host", cfg.Database.Host),
		zap.String("database", cfg.Database.DBName),
		zap.Int("max_open_connections", 25),
		zap.Int("max_idle_connections", 5),
	)

	return db, nil
}

// Open wraps any gorm dialector; tests pass the sqlite one.
func Open(dialector gorm.Dialector, environment string) (*DB, error) {
	gormLogLevel := gormLogger.Info
	switch environment {
	case "production":
		gormLogLevel = gormLogger.Warn
	case "test":
		gormLogLevel = gormLogger.Silent
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormLogger.Default.LogMode(gormLogLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	return &DB{DB: db}, nil
}

// AutoMigrate creates or updates the tables from the gorm models.
func (d *DB) AutoMigrate() error {
	return d.DB.AutoMigrate(
		&models.UserModel{},
		&models.NodeModel{},
		&models.RobotModel{},
		&models.OrderModel{},
	)
}

// WithTx runs fn inside a transaction, rolling back on error or panic.
func (d *DB) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	tx := d.DB.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit().Error
}

func (d *DB) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (d *DB) Health() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
