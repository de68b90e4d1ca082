// Package postgres opens the GORM connection for the relational backend and
// owns its schema.
//
// Example:
//
//	db, err := postgres.Open(postgres.Config{Host: "localhost", Port: "5432", ...}.DSN())
//	if err != nil {
//	    return err
//	}
//	if err = postgres.Migrate(ctx, db); err != nil {
//	    return err
//	}
//	orders := orderrepo.NewGormOrderRepository(db)
//	tasks := taskrepo.NewGormTaskRepository(db)
package postgres

import (
	"context"
	"fmt"
	"time"

	"warehouse/internal/adapters/out/postgres/orderrepo"
	"warehouse/internal/adapters/out/postgres/taskrepo"

	postgresdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Config holds the connection settings.
type Config struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// DSN renders the settings as a libpq keyword/value string.
func (c Config) DSN() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, sslMode)
}

// Open connects with the settings the repositories rely on: driver errors
// translated to gorm sentinels and UTC timestamps.
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgresdriver.Open(dsn), &gorm.Config{
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return db, nil
}

// Models lists every table the service owns.
func Models() []any {
	return []any{
		&orderrepo.OrderDTO{},
		&orderrepo.StatusChangeDTO{},
		&orderrepo.MilestoneDTO{},
		&taskrepo.TaskDTO{},
		&taskrepo.SettlementDTO{},
	}
}

// Migrate creates or updates the schema, including the partial index that
// keeps one active task per order.
func Migrate(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	if err := db.WithContext(ctx).Exec(taskrepo.ActiveTaskIndexSQL).Error; err != nil {
		return fmt.Errorf("create active task index: %w", err)
	}
	return nil
}
