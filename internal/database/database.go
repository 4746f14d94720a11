package database

import (
	"context"
	"fmt"
	"time"

	"github.com/straye-as/vendor-portal-api/internal/config"
	"github.com/straye-as/vendor-portal-api/internal/domain"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const healthCheckTimeout = 3 * time.Second

// NewDatabase creates a new database connection
func NewDatabase(cfg *config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	dsn := cfg.ConnectionString()

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
		// Surface unique and foreign key violations as gorm.ErrDuplicatedKey / gorm.ErrForeignKeyViolated
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	// Set connection pool settings
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetimeDuration())

	// Test connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info("Database connection established",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Name),
		zap.Int("max_open_conns", cfg.MaxOpenConns),
	)

	return db, nil
}

// Models lists every persisted entity, in dependency order
func Models() []interface{} {
	return []interface{}{
		&domain.User{},
		&domain.Vendor{},
		&domain.Application{},
		&domain.Lead{},
		&domain.LeadAssignment{},
		&domain.LeadEvent{},
		&domain.PasswordReset{},
		&domain.AuditLog{},
		&domain.VendorDocument{},
		&domain.NumberSequence{},
	}
}

// AutoMigrate runs automatic migrations (for development and tests only;
// deployed databases are migrated with cmd/migrate)
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}

// HealthCheck pings the database
func HealthCheck(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), healthCheckTimeout)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}

// HealthStats is the connection pool snapshot returned by /health/db
type HealthStats struct {
	Status            string `json:"status"`
	OpenConnections   int    `json:"openConnections"`
	InUse             int    `json:"inUse"`
	Idle              int    `json:"idle"`
	MaxOpenConns      int    `json:"maxOpenConnections"`
	WaitCount         int64  `json:"waitCount"`
	WaitDurationMs    int64  `json:"waitDurationMs"`
	MaxIdleClosed     int64  `json:"maxIdleClosed"`
	MaxLifetimeClosed int64  `json:"maxLifetimeClosed"`
	PingLatencyMs     int64  `json:"pingLatencyMs"`
}

// HealthCheckWithStats pings the database and returns pool statistics
func HealthCheckWithStats(db *gorm.DB) (*HealthStats, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), healthCheckTimeout)
	defer cancel()

	start := time.Now()
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	latency := time.Since(start)

	s := sqlDB.Stats()
	return &HealthStats{
		Status:            "healthy",
		OpenConnections:   s.OpenConnections,
		InUse:             s.InUse,
		Idle:              s.Idle,
		MaxOpenConns:      s.MaxOpenConnections,
		WaitCount:         s.WaitCount,
		WaitDurationMs:    s.WaitDuration.Milliseconds(),
		MaxIdleClosed:     s.MaxIdleClosed,
		MaxLifetimeClosed: s.MaxLifetimeClosed,
		PingLatencyMs:     latency.Milliseconds(),
	}, nil
}
