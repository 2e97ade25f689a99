package database

import (
	"log"
	"os"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type PoolConfig struct {
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

type options struct {
	pool     PoolConfig
	logLevel logger.LogLevel
	tracing  bool
}

type Option func(*options)

func WithPool(pool PoolConfig) Option {
	return func(o *options) { o.pool = pool }
}

// WithLogLevel sets the SQL log level. Production should stay at Warn.
func WithLogLevel(level logger.LogLevel) Option {
	return func(o *options) { o.logLevel = level }
}

// WithTracing records a span per query. Query arguments are left out.
func WithTracing(enabled bool) Option {
	return func(o *options) { o.tracing = enabled }
}

func newLogger(level logger.LogLevel) logger.Interface {
	return logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			ParameterizedQueries:      true,
			Colorful:                  true,
		},
	)
}

func NewGormDBFromDSN(dsn string, opts ...Option) (*gorm.DB, error) {
	o := options{
		pool: PoolConfig{
			MaxIdleConns:    10,
			MaxOpenConns:    50,
			ConnMaxLifetime: time.Hour,
		},
		logLevel: logger.Warn,
	}
	for _, opt := range opts {
		opt(&o)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: newLogger(o.logLevel),
	})
	if err != nil {
		return nil, err
	}

	if o.tracing {
		if err := db.Use(otelgorm.NewPlugin(
			otelgorm.WithDBName("postgres"),
			otelgorm.WithoutQueryVariables(),
		)); err != nil {
			return nil, err
		}
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(o.pool.MaxIdleConns)
	sqlDB.SetMaxOpenConns(o.pool.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(o.pool.ConnMaxLifetime)

	return db, nil
}
