package database

import (
	"strings"
	"time"

	"teamhub-backend/internal/domain"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open opens a GORM DB from DSN. postgres:// URLs (Supabase pooler) use the
// pgx driver; anything else is treated as a SQLite path (local dev, tests).
// PreferSimpleProtocol disables prepared statement caching to avoid 42P05
// ("prepared statement already exists") behind PgBouncer/Supavisor.
func Open(dsn string) (*gorm.DB, error) {
	cfg := &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	}
	if IsPostgres(dsn) {
		return gorm.Open(postgres.New(postgres.Config{
			DSN:                  dsn,
			PreferSimpleProtocol: true,
		}), cfg)
	}
	db, err := gorm.Open(sqlite.Open(strings.TrimPrefix(dsn, "sqlite://")), cfg)
	if err != nil {
		return nil, err
	}
	// one writer; also keeps ":memory:" a single database
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

// IsPostgres reports whether dsn addresses a Postgres server.
func IsPostgres(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

// AutoMigrate creates the tables for SQLite databases. Postgres schemas,
// including the stored procedures, come from RunMigrations instead.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.SubscriptionPlan{},
		&domain.Organization{},
		&domain.Team{},
		&domain.Role{},
		&domain.Membership{},
		&domain.Invitation{},
	)
}

// Prepare brings the schema up to date for the given DSN.
func Prepare(db *gorm.DB, dsn string, runMigrations bool) error {
	if IsPostgres(dsn) {
		if !runMigrations {
			return nil
		}
		return RunMigrations(dsn)
	}
	return AutoMigrate(db)
}

// NewRPC returns the procedure caller matching the DSN: stored functions on
// Postgres, in-process transactions on SQLite.
func NewRPC(db *gorm.DB, dsn string) RPC {
	if IsPostgres(dsn) {
		return &SQLRPC{DB: db}
	}
	return &TxProcedures{DB: db, Now: func() time.Time { return time.Now().UTC() }}
}
