// Package dbtest opens throwaway SQLite databases for tests.
package dbtest

import (
	"testing"
	"time"

	"teamhub-backend/internal/domain"
	"teamhub-backend/internal/infrastructure/database"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// Open returns an in-memory database with the full schema. A single
// connection keeps every goroutine on the same memory database.
func Open(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// Procedures returns the in-process procedure surface over db with a fixed clock.
func Procedures(db *gorm.DB, now func() time.Time) *database.TxProcedures {
	return &database.TxProcedures{DB: db, Now: now}
}

// SeedPlan inserts a subscription plan and attaches it to orgID.
func SeedPlan(t *testing.T, db *gorm.DB, orgID string, plan domain.SubscriptionPlan) domain.SubscriptionPlan {
	t.Helper()
	require.NoError(t, db.Create(&plan).Error)
	require.NoError(t, db.Model(&domain.Organization{}).Where("id = ?", orgID).Update("plan_id", plan.ID).Error)
	return plan
}
