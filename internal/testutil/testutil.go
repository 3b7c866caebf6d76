// Package testutil provides helpers shared by package tests: an in-memory
// database with the full schema and fixtures for users and businesses.
package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/sangkips/receipts-api/internal/clock"
	"github.com/sangkips/receipts-api/internal/config"
	"github.com/sangkips/receipts-api/internal/domain/entity"
	"github.com/sangkips/receipts-api/internal/infrastructure/database"
)

// Epoch is the starting time of every fake clock handed out here
var Epoch = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

// NewDB opens a private in-memory SQLite database, migrates it and wires the
// ORM timestamps to clk.
func NewDB(t *testing.T, clk clock.Clock) *gorm.DB {
	t.Helper()

	cfg := &config.DatabaseConfig{
		Driver:     config.DriverSQLite,
		SQLitePath: fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
	}
	db, err := database.Open(cfg, database.Options{NowFunc: clk.Now}, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db, zap.NewNop()))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// NewClock returns a fake clock set to Epoch
func NewClock() *clock.FakeClock {
	return clock.NewFakeClock(Epoch)
}

// CreateUser inserts a user with a unique email
func CreateUser(t *testing.T, db *gorm.DB, staff bool) *entity.User {
	t.Helper()
	user := &entity.User{
		Email:    uuid.NewString() + "@example.com",
		Password: "not-a-hash",
		IsStaff:  staff,
		IsActive: true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateBusiness inserts a business owned by owner with tax enabled at 10%
func CreateBusiness(t *testing.T, db *gorm.DB, owner *entity.User) *entity.Business {
	t.Helper()
	business := &entity.Business{
		OwnerID:    owner.ID,
		Name:       "Shop of " + owner.Email,
		Currency:   "USD",
		TaxRate:    decimal.RequireFromString("0.1000"),
		TaxEnabled: true,
	}
	require.NoError(t, db.Create(business).Error)
	return business
}

// Dec parses a decimal literal
func Dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// DecPtr parses a decimal literal and returns its address
func DecPtr(s string) *decimal.Decimal {
	d := Dec(s)
	return &d
}

// Ptr returns the address of v
func Ptr[T any](v T) *T {
	return &v
}
