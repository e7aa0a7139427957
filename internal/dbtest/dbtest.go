// Package dbtest opens throwaway sqlite databases and seeds catalog rows for tests.
package dbtest

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"labequip-backend/internal/db"
	"labequip-backend/internal/model"
)

// Open returns a migrated in-memory sqlite database private to the test.
// The pool is pinned to one connection so concurrent goroutines queue instead of
// tripping over sqlite's shared-cache table locks.
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	gormDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)

	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.Migrate(gormDB))
	return gormDB
}

// Catalog seeds the dictionary rows most tests need.
type Catalog struct {
	DB *gorm.DB
	T  *testing.T
}

// Seed is shorthand for a Catalog bound to db.
func Seed(t *testing.T, gormDB *gorm.DB) *Catalog {
	return &Catalog{DB: gormDB, T: t}
}

// Status creates (or reuses) an equipment status with the given code.
func (c *Catalog) Status(code string) model.EquipmentStatus {
	c.T.Helper()
	st := model.EquipmentStatus{Code: code, Name: code}
	require.NoError(c.T, c.DB.Where(model.EquipmentStatus{Code: code}).FirstOrCreate(&st).Error)
	return st
}

// Equipment creates an equipment row with the given total quantity and status code.
func (c *Catalog) Equipment(name string, quantity int, statusCode string) model.Equipment {
	c.T.Helper()
	st := c.Status(statusCode)
	now := time.Now().UTC()
	eq := model.Equipment{
		Name:         name,
		Model:        name + "-M",
		AssetCode:    uuid.NewString(),
		Quantity:     quantity,
		StatusID:     st.ID,
		LaboratoryID: 1,
		CreateTime:   now,
		UpdateTime:   now,
	}
	require.NoError(c.T, c.DB.Create(&eq).Error)
	eq.Status = &st
	return eq
}

// Laboratory creates a laboratory with the given status.
func (c *Catalog) Laboratory(name string, status int) model.Laboratory {
	c.T.Helper()
	now := time.Now().UTC()
	lab := model.Laboratory{
		Name:       name,
		Code:       uuid.NewString(),
		Location:   "Building A",
		Capacity:   30,
		Status:     status,
		CreateTime: now,
		UpdateTime: now,
	}
	require.NoError(c.T, c.DB.Create(&lab).Error)
	return lab
}

// User creates a user with the given role.
func (c *Catalog) User(username, role string) model.User {
	c.T.Helper()
	u := model.User{Username: username, RealName: username + " 同学", Department: "物理系", Role: role}
	require.NoError(c.T, c.DB.Create(&u).Error)
	return u
}
