// Package testutil provides an in-memory database for package tests.
package testutil

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"listify_echo/internal/models"
)

// NewDB returns a migrated SQLite database private to the calling test.
// A single connection is used, so queries inside a transaction must go through tx.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	return db
}

// CreateUser inserts a user with the given username and a derived email
func CreateUser(t testing.TB, db *gorm.DB, username string) *models.User {
	t.Helper()
	u := &models.User{Username: username, Email: username + "@example.com"}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return u
}

// CreateGroup inserts a group and attaches members in order; the first becomes admin
func CreateGroup(t testing.TB, db *gorm.DB, name string, members ...*models.User) *models.Group {
	t.Helper()
	g := &models.Group{Name: name, JoinCode: strings.ToUpper(uuid.NewString()[:6])}
	if err := db.Create(g).Error; err != nil {
		t.Fatalf("create group %s: %v", name, err)
	}
	for i, m := range members {
		perm := models.PermissionMember
		if i == 0 {
			perm = models.PermissionAdmin
		}
		m.GroupID = &g.ID
		m.Permission = perm
		if err := db.Model(m).Updates(map[string]interface{}{"group_id": g.ID, "permission": perm}).Error; err != nil {
			t.Fatalf("add %s to group: %v", m.Username, err)
		}
	}
	return g
}

// CreateDebt inserts a debt row directly
func CreateDebt(t testing.TB, db *gorm.DB, from, to *models.User, amount float64) *models.Debt {
	t.Helper()
	d := &models.Debt{FromUserID: from.ID, ToUserID: to.ID, Amount: amount, Reason: "test", GroupID: from.GroupID}
	if err := db.Create(d).Error; err != nil {
		t.Fatalf("create debt: %v", err)
	}
	return d
}
