// Package dbtest opens isolated in-memory SQLite databases for tests.
package dbtest

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/oggyb/pahilobhet/internal/db"
)

// Open returns a migrated in-memory database private to t. The pool is
// limited to a single connection so concurrent callers queue instead of
// tripping over SQLite's table locks.
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_", "#", "_", "?", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	database, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		NowFunc:                func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		SkipDefaultTransaction: true,
		TranslateError:         true,
		Logger:                 logger.Discard,
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}

	sqlDB, err := database.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.Migrate(database); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return database
}

// CreateUsers inserts active users named after the given names and returns
// them in the same order.
func CreateUsers(t *testing.T, database *gorm.DB, names ...string) []db.User {
	t.Helper()

	users := make([]db.User, 0, len(names))
	for _, n := range names {
		users = append(users, db.User{
			Name:         n,
			Email:        strings.ToLower(n) + "@test.com",
			PasswordHash: "x",
			Age:          25,
			Active:       true,
		})
	}
	if err := database.Create(&users).Error; err != nil {
		t.Fatalf("failed to create users: %v", err)
	}
	return users
}
