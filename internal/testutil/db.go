// Package testutil 提供测试用的数据库夹具。
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"taskmanager/internal/config"
	"taskmanager/internal/store"

	"github.com/DATA-DOG/go-sqlmock"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// NewSQLite 在临时目录中打开已建表的 SQLite 数据库，测试结束时自动关闭。
func NewSQLite(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := store.Open(config.DatabaseConfig{
		Driver: config.DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "tasks.db"),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(db); err != nil {
			t.Errorf("close sqlite: %v", err)
		}
	})
	if err := store.Migrate(context.Background(), db, nil); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// NewMock 返回基于 sqlmock、使用 MySQL 方言的 gorm 连接。
func NewMock(t testing.TB) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	db, err := store.OpenDialector(mysql.New(mysql.Config{
		Conn:                      conn,
		SkipInitializeWithVersion: true,
	}))
	if err != nil {
		t.Fatalf("open mock: %v", err)
	}
	return db, mock
}
