// Package store 负责建立数据库连接并在启动时幂等地创建表结构。
package store

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"taskmanager/internal/config"
	"taskmanager/internal/model"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// Open 按配置的驱动打开数据库连接。
//
// 返回的 *gorm.DB 是进程级共享的连接池，由调用方显式传递给各组件。
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case config.DriverMySQL:
		dialector = mysql.Open(cfg.DSN)
	case config.DriverSQLite, "":
		dialector = sqlite.Open(sqliteDSN(cfg.DSN))
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
	return OpenDialector(dialector)
}

// OpenDialector 使用给定的 Dialector 打开连接，测试中可传入 sqlmock 连接。
func OpenDialector(dialector gorm.Dialector) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 gormLogger.Default.LogMode(gormLogger.Silent), // 关闭GORM调试日志
		SkipDefaultTransaction: true,                                          // 每个操作都是单条语句
		TranslateError:         true,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return db, nil
}

// sqliteDSN 打开外键约束，与 taskList.userId 的 REFERENCES 保持一致。
func sqliteDSN(dsn string) string {
	const pragma = "_pragma=foreign_keys(1)"
	if strings.Contains(dsn, "?") {
		return dsn + "&" + pragma
	}
	return dsn + "?" + pragma
}

// Migrate 检查 userDetails 与 taskList 是否存在，不存在则创建。
func Migrate(ctx context.Context, db *gorm.DB, logger *slog.Logger) error {
	tables := []struct {
		name  string
		model any
	}{
		{name: model.User{}.TableName(), model: &model.User{}},
		{name: model.Task{}.TableName(), model: &model.Task{}},
	}

	migrator := db.WithContext(ctx).Migrator()
	for _, t := range tables {
		if migrator.HasTable(t.model) {
			if logger != nil {
				logger.Info("table already exists", slog.String("table", t.name))
			}
			continue
		}
		if err := migrator.CreateTable(t.model); err != nil {
			return fmt.Errorf("create table %s: %w", t.name, err)
		}
		if logger != nil {
			logger.Info("table created", slog.String("table", t.name))
		}
	}
	return nil
}

// Ping 检查数据库是否可用。
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close 关闭底层连接池。
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
