// Package testutil provides a throwaway database plus seed fixtures for
// repo-level tests. Set TEST_POSTGRES_DSN to run against a real postgres;
// otherwise tests fall back to an in-memory sqlite database, which covers
// everything except postgres-only SQL paths.
package testutil

import (
	"context"
	"fmt"
	"os"
	"testing"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	types "github.com/kierolabs/dealdesk-backend/internal/domain"
	"github.com/kierolabs/dealdesk-backend/internal/platform/dbctx"
	"github.com/kierolabs/dealdesk-backend/internal/platform/logger"
)

func allModels() []interface{} {
	return []interface{}{
		&types.Deal{},
		&types.DealDocument{},
		&types.VisualAsset{},
		&types.Extraction{},
		&types.EvidenceSnippet{},
		&types.Claim{},
		&types.JobRun{},
		&types.PromotionRun{},
	}
}

// DB returns a migrated database for one test. Postgres runs get a
// per-test schema so parallel packages don't collide; sqlite runs are
// already isolated by :memory:.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()

	cfg := &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)}

	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		name := fmt.Sprintf("file:%s?mode=memory&cache=shared", RandomSuffix())
		db, err := gorm.Open(sqlite.Open(name), cfg)
		if err != nil {
			tb.Fatalf("open sqlite: %v", err)
		}
		if err := db.AutoMigrate(allModels()...); err != nil {
			tb.Fatalf("migrate sqlite: %v", err)
		}
		tb.Cleanup(func() {
			sqlDB, err := db.DB()
			if err == nil {
				sqlDB.Close()
			}
		})
		return db
	}

	db, err := gorm.Open(postgres.Open(dsn), cfg)
	if err != nil {
		tb.Fatalf("open postgres: %v", err)
	}
	schema := fmt.Sprintf("test_%s", RandomSuffix())
	if err := db.Exec(fmt.Sprintf("CREATE SCHEMA %s", schema)).Error; err != nil {
		tb.Fatalf("create schema: %v", err)
	}
	if err := db.Exec(fmt.Sprintf("SET search_path TO %s", schema)).Error; err != nil {
		tb.Fatalf("set search_path: %v", err)
	}
	if err := db.AutoMigrate(allModels()...); err != nil {
		tb.Fatalf("migrate postgres: %v", err)
	}
	tb.Cleanup(func() {
		db.Exec(fmt.Sprintf("DROP SCHEMA %s CASCADE", schema))
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// Ctx wraps a context for repo calls without an explicit transaction.
func Ctx() dbctx.Context {
	return dbctx.Context{Ctx: context.Background()}
}

// Logger returns a development-mode logger for test wiring.
func Logger(tb testing.TB) *logger.Logger {
	tb.Helper()
	log, err := logger.New("development")
	if err != nil {
		tb.Fatalf("logger: %v", err)
	}
	return log
}
