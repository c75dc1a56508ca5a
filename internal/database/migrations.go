package database

import (
	"database/sql"
	"embed"
	"fmt"
	"sync"

	"github.com/pressly/goose/v3"

	"eleanor-server/internal/logging"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// goose keeps its base FS and dialect in package state.
var migrationMu sync.Mutex

// gooseLogger sends goose output through the logging package.
type gooseLogger struct{}

func (gooseLogger) Printf(format string, v ...any) {
	logging.Debug("goose: "+format, v...)
}

func (gooseLogger) Fatalf(format string, v ...any) {
	logging.Fatal("goose: "+format, v...)
}

func migrateUp(db *sql.DB) error {
	migrationMu.Lock()
	defer migrationMu.Unlock()

	goose.SetLogger(gooseLogger{})
	goose.SetBaseFS(migrationFiles)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("error setting goose dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("error running migrations up: %w", err)
	}
	return nil
}
