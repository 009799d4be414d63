package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

//go:embed mysql/*.sql postgres/*.sql
var files embed.FS

// Up applies all pending migrations for dialect ("mysql" or "postgres").
func Up(ctx context.Context, db *sql.DB, dialect string) error {
	switch dialect {
	case "mysql", "postgres":
	default:
		return fmt.Errorf("unsupported migration dialect: %s", dialect)
	}
	goose.SetBaseFS(files)
	if err := goose.SetDialect(dialect); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, db, dialect); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}
