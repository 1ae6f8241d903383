// Package migrate applies the embedded SQL migrations.
package migrate

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/dom/notely/migrations"
)

// Up runs all pending migrations against the database at dsn.
func Up(ctx context.Context, dsn string) error {
	return run(ctx, dsn, goose.UpContext)
}

// Down rolls back the most recent migration.
func Down(ctx context.Context, dsn string) error {
	return run(ctx, dsn, goose.DownContext)
}

// Status prints the applied state of every migration.
func Status(ctx context.Context, dsn string) error {
	return run(ctx, dsn, goose.StatusContext)
}

type gooseCommand func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error

func run(ctx context.Context, dsn string, cmd gooseCommand) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	if err := cmd(ctx, db, "."); err != nil {
		return fmt.Errorf("goose: %w", err)
	}
	return nil
}
