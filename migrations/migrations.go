// Package migrations embeds the catalog schema.
package migrations

import (
	"context"
	"embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed *.sql
var files embed.FS

func Up(ctx context.Context, pool *pgxpool.Pool) error {
	return run(ctx, pool, "create_tables.up.sql")
}

func Down(ctx context.Context, pool *pgxpool.Pool) error {
	return run(ctx, pool, "create_tables.down.sql")
}

func run(ctx context.Context, pool *pgxpool.Pool, name string) error {
	sql, err := files.ReadFile(name)
	if err != nil {
		return fmt.Errorf("read migration file %s: %w", name, err)
	}
	if _, err := pool.Exec(ctx, string(sql)); err != nil {
		return fmt.Errorf("execute migration %s: %w", name, err)
	}
	return nil
}
