package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// BulkWriter copies parsed CSV rows into catalog tables.
type BulkWriter struct {
	pool *pgxpool.Pool
}

func NewBulkWriter(pool *pgxpool.Pool) *BulkWriter {
	return &BulkWriter{pool: pool}
}

// Truncate empties the given tables in one statement.
func (w *BulkWriter) Truncate(ctx context.Context, tables []string) error {
	if len(tables) == 0 {
		return nil
	}

	names := make([]string, 0, len(tables))
	for _, t := range tables {
		names = append(names, pgx.Identifier{t}.Sanitize())
	}

	if _, err := w.pool.Exec(ctx, "TRUNCATE "+strings.Join(names, ", ")); err != nil {
		return fmt.Errorf("truncate %s: %w", strings.Join(tables, ", "), err)
	}
	return nil
}

// CopyBatch inserts rows with COPY inside its own transaction, so a batch is
// either fully committed or not at all.
func (w *BulkWriter) CopyBatch(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	tx, err := w.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin copy into %s: %w", table, err)
	}
	defer tx.Rollback(ctx)

	n, err := tx.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, fmt.Errorf("copy into %s: %w", table, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit copy into %s: %w", table, err)
	}
	return n, nil
}
