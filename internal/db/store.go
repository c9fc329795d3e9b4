package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shyamsivadas/event-lens/internal/db/queries"
)

// WithTx runs fn within a transaction. SQLite transactions take the write lock on BEGIN.
func (c *Database) WithTx(ctx context.Context, fn func(*queries.Queries) error) error {
	tx, err := c.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	q := queries.New(newInstrumentedDBTX(tx, c.dialect, c.tracker))
	if err := fn(q); err != nil {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			return fmt.Errorf("rollback after %v: %w", err, rollbackErr)
		}
		return err
	}
	return tx.Commit()
}

// Ping verifies the connection is alive.
func (c *Database) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}
