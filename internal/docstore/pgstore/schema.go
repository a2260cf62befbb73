package pgstore

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema is the DDL for the document table. The expression index keeps
// equality queries on hot paths (sender id, driver email, human code)
// off a sequential scan.
const Schema = `
CREATE TABLE IF NOT EXISTS documents (
    collection  TEXT        NOT NULL,
    id          TEXT        NOT NULL,
    doc         JSONB       NOT NULL,
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (collection, id)
);

CREATE INDEX IF NOT EXISTS documents_doc_gin ON documents USING gin (doc jsonb_path_ops);
`

// EnsureSchema creates the document table if it does not exist.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("pgstore schema: %w", err)
	}
	return nil
}
