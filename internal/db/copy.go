package db

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// CopyInto bulk-inserts rows into a table using the PostgreSQL COPY protocol.
// The table name may be schema-qualified.
func CopyInto(ctx context.Context, pool Pool, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	n, err := pool.CopyFrom(ctx, tableIdentifier(table), columns, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, eris.Wrapf(err, "db: COPY INTO %s", table)
	}
	return n, nil
}

// Truncate empties a table ahead of a full reload.
func Truncate(ctx context.Context, pool Pool, table string) error {
	sql := "TRUNCATE " + tableIdentifier(table).Sanitize()
	if _, err := pool.Exec(ctx, sql); err != nil {
		return eris.Wrapf(err, "db: truncate %s", table)
	}
	return nil
}

// tableIdentifier handles schema-qualified table names like "terrain.zones".
func tableIdentifier(table string) pgx.Identifier {
	parts := strings.SplitN(table, ".", 2)
	if len(parts) == 2 {
		return pgx.Identifier{parts[0], parts[1]}
	}
	return pgx.Identifier{table}
}
