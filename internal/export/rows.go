// Package export runs the one-shot export pipeline: compile per-layer
// queries, fan them out against PostGIS, and assemble the GeoJSON or KML
// output document.
package export

import (
	"context"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"

	"github.com/snowline-maps/terrain-export/internal/db"
	"github.com/snowline-maps/terrain-export/internal/layer"
)

// RawRow is one database row keyed by column name.
type RawRow map[string]any

// LayerResult pairs a compiled query with its materialized rows.
type LayerResult struct {
	Query layer.CompiledQuery
	Rows  []RawRow
}

// FetchLayer executes one compiled query and materializes its rows.
func FetchLayer(ctx context.Context, pool db.Pool, q layer.CompiledQuery) ([]RawRow, error) {
	rows, err := pool.Query(ctx, q.SQL, q.Args...)
	if err != nil {
		return nil, eris.Wrapf(err, "export: query layer %s", q.Table)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	var out []RawRow
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, eris.Wrapf(err, "export: read row for %s", q.Table)
		}
		m := make(RawRow, len(fields))
		for i, fd := range fields {
			m[fd.Name] = vals[i]
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrapf(err, "export: iterate rows for %s", q.Table)
	}
	return out, nil
}

// FetchAll runs every layer query concurrently and joins on an
// all-or-nothing barrier: any failure cancels the siblings and fails the
// whole export. Results keep the input query order.
func FetchAll(ctx context.Context, pool db.Pool, queries []layer.CompiledQuery) ([]LayerResult, error) {
	results := make([]LayerResult, len(queries))

	g, gctx := errgroup.WithContext(ctx)
	for i, q := range queries {
		g.Go(func() error {
			rows, err := FetchLayer(gctx, pool, q)
			if err != nil {
				return err
			}
			results[i] = LayerResult{Query: q, Rows: rows}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
