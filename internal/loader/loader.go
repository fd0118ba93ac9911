package loader

import (
	"context"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/snowline-maps/terrain-export/internal/db"
)

const defaultBatchSize = 10000

// Options configures one shapefile load.
type Options struct {
	Table     string // product/table name
	Path      string // path to the .shp file
	AreaID    int    // when > 0, overrides the area_id attribute for every record
	Replace   bool   // truncate the table before loading
	BatchSize int    // COPY batch size (default 10,000)
}

// Load parses the shapefile and bulk-loads it into the product's table.
// Returns the number of rows written.
func Load(ctx context.Context, pool db.Pool, opts Options) (int64, error) {
	product, ok := ProductByName(opts.Table)
	if !ok {
		return 0, eris.Errorf("loader: unknown layer table %q", opts.Table)
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}

	log := zap.L().With(
		zap.String("component", "loader"),
		zap.String("table", product.Table),
		zap.String("shapefile", opts.Path),
	)
	start := time.Now()

	rows, err := ParseShapefile(opts.Path, product)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, eris.Errorf("loader: shapefile %s produced no loadable rows", opts.Path)
	}

	if opts.AreaID > 0 {
		idx := columnIndex(product.Columns, "area_id")
		if idx < 0 {
			return 0, eris.Errorf("loader: table %q has no area_id column to override", product.Table)
		}
		area := strconv.Itoa(opts.AreaID)
		for _, row := range rows {
			row[idx] = area
		}
	}

	if opts.Replace {
		if err := db.Truncate(ctx, pool, product.Table); err != nil {
			return 0, err
		}
	}

	columns := append(append([]string{}, product.Columns...), "geom")

	var total int64
	for offset := 0; offset < len(rows); offset += opts.BatchSize {
		end := offset + opts.BatchSize
		if end > len(rows) {
			end = len(rows)
		}
		n, err := db.CopyInto(ctx, pool, product.Table, columns, rows[offset:end])
		if err != nil {
			return total, err
		}
		total += n
	}

	log.Info("loaded shapefile",
		zap.Int64("rows", total),
		zap.Duration("elapsed", time.Since(start)),
	)
	return total, nil
}

func columnIndex(columns []string, name string) int {
	for i, c := range columns {
		if c == name {
			return i
		}
	}
	return -1
}
