package loader

import (
	"strings"

	shp "github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ParseShapefile reads a shapefile and returns rows suitable for COPY
// loading: one []any per record matching product.Columns, with a
// WKB-encoded geometry column appended as the final element. Records whose
// geometry cannot be encoded are skipped and counted.
func ParseShapefile(shpPath string, product Product) ([][]any, error) {
	reader, err := shp.Open(shpPath)
	if err != nil {
		return nil, eris.Wrapf(err, "loader: open shapefile %s", shpPath)
	}
	defer func() { _ = reader.Close() }()

	// Build field name → index map. DBF field names are fixed-width and
	// NUL-padded.
	fields := reader.Fields()
	fieldIdx := make(map[string]int, len(fields))
	for i, f := range fields {
		name := strings.TrimRight(f.String(), "\x00")
		fieldIdx[strings.ToLower(name)] = i
	}

	var rows [][]any
	var skipped int

	for reader.Next() {
		_, shape := reader.Shape()

		row := make([]any, 0, len(product.Columns)+1)
		for _, col := range product.Columns {
			idx, ok := fieldIdx[strings.ToLower(col)]
			if !ok {
				row = append(row, nil)
				continue
			}
			val := strings.TrimSpace(strings.TrimRight(reader.Attribute(idx), "\x00"))
			if val == "" {
				row = append(row, nil)
			} else {
				row = append(row, val)
			}
		}

		wkb, encErr := EncodeWKB(shape)
		if encErr != nil || wkb == nil {
			skipped++
			continue
		}
		row = append(row, wkb)

		rows = append(rows, row)
	}

	if skipped > 0 {
		zap.L().Warn("loader: skipped shapefile records",
			zap.String("product", product.Name),
			zap.Int("skipped", skipped),
		)
	}

	return rows, nil
}
