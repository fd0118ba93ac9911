package layer

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

// CompiledQuery is the only artifact handed to the row-fetching side: SQL
// text with the area id bound positionally, never interpolated.
type CompiledQuery struct {
	Table       string
	DisplayName string
	SQL         string
	Args        []any
}

// Compile turns a layer spec into a parameterized query for one area. Table
// and column identifiers come exclusively from the fixed registry; the area
// id is the single bind parameter.
func Compile(spec Spec, areaID int) (CompiledQuery, error) {
	if spec.Warnings != nil {
		return compileJoined(spec, areaID)
	}

	cols := strings.Join(spec.Columns, ", ")

	if spec.GeometryColumn == "" {
		return CompiledQuery{
			Table:       spec.Table,
			DisplayName: spec.DisplayName,
			SQL:         fmt.Sprintf("SELECT %s FROM %s WHERE %s", cols, spec.Table, spec.Filter),
			Args:        []any{areaID},
		}, nil
	}

	xform, err := spec.Format.transform()
	if err != nil {
		return CompiledQuery{}, err
	}

	var sel string
	if spec.IncludeBBox {
		sel = fmt.Sprintf("%s(%s) AS geometry, %s(ST_Envelope(%s)) AS bounding_box, %s",
			xform, spec.GeometryColumn, xform, spec.GeometryColumn, cols)
	} else {
		sel = fmt.Sprintf("%s(%s) AS geometry, %s", xform, spec.GeometryColumn, cols)
	}

	return CompiledQuery{
		Table:       spec.Table,
		DisplayName: spec.DisplayName,
		SQL:         fmt.Sprintf("SELECT %s FROM %s WHERE %s", sel, spec.Table, spec.Filter),
		Args:        []any{areaID},
	}, nil
}

// compileJoined produces the single decision-points + warnings query. The
// geometry transform is selected once, from whichever side carries geometry;
// both layers' columns are qualified by table name.
func compileJoined(spec Spec, areaID int) (CompiledQuery, error) {
	sub := spec.Warnings
	if sub.JoinOn == "" {
		return CompiledQuery{}, eris.Errorf("layer: joined layer %s has no ON predicate", sub.Table)
	}

	geomTable, geomCol := spec.Table, spec.GeometryColumn
	if geomCol == "" {
		geomTable, geomCol = sub.Table, sub.GeometryColumn
	}
	if geomCol == "" {
		return CompiledQuery{}, eris.Errorf("layer: joined query for %s has no geometry column", spec.Table)
	}

	xform, err := spec.Format.transform()
	if err != nil {
		return CompiledQuery{}, err
	}

	var cols []string
	for _, c := range spec.Columns {
		cols = append(cols, spec.Table+"."+c)
	}
	for _, c := range sub.Columns {
		cols = append(cols, sub.Table+"."+c)
	}

	sql := fmt.Sprintf("SELECT %s(%s.%s) AS geometry, %s FROM %s JOIN %s ON %s WHERE %s.%s",
		xform, geomTable, geomCol,
		strings.Join(cols, ", "),
		spec.Table, sub.Table, sub.JoinOn,
		spec.Table, spec.Filter)

	return CompiledQuery{
		Table:       spec.Table,
		DisplayName: spec.DisplayName,
		SQL:         sql,
		Args:        []any{areaID},
	}, nil
}
