package loader

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jackc/pgx/v5"
	shp "github.com/jonas-p/go-shp"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTestShapefile creates a points_of_interest shapefile with two records.
func writeTestShapefile(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "poi.shp")

	w, err := shp.Create(path, shp.POINT)
	require.NoError(t, err)

	require.NoError(t, w.SetFields([]shp.Field{
		shp.StringField("AREA_ID", 10),
		shp.StringField("NAME", 64),
		shp.StringField("TYPE", 32),
		shp.StringField("COMMENTS", 128),
	}))

	points := []struct {
		x, y              float64
		name, typ, commnt string
	}{
		{-120.2, 49.6, "Cache", "Rescue Cache", ""},
		{-120.3, 49.7, "Lookout", "Viewpoint", "summer access"},
	}
	for i, p := range points {
		_ = w.Write(&shp.Point{X: p.x, Y: p.y})
		require.NoError(t, w.WriteAttribute(i, 0, "1"))
		require.NoError(t, w.WriteAttribute(i, 1, p.name))
		require.NoError(t, w.WriteAttribute(i, 2, p.typ))
		require.NoError(t, w.WriteAttribute(i, 3, p.commnt))
	}
	w.Close()

	// go-shp derives the companion file names by stripping ".shp", which
	// leaves the attribute file at "poidbf"; the reader expects "poi.dbf".
	require.NoError(t, os.Rename(filepath.Join(dir, "poidbf"), filepath.Join(dir, "poi.dbf")))
	return path
}

func TestParseShapefile(t *testing.T) {
	path := writeTestShapefile(t, t.TempDir())
	product, ok := ProductByName("points_of_interest")
	require.True(t, ok)

	rows, err := ParseShapefile(path, product)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	// area_id, name, type, comments, geom
	require.Len(t, rows[0], 5)
	assert.Equal(t, "1", rows[0][0])
	assert.Equal(t, "Cache", rows[0][1])
	assert.Equal(t, "Rescue Cache", rows[0][2])
	assert.Nil(t, rows[0][3], "empty DBF attribute loads as NULL")
	assert.NotEmpty(t, rows[0][4])

	assert.Equal(t, "summer access", rows[1][3])
}

func TestParseShapefile_MissingFile(t *testing.T) {
	product, _ := ProductByName("zones")
	_, err := ParseShapefile("/nonexistent/zones.shp", product)
	require.Error(t, err)
}

func TestLoad(t *testing.T) {
	path := writeTestShapefile(t, t.TempDir())

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(
		pgx.Identifier{"points_of_interest"},
		[]string{"area_id", "name", "type", "comments", "geom"},
	).WillReturnResult(2)

	n, err := Load(context.Background(), mock, Options{
		Table: "points_of_interest",
		Path:  path,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLoad_AreaOverrideAndReplace(t *testing.T) {
	path := writeTestShapefile(t, t.TempDir())

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("TRUNCATE").
		WillReturnResult(pgxmock.NewResult("TRUNCATE", 0))
	mock.ExpectCopyFrom(
		pgx.Identifier{"points_of_interest"},
		[]string{"area_id", "name", "type", "comments", "geom"},
	).WillReturnResult(2)

	n, err := Load(context.Background(), mock, Options{
		Table:   "points_of_interest",
		Path:    path,
		AreaID:  357,
		Replace: true,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLoad_Batching(t *testing.T) {
	path := writeTestShapefile(t, t.TempDir())

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	// Two rows with BatchSize 1 means two COPY round trips.
	for i := 0; i < 2; i++ {
		mock.ExpectCopyFrom(
			pgx.Identifier{"points_of_interest"},
			[]string{"area_id", "name", "type", "comments", "geom"},
		).WillReturnResult(1)
	}

	n, err := Load(context.Background(), mock, Options{
		Table:     "points_of_interest",
		Path:      path,
		BatchSize: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLoad_UnknownTable(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	_, err = Load(context.Background(), mock, Options{Table: "glaciers", Path: "x.shp"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown layer table")
}

func TestProducts_AllCarryAreaID(t *testing.T) {
	for _, p := range Products {
		assert.Equal(t, "area_id", p.Columns[0], p.Name)
		_, ok := ProductByName(p.Name)
		assert.True(t, ok)
	}
	_, ok := ProductByName("areas")
	assert.False(t, ok, "areas is managed by hand, never bulk-loaded")
}
