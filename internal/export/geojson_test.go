package export

import (
	"encoding/json"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeatureFromRow(t *testing.T) {
	row := RawRow{
		"geometry": `{"type":"Point","coordinates":[-120.1,49.5]}`,
		"name":     "Marmot Basin",
		"type":     "Rescue Cache",
	}

	f, err := FeatureFromRow("points_of_interest", row)
	require.NoError(t, err)

	assert.Equal(t, "Feature", f.Type)
	require.NotNil(t, f.Geometry)
	assert.Equal(t, orb.Point{-120.1, 49.5}, f.Geometry.Geometry())
	assert.Nil(t, f.BoundingBox)

	// Categorical types are slugged; the source table is injected.
	assert.Equal(t, "rescue-cache", f.Properties["type"])
	assert.Equal(t, "points_of_interest", f.Properties["table"])
	assert.Equal(t, "Marmot Basin", f.Properties["name"])
}

func TestFeatureFromRow_BoundingBoxHoisted(t *testing.T) {
	row := RawRow{
		"geometry":     `{"type":"Polygon","coordinates":[[[-120,49],[-119,49],[-119,50],[-120,49]]]}`,
		"bounding_box": `{"type":"Polygon","coordinates":[[[-120,49],[-119,49],[-119,50],[-120,50],[-120,49]]]}`,
		"name":         "Bow Summit",
	}

	f, err := FeatureFromRow("areas", row)
	require.NoError(t, err)

	require.NotNil(t, f.BoundingBox)
	assert.Equal(t, "Polygon", f.BoundingBox.Type)

	// The bounding box lives beside the geometry, not in properties.
	_, ok := f.Properties["bounding_box"]
	assert.False(t, ok)

	out, err := json.Marshal(f)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"boundingBox"`)
}

func TestFeatureFromRow_BoundingBoxOmittedWhenAbsent(t *testing.T) {
	f, err := FeatureFromRow("zones", RawRow{
		"geometry": `{"type":"Point","coordinates":[0,0]}`,
	})
	require.NoError(t, err)

	out, err := json.Marshal(f)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "boundingBox")
}

func TestFeatureFromRow_NonCategoricalTypePassedThrough(t *testing.T) {
	f, err := FeatureFromRow("zones", RawRow{
		"geometry": `{"type":"Point","coordinates":[0,0]}`,
		"type":     3,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, f.Properties["type"])
}

func TestFeatureFromRow_GeometryErrors(t *testing.T) {
	// An ST_AsKML fragment on the GeoJSON path is a contract violation.
	_, err := FeatureFromRow("zones", RawRow{
		"geometry": "<Point><coordinates>-120.1,49.5</coordinates></Point>",
	})
	require.Error(t, err)

	_, err = FeatureFromRow("zones", RawRow{"geometry": nil})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "null")

	_, err = FeatureFromRow("zones", RawRow{"geometry": 42})
	require.Error(t, err)
}

func TestFeatureFromRow_ByteSliceGeometry(t *testing.T) {
	f, err := FeatureFromRow("zones", RawRow{
		"geometry": []byte(`{"type":"Point","coordinates":[1,2]}`),
	})
	require.NoError(t, err)
	assert.Equal(t, orb.Point{1, 2}, f.Geometry.Geometry())
}

func TestNewFeatureCollection_NilFeatures(t *testing.T) {
	fc := NewFeatureCollection(nil)
	assert.Equal(t, "FeatureCollection", fc.Type)

	out, err := json.Marshal(fc)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"features":[]`)
}
