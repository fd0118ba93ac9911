package kmlgen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snowline-maps/terrain-export/internal/style"
)

func testLayers() []LayerRows {
	return []LayerRows{
		{
			Table:       "areas",
			DisplayName: "Area",
			Rows: []map[string]any{{
				"geometry":     "<LineString><coordinates>-121,49 -119,49 -119,51</coordinates></LineString>",
				"bounding_box": "<Polygon><outerBoundaryIs><LinearRing><coordinates>-121,49 -119,49 -119,51 -121,51 -121,49</coordinates></LinearRing></outerBoundaryIs></Polygon>",
				"name":         "Bow Summit",
			}},
		},
		{
			Table:       "zones",
			DisplayName: "Zones",
			Rows: []map[string]any{{
				"geometry":   "<Polygon><outerBoundaryIs><LinearRing><coordinates>-121,49 -119,49 -119,51 -121,49</coordinates></LinearRing></outerBoundaryIs></Polygon>",
				"name":       "North Bowl",
				"class_code": "1",
			}},
		},
		{
			Table:       "decision_points",
			DisplayName: "Decision Points",
			Rows: []map[string]any{
				{
					"geometry": "<Point><coordinates>-120.1,49.5</coordinates></Point>",
					"name":     "DP 1",
					"warning":  "Overhead hazard",
					"type":     "Concern",
				},
				{
					"geometry": "<Point><coordinates>-120.1,49.5</coordinates></Point>",
					"name":     "DP 1",
					"warning":  "Cross one at a time",
					"type":     "Managing risk",
				},
			},
		},
	}
}

func renderDocument(t *testing.T, layers []LayerRows) string {
	t.Helper()
	doc, err := BuildDocument(layers, style.Default(), "icons", 11)
	require.NoError(t, err)

	var buf strings.Builder
	require.NoError(t, doc.WriteIndent(&buf, "", "  "))
	return buf.String()
}

func TestBuildDocument(t *testing.T) {
	out := renderDocument(t, testLayers())

	// Document named after the area; one folder per layer.
	assert.Contains(t, out, "<name>Bow Summit</name>")
	assert.Contains(t, out, "<name>Zones</name>")
	assert.Contains(t, out, "<name>Decision Points</name>")
	assert.Equal(t, 3, strings.Count(out, "<Folder>"))

	// Shared styles precede the folders.
	assert.Less(t, strings.Index(out, `id="zones-simple"`), strings.Index(out, "<Folder>"))

	// The envelope term never reaches KML output.
	assert.NotContains(t, out, "bounding_box")
}

func TestBuildDocument_AggregatesDecisionPoints(t *testing.T) {
	out := renderDocument(t, testLayers())

	// Two warning rows collapse into one placemark with both categories in
	// its description.
	assert.Equal(t, 1, strings.Count(out, "#decision-points"))
	assert.Contains(t, out, "Overhead hazard")
	assert.Contains(t, out, "Cross one at a time")
}

func TestBuildDocument_DefaultNameWithoutArea(t *testing.T) {
	out := renderDocument(t, []LayerRows{
		{Table: "zones", DisplayName: "Zones", Rows: nil},
	})
	assert.Contains(t, out, "<name>Terrain</name>")
}

func TestBuildDocument_UnsupportedGeometryDegrades(t *testing.T) {
	out := renderDocument(t, []LayerRows{
		{
			Table:       "zones",
			DisplayName: "Zones",
			Rows: []map[string]any{
				{
					"geometry":   "<MultiGeometry><Point><coordinates>0,0</coordinates></Point></MultiGeometry>",
					"name":       "dropped",
					"class_code": "1",
				},
				{
					"geometry":   "<Point><coordinates>0,0</coordinates></Point>",
					"name":       "kept",
					"class_code": "1",
				},
			},
		},
	})

	// The multi-geometry row is omitted; its sibling still renders.
	assert.NotContains(t, out, "dropped")
	assert.Contains(t, out, "<name>kept</name>")
}

func TestBuildDocument_UnparsableGeometryAborts(t *testing.T) {
	_, err := BuildDocument([]LayerRows{
		{
			Table:       "zones",
			DisplayName: "Zones",
			Rows: []map[string]any{
				{"geometry": "garbage", "name": "bad"},
			},
		},
	}, style.Default(), "icons", 11)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "zones")
}

func TestBuildDocument_RowWithoutGeometrySkipped(t *testing.T) {
	out := renderDocument(t, []LayerRows{
		{
			Table:       "zones",
			DisplayName: "Zones",
			Rows: []map[string]any{
				{"name": "no geometry"},
			},
		},
	})
	assert.NotContains(t, out, "no geometry")
	assert.Contains(t, out, "<name>Zones</name>")
}
