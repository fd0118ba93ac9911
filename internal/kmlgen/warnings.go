package kmlgen

import (
	"html"
	"strings"

	"go.uber.org/zap"
)

// Warning categories as they appear in decision_point_warnings.type. Both
// render the same ✗ glyph; the visual difference is carried by the CSS class.
const (
	CategoryConcern      = "Concern"
	CategoryManagingRisk = "Managing risk"
)

// Row is one tagged database row on the KML path, with its geometry already
// reparsed (Geom is nil when geometry conversion was skipped).
type Row struct {
	Table string
	Data  map[string]any
	Geom  *Geometry
}

type warningGroup struct {
	geom     *Geometry
	concern  []string
	managing []string
	props    map[string]any
}

// AggregateWarnings collapses decision-point warning rows that share a
// coordinate into one row per distinct point, with the warnings rendered as
// an HTML description table. Malformed rows (missing point geometry, unknown
// category) are logged and skipped without affecting sibling rows.
func AggregateWarnings(rows []Row) []Row {
	log := zap.L().With(zap.String("component", "kmlgen.warnings"))

	groups := make(map[string]*warningGroup)
	var order []string

	for _, row := range rows {
		if row.Geom == nil || row.Geom.Kind != KindPoint {
			log.Warn("skipping warning row without point geometry", zap.String("table", row.Table))
			continue
		}
		key, err := row.Geom.CoordKey()
		if err != nil {
			log.Warn("skipping warning row", zap.Error(err))
			continue
		}

		category, _ := stringField(row.Data, "type")
		warning, _ := stringField(row.Data, "warning")
		if category != CategoryConcern && category != CategoryManagingRisk {
			log.Warn("skipping warning with unknown category",
				zap.String("category", category),
				zap.String("coordinates", key),
			)
			continue
		}

		// Group only on a validated row; a point whose rows are all
		// malformed produces no placemark.
		g, ok := groups[key]
		if !ok {
			g = &warningGroup{geom: row.Geom, props: make(map[string]any)}
			groups[key] = g
			order = append(order, key)
		}

		if category == CategoryConcern {
			g.concern = append(g.concern, warning)
		} else {
			g.managing = append(g.managing, warning)
		}

		for k, v := range row.Data {
			if k == "type" || k == "warning" {
				continue
			}
			g.props[k] = v
		}
	}

	out := make([]Row, 0, len(order))
	for _, key := range order {
		g := groups[key]
		props := make(map[string]any, len(g.props)+1)
		for k, v := range g.props {
			props[k] = v
		}
		// The rendered table is self-contained HTML, embedded directly as
		// the placemark description.
		props["description"] = renderWarningTable(g.concern, g.managing)
		out = append(out, Row{Table: "decision_points", Data: props, Geom: g.geom})
	}
	return out
}

// warningStyle is inlined so the table renders inside a KML description
// balloon with no external assets.
const warningStyle = `<style>` +
	`.warnings{border-collapse:collapse;font-family:sans-serif;font-size:12px}` +
	`.warnings th{text-align:left;padding:4px 6px 2px}` +
	`.warnings td{padding:1px 6px;vertical-align:top}` +
	`.glyph-concern{color:#c43b3b;font-weight:bold}` +
	`.glyph-managing-risk{color:#2c6e49;font-weight:bold}` +
	`</style>`

// renderWarningTable renders the two category buckets as one HTML fragment
// suitable for a KML description field.
func renderWarningTable(concern, managing []string) string {
	var b strings.Builder
	b.WriteString(warningStyle)
	b.WriteString(`<table class="warnings">`)
	writeWarningSection(&b, CategoryConcern, "glyph-concern", concern)
	writeWarningSection(&b, CategoryManagingRisk, "glyph-managing-risk", managing)
	b.WriteString(`</table>`)
	return b.String()
}

func writeWarningSection(b *strings.Builder, header, class string, lines []string) {
	if len(lines) == 0 {
		return
	}
	b.WriteString(`<tr><th colspan="2">`)
	b.WriteString(html.EscapeString(header))
	b.WriteString(`</th></tr>`)
	for _, line := range lines {
		b.WriteString(`<tr><td class="`)
		b.WriteString(class)
		b.WriteString(`">✗</td><td>`)
		b.WriteString(html.EscapeString(line))
		b.WriteString(`</td></tr>`)
	}
}
