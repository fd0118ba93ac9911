package export

import (
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"

	"github.com/snowline-maps/terrain-export/internal/layer"
)

// Warning category slugs as they appear in decision-point rows after type
// normalization.
const (
	slugConcern      = "concern"
	slugManagingRisk = "managing-risk"
)

// warningLists is the serialized shape of the aggregated warnings property.
type warningLists struct {
	Concern      []string `json:"concern"`
	ManagingRisk []string `json:"managing-risk"`
}

type featureGroup struct {
	point    orb.Point
	lists    warningLists
	props    map[string]any
	firstIdx int
}

// AggregateDecisionPoints collapses per-warning decision-point features that
// share a coordinate into one feature per distinct point. Warning texts are
// appended to their category list in row order; remaining properties merge
// last-row-wins. Rows with an unknown category or a non-point geometry are
// logged and skipped; they never abort the export. The transform is
// idempotent over its input: same rows in, byte-identical features out.
func AggregateDecisionPoints(features []*Feature) []*Feature {
	log := zap.L().With(zap.String("component", "export.warnings"))

	groups := make(map[string]*featureGroup)
	var order []string

	for _, f := range features {
		if f.Geometry == nil {
			log.Warn("skipping decision point without geometry")
			continue
		}
		pt, ok := f.Geometry.Geometry().(orb.Point)
		if !ok {
			log.Warn("skipping decision point with non-point geometry",
				zap.String("type", f.Geometry.Type))
			continue
		}
		// Quantized so float formatting jitter between queries still
		// collides onto one decision point.
		key := fmt.Sprintf("%.6f,%.6f", pt[0], pt[1])

		category, _ := f.Properties["type"].(string)
		warning, _ := f.Properties["warning"].(string)
		if category != slugConcern && category != slugManagingRisk {
			log.Warn("skipping warning with unknown category",
				zap.String("category", category),
				zap.String("coordinates", key),
			)
			continue
		}

		// The group is keyed only once a row validates, so a coordinate
		// carrying nothing but malformed rows emits no feature at all.
		g, ok := groups[key]
		if !ok {
			g = &featureGroup{
				point: pt,
				lists: warningLists{Concern: []string{}, ManagingRisk: []string{}},
				props: make(map[string]any),
			}
			groups[key] = g
			order = append(order, key)
		}

		if category == slugConcern {
			g.lists.Concern = append(g.lists.Concern, warning)
		} else {
			g.lists.ManagingRisk = append(g.lists.ManagingRisk, warning)
		}

		for k, v := range f.Properties {
			if k == "type" || k == "warning" {
				continue
			}
			g.props[k] = v
		}
	}

	out := make([]*Feature, 0, len(order))
	for _, key := range order {
		g := groups[key]

		props := make(map[string]any, len(g.props)+2)
		for k, v := range g.props {
			props[k] = v
		}
		serialized, err := json.Marshal(g.lists)
		if err != nil {
			// warningLists is two string slices; this cannot fail.
			log.Error("serialize warnings", zap.Error(err))
			continue
		}
		props["warnings"] = string(serialized)
		props["table"] = layer.TableDecisionPoints

		out = append(out, &Feature{
			Type:       "Feature",
			Geometry:   geojson.NewGeometry(g.point),
			Properties: props,
		})
	}
	return out
}
