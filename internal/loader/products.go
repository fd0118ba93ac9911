// Package loader bulk-loads terrain layer shapefiles into the PostGIS
// tables the exporter queries.
package loader

// Product describes one loadable layer table: its DBF attribute columns and
// the geometry type the table expects.
type Product struct {
	Name     string   // CLI name, matches the table
	Table    string   // target table
	Columns  []string // DB columns sourced from DBF attributes (without geom)
	GeomType string   // "POINT", "MULTILINESTRING", "MULTIPOLYGON"
}

// Products lists every layer table the loader can populate. The areas table
// is managed by hand (one row per area) and is deliberately absent.
var Products = []Product{
	{
		Name:     "zones",
		Table:    "zones",
		Columns:  []string{"area_id", "name", "class_code", "comments"},
		GeomType: "MULTIPOLYGON",
	},
	{
		Name:     "access_roads",
		Table:    "access_roads",
		Columns:  []string{"area_id", "description"},
		GeomType: "MULTILINESTRING",
	},
	{
		Name:     "avalanche_paths",
		Table:    "avalanche_paths",
		Columns:  []string{"area_id", "name", "comments"},
		GeomType: "MULTIPOLYGON",
	},
	{
		Name:     "points_of_interest",
		Table:    "points_of_interest",
		Columns:  []string{"area_id", "name", "type", "comments"},
		GeomType: "POINT",
	},
	{
		Name:     "decision_points",
		Table:    "decision_points",
		Columns:  []string{"area_id", "name", "comments"},
		GeomType: "POINT",
	},
}

// ProductByName looks up a product by its CLI name.
func ProductByName(name string) (Product, bool) {
	for _, p := range Products {
		if p.Name == name {
			return p, true
		}
	}
	return Product{}, false
}
