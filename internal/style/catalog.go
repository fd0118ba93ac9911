// Package style holds the static KML styling catalog: per-layer (and
// per-subcategory) colors, line widths, and icon references.
package style

import (
	"fmt"
	"image/color"
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	kml "github.com/twpayne/go-kml"
)

// Kind discriminates the KML style sub-elements a spec produces.
type Kind int

const (
	KindLine Kind = iota
	KindPolygon
	KindIcon
)

// defaultLineWidth applies to every line style that does not override it.
const defaultLineWidth = 2.0

// Spec is one catalog entry. Color is stored in conventional RRGGBBAA order
// and reversed to KML's AABBGGRR order only at emission time.
type Spec struct {
	ID    string
	Kind  Kind
	Color string
	Width float64 // line width override; 0 means defaultLineWidth
	Icon  string  // icon basename, icon styles only
}

type entry struct {
	base *Spec
	sub  map[string]*Spec
}

// Catalog maps layer tables (and sub-categories) to style specs. It is
// process-wide, read-only configuration; build it once and inject it.
type Catalog struct {
	entries map[string]entry
}

// Default returns the catalog covering all six layers and every categorical
// sub-key referenced by live data.
func Default() *Catalog {
	return &Catalog{entries: map[string]entry{
		"areas": {
			base: &Spec{ID: "areas", Kind: KindLine, Color: "666666ff", Width: 3},
		},
		"zones": {
			// ATES terrain classes: 1 simple, 2 challenging, 3 complex.
			sub: map[string]*Spec{
				"1": {ID: "zones-simple", Kind: KindPolygon, Color: "3a913f99"},
				"2": {ID: "zones-challenging", Kind: KindPolygon, Color: "2a6fdb99"},
				"3": {ID: "zones-complex", Kind: KindPolygon, Color: "22222299"},
			},
		},
		"access_roads": {
			base: &Spec{ID: "access-roads", Kind: KindLine, Color: "8b4513ff", Width: 3},
		},
		"avalanche_paths": {
			base: &Spec{ID: "avalanche-paths", Kind: KindPolygon, Color: "d94f2b80"},
		},
		"points_of_interest": {
			base: &Spec{ID: "poi", Kind: KindIcon, Icon: "marker"},
			sub: map[string]*Spec{
				"cabin":        {ID: "poi-cabin", Kind: KindIcon, Icon: "cabin"},
				"hut":          {ID: "poi-hut", Kind: KindIcon, Icon: "hut"},
				"lake":         {ID: "poi-lake", Kind: KindIcon, Icon: "lake"},
				"mountain":     {ID: "poi-mountain", Kind: KindIcon, Icon: "mountain"},
				"parking":      {ID: "poi-parking", Kind: KindIcon, Icon: "parking"},
				"rescue-cache": {ID: "poi-rescue-cache", Kind: KindIcon, Icon: "rescue-cache"},
				"viewpoint":    {ID: "poi-viewpoint", Kind: KindIcon, Icon: "viewpoint"},
			},
		},
		"decision_points": {
			base: &Spec{ID: "decision-points", Kind: KindIcon, Icon: "decision-point"},
		},
	}}
}

// Slug normalizes a categorical value to its lookup/property key form.
func Slug(s string) string {
	return strings.ReplaceAll(strings.ToLower(s), " ", "-")
}

// ResolveURL returns the style URL reference for a layer row. A non-empty key
// selects the categorical style (points-of-interest type, zone class code) and
// must resolve; an empty key selects the per-table style. A lookup miss is a
// configuration defect.
func (c *Catalog) ResolveURL(table, key string) (string, error) {
	e, ok := c.entries[table]
	if !ok {
		return "", eris.Errorf("style: no catalog entry for table %q", table)
	}
	if key != "" {
		s, ok := e.sub[Slug(key)]
		if !ok {
			return "", eris.Errorf("style: no %s style for category %q", table, key)
		}
		return "#" + s.ID, nil
	}
	if e.base == nil {
		return "", eris.Errorf("style: table %q has only categorical styles", table)
	}
	return "#" + e.base.ID, nil
}

// SharedStyles emits the catalog as KML shared <Style> blocks for the
// document head, in deterministic order.
func (c *Catalog) SharedStyles(iconDir string, iconSize int) ([]kml.Element, error) {
	var specs []*Spec
	tables := make([]string, 0, len(c.entries))
	for t := range c.entries {
		tables = append(tables, t)
	}
	sort.Strings(tables)
	for _, t := range tables {
		e := c.entries[t]
		if e.base != nil {
			specs = append(specs, e.base)
		}
		keys := make([]string, 0, len(e.sub))
		for k := range e.sub {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			specs = append(specs, e.sub[k])
		}
	}

	var out []kml.Element
	for _, s := range specs {
		el, err := s.element(iconDir, iconSize)
		if err != nil {
			return nil, err
		}
		out = append(out, el)
	}
	return out, nil
}

func (s *Spec) element(iconDir string, iconSize int) (kml.Element, error) {
	switch s.Kind {
	case KindLine:
		col, err := emitColor(s.Color)
		if err != nil {
			return nil, eris.Wrapf(err, "style: %s", s.ID)
		}
		return kml.SharedStyle(s.ID, kml.LineStyle(kml.Color(col), kml.Width(s.lineWidth()))), nil
	case KindPolygon:
		col, err := emitColor(s.Color)
		if err != nil {
			return nil, eris.Wrapf(err, "style: %s", s.ID)
		}
		return kml.SharedStyle(s.ID,
			kml.LineStyle(kml.Color(col), kml.Width(s.lineWidth())),
			kml.PolyStyle(kml.Color(col)),
		), nil
	case KindIcon:
		return kml.SharedStyle(s.ID,
			kml.IconStyle(
				kml.Scale(1),
				kml.Icon(kml.Href(IconHref(iconDir, iconSize, s.Icon))),
			),
		), nil
	default:
		return nil, eris.Errorf("style: unknown style kind %d for %s", int(s.Kind), s.ID)
	}
}

func (s *Spec) lineWidth() float64 {
	if s.Width > 0 {
		return s.Width
	}
	return defaultLineWidth
}

// ReverseColor converts a stored RRGGBBAA color to KML's AABBGGRR order. The
// transform is a pure, unconditional string reversal.
func ReverseColor(s string) string {
	b := []byte(s)
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return string(b)
}

// emitColor parses a stored RRGGBBAA color into the color value go-kml will
// render in AABBGGRR order, byte-for-byte equal to ReverseColor's output.
func emitColor(stored string) (color.RGBA, error) {
	if len(stored) != 8 {
		return color.RGBA{}, eris.Errorf("style: color %q is not 8 hex digits", stored)
	}
	rev := ReverseColor(stored)
	var parts [4]uint8
	for i := 0; i < 4; i++ {
		v, err := strconv.ParseUint(rev[i*2:i*2+2], 16, 8)
		if err != nil {
			return color.RGBA{}, eris.Wrapf(err, "style: parse color %q", stored)
		}
		parts[i] = uint8(v)
	}
	// Reversed string is AABBGGRR; go-kml re-emits RGBA in that same order.
	return color.RGBA{A: parts[0], B: parts[1], G: parts[2], R: parts[3]}, nil
}

// NormalizeIconSize restricts the icon size selector to the shipped icon
// sets; anything else falls back to 11.
func NormalizeIconSize(n int) int {
	if n == 15 {
		return 15
	}
	return 11
}

// IconDirName is the archive directory holding one icon set.
func IconDirName(dir string, size int) string {
	return fmt.Sprintf("%s-%d", dir, NormalizeIconSize(size))
}

// IconHref builds the relative icon path used inside KML/KMZ documents.
func IconHref(dir string, size int, name string) string {
	return fmt.Sprintf("%s/%s.png", IconDirName(dir, size), name)
}
