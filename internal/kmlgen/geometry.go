// Package kmlgen assembles the KML export document: it reparses the
// database's XML geometry fragments, builds placemarks and folders, renders
// the decision-point warning popups, and packages KMZ archives.
package kmlgen

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	kml "github.com/twpayne/go-kml"
)

// GeometryKind tags the variants the ST_AsKML fragment parser can produce.
type GeometryKind int

const (
	KindUnrecognized GeometryKind = iota
	KindPoint
	KindLineString
	KindPolygon
	KindMultiGeometry
)

func (k GeometryKind) String() string {
	switch k {
	case KindPoint:
		return "Point"
	case KindLineString:
		return "LineString"
	case KindPolygon:
		return "Polygon"
	case KindMultiGeometry:
		return "MultiGeometry"
	default:
		return "Unrecognized"
	}
}

// Geometry is the normalized shape parsed from an ST_AsKML fragment. Which
// fields are populated depends on Kind: Coords for points and linestrings,
// Outer/Inners for polygons. Unrecognized and MultiGeometry variants carry
// only the raw element name.
type Geometry struct {
	Kind    GeometryKind
	RawName string
	Coords  []kml.Coordinate
	Outer   []kml.Coordinate
	Inners  [][]kml.Coordinate
}

type xmlRing struct {
	Coordinates string `xml:"coordinates"`
}

type xmlBoundary struct {
	Ring xmlRing `xml:"LinearRing"`
}

type xmlPoint struct {
	Coordinates string `xml:"coordinates"`
}

type xmlPolygon struct {
	Outer  xmlBoundary   `xml:"outerBoundaryIs"`
	Inners []xmlBoundary `xml:"innerBoundaryIs"`
}

// ParseGeometry decodes the XML geometry fragment returned by ST_AsKML into
// a tagged Geometry. Unknown root elements (including MultiGeometry) yield a
// non-nil Geometry with an Unrecognized/MultiGeometry kind rather than an
// error; the caller decides how soft to be.
func ParseGeometry(fragment string) (*Geometry, error) {
	dec := xml.NewDecoder(strings.NewReader(fragment))

	var start *xml.StartElement
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, eris.Wrap(err, "kmlgen: read geometry fragment")
		}
		if se, ok := tok.(xml.StartElement); ok {
			start = &se
			break
		}
	}

	switch start.Name.Local {
	case "Point":
		var p xmlPoint
		if err := dec.DecodeElement(&p, start); err != nil {
			return nil, eris.Wrap(err, "kmlgen: decode Point")
		}
		coords, err := parseCoordinates(p.Coordinates)
		if err != nil {
			return nil, err
		}
		if len(coords) != 1 {
			return nil, eris.Errorf("kmlgen: Point has %d coordinates", len(coords))
		}
		return &Geometry{Kind: KindPoint, RawName: "Point", Coords: coords}, nil

	case "LineString":
		var l xmlPoint
		if err := dec.DecodeElement(&l, start); err != nil {
			return nil, eris.Wrap(err, "kmlgen: decode LineString")
		}
		coords, err := parseCoordinates(l.Coordinates)
		if err != nil {
			return nil, err
		}
		return &Geometry{Kind: KindLineString, RawName: "LineString", Coords: coords}, nil

	case "Polygon":
		var p xmlPolygon
		if err := dec.DecodeElement(&p, start); err != nil {
			return nil, eris.Wrap(err, "kmlgen: decode Polygon")
		}
		outer, err := parseCoordinates(p.Outer.Ring.Coordinates)
		if err != nil {
			return nil, err
		}
		g := &Geometry{Kind: KindPolygon, RawName: "Polygon", Outer: outer}
		for _, b := range p.Inners {
			ring, err := parseCoordinates(b.Ring.Coordinates)
			if err != nil {
				return nil, err
			}
			g.Inners = append(g.Inners, ring)
		}
		return g, nil

	case "MultiGeometry":
		return &Geometry{Kind: KindMultiGeometry, RawName: start.Name.Local}, nil

	default:
		return &Geometry{Kind: KindUnrecognized, RawName: start.Name.Local}, nil
	}
}

// Element converts the parsed geometry into its go-kml element. Multi and
// unrecognized geometries are not convertible.
func (g *Geometry) Element() (kml.Element, error) {
	switch g.Kind {
	case KindPoint:
		return kml.Point(kml.Coordinates(g.Coords...)), nil
	case KindLineString:
		return kml.LineString(kml.Coordinates(g.Coords...)), nil
	case KindPolygon:
		children := []kml.Element{
			kml.OuterBoundaryIs(kml.LinearRing(kml.Coordinates(g.Outer...))),
		}
		for _, ring := range g.Inners {
			children = append(children, kml.InnerBoundaryIs(kml.LinearRing(kml.Coordinates(ring...))))
		}
		return kml.Polygon(children...), nil
	default:
		return nil, eris.Errorf("kmlgen: cannot render %s geometry", g.Kind)
	}
}

// CoordKey returns the canonical dedup key for a point geometry. Coordinates
// are quantized to 6 decimal places so repeated ST_AsKML round-trips with
// differing float formatting still collide.
func (g *Geometry) CoordKey() (string, error) {
	if g.Kind != KindPoint {
		return "", eris.Errorf("kmlgen: coordinate key requires a Point, got %s", g.Kind)
	}
	c := g.Coords[0]
	return fmt.Sprintf("%.6f,%.6f", c.Lon, c.Lat), nil
}

// parseCoordinates splits a KML coordinate string ("lon,lat[,alt]" tuples
// separated by whitespace) into go-kml coordinates. Altitude is ignored.
func parseCoordinates(s string) ([]kml.Coordinate, error) {
	var coords []kml.Coordinate
	for _, tuple := range strings.Fields(s) {
		parts := strings.Split(tuple, ",")
		if len(parts) < 2 {
			return nil, eris.Errorf("kmlgen: malformed coordinate tuple %q", tuple)
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		if err != nil {
			return nil, eris.Wrapf(err, "kmlgen: parse longitude %q", parts[0])
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			return nil, eris.Wrapf(err, "kmlgen: parse latitude %q", parts[1])
		}
		coords = append(coords, kml.Coordinate{Lon: lon, Lat: lat})
	}
	if len(coords) == 0 {
		return nil, eris.New("kmlgen: empty coordinate list")
	}
	return coords, nil
}
