package zoning

import (
	"fmt"
	"math"
	"strings"

	shp "github.com/jonas-p/go-shp"
)

// Feature is a polygon (possibly multi-part) from a zoning shapefile together
// with its attribute table values.
type Feature struct {
	Parts  [][][2]float64    // each part is a closed ring of [northing, easting] points
	Attrs  map[string]string // DBF attribute values keyed by field name
	MinLat float64
	MinLon float64
	MaxLat float64
	MaxLon float64
}

// Index answers "which zoning district contains this parcel". Layers are
// searched in load order, so base zoning should come before overlays.
type Index struct {
	features []Feature
}

// codeFields are the attribute names that carry the district code, in preference order.
var codeFields = []string{"ZONING", "BASE_ZONIN", "ZONE_CODE"}

// Load reads every shapefile in paths into one index.
func Load(paths ...string) (*Index, error) {
	idx := &Index{}
	for _, p := range paths {
		feats, err := loadShapefile(p)
		if err != nil {
			return nil, fmt.Errorf("load zoning shapefile %s: %w", p, err)
		}
		idx.features = append(idx.features, feats...)
	}
	return idx, nil
}

// NewIndex builds an index from features already in memory.
func NewIndex(features ...Feature) *Index {
	for i := range features {
		features[i].bounds()
	}
	return &Index{features: features}
}

func (x *Index) Len() int { return len(x.features) }

// Lookup returns the attributes of the first polygon containing the WGS-84 point.
func (x *Index) Lookup(lat, lon float64) (map[string]string, bool) {
	if x == nil {
		return nil, false
	}
	north, east := ToStatePlane(lat, lon)
	return x.lookupProjected(north, east)
}

// Code returns the zoning district code at the point, or "" when unknown.
func (x *Index) Code(lat, lon float64) string {
	attrs, ok := x.Lookup(lat, lon)
	if !ok {
		return ""
	}
	for _, f := range codeFields {
		if z := strings.TrimSpace(attrs[f]); z != "" {
			return z
		}
	}
	return ""
}

func (x *Index) lookupProjected(north, east float64) (map[string]string, bool) {
	for _, z := range x.features {
		if north < z.MinLat || north > z.MaxLat || east < z.MinLon || east > z.MaxLon {
			continue // quick bbox reject
		}
		for _, ring := range z.Parts {
			if pointInPolygon(north, east, ring) {
				return z.Attrs, true
			}
		}
	}
	return nil, false
}

func loadShapefile(path string) ([]Feature, error) {
	r, err := shp.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	fields := r.Fields()

	var features []Feature
	for r.Next() {
		n, shape := r.Shape()
		poly, ok := shape.(*shp.Polygon)
		if !ok {
			continue
		}

		numParts := len(poly.Parts)
		parts := make([][][2]float64, numParts)
		for partIdx := 0; partIdx < numParts; partIdx++ {
			start := poly.Parts[partIdx]
			end := int32(len(poly.Points))
			if partIdx+1 < numParts {
				end = poly.Parts[partIdx+1]
			}
			ring := make([][2]float64, 0, int(end-start))
			for i := start; i < end; i++ {
				pt := poly.Points[i]
				ring = append(ring, [2]float64{pt.Y, pt.X})
			}
			parts[partIdx] = ring
		}

		attrs := make(map[string]string, len(fields))
		for i, f := range fields {
			attrs[f.String()] = strings.TrimSpace(r.ReadAttribute(n, i))
		}

		feat := Feature{Parts: parts, Attrs: attrs}
		feat.bounds()
		features = append(features, feat)
	}
	return features, nil
}

// bounds recomputes the bounding box from the rings.
func (f *Feature) bounds() {
	f.MinLat, f.MinLon = math.MaxFloat64, math.MaxFloat64
	f.MaxLat, f.MaxLon = -math.MaxFloat64, -math.MaxFloat64
	for _, ring := range f.Parts {
		for _, pt := range ring {
			f.MinLat = math.Min(f.MinLat, pt[0])
			f.MaxLat = math.Max(f.MaxLat, pt[0])
			f.MinLon = math.Min(f.MinLon, pt[1])
			f.MaxLon = math.Max(f.MaxLon, pt[1])
		}
	}
}

// pointInPolygon implements the ray-casting test. Shapefile rings are closed,
// but the test does not depend on it.
func pointInPolygon(lat, lon float64, ring [][2]float64) bool {
	inside := false
	j := len(ring) - 1
	for i := 0; i < len(ring); i++ {
		yi, xi := ring[i][0], ring[i][1]
		yj, xj := ring[j][0], ring[j][1]
		intersect := ((yi > lat) != (yj > lat)) && (lon < (xj-xi)*(lat-yi)/(yj-yi)+xi)
		if intersect {
			inside = !inside
		}
		j = i
	}
	return inside
}
