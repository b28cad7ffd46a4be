package comparables

import (
	"math"
	"sort"

	"taxprotest/internal/types"
)

// Zoner resolves the zoning district for a coordinate; "" means unknown.
type Zoner interface {
	Code(lat, lon float64) string
}

// Engine selects comparables and builds valuation reports. It holds no dataset
// state; every call receives the records it works on.
type Engine struct {
	cfg   Config
	zoner Zoner
}

// New returns an engine using cfg.
func New(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// WithZoning attaches a zoning lookup used for report annotations and, when
// RequireSameZoning is set, for filtering.
func (e *Engine) WithZoning(z Zoner) *Engine {
	e.zoner = z
	return e
}

func (e *Engine) Config() Config { return e.cfg }

// Select returns the comparable set for target ordered by ascending PSF.
//
// A record qualifies when it shares a map (TAD map or MAPSCO page) and a
// neighborhood key (short GIS id or subdivision) with the target, has the same
// property class and state use code, and falls inside the configured year,
// living area, land area and PSF bands. The target itself qualifies. Records
// with a non-finite PSF never qualify, and such a target has no comparables.
func (e *Engine) Select(records []types.Property, target types.Property) []types.Property {
	c := e.cfg
	if !finite(target.PSF) {
		return nil
	}
	livLo, livHi := target.LivingArea*(1-c.LivingAreaBand), target.LivingArea*(1+c.LivingAreaBand)
	landLo, landHi := target.LandSqFt*(1-c.LandAreaBand), target.LandSqFt*(1+c.LandAreaBand)
	psfLo, psfHi := target.PSF*c.PSFLow, target.PSF*c.PSFHigh

	zone := ""
	filterZone := c.RequireSameZoning && e.zoner != nil && target.HasCoords
	if filterZone {
		zone = e.zoner.Code(target.Latitude, target.Longitude)
		filterZone = zone != ""
	}

	var out []types.Property
	for _, p := range records {
		if !sameKey(p.TADMap, target.TADMap) && !sameKey(p.Mapsco, target.Mapsco) {
			continue
		}
		if !sameKey(p.GISShort, target.GISShort) && !sameKey(p.Subdivision, target.Subdivision) {
			continue
		}
		if p.PropertyClass != target.PropertyClass || p.StateUseCode != target.StateUseCode {
			continue
		}
		if abs(p.YearBuilt-target.YearBuilt) > c.YearTolerance {
			continue
		}
		if p.LivingArea < livLo || p.LivingArea > livHi {
			continue
		}
		if p.LandSqFt < landLo || p.LandSqFt > landHi {
			continue
		}
		if !finite(p.PSF) || p.PSF < psfLo || p.PSF > psfHi {
			continue
		}
		if filterZone && (!p.HasCoords || e.zoner.Code(p.Latitude, p.Longitude) != zone) {
			continue
		}
		out = append(out, p)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].PSF != out[j].PSF {
			return out[i].PSF < out[j].PSF
		}
		return out[i].AccountNum < out[j].AccountNum
	})
	return out
}

// sameKey treats blank grouping keys as unknown so two blanks never match.
func sameKey(a, b string) bool {
	return a != "" && a == b
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
