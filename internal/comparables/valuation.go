package comparables

import (
	"math"
	"sort"

	"github.com/montanaflynn/stats"

	"taxprotest/internal/types"
)

// Comparable is one row of the comparable table handed to the display layer.
type Comparable struct {
	AccountNum     string  `json:"account_num"`
	Address        string  `json:"address"`
	AppraisedValue float64 `json:"appraised_value"`
	PSF            float64 `json:"psf"`
	LivingArea     float64 `json:"living_area"`
	YearBuilt      int     `json:"year_built"`
	LandSqFt       float64 `json:"land_sqft"`
	LandValue      float64 `json:"land_value"`
	RecordURL      string  `json:"record_url"`
	Zoning         string  `json:"zoning,omitempty"`

	// AbsDeviation is |PSF - median PSF| of the comparable set.
	AbsDeviation float64 `json:"abs_deviation"`
	// IndexValue is the subject's living area priced at this comparable's PSF.
	IndexValue float64 `json:"index_value"`
	// AdjustedValue re-estimates this comparable with the subject's size, land and age.
	AdjustedValue float64 `json:"adjusted_value"`
	// AdjustedDelta is AdjustedValue minus the subject's appraised value.
	AdjustedDelta float64 `json:"adjusted_delta"`
	// MedianRatio is PSF / median PSF - 1.
	MedianRatio float64 `json:"median_ratio"`
}

// median returns the median of vals, or false for an empty slice.
func median(vals []float64) (float64, bool) {
	if len(vals) == 0 {
		return 0, false
	}
	m, err := stats.Median(vals)
	if err != nil || math.IsNaN(m) {
		return 0, false
	}
	return m, true
}

func medianOf(rows []Comparable, field func(Comparable) float64) (float64, bool) {
	vals := make([]float64, len(rows))
	for i, r := range rows {
		vals[i] = field(r)
	}
	return median(vals)
}

func psfOf(r Comparable) float64      { return r.PSF }
func adjustedOf(r Comparable) float64 { return r.AdjustedValue }

// adjustedValue normalizes comp to the subject's living area, land value and age.
func (e *Engine) adjustedValue(target, comp types.Property) float64 {
	c := e.cfg
	return comp.AppraisedValue +
		(target.LivingArea-comp.LivingArea)*c.LivingAreaRate +
		(target.LandValue-comp.LandValue)*c.LandValueRate +
		float64(target.YearBuilt-comp.YearBuilt)*comp.AppraisedValue*c.AgeRate
}

// annotate builds the comparable rows. medianPSF is only used when hasMedian.
func (e *Engine) annotate(target types.Property, comps []types.Property, medianPSF float64, hasMedian bool) []Comparable {
	rows := make([]Comparable, len(comps))
	for i, p := range comps {
		adj := e.adjustedValue(target, p)
		row := Comparable{
			AccountNum:     p.AccountNum,
			Address:        p.SitusAddress,
			AppraisedValue: p.AppraisedValue,
			PSF:            p.PSF,
			LivingArea:     p.LivingArea,
			YearBuilt:      p.YearBuilt,
			LandSqFt:       p.LandSqFt,
			LandValue:      p.LandValue,
			RecordURL:      p.RecordURL,
			IndexValue:     p.PSF * target.LivingArea,
			AdjustedValue:  adj,
			AdjustedDelta:  adj - target.AppraisedValue,
		}
		if hasMedian {
			row.AbsDeviation = math.Abs(p.PSF - medianPSF)
			if medianPSF != 0 {
				row.MedianRatio = p.PSF/medianPSF - 1
			}
		}
		if e.zoner != nil && p.HasCoords {
			row.Zoning = e.zoner.Code(p.Latitude, p.Longitude)
		}
		rows[i] = row
	}
	return rows
}

// lowerSubset keeps the comparables that argue for a lower valuation: PSF below
// the midpoint of median and subject, strictly below the subject, and above the
// median scaled by the pool-size cutoff. Sorted by adjusted value.
func (e *Engine) lowerSubset(rows []Comparable, targetPSF, medianPSF float64) []Comparable {
	mid := (medianPSF + targetPSF) / 2
	floor := medianPSF * e.cfg.cutoff(len(rows))

	var out []Comparable
	for _, r := range rows {
		if r.PSF < mid && r.PSF < targetPSF && r.PSF > floor {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].AdjustedValue != out[j].AdjustedValue {
			return out[i].AdjustedValue < out[j].AdjustedValue
		}
		return out[i].AccountNum < out[j].AccountNum
	})
	return out
}
