package comparables

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Reference line labels.
const (
	LineSubject = "Subject"
	LineMedian  = "Median"
)

// Histogram describes a PSF distribution chart; rendering belongs to the caller.
type Histogram struct {
	// Edges has len(Counts)+1 entries; bin i covers [Edges[i], Edges[i+1]).
	Edges  []float64       `json:"edges"`
	Counts []int           `json:"counts"`
	Lines  []ReferenceLine `json:"lines"`
}

// ReferenceLine marks a labeled value on the chart.
type ReferenceLine struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// histogram bins the comparable PSF values into the configured number of bins.
func (e *Engine) histogram(rows []Comparable, targetPSF, medianPSF float64, hasMedian bool) *Histogram {
	h := &Histogram{Lines: []ReferenceLine{{Label: LineSubject, Value: targetPSF}}}
	if hasMedian {
		h.Lines = append(h.Lines, ReferenceLine{Label: LineMedian, Value: medianPSF})
	}
	if len(rows) == 0 {
		return h
	}

	x := make([]float64, len(rows))
	for i, r := range rows {
		x[i] = r.PSF
	}
	sort.Float64s(x)

	lo, hi := x[0], x[len(x)-1]
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}
	bins := max(e.cfg.HistogramBins, 1)
	dividers := floats.Span(make([]float64, bins+1), lo, hi)
	// The top divider is exclusive; nudge it so the maximum lands in the last bin.
	dividers[bins] = math.Nextafter(hi, math.Inf(1))

	counts := stat.Histogram(nil, dividers, x, nil)
	h.Edges = dividers
	h.Counts = make([]int, len(counts))
	for i, c := range counts {
		h.Counts[i] = int(c)
	}
	return h
}
