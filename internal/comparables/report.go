package comparables

import (
	"fmt"
	"math"
	"strings"

	"github.com/dustin/go-humanize"

	"taxprotest/internal/dataset"
	"taxprotest/internal/types"
)

// Status classifies a report. Exactly one applies.
type Status string

const (
	StatusNotFound     Status = "not_found"
	StatusAmbiguous    Status = "ambiguous"
	StatusInsufficient Status = "insufficient_comparables"
	StatusFair         Status = "fairly_assessed"
	StatusOverAssessed Status = "over_assessed"
)

// Candidate is one of several parcels sharing the requested address.
type Candidate struct {
	AccountNum     string  `json:"account_num"`
	Address        string  `json:"address"`
	OwnerName      string  `json:"owner_name"`
	AppraisedValue float64 `json:"appraised_value"`
	LegalDesc      string  `json:"legal_description"`
}

// Summary holds the set-level statistics. Pointer fields are nil when undefined.
type Summary struct {
	Comparables         int      `json:"comparables"`
	SubjectPSF          float64  `json:"subject_psf"`
	MedianPSF           *float64 `json:"median_psf"`
	OverUnder           *float64 `json:"over_under"`
	Discount            *float64 `json:"discount"`
	Savings             *float64 `json:"savings"`
	SavingsClaimed      bool     `json:"savings_claimed"`
	MedianAdjustedValue *float64 `json:"median_adjusted_value"`
	Cutoff              float64  `json:"cutoff"`
	LowerCount          int      `json:"lower_count"`
	LowerMedianPSF      *float64 `json:"lower_median_psf"`
	LowerMedianAdjusted *float64 `json:"lower_median_adjusted_value"`
}

// Report is the full answer to one query.
type Report struct {
	Status        Status          `json:"status"`
	Query         string          `json:"query"`
	Subject       *types.Property `json:"subject,omitempty"`
	SubjectZoning string          `json:"subject_zoning,omitempty"`
	Candidates    []Candidate     `json:"candidates,omitempty"`
	Summary       Summary         `json:"summary"`
	Comparables   []Comparable    `json:"comparables"`
	Lower         []Comparable    `json:"lower_valuation"`
	Narrative     string          `json:"narrative"`
	Histogram     *Histogram      `json:"histogram,omitempty"`
}

// ReportByAccount evaluates the parcel with the given account number.
func (e *Engine) ReportByAccount(ds *dataset.Dataset, acct string) Report {
	target, ok := ds.ByAccount(acct)
	if !ok {
		return notFound(acct)
	}
	r := e.Evaluate(ds.Records(), target)
	r.Query = acct
	return r
}

// ReportByAddress evaluates the parcel at addr. Several parcels sharing the
// address produce an ambiguous report listing them instead of a silent pick.
func (e *Engine) ReportByAddress(ds *dataset.Dataset, addr string) Report {
	matches := ds.ByAddress(addr)
	switch len(matches) {
	case 0:
		return notFound(addr)
	case 1:
		r := e.Evaluate(ds.Records(), matches[0])
		r.Query = addr
		return r
	}

	r := Report{Status: StatusAmbiguous, Query: addr}
	var accts []string
	for _, p := range matches {
		r.Candidates = append(r.Candidates, Candidate{
			AccountNum:     p.AccountNum,
			Address:        p.SitusAddress,
			OwnerName:      p.OwnerName,
			AppraisedValue: p.AppraisedValue,
			LegalDesc:      p.LegalDescription,
		})
		accts = append(accts, p.AccountNum)
	}
	r.Narrative = fmt.Sprintf("%d properties share the address %q. Select one by account number: %s.",
		len(matches), addr, strings.Join(accts, ", "))
	return r
}

func notFound(query string) Report {
	return Report{
		Status:    StatusNotFound,
		Query:     query,
		Narrative: fmt.Sprintf("No property was found for %q. Please select another address.", query),
	}
}

// Evaluate builds the report for target against records.
func (e *Engine) Evaluate(records []types.Property, target types.Property) Report {
	c := e.cfg
	subject := target
	r := Report{
		Query:   target.SitusAddress,
		Subject: &subject,
	}
	if e.zoner != nil && target.HasCoords {
		r.SubjectZoning = e.zoner.Code(target.Latitude, target.Longitude)
	}

	comps := e.Select(records, target)
	psfs := make([]float64, len(comps))
	for i, p := range comps {
		psfs[i] = p.PSF
	}
	med, hasMedian := median(psfs)

	rows := e.annotate(target, comps, med, hasMedian)
	s := Summary{
		Comparables: len(rows),
		SubjectPSF:  target.PSF,
		Cutoff:      c.cutoff(len(rows)),
	}
	r.Comparables = rows
	r.Histogram = e.histogram(rows, target.PSF, med, hasMedian)

	if hasMedian {
		s.MedianPSF = ptr(med)
		if adj, ok := medianOf(rows, adjustedOf); ok {
			s.MedianAdjustedValue = ptr(adj)
		}
	}
	if hasMedian && med != 0 {
		s.OverUnder = ptr(target.PSF/med - 1)
		if target.PSF != 0 {
			discount := med/target.PSF - 1
			s.Discount = ptr(discount)
			s.Savings = ptr(target.AppraisedValue * c.TaxRate * -discount)
		}
		r.Lower = e.lowerSubset(rows, target.PSF, med)
		s.LowerCount = len(r.Lower)
		if m, ok := medianOf(r.Lower, psfOf); ok {
			s.LowerMedianPSF = ptr(m)
		}
		if m, ok := medianOf(r.Lower, adjustedOf); ok {
			s.LowerMedianAdjusted = ptr(m)
		}
	}

	switch {
	case len(rows) < c.MinComparables || s.OverUnder == nil || s.Savings == nil:
		r.Status = StatusInsufficient
		r.Narrative = insufficientNarrative(target, len(rows), c.MinComparables)
	case target.PSF < med && *s.Savings < c.MinSavings:
		r.Status = StatusFair
		r.Narrative = fairNarrative(target, s)
	default:
		r.Status = StatusOverAssessed
		s.SavingsClaimed = *s.Savings > 0
		r.Narrative = fullNarrative(target, s)
	}
	r.Summary = s
	if r.Lower == nil {
		r.Lower = []Comparable{}
	}
	if r.Comparables == nil {
		r.Comparables = []Comparable{}
	}
	return r
}

func insufficientNarrative(target types.Property, n, need int) string {
	if n == 0 {
		return fmt.Sprintf("No comparable properties were found for %s. At least %d are needed for a reliable comparison, so no savings estimate is available.",
			target.SitusAddress, need)
	}
	return fmt.Sprintf("Only %d comparable properties were found for %s. At least %d are needed for a reliable comparison, so no savings estimate is available.",
		n, target.SitusAddress, need)
}

func fairNarrative(target types.Property, s Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s appears fairly assessed at $%s per sq ft against a median of $%s across %d comparable properties.",
		target.SitusAddress, psf(s.SubjectPSF), psf(*s.MedianPSF), s.Comparables)
	b.WriteString(" ")
	b.WriteString(lowerSentence(s))
	return b.String()
}

func fullNarrative(target types.Property, s Summary) string {
	direction := "above"
	if *s.OverUnder < 0 {
		direction = "below"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s is assessed %.1f%% %s the median of %d comparable properties ($%s vs $%s per sq ft).",
		target.SitusAddress, math.Abs(*s.OverUnder)*100, direction, s.Comparables, psf(s.SubjectPSF), psf(*s.MedianPSF))
	b.WriteString(" ")
	b.WriteString(lowerSentence(s))
	if s.SavingsClaimed {
		fmt.Fprintf(&b, " A successful appeal could save an estimated $%s per year.", money(*s.Savings))
	} else {
		b.WriteString(" No tax savings are projected.")
	}
	if s.MedianAdjustedValue != nil {
		fmt.Fprintf(&b, " Comparables adjusted to this property's size, land and age have a median value of $%s against an appraised value of $%s.",
			money(*s.MedianAdjustedValue), money(target.AppraisedValue))
	}
	return b.String()
}

func lowerSentence(s Summary) string {
	if s.LowerCount == 0 || s.LowerMedianPSF == nil {
		return "No comparables support a lower valuation."
	}
	return fmt.Sprintf("%d properties support a lower valuation with a median of $%s per sq ft.",
		s.LowerCount, psf(*s.LowerMedianPSF))
}

func money(v float64) string { return humanize.FormatFloat("#,###.", v) }

func psf(v float64) string { return humanize.FormatFloat("#,###.##", v) }

func ptr(v float64) *float64 { return &v }
