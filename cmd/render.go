package main

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/dustin/go-humanize"

	"taxprotest/internal/comparables"
	"taxprotest/internal/types"
)

const (
	ruleWidth = 80
	barWidth  = 40
)

func money(v float64) string { return "$" + humanize.FormatFloat("#,###.", v) }

func area(v float64) string { return humanize.FormatFloat("#,###.", v) }

func pct(v float64) string { return fmt.Sprintf("%+.1f%%", v*100) }

// renderReport prints the report in the same labeled layout the lookup screen uses.
func renderReport(w io.Writer, rep comparables.Report, zoningLoaded bool) {
	rule := strings.Repeat("-", ruleWidth)

	switch rep.Status {
	case comparables.StatusNotFound:
		fmt.Fprintln(w, rep.Narrative)
		return
	case comparables.StatusAmbiguous:
		fmt.Fprintln(w, rep.Narrative)
		for _, c := range rep.Candidates {
			fmt.Fprintf(w, "  %-12s | %-40s | %-28s | %s\n", c.AccountNum, c.Address, c.OwnerName, money(c.AppraisedValue))
		}
		return
	}

	cur := rep.Subject
	fmt.Fprintln(w, rule)
	renderSubject(w, cur)
	switch {
	case rep.SubjectZoning != "":
		fmt.Fprintf(w, "Zoning            : %s\n", rep.SubjectZoning)
	case !zoningLoaded:
	case !cur.HasCoords:
		fmt.Fprintln(w, "Latitude/Longitude unavailable; cannot determine zoning")
	default:
		fmt.Fprintln(w, "No zoning attributes found")
	}
	fmt.Fprintln(w)

	s := rep.Summary
	fmt.Fprintf(w, "Status            : %s\n", statusLabel(rep.Status))
	if s.MedianPSF != nil {
		fmt.Fprintf(w, "Median $/sqft     : %.2f (%d comparables)\n", *s.MedianPSF, s.Comparables)
	} else {
		fmt.Fprintf(w, "Comparables       : %d\n", s.Comparables)
	}
	if s.OverUnder != nil {
		fmt.Fprintf(w, "Over/Under        : %s\n", pct(*s.OverUnder))
	}
	if s.Savings != nil && s.SavingsClaimed {
		fmt.Fprintf(w, "Est. Savings      : %s%s / yr%s\n", colorGreen, money(*s.Savings), colorReset)
	}
	if s.MedianAdjustedValue != nil {
		fmt.Fprintf(w, "Median Adjusted   : %s\n", money(*s.MedianAdjustedValue))
	}
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, rep.Narrative)

	if len(rep.Comparables) > 0 {
		fmt.Fprintf(w, "\nComparables (%d):\n", len(rep.Comparables))
		renderTable(w, rep.Comparables, cur.AccountNum)
	}
	if len(rep.Lower) > 0 {
		fmt.Fprintf(w, "\nSupporting a lower valuation (%d):\n", len(rep.Lower))
		renderTable(w, rep.Lower, cur.AccountNum)
	}
	if rep.Histogram != nil && len(rep.Histogram.Counts) > 0 {
		fmt.Fprintln(w, "\n$/sqft distribution:")
		renderHistogram(w, rep.Histogram)
	}
	fmt.Fprintln(w, rule)
}

func renderSubject(w io.Writer, cur *types.Property) {
	fmt.Fprintf(w, "Address           : %s\n", cur.SitusAddress)
	fmt.Fprintf(w, "Account           : %s\n", cur.AccountNum)
	if cur.OwnerName != "" {
		fmt.Fprintf(w, "Owner             : %s\n", cur.OwnerName)
	}
	sub := cur.Subdivision
	if cur.Block != "" {
		sub += " (Block " + cur.Block + ")"
	}
	fmt.Fprintf(w, "Subdivision       : %s\n", sub)
	fmt.Fprintf(w, "Class / Use       : %s / %s\n", cur.PropertyClass, cur.StateUseCode)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Appraised Value   : %s\n", money(cur.AppraisedValue))
	fmt.Fprintf(w, "  Land            : %s\n", money(cur.LandValue))
	fmt.Fprintf(w, "Year Built        : %d\n", cur.YearBuilt)
	fmt.Fprintf(w, "Living Area (sf)  : %s\n", area(cur.LivingArea))
	fmt.Fprintf(w, "Land (sf)         : %s\n", area(cur.LandSqFt))
	fmt.Fprintf(w, "$/sqft            : %.2f\n", cur.PSF)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "TAD URL           : %s\n", cur.RecordURL)
}

func statusLabel(s comparables.Status) string {
	switch s {
	case comparables.StatusOverAssessed:
		return colorRed + "OVER ASSESSED" + colorReset
	case comparables.StatusFair:
		return colorGreen + "FAIRLY ASSESSED" + colorReset
	case comparables.StatusInsufficient:
		return colorYellow + "INSUFFICIENT COMPARABLES" + colorReset
	default:
		return string(s)
	}
}

// renderTable prints comparable rows; the subject's own row is bolded.
func renderTable(w io.Writer, rows []comparables.Comparable, subject string) {
	fmt.Fprintf(w, "  %-12s %-32s %8s %7s %5s %12s %12s %8s\n",
		"Account", "Address", "$/sqft", "Living", "Year", "Appraised", "Adjusted", "vs Med")
	for _, r := range rows {
		line := fmt.Sprintf("  %-12s %-32s %8.2f %7s %5d %12s %12s %8s",
			r.AccountNum, truncate(r.Address, 32), r.PSF, area(r.LivingArea), r.YearBuilt, money(r.AppraisedValue), money(r.AdjustedValue), pct(r.MedianRatio))
		if r.AccountNum == subject {
			line = colorBold + line + colorReset
		}
		fmt.Fprintln(w, line)
	}
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// renderHistogram draws one bar per bin and tags the bins holding each reference line.
func renderHistogram(w io.Writer, h *comparables.Histogram) {
	peak := 0
	for _, c := range h.Counts {
		peak = max(peak, c)
	}
	marks := make(map[int][]string)
	for _, l := range h.Lines {
		if i := binOf(h.Edges, l.Value); i >= 0 {
			marks[i] = append(marks[i], l.Label)
		}
	}
	for i, c := range h.Counts {
		n := 0
		if peak > 0 {
			n = c * barWidth / peak
		}
		if c > 0 && n == 0 {
			n = 1
		}
		line := fmt.Sprintf("  %8.2f - %8.2f | %-*s %d", h.Edges[i], h.Edges[i+1], barWidth, strings.Repeat("#", n), c)
		if m := marks[i]; len(m) > 0 {
			line += "  <- " + strings.Join(m, ", ")
		}
		fmt.Fprintln(w, line)
	}
}

// binOf returns the bin containing v, or -1 outside the edges.
func binOf(edges []float64, v float64) int {
	for i := 0; i+1 < len(edges); i++ {
		if v >= edges[i] && v < edges[i+1] {
			return i
		}
	}
	return -1
}
