package dataset

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"taxprotest/internal/types"
)

// recordURLFormat is the appraisal district's public account page.
const recordURLFormat = "https://www.tad.org/property?account=%s"

var (
	// "WESTCLIFF ADDITION Block 12 Lot 5", "RIVERSIDE ADDN BLK A LOT 3"
	blockPattern = regexp.MustCompile(`(?i)^\s*(.*?)\s+(?:BLOCK|BLK)\s+([A-Z0-9-]+)`)
	// Descriptions without a block still carry a lot: "OAK HILLS Lot 7".
	lotPattern = regexp.MustCompile(`(?i)^\s*(.*?)\s+(?:LOT|LT)\s+\S+`)
)

// splitLegal extracts the subdivision name and block number from a legal description.
func splitLegal(legal string) (subdivision, block string) {
	legal = strings.Join(strings.Fields(legal), " ")
	if legal == "" {
		return "", ""
	}
	if m := blockPattern.FindStringSubmatch(legal); m != nil {
		return strings.ToUpper(strings.TrimSpace(m[1])), strings.ToUpper(m[2])
	}
	if m := lotPattern.FindStringSubmatch(legal); m != nil {
		return strings.ToUpper(strings.TrimSpace(m[1])), ""
	}
	return strings.ToUpper(legal), ""
}

// shortGIS drops the trailing lot segment of a GIS link ("40040-3-7" -> "40040-3")
// so parcels on the same block share an identifier.
func shortGIS(link string) string {
	link = strings.ToUpper(strings.TrimSpace(link))
	if i := strings.LastIndex(link, "-"); i > 0 {
		return link[:i]
	}
	return link
}

func recordURL(account string) string {
	return fmt.Sprintf(recordURLFormat, url.QueryEscape(strings.TrimSpace(account)))
}

// derive fills in the fields computed from the raw columns.
func derive(p *types.Property) {
	p.Subdivision, p.Block = splitLegal(p.LegalDescription)
	p.GISShort = shortGIS(p.GISLink)
	p.PSF = p.AppraisedValue / p.LivingArea
	p.RecordURL = recordURL(p.AccountNum)
}
