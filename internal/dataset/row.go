package dataset

import (
	"strings"

	"taxprotest/internal/types"
)

// dropReason explains why a source row did not become a record.
type dropReason int

const (
	keep dropReason = iota
	dropMissing
	dropMalformed
	dropArea
)

// fromRecord converts one header-keyed row into a Property.
func fromRecord(rec map[string]string) (types.Property, dropReason) {
	for _, col := range types.RequiredColumns {
		if strings.TrimSpace(rec[col]) == "" {
			return types.Property{}, dropMissing
		}
	}

	year, ok1 := parseYear(rec[types.ColYearBuilt])
	appraised, ok2 := parseDollar(rec[types.ColAppraisedValue])
	land, ok3 := parseDollar(rec[types.ColLandValue])
	landSqFt, ok4 := parseDollar(rec[types.ColLandSqFt])
	living, ok5 := parseDollar(rec[types.ColLivingArea])
	if !ok1 || !ok2 || !ok3 || !ok4 || !ok5 || appraised < 0 {
		return types.Property{}, dropMalformed
	}
	if living <= 0 || landSqFt <= 0 {
		return types.Property{}, dropArea
	}

	p := types.Property{
		AccountNum:       strings.TrimSpace(rec[types.ColAccountNum]),
		SitusAddress:     strings.TrimSpace(rec[types.ColSitusAddress]),
		OwnerName:        strings.TrimSpace(rec[types.ColOwnerName]),
		City:             strings.TrimSpace(rec[types.ColCity]),
		GISLink:          strings.TrimSpace(rec[types.ColGISLink]),
		Mapsco:           strings.ToUpper(strings.TrimSpace(rec[types.ColMapsco])),
		TADMap:           strings.ToUpper(strings.TrimSpace(rec[types.ColTADMap])),
		LegalDescription: strings.TrimSpace(rec[types.ColLegalDescription]),
		YearBuilt:        year,
		AppraisedValue:   appraised,
		LandValue:        land,
		LandSqFt:         landSqFt,
		LivingArea:       living,
		PropertyClass:    strings.TrimSpace(rec[types.ColPropertyClass]),
		StateUseCode:     strings.TrimSpace(rec[types.ColStateUseCode]),
		ExemptionCode:    strings.TrimSpace(rec[types.ColExemptionCode]),
	}
	if lat, lon, ok := parseLatLon(rec[types.ColLatitude], rec[types.ColLongitude]); ok {
		p.Latitude, p.Longitude, p.HasCoords = lat, lon, true
	}
	derive(&p)
	return p, keep
}
