package dataset

import (
	"math"
	"strconv"
	"strings"
)

// Normalize produces a canonical form of an address key.
func Normalize(addr string) string {
	addr = strings.ToUpper(strings.TrimSpace(addr))
	addr = strings.ReplaceAll(addr, ",", "")
	addr = strings.Join(strings.Fields(addr), " ") // collapse whitespace
	return addr
}

// parseDollar accepts plain numbers as well as "$1,234.50" style currency.
// NaN and infinities are rejected.
func parseDollar(s string) (float64, bool) {
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, "$", "")
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	return v, err == nil && finite(v)
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// parseYear accepts "1987" as well as "1987.0", which spreadsheet exports produce.
func parseYear(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if y, err := strconv.Atoi(s); err == nil {
		return y, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int(f)) {
		return 0, false
	}
	return int(f), true
}

func parseLatLon(latStr, lonStr string) (float64, float64, bool) {
	lat, err1 := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	lon, err2 := strconv.ParseFloat(strings.TrimSpace(lonStr), 64)
	return lat, lon, err1 == nil && err2 == nil && finite(lat) && finite(lon)
}
