package dataset

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"taxprotest/internal/types"
)

const sampleCSV = `Owner_Name,Situs_Address,GIS_Link,City,MAPSCO,TAD_Map,Year_Built,Appraised_Value,Land_Value,Land_SqFt,Living_Area,Account_Num,LegalDescription,Property_Class,State_Use_Code,Exemption_Code
SMITH JOHN,"100 Main St, Fort Worth",40040-3-7,FORT WORTH,75A,2048-380,1985,"$300,000",60000,7500,1500,00001,WESTCLIFF ADDITION Block 3 Lot 7,A1,A1,HS
DOE JANE,102 MAIN ST,40040-3-8,FORT WORTH,75A,2048-380,1987,310000,61000,7600,1550,00002,WESTCLIFF ADDITION Block 3 Lot 8,A1,A1,
NO AREA,104 MAIN ST,40040-3-9,FORT WORTH,75A,2048-380,1987,310000,61000,7600,0,00003,WESTCLIFF ADDITION Block 3 Lot 9,A1,A1,
MISSING YEAR,106 MAIN ST,40040-3-10,FORT WORTH,75A,2048-380,,310000,61000,7600,1600,00004,WESTCLIFF ADDITION Block 3 Lot 10,A1,A1,
BAD VALUE,108 MAIN ST,40040-3-11,FORT WORTH,75A,2048-380,1990,n/a,61000,7600,1600,00005,WESTCLIFF ADDITION Block 3 Lot 11,A1,A1,
DUP ADDR,102 Main St.,40040-3-8,FORT WORTH,75A,2048-380,1987,250000,61000,7600,1400,00006,WESTCLIFF ADDITION Block 3 Lot 8,A1,A1,
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDropsUnusableRows(t *testing.T) {
	ds, err := Load(context.Background(), Open(writeFile(t, "roll.csv", sampleCSV)), Options{Workers: 3})
	require.NoError(t, err)

	assert.Equal(t, 3, ds.Len())
	assert.Equal(t, Stats{Rows: 6, Loaded: 3, DroppedMissing: 1, DroppedInvalid: 1, DroppedArea: 1}, ds.Stats())

	for _, p := range ds.Records() {
		assert.Greater(t, p.LivingArea, 0.0)
		assert.False(t, math.IsInf(p.PSF, 0) || math.IsNaN(p.PSF), "psf must be finite for %s", p.AccountNum)
	}

	// Source order survives the parallel parse.
	var accts []string
	for _, p := range ds.Records() {
		accts = append(accts, p.AccountNum)
	}
	assert.Equal(t, []string{"00001", "00002", "00006"}, accts)
}

func TestLoadDropsNonFiniteValues(t *testing.T) {
	header := strings.SplitN(sampleCSV, "\n", 2)[0]
	row := func(acct, appraised, land, landSqFt, living string) string {
		return strings.Join([]string{"OWNER", acct + " OAK ST", "40040-3-1", "FORT WORTH", "75A", "2048-380", "1990",
			appraised, land, landSqFt, living, acct, "WESTCLIFF ADDITION Block 3 Lot 1", "A1", "A1", ""}, ",")
	}
	roll := strings.Join([]string{
		header,
		row("A1", "NaN", "60000", "8000", "2000"),
		row("A2", "+Inf", "60000", "8000", "2000"),
		row("A3", "400000", "-Inf", "8000", "2000"),
		row("A4", "400000", "60000", "Inf", "2000"),
		row("A5", "400000", "60000", "8000", "nan"),
		row("A6", "400000", "60000", "8000", "2000"),
	}, "\n") + "\n"

	ds, err := Load(context.Background(), Open(writeFile(t, "roll.csv", roll)), Options{})
	require.NoError(t, err)

	assert.Equal(t, Stats{Rows: 6, Loaded: 1, DroppedInvalid: 5}, ds.Stats())
	require.Equal(t, 1, ds.Len())
	p := ds.Records()[0]
	assert.Equal(t, "A6", p.AccountNum)
	assert.InDelta(t, 200.0, p.PSF, 1e-9)
}

func TestLoadDerivedFields(t *testing.T) {
	ds, err := Load(context.Background(), Open(writeFile(t, "roll.csv", sampleCSV)), Options{})
	require.NoError(t, err)

	p, ok := ds.ByAccount("00001")
	require.True(t, ok)
	assert.Equal(t, 300000.0, p.AppraisedValue)
	assert.Equal(t, 1985, p.YearBuilt)
	assert.Equal(t, "WESTCLIFF ADDITION", p.Subdivision)
	assert.Equal(t, "3", p.Block)
	assert.Equal(t, "40040-3", p.GISShort)
	assert.InDelta(t, 200.0, p.PSF, 1e-9)
	assert.Equal(t, "https://www.tad.org/property?account=00001", p.RecordURL)
}

func TestLoadMissingRequiredColumn(t *testing.T) {
	csv := "Situs_Address,Living_Area\n1 A ST,1000\n"
	_, err := Load(context.Background(), Open(writeFile(t, "bad.csv", csv)), Options{})
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestLoadEmptySource(t *testing.T) {
	_, err := Load(context.Background(), Open(writeFile(t, "empty.csv", "")), Options{})
	assert.ErrorIs(t, err, ErrEmptySource)
}

func TestPipeDelimitedExport(t *testing.T) {
	pipe := strings.ReplaceAll(strings.ReplaceAll(sampleCSV, `"100 Main St, Fort Worth"`, "100 Main St Fort Worth"), `"$300,000"`, "300000")
	pipe = strings.ReplaceAll(pipe, ",", "|")
	ds, err := Load(context.Background(), Open(writeFile(t, "PropertyData.txt", pipe)), Options{})
	require.NoError(t, err)
	assert.Equal(t, 3, ds.Len())
}

func TestURLSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte(sampleCSV))
	}))
	defer srv.Close()

	ds, err := Load(context.Background(), Open(srv.URL+"/export?format=csv"), Options{})
	require.NoError(t, err)
	assert.Equal(t, 3, ds.Len())
}

func TestURLSourceBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer srv.Close()

	_, err := Load(context.Background(), &URLSource{URL: srv.URL}, Options{})
	assert.Error(t, err)
}

func TestExcelSource(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	lines := strings.Split(strings.TrimSpace(sampleCSV), "\n")
	header := strings.Split(lines[0], ",")
	for i, h := range header {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		require.NoError(t, f.SetCellValue("Sheet1", cell, h))
	}
	row := []any{"DOE JANE", "102 MAIN ST", "40040-3-8", "FORT WORTH", "75A", "2048-380", 1987, 310000, 61000, 7600, 1550, "00002", "WESTCLIFF ADDITION Block 3 Lot 8", "A1", "A1", ""}
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &row))
	path := filepath.Join(t.TempDir(), "roll.xlsx")
	require.NoError(t, f.SaveAs(path))

	ds, err := Load(context.Background(), Open(path), Options{})
	require.NoError(t, err)
	require.Equal(t, 1, ds.Len())
	p, ok := ds.ByAccount("00002")
	require.True(t, ok)
	assert.Equal(t, 1550.0, p.LivingArea)
}

func TestByAddressKeepsDuplicates(t *testing.T) {
	ds, err := Load(context.Background(), Open(writeFile(t, "roll.csv", sampleCSV)), Options{})
	require.NoError(t, err)

	// "102 Main St." normalizes differently (trailing period) so it is its own key.
	matches := ds.ByAddress("  102   main st ")
	require.Len(t, matches, 1)
	assert.Equal(t, "00002", matches[0].AccountNum)

	assert.Len(t, ds.ByAddress("100 MAIN ST FORT WORTH"), 1)
	assert.Empty(t, ds.ByAddress("999 NOWHERE"))
}

func TestSearchAndSubdivision(t *testing.T) {
	ds, err := Load(context.Background(), Open(writeFile(t, "roll.csv", sampleCSV)), Options{})
	require.NoError(t, err)

	got := ds.Search("10", 0)
	assert.Len(t, got, 3)
	assert.Len(t, ds.Search("10", 2), 2)
	assert.Empty(t, ds.Search("", 10))

	assert.Len(t, ds.InSubdivision("westcliff  addition"), 3)
}

func TestFromRecordCoordinates(t *testing.T) {
	rec := map[string]string{}
	for _, c := range types.RequiredColumns {
		rec[c] = "1"
	}
	rec[types.ColLatitude] = "32.75"
	rec[types.ColLongitude] = "-97.33"
	p, reason := fromRecord(rec)
	require.Equal(t, keep, reason)
	assert.True(t, p.HasCoords)
	assert.Equal(t, 32.75, p.Latitude)
}

func TestSplitLegal(t *testing.T) {
	tests := []struct {
		in, sub, block string
	}{
		{"WESTCLIFF ADDITION Block 12 Lot 5", "WESTCLIFF ADDITION", "12"},
		{"riverside addn blk a lot 3", "RIVERSIDE ADDN", "A"},
		{"OAK HILLS Lot 7", "OAK HILLS", ""},
		{"JOHN SMITH SURVEY A 1234 TR 5", "JOHN SMITH SURVEY A 1234 TR 5", ""},
		{"", "", ""},
	}
	for _, tt := range tests {
		sub, block := splitLegal(tt.in)
		assert.Equal(t, tt.sub, sub, tt.in)
		assert.Equal(t, tt.block, block, tt.in)
	}
}

func TestShortGIS(t *testing.T) {
	assert.Equal(t, "40040-3", shortGIS("40040-3-7"))
	assert.Equal(t, "ABC", shortGIS("abc"))
	assert.Equal(t, "", shortGIS(" "))
}

func TestParseHelpers(t *testing.T) {
	v, ok := parseDollar("$1,234.50")
	assert.True(t, ok)
	assert.Equal(t, 1234.5, v)
	_, ok = parseDollar("")
	assert.False(t, ok)
	for _, s := range []string{"NaN", "Inf", "+Inf", "-inf", "$Infinity"} {
		_, ok = parseDollar(s)
		assert.False(t, ok, s)
	}

	y, ok := parseYear("1987.0")
	assert.True(t, ok)
	assert.Equal(t, 1987, y)
	_, ok = parseYear("1987.5")
	assert.False(t, ok)

	assert.Equal(t, "100 MAIN ST FORT WORTH", Normalize(" 100 main st,  Fort Worth "))
}

func TestStoreReload(t *testing.T) {
	path := writeFile(t, "roll.csv", sampleCSV)
	st := NewStore(Open(path), Options{})
	assert.Nil(t, st.Current())

	assert.Equal(t, uint64(0), st.Generation())

	var errs []error
	st.OnReload = func(_ *Dataset, _ time.Duration, err error) { errs = append(errs, err) }

	first, err := st.Reload(context.Background())
	require.NoError(t, err)
	assert.Same(t, first, st.Current())
	assert.Equal(t, uint64(1), first.Generation())
	assert.Equal(t, uint64(1), st.Generation())

	second, err := st.Reload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(2), second.Generation())
	assert.Equal(t, uint64(1), first.Generation(), "a published dataset keeps its generation")
	assert.Equal(t, uint64(2), st.Generation())

	// A source with a header but no usable rows is rejected and reported as a failure.
	header := strings.SplitN(sampleCSV, "\n", 2)[0] + "\n"
	require.NoError(t, os.WriteFile(path, []byte(header), 0o644))
	_, err = st.Reload(context.Background())
	assert.Error(t, err)
	assert.Same(t, second, st.Current())

	// A broken source keeps the previous dataset in place.
	require.NoError(t, os.WriteFile(path, []byte("Situs_Address\n"), 0o644))
	_, err = st.Reload(context.Background())
	assert.Error(t, err)
	assert.Same(t, second, st.Current())
	assert.Equal(t, uint64(2), st.Generation())

	require.Len(t, errs, 4)
	assert.NoError(t, errs[0])
	assert.NoError(t, errs[1])
	assert.Error(t, errs[2], "empty reload must reach the hook as an error")
	assert.Error(t, errs[3])
}

func TestNewDatasetHasNoGeneration(t *testing.T) {
	assert.Equal(t, uint64(0), New(nil).Generation())
}
