package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// ErrEmptySource is returned when a source has no header row.
var ErrEmptySource = errors.New("dataset: source is empty")

// Source yields a header row and the data rows beneath it.
type Source interface {
	Name() string
	Read(ctx context.Context) (header []string, rows [][]string, err error)
}

// Open picks a Source for a location: http(s) URLs are fetched as CSV, .xlsx files
// are read as workbooks, .txt files are the district's pipe-delimited export and
// anything else is comma-separated.
func Open(location string) Source {
	lower := strings.ToLower(location)
	switch {
	case strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://"):
		return &URLSource{URL: location}
	case filepath.Ext(lower) == ".xlsx":
		return &ExcelSource{Path: location}
	case filepath.Ext(lower) == ".txt":
		return &FileSource{Path: location, Delimiter: '|'}
	default:
		return &FileSource{Path: location, Delimiter: ','}
	}
}

// FileSource reads a delimited text file with a header row.
type FileSource struct {
	Path      string
	Delimiter rune
}

func (s *FileSource) Name() string { return s.Path }

func (s *FileSource) Read(ctx context.Context) ([]string, [][]string, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	return readDelimited(ctx, f, s.Delimiter)
}

// URLSource downloads a CSV export, e.g. a published spreadsheet.
type URLSource struct {
	URL    string
	Client *http.Client
}

func (s *URLSource) Name() string { return s.URL }

func (s *URLSource) Read(ctx context.Context) ([]string, [][]string, error) {
	client := s.Client
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch %s: %w", s.URL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("fetch %s: unexpected status %s", s.URL, resp.Status)
	}
	return readDelimited(ctx, resp.Body, ',')
}

// ExcelSource reads the first sheet of a workbook (or Sheet when set).
type ExcelSource struct {
	Path  string
	Sheet string
}

func (s *ExcelSource) Name() string { return s.Path }

func (s *ExcelSource) Read(ctx context.Context) ([]string, [][]string, error) {
	f, err := excelize.OpenFile(s.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheet := s.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, nil, ErrEmptySource
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read %s: %w", sheet, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	if len(rows) == 0 {
		return nil, nil, ErrEmptySource
	}
	return trimHeader(rows[0]), rows[1:], nil
}

func readDelimited(ctx context.Context, r io.Reader, delim rune) ([]string, [][]string, error) {
	cr := csv.NewReader(r)
	cr.Comma = delim
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = false

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil, ErrEmptySource
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}

	var rows [][]string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read row %d: %w", len(rows)+2, err)
		}
		rows = append(rows, rec)
		if len(rows)%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, nil, err
			}
		}
	}
	return trimHeader(header), rows, nil
}

func trimHeader(h []string) []string {
	out := make([]string, len(h))
	for i, c := range h {
		// Excel CSV exports prefix the first column with a UTF-8 BOM.
		out[i] = strings.TrimSpace(strings.TrimPrefix(c, "\ufeff"))
	}
	return out
}
