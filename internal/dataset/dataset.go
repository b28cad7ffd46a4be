package dataset

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"taxprotest/internal/types"
)

// ErrMissingColumn is returned when a source header lacks a required column.
var ErrMissingColumn = errors.New("dataset: missing required column")

// Stats counts what happened to the source rows during a load.
type Stats struct {
	Rows           int `json:"rows"`
	Loaded         int `json:"loaded"`
	DroppedMissing int `json:"dropped_missing"`
	DroppedInvalid int `json:"dropped_invalid"`
	DroppedArea    int `json:"dropped_area"`
}

// Dataset is an immutable, indexed set of parcels.
type Dataset struct {
	records  []types.Property
	byAcct   map[string]int
	byAddr   map[string][]int
	bySub    map[string][]int
	addrKeys []string // sorted normalized addresses

	source     string
	stats      Stats
	loadedAt   time.Time
	generation uint64
}

// Options tunes Load.
type Options struct {
	// Workers parsing rows; defaults to runtime.NumCPU().
	Workers int
}

// Load reads every row from src, drops unusable rows and builds the indexes.
func Load(ctx context.Context, src Source, opts Options) (*Dataset, error) {
	header, rows, err := src.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", src.Name(), err)
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[h] = i
	}
	for _, col := range types.RequiredColumns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("%w %q in %s", ErrMissingColumn, col, src.Name())
		}
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	// Each worker owns a contiguous chunk so source order survives the fan-out.
	parsed := make([]types.Property, len(rows))
	reasons := make([]dropReason, len(rows))
	chunk := (len(rows) + workers - 1) / workers
	g, gctx := errgroup.WithContext(ctx)
	for start := 0; start < len(rows); start += chunk {
		start, end := start, min(start+chunk, len(rows))
		g.Go(func() error {
			rec := make(map[string]string, len(header))
			for i := start; i < end; i++ {
				if i%1024 == 0 {
					if err := gctx.Err(); err != nil {
						return err
					}
				}
				clear(rec)
				for h, j := range index {
					if j < len(rows[i]) {
						rec[h] = rows[i][j]
					}
				}
				parsed[i], reasons[i] = fromRecord(rec)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats := Stats{Rows: len(rows)}
	records := make([]types.Property, 0, len(rows))
	for i, r := range reasons {
		switch r {
		case keep:
			records = append(records, parsed[i])
		case dropMissing:
			stats.DroppedMissing++
		case dropMalformed:
			stats.DroppedInvalid++
		case dropArea:
			stats.DroppedArea++
		}
	}
	stats.Loaded = len(records)

	ds := New(records)
	ds.source = src.Name()
	ds.stats = stats
	return ds, nil
}

// New indexes records that are already parsed and derived.
func New(records []types.Property) *Dataset {
	ds := &Dataset{
		records:  records,
		byAcct:   make(map[string]int, len(records)),
		byAddr:   make(map[string][]int, len(records)),
		bySub:    make(map[string][]int),
		stats:    Stats{Rows: len(records), Loaded: len(records)},
		loadedAt: time.Now(),
	}
	for i, p := range records {
		if _, dup := ds.byAcct[p.AccountNum]; !dup {
			ds.byAcct[p.AccountNum] = i
		}
		key := Normalize(p.SitusAddress)
		if _, seen := ds.byAddr[key]; !seen {
			ds.addrKeys = append(ds.addrKeys, key)
		}
		ds.byAddr[key] = append(ds.byAddr[key], i)
		if p.Subdivision != "" {
			ds.bySub[p.Subdivision] = append(ds.bySub[p.Subdivision], i)
		}
	}
	sort.Strings(ds.addrKeys)
	return ds
}

// Records returns the full record slice. Callers must not modify it.
func (d *Dataset) Records() []types.Property { return d.records }

func (d *Dataset) Len() int { return len(d.records) }

func (d *Dataset) Stats() Stats { return d.stats }

func (d *Dataset) Source() string { return d.source }

func (d *Dataset) LoadedAt() time.Time { return d.loadedAt }

// Generation is the Store reload that published d; 0 for datasets built outside a Store.
func (d *Dataset) Generation() uint64 { return d.generation }

// ByAccount returns the record with the given account number.
func (d *Dataset) ByAccount(acct string) (types.Property, bool) {
	i, ok := d.byAcct[strings.TrimSpace(acct)]
	if !ok {
		return types.Property{}, false
	}
	return d.records[i], true
}

// ByAddress returns every record whose normalized situs address matches, in load order.
func (d *Dataset) ByAddress(addr string) []types.Property {
	return d.pick(d.byAddr[Normalize(addr)])
}

// InSubdivision returns the records whose derived subdivision equals name.
func (d *Dataset) InSubdivision(name string) []types.Property {
	return d.pick(d.bySub[strings.ToUpper(strings.Join(strings.Fields(name), " "))])
}

// Search returns records whose address starts with prefix, ordered by address,
// stopping after limit records when limit > 0.
func (d *Dataset) Search(prefix string, limit int) []types.Property {
	prefix = Normalize(prefix)
	if prefix == "" {
		return nil
	}
	var out []types.Property
	for i := sort.SearchStrings(d.addrKeys, prefix); i < len(d.addrKeys); i++ {
		key := d.addrKeys[i]
		if !strings.HasPrefix(key, prefix) {
			break
		}
		for _, idx := range d.byAddr[key] {
			if limit > 0 && len(out) >= limit {
				return out
			}
			out = append(out, d.records[idx])
		}
	}
	return out
}

func (d *Dataset) pick(idx []int) []types.Property {
	if len(idx) == 0 {
		return nil
	}
	out := make([]types.Property, len(idx))
	for i, j := range idx {
		out[i] = d.records[j]
	}
	return out
}
