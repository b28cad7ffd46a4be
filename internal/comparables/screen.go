package comparables

import (
	"context"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"taxprotest/internal/dataset"
	"taxprotest/internal/types"
)

// ScreenResult is a parcel whose report supports an appeal.
type ScreenResult struct {
	AccountNum  string  `json:"account_num"`
	Address     string  `json:"address"`
	SubjectPSF  float64 `json:"subject_psf"`
	MedianPSF   float64 `json:"median_psf"`
	OverUnder   float64 `json:"over_under"`
	Savings     float64 `json:"savings"`
	Comparables int     `json:"comparables"`
}

// Screen evaluates every target against ds and returns those with claimed
// savings, largest savings first. At most workers reports run at once.
func (e *Engine) Screen(ctx context.Context, ds *dataset.Dataset, targets []types.Property, workers int) ([]ScreenResult, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	results := make([]*ScreenResult, len(targets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, t := range targets {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r := e.Evaluate(ds.Records(), t)
			if r.Status != StatusOverAssessed || !r.Summary.SavingsClaimed {
				return nil
			}
			results[i] = &ScreenResult{
				AccountNum:  t.AccountNum,
				Address:     t.SitusAddress,
				SubjectPSF:  t.PSF,
				MedianPSF:   *r.Summary.MedianPSF,
				OverUnder:   *r.Summary.OverUnder,
				Savings:     *r.Summary.Savings,
				Comparables: r.Summary.Comparables,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []ScreenResult
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Savings != out[j].Savings {
			return out[i].Savings > out[j].Savings
		}
		return out[i].AccountNum < out[j].AccountNum
	})
	return out, nil
}
