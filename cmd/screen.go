package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	screenSubdivision string
	screenWorkers     int
)

// screenCmd runs the engine for every parcel in a subdivision.
var screenCmd = &cobra.Command{
	Use:     "screen",
	Short:   "List over-assessed properties in a subdivision, largest savings first",
	Example: `  taxprotest screen --subdivision "WESTCLIFF ADDITION"`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()
		return runScreen(cmd.Context(), a, screenSubdivision, screenWorkers, isTerminal())
	},
}

func runScreen(ctx context.Context, a *app, sub string, workers int, interactive bool) error {
	if workers <= 0 {
		workers = cfg.ScreenWorkers
	}
	ds := a.store.Current()
	targets := ds.InSubdivision(sub)
	if len(targets) == 0 {
		fmt.Printf("No properties found in subdivision %s\n", sub)
		return nil
	}

	start := time.Now()
	results, err := a.engine.Screen(ctx, ds, targets, workers)
	if err != nil {
		return err
	}
	fmt.Printf("\nFound %d over-assessed properties of %d in subdivision %s (%v)\n",
		len(results), len(targets), sub, time.Since(start).Truncate(time.Millisecond))

	var lines, accts []string
	for _, r := range results {
		line := fmt.Sprintf("%-40s | $/sqft: %7.2f | median: %7.2f | %s | n=%2d | save: %s/yr",
			r.Address, r.SubjectPSF, r.MedianPSF, pct(r.OverUnder), r.Comparables, money(r.Savings))
		lines = append(lines, line)
		accts = append(accts, r.AccountNum)
		fmt.Println(line)
	}
	if !interactive || len(results) == 0 {
		return nil
	}
	fmt.Println("Use ↑/↓ and Enter for details, Esc to exit.")
	interactiveSelect(accts, lines, func(acct string) {
		renderReport(os.Stdout, a.engine.ReportByAccount(a.store.Current(), acct), a.zones != nil)
	})
	return nil
}
