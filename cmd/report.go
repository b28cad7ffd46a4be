package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"taxprotest/internal/comparables"
)

var (
	reportAccount string
	reportJSON    bool
)

var errNoReport = errors.New("no report produced")

// reportCmd prints the comparable valuation report for one property.
var reportCmd = &cobra.Command{
	Use:   "report [address...]",
	Short: "Show the comparable valuation report for a property",
	Example: `  taxprotest report 100 Main St
  taxprotest report --account 00001234
  taxprotest report --json 100 Main St`,
	RunE: runReport,
}

func runReport(cmd *cobra.Command, args []string) error {
	address := strings.Join(args, " ")
	if (reportAccount == "") == (strings.TrimSpace(address) == "") {
		return errors.New("give an address or --account, not both")
	}

	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	ds := a.store.Current()
	var rep comparables.Report
	if reportAccount != "" {
		rep = a.engine.ReportByAccount(ds, reportAccount)
	} else {
		rep = a.engine.ReportByAddress(ds, address)
	}

	out := cmd.OutOrStdout()
	if reportJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rep); err != nil {
			return err
		}
	} else {
		showReport(out, a, rep, isTerminal())
	}
	if rep.Status == comparables.StatusNotFound {
		return errNoReport
	}
	return nil
}

// showReport renders rep. With a terminal, an ambiguous address opens a picker
// over the candidate accounts.
func showReport(w io.Writer, a *app, rep comparables.Report, interactive bool) {
	renderReport(w, rep, a.zones != nil)
	if rep.Status != comparables.StatusAmbiguous || !interactive {
		return
	}

	var keys, lines []string
	for _, c := range rep.Candidates {
		keys = append(keys, c.AccountNum)
		lines = append(lines, fmt.Sprintf("%-12s | %-40s | %s", c.AccountNum, c.Address, c.OwnerName))
	}
	interactiveSelect(keys, lines, func(acct string) {
		renderReport(w, a.engine.ReportByAccount(a.store.Current(), acct), a.zones != nil)
	})
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}
