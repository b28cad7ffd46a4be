package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"taxprotest/internal/config"
	"taxprotest/internal/observability"
)

var (
	// Global flags
	configPath string
	dataPath   string
	verbose    bool

	cfg config.Config
)

const (
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBold   = "\033[1m"
	colorReset  = "\033[0m"
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "taxprotest",
	Short: "Compare a parcel's appraisal against its neighbors and estimate protest savings",
	Long: `taxprotest loads the appraisal district's certified roll, selects comparable
parcels for a property and reports whether it is assessed above the comparable
median, how much an appeal could save, and which comparables support a lower value.

Run without arguments for an interactive lookup prompt.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if dataPath != "" {
			cfg.DataPath = dataPath
			cfg.Database.Driver = ""
		}
		log.Logger = observability.NewLogger(cfg.Dev(), verbose)
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()
		runPrompt(cmd.Context(), a)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file (default: $CONFIG_PATH or config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&dataPath, "data", "d", "", "Roll export path or URL; overrides config and database")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	reportCmd.Flags().StringVar(&reportAccount, "account", "", "Look up by account number instead of address")
	reportCmd.Flags().BoolVar(&reportJSON, "json", false, "Print the report as JSON")

	screenCmd.Flags().StringVar(&screenSubdivision, "subdivision", "", "Subdivision name to screen (required)")
	screenCmd.Flags().IntVar(&screenWorkers, "workers", 0, "Concurrent evaluations (default: config screen_workers or CPU count)")
	screenCmd.MarkFlagRequired("subdivision")

	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(screenCmd)
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runPrompt is the interactive loop for multiple lookups.
func runPrompt(ctx context.Context, a *app) {
	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("Enter address, acct=<Account>, sub=<Subdivision> (blank to quit): ")
		input, _ := reader.ReadString('\n')
		in := strings.TrimSpace(input)
		if in == "" {
			return
		}

		if sub, ok := cutAnyPrefix(in, "sub=", "sub:"); ok {
			if err := runScreen(ctx, a, sub, 0, isTerminal()); err != nil {
				fmt.Printf("Screen failed: %v\n", err)
			}
			continue
		}
		if acct, ok := cutAnyPrefix(in, "acct=", "acct:"); ok {
			showReport(os.Stdout, a, a.engine.ReportByAccount(a.store.Current(), acct), isTerminal())
			continue
		}

		// Default: treat input as an address search
		showReport(os.Stdout, a, a.engine.ReportByAddress(a.store.Current(), in), isTerminal())
	}
}

func cutAnyPrefix(s string, prefixes ...string) (string, bool) {
	for _, p := range prefixes {
		if strings.HasPrefix(strings.ToLower(s), p) {
			return strings.TrimSpace(s[len(p):]), true
		}
	}
	return "", false
}
