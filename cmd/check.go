package cmd

import (
	"context"
	"errors"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/spf13/cobra"

	"github.com/sw33tLie/qrsafe/internal/config"
	"github.com/sw33tLie/qrsafe/internal/utils"
	"github.com/sw33tLie/qrsafe/pkg/history"
	"github.com/sw33tLie/qrsafe/pkg/inspect"
	"github.com/sw33tLie/qrsafe/pkg/internallist"
	"github.com/sw33tLie/qrsafe/pkg/payload"
	"github.com/sw33tLie/qrsafe/pkg/reputation"
)

var checkCmd = &cobra.Command{
	Use:   "check <payload>",
	Short: "Classify a payload and decide whether acting on it needs a confirmation",
	Long: `Classify a payload and decide whether acting on it needs a confirmation.

For links, the internal list of payment services is always consulted. With --analyze the link
is also submitted to the reputation provider. Without it, the verdict of the last saved analysis
of the same payload is used, if any.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		output, err := getOutputFormat(cmd)
		if err != nil {
			return err
		}
		analyze, _ := cmd.Flags().GetBool("analyze")
		save, _ := cmd.Flags().GetBool("save")

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		client, err := newHTTPClient(cmd)
		if err != nil {
			return err
		}
		resolver, err := newResolver(cfg, client)
		if err != nil {
			return err
		}
		inspector, err := newInspector(cfg, client, resolver, analyze)
		if err != nil {
			return err
		}

		raw := payloadFromArgs(args)
		opts := inspect.Options{Analyze: analyze, Settings: cfg.Settings}
		if !analyze {
			opts.Previous = previousVerdict(cfg, payload.Classify(raw))
		}

		report, err := inspector.Inspect(cmd.Context(), raw, opts)
		if err != nil {
			return err
		}

		if save {
			if err := saveScan(cfg, report.Classified, report.Analysis); err != nil {
				return err
			}
		}

		if output == "json" {
			return printJSON(cmd.OutOrStdout(), report)
		}
		printReport(cmd.OutOrStdout(), report)
		return nil
	},
}

// newInspector consults the internal list once, in parallel with the scan, so
// the scanner is built without its own post-poll lookup.
func newInspector(cfg config.Config, client *retryablehttp.Client, resolver internallist.Resolver, analyze bool) (*inspect.Inspector, error) {
	inspector := &inspect.Inspector{Resolver: resolver, Log: utils.Log}
	if analyze && cfg.Settings.UseReputationScan {
		scanner, err := newScanner(cfg, client, nil)
		if err != nil {
			return nil, err
		}
		inspector.Strategy = scanner
	}
	return inspector, nil
}

// previousVerdict looks up the last saved analysis of the payload. History
// problems are not fatal here.
func previousVerdict(cfg config.Config, classified payload.Classified) *reputation.Verdict {
	if classified.Classification.Kind() != payload.KindURL {
		return nil
	}
	var verdict *reputation.Verdict
	err := withHistory(cfg, false, func(db *history.DB) error {
		entry, err := db.Get(context.Background(), history.EntryID(classified.Classification))
		if err != nil {
			return err
		}
		if entry.Analysis != nil {
			v := entry.Analysis.Verdict
			verdict = &v
		}
		return nil
	})
	if err != nil && !errors.Is(err, history.ErrNotFound) && !errors.Is(err, errNoHistory) {
		utils.Log.Debugf("Could not read history: %v", err)
	}
	return verdict
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().StringP("output", "o", "text", "Output format: text, json")
	checkCmd.Flags().Bool("analyze", false, "Submit links to the reputation provider")
	checkCmd.Flags().Bool("save", false, "Record the payload and its analysis in the history")
}
