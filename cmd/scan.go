package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sw33tLie/qrsafe/internal/config"
	"github.com/sw33tLie/qrsafe/internal/utils"
	"github.com/sw33tLie/qrsafe/pkg/history"
	"github.com/sw33tLie/qrsafe/pkg/payload"
	"github.com/sw33tLie/qrsafe/pkg/reputation"
)

var scanCmd = &cobra.Command{
	Use:   "scan <url>",
	Short: "Submit a URL to the reputation provider and wait for the verdict",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		output, err := getOutputFormat(cmd)
		if err != nil {
			return err
		}
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
		scanner, err := newScanner(cfg, client, resolver)
		if err != nil {
			return err
		}

		utils.Log.Infof("Scanning %s via %s", args[0], scanner.Provider())
		result, err := scanner.Scan(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if result.Status.Pending() {
			utils.Log.Warnf("Analysis %s has not finished yet; the verdict may change", result.ID)
		}

		if save {
			if err := saveScan(cfg, payload.Classify(args[0]), result); err != nil {
				return err
			}
		}

		if output == "json" {
			return printJSON(cmd.OutOrStdout(), result)
		}
		printAnalysis(cmd.OutOrStdout(), result)
		return nil
	},
}

// saveScan records the payload and, when given, its analysis.
func saveScan(cfg config.Config, classified payload.Classified, result *reputation.Result) error {
	return withHistory(cfg, true, func(db *history.DB) error {
		ctx := context.Background()
		entry, err := db.Add(ctx, classified, time.Now())
		if err != nil {
			return fmt.Errorf("could not save history entry: %w", err)
		}
		if result != nil {
			if _, err := db.AttachAnalysis(ctx, entry.ID, result); err != nil {
				return fmt.Errorf("could not save analysis: %w", err)
			}
		}
		utils.Log.Debugf("Saved %s to history", entry.ID)
		return nil
	})
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().StringP("output", "o", "text", "Output format: text, json")
	scanCmd.Flags().Bool("save", false, "Record the scan in the history")
}
