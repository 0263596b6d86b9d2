package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sw33tLie/qrsafe/pkg/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect the saved scan history",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved scans, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		output, err := getOutputFormat(cmd)
		if err != nil {
			return err
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		var entries []history.Entry
		err = withHistory(cfg, false, func(db *history.DB) error {
			entries, err = db.List(cmd.Context())
			return err
		})
		if err != nil && !errors.Is(err, errNoHistory) {
			return err
		}
		if output == "json" {
			if entries == nil {
				entries = []history.Entry{}
			}
			return printJSON(cmd.OutOrStdout(), entries)
		}
		printHistory(cmd.OutOrStdout(), entries)
		return nil
	},
}

var historyShowCmd = &cobra.Command{
	Use:     "show <id>",
	Short:   "Show one saved scan",
	Example: `  qrsafe history show 'url:https://example.com'`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		output, err := getOutputFormat(cmd)
		if err != nil {
			return err
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return withHistory(cfg, false, func(db *history.DB) error {
			entry, err := db.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if output == "json" {
				return printJSON(cmd.OutOrStdout(), entry)
			}
			printEntry(cmd.OutOrStdout(), entry)
			return nil
		})
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every saved scan",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return withHistory(cfg, true, func(db *history.DB) error {
			n, err := db.Clear(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d entries.\n", n)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyClearCmd)
	historyListCmd.Flags().StringP("output", "o", "text", "Output format: text, json")
	historyShowCmd.Flags().StringP("output", "o", "text", "Output format: text, json")
}
