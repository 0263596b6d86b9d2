package cmd

import (
	"github.com/spf13/cobra"

	"github.com/sw33tLie/qrsafe/pkg/payload"
)

var classifyCmd = &cobra.Command{
	Use:   "classify <payload>",
	Short: "Show what kind of data a QR payload contains",
	Example: `  qrsafe classify 'WIFI:S:home;T:WPA;P:secret;;'
  qrsafe classify tel:+81312345678 -o json`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		output, err := getOutputFormat(cmd)
		if err != nil {
			return err
		}

		classified := payload.Classify(payloadFromArgs(args))
		if output == "json" {
			return printJSON(cmd.OutOrStdout(), classified)
		}
		printClassified(cmd.OutOrStdout(), classified)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(classifyCmd)
	classifyCmd.Flags().StringP("output", "o", "text", "Output format: text, json")
}
