package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sw33tLie/qrsafe/pkg/internallist"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <url>",
	Short: "Check a URL against the internal list of payment services",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		output, err := getOutputFormat(cmd)
		if err != nil {
			return err
		}
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

		result := resolver.Resolve(cmd.Context(), args[0])
		if result == nil {
			return errors.New("internal list lookup failed")
		}

		if output == "json" {
			return printJSON(cmd.OutOrStdout(), result)
		}
		fmt.Fprintln(cmd.OutOrStdout(), describeList(result))
		if domain := matchedDomain(resolver, args[0]); domain != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "matched registered domain %s\n", domain)
		}
		return nil
	},
}

// matchedDomain is only known for the local list; the remote one does not
// report it.
func matchedDomain(resolver internallist.Resolver, rawURL string) string {
	local, ok := resolver.(*internallist.Local)
	if !ok {
		return ""
	}
	host, ok := internallist.ExtractHost(rawURL)
	if !ok {
		return ""
	}
	_, registered, _ := local.Match(host)
	return registered
}

func init() {
	rootCmd.AddCommand(resolveCmd)
	resolveCmd.Flags().StringP("output", "o", "text", "Output format: text, json")
}
