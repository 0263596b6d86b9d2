package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/sw33tLie/qrsafe/internal/config"
	"github.com/sw33tLie/qrsafe/internal/server"
	"github.com/sw33tLie/qrsafe/internal/utils"
	"github.com/sw33tLie/qrsafe/pkg/internallist"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the BFF proxy in front of the reputation provider",
	Long: `Run the BFF proxy in front of the reputation provider.

Clients talk to the proxy with the service key (server.apikey) and never see the provider key
(virustotal.apikey). The proxy also answers /resolve from the local internal list.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.VirusTotalAPIKey == "" {
			return errors.New("VirusTotal API key is not set (" + config.KeyVirusTotalAPIKey + ")")
		}
		listen, _ := cmd.Flags().GetString("listen")
		if listen == "" {
			listen = cfg.ServerListen
		}
		if cfg.ServerAPIKey == "" {
			utils.Log.Warnf("%s is not set; the proxy accepts unauthenticated requests", config.KeyServerAPIKey)
		}

		client, err := newHTTPClient(cmd)
		if err != nil {
			return err
		}
		local, err := internallist.NewLocal(cfg.Services)
		if err != nil {
			return err
		}

		return server.New(server.Config{
			APIKey:          cfg.ServerAPIKey,
			UpstreamBaseURL: cfg.VirusTotalBaseURL,
			UpstreamAPIKey:  cfg.VirusTotalAPIKey,
			Resolver:        local,
			Client:          client,
			Log:             utils.Log,
		}).Start(listen)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("listen", "", "HTTP listen address (default from server.listen)")
}
