package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sw33tLie/qrsafe/internal/config"
	"github.com/sw33tLie/qrsafe/internal/utils"
	"github.com/sw33tLie/qrsafe/pkg/history"
	"github.com/sw33tLie/qrsafe/pkg/internallist"
	"github.com/sw33tLie/qrsafe/pkg/reputation"
	"github.com/sw33tLie/qrsafe/pkg/whttp"
)

func loadConfig() (config.Config, error) {
	return config.Load(viper.GetViper())
}

func newHTTPClient(cmd *cobra.Command) (*retryablehttp.Client, error) {
	proxy, _ := cmd.Flags().GetString("proxy")
	return whttp.NewClient(whttp.Options{Proxy: proxy, Logger: utils.Log})
}

// newResolver uses the BFF's /resolve when a BFF is configured and the local
// list otherwise.
func newResolver(cfg config.Config, client *retryablehttp.Client) (internallist.Resolver, error) {
	return internallist.New(internallist.Config{
		RemoteBaseURL: cfg.BFFBaseURL,
		APIKey:        cfg.BFFAPIKey,
		Services:      cfg.Services,
		Client:        client,
		Log:           utils.Log,
	})
}

// newScanner merges the internal list into results after polling. A nil
// resolver turns that lookup off entirely, also in BFF mode.
func newScanner(cfg config.Config, client *retryablehttp.Client, resolver internallist.Resolver) (*reputation.Scanner, error) {
	return reputation.New(reputation.Config{
		APIKey:     cfg.VirusTotalAPIKey,
		BaseURL:    cfg.VirusTotalBaseURL,
		BFFBaseURL: cfg.BFFBaseURL,
		BFFAPIKey:  cfg.BFFAPIKey,
		Client:     client,
		Resolver:   resolver,
		Log:        utils.Log,

		SkipInternalList: resolver == nil,
	})
}

var errNoHistory = errors.New("no history recorded yet")

// withHistory opens the history database for fn. Writers hold the lock file
// next to the database for the duration of fn. Readers never create it and
// get errNoHistory when it does not exist yet.
func withHistory(cfg config.Config, write bool, fn func(db *history.DB) error) error {
	path, err := utils.GetAbsDBPath(cfg.HistoryDBPath)
	if err != nil {
		return err
	}

	if write {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		lock, err := utils.NewHistoryLock(path)
		if err != nil {
			return err
		}
		if err := lock.Acquire(context.Background()); err != nil {
			return err
		}
		defer func() {
			if err := lock.Release(); err != nil {
				utils.Log.Warn(err)
			}
		}()
	} else {
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) {
				return errNoHistory
			}
			return err
		}
	}

	db, err := history.Open(path)
	if err != nil {
		return fmt.Errorf("could not open history database %s: %w", path, err)
	}
	defer db.Close()
	return fn(db)
}

func payloadFromArgs(args []string) string {
	return strings.Join(args, " ")
}

func getOutputFormat(cmd *cobra.Command) (string, error) {
	output, _ := cmd.Flags().GetString("output")
	switch output {
	case "text", "json":
		return output, nil
	default:
		return "", fmt.Errorf("unknown output format %q (available: text, json)", output)
	}
}
