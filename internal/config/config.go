// Package config turns viper settings into the values the commands need.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/sw33tLie/qrsafe/internal/utils"
	"github.com/sw33tLie/qrsafe/pkg/internallist"
	"github.com/sw33tLie/qrsafe/pkg/warning"
)

const (
	KeyVirusTotalAPIKey        = "virustotal.apikey"
	KeyVirusTotalBaseURL       = "virustotal.baseurl"
	KeyBFFBaseURL              = "bff.baseurl"
	KeyBFFAPIKey               = "bff.apikey"
	KeyUseVirusTotal           = "settings.use_virustotal"
	KeyAlwaysShowStrongWarning = "settings.always_show_strong_warning"
	KeyHistoryDBPath           = "history.dbpath"
	KeyPaymentServices         = "internal_list.payment_services"
	KeyServerAPIKey            = "server.apikey"
	KeyServerListen            = "server.listen"

	DEFAULT_LISTEN = "127.0.0.1:8787"
)

type Config struct {
	VirusTotalAPIKey  string
	VirusTotalBaseURL string
	BFFBaseURL        string
	BFFAPIKey         string

	Settings warning.Settings

	HistoryDBPath string
	// Services is the local internal list, in match order.
	Services []internallist.Service

	ServerAPIKey string
	ServerListen string
}

// SetDefaults registers every key so they show up in a freshly written
// config file and can be overridden from the environment.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyVirusTotalAPIKey, "")
	v.SetDefault(KeyVirusTotalBaseURL, "")
	v.SetDefault(KeyBFFBaseURL, "")
	v.SetDefault(KeyBFFAPIKey, "")
	v.SetDefault(KeyUseVirusTotal, true)
	v.SetDefault(KeyAlwaysShowStrongWarning, false)
	v.SetDefault(KeyHistoryDBPath, "")
	v.SetDefault(KeyServerAPIKey, "")
	v.SetDefault(KeyServerListen, DEFAULT_LISTEN)
}

// Load reads the configuration. Blank values and REPLACE_WITH placeholders
// count as unset.
func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		VirusTotalAPIKey:  utils.SanitizeSetting(v.GetString(KeyVirusTotalAPIKey)),
		VirusTotalBaseURL: utils.SanitizeSetting(v.GetString(KeyVirusTotalBaseURL)),
		BFFBaseURL:        utils.SanitizeSetting(v.GetString(KeyBFFBaseURL)),
		BFFAPIKey:         utils.SanitizeSetting(v.GetString(KeyBFFAPIKey)),
		Settings: warning.Settings{
			UseReputationScan:       v.GetBool(KeyUseVirusTotal),
			AlwaysShowStrongWarning: v.GetBool(KeyAlwaysShowStrongWarning),
		},
		HistoryDBPath: utils.SanitizeSetting(v.GetString(KeyHistoryDBPath)),
		ServerAPIKey:  utils.SanitizeSetting(v.GetString(KeyServerAPIKey)),
		ServerListen:  utils.SanitizeSetting(v.GetString(KeyServerListen)),
	}
	if cfg.ServerListen == "" {
		cfg.ServerListen = DEFAULT_LISTEN
	}

	if v.IsSet(KeyPaymentServices) {
		var services []internallist.Service
		if err := v.UnmarshalKey(KeyPaymentServices, &services); err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", KeyPaymentServices, err)
		}
		for i, s := range services {
			if strings.TrimSpace(s.ServiceName) == "" {
				return Config{}, fmt.Errorf("invalid %s: entry %d has no serviceName", KeyPaymentServices, i)
			}
		}
		cfg.Services = services
	}
	if len(cfg.Services) == 0 {
		services, err := internallist.DefaultServices()
		if err != nil {
			return Config{}, err
		}
		cfg.Services = services
	}

	return cfg, nil
}
