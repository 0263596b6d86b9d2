package internallist

import (
	"context"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
)

// Result is the outcome of an internal list lookup. Listed=false carries
// all-nil fields; Listed=true always carries a ServiceName.
type Result struct {
	Listed      bool    `json:"listed"`
	ServiceName *string `json:"serviceName"`
	Category    *string `json:"category"`
	Notice      *string `json:"notice"`
}

// NotListed is the confirmed-clean result.
func NotListed() *Result {
	return &Result{}
}

// ListedAs builds the result for a matched service.
func ListedAs(s Service) *Result {
	return &Result{
		Listed:      true,
		ServiceName: stringPtr(s.ServiceName),
		Category:    stringPtr(s.Category),
		Notice:      stringPtr(s.Notice),
	}
}

// Service is one curated entry of the internal list.
type Service struct {
	ServiceName string   `json:"serviceName" mapstructure:"serviceName"`
	Category    string   `json:"category" mapstructure:"category"`
	Domains     []string `json:"domains" mapstructure:"domains"`
	Notice      string   `json:"notice" mapstructure:"notice"`
}

// Resolver looks up whether a URL belongs to a listed service. A nil result
// means the lookup could not be performed; it never means "not listed".
type Resolver interface {
	Resolve(ctx context.Context, rawURL string) *Result
}

// Logger abstracts logging so callers can plug logrus or anything similar.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Debugf(format string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}
func (nopLogger) Debugf(string, ...interface{}) {}

// Config selects and configures a Resolver.
type Config struct {
	// RemoteBaseURL switches to remote resolution exclusively when set.
	RemoteBaseURL string
	APIKey        string
	// Services overrides the built-in list for local resolution.
	Services []Service
	Client   *retryablehttp.Client
	Log      Logger
}

// New returns the Remote resolver when a remote base URL is configured and
// the Local one otherwise. There is no fallback between the two.
func New(cfg Config) (Resolver, error) {
	if strings.TrimSpace(cfg.RemoteBaseURL) != "" {
		return NewRemote(cfg.RemoteBaseURL, cfg.APIKey, cfg.Client, cfg.Log), nil
	}

	services := cfg.Services
	if len(services) == 0 {
		var err error
		services, err = DefaultServices()
		if err != nil {
			return nil, err
		}
	}
	return NewLocal(services)
}

func stringPtr(s string) *string {
	return &s
}
