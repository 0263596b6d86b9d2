package reputation

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sethvargo/go-retry"
	"github.com/tidwall/gjson"

	"github.com/sw33tLie/qrsafe/pkg/internallist"
	"github.com/sw33tLie/qrsafe/pkg/payload"
	"github.com/sw33tLie/qrsafe/pkg/whttp"
)

const (
	DEFAULT_BASE_URL          = "https://www.virustotal.com/api/v3"
	DEFAULT_POLL_INTERVAL     = 1500 * time.Millisecond
	DEFAULT_MAX_POLL_ATTEMPTS = 10
)

var errStillPending = errors.New("analysis still pending")

// Config configures a Scanner. BFFBaseURL, when set, selects the BFF
// transport; otherwise the provider is called directly with APIKey.
type Config struct {
	APIKey  string
	BaseURL string

	BFFBaseURL string
	BFFAPIKey  string

	Client *retryablehttp.Client
	// Resolver is consulted once after polling settles. The BFF transport
	// defaults to the remote resolver on the same base URL.
	Resolver internallist.Resolver
	// SkipInternalList turns the post-poll lookup off for callers that
	// consult the internal list themselves.
	SkipInternalList bool

	PollInterval    time.Duration
	MaxPollAttempts int
	Log             Logger
}

// transport captures what differs between calling the provider directly and
// going through the BFF proxy.
type transport interface {
	provider() Provider
	baseURL() string
	authHeaders() []whttp.WHTTPHeader
}

type directTransport struct {
	base   string
	apiKey string
}

func (t directTransport) provider() Provider { return ProviderVirusTotal }
func (t directTransport) baseURL() string    { return t.base }
func (t directTransport) authHeaders() []whttp.WHTTPHeader {
	return []whttp.WHTTPHeader{{Name: "x-apikey", Value: t.apiKey}}
}

type bffTransport struct {
	base   string
	apiKey string
}

func (t bffTransport) provider() Provider { return ProviderBFF }
func (t bffTransport) baseURL() string    { return t.base }
func (t bffTransport) authHeaders() []whttp.WHTTPHeader {
	if t.apiKey == "" {
		return nil
	}
	return []whttp.WHTTPHeader{{Name: "x-api-key", Value: t.apiKey}}
}

// Scanner submits URLs for analysis and polls until they settle.
type Scanner struct {
	transport    transport
	client       *retryablehttp.Client
	resolver     internallist.Resolver
	pollInterval time.Duration
	maxAttempts  int
	log          Logger
}

// New picks the BFF transport when a BFF base URL is configured and the
// direct one otherwise.
func New(cfg Config) (*Scanner, error) {
	if strings.TrimSpace(cfg.BFFBaseURL) != "" {
		return NewBFF(cfg)
	}
	return NewDirect(cfg)
}

// NewDirect talks to the provider API with the provider API key.
func NewDirect(cfg Config) (*Scanner, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, newError(ErrConfig, "VirusTotal API key is not set (virustotal.apikey)", nil)
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = DEFAULT_BASE_URL
	}
	return newScanner(cfg, directTransport{base: base, apiKey: apiKey}, cfg.Resolver), nil
}

// NewBFF talks to the backend-for-frontend proxy with the service credential.
func NewBFF(cfg Config) (*Scanner, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BFFBaseURL), "/")
	if base == "" {
		return nil, newError(ErrConfig, "BFF base URL is not set (bff.baseurl)", nil)
	}
	apiKey := strings.TrimSpace(cfg.BFFAPIKey)
	resolver := cfg.Resolver
	if resolver == nil && !cfg.SkipInternalList {
		resolver = internallist.NewRemote(base, apiKey, cfg.Client, cfg.Log)
	}
	return newScanner(cfg, bffTransport{base: base, apiKey: apiKey}, resolver), nil
}

func newScanner(cfg Config, t transport, resolver internallist.Resolver) *Scanner {
	log := cfg.Log
	if log == nil {
		log = nopLogger{}
	}
	interval := cfg.PollInterval
	if interval <= 0 {
		interval = DEFAULT_POLL_INTERVAL
	}
	if cfg.SkipInternalList {
		resolver = nil
	}
	attempts := cfg.MaxPollAttempts
	if attempts <= 0 {
		attempts = DEFAULT_MAX_POLL_ATTEMPTS
	}
	return &Scanner{
		transport:    t,
		client:       cfg.Client,
		resolver:     resolver,
		pollInterval: interval,
		maxAttempts:  attempts,
		log:          log,
	}
}

// Provider reports which transport the scanner uses.
func (s *Scanner) Provider() Provider {
	return s.transport.provider()
}

// Scan submits rawURL, then re-fetches the analysis at a fixed interval while
// it is queued or in progress, up to the retry budget. Running out of budget
// is not an error: the latest snapshot is returned as is. Cancelling ctx stops
// further waits.
func (s *Scanner) Scan(ctx context.Context, rawURL string) (*Result, error) {
	target := strings.TrimSpace(rawURL)
	if target == "" {
		return nil, newError(ErrInvalidInput, "enter a URL to analyze", nil)
	}
	if !looksLikeURL(target) {
		return nil, newError(ErrInvalidInput, "not a valid http, https or ftp URL: "+target, nil)
	}

	analysisID, err := s.submit(ctx, target)
	if err != nil {
		return nil, err
	}
	s.log.Debugf("[reputation] %s submitted as analysis %s via %s", target, analysisID, s.transport.provider())

	var current *Result
	fetches := 0
	backoff := retry.WithMaxRetries(uint64(s.maxAttempts), retry.NewConstant(s.pollInterval))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		snapshot, err := s.fetchAnalysis(ctx, analysisID, target)
		if err != nil {
			return err
		}
		fetches++
		current = snapshot
		if current.Status.Pending() {
			s.log.Debugf("[reputation] analysis %s is %s (fetch %d)", analysisID, current.Status, fetches)
			return retry.RetryableError(errStillPending)
		}
		return nil
	})
	if err != nil && !errors.Is(err, errStillPending) {
		return nil, err
	}
	if current.Status.Pending() {
		s.log.Infof("Analysis %s still %s after %d fetches, returning the latest snapshot", analysisID, current.Status, fetches)
	}

	if s.resolver != nil {
		if list := s.resolver.Resolve(ctx, target); list != nil {
			current = current.WithInternalList(list)
		} else {
			s.log.Warnf("Internal list result unavailable for %s", target)
		}
	}

	return current, nil
}

func (s *Scanner) submit(ctx context.Context, target string) (string, error) {
	headers := append([]whttp.WHTTPHeader{
		{Name: "Content-Type", Value: "application/x-www-form-urlencoded"},
	}, s.transport.authHeaders()...)

	res, err := whttp.SendHTTPRequest(ctx, &whttp.WHTTPReq{
		Method:  http.MethodPost,
		URL:     s.transport.baseURL() + "/urls",
		Headers: headers,
		Body:    url.Values{"url": {target}}.Encode(),
	}, s.client)
	if err != nil {
		return "", newError(ErrTransport, "URL submission failed", err)
	}
	if !res.OK() {
		return "", newError(ErrTransport, "URL submission failed: "+extractError(res), nil)
	}

	analysisID := gjson.Get(res.BodyString, "data.id").String()
	if analysisID == "" {
		return "", newError(ErrProtocol, "could not obtain an analysis id", nil)
	}
	return analysisID, nil
}

func (s *Scanner) fetchAnalysis(ctx context.Context, analysisID, target string) (*Result, error) {
	res, err := whttp.SendHTTPRequest(ctx, &whttp.WHTTPReq{
		Method:  http.MethodGet,
		URL:     s.transport.baseURL() + "/analyses/" + url.PathEscape(analysisID),
		Headers: s.transport.authHeaders(),
	}, s.client)
	if err != nil {
		return nil, newError(ErrTransport, "fetching the analysis failed", err)
	}
	if !res.OK() {
		return nil, newError(ErrTransport, "fetching the analysis failed: "+extractError(res), nil)
	}
	return normalizeAnalysis(res.BodyString, target, s.transport.provider())
}

func looksLikeURL(target string) bool {
	candidate := target
	if !payload.HasExplicitScheme(candidate) {
		candidate = "https://" + candidate
	}
	_, ok := payload.NormalizeURL(candidate)
	return ok
}
