package whttp

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"
)

const (
	USER_AGENT      = "qrsafe/1.0 (+https://github.com/sw33tLie/qrsafe)"
	DEFAULT_TIMEOUT = 30 * time.Second
)

type WHTTPHeader struct {
	Name  string
	Value string
}

type WHTTPReq struct {
	URL     string
	Method  string
	Headers []WHTTPHeader
	Body    string
}

type WHTTPRes struct {
	StatusCode int
	Status     string
	Header     http.Header
	BodyString string
}

// OK reports whether the response carries a 2xx status code.
func (r *WHTTPRes) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// StatusText returns "<code> <reason>", used when a provider sends no usable error body.
func (r *WHTTPRes) StatusText() string {
	if r.Status != "" {
		return r.Status
	}
	return fmt.Sprintf("%d %s", r.StatusCode, http.StatusText(r.StatusCode))
}

// Options configures the shared HTTP client.
type Options struct {
	Proxy    string
	RetryMax int
	Timeout  time.Duration
	Logger   logrus.FieldLogger
}

// NewClient builds a retryablehttp client. Non-2xx responses are passed through
// to the caller once retries are exhausted so provider error bodies can be read.
func NewClient(opts Options) (*retryablehttp.Client, error) {
	client := retryablehttp.NewClient()
	client.RetryMax = opts.RetryMax
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler

	if opts.Logger != nil {
		client.Logger = leveledLogger{log: opts.Logger}
	} else {
		client.Logger = nil
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DEFAULT_TIMEOUT
	}
	client.HTTPClient.Timeout = timeout

	if opts.Proxy != "" {
		proxyURL, err := url.Parse(opts.Proxy)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy URL: %v", err)
		}
		// Intercepting proxies present their own certificates.
		client.HTTPClient.Transport = &http.Transport{
			Proxy:           http.ProxyURL(proxyURL),
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}

	return client, nil
}

func SendHTTPRequest(ctx context.Context, wReq *WHTTPReq, client *retryablehttp.Client) (*WHTTPRes, error) {
	if client == nil {
		var err error
		client, err = NewClient(Options{})
		if err != nil {
			return nil, err
		}
	}

	var body interface{}
	if wReq.Body != "" {
		body = strings.NewReader(wReq.Body)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, wReq.Method, wReq.URL, body)
	if err != nil {
		return nil, err
	}

	// Set common headers
	req.Header.Set("User-Agent", USER_AGENT)
	req.Header.Set("Accept", "application/json")

	// Set custom headers
	for _, h := range wReq.Headers {
		req.Header.Set(h.Name, h.Value)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return &WHTTPRes{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Header:     resp.Header,
		BodyString: string(bodyBytes),
	}, nil
}

// leveledLogger bridges retryablehttp's key/value logger onto logrus.
type leveledLogger struct {
	log logrus.FieldLogger
}

func (l leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.log.WithFields(toFields(keysAndValues)).Error(msg)
}

func (l leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.log.WithFields(toFields(keysAndValues)).Warn(msg)
}

func (l leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.WithFields(toFields(keysAndValues)).Debug(msg)
}

func (l leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.log.WithFields(toFields(keysAndValues)).Debug(msg)
}

func toFields(keysAndValues []interface{}) logrus.Fields {
	fields := logrus.Fields{}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprint(keysAndValues[i])
		}
		fields[key] = keysAndValues[i+1]
	}
	return fields
}
