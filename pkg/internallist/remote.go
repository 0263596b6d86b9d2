package internallist

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"

	"github.com/sw33tLie/qrsafe/pkg/whttp"
)

const resolvePath = "/resolve"

// Remote asks a resolver endpoint (usually the BFF) about a URL. Every failure
// is logged and reported as a nil result.
type Remote struct {
	baseURL string
	apiKey  string
	client  *retryablehttp.Client
	log     Logger
}

func NewRemote(baseURL, apiKey string, client *retryablehttp.Client, log Logger) *Remote {
	if log == nil {
		log = nopLogger{}
	}
	return &Remote{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:  apiKey,
		client:  client,
		log:     log,
	}
}

func (r *Remote) Resolve(ctx context.Context, rawURL string) *Result {
	body, err := json.Marshal(map[string]string{"url": rawURL})
	if err != nil {
		r.log.Warnf("Internal list lookup failed: %v", err)
		return nil
	}

	headers := []whttp.WHTTPHeader{{Name: "Content-Type", Value: "application/json"}}
	if r.apiKey != "" {
		headers = append(headers, whttp.WHTTPHeader{Name: "x-api-key", Value: r.apiKey})
	}

	res, err := whttp.SendHTTPRequest(ctx, &whttp.WHTTPReq{
		Method:  http.MethodPost,
		URL:     r.baseURL + resolvePath,
		Headers: headers,
		Body:    string(body),
	}, r.client)
	if err != nil {
		r.log.Warnf("Internal list lookup failed: %v", err)
		return nil
	}
	if !res.OK() {
		r.log.Warnf("Internal list lookup failed: %s", res.StatusText())
		return nil
	}

	result, ok := parseResult(res.BodyString)
	if !ok {
		r.log.Warnf("Internal list lookup returned an unreadable body")
		return nil
	}
	if result.Listed && result.ServiceName == nil {
		// A listed answer must name its service; fall back to the host.
		host, _ := ExtractHost(rawURL)
		result.ServiceName = stringPtr(host)
	}
	return result
}

func parseResult(body string) (*Result, bool) {
	if !gjson.Valid(body) {
		return nil, false
	}
	listed := gjson.Get(body, "listed")
	if listed.Type != gjson.True && listed.Type != gjson.False {
		return nil, false
	}
	if !listed.Bool() {
		return NotListed(), true
	}
	return &Result{
		Listed:      true,
		ServiceName: nullableString(gjson.Get(body, "serviceName")),
		Category:    nullableString(gjson.Get(body, "category")),
		Notice:      nullableString(gjson.Get(body, "notice")),
	}, true
}

func nullableString(v gjson.Result) *string {
	if v.Type != gjson.String {
		return nil
	}
	return stringPtr(v.Str)
}
