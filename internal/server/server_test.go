package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/sw33tLie/qrsafe/pkg/internallist"
)

func newTestServer(t *testing.T, upstream string) *httptest.Server {
	t.Helper()
	s := New(Config{
		APIKey:          "svc",
		UpstreamBaseURL: upstream,
		UpstreamAPIKey:  "vt-key",
		Resolver:        mustLocal(t),
	})
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, method, target, key, contentType, body string) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(method, target, strings.NewReader(body))
	require.NoError(t, err)
	if key != "" {
		req.Header.Set("x-api-key", key)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	b, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res, string(b)
}

func TestHealthNeedsNoKey(t *testing.T) {
	srv := newTestServer(t, "http://127.0.0.1:1")
	res, body := do(t, http.MethodGet, srv.URL+"/healthz", "", "", "")
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "ok", body)
}

func TestUnauthorized(t *testing.T) {
	srv := newTestServer(t, "http://127.0.0.1:1")
	for _, key := range []string{"", "wrong"} {
		res, body := do(t, http.MethodPost, srv.URL+"/resolve", key, "application/json", `{"url":"https://paypay.ne.jp"}`)
		assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
		assert.Equal(t, "unauthorized", gjson.Get(body, "error.message").String())
	}
}

func TestSubmitAndAnalysisAreRelayed(t *testing.T) {
	var gotForm url.Values
	var gotKeys []string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKeys = append(gotKeys, r.Header.Get("x-apikey"))
		switch r.URL.Path {
		case "/urls":
			b, _ := io.ReadAll(r.Body)
			gotForm, _ = url.ParseQuery(string(b))
			w.Header().Set("Content-Type", "application/json")
			io.WriteString(w, `{"data":{"id":"an-1"}}`)
		case "/analyses/an-1":
			w.Header().Set("Content-Type", "application/json")
			io.WriteString(w, `{"data":{"id":"an-1","attributes":{"status":"queued"}}}`)
		default:
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, `{"error":{"message":"nope"}}`)
		}
	}))
	defer upstream.Close()
	srv := newTestServer(t, upstream.URL)

	res, body := do(t, http.MethodPost, srv.URL+"/urls", "svc", "application/x-www-form-urlencoded", "url="+url.QueryEscape("https://example.com/?a=b"))
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "an-1", gjson.Get(body, "data.id").String())
	assert.Equal(t, "https://example.com/?a=b", gotForm.Get("url"))

	res, body = do(t, http.MethodGet, srv.URL+"/analyses/an-1", "svc", "", "")
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "queued", gjson.Get(body, "data.attributes.status").String())

	res, body = do(t, http.MethodGet, srv.URL+"/analyses/missing", "svc", "", "")
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	assert.Equal(t, "nope", gjson.Get(body, "error.message").String())

	for _, k := range gotKeys {
		assert.Equal(t, "vt-key", k)
	}
}

func TestSubmitWithoutURL(t *testing.T) {
	srv := newTestServer(t, "http://127.0.0.1:1")
	res, _ := do(t, http.MethodPost, srv.URL+"/urls", "svc", "application/x-www-form-urlencoded", "")
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestUpstreamDown(t *testing.T) {
	upstream := httptest.NewServer(http.NotFoundHandler())
	base := upstream.URL
	upstream.Close()

	srv := newTestServer(t, base)
	res, _ := do(t, http.MethodGet, srv.URL+"/analyses/x", "svc", "", "")
	assert.Equal(t, http.StatusBadGateway, res.StatusCode)
}

func TestResolve(t *testing.T) {
	srv := newTestServer(t, "http://127.0.0.1:1")

	res, body := do(t, http.MethodPost, srv.URL+"/resolve", "svc", "application/json", `{"url":"https://sub.paypay.ne.jp/pay"}`)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.True(t, gjson.Get(body, "listed").Bool())
	assert.Equal(t, "PayPay", gjson.Get(body, "serviceName").String())

	res, body = do(t, http.MethodPost, srv.URL+"/resolve", "svc", "application/json", `{"url":"https://example.com"}`)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.False(t, gjson.Get(body, "listed").Bool())
	assert.Equal(t, gjson.Null, gjson.Get(body, "serviceName").Type)

	res, _ = do(t, http.MethodPost, srv.URL+"/resolve", "svc", "application/json", `not json`)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	res, _ = do(t, http.MethodPost, srv.URL+"/resolve", "svc", "application/json", `{"url":"http://[::1"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, res.StatusCode)
}

func TestAuthDisabledWithoutKey(t *testing.T) {
	s := New(Config{Resolver: mustLocal(t)})
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	res, _ := do(t, http.MethodPost, srv.URL+"/resolve", "", "application/json", `{"url":"https://example.com"}`)
	assert.Equal(t, http.StatusOK, res.StatusCode)
}

func mustLocal(t *testing.T) *internallist.Local {
	t.Helper()
	services, err := internallist.DefaultServices()
	require.NoError(t, err)
	local, err := internallist.NewLocal(services)
	require.NoError(t, err)
	return local
}
