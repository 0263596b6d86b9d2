package cmd

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/sw33tLie/qrsafe/internal/config"
	"github.com/sw33tLie/qrsafe/pkg/history"
	"github.com/sw33tLie/qrsafe/pkg/inspect"
	"github.com/sw33tLie/qrsafe/pkg/internallist"
	"github.com/sw33tLie/qrsafe/pkg/payload"
	"github.com/sw33tLie/qrsafe/pkg/warning"
	"github.com/sw33tLie/qrsafe/pkg/whttp"
)

func TestCheckAnalyzeResolvesOnce(t *testing.T) {
	var resolves int32
	bff := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/urls":
			io.WriteString(w, `{"data":{"type":"analysis","id":"an-1"}}`)
		case "/analyses/an-1":
			io.WriteString(w, `{"data":{"id":"an-1","attributes":{"status":"completed","date":1700000000,
				"stats":{"harmless":3,"malicious":0,"suspicious":0,"undetected":0,"timeout":0},"results":{}}}}`)
		case "/resolve":
			atomic.AddInt32(&resolves, 1)
			io.WriteString(w, `{"listed":true,"serviceName":"PayPay","category":"payment","notice":"n"}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer bff.Close()

	cfg := config.Config{BFFBaseURL: bff.URL, Settings: warning.DefaultSettings()}
	client, err := whttp.NewClient(whttp.Options{})
	if err != nil {
		t.Fatal(err)
	}
	resolver, err := newResolver(cfg, client)
	if err != nil {
		t.Fatal(err)
	}
	inspector, err := newInspector(cfg, client, resolver, true)
	if err != nil {
		t.Fatal(err)
	}

	report, err := inspector.Inspect(context.Background(), "https://paypay.ne.jp/pay", inspect.Options{Analyze: true, Settings: cfg.Settings})
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if n := atomic.LoadInt32(&resolves); n != 1 {
		t.Fatalf("expected one /resolve call, got %d", n)
	}
	if report.Analysis == nil {
		t.Fatal("expected an analysis")
	}
	if report.InternalList == nil || !report.InternalList.Listed {
		t.Fatalf("expected a listed result, got %+v", report.InternalList)
	}
}

func TestPreviousVerdictDoesNotCreateHistory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "sub", "history.sqlite")
	cfg := config.Config{HistoryDBPath: dbPath}

	if v := previousVerdict(cfg, payload.Classify("https://example.com")); v != nil {
		t.Fatalf("expected no verdict, got %v", *v)
	}
	if _, err := os.Stat(filepath.Dir(dbPath)); !os.IsNotExist(err) {
		t.Fatalf("history directory must not be created by a read, stat err = %v", err)
	}
}

func TestWithHistoryReaderReportsMissingDB(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.sqlite")
	called := false
	err := withHistory(config.Config{HistoryDBPath: dbPath}, false, func(*history.DB) error {
		called = true
		return nil
	})
	if !errors.Is(err, errNoHistory) {
		t.Fatalf("expected errNoHistory, got %v", err)
	}
	if called {
		t.Fatal("reader callback ran without a database")
	}
	if _, err := os.Stat(dbPath); !os.IsNotExist(err) {
		t.Fatalf("database file must not be created by a read, stat err = %v", err)
	}
}

func TestMatchedDomain(t *testing.T) {
	local, err := internallist.NewLocal([]internallist.Service{
		{ServiceName: "PayPay", Domains: []string{"paypay.ne.jp"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := matchedDomain(local, "qr.paypay.ne.jp/x?next=https://example.com"); got != "paypay.ne.jp" {
		t.Errorf("got %q", got)
	}
	if got := matchedDomain(local, "https://example.com"); got != "" {
		t.Errorf("unexpected match %q", got)
	}
	remote := internallist.NewRemote("https://bff.example", "", nil, nil)
	if got := matchedDomain(remote, "https://paypay.ne.jp"); got != "" {
		t.Errorf("remote resolver has no matched domain, got %q", got)
	}
}
