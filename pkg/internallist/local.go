package internallist

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/weppos/publicsuffix-go/publicsuffix"

	"github.com/sw33tLie/qrsafe/pkg/payload"
)

//go:embed default_list.json
var defaultListJSON []byte

type listFile struct {
	PaymentServices []Service `json:"paymentServices"`
}

// DefaultServices returns the built-in payment service list.
func DefaultServices() ([]Service, error) {
	var lf listFile
	if err := json.Unmarshal(defaultListJSON, &lf); err != nil {
		return nil, fmt.Errorf("parsing built-in internal list: %w", err)
	}
	return lf.PaymentServices, nil
}

// Local resolves against a static, ordered service list.
type Local struct {
	services []Service
}

// NewLocal validates and normalizes the list. Registered domains are
// lower-cased and must not be a bare public suffix such as "com" or "ne.jp",
// which would match every site beneath it.
func NewLocal(services []Service) (*Local, error) {
	normalized := make([]Service, 0, len(services))
	for _, s := range services {
		if strings.TrimSpace(s.ServiceName) == "" {
			return nil, errors.New("internal list entry without serviceName")
		}
		svc := s
		svc.Domains = make([]string, 0, len(s.Domains))
		for _, d := range s.Domains {
			domain := normalizeDomain(d)
			if domain == "" {
				continue
			}
			if _, err := publicsuffix.Domain(domain); err != nil {
				return nil, fmt.Errorf("invalid domain %q for service %q: %v", d, s.ServiceName, err)
			}
			svc.Domains = append(svc.Domains, domain)
		}
		if len(svc.Domains) == 0 {
			return nil, fmt.Errorf("service %q has no domains", s.ServiceName)
		}
		normalized = append(normalized, svc)
	}
	return &Local{services: normalized}, nil
}

func (l *Local) Resolve(_ context.Context, rawURL string) *Result {
	host, ok := ExtractHost(rawURL)
	if !ok {
		return nil
	}
	svc, _, found := l.Match(host)
	if !found {
		return NotListed()
	}
	return ListedAs(svc)
}

// Match returns the first service, in list order, owning host either exactly
// or as a subdomain, together with the registered domain that matched.
func (l *Local) Match(host string) (Service, string, bool) {
	host = normalizeDomain(host)
	for _, svc := range l.services {
		for _, registered := range svc.Domains {
			if host == registered || strings.HasSuffix(host, "."+registered) {
				return svc, registered, true
			}
		}
	}
	return Service{}, "", false
}

// ExtractHost returns the lower-cased host of rawURL, assuming https:// unless
// it starts with an http, https or ftp scheme.
func ExtractHost(rawURL string) (string, bool) {
	candidate := strings.TrimSpace(rawURL)
	if candidate == "" {
		return "", false
	}
	if !payload.HasExplicitScheme(candidate) {
		candidate = "https://" + candidate
	}
	u, err := url.Parse(candidate)
	if err != nil {
		return "", false
	}
	host := normalizeDomain(u.Hostname())
	if host == "" {
		return "", false
	}
	return host, true
}

func normalizeDomain(d string) string {
	d = strings.ToLower(strings.TrimSpace(d))
	d = strings.TrimPrefix(d, "*.")
	return strings.TrimSuffix(d, ".")
}
