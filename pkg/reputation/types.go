package reputation

import (
	"context"

	"github.com/sw33tLie/qrsafe/pkg/internallist"
)

// Verdict is the aggregated safety judgment of a scan.
type Verdict string

const (
	VerdictSafe    Verdict = "safe"
	VerdictWarning Verdict = "warning"
	VerdictDanger  Verdict = "danger"
	VerdictUnknown Verdict = "unknown"
)

// Status is the provider-side lifecycle of an analysis.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Pending reports whether the analysis may still change.
func (s Status) Pending() bool {
	return s == StatusQueued || s == StatusInProgress
}

// Provider identifies the transport that produced a Result.
type Provider string

const (
	ProviderVirusTotal Provider = "virusTotal"
	ProviderBFF        Provider = "bff"
)

// Tone is the severity attached to an engine finding or a warning.
type Tone string

const (
	ToneDanger  Tone = "danger"
	ToneWarning Tone = "warning"
	ToneInfo    Tone = "info"
)

// Stats is the engine vote tally of one analysis snapshot.
type Stats struct {
	Harmless   int `json:"harmless"`
	Malicious  int `json:"malicious"`
	Suspicious int `json:"suspicious"`
	Undetected int `json:"undetected"`
	Timeout    int `json:"timeout"`
}

// EngineFinding is a single engine's actionable verdict.
type EngineFinding struct {
	Engine        string `json:"engine"`
	Category      string `json:"category"`
	CategoryLabel string `json:"categoryLabel"`
	Tone          Tone   `json:"tone"`
	Threat        string `json:"threat,omitempty"`
}

// Result is the normalized outcome of a reputation scan. It is not modified
// once returned; WithInternalList returns a copy.
type Result struct {
	ID             string               `json:"id"`
	Provider       Provider             `json:"provider"`
	SubmittedURL   string               `json:"submittedUrl"`
	Status         Status               `json:"status"`
	Verdict        Verdict              `json:"verdict"`
	Stats          Stats                `json:"stats"`
	StartedAt      int64                `json:"startedAt,omitempty"`
	DetailsURL     string               `json:"detailsUrl,omitempty"`
	EngineFindings []EngineFinding      `json:"engineFindings,omitempty"`
	InternalList   *internallist.Result `json:"internalListResult,omitempty"`
}

// WithInternalList returns a copy of r carrying the given list result.
func (r *Result) WithInternalList(list *internallist.Result) *Result {
	out := *r
	if r.EngineFindings != nil {
		out.EngineFindings = append([]EngineFinding(nil), r.EngineFindings...)
	}
	out.InternalList = list
	return &out
}

// Strategy submits a URL to a reputation provider and returns the settled analysis.
type Strategy interface {
	Scan(ctx context.Context, rawURL string) (*Result, error)
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
