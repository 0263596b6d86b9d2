package reputation

import (
	"net/url"

	"github.com/tidwall/gjson"

	"github.com/sw33tLie/qrsafe/pkg/whttp"
)

const GUI_BASE_URL = "https://www.virustotal.com/gui"

// mapStatus never yields failed for unknown input so polling is not cut short.
func mapStatus(status string) Status {
	switch status {
	case "completed":
		return StatusCompleted
	case "queued":
		return StatusQueued
	case "running", "in-progress":
		return StatusInProgress
	case "failed":
		return StatusFailed
	default:
		return StatusInProgress
	}
}

// DeriveVerdict applies malicious > suspicious > harmless. Undetected and
// timeout counts are informational only.
func DeriveVerdict(s Stats) Verdict {
	switch {
	case s.Malicious > 0:
		return VerdictDanger
	case s.Suspicious > 0:
		return VerdictWarning
	case s.Harmless > 0:
		return VerdictSafe
	default:
		return VerdictUnknown
	}
}

func normalizeStats(stats gjson.Result) Stats {
	count := func(key string) int {
		n := stats.Get(key).Int()
		if n < 0 {
			return 0
		}
		return int(n)
	}
	return Stats{
		Harmless:   count("harmless"),
		Malicious:  count("malicious"),
		Suspicious: count("suspicious"),
		Undetected: count("undetected"),
		Timeout:    count("timeout"),
	}
}

// normalizeAnalysis turns a GET /analyses/{id} body into a Result.
func normalizeAnalysis(body, submittedURL string, provider Provider) (*Result, error) {
	if !gjson.Valid(body) {
		return nil, newError(ErrProtocol, "could not interpret the analysis response", nil)
	}
	data := gjson.Get(body, "data")
	id := data.Get("id").String()
	if id == "" {
		return nil, newError(ErrProtocol, "could not interpret the analysis response", nil)
	}

	attrs := data.Get("attributes")
	stats := normalizeStats(attrs.Get("stats"))

	result := &Result{
		ID:             id,
		Provider:       provider,
		SubmittedURL:   submittedURL,
		Status:         mapStatus(attrs.Get("status").String()),
		Verdict:        DeriveVerdict(stats),
		Stats:          stats,
		DetailsURL:     detailsURL(id),
		EngineFindings: engineFindings(attrs.Get("results")),
	}
	if date := attrs.Get("date").Int(); date > 0 {
		result.StartedAt = date * 1000
	}
	return result, nil
}

func detailsURL(analysisID string) string {
	return GUI_BASE_URL + "/url-analysis/" + url.PathEscape(analysisID)
}

// extractError prefers the provider's own message over the HTTP status text.
func extractError(res *whttp.WHTTPRes) string {
	if gjson.Valid(res.BodyString) {
		if msg := gjson.Get(res.BodyString, "error.message"); msg.Type == gjson.String && msg.Str != "" {
			return msg.Str
		}
		if msg := gjson.Get(res.BodyString, "message"); msg.Type == gjson.String && msg.Str != "" {
			return msg.Str
		}
	}
	return res.StatusText()
}
