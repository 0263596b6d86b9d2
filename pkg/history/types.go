package history

import (
	"errors"
	"time"

	"github.com/sw33tLie/qrsafe/pkg/internallist"
	"github.com/sw33tLie/qrsafe/pkg/payload"
	"github.com/sw33tLie/qrsafe/pkg/reputation"
)

// MAX_ENTRIES caps the history; the oldest entries are dropped first.
const MAX_ENTRIES = 50

var ErrNotFound = errors.New("history entry not found")

// Entry is one scanned payload. Scanning the same payload again replaces the
// entry but keeps its last analysis.
type Entry struct {
	ID        string             `json:"id"`
	ScannedAt time.Time          `json:"scannedAt"`
	Payload   payload.Classified `json:"payload"`
	Analysis  *Analysis          `json:"analysis,omitempty"`
}

// Analysis is the part of a reputation result kept alongside an entry.
type Analysis struct {
	SnapshotID     string                     `json:"snapshotId"`
	Status         reputation.Status          `json:"status"`
	Verdict        reputation.Verdict         `json:"verdict"`
	Provider       reputation.Provider        `json:"provider"`
	DetailsURL     string                     `json:"detailsUrl,omitempty"`
	Stats          reputation.Stats           `json:"stats"`
	EngineFindings []reputation.EngineFinding `json:"engineFindings,omitempty"`
	InternalList   *internallist.Result       `json:"internalListResult,omitempty"`
	LastAnalyzedAt time.Time                  `json:"lastAnalyzedAt"`
}

// EntryID is "{kind}:{rawValue}".
func EntryID(c payload.Classification) string {
	return string(c.Kind()) + ":" + c.RawValue()
}
