package history

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sw33tLie/qrsafe/pkg/payload"
	"github.com/sw33tLie/qrsafe/pkg/reputation"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "nested", "history.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestEntryID(t *testing.T) {
	assert.Equal(t, "url:https://example.com", EntryID(payload.Classify("https://example.com").Classification))
	assert.Equal(t, "phone:tel:+81312345678", EntryID(payload.Classify(" tel:+81312345678 ").Classification))
}

func TestAddListAndMoveToFront(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	_, err := db.Add(ctx, payload.Classify("https://a.example"), base)
	require.NoError(t, err)
	_, err = db.Add(ctx, payload.Classify("hello world"), base.Add(time.Second))
	require.NoError(t, err)
	_, err = db.Add(ctx, payload.Classify("https://a.example"), base.Add(2*time.Second))
	require.NoError(t, err)

	entries, err := db.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "url:https://a.example", entries[0].ID)
	assert.Equal(t, "text:hello world", entries[1].ID)
	assert.True(t, entries[0].ScannedAt.Equal(base.Add(2*time.Second)))

	u, ok := entries[0].Payload.Classification.(payload.URL)
	require.True(t, ok)
	assert.Equal(t, "https://a.example/", u.NormalizedURL)
}

func TestAddKeepsAnalysis(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	c := payload.Classify("https://a.example")

	entry, err := db.Add(ctx, c, time.Now())
	require.NoError(t, err)
	assert.Nil(t, entry.Analysis)

	stored, err := db.AttachAnalysis(ctx, entry.ID, &reputation.Result{
		ID: "an-1", Provider: reputation.ProviderVirusTotal, Status: reputation.StatusCompleted,
		Verdict: reputation.VerdictDanger, Stats: reputation.Stats{Malicious: 2},
		EngineFindings: []reputation.EngineFinding{{Engine: "E", Category: "malicious", CategoryLabel: "Dangerous", Tone: reputation.ToneDanger}},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, stored.SnapshotID)

	again, err := db.Add(ctx, c, time.Now())
	require.NoError(t, err)
	require.NotNil(t, again.Analysis)
	assert.Equal(t, stored.SnapshotID, again.Analysis.SnapshotID)
	assert.Equal(t, reputation.VerdictDanger, again.Analysis.Verdict)
	require.Len(t, again.Analysis.EngineFindings, 1)
}

func TestAttachAnalysisLastWriteWins(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	entry, err := db.Add(ctx, payload.Classify("https://a.example"), time.Now())
	require.NoError(t, err)

	first, err := db.AttachAnalysis(ctx, entry.ID, &reputation.Result{Status: reputation.StatusQueued, Verdict: reputation.VerdictUnknown})
	require.NoError(t, err)
	second, err := db.AttachAnalysis(ctx, entry.ID, &reputation.Result{Status: reputation.StatusCompleted, Verdict: reputation.VerdictSafe})
	require.NoError(t, err)
	assert.NotEqual(t, first.SnapshotID, second.SnapshotID)

	got, err := db.Get(ctx, entry.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Analysis)
	assert.Equal(t, second.SnapshotID, got.Analysis.SnapshotID)
	assert.Equal(t, reputation.VerdictSafe, got.Analysis.Verdict)
}

func TestAttachAnalysisUnknownEntry(t *testing.T) {
	db := openTestDB(t)
	_, err := db.AttachAnalysis(context.Background(), "url:nope", &reputation.Result{})
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = db.Get(context.Background(), "url:nope")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestAddTrimsOldest(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	for i := 0; i < MAX_ENTRIES+5; i++ {
		_, err := db.Add(ctx, payload.Classify(fmt.Sprintf("note %d", i)), time.Now())
		require.NoError(t, err)
	}

	entries, err := db.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, MAX_ENTRIES)
	assert.Equal(t, fmt.Sprintf("text:note %d", MAX_ENTRIES+4), entries[0].ID)
	assert.Equal(t, "text:note 5", entries[len(entries)-1].ID)
}

func TestClear(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	_, err := db.Add(ctx, payload.Classify("a"), time.Now())
	require.NoError(t, err)
	_, err = db.Add(ctx, payload.Classify("b"), time.Now())
	require.NoError(t, err)

	n, err := db.Clear(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	entries, err := db.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
