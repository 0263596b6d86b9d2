package warning

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sw33tLie/qrsafe/pkg/internallist"
	"github.com/sw33tLie/qrsafe/pkg/payload"
	"github.com/sw33tLie/qrsafe/pkg/reputation"
)

func verdict(v reputation.Verdict) *reputation.Verdict { return &v }

func listed(name, notice string) *internallist.Result {
	return internallist.ListedAs(internallist.Service{ServiceName: name, Notice: notice})
}

func TestDecide(t *testing.T) {
	on := DefaultSettings()
	strong := Settings{UseReputationScan: true, AlwaysShowStrongWarning: true}

	tests := []struct {
		name      string
		in        Input
		wantWarn  bool
		wantTone  reputation.Tone
		wantTitle string
	}{
		{"non-url bypasses", Input{Kind: payload.KindPhone, Settings: Settings{}}, false, "", ""},
		{"wifi bypasses even when dangerous", Input{Kind: payload.KindWiFi, Verdict: verdict(reputation.VerdictDanger), Settings: on}, false, "", ""},
		{"scanning disabled", Input{Kind: payload.KindURL, Verdict: verdict(reputation.VerdictSafe), Settings: Settings{}}, true, reputation.ToneInfo, TITLE_SCAN_DISABLED},
		{"scanning disabled beats danger", Input{Kind: payload.KindURL, Verdict: verdict(reputation.VerdictDanger), Settings: Settings{AlwaysShowStrongWarning: true}}, true, reputation.ToneInfo, TITLE_SCAN_DISABLED},
		{"not analyzed, not listed", Input{Kind: payload.KindURL, Settings: on}, true, reputation.ToneWarning, TITLE_ANALYSIS_MISSING},
		{"not analyzed, lookup failed", Input{Kind: payload.KindURL, InternalList: nil, Settings: on}, true, reputation.ToneWarning, TITLE_ANALYSIS_MISSING},
		{"not analyzed, listed", Input{Kind: payload.KindURL, InternalList: listed("PayPay", "n"), Settings: on}, true, reputation.ToneWarning, TITLE_REGISTERED},
		{"danger", Input{Kind: payload.KindURL, Verdict: verdict(reputation.VerdictDanger), Settings: on}, true, reputation.ToneDanger, TITLE_SAFETY},
		{"danger beats listed", Input{Kind: payload.KindURL, Verdict: verdict(reputation.VerdictDanger), InternalList: listed("PayPay", "n"), Settings: on}, true, reputation.ToneDanger, TITLE_REGISTERED},
		{"warning verdict", Input{Kind: payload.KindURL, Verdict: verdict(reputation.VerdictWarning), InternalList: internallist.NotListed(), Settings: on}, true, reputation.ToneWarning, TITLE_SAFETY},
		{"safe proceeds", Input{Kind: payload.KindURL, Verdict: verdict(reputation.VerdictSafe), InternalList: internallist.NotListed(), Settings: on}, false, "", ""},
		{"unknown counts as analyzed", Input{Kind: payload.KindURL, Verdict: verdict(reputation.VerdictUnknown), Settings: on}, false, "", ""},
		{"strong flag with safe", Input{Kind: payload.KindURL, Verdict: verdict(reputation.VerdictSafe), Settings: strong}, true, reputation.ToneWarning, TITLE_SAFETY},
		{"safe but listed", Input{Kind: payload.KindURL, Verdict: verdict(reputation.VerdictSafe), InternalList: listed("PayPay", "n"), Settings: on}, true, reputation.ToneWarning, TITLE_REGISTERED},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decide(tt.in)
			assert.Equal(t, tt.wantWarn, got.Warn)
			assert.Equal(t, tt.wantTone, got.Tone)
			assert.Equal(t, tt.wantTitle, got.Title)
			if got.Warn {
				assert.True(t, got.AllowProceed)
				assert.NotEmpty(t, got.Message)
			} else {
				assert.Empty(t, got.Message)
			}
		})
	}
}

func TestDecideListedMessage(t *testing.T) {
	got := Decide(Input{Kind: payload.KindURL, InternalList: listed("PayPay", "Only pay people you know."), Settings: DefaultSettings()})
	assert.True(t, strings.Contains(got.Message, "PayPay"))
	assert.True(t, strings.Contains(got.Message, "Only pay people you know."))

	got = Decide(Input{Kind: payload.KindURL, InternalList: &internallist.Result{Listed: true}, Settings: DefaultSettings()})
	assert.Contains(t, got.Message, DEFAULT_SERVICE_NAME)
	assert.Contains(t, got.Message, DEFAULT_NOTICE)
}

func TestDecideStrongGenericMessage(t *testing.T) {
	got := Decide(Input{Kind: payload.KindURL, Verdict: verdict(reputation.VerdictSafe), Settings: Settings{UseReputationScan: true, AlwaysShowStrongWarning: true}})
	assert.Contains(t, got.Message, "payment or deep link")
}
