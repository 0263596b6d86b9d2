// Package warning decides whether the user must confirm before a scanned
// payload is acted on.
package warning

import (
	"github.com/sw33tLie/qrsafe/pkg/internallist"
	"github.com/sw33tLie/qrsafe/pkg/payload"
	"github.com/sw33tLie/qrsafe/pkg/reputation"
)

const (
	TITLE_SCAN_DISABLED    = "Reputation check recommended"
	TITLE_ANALYSIS_MISSING = "Analysis recommended"
	TITLE_SAFETY           = "Safety check"
	TITLE_REGISTERED       = "Registered service check"

	DEFAULT_SERVICE_NAME = "this service"
	DEFAULT_NOTICE       = "Check the content carefully."
)

// Settings are the user policy flags. They are passed in on every call.
type Settings struct {
	UseReputationScan       bool `json:"useReputationScan"`
	AlwaysShowStrongWarning bool `json:"alwaysShowStrongWarning"`
}

// DefaultSettings mirrors a fresh install: scanning on, strong warnings off.
func DefaultSettings() Settings {
	return Settings{UseReputationScan: true}
}

// Input is everything the policy looks at. A nil Verdict means no analysis
// has been run; a nil InternalList means the lookup was not performed or
// failed, and is treated like a not-listed result.
type Input struct {
	Kind         payload.Kind
	Verdict      *reputation.Verdict
	InternalList *internallist.Result
	Settings     Settings
}

// Decision is the outcome. Every warning is a confirmation prompt, so
// AllowProceed is true whenever Warn is.
type Decision struct {
	Warn         bool            `json:"warn"`
	Tone         reputation.Tone `json:"tone,omitempty"`
	Title        string          `json:"title,omitempty"`
	Message      string          `json:"message,omitempty"`
	AllowProceed bool            `json:"allowProceed"`
}

func proceed() Decision {
	return Decision{AllowProceed: true}
}

func prompt(tone reputation.Tone, title, message string) Decision {
	return Decision{Warn: true, Tone: tone, Title: title, Message: message, AllowProceed: true}
}

// Decide is a pure function of its input and must be re-evaluated on every
// attempt to act, never cached.
func Decide(in Input) Decision {
	if in.Kind != payload.KindURL {
		return proceed()
	}

	if !in.Settings.UseReputationScan {
		return prompt(reputation.ToneInfo, TITLE_SCAN_DISABLED,
			"Turn on reputation scanning in the settings to check links before opening them.\n\nOpen the link anyway?")
	}

	listed := in.InternalList != nil && in.InternalList.Listed
	analyzed := in.Verdict != nil

	if !analyzed && !listed {
		return prompt(reputation.ToneWarning, TITLE_ANALYSIS_MISSING,
			"This link has not been analyzed yet. Run the safety analysis first.\n\nOpen the link anyway?")
	}

	var verdict reputation.Verdict
	if analyzed {
		verdict = *in.Verdict
	}

	if !in.Settings.AlwaysShowStrongWarning &&
		verdict != reputation.VerdictDanger &&
		verdict != reputation.VerdictWarning &&
		!listed {
		return proceed()
	}

	title := TITLE_SAFETY
	if listed {
		title = TITLE_REGISTERED
	}

	switch {
	case verdict == reputation.VerdictDanger:
		return prompt(reputation.ToneDanger, title,
			"This link was flagged as dangerous by the reputation scan. Review it thoroughly before continuing.")
	case verdict == reputation.VerdictWarning:
		return prompt(reputation.ToneWarning, title,
			"This link was flagged as needing attention. Double-check the sender before continuing.")
	case listed:
		return prompt(reputation.ToneWarning, title, listedMessage(in.InternalList))
	default:
		return prompt(reputation.ToneWarning, title,
			"This may be a payment or deep link. Check its content before continuing.")
	}
}

func listedMessage(list *internallist.Result) string {
	name := DEFAULT_SERVICE_NAME
	if list.ServiceName != nil && *list.ServiceName != "" {
		name = *list.ServiceName
	}
	notice := DEFAULT_NOTICE
	if list.Notice != nil && *list.Notice != "" {
		notice = *list.Notice
	}
	return "A link to " + name + " was detected. " + notice +
		"\n\nBefore continuing, confirm whether it asks you to send money or enter personal information."
}
