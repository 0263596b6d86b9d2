package reputation

import (
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

type keywordRule struct {
	pattern *regexp.Regexp
	label   string
	tone    Tone
}

// keywordRules is a best-effort signal layer over free-text engine results.
// The first matching rule overrides the category-derived tone and label.
// Rules can be added here without touching verdict derivation.
var keywordRules = []keywordRule{
	{regexp.MustCompile(`(?i)malware|trojan|worm|backdoor`), "Malware detected", ToneDanger},
	{regexp.MustCompile(`(?i)phishing|credential`), "Suspected phishing", ToneDanger},
	{regexp.MustCompile(`(?i)ransom`), "Suspected ransomware", ToneDanger},
	{regexp.MustCompile(`(?i)scam|fraud`), "Suspected scam", ToneDanger},
	{regexp.MustCompile(`(?i)malicious`), "Dangerous", ToneDanger},
	{regexp.MustCompile(`(?i)spam|junk`), "Possible spam", ToneWarning},
	{regexp.MustCompile(`(?i)suspicious|riskware|grayware`), "Needs attention", ToneWarning},
}

// translateEngineFinding returns nil for neutral (info) signals.
func translateEngineFinding(engine, category, resultText string) *EngineFinding {
	category = strings.ToLower(category)

	tone := ToneInfo
	label := "Note"
	switch category {
	case "malicious":
		tone, label = ToneDanger, "Dangerous"
	case "suspicious":
		tone, label = ToneWarning, "Needs attention"
	}

	for _, rule := range keywordRules {
		if rule.pattern.MatchString(resultText) {
			tone, label = rule.tone, rule.label
			break
		}
	}

	if tone == ToneInfo {
		return nil
	}

	if category == "" {
		category = "suspicious"
		if tone == ToneDanger {
			category = "malicious"
		}
	}

	return &EngineFinding{
		Engine:        engine,
		Category:      category,
		CategoryLabel: label,
		Tone:          tone,
		Threat:        resultText,
	}
}

// engineFindings walks the provider's per-engine results in document order.
func engineFindings(results gjson.Result) []EngineFinding {
	if !results.IsObject() {
		return nil
	}
	var out []EngineFinding
	results.ForEach(func(engine, value gjson.Result) bool {
		if !value.IsObject() {
			return true
		}
		finding := translateEngineFinding(engine.String(), value.Get("category").String(), value.Get("result").String())
		if finding != nil {
			out = append(out, *finding)
		}
		return true
	})
	return out
}
