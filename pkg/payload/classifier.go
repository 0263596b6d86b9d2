package payload

import (
	"net"
	"net/url"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/idna"
)

const (
	wifiPrefix = "WIFI:"
	telPrefix  = "tel:"

	previewLimit  = 120
	previewKeep   = 117
	previewMarker = "..."
)

var (
	allowedSchemes = map[string]string{
		"http":  "80",
		"https": "443",
		"ftp":   "21",
	}
	explicitSchemePrefixes = []string{"http://", "https://", "ftp://"}
)

// Classify maps a decoded QR payload onto exactly one Classification. It never
// fails: anything that is not a Wi-Fi config, phone link or URL becomes Text.
func Classify(raw string) Classified {
	c := classify(raw)
	return Classified{Classification: c, Summary: Summarize(c)}
}

func classify(raw string) Classification {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return classifyText(raw)
	}

	if hasPrefixFold(trimmed, wifiPrefix) {
		if wifi, ok := classifyWiFi(trimmed, trimmed[len(wifiPrefix):]); ok {
			return wifi
		}
	}

	if hasPrefixFold(trimmed, telPrefix) {
		if phone, ok := classifyPhone(trimmed); ok {
			return phone
		}
	}

	if u, ok := classifyURL(trimmed); ok {
		return u
	}

	return classifyText(trimmed)
}

func classifyWiFi(raw, body string) (WiFi, bool) {
	values := make(map[string]string)
	for _, segment := range splitUnescaped(body, ';') {
		if segment == "" {
			continue
		}
		key, value, _ := strings.Cut(segment, ":")
		key = strings.ToUpper(key)
		switch key {
		case "S", "T", "P", "H":
			values[key] = unescapeWiFiValue(value)
		}
	}

	ssid := values["S"]
	if ssid == "" {
		return WiFi{}, false
	}

	wifi := WiFi{
		Raw:        raw,
		SSID:       ssid,
		Encryption: mapWiFiSecurity(values["T"]),
		Password:   values["P"],
	}
	if h := values["H"]; h != "" {
		hidden := strings.EqualFold(h, "true") || h == "1"
		wifi.Hidden = &hidden
	}
	return wifi, true
}

// splitUnescaped splits s on sep, ignoring separators preceded by a backslash.
// Escape sequences are left in place for unescapeWiFiValue.
func splitUnescaped(s string, sep byte) []string {
	var parts []string
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case sep:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	return append(parts, s[start:])
}

func unescapeWiFiValue(value string) string {
	if !strings.Contains(value, `\`) {
		return value
	}
	var b strings.Builder
	b.Grow(len(value))
	for i := 0; i < len(value); i++ {
		if value[i] == '\\' && i+1 < len(value) {
			switch value[i+1] {
			case ';', ',', ':', '\\':
				b.WriteByte(value[i+1])
				i++
				continue
			}
		}
		b.WriteByte(value[i])
	}
	return b.String()
}

func mapWiFiSecurity(value string) Encryption {
	switch strings.ToLower(value) {
	case "wpa":
		return EncryptionWPA
	case "wpa2":
		return EncryptionWPA2
	case "wpa3":
		return EncryptionWPA3
	case "wep":
		return EncryptionWEP
	case "nopass", "none":
		return EncryptionNone
	default:
		return EncryptionUnknown
	}
}

func classifyPhone(raw string) (Phone, bool) {
	number := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '+' || r == '#' || r == '*' {
			return r
		}
		return -1
	}, raw[len(telPrefix):])
	if number == "" {
		return Phone{}, false
	}
	return Phone{Raw: raw, PhoneNumber: number}, true
}

func classifyURL(trimmed string) (URL, bool) {
	candidate := trimmed
	if !HasExplicitScheme(candidate) {
		candidate = "https://" + candidate
	}

	normalized, ok := NormalizeURL(candidate)
	if !ok {
		return URL{}, false
	}
	return URL{Raw: trimmed, URL: trimmed, NormalizedURL: normalized}, true
}

// NormalizeURL parses an absolute http, https or ftp URL and returns its
// canonical string form: lower-case scheme and host, IDNA host, no default
// port, and "/" for an empty path.
func NormalizeURL(candidate string) (string, bool) {
	u, err := url.Parse(candidate)
	if err != nil {
		return "", false
	}
	defaultPort, ok := allowedSchemes[u.Scheme]
	if !ok || u.Opaque != "" {
		return "", false
	}

	hostname := u.Hostname()
	if hostname == "" {
		return "", false
	}
	hostname, ok = canonicalHost(hostname)
	if !ok {
		return "", false
	}

	port := u.Port()
	if port == defaultPort {
		port = ""
	}
	switch {
	case port != "":
		u.Host = net.JoinHostPort(hostname, port)
	case strings.Contains(hostname, ":"):
		u.Host = "[" + hostname + "]"
	default:
		u.Host = hostname
	}

	if u.Path == "" && u.RawPath == "" {
		u.Path = "/"
	}
	return u.String(), true
}

func canonicalHost(hostname string) (string, bool) {
	if ip := net.ParseIP(hostname); ip != nil {
		return strings.ToLower(hostname), true
	}
	if isASCII(hostname) {
		return strings.ToLower(hostname), true
	}
	ascii, err := idna.Lookup.ToASCII(hostname)
	if err != nil || ascii == "" {
		return "", false
	}
	return ascii, true
}

func classifyText(raw string) Text {
	preview := raw
	if utf8.RuneCountInString(raw) > previewLimit {
		preview = string([]rune(raw)[:previewKeep]) + previewMarker
	}
	return Text{Raw: raw, Preview: preview}
}

// HasExplicitScheme reports whether s starts with one of the accepted schemes,
// case-insensitively.
func HasExplicitScheme(s string) bool {
	for _, prefix := range explicitSchemePrefixes {
		if hasPrefixFold(s, prefix) {
			return true
		}
	}
	return false
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
