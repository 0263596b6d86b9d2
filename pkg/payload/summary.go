package payload

import (
	"net/url"
	"strings"
)

// Summarize derives the display summary for c. It is a pure function of the
// classification.
func Summarize(c Classification) Summary {
	switch c := c.(type) {
	case WiFi:
		ssid := c.SSID
		if ssid == "" {
			ssid = "(not set)"
		}
		highlights := []Highlight{
			{Label: "SSID", Value: ssid},
			{Label: "Encryption", Value: strings.ToUpper(string(c.Encryption))},
		}
		if c.Password != "" {
			highlights = append(highlights, Highlight{Label: "Password", Value: c.Password})
		}
		if c.Hidden != nil && *c.Hidden {
			highlights = append(highlights, Highlight{Label: "Hidden network", Value: "Yes"})
		}
		return Summary{
			Title:      "Wi-Fi network",
			Subtitle:   "Check these settings before copying them into your device's Wi-Fi configuration.",
			Highlights: highlights,
		}
	case Phone:
		return Summary{
			Title:      "Phone number link",
			Subtitle:   "Confirm who you are calling before dialing.",
			Highlights: []Highlight{{Label: "Number", Value: c.PhoneNumber}},
		}
	case URL:
		var highlights []Highlight
		if u, err := url.Parse(c.NormalizedURL); err == nil {
			highlights = append(highlights,
				Highlight{Label: "Scheme", Value: u.Scheme},
				Highlight{Label: "Domain", Value: u.Host},
			)
			if path := u.EscapedPath(); path != "" && path != "/" {
				highlights = append(highlights, Highlight{Label: "Path", Value: path})
			}
		}
		return Summary{
			Title:      "Link URL",
			Subtitle:   "Run an analysis to check whether this link is safe.",
			Highlights: highlights,
		}
	case Text:
		var highlights []Highlight
		if c.Preview != "" {
			highlights = []Highlight{{Label: "Content", Value: c.Preview}}
		}
		return Summary{
			Title:      "Text data",
			Subtitle:   "Review the payload for anything suspicious.",
			Highlights: highlights,
		}
	default:
		return Summary{Title: "Unknown payload"}
	}
}

// Action returns the label of the primary action offered for c, or "" when
// the payload can only be read.
func Action(c Classification) string {
	switch c.Kind() {
	case KindURL:
		return "Open link"
	case KindPhone:
		return "Call"
	case KindWiFi:
		return "Open Wi-Fi settings"
	default:
		return ""
	}
}
