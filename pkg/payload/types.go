package payload

import "encoding/json"

// Kind discriminates the variants of Classification.
type Kind string

const (
	KindURL   Kind = "url"
	KindWiFi  Kind = "wifi"
	KindPhone Kind = "phone"
	KindText  Kind = "text"
)

// Encryption is the Wi-Fi security type announced by a WIFI: payload.
type Encryption string

const (
	EncryptionNone    Encryption = "nopass"
	EncryptionWEP     Encryption = "wep"
	EncryptionWPA     Encryption = "wpa"
	EncryptionWPA2    Encryption = "wpa2"
	EncryptionWPA3    Encryption = "wpa3"
	EncryptionUnknown Encryption = "unknown"
)

// Classification is the typed interpretation of a payload. It is implemented
// only by URL, WiFi, Phone and Text.
type Classification interface {
	Kind() Kind
	RawValue() string
	isClassification()
}

type URL struct {
	Raw           string `json:"rawValue"`
	URL           string `json:"url"`
	NormalizedURL string `json:"normalizedUrl"`
}

type WiFi struct {
	Raw        string     `json:"rawValue"`
	SSID       string     `json:"ssid"`
	Encryption Encryption `json:"encryption"`
	Password   string     `json:"password,omitempty"`
	Hidden     *bool      `json:"hidden,omitempty"`
}

type Phone struct {
	Raw         string `json:"rawValue"`
	PhoneNumber string `json:"phoneNumber"`
}

type Text struct {
	Raw     string `json:"rawValue"`
	Preview string `json:"preview"`
}

func (URL) Kind() Kind   { return KindURL }
func (WiFi) Kind() Kind  { return KindWiFi }
func (Phone) Kind() Kind { return KindPhone }
func (Text) Kind() Kind  { return KindText }

func (c URL) RawValue() string   { return c.Raw }
func (c WiFi) RawValue() string  { return c.Raw }
func (c Phone) RawValue() string { return c.Raw }
func (c Text) RawValue() string  { return c.Raw }

func (URL) isClassification()   {}
func (WiFi) isClassification()  {}
func (Phone) isClassification() {}
func (Text) isClassification()  {}

// The JSON forms carry the "kind" discriminator next to the variant fields.

func (c URL) MarshalJSON() ([]byte, error) {
	type alias URL
	return json.Marshal(struct {
		Kind Kind `json:"kind"`
		alias
	}{KindURL, alias(c)})
}

func (c WiFi) MarshalJSON() ([]byte, error) {
	type alias WiFi
	return json.Marshal(struct {
		Kind Kind `json:"kind"`
		alias
	}{KindWiFi, alias(c)})
}

func (c Phone) MarshalJSON() ([]byte, error) {
	type alias Phone
	return json.Marshal(struct {
		Kind Kind `json:"kind"`
		alias
	}{KindPhone, alias(c)})
}

func (c Text) MarshalJSON() ([]byte, error) {
	type alias Text
	return json.Marshal(struct {
		Kind Kind `json:"kind"`
		alias
	}{KindText, alias(c)})
}

// Highlight is a single label/value pair shown to the user.
type Highlight struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Summary is the display-oriented view of a Classification. It is always
// derived through Summarize and never stored on its own.
type Summary struct {
	Title      string      `json:"title"`
	Subtitle   string      `json:"subtitle,omitempty"`
	Highlights []Highlight `json:"highlights,omitempty"`
}

// Classified pairs a classification with its summary.
type Classified struct {
	Classification Classification `json:"classification"`
	Summary        Summary        `json:"summary"`
}
