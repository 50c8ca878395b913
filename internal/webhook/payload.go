// internal/webhook/payload.go
package webhook

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	appErrors "github.com/socialify/inbox-backend/internal/errors"
)

// Payload mirrors the Meta webhook body: a list of entries, each carrying a
// list of changes; a change with field "messages" holds the value object the
// pipeline consumes.
type Payload struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

type Entry struct {
	ID      string   `json:"id"`
	Changes []Change `json:"changes"`
}

type Change struct {
	Field string `json:"field"`
	Value Value  `json:"value"`
}

type Value struct {
	MessagingProduct string `json:"messaging_product"`
	Metadata         struct {
		DisplayPhoneNumber string `json:"display_phone_number"`
		PhoneNumberID      string `json:"phone_number_id"`
	} `json:"metadata"`
	Contacts []Contact `json:"contacts"`
	Messages []Message `json:"messages"`
	Statuses []Status  `json:"statuses"`
}

type Contact struct {
	Profile struct {
		Name string `json:"name"`
	} `json:"profile"`
	WaID string `json:"wa_id"`
}

// Status is a delivery state transition for an outbound message.
type Status struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	Timestamp   string `json:"timestamp"`
	RecipientID string `json:"recipient_id"`
}

// Message is one inbound message with its type-specific payload. Exactly one
// of the typed fields is set, matching Type.
type Message struct {
	From      string `json:"from"`
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`

	Text *struct {
		Body string `json:"body"`
	} `json:"text,omitempty"`
	Template *struct {
		Name     string `json:"name"`
		Language struct {
			Code string `json:"code"`
		} `json:"language"`
	} `json:"template,omitempty"`
	Image    *Media `json:"image,omitempty"`
	Audio    *Media `json:"audio,omitempty"`
	Video    *Media `json:"video,omitempty"`
	Document *Media `json:"document,omitempty"`
	Sticker  *Media `json:"sticker,omitempty"`
	Location *struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
		Name      string  `json:"name"`
		Address   string  `json:"address"`
	} `json:"location,omitempty"`
	ContactCards json.RawMessage `json:"contacts,omitempty"`
}

type Media struct {
	ID       string `json:"id"`
	MimeType string `json:"mime_type"`
	SHA256   string `json:"sha256"`
	Caption  string `json:"caption,omitempty"`
}

// Kind is the tagged message variant the pipeline stores and dispatches on.
type Kind string

const (
	KindText        Kind = "text"
	KindTemplate    Kind = "template"
	KindMedia       Kind = "media"
	KindLocation    Kind = "location"
	KindContactCard Kind = "contacts"
	KindOther       Kind = "other"
)

// Parse decodes and shape-validates a raw webhook body. A malformed or empty
// payload is a ValidationError: fatal for the whole delivery.
func Parse(raw []byte) (*Payload, error) {
	var p Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, appErrors.NewValidationError(fmt.Sprintf("malformed JSON: %v", err))
	}
	if len(p.Entry) == 0 {
		return nil, appErrors.NewValidationError("payload contains no entries")
	}
	return &p, nil
}

// KindOf maps the provider's free-form type string onto the closed variant
// set. Unknown types land in KindOther instead of being dropped.
func KindOf(m Message) Kind {
	switch strings.ToLower(m.Type) {
	case "text":
		return KindText
	case "template":
		return KindTemplate
	case "image", "audio", "video", "document", "sticker":
		return KindMedia
	case "location":
		return KindLocation
	case "contacts":
		return KindContactCard
	default:
		return KindOther
	}
}

const previewLimit = 100

// Preview returns the short non-sensitive excerpt handed to the classifier.
// It is never persisted.
func Preview(m Message) string {
	switch KindOf(m) {
	case KindText:
		if m.Text == nil {
			return ""
		}
		return truncate(m.Text.Body, previewLimit)
	case KindTemplate:
		if m.Template == nil {
			return ""
		}
		return m.Template.Name
	case KindMedia:
		if media := mediaOf(m); media != nil {
			return truncate(media.Caption, previewLimit)
		}
		return ""
	case KindLocation:
		if m.Location == nil {
			return ""
		}
		return truncate(m.Location.Name, previewLimit)
	default:
		return ""
	}
}

// Fingerprint computes the one-way content hash stored in place of raw
// content. Two identical deliveries fingerprint identically; nothing about
// the content is recoverable from it.
func Fingerprint(m Message) string {
	h := sha256.New()
	h.Write([]byte(m.Type))
	h.Write([]byte{0})

	switch KindOf(m) {
	case KindText:
		if m.Text != nil {
			h.Write([]byte(m.Text.Body))
		}
	case KindTemplate:
		if m.Template != nil {
			h.Write([]byte(m.Template.Name))
		}
	case KindMedia:
		if media := mediaOf(m); media != nil {
			h.Write([]byte(media.ID))
			h.Write([]byte(media.SHA256))
		}
	case KindLocation:
		if m.Location != nil {
			h.Write([]byte(strconv.FormatFloat(m.Location.Latitude, 'f', -1, 64)))
			h.Write([]byte{','})
			h.Write([]byte(strconv.FormatFloat(m.Location.Longitude, 'f', -1, 64)))
		}
	case KindContactCard:
		h.Write(m.ContactCards)
	}

	return hex.EncodeToString(h.Sum(nil))
}

// TemplateName returns the template name for template messages, "" otherwise.
func TemplateName(m Message) string {
	if m.Template != nil {
		return m.Template.Name
	}
	return ""
}

// SentTime parses the provider's unix-seconds timestamp. Zero time when the
// field is absent or malformed.
func SentTime(m Message) time.Time {
	return unixTime(m.Timestamp)
}

// ContactName looks up the sender's profile name from the value's contact
// list, keyed by wa_id.
func ContactName(v Value, waID string) string {
	for _, c := range v.Contacts {
		if c.WaID == waID {
			return c.Profile.Name
		}
	}
	return ""
}

func unixTime(s string) time.Time {
	secs, err := strconv.ParseInt(s, 10, 64)
	if err != nil || secs <= 0 {
		return time.Time{}
	}
	return time.Unix(secs, 0).UTC()
}

// StatusTime parses a status update's timestamp.
func StatusTime(s Status) time.Time {
	return unixTime(s.Timestamp)
}

func mediaOf(m Message) *Media {
	switch {
	case m.Image != nil:
		return m.Image
	case m.Audio != nil:
		return m.Audio
	case m.Video != nil:
		return m.Video
	case m.Document != nil:
		return m.Document
	case m.Sticker != nil:
		return m.Sticker
	}
	return nil
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
