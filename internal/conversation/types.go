package conversation

import (
	"time"

	"github.com/yildizm/snapzoo/internal/preview"
)

// Kind classifies a log entry
type Kind int

const (
	KindSent Kind = iota
	KindReceived
	KindLoading
	KindAction
	KindError
)

// String returns the lowercase kind name
func (k Kind) String() string {
	switch k {
	case KindSent:
		return "sent"
	case KindReceived:
		return "received"
	case KindLoading:
		return "loading"
	case KindAction:
		return "action"
	case KindError:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Content is what an entry displays
type Content struct {
	Text string `json:"text,omitempty"`

	// Image is set on sent-image entries
	Image    *preview.Image `json:"-"`
	FileName string         `json:"file_name,omitempty"`

	// Picker marks the sent-side file prompt of a cycle; CaptureAreaID names
	// the capture surface it belongs to.
	Picker        bool   `json:"picker,omitempty"`
	CaptureAreaID string `json:"capture_area_id,omitempty"`
}

// Entry is one visible unit of the conversation
type Entry struct {
	ID             string    `json:"id"`
	Kind           Kind      `json:"kind"`
	Content        Content   `json:"content"`
	Cycle          int       `json:"cycle"`
	Timestamp      time.Time `json:"timestamp"`
	TimestampLabel string    `json:"timestamp_label"`
}

// EventType describes a log change
type EventType int

const (
	EventAppended EventType = iota
	EventRemoved
	EventScroll
)

// Event is delivered to OnChange observers
type Event struct {
	Type  EventType
	Entry Entry
}
