// Package flow drives the chat: one analysis cycle after another.
package flow

import (
	"errors"

	"github.com/yildizm/snapzoo/internal/capture"
)

// State is the controller's position within a cycle
type State int

const (
	StateIdle State = iota
	StateReady
	StateAnalyzing
	StateResolved
	StateNoMatch
	StateFailed
	StateAwaitingNextCycle
)

var stateNames = map[State]string{
	StateIdle:              "idle",
	StateReady:             "ready",
	StateAnalyzing:         "analyzing",
	StateResolved:          "resolved",
	StateNoMatch:           "no_match",
	StateFailed:            "failed",
	StateAwaitingNextCycle: "awaiting_next_cycle",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// MarshalText renders the state name in JSON output
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Outcome names the terminal branch a cycle took
type Outcome string

const (
	OutcomeNone     Outcome = ""
	OutcomeResolved Outcome = "resolved"
	OutcomeNoMatch  Outcome = "no_match"
	OutcomeFailed   Outcome = "failed"
)

// AppState is the controller-owned session state
type AppState struct {
	IsAnalyzing           bool             `json:"is_analyzing"`
	ActiveCycle           capture.Identity `json:"active_cycle"`
	UploadCount           int              `json:"upload_count"`
	CurrentLoadingEntryID string           `json:"current_loading_entry_id,omitempty"`
}

// Snapshot is a read-only view of the controller for renderers
type Snapshot struct {
	State         State    `json:"state"`
	App           AppState `json:"app"`
	Outcome       Outcome  `json:"outcome,omitempty"`
	Notice        string   `json:"notice,omitempty"`
	Highlighted   bool     `json:"highlighted"`
	CanAnalyze    bool     `json:"can_analyze"`
	PendingFile   string   `json:"pending_file,omitempty"`
	PickerVisible bool     `json:"picker_visible"`
	LiveActionID  string   `json:"live_action_id,omitempty"`
}

// SelectionError reports an analyze trigger without a usable file
type SelectionError struct {
	Reason string
}

func (e *SelectionError) Error() string {
	return "no image selected: " + e.Reason
}

var (
	// ErrNoFile is returned by Analyze when nothing is selected
	ErrNoFile error = &SelectionError{Reason: "choose or drop an image first"}

	// ErrAnalysisInFlight is returned by Analyze while a request is outstanding
	ErrAnalysisInFlight = errors.New("analysis already in progress")

	// ErrNotStarted is returned when the controller is used before Start
	ErrNotStarted = errors.New("controller not started")
)
