package formatter

import (
	"encoding/json"
)

// jsonFormatter formats output as JSON
type jsonFormatter struct{}

// NewJSON creates a new JSON formatter
func NewJSON() Formatter {
	return &jsonFormatter{}
}

// JSONOutput is the document written by the JSON formatter
type JSONOutput struct {
	Summary Summary `json:"summary"`
	*Transcript
}

func (f *jsonFormatter) Format(t *Transcript) ([]byte, error) {
	output := &JSONOutput{
		Summary:    summarize(t),
		Transcript: t,
	}
	return json.MarshalIndent(output, "", "  ")
}
