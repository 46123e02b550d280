package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
)

// csvFormatter writes one row per analyzed image
type csvFormatter struct{}

// NewCSV creates a new CSV formatter
func NewCSV() Formatter {
	return &csvFormatter{}
}

func (f *csvFormatter) Format(t *Transcript) ([]byte, error) {
	var b bytes.Buffer
	writer := csv.NewWriter(&b)

	headers := []string{
		"Cycle",
		"File",
		"Source",
		"Outcome",
		"Label",
		"Confidence",
		"Duration",
		"Error",
	}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, c := range t.Cycles {
		label, confidence := "", ""
		if c.Result != nil {
			label = c.Result.Label
			if c.Result.HasConfidence {
				confidence = fmt.Sprintf("%.4f", c.Result.Confidence)
			}
		}

		record := []string{
			c.Cycle.CaptureInputID,
			c.FileName,
			string(c.Source),
			string(c.Outcome),
			label,
			confidence,
			c.Duration.String(),
			escapeCSVString(c.Error),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return b.Bytes(), nil
}

// escapeCSVString flattens newlines and truncates long messages
func escapeCSVString(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")

	if len(s) > 100 {
		s = s[:97] + "..."
	}
	return s
}
