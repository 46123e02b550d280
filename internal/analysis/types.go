// Package analysis talks to the image analysis service.
package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Analyzer classifies one image
type Analyzer interface {
	Analyze(ctx context.Context, upload Upload) (*Result, error)
}

// Upload is the image submitted for analysis
type Upload struct {
	Name        string
	ContentType string
	Data        []byte
}

// Prediction is one ranked candidate label
type Prediction struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// UnmarshalJSON accepts both [label, confidence] pairs and objects
func (p *Prediction) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err == nil {
		if len(pair) != 2 {
			return fmt.Errorf("prediction pair has %d elements", len(pair))
		}
		if err := json.Unmarshal(pair[0], &p.Label); err != nil {
			return fmt.Errorf("prediction label: %w", err)
		}
		if err := json.Unmarshal(pair[1], &p.Confidence); err != nil {
			return fmt.Errorf("prediction confidence: %w", err)
		}
		return nil
	}

	type plain Prediction
	var obj plain
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*p = Prediction(obj)
	return nil
}

// Result is the interpreted service response
type Result struct {
	Success       bool         `json:"success"`
	Label         string       `json:"label,omitempty"`
	RawLabel      string       `json:"raw_label,omitempty"`
	Confidence    float64      `json:"confidence"`
	HasConfidence bool         `json:"has_confidence"`
	Narrative     string       `json:"narrative,omitempty"`
	Predictions   []Prediction `json:"predictions,omitempty"`
}

// wireResponse mirrors the service JSON. Every field is optional.
type wireResponse struct {
	Success         *bool        `json:"success"`
	Animal          *string      `json:"animal"`
	Confidence      *float64     `json:"confidence"`
	FriendlyMessage *string      `json:"friendly_message"`
	Top3            []Prediction `json:"top3_predictions"`
}

func (w *wireResponse) toResult() *Result {
	r := &Result{Predictions: w.Top3}

	if w.Animal != nil {
		r.RawLabel = *w.Animal
		r.Label = NormalizeLabel(*w.Animal)
	}
	if w.Confidence != nil {
		r.Confidence = *w.Confidence
		r.HasConfidence = true
	}
	if w.FriendlyMessage != nil {
		r.Narrative = *w.FriendlyMessage
	}

	switch {
	case w.Success != nil:
		r.Success = *w.Success
	default:
		r.Success = w.Animal != nil
	}
	return r
}

// DecodeResult parses a service response body
func DecodeResult(body []byte) (*Result, error) {
	var w wireResponse
	if err := json.Unmarshal(body, &w); err != nil {
		return nil, NewTransportErrorWithCause(ErrTypeDecode, "failed to decode response", err)
	}
	return w.toResult(), nil
}

var articles = []string{"a ", "an ", "the "}

// NormalizeLabel strips surrounding space and one leading English article
func NormalizeLabel(label string) string {
	label = strings.TrimSpace(label)
	lower := strings.ToLower(label)
	for _, article := range articles {
		if strings.HasPrefix(lower, article) {
			return strings.TrimSpace(label[len(article):])
		}
	}
	return label
}
