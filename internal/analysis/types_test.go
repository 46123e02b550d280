package analysis

import (
	"context"
	"testing"
	"time"
)

func TestDecodeResult(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantSuccess bool
		wantLabel   string
		wantConf    float64
		wantHasConf bool
	}{
		{"explicit success", `{"success": true, "animal": "a fox", "confidence": 0.82}`, true, "fox", 0.82, true},
		{"inferred success", `{"animal": "cat", "confidence": 0.5}`, true, "cat", 0.5, true},
		{"explicit failure wins", `{"success": false, "animal": "cat", "confidence": 0.9}`, false, "cat", 0.9, true},
		{"empty object", `{}`, false, "", 0, false},
		{"missing confidence", `{"animal": "owl"}`, true, "owl", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := DecodeResult([]byte(tt.body))
			if err != nil {
				t.Fatalf("DecodeResult failed: %v", err)
			}
			if r.Success != tt.wantSuccess {
				t.Errorf("success = %v, want %v", r.Success, tt.wantSuccess)
			}
			if r.Label != tt.wantLabel {
				t.Errorf("label = %q, want %q", r.Label, tt.wantLabel)
			}
			if r.Confidence != tt.wantConf || r.HasConfidence != tt.wantHasConf {
				t.Errorf("confidence = %v (%v), want %v (%v)", r.Confidence, r.HasConfidence, tt.wantConf, tt.wantHasConf)
			}
		})
	}
}

func TestPredictionShapes(t *testing.T) {
	r, err := DecodeResult([]byte(`{"top3_predictions": [["a fox", 0.8], {"label": "a dog", "confidence": 0.1}]}`))
	if err != nil {
		t.Fatal(err)
	}
	if len(r.Predictions) != 2 {
		t.Fatalf("expected 2 predictions, got %d", len(r.Predictions))
	}
	if r.Predictions[0].Label != "a fox" || r.Predictions[0].Confidence != 0.8 {
		t.Errorf("unexpected pair decode %+v", r.Predictions[0])
	}
	if r.Predictions[1].Label != "a dog" || r.Predictions[1].Confidence != 0.1 {
		t.Errorf("unexpected object decode %+v", r.Predictions[1])
	}

	if _, err := DecodeResult([]byte(`{"top3_predictions": [["only-label"]]}`)); err == nil {
		t.Error("expected error for malformed pair")
	}
}

func TestNormalizeLabel(t *testing.T) {
	tests := map[string]string{
		"a fox":        "fox",
		"An owl":       "owl",
		"the cat":      "cat",
		"  a  badger ": "badger",
		"antelope":     "antelope",
		"athena":       "athena",
		"":             "",
	}
	for in, want := range tests {
		if got := NormalizeLabel(in); got != want {
			t.Errorf("NormalizeLabel(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDemoAnalyzerIsDeterministic(t *testing.T) {
	d := NewDemoAnalyzer(0)
	upload := Upload{Data: []byte("same bytes")}

	a, err := d.Analyze(context.Background(), upload)
	if err != nil {
		t.Fatal(err)
	}
	b, err := d.Analyze(context.Background(), upload)
	if err != nil {
		t.Fatal(err)
	}
	if a.Label != b.Label {
		t.Errorf("expected identical answers, got %q and %q", a.Label, b.Label)
	}
}

func TestDemoAnalyzerHonoursContext(t *testing.T) {
	d := NewDemoAnalyzer(time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := d.Analyze(ctx, Upload{}); err == nil {
		t.Error("expected cancellation error")
	}
}

func TestTransportErrorDescribe(t *testing.T) {
	if got := NewStatusError(503, "").Describe(); got != "서버 응답 오류 (503)" {
		t.Errorf("unexpected description %q", got)
	}
	if got := NewTransportError(ErrTypeTimeout, "request timed out").Describe(); got != "서버 응답 시간이 초과되었습니다." {
		t.Errorf("unexpected description %q", got)
	}
	if !NewStatusError(503, "").Retryable || NewStatusError(404, "").Retryable {
		t.Error("only 5xx and 429 status errors are retryable")
	}
}
