package analysis

import (
	"context"
	"hash/fnv"
	"time"
)

// DemoAnalyzer answers from a fixed table without any network access.
// The answer is chosen from a hash of the image bytes so the same file
// always gets the same result.
type DemoAnalyzer struct {
	Latency time.Duration
	Answers []Result
}

// NewDemoAnalyzer creates an offline analyzer with canned answers
func NewDemoAnalyzer(latency time.Duration) *DemoAnalyzer {
	return &DemoAnalyzer{Latency: latency, Answers: demoAnswers()}
}

// Analyze waits for the configured latency and returns a canned result
func (d *DemoAnalyzer) Analyze(ctx context.Context, upload Upload) (*Result, error) {
	if d.Latency > 0 {
		if err := sleep(ctx, d.Latency); err != nil {
			return nil, classifyRequestError(err)
		}
	}
	if len(d.Answers) == 0 {
		return nil, NewTransportError(ErrTypeStatus, "demo analyzer has no answers")
	}

	h := fnv.New32a()
	_, _ = h.Write(upload.Data)
	answer := d.Answers[int(h.Sum32()%uint32(len(d.Answers)))]
	return &answer, nil
}

func demoAnswers() []Result {
	return []Result{
		{
			Success:       true,
			Label:         "fox",
			RawLabel:      "a fox",
			Confidence:    0.82,
			HasConfidence: true,
			Narrative:     "Foxes are clever. They live in dens. They eat small mammals.",
			Predictions: []Prediction{
				{Label: "a fox", Confidence: 0.82},
				{Label: "a dog", Confidence: 0.11},
				{Label: "a cat", Confidence: 0.04},
			},
		},
		{
			Success:       true,
			Label:         "cat",
			RawLabel:      "a cat",
			Confidence:    0.91,
			HasConfidence: true,
			Narrative:     "Cats sleep up to sixteen hours a day! Their whiskers sense tiny changes in the air.",
			Predictions: []Prediction{
				{Label: "a cat", Confidence: 0.91},
				{Label: "a tiger", Confidence: 0.05},
			},
		},
		{
			Success:       true,
			Label:         "owl",
			RawLabel:      "an owl",
			Confidence:    0.27,
			HasConfidence: true,
		},
	}
}
