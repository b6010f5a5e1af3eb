package concerns

import "context"

// Concern is one safety signal flagged in free text
type Concern struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// Classifier surfaces safety concerns in free-text feedback. The
// production implementation calls the moderation service; deployments
// without one run the no-op.
type Classifier interface {
	Classify(ctx context.Context, text string) ([]Concern, error)
}

// NopClassifier flags nothing
type NopClassifier struct{}

func (NopClassifier) Classify(context.Context, string) ([]Concern, error) {
	return nil, nil
}
