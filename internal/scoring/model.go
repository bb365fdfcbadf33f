package scoring

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/fmuoria/interview-coach/internal/preprocess"
)

// ErrInvalidModel is returned when a model file is malformed.
var ErrInvalidModel = errors.New("invalid model")

// Model is a multinomial naive Bayes text classifier over a bag of
// cleaned unigrams. Class i scores i.
type Model struct {
	Labels         Labels         `json:"labels"`
	Vocabulary     map[string]int `json:"vocabulary"`
	ClassLogPrior  []float64      `json:"class_log_prior"`
	FeatureLogProb [][]float64    `json:"feature_log_prob"`
}

// LoadModel reads a JSON model file and checks its shape.
func LoadModel(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model file: %w", err)
	}

	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidModel, err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks that every class has a prior and one weight per
// vocabulary entry.
func (m *Model) Validate() error {
	classes := len(m.Labels)
	if classes < 2 {
		return fmt.Errorf("%w: need at least 2 labels, got %d", ErrInvalidModel, classes)
	}
	if len(m.ClassLogPrior) != classes {
		return fmt.Errorf("%w: %d class priors for %d labels", ErrInvalidModel, len(m.ClassLogPrior), classes)
	}
	if len(m.FeatureLogProb) != classes {
		return fmt.Errorf("%w: %d feature rows for %d labels", ErrInvalidModel, len(m.FeatureLogProb), classes)
	}
	features := len(m.Vocabulary)
	for c, row := range m.FeatureLogProb {
		if len(row) != features {
			return fmt.Errorf("%w: class %d has %d features, vocabulary has %d", ErrInvalidModel, c, len(row), features)
		}
	}
	for term, idx := range m.Vocabulary {
		if idx < 0 || idx >= features {
			return fmt.Errorf("%w: term %q has index %d", ErrInvalidModel, term, idx)
		}
	}
	return nil
}

// Predict returns the most likely class for text. Ties go to the lower
// class.
func (m *Model) Predict(text string) int {
	counts := make(map[int]int)
	for _, tok := range preprocess.Tokens(text) {
		if idx, ok := m.Vocabulary[tok]; ok {
			counts[idx]++
		}
	}

	best, bestLL := 0, math.Inf(-1)
	for c := range m.Labels {
		ll := m.ClassLogPrior[c]
		for idx, n := range counts {
			ll += float64(n) * m.FeatureLogProb[c][idx]
		}
		if ll > bestLL {
			best, bestLL = c, ll
		}
	}
	return best
}

// ModelScorer grades answers with a trained Model.
type ModelScorer struct {
	model *Model
}

// NewModelScorer wraps a validated model.
func NewModelScorer(m *Model) (*ModelScorer, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: nil model", ErrInvalidModel)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &ModelScorer{model: m}, nil
}

func (s *ModelScorer) Score(ctx context.Context, answer string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return s.model.Predict(answer), nil
}

// Labels returns the model's class names.
func (s *ModelScorer) Labels() Labels { return s.model.Labels }
