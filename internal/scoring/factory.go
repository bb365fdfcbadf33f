package scoring

import (
	"context"
	"fmt"
	"io"

	"github.com/fmuoria/interview-coach/internal/config"
	"github.com/fmuoria/interview-coach/internal/llm"
)

// New builds the scorer named by cfg.Scorer together with the labels it
// scores against. The returned closer releases any client the scorer
// holds and is never nil.
func New(ctx context.Context, cfg *config.Config) (Scorer, Labels, io.Closer, error) {
	labels := Labels(cfg.Labels)
	if len(labels) == 0 {
		labels = DefaultLabels
	}

	switch cfg.Scorer {
	case config.ScorerModel:
		m, err := LoadModel(cfg.Resolve(cfg.ModelPath))
		if err != nil {
			return nil, nil, nopCloser{}, err
		}
		s, err := NewModelScorer(m)
		if err != nil {
			return nil, nil, nopCloser{}, err
		}
		// the model defines its own classes
		return s, m.Labels, nopCloser{}, nil

	case config.ScorerKeywords:
		if len(cfg.KeywordCutoffs) != len(labels)-1 {
			return nil, nil, nopCloser{}, fmt.Errorf("keyword scorer needs %d cutoffs for %d labels", len(labels)-1, len(labels))
		}
		s, err := NewKeywordScorer(cfg.KeywordRules, cfg.KeywordCutoffs)
		if err != nil {
			return nil, nil, nopCloser{}, err
		}
		return s, labels, nopCloser{}, nil

	case config.ScorerVertex:
		client, err := llm.NewVertexAIClient(ctx, cfg.GoogleCloudProject, cfg.GoogleCloudLocation, cfg.VertexModel)
		if err != nil {
			return nil, nil, nopCloser{}, fmt.Errorf("failed to initialize LLM client: %w", err)
		}
		return NewVertexScorer(client, labels), labels, client, nil
	}

	return nil, nil, nopCloser{}, fmt.Errorf("unknown scorer %q", cfg.Scorer)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
