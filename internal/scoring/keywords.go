package scoring

import (
	"context"
	"fmt"
	"strings"

	"github.com/fmuoria/interview-coach/internal/config"
	"github.com/fmuoria/interview-coach/internal/preprocess"
)

// KeywordScorer sums the weights of the rules an answer matches and
// buckets the total into a label range.
type KeywordScorer struct {
	rules   []config.KeywordRule
	cutoffs []int
}

// NewKeywordScorer needs len(cutoffs)+1 labels; a raw total below
// cutoffs[0] scores 0, below cutoffs[1] scores 1, and so on.
func NewKeywordScorer(rules []config.KeywordRule, cutoffs []int) (*KeywordScorer, error) {
	if len(rules) == 0 {
		return nil, fmt.Errorf("keyword scorer needs at least one rule")
	}
	for i := 1; i < len(cutoffs); i++ {
		if cutoffs[i] <= cutoffs[i-1] {
			return nil, fmt.Errorf("keyword cutoffs must be strictly ascending: %v", cutoffs)
		}
	}
	return &KeywordScorer{rules: rules, cutoffs: cutoffs}, nil
}

// Raw returns the summed weight and the tags of the matched rules.
func (s *KeywordScorer) Raw(answer string) (int, []string) {
	text := " " + preprocess.Clean(answer) + " "

	total := 0
	var tags []string
	for _, r := range s.rules {
		for _, needle := range r.Any {
			n := preprocess.Clean(needle)
			if n == "" {
				continue
			}
			if strings.Contains(text, " "+n+" ") {
				total += r.Weight
				tags = append(tags, r.Tag)
				break
			}
		}
	}
	return total, tags
}

func (s *KeywordScorer) Score(ctx context.Context, answer string) (int, error) {
	raw, _ := s.Raw(answer)
	score := 0
	for _, c := range s.cutoffs {
		if raw >= c {
			score++
		}
	}
	return score, nil
}
