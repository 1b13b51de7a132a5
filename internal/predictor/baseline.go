package predictor

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/pitchside/cricket-xi/internal/types"
)

// Baseline is a linear model over the standard feature set. It serves as the
// bundled score provider and doubles as its own attribution provider, since
// a linear model's exact contribution per feature is weight*value.
type Baseline struct {
	Weights   map[string]float64 `json:"weights"`
	Intercept float64            `json:"intercept"`
}

// NewBaseline returns the default baseline: recent form dominates, a small
// experience term, and mild role offsets reflecting scoring opportunity.
func NewBaseline() *Baseline {
	return &Baseline{
		Weights: map[string]float64{
			"avg_fp_last_5":  0.85,
			"matches_played": 0.02,
			"role_AR":        2.0,
			"role_BOWL":      1.0,
			"role_WK":        0.5,
			"role_BAT":       0.0,
		},
		Intercept: 5.0,
	}
}

// LoadBaseline reads weights from a JSON file produced by offline training.
func LoadBaseline(path string) (*Baseline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model weights: %w", err)
	}
	var b Baseline
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("failed to parse model weights: %w", err)
	}
	if len(b.Weights) == 0 {
		return nil, fmt.Errorf("model weights file %s has no weights", path)
	}
	return &b, nil
}

// PredictScore implements ScoreProvider.
func (b *Baseline) PredictScore(_ context.Context, fv types.FeatureVector) (float64, error) {
	score := b.Intercept
	for name, value := range fv.Values() {
		score += b.Weights[name] * value
	}
	return score, nil
}

// Attribute implements AttributionProvider. For a linear model the exact
// contribution of each feature is its weight times its value.
func (b *Baseline) Attribute(_ context.Context, fv types.FeatureVector, _ float64) (map[string]float64, error) {
	contributions := make(map[string]float64, len(types.FeatureNames))
	for name, value := range fv.Values() {
		contributions[name] = b.Weights[name] * value
	}
	return contributions, nil
}
