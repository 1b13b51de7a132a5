// Package predictor defines the scoring and attribution provider contracts.
// The recommendation engine depends only on these interfaces; concrete
// providers (the bundled linear baseline, or an external model service) are
// wired in at startup.
package predictor

import (
	"context"

	"github.com/pitchside/cricket-xi/internal/types"
)

// ScoreProvider predicts a player's expected fantasy points from their
// pre-match feature vector. Implementations must not mutate the vector.
// Errors are returned as-is to the caller; the engine never substitutes a
// fallback score for a failed prediction.
type ScoreProvider interface {
	PredictScore(ctx context.Context, fv types.FeatureVector) (float64, error)
}

// AttributionProvider explains a prediction as per-feature contributions.
// The returned map is keyed by feature name; contributions need not sum to
// the score exactly for every provider.
type AttributionProvider interface {
	Attribute(ctx context.Context, fv types.FeatureVector, score float64) (map[string]float64, error)
}
