package features

import (
	"context"
	"math"
	"runtime"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pitchside/cricket-xi/internal/types"
)

// formWindow is how many recent matches feed the rolling form average.
const formWindow = 5

// Resolver maps a player and season to a role. Satisfied by roles.Table
// and roles.Registry.
type Resolver interface {
	Resolve(playerID string, season int) (types.Role, bool)
}

// Compute derives the leak-free feature vector for one player ahead of
// targetDate. Only appearances strictly before targetDate are considered;
// duplicate entries for the same match are counted once, and a missing
// points value contributes 0 rather than poisoning the average.
func Compute(playerID string, targetDate time.Time, history []types.Appearance, resolver Resolver) types.FeatureVector {
	prior := priorAppearances(targetDate, history)

	avg := 0.0
	if len(prior) > 0 {
		window := prior
		if len(window) > formWindow {
			window = window[:formWindow]
		}
		sum := 0.0
		for _, app := range window {
			if !math.IsNaN(app.Points) {
				sum += app.Points
			}
		}
		avg = sum / float64(len(window))
	}

	role, defaulted := resolver.Resolve(playerID, types.Season(targetDate))

	return types.FeatureVector{
		PlayerID:       playerID,
		TargetDate:     targetDate,
		AvgPointsLast5: avg,
		MatchesPlayed:  len(prior),
		Role:           role,
		RoleDefaulted:  defaulted,
	}
}

// priorAppearances filters to matches strictly before targetDate, deduped
// per match, most recent first.
func priorAppearances(targetDate time.Time, history []types.Appearance) []types.Appearance {
	seen := make(map[string]bool, len(history))
	prior := make([]types.Appearance, 0, len(history))
	for _, app := range history {
		if !app.Date.Before(targetDate) {
			continue
		}
		key := app.MatchID
		if key == "" {
			key = app.Date.Format("2006-01-02")
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		prior = append(prior, app)
	}

	sort.SliceStable(prior, func(i, j int) bool {
		if !prior[i].Date.Equal(prior[j].Date) {
			return prior[i].Date.After(prior[j].Date)
		}
		return prior[i].MatchID > prior[j].MatchID
	})

	return prior
}

// ComputeAll computes feature vectors for many players concurrently. Each
// computation is a pure function of its own history slice, so results are
// deterministic regardless of scheduling.
func ComputeAll(ctx context.Context, playerIDs []string, targetDate time.Time, history func(playerID string) []types.Appearance, resolver Resolver) (map[string]types.FeatureVector, error) {
	results := make([]types.FeatureVector, len(playerIDs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, playerID := range playerIDs {
		i, playerID := i, playerID
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = Compute(playerID, targetDate, history(playerID), resolver)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	vectors := make(map[string]types.FeatureVector, len(results))
	for _, fv := range results {
		vectors[fv.PlayerID] = fv
	}
	return vectors, nil
}
