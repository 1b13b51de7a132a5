// Package engine orchestrates a full squad recommendation: feature
// derivation, score prediction, credit assignment and squad optimization.
package engine

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/pitchside/cricket-xi/internal/credits"
	"github.com/pitchside/cricket-xi/internal/dataset"
	"github.com/pitchside/cricket-xi/internal/features"
	"github.com/pitchside/cricket-xi/internal/ilp"
	"github.com/pitchside/cricket-xi/internal/matchdata"
	"github.com/pitchside/cricket-xi/internal/optimizer"
	"github.com/pitchside/cricket-xi/internal/predictor"
	"github.com/pitchside/cricket-xi/internal/roles"
	"github.com/pitchside/cricket-xi/internal/types"
)

// Recommendation is the full result for one match. Attribution is not part
// of it: rationales are derived on demand via Explain and attached to the
// response without reshaping.
type Recommendation struct {
	ID        string                         `json:"request_id"`
	Teams     []string                       `json:"teams"`
	MatchDate time.Time                      `json:"match_date"`
	Squad     *types.SquadSelection          `json:"squad"`
	Features  map[string]types.FeatureVector `json:"features"`
	Predicted map[string]float64             `json:"predicted"`
	Defaulted []string                       `json:"defaulted_roles,omitempty"`
	CreatedAt time.Time                      `json:"created_at"`
}

// ProgressFunc receives pipeline stage updates. May be nil.
type ProgressFunc func(update types.ProgressUpdate)

// Engine wires the recommendation pipeline together. All fields are set at
// construction and never mutated, so one Engine serves concurrent requests.
type Engine struct {
	roles        *roles.Registry
	history      dataset.History
	credits      *credits.Calculator
	scores       predictor.ScoreProvider
	attributions predictor.AttributionProvider
	solver       ilp.Solver
	rules        optimizer.SelectionRules
	solveTimeout time.Duration
	log          *logrus.Entry
}

// Config collects the engine's dependencies.
type Config struct {
	Roles        *roles.Registry
	History      dataset.History
	Scores       predictor.ScoreProvider
	Attributions predictor.AttributionProvider
	Solver       ilp.Solver
	Rules        optimizer.SelectionRules
	SolveTimeout time.Duration
	Logger       *logrus.Entry
}

// New builds an Engine. The credit calculator is derived once from the full
// appearance history.
func New(cfg Config) *Engine {
	creditCalc := credits.NewCalculator(cfg.History, func(playerID string) types.Role {
		role, _ := cfg.Roles.Resolve(playerID, types.Season(time.Now()))
		return role
	})
	if cfg.SolveTimeout <= 0 {
		cfg.SolveTimeout = 10 * time.Second
	}
	return &Engine{
		roles:        cfg.Roles,
		history:      cfg.History,
		credits:      creditCalc,
		scores:       cfg.Scores,
		attributions: cfg.Attributions,
		solver:       cfg.Solver,
		rules:        cfg.Rules,
		solveTimeout: cfg.SolveTimeout,
		log:          cfg.Logger,
	}
}

// Recommend runs the pipeline for one upcoming match. Provider errors are
// returned untransformed; pool problems come back as *optimizer.Infeasible
// and malformed input as *optimizer.ValidationError.
func (e *Engine) Recommend(ctx context.Context, match *matchdata.Match, progress ProgressFunc) (*Recommendation, error) {
	if err := match.Validate(); err != nil {
		return nil, &optimizer.ValidationError{Field: "match", Reason: err.Error()}
	}

	// Validate guarantees a parseable date.
	matchDate, _ := match.Date()

	requestID := uuid.New().String()
	log := e.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"teams":      match.Info.Teams,
		"match_date": matchDate.Format("2006-01-02"),
	})
	emit := func(stage string, pct float64, msg string) {
		if progress != nil {
			progress(types.ProgressUpdate{
				RequestID: requestID,
				Stage:     stage,
				Progress:  pct,
				Message:   msg,
				Timestamp: time.Now(),
			})
		}
	}

	emit("features", 0.1, "Deriving player features")
	playerIDs, names, err := rosterIDs(match)
	if err != nil {
		return nil, err
	}

	vectors, err := features.ComputeAll(ctx, playerIDs, matchDate, e.history.Of, e.roles)
	if err != nil {
		return nil, err
	}

	emit("prediction", 0.4, "Predicting player scores")
	predicted := make(map[string]float64, len(playerIDs))
	for _, playerID := range playerIDs {
		score, err := e.scores.PredictScore(ctx, vectors[playerID])
		if err != nil {
			return nil, err
		}
		predicted[playerID] = score
	}

	emit("optimization", 0.7, "Optimizing squad selection")
	candidates := e.buildCandidates(match, playerIDs, names, vectors, predicted)

	solveCtx, cancel := context.WithTimeout(ctx, e.solveTimeout)
	defer cancel()
	squad, err := optimizer.Select(solveCtx, candidates, e.rules, e.solver, log)
	if err != nil {
		return nil, err
	}

	var defaulted []string
	for _, playerID := range playerIDs {
		if vectors[playerID].RoleDefaulted {
			defaulted = append(defaulted, playerID)
		}
	}
	sort.Strings(defaulted)

	emit("complete", 1.0, "Recommendation ready")
	log.WithFields(logrus.Fields{
		"total_predicted": squad.TotalPredicted,
		"total_credits":   squad.TotalCredits,
		"defaulted_roles": len(defaulted),
	}).Info("Recommendation complete")

	return &Recommendation{
		ID:        requestID,
		Teams:     match.Info.Teams,
		MatchDate: matchDate,
		Squad:     squad,
		Features:  vectors,
		Predicted: predicted,
		Defaulted: defaulted,
		CreatedAt: time.Now(),
	}, nil
}

// Explain derives the per-feature rationale for one recommended player on
// demand. The provider's output is attached as-is.
func (e *Engine) Explain(ctx context.Context, rec *Recommendation, playerID string) (map[string]float64, error) {
	fv, ok := rec.Features[playerID]
	if !ok {
		return nil, &optimizer.ValidationError{
			Field:  "player_id",
			Reason: fmt.Sprintf("player %s is not part of recommendation %s", playerID, rec.ID),
		}
	}
	return e.attributions.Attribute(ctx, fv, rec.Predicted[playerID])
}

// rosterIDs flattens both rosters into player IDs, preserving team order.
func rosterIDs(match *matchdata.Match) ([]string, map[string]string, error) {
	var playerIDs []string
	names := make(map[string]string)
	for _, team := range match.Info.Teams {
		for _, name := range match.Info.Players[team] {
			id, ok := match.Info.PlayerID(name)
			if !ok {
				return nil, nil, &optimizer.ValidationError{
					Field:  "registry",
					Reason: fmt.Sprintf("player %q has no registry identifier", name),
				}
			}
			playerIDs = append(playerIDs, id)
			names[id] = name
		}
	}
	return playerIDs, names, nil
}

func (e *Engine) buildCandidates(match *matchdata.Match, playerIDs []string, names map[string]string, vectors map[string]types.FeatureVector, predicted map[string]float64) []types.CandidatePlayer {
	candidates := make([]types.CandidatePlayer, 0, len(playerIDs))
	for _, playerID := range playerIDs {
		candidates = append(candidates, types.CandidatePlayer{
			PlayerID:        playerID,
			Name:            names[playerID],
			Role:            vectors[playerID].Role,
			Team:            match.Info.TeamOf(names[playerID]),
			Credits:         e.credits.Credits(playerID),
			PredictedPoints: predicted[playerID],
		})
	}
	return candidates
}
