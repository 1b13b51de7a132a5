package dataset

import (
	"github.com/sirupsen/logrus"

	"github.com/pitchside/cricket-xi/internal/matchdata"
	"github.com/pitchside/cricket-xi/internal/roles"
	"github.com/pitchside/cricket-xi/internal/scoring"
	"github.com/pitchside/cricket-xi/internal/types"
)

// History holds every player's scored appearances in chronological order.
type History map[string][]types.Appearance

// NewHistory builds a History from pre-scored appearances, keeping each
// player's slice in chronological order.
func NewHistory(appearances map[string][]types.Appearance) History {
	h := make(History, len(appearances))
	for playerID, apps := range appearances {
		h[playerID] = append([]types.Appearance(nil), apps...)
	}
	return h
}

// Of returns the appearance history for one player. A missing player yields
// an empty slice, which downstream treats as a debutant.
func (h History) Of(playerID string) []types.Appearance {
	return h[playerID]
}

// Players returns the number of players with at least one appearance.
func (h History) Players() int { return len(h) }

// Result is the output of a full dataset build.
type Result struct {
	History History
	Roles   *roles.Table
}

// Build scores every match chronologically, accumulating per-player
// appearance histories and the role table in a single pass. Matches must
// already be sorted by date (matchdata.LoadDir guarantees this); a repeated
// match ID for a player is skipped so reprocessed files cannot double-count.
func Build(matches []*matchdata.Match, log *logrus.Entry) (*Result, error) {
	history := make(History)
	builder := roles.NewBuilder()
	seen := make(map[string]map[string]bool) // player_id -> match_id

	for _, match := range matches {
		if err := match.Validate(); err != nil {
			log.WithFields(logrus.Fields{
				"match_id": match.ID,
				"error":    err.Error(),
			}).Warn("Skipping invalid match")
			continue
		}

		// Validate guarantees a parseable date.
		date, _ := match.Date()

		calc := scoring.NewCalculator(match)
		points := calc.Calculate()
		builder.Observe(types.Season(date), calc.Involvement())
		for playerID, pts := range points {
			if seen[playerID] == nil {
				seen[playerID] = make(map[string]bool)
			}
			if seen[playerID][match.ID] {
				continue
			}
			seen[playerID][match.ID] = true
			history[playerID] = append(history[playerID], types.Appearance{
				MatchID: match.ID,
				Date:    date,
				Points:  pts.Total,
			})
		}
	}

	table := builder.Build()
	log.WithFields(logrus.Fields{
		"matches":        len(matches),
		"players":        len(history),
		"seasonal_roles": table.SeasonalLen(),
		"global_roles":   table.GlobalLen(),
	}).Info("Dataset build complete")

	return &Result{History: history, Roles: table}, nil
}
