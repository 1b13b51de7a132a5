package roles

import (
	"sort"

	"github.com/pitchside/cricket-xi/internal/scoring"
	"github.com/pitchside/cricket-xi/internal/types"
)

// Usage thresholds for seasonal classification. A season's assignment only
// ever looks at that season's counts.
const (
	// minSeasonBallsBowled is the bowling involvement (legal balls across
	// the season) required to count a player as a bowling option.
	minSeasonBallsBowled = 60
	// minSeasonBallsFaced is the equivalent batting involvement floor.
	minSeasonBallsFaced = 60
)

type seasonStats struct {
	ballsFaced  int
	ballsBowled int
	stumpings   int
}

// Builder accumulates per-season involvement and produces an immutable role
// Table. Building is an offline step run once per dataset load; classification
// is deterministic: identical inputs always yield identical tables.
type Builder struct {
	stats map[SeasonKey]*seasonStats
}

// NewBuilder creates an empty role builder.
func NewBuilder() *Builder {
	return &Builder{stats: make(map[SeasonKey]*seasonStats)}
}

// Observe folds one match's involvement counts into the given season.
func (b *Builder) Observe(season int, involvement map[string]scoring.Involvement) {
	for playerID, inv := range involvement {
		key := SeasonKey{PlayerID: playerID, Season: season}
		s, ok := b.stats[key]
		if !ok {
			s = &seasonStats{}
			b.stats[key] = s
		}
		s.ballsFaced += inv.BallsFaced
		s.ballsBowled += inv.BallsBowled
		s.stumpings += inv.Stumpings
	}
}

// Build classifies every observed (player, season) pair and derives the
// global table as a majority vote over each player's seasonal roles,
// tie-broken by the fixed precedence WK > AR > BOWL > BAT.
func (b *Builder) Build() *Table {
	seasonal := make(map[SeasonKey]types.Role, len(b.stats))
	for key, s := range b.stats {
		seasonal[key] = classify(s)
	}

	votes := make(map[string]map[types.Role]int)
	for key, role := range seasonal {
		if votes[key.PlayerID] == nil {
			votes[key.PlayerID] = make(map[types.Role]int)
		}
		votes[key.PlayerID][role]++
	}

	global := make(map[string]types.Role, len(votes))
	for playerID, counts := range votes {
		global[playerID] = majority(counts)
	}

	return NewTable(seasonal, global)
}

// classify applies the fixed seasonal rules: any stumping credited as
// fielder marks a wicket-keeper; otherwise usage thresholds decide between
// BOWL, AR and BAT.
func classify(s *seasonStats) types.Role {
	if s.stumpings >= 1 {
		return types.RoleWicketKeeper
	}
	bowls := s.ballsBowled >= minSeasonBallsBowled
	bats := s.ballsFaced >= minSeasonBallsFaced
	switch {
	case bowls && bats:
		return types.RoleAllRounder
	case bowls:
		return types.RoleBowler
	default:
		return types.RoleBatter
	}
}

func majority(counts map[types.Role]int) types.Role {
	roles := make([]types.Role, 0, len(counts))
	for role := range counts {
		roles = append(roles, role)
	}
	// Highest vote count first; precedence breaks ties.
	sort.Slice(roles, func(i, j int) bool {
		if counts[roles[i]] != counts[roles[j]] {
			return counts[roles[i]] > counts[roles[j]]
		}
		return roles[i].Precedence() < roles[j].Precedence()
	})
	return roles[0]
}
