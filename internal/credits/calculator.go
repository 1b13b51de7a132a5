package credits

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/pitchside/cricket-xi/internal/types"
)

const (
	// MinCredits and MaxCredits bound the final assignment.
	MinCredits = 4.0
	MaxCredits = 11.0

	// DefaultCredits is assigned to players with no appearance history at all.
	DefaultCredits = 6.0

	// newcomerFallback is used when a role has no experienced players to
	// derive a median from.
	newcomerFallback = 7.5

	// experienceFloor is the appearance count separating experienced players
	// (percentile-ranked) from newcomers (role median).
	experienceFloor = 10

	// compositeWindow is how many recent matches feed the composite score.
	compositeWindow = 10
)

// Assignment is a player's derived credit value.
type Assignment struct {
	PlayerID string
	Credits  float64
}

// playerComposite pairs a player with their consistency-adjusted form score.
type playerComposite struct {
	playerID  string
	composite float64
	role      types.Role
	matches   int
}

// Calculator derives credit values from appearance histories. Credits reward
// both recent output and consistency: composite = 0.7*mean + 0.3*(mean-stddev)
// over the last ten matches, then a role-scoped percentile maps onto the
// 4.0-11.0 scale.
type Calculator struct {
	composites []playerComposite
	// perRole holds experienced players' composites, sorted ascending.
	perRole map[types.Role][]float64
	byID    map[string]playerComposite
}

// NewCalculator computes composites for every player up front. histories maps
// player_id to chronological appearances; resolve supplies each player's role.
func NewCalculator(histories map[string][]types.Appearance, resolve func(playerID string) types.Role) *Calculator {
	c := &Calculator{
		perRole: make(map[types.Role][]float64),
		byID:    make(map[string]playerComposite),
	}

	for playerID, apps := range histories {
		if len(apps) == 0 {
			continue
		}
		pc := playerComposite{
			playerID:  playerID,
			composite: composite(apps),
			role:      resolve(playerID),
			matches:   len(apps),
		}
		c.composites = append(c.composites, pc)
		c.byID[playerID] = pc
		if pc.matches >= experienceFloor {
			c.perRole[pc.role] = append(c.perRole[pc.role], pc.composite)
		}
	}

	for role := range c.perRole {
		sort.Float64s(c.perRole[role])
	}
	return c
}

// Credits returns the credit value for one player. Experienced players are
// percentile-ranked against peers of the same role; newcomers get the role
// median; unknown players get DefaultCredits.
func (c *Calculator) Credits(playerID string) float64 {
	pc, ok := c.byID[playerID]
	if !ok {
		return DefaultCredits
	}

	peers := c.perRole[pc.role]
	if pc.matches < experienceFloor || len(peers) == 0 {
		return c.roleMedianCredits(pc.role)
	}

	p := percentile(peers, pc.composite)
	return round2(clip(bandCredits(p)))
}

// All returns assignments for every known player, sorted by player ID for
// stable output.
func (c *Calculator) All() []Assignment {
	out := make([]Assignment, 0, len(c.byID))
	for playerID := range c.byID {
		out = append(out, Assignment{PlayerID: playerID, Credits: c.Credits(playerID)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlayerID < out[j].PlayerID })
	return out
}

func (c *Calculator) roleMedianCredits(role types.Role) float64 {
	peers := c.perRole[role]
	if len(peers) == 0 {
		return newcomerFallback
	}
	median := stat.Quantile(0.5, stat.LinInterp, peers, nil)
	p := percentile(peers, median)
	return round2(clip(bandCredits(p)))
}

// composite scores the last ten appearances: 0.7*mean + 0.3*(mean - stddev).
// A single appearance has zero spread by definition.
func composite(apps []types.Appearance) float64 {
	window := apps
	if len(window) > compositeWindow {
		window = window[len(window)-compositeWindow:]
	}
	points := make([]float64, len(window))
	for i, app := range window {
		points[i] = app.Points
	}
	mean := stat.Mean(points, nil)
	sigma := 0.0
	if len(points) > 1 {
		sigma = stat.StdDev(points, nil)
	}
	return 0.7*mean + 0.3*(mean-sigma)
}

// percentile is the weak percentile rank: share of peers at or below x.
func percentile(sorted []float64, x float64) float64 {
	n := sort.SearchFloat64s(sorted, x)
	for n < len(sorted) && sorted[n] <= x {
		n++
	}
	return 100 * float64(n) / float64(len(sorted))
}

// bandCredits maps a percentile onto the credit scale through four bands,
// with linear interpolation inside each band.
func bandCredits(p float64) float64 {
	switch {
	case p >= 100:
		return MaxCredits
	case p >= 90:
		return lerp(p, 90, 100, 10.5, 11.0)
	case p >= 70:
		return lerp(p, 70, 90, 9.0, 10.0)
	case p >= 30:
		return lerp(p, 30, 70, 7.0, 8.5)
	default:
		return lerp(p, 0, 30, 4.0, 6.5)
	}
}

func lerp(x, x0, x1, y0, y1 float64) float64 {
	return y0 + (y1-y0)*(x-x0)/(x1-x0)
}

func clip(v float64) float64 {
	return math.Max(MinCredits, math.Min(MaxCredits, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
