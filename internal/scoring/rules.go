package scoring

import "math"

// Fixed fantasy scoring table. Applied identically to every match.
const (
	PointsPerRun       = 1.0
	BoundaryBonus      = 1.0
	SixBonus           = 2.0
	DuckPenalty        = -2.0
	PointsPerWicket    = 25.0
	BowledLBWBonus     = 8.0
	ThreeWicketBonus   = 6.0
	FourWicketBonus    = 10.0
	FiveWicketBonus    = 16.0
	MaidenOverBonus    = 12.0
	CatchPoints        = 8.0
	ThreeCatchBonus    = 4.0
	StumpingPoints     = 12.0
	RunOutDirectPoints = 12.0
	RunOutSharedPoints = 6.0

	// Rate bonuses only apply above these involvement floors.
	minBallsForStrikeRate = 10
	minBallsForEconomy    = 12
)

// RateBand awards points when a rate falls inside [Min, Max].
type RateBand struct {
	Min    float64
	Max    float64
	Points float64
}

// StrikeRateBands awards batting bonuses/penalties by strike rate.
var StrikeRateBands = []RateBand{
	{170, math.Inf(1), 6},
	{150, 169.99, 4},
	{130, 149.99, 2},
	{50, 69.99, -2},
	{0, 49.99, -4},
}

// EconomyBands awards bowling bonuses/penalties by economy rate.
var EconomyBands = []RateBand{
	{0, 5.0, 6},
	{5.01, 6.5, 4},
	{6.51, 8.0, 2},
	{10.0, 11.0, -2},
	{11.01, math.Inf(1), -4},
}

func bandPoints(bands []RateBand, rate float64) float64 {
	for _, band := range bands {
		if rate >= band.Min && rate <= band.Max {
			return band.Points
		}
	}
	return 0
}
