package scoring

import (
	"github.com/pitchside/cricket-xi/internal/matchdata"
)

// Breakdown splits a player's match points by discipline.
type Breakdown struct {
	Batting  float64 `json:"batting"`
	Bowling  float64 `json:"bowling"`
	Fielding float64 `json:"fielding"`
}

// PlayerPoints is the final fantasy score for one player in one match.
type PlayerPoints struct {
	Total     float64   `json:"total_points"`
	Breakdown Breakdown `json:"breakdown"`
}

// Involvement captures per-match usage counts, consumed by the role builder.
type Involvement struct {
	BallsFaced  int
	BallsBowled int
	Stumpings   int
}

type playerStats struct {
	runsScored      int
	ballsFaced      int
	wickets         int
	runsConceded    int
	legalBallsBowled int
	catches         int
	stumpings       int
}

// Calculator computes fantasy points for every player in a single match.
type Calculator struct {
	match    *matchdata.Match
	registry map[string]string // player name -> player_id
	points   map[string]*Breakdown
	stats    map[string]*playerStats
}

// NewCalculator creates a calculator for one match.
func NewCalculator(match *matchdata.Match) *Calculator {
	registry := make(map[string]string)
	for _, team := range match.Info.Teams {
		for _, name := range match.Info.Players[team] {
			if id, ok := match.Info.PlayerID(name); ok {
				registry[name] = id
			}
		}
	}
	return &Calculator{
		match:    match,
		registry: registry,
		points:   make(map[string]*Breakdown),
		stats:    make(map[string]*playerStats),
	}
}

// Calculate processes every innings and returns final points per player_id.
func (c *Calculator) Calculate() map[string]PlayerPoints {
	for _, innings := range c.match.Innings {
		for _, over := range innings.Overs {
			runsInOver := 0
			lastBowler := ""
			for _, delivery := range over.Deliveries {
				c.processDelivery(delivery)
				runsInOver += delivery.Runs.Total
				lastBowler = delivery.Bowler
			}
			if runsInOver == 0 && len(over.Deliveries) > 0 {
				if bowlerID, ok := c.registry[lastBowler]; ok {
					c.breakdown(bowlerID).Bowling += MaidenOverBonus
				}
			}
		}
	}

	c.applyEndOfMatchBonuses()

	final := make(map[string]PlayerPoints, len(c.points))
	for playerID, breakdown := range c.points {
		final[playerID] = PlayerPoints{
			Total:     breakdown.Batting + breakdown.Bowling + breakdown.Fielding,
			Breakdown: *breakdown,
		}
	}
	return final
}

// Involvement returns the usage counts observed while calculating points.
// Calculate must run first.
func (c *Calculator) Involvement() map[string]Involvement {
	involvement := make(map[string]Involvement, len(c.stats))
	for playerID, stats := range c.stats {
		involvement[playerID] = Involvement{
			BallsFaced:  stats.ballsFaced,
			BallsBowled: stats.legalBallsBowled,
			Stumpings:   stats.stumpings,
		}
	}
	return involvement
}

func (c *Calculator) breakdown(playerID string) *Breakdown {
	b, ok := c.points[playerID]
	if !ok {
		b = &Breakdown{}
		c.points[playerID] = b
	}
	return b
}

func (c *Calculator) stat(playerID string) *playerStats {
	s, ok := c.stats[playerID]
	if !ok {
		s = &playerStats{}
		c.stats[playerID] = s
	}
	return s
}

func (c *Calculator) processDelivery(delivery matchdata.Delivery) {
	batterID, hasBatter := c.registry[delivery.Batter]
	bowlerID, hasBowler := c.registry[delivery.Bowler]

	_, wide := delivery.Extras["wides"]
	_, noBall := delivery.Extras["noballs"]

	if hasBatter {
		runs := delivery.Runs.Batter
		b := c.breakdown(batterID)
		b.Batting += float64(runs) * PointsPerRun
		if runs == 4 {
			b.Batting += BoundaryBonus
		}
		if runs == 6 {
			b.Batting += SixBonus
		}

		s := c.stat(batterID)
		s.runsScored += runs
		if !wide {
			s.ballsFaced++
		}
	}

	for _, wicket := range delivery.Wickets {
		if hasBowler && wicket.Kind != "run out" {
			b := c.breakdown(bowlerID)
			b.Bowling += PointsPerWicket
			c.stat(bowlerID).wickets++
			if wicket.Kind == "bowled" || wicket.Kind == "lbw" {
				b.Bowling += BowledLBWBonus
			}
		}

		for _, fielder := range wicket.Fielders {
			fielderID, ok := c.registry[fielder.Name]
			if !ok {
				continue
			}
			f := c.breakdown(fielderID)
			switch wicket.Kind {
			case "run out":
				if len(wicket.Fielders) == 1 {
					f.Fielding += RunOutDirectPoints
				} else {
					f.Fielding += RunOutSharedPoints
				}
			case "stumped":
				f.Fielding += StumpingPoints
				c.stat(fielderID).stumpings++
			default: // catch
				f.Fielding += CatchPoints
				c.stat(fielderID).catches++
			}
		}
	}

	if hasBowler {
		conceded := delivery.Runs.Batter
		conceded += delivery.Extras["wides"]
		conceded += delivery.Extras["noballs"]
		s := c.stat(bowlerID)
		s.runsConceded += conceded
		if !wide && !noBall {
			s.legalBallsBowled++
		}
	}
}

func (c *Calculator) applyEndOfMatchBonuses() {
	for playerID, stats := range c.stats {
		b := c.breakdown(playerID)

		if stats.ballsFaced >= minBallsForStrikeRate {
			strikeRate := float64(stats.runsScored) / float64(stats.ballsFaced) * 100
			b.Batting += bandPoints(StrikeRateBands, strikeRate)
		}

		if stats.runsScored == 0 && stats.ballsFaced > 0 {
			b.Batting += DuckPenalty
		}

		switch stats.wickets {
		case 3:
			b.Bowling += ThreeWicketBonus
		case 4:
			b.Bowling += FourWicketBonus
		case 5:
			b.Bowling += FiveWicketBonus
		}

		if stats.legalBallsBowled >= minBallsForEconomy {
			overs := float64(stats.legalBallsBowled) / 6
			economy := float64(stats.runsConceded) / overs
			b.Bowling += bandPoints(EconomyBands, economy)
		}

		if stats.catches >= 3 {
			b.Fielding += ThreeCatchBonus
		}
	}
}
