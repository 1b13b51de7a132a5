package roles

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitchside/cricket-xi/internal/scoring"
	"github.com/pitchside/cricket-xi/internal/types"
)

func TestTable_ResolveFallbackChain(t *testing.T) {
	table := NewTable(
		map[SeasonKey]types.Role{
			{PlayerID: "kohli", Season: 2023}: types.RoleBatter,
		},
		map[string]types.Role{
			"kohli":  types.RoleBatter,
			"jadeja": types.RoleAllRounder,
		},
	)

	// Seasonal entry wins.
	role, defaulted := table.Resolve("kohli", 2023)
	assert.Equal(t, types.RoleBatter, role)
	assert.False(t, defaulted)

	// No seasonal entry for 2024: global fills in, still not a default.
	role, defaulted = table.Resolve("jadeja", 2024)
	assert.Equal(t, types.RoleAllRounder, role)
	assert.False(t, defaulted)

	// Unknown player: conservative BAT default, flagged.
	role, defaulted = table.Resolve("debutant", 2024)
	assert.Equal(t, types.RoleBatter, role)
	assert.True(t, defaulted)
}

func TestRegistry_SwapPublishesNewSnapshot(t *testing.T) {
	registry := NewRegistry(nil)

	role, defaulted := registry.Resolve("bumrah", 2023)
	assert.Equal(t, types.RoleBatter, role)
	assert.True(t, defaulted)

	registry.Swap(NewTable(nil, map[string]types.Role{"bumrah": types.RoleBowler}))

	role, defaulted = registry.Resolve("bumrah", 2023)
	assert.Equal(t, types.RoleBowler, role)
	assert.False(t, defaulted)
}

func TestBuilder_StumpingMarksWicketKeeper(t *testing.T) {
	builder := NewBuilder()
	builder.Observe(2023, map[string]scoring.Involvement{
		// Heavy bowling involvement would otherwise classify as BOWL.
		"dhoni": {BallsFaced: 100, BallsBowled: 100, Stumpings: 1},
	})

	table := builder.Build()
	role, defaulted := table.Resolve("dhoni", 2023)
	assert.Equal(t, types.RoleWicketKeeper, role)
	assert.False(t, defaulted)
}

func TestBuilder_UsageThresholds(t *testing.T) {
	builder := NewBuilder()
	builder.Observe(2023, map[string]scoring.Involvement{
		"opener":    {BallsFaced: 90},
		"quick":     {BallsBowled: 90},
		"allround":  {BallsFaced: 70, BallsBowled: 70},
		"parttimer": {BallsFaced: 70, BallsBowled: 30}, // below bowling floor
		"tailender": {BallsFaced: 10, BallsBowled: 10}, // below both floors
	})

	table := builder.Build()
	cases := map[string]types.Role{
		"opener":    types.RoleBatter,
		"quick":     types.RoleBowler,
		"allround":  types.RoleAllRounder,
		"parttimer": types.RoleBatter,
		"tailender": types.RoleBatter,
	}
	for playerID, want := range cases {
		role, defaulted := table.Resolve(playerID, 2023)
		assert.Equal(t, want, role, playerID)
		assert.False(t, defaulted, playerID)
	}
}

func TestBuilder_InvolvementAccumulatesWithinSeason(t *testing.T) {
	builder := NewBuilder()
	// Two matches of 40 balls bowled each cross the 60-ball floor together.
	builder.Observe(2023, map[string]scoring.Involvement{"quick": {BallsBowled: 40}})
	builder.Observe(2023, map[string]scoring.Involvement{"quick": {BallsBowled: 40}})
	// A different season stays independent.
	builder.Observe(2024, map[string]scoring.Involvement{"quick": {BallsBowled: 10}})

	table := builder.Build()

	role, _ := table.Resolve("quick", 2023)
	assert.Equal(t, types.RoleBowler, role)

	role, _ = table.Resolve("quick", 2024)
	assert.Equal(t, types.RoleBatter, role)
}

func TestBuilder_GlobalMajorityVote(t *testing.T) {
	builder := NewBuilder()
	builder.Observe(2021, map[string]scoring.Involvement{"stokes": {BallsFaced: 80, BallsBowled: 80}})
	builder.Observe(2022, map[string]scoring.Involvement{"stokes": {BallsFaced: 80, BallsBowled: 80}})
	builder.Observe(2023, map[string]scoring.Involvement{"stokes": {BallsFaced: 80}})

	table := builder.Build()

	// Two AR seasons outvote one BAT season: unseen seasons resolve to AR.
	role, defaulted := table.Resolve("stokes", 2025)
	assert.Equal(t, types.RoleAllRounder, role)
	assert.False(t, defaulted)
}

func TestBuilder_MajorityTieUsesPrecedence(t *testing.T) {
	builder := NewBuilder()
	builder.Observe(2022, map[string]scoring.Involvement{"pant": {BallsFaced: 80, Stumpings: 2}})
	builder.Observe(2023, map[string]scoring.Involvement{"pant": {BallsFaced: 80}})

	table := builder.Build()

	// One WK season, one BAT season: WK wins the tie.
	role, _ := table.Resolve("pant", 2025)
	assert.Equal(t, types.RoleWicketKeeper, role)
}

func TestBuilder_Deterministic(t *testing.T) {
	observe := func(b *Builder) {
		b.Observe(2023, map[string]scoring.Involvement{
			"a": {BallsFaced: 100},
			"b": {BallsBowled: 100},
			"c": {BallsFaced: 70, BallsBowled: 70},
			"d": {Stumpings: 1},
		})
		b.Observe(2024, map[string]scoring.Involvement{
			"a": {BallsBowled: 100},
			"b": {BallsFaced: 100},
		})
	}

	first := NewBuilder()
	observe(first)
	second := NewBuilder()
	observe(second)

	s1, g1 := first.Build().Export()
	s2, g2 := second.Build().Export()
	assert.Equal(t, s1, s2)
	assert.Equal(t, g1, g2)
}

func TestTable_ExportRoundTrip(t *testing.T) {
	seasonal := map[SeasonKey]types.Role{
		{PlayerID: "a", Season: 2023}: types.RoleBowler,
	}
	global := map[string]types.Role{"a": types.RoleBowler}

	exportedSeasonal, exportedGlobal := NewTable(seasonal, global).Export()
	require.Equal(t, seasonal, exportedSeasonal)
	require.Equal(t, global, exportedGlobal)

	// Mutating the export must not affect the table.
	exportedGlobal["a"] = types.RoleBatter
	rebuilt := NewTable(seasonal, global)
	role, _ := rebuilt.Resolve("a", 2024)
	assert.Equal(t, types.RoleBowler, role)
}
