package roles

import (
	"sync/atomic"

	"github.com/pitchside/cricket-xi/internal/types"
)

// SeasonKey identifies a player's role assignment within one season.
type SeasonKey struct {
	PlayerID string
	Season   int
}

// Table is an immutable role-lookup snapshot: a seasonal table keyed by
// (player, season) and a global table keyed by player. Build a new Table
// and swap it wholesale; never mutate one that is visible to readers.
type Table struct {
	seasonal map[SeasonKey]types.Role
	global   map[string]types.Role
}

// NewTable builds a snapshot from pre-computed role maps (e.g. loaded from
// the role store). The inputs are copied.
func NewTable(seasonal map[SeasonKey]types.Role, global map[string]types.Role) *Table {
	t := &Table{
		seasonal: make(map[SeasonKey]types.Role, len(seasonal)),
		global:   make(map[string]types.Role, len(global)),
	}
	for k, v := range seasonal {
		t.seasonal[k] = v
	}
	for k, v := range global {
		t.global[k] = v
	}
	return t
}

// Resolve maps a player and season to a role. The fallback chain is
// seasonal -> global -> BAT. The second return value reports whether the
// conservative default was used, so callers may surface an advisory.
func (t *Table) Resolve(playerID string, season int) (types.Role, bool) {
	if role, ok := t.seasonal[SeasonKey{PlayerID: playerID, Season: season}]; ok {
		return role, false
	}
	if role, ok := t.global[playerID]; ok {
		return role, false
	}
	return types.RoleBatter, true
}

// Export returns copies of both tables, e.g. for persistence.
func (t *Table) Export() (map[SeasonKey]types.Role, map[string]types.Role) {
	seasonal := make(map[SeasonKey]types.Role, len(t.seasonal))
	for k, v := range t.seasonal {
		seasonal[k] = v
	}
	global := make(map[string]types.Role, len(t.global))
	for k, v := range t.global {
		global[k] = v
	}
	return seasonal, global
}

// SeasonalLen returns the number of seasonal role entries.
func (t *Table) SeasonalLen() int { return len(t.seasonal) }

// GlobalLen returns the number of global role entries.
func (t *Table) GlobalLen() int { return len(t.global) }

// Registry holds the current Table snapshot. Reads are lock-free; a rebuild
// publishes an entirely new Table via Swap, never an in-place edit.
type Registry struct {
	current atomic.Pointer[Table]
}

// NewRegistry creates a registry seeded with the given snapshot.
func NewRegistry(table *Table) *Registry {
	r := &Registry{}
	if table == nil {
		table = NewTable(nil, nil)
	}
	r.current.Store(table)
	return r
}

// Current returns the active snapshot.
func (r *Registry) Current() *Table {
	return r.current.Load()
}

// Swap atomically replaces the active snapshot.
func (r *Registry) Swap(table *Table) {
	r.current.Store(table)
}

// Resolve resolves against the current snapshot.
func (r *Registry) Resolve(playerID string, season int) (types.Role, bool) {
	return r.Current().Resolve(playerID, season)
}
