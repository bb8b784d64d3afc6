package sim

import (
	"starfall/server/internal/stats"
	"starfall/server/internal/victory"
	"starfall/server/internal/world"
)

// Snapshot captures the state exposed to non-simulation callers: agents, the
// viewer feed, and the HTTP surface. Everything in it is a copy.
type Snapshot struct {
	Tick      uint64                                `json:"tick"`
	Time      float64                               `json:"time"`
	Remaining float64                               `json:"remaining"`
	Planets   []world.PlanetView                    `json:"planets"`
	Fleets    []world.FleetView                     `json:"fleets,omitempty"`
	Stats     map[world.PlayerID]stats.PlayerStats  `json:"stats"`
	Outcome   *victory.Outcome                      `json:"outcome,omitempty"`
}

// Snapshot copies the current world state.
func (e *Engine) Snapshot() Snapshot {
	if e == nil {
		return Snapshot{}
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	planets, fleets := e.world.View(e.clock)
	snapshot := Snapshot{
		Tick:      e.tick,
		Time:      e.clock,
		Remaining: e.remainingLocked(),
		Planets:   planets,
		Fleets:    fleets,
		Stats:     e.lastStats,
	}
	if outcome, over := e.evaluator.Outcome(); over {
		copied := outcome
		snapshot.Outcome = &copied
	}
	return snapshot
}
