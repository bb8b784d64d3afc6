// Package stats aggregates per-player totals from a world view. The win
// evaluator and the decision agents both consume these aggregates.
package stats

import "starfall/server/internal/world"

// PlayerStats summarises one player's holdings at a snapshot instant.
type PlayerStats struct {
	TotalTroops float64 `json:"totalTroops"`
	PlanetCount int     `json:"planetCount"`
	FleetCount  int     `json:"fleetCount"`
	Active      bool    `json:"active"`
}

// Aggregate computes per-player stats from snapshot views. Total troops sum
// garrisons and in-flight fleet amounts; a player is active while they hold
// at least one planet or one in-flight fleet. Neutral holdings are reported
// under world.Neutral but neutral is never "active" in the win-condition
// sense.
func Aggregate(planets []world.PlanetView, fleets []world.FleetView) map[world.PlayerID]PlayerStats {
	aggregated := make(map[world.PlayerID]PlayerStats)
	for _, p := range planets {
		entry := aggregated[p.Owner]
		entry.TotalTroops += p.Troops
		entry.PlanetCount++
		aggregated[p.Owner] = entry
	}
	for _, f := range fleets {
		entry := aggregated[f.Owner]
		entry.TotalTroops += f.Amount
		entry.FleetCount++
		aggregated[f.Owner] = entry
	}
	for id, entry := range aggregated {
		entry.Active = id != world.Neutral && (entry.PlanetCount > 0 || entry.FleetCount > 0)
		aggregated[id] = entry
	}
	return aggregated
}
