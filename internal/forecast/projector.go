// Package forecast answers "what will this planet look like at T+Δt if no
// further orders are issued" analytically, without stepping the simulation.
// It reuses the same production accrual and combat resolution the tick
// scheduler runs, so for any fixed set of in-flight fleets the projection
// matches the scheduler for every tick-size decomposition of the horizon.
package forecast

import (
	"errors"
	"sort"

	"starfall/server/internal/combat"
	"starfall/server/internal/world"
)

// ErrNegativeHorizon rejects projections into the past.
var ErrNegativeHorizon = errors.New("projection horizon must be non-negative")

// Project returns the planet's owner and troop count after horizon seconds
// elapse, assuming no new fleets launch. The planet and fleets are value
// copies, so the call is pure and safe from any number of agents at once.
//
// Fleets are grouped into batches by exact arrival time, the same grouping
// the scheduler uses, and each batch resolves through the combat resolver
// after production has accrued up to that instant under the then-current
// owner.
func Project(planet world.Planet, fleets []world.Fleet, now, horizon float64) (world.PlayerID, float64, error) {
	if horizon < 0 {
		return planet.Owner, planet.Troops, ErrNegativeHorizon
	}

	deadline := now + horizon
	incoming := make([]world.Fleet, 0, len(fleets))
	for _, f := range fleets {
		if f.To != planet.ID {
			continue
		}
		arrival := f.ArrivesAt()
		if arrival <= now || arrival > deadline {
			continue
		}
		incoming = append(incoming, f)
	}
	sort.Slice(incoming, func(i, j int) bool {
		ai, aj := incoming[i].ArrivesAt(), incoming[j].ArrivesAt()
		if ai != aj {
			return ai < aj
		}
		return incoming[i].ID < incoming[j].ID
	})

	cursor := now
	for start := 0; start < len(incoming); {
		arrival := incoming[start].ArrivesAt()
		end := start
		for end < len(incoming) && incoming[end].ArrivesAt() == arrival {
			end++
		}

		planet.Troops = planet.Accrue(arrival - cursor)
		batch := make([]combat.Arrival, 0, end-start)
		for _, f := range incoming[start:end] {
			batch = append(batch, combat.Arrival{Owner: f.Owner, Amount: f.Amount})
		}
		result := combat.Resolve(planet.Owner, planet.Troops, batch)
		planet.Owner = result.Owner
		planet.Troops = result.Troops

		cursor = arrival
		start = end
	}

	planet.Troops = planet.Accrue(deadline - cursor)
	return planet.Owner, planet.Troops, nil
}
