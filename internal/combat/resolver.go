// Package combat resolves simultaneous fleet arrivals against a planet.
//
// The canonical contract for multi-owner arrivals is the sequential-wave
// rule: fleets owned by the planet's current owner reinforce the garrison
// first, then each remaining owner's combined force attacks the running
// defender state in descending force order (owner id ascending on ties).
package combat

import (
	"fmt"
	"sort"

	"starfall/server/internal/world"
)

// Arrival is one fleet's contribution to a resolution instant.
type Arrival struct {
	Owner  world.PlayerID
	Amount float64
}

// Result is the planet state after every wave has resolved.
type Result struct {
	Owner  world.PlayerID
	Troops float64
}

type wave struct {
	owner world.PlayerID
	force float64
}

// Resolve folds a batch of simultaneously arriving fleets into the planet's
// pre-arrival state. The input state is never mutated; the returned troops
// are clamped to [0, world.MaxTroops].
func Resolve(owner world.PlayerID, troops float64, arrivals []Arrival) Result {
	if troops < 0 {
		panic(fmt.Sprintf("combat: negative defender troops %f", troops))
	}

	forces := make(map[world.PlayerID]float64)
	for _, a := range arrivals {
		if a.Amount <= 0 {
			panic(fmt.Sprintf("combat: non-positive arrival amount %f from player %d", a.Amount, a.Owner))
		}
		forces[a.Owner] += a.Amount
	}

	// Friendly fleets land before any fighting starts.
	if reinforcement, ok := forces[owner]; ok {
		troops += reinforcement
		if troops > world.MaxTroops {
			troops = world.MaxTroops
		}
		delete(forces, owner)
	}

	waves := make([]wave, 0, len(forces))
	for attacker, force := range forces {
		waves = append(waves, wave{owner: attacker, force: force})
	}
	sort.Slice(waves, func(i, j int) bool {
		if waves[i].force != waves[j].force {
			return waves[i].force > waves[j].force
		}
		return waves[i].owner < waves[j].owner
	})

	// Each wave fights whatever survived the previous one. A surviving
	// defender force carries into the next wave; a conquering force becomes
	// the defender.
	for _, w := range waves {
		if w.force > troops {
			owner = w.owner
			troops = w.force - troops
		} else {
			troops -= w.force
		}
	}

	if troops < 0 {
		troops = 0
	}
	if troops > world.MaxTroops {
		troops = world.MaxTroops
	}
	return Result{Owner: owner, Troops: troops}
}
