package forecast

import "starfall/server/internal/world"

// Threat scores the hostile pressure on a planet: the sum of incoming
// non-friendly force, each fleet weighted by inverse time-to-arrival
// (amount / (1 + seconds until arrival)). Friendly reinforcements and fleets
// that already arrived contribute nothing. This formula is the engine's
// documented contract; agents must not re-derive their own variant.
func Threat(planet world.Planet, fleets []world.Fleet, now float64) float64 {
	var threat float64
	for _, f := range fleets {
		if f.To != planet.ID || f.Owner == planet.Owner {
			continue
		}
		remaining := f.ArrivesAt() - now
		if remaining <= 0 {
			continue
		}
		threat += f.Amount / (1 + remaining)
	}
	return threat
}
