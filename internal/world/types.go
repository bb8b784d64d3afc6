package world

// PlayerID identifies a player. The zero value is Neutral, which owns
// unconquered planets and never owns fleets.
type PlayerID int

// Neutral marks planets that belong to no player. Neutral planets do not
// produce troops.
const Neutral PlayerID = 0

const (
	// MaxTroops is the garrison ceiling every planet saturates at.
	MaxTroops = 999.0
	// FleetSpeed is the travel speed of every fleet in distance units per
	// simulated second.
	FleetSpeed = 150.0

	productionDivisor = 20.0
)

// Planet is an entity owned by the store. Size and position are fixed at
// creation; troops stay within [0, MaxTroops].
type Planet struct {
	ID     string
	X      float64
	Y      float64
	Size   float64
	Troops float64
	Owner  PlayerID
}

// ProductionRate reports troops produced per simulated second. Neutral
// planets never produce.
func (p *Planet) ProductionRate() float64 {
	if p == nil || p.Owner == Neutral {
		return 0
	}
	return p.Size / productionDivisor
}

// Fleet is an in-flight convoy. Amount, endpoints, and duration are fixed at
// dispatch; progress is derived from the simulation clock, never stored.
type Fleet struct {
	ID         uint64
	Owner      PlayerID
	From       string
	To         string
	Amount     float64
	DepartedAt float64
	Duration   float64
}

// ArrivesAt reports the simulated time the fleet reaches its destination.
func (f *Fleet) ArrivesAt() float64 {
	return f.DepartedAt + f.Duration
}

// Progress reports the traveled fraction at the given simulated time,
// clamped to [0, 1].
func (f *Fleet) Progress(now float64) float64 {
	if f.Duration <= 0 {
		return 1
	}
	progress := (now - f.DepartedAt) / f.Duration
	if progress < 0 {
		return 0
	}
	if progress > 1 {
		return 1
	}
	return progress
}

// Position interpolates the fleet's coordinates between its endpoints for
// viewer rendering.
func (f *Fleet) Position(from, to *Planet, now float64) (float64, float64) {
	if from == nil || to == nil {
		return 0, 0
	}
	progress := f.Progress(now)
	return from.X + (to.X-from.X)*progress, from.Y + (to.Y-from.Y)*progress
}
