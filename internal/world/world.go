package world

import (
	"errors"
	"fmt"
)

// Dispatch rejection reasons. All of them are recoverable at the call site:
// the caller receives no fleet and may retry on a later tick.
var (
	ErrUnknownPlanet            = errors.New("unknown planet")
	ErrNotOwner                 = errors.New("source planet not owned by player")
	ErrInvalidAmount            = errors.New("invalid troop amount")
	ErrSameSourceAndDestination = errors.New("source and destination are the same planet")
)

// World is the authoritative entity store for planets and fleets. Only the
// simulation engine mutates it; every other component works from read-only
// snapshots. Iteration order is insertion order so ticks stay deterministic.
type World struct {
	planets     []*Planet
	planetIndex map[string]*Planet
	fleets      []*Fleet
	nextFleetID uint64
}

// New constructs an empty store.
func New() *World {
	return &World{
		planetIndex: make(map[string]*Planet),
		nextFleetID: 1,
	}
}

// AddPlanet registers a planet at game start. Duplicate ids and non-positive
// sizes are rejected.
func (w *World) AddPlanet(p Planet) error {
	if p.ID == "" {
		return fmt.Errorf("planet id must not be empty")
	}
	if _, exists := w.planetIndex[p.ID]; exists {
		return fmt.Errorf("planet %q already registered", p.ID)
	}
	if p.Size <= 0 {
		return fmt.Errorf("planet %q has non-positive size %f", p.ID, p.Size)
	}
	if p.Troops < 0 || p.Troops > MaxTroops {
		return fmt.Errorf("planet %q troops %f outside [0, %v]", p.ID, p.Troops, MaxTroops)
	}
	stored := p
	w.planets = append(w.planets, &stored)
	w.planetIndex[p.ID] = &stored
	return nil
}

// Planet looks up a planet by id.
func (w *World) Planet(id string) (*Planet, bool) {
	p, ok := w.planetIndex[id]
	return p, ok
}

// Planets exposes the planet records in insertion order. Callers outside the
// engine must not retain or mutate the returned pointers.
func (w *World) Planets() []*Planet {
	return w.planets
}

// Fleets exposes the in-flight fleet records in dispatch order.
func (w *World) Fleets() []*Fleet {
	return w.fleets
}

// FleetsTargeting returns the in-flight fleets bound for the given planet in
// dispatch order.
func (w *World) FleetsTargeting(planetID string) []*Fleet {
	var targeting []*Fleet
	for _, f := range w.fleets {
		if f.To == planetID {
			targeting = append(targeting, f)
		}
	}
	return targeting
}

// Dispatch validates an order and, on success, atomically deducts the amount
// from the source garrison and creates the fleet. The departure time is the
// caller's current simulated time.
func (w *World) Dispatch(player PlayerID, fromID, toID string, amount, now float64) (*Fleet, error) {
	from, ok := w.planetIndex[fromID]
	if !ok {
		return nil, fmt.Errorf("dispatch from %q: %w", fromID, ErrUnknownPlanet)
	}
	to, ok := w.planetIndex[toID]
	if !ok {
		return nil, fmt.Errorf("dispatch to %q: %w", toID, ErrUnknownPlanet)
	}
	if fromID == toID {
		return nil, fmt.Errorf("dispatch %q -> %q: %w", fromID, toID, ErrSameSourceAndDestination)
	}
	if from.Owner != player {
		return nil, fmt.Errorf("dispatch from %q as player %d: %w", fromID, player, ErrNotOwner)
	}
	if amount <= 0 || amount > from.Troops {
		return nil, fmt.Errorf("dispatch %f of %f troops: %w", amount, from.Troops, ErrInvalidAmount)
	}

	duration := TravelTime(from, to)
	if duration <= 0 {
		// Scenario validation guarantees distinct coordinates, so a zero
		// travel time means corrupted state.
		panic(fmt.Sprintf("world: zero travel time between %q and %q", fromID, toID))
	}

	from.Troops -= amount
	fleet := &Fleet{
		ID:         w.nextFleetID,
		Owner:      player,
		From:       fromID,
		To:         toID,
		Amount:     amount,
		DepartedAt: now,
		Duration:   duration,
	}
	w.nextFleetID++
	w.fleets = append(w.fleets, fleet)
	return fleet, nil
}

// RemoveArrived drops every fleet whose arrival time is at or before the
// given simulated time and returns them in dispatch order.
func (w *World) RemoveArrived(now float64) []*Fleet {
	var arrived []*Fleet
	remaining := w.fleets[:0]
	for _, f := range w.fleets {
		if f.ArrivesAt() <= now {
			arrived = append(arrived, f)
		} else {
			remaining = append(remaining, f)
		}
	}
	w.fleets = remaining
	return arrived
}
