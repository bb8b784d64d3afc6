// Package ai hosts the decision-agent interface and the reference policies
// that exercise the engine. Agents only ever see value snapshots and pure
// queries; the engine enforces their decision cooldown centrally, so
// policies carry no rate bookkeeping of their own.
package ai

import (
	"math"

	"starfall/server/internal/stats"
	"starfall/server/internal/world"
)

// Order is the single mutating intent an agent may return: launch a fleet.
type Order struct {
	From   string
	To     string
	Amount float64
}

// View is the read-only query surface handed to agents each tick. Slices and
// maps are copies; the projection and threat queries are pure.
type View struct {
	Tick    uint64
	Now     float64
	Planets []world.PlanetView
	Fleets  []world.FleetView
	Stats   map[world.PlayerID]stats.PlayerStats

	project func(planetID string, horizon float64) (world.PlayerID, float64, error)
	threat  func(planetID string) (float64, error)
}

// NewView assembles a view over snapshot data and engine queries.
func NewView(
	tick uint64,
	now float64,
	planets []world.PlanetView,
	fleets []world.FleetView,
	aggregated map[world.PlayerID]stats.PlayerStats,
	project func(string, float64) (world.PlayerID, float64, error),
	threat func(string) (float64, error),
) View {
	return View{
		Tick:    tick,
		Now:     now,
		Planets: planets,
		Fleets:  fleets,
		Stats:   aggregated,
		project: project,
		threat:  threat,
	}
}

// Project forwards to the engine's analytic projector.
func (v View) Project(planetID string, horizon float64) (world.PlayerID, float64, error) {
	if v.project == nil {
		return world.Neutral, 0, world.ErrUnknownPlanet
	}
	return v.project(planetID, horizon)
}

// Threat forwards to the engine's documented threat score.
func (v View) Threat(planetID string) (float64, error) {
	if v.threat == nil {
		return 0, world.ErrUnknownPlanet
	}
	return v.threat(planetID)
}

// FleetsTargeting filters the snapshot's fleets by destination.
func (v View) FleetsTargeting(planetID string) []world.FleetView {
	var targeting []world.FleetView
	for _, f := range v.Fleets {
		if f.To == planetID {
			targeting = append(targeting, f)
		}
	}
	return targeting
}

// Distance reports the Euclidean distance between two planet views.
func (v View) Distance(a, b world.PlanetView) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// TravelTime reports the fleet travel time between two planet views.
func (v View) TravelTime(a, b world.PlanetView) float64 {
	return v.Distance(a, b) / world.FleetSpeed
}

// Agent is one player's policy. Decide is invoked at most once per tick,
// subject to the centrally enforced cooldown, and returns at most one order.
type Agent interface {
	Player() world.PlayerID
	Decide(view View, dt float64) (Order, bool)
}
