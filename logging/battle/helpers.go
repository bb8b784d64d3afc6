// Package battle defines the gameplay events emitted when fleets launch and
// arrivals resolve.
package battle

import (
	"context"
	"strconv"

	"starfall/server/logging"
)

const (
	// EventFleetDispatched is emitted when a validated order creates a fleet.
	EventFleetDispatched logging.EventType = "battle.fleet_dispatched"
	// EventArrivalResolved is emitted once per resolved arrival batch.
	EventArrivalResolved logging.EventType = "battle.arrival_resolved"
	// EventPlanetCaptured is emitted when an arrival batch flips ownership.
	EventPlanetCaptured logging.EventType = "battle.planet_captured"
)

// FleetDispatchedPayload captures the fleet created by a dispatch order.
type FleetDispatchedPayload struct {
	FleetID  uint64  `json:"fleetId"`
	From     string  `json:"from"`
	To       string  `json:"to"`
	Amount   float64 `json:"amount"`
	Duration float64 `json:"duration"`
}

// FleetDispatched publishes a dispatch event for the owning player.
func FleetDispatched(ctx context.Context, pub logging.Publisher, tick uint64, player int, payload FleetDispatchedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventFleetDispatched,
		Tick:     tick,
		Actor:    logging.EntityRef{ID: strconv.Itoa(player), Kind: logging.EntityKindPlayer},
		Targets:  []logging.EntityRef{{ID: payload.To, Kind: logging.EntityKindPlanet}},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryGameplay,
		Payload:  payload,
	})
}

// ArrivalResolvedPayload captures a combat resolution at one planet.
type ArrivalResolvedPayload struct {
	Planet       string  `json:"planet"`
	Arrivals     int     `json:"arrivals"`
	OwnerBefore  int     `json:"ownerBefore"`
	OwnerAfter   int     `json:"ownerAfter"`
	TroopsBefore float64 `json:"troopsBefore"`
	TroopsAfter  float64 `json:"troopsAfter"`
	SimTime      float64 `json:"simTime"`
}

// ArrivalResolved publishes the outcome of one arrival batch.
func ArrivalResolved(ctx context.Context, pub logging.Publisher, tick uint64, payload ArrivalResolvedPayload) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventArrivalResolved,
		Tick:     tick,
		Actor:    logging.EntityRef{ID: payload.Planet, Kind: logging.EntityKindPlanet},
		Severity: logging.SeverityDebug,
		Category: logging.CategoryBattle,
		Payload:  payload,
	}
	pub.Publish(ctx, event)
	if payload.OwnerAfter != payload.OwnerBefore {
		event.Type = EventPlanetCaptured
		event.Severity = logging.SeverityInfo
		pub.Publish(ctx, event)
	}
}
