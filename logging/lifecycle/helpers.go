// Package lifecycle defines game start, elimination, and game-over events.
package lifecycle

import (
	"context"
	"strconv"

	"starfall/server/logging"
)

const (
	EventGameStarted      logging.EventType = "lifecycle.game_started"
	EventPlayerEliminated logging.EventType = "lifecycle.player_eliminated"
	EventGameOver         logging.EventType = "lifecycle.game_over"
)

// GameStartedPayload describes the seeded world.
type GameStartedPayload struct {
	Scenario string  `json:"scenario"`
	Players  int     `json:"players"`
	Planets  int     `json:"planets"`
	Duration float64 `json:"duration"`
}

func GameStarted(ctx context.Context, pub logging.Publisher, payload GameStartedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventGameStarted,
		Actor:    logging.EntityRef{Kind: logging.EntityKindWorld},
		Severity: logging.SeverityInfo,
		Category: logging.CategorySystem,
		Payload:  payload,
	})
}

// PlayerEliminatedPayload records the write-once elimination timestamp.
type PlayerEliminatedPayload struct {
	Player  int     `json:"player"`
	SimTime float64 `json:"simTime"`
}

func PlayerEliminated(ctx context.Context, pub logging.Publisher, tick uint64, payload PlayerEliminatedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventPlayerEliminated,
		Tick:     tick,
		Actor:    logging.EntityRef{ID: strconv.Itoa(payload.Player), Kind: logging.EntityKindPlayer},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryGameplay,
		Payload:  payload,
	})
}

// GameOverPayload records the terminal outcome.
type GameOverPayload struct {
	Winner  int     `json:"winner"`
	Kind    string  `json:"kind"`
	SimTime float64 `json:"simTime"`
}

func GameOver(ctx context.Context, pub logging.Publisher, tick uint64, payload GameOverPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventGameOver,
		Tick:     tick,
		Actor:    logging.EntityRef{ID: strconv.Itoa(payload.Winner), Kind: logging.EntityKindPlayer},
		Severity: logging.SeverityInfo,
		Category: logging.CategorySystem,
		Payload:  payload,
	})
}
