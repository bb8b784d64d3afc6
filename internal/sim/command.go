package sim

import (
	"time"

	"starfall/server/internal/world"
)

// DispatchOrder asks the engine to launch a fleet. It is the only mutating
// command agents can issue; everything else they do is a read.
type DispatchOrder struct {
	From   string  `json:"from"`
	To     string  `json:"to"`
	Amount float64 `json:"amount"`
}

// Command represents an intent captured for processing on the next tick.
type Command struct {
	OriginTick uint64         `json:"originTick"`
	Player     world.PlayerID `json:"player"`
	IssuedAt   time.Time      `json:"issuedAt"`
	Dispatch   *DispatchOrder `json:"dispatch,omitempty"`
}
