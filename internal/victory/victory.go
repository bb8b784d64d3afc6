// Package victory runs the win-condition state machine: Ongoing until either
// exactly one player remains active (domination) or the simulated game clock
// expires (time victory to the largest army). The terminal state is
// absorbing and re-evaluation is a no-op.
package victory

import (
	"starfall/server/internal/stats"
	"starfall/server/internal/world"
)

// Kind distinguishes how a game ended.
type Kind string

const (
	KindDomination Kind = "domination"
	KindTime       Kind = "time"
)

// Outcome records the terminal result.
type Outcome struct {
	Winner world.PlayerID `json:"winner"`
	Kind   Kind           `json:"kind"`
	Time   float64        `json:"time"`
}

// Evaluator tracks eliminations and the terminal outcome for a fixed player
// roster. It is not safe for concurrent use; the engine invokes it once per
// tick under its own lock.
type Evaluator struct {
	players      []world.PlayerID
	eliminatedAt map[world.PlayerID]float64
	outcome      *Outcome
}

// NewEvaluator constructs an evaluator for the given non-neutral roster.
func NewEvaluator(players []world.PlayerID) *Evaluator {
	roster := make([]world.PlayerID, 0, len(players))
	for _, p := range players {
		if p == world.Neutral {
			continue
		}
		roster = append(roster, p)
	}
	return &Evaluator{
		players:      roster,
		eliminatedAt: make(map[world.PlayerID]float64),
	}
}

// Evaluate advances the state machine for one tick. It records elimination
// timestamps (write-once), then checks domination, then time expiry. The
// returned slice lists players newly eliminated by this call. After the
// outcome is set, Evaluate records nothing and returns nil.
func (e *Evaluator) Evaluate(now, remaining float64, aggregated map[world.PlayerID]stats.PlayerStats) []world.PlayerID {
	if e == nil || e.outcome != nil {
		return nil
	}

	var eliminated []world.PlayerID
	active := make([]world.PlayerID, 0, len(e.players))
	for _, p := range e.players {
		if aggregated[p].Active {
			active = append(active, p)
			continue
		}
		if _, done := e.eliminatedAt[p]; !done {
			e.eliminatedAt[p] = now
			eliminated = append(eliminated, p)
		}
	}

	if len(active) == 1 {
		e.outcome = &Outcome{Winner: active[0], Kind: KindDomination, Time: now}
		return eliminated
	}

	if remaining <= 0 {
		winner := world.Neutral
		best := -1.0
		for _, p := range e.players {
			total := aggregated[p].TotalTroops
			// Ties break to the lowest player id so replays stay stable.
			if total > best {
				best = total
				winner = p
			}
		}
		e.outcome = &Outcome{Winner: winner, Kind: KindTime, Time: now}
	}
	return eliminated
}

// Outcome reports the terminal result once the game is over.
func (e *Evaluator) Outcome() (Outcome, bool) {
	if e == nil || e.outcome == nil {
		return Outcome{}, false
	}
	return *e.outcome, true
}

// EliminatedAt reports the simulated time a player was eliminated.
func (e *Evaluator) EliminatedAt(p world.PlayerID) (float64, bool) {
	if e == nil {
		return 0, false
	}
	at, ok := e.eliminatedAt[p]
	return at, ok
}
