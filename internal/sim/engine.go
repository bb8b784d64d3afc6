package sim

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"starfall/server/internal/combat"
	"starfall/server/internal/forecast"
	"starfall/server/internal/stats"
	"starfall/server/internal/victory"
	"starfall/server/internal/world"
	"starfall/server/logging/battle"
	"starfall/server/logging/lifecycle"
	"starfall/server/logging/simulation"
)

const (
	ordersAcceptedMetricKey   = "sim_orders_accepted_total"
	ordersRejectedMetricKey   = "sim_orders_rejected_total"
	arrivalsResolvedMetricKey = "sim_arrivals_resolved_total"
)

// Config fixes the rules of one game.
type Config struct {
	// GameDuration is the simulated-time budget in seconds. When it runs
	// out the largest army wins.
	GameDuration float64
	// Players is the non-neutral roster seeded by the scenario.
	Players []world.PlayerID
}

// Engine owns the entity store and drives simulated time. All mutation flows
// through Apply/Submit (dispatch) and Step (production, travel, combat, win
// check); everything else sees copies. Ticks never run concurrently; every
// entry point holds the engine lock.
type Engine struct {
	mu        sync.Mutex
	world     *world.World
	cfg       Config
	deps      Deps
	clock     float64
	tick      uint64
	evaluator *victory.Evaluator
	lastStats map[world.PlayerID]stats.PlayerStats
	announced bool
}

// NewEngine wraps a seeded store. The store must not be touched by anyone
// else afterwards.
func NewEngine(w *world.World, cfg Config, deps Deps) *Engine {
	if w == nil {
		return nil
	}
	if cfg.GameDuration <= 0 {
		panic(fmt.Sprintf("sim: non-positive game duration %f", cfg.GameDuration))
	}
	e := &Engine{
		world:     w,
		cfg:       cfg,
		deps:      deps,
		evaluator: victory.NewEvaluator(cfg.Players),
	}
	planets, fleets := w.View(0)
	e.lastStats = stats.Aggregate(planets, fleets)
	return e
}

// Submit validates a dispatch order and creates the fleet. Rejections leave
// the store untouched; see world.Dispatch for the error taxonomy.
func (e *Engine) Submit(player world.PlayerID, from, to string, amount float64) (uint64, error) {
	if e == nil {
		return 0, world.ErrUnknownPlanet
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.submitLocked(player, from, to, amount)
}

func (e *Engine) submitLocked(player world.PlayerID, from, to string, amount float64) (uint64, error) {
	fleet, err := e.world.Dispatch(player, from, to, amount, e.clock)
	if err != nil {
		if e.deps.Metrics != nil {
			e.deps.Metrics.Add(ordersRejectedMetricKey, 1)
		}
		simulation.OrderRejected(context.Background(), e.deps.publisher(), e.tick, simulation.OrderRejectedPayload{
			Player: int(player),
			From:   from,
			To:     to,
			Reason: err.Error(),
		})
		return 0, err
	}
	if e.deps.Metrics != nil {
		e.deps.Metrics.Add(ordersAcceptedMetricKey, 1)
	}
	battle.FleetDispatched(context.Background(), e.deps.publisher(), e.tick, int(player), battle.FleetDispatchedPayload{
		FleetID:  fleet.ID,
		From:     from,
		To:       to,
		Amount:   amount,
		Duration: fleet.Duration,
	})
	return fleet.ID, nil
}

// Apply stages the drained commands against the current simulated time.
// Rejected orders are reported through the publisher and dropped; the caller
// retries on a later tick if it still wants the move.
func (e *Engine) Apply(cmds []Command) {
	if e == nil || len(cmds) == 0 {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, cmd := range cmds {
		if cmd.Dispatch == nil {
			continue
		}
		_, _ = e.submitLocked(cmd.Player, cmd.Dispatch.From, cmd.Dispatch.To, cmd.Dispatch.Amount)
	}
}

// Step advances simulated time by dt seconds. Arrivals resolve at their
// exact arrival instants inside the window, with production accrued between
// events under the then-current owner, so the result is independent of how a
// span of time is cut into ticks. dt must be non-negative; zero is a no-op.
func (e *Engine) Step(dt float64) {
	if e == nil {
		return
	}
	if dt < 0 {
		panic(fmt.Sprintf("sim: negative step %f", dt))
	}
	if dt == 0 {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	target := e.clock + dt
	e.resolveUntilLocked(target)
	e.clock = target
	e.tick++
	e.evaluateLocked()
}

func (e *Engine) resolveUntilLocked(target float64) {
	var arriving []*world.Fleet
	for _, f := range e.world.Fleets() {
		if f.ArrivesAt() <= target {
			arriving = append(arriving, f)
		}
	}
	sort.Slice(arriving, func(i, j int) bool {
		ai, aj := arriving[i].ArrivesAt(), arriving[j].ArrivesAt()
		if ai != aj {
			return ai < aj
		}
		if arriving[i].To != arriving[j].To {
			return arriving[i].To < arriving[j].To
		}
		return arriving[i].ID < arriving[j].ID
	})

	cursor := e.clock
	for i := 0; i < len(arriving); {
		instant := arriving[i].ArrivesAt()
		e.accrueAllLocked(instant - cursor)

		j := i
		for j < len(arriving) && arriving[j].ArrivesAt() == instant {
			j++
		}
		for k := i; k < j; {
			dest := arriving[k].To
			m := k
			for m < j && arriving[m].To == dest {
				m++
			}
			e.resolveBatchLocked(dest, arriving[k:m], instant)
			k = m
		}

		cursor = instant
		i = j
	}
	e.accrueAllLocked(target - cursor)
	e.world.RemoveArrived(target)
}

func (e *Engine) accrueAllLocked(elapsed float64) {
	if elapsed <= 0 {
		return
	}
	for _, p := range e.world.Planets() {
		p.Troops = p.Accrue(elapsed)
	}
}

func (e *Engine) resolveBatchLocked(destID string, batch []*world.Fleet, instant float64) {
	planet, ok := e.world.Planet(destID)
	if !ok {
		panic(fmt.Sprintf("sim: fleet targeting unknown planet %q", destID))
	}
	arrivals := make([]combat.Arrival, 0, len(batch))
	for _, f := range batch {
		arrivals = append(arrivals, combat.Arrival{Owner: f.Owner, Amount: f.Amount})
	}
	before := *planet
	result := combat.Resolve(planet.Owner, planet.Troops, arrivals)
	planet.Owner = result.Owner
	planet.Troops = result.Troops

	if e.deps.Metrics != nil {
		e.deps.Metrics.Add(arrivalsResolvedMetricKey, uint64(len(batch)))
	}
	battle.ArrivalResolved(context.Background(), e.deps.publisher(), e.tick, battle.ArrivalResolvedPayload{
		Planet:       destID,
		Arrivals:     len(batch),
		OwnerBefore:  int(before.Owner),
		OwnerAfter:   int(planet.Owner),
		TroopsBefore: before.Troops,
		TroopsAfter:  planet.Troops,
		SimTime:      instant,
	})
}

func (e *Engine) evaluateLocked() {
	planets, fleets := e.world.View(e.clock)
	aggregated := stats.Aggregate(planets, fleets)
	e.lastStats = aggregated

	eliminated := e.evaluator.Evaluate(e.clock, e.cfg.GameDuration-e.clock, aggregated)
	for _, p := range eliminated {
		at, _ := e.evaluator.EliminatedAt(p)
		lifecycle.PlayerEliminated(context.Background(), e.deps.publisher(), e.tick, lifecycle.PlayerEliminatedPayload{
			Player:  int(p),
			SimTime: at,
		})
	}
	if outcome, over := e.evaluator.Outcome(); over && !e.announced {
		e.announced = true
		lifecycle.GameOver(context.Background(), e.deps.publisher(), e.tick, lifecycle.GameOverPayload{
			Winner:  int(outcome.Winner),
			Kind:    string(outcome.Kind),
			SimTime: outcome.Time,
		})
	}
}

// Project answers what the tick loop would produce for the planet after
// horizon seconds with no further orders. Pure with respect to the store:
// the projection works on copies taken under the lock.
func (e *Engine) Project(planetID string, horizon float64) (world.PlayerID, float64, error) {
	planet, fleets, now, err := e.copyPlanetState(planetID)
	if err != nil {
		return world.Neutral, 0, err
	}
	return forecast.Project(planet, fleets, now, horizon)
}

// Threat reports the documented hostile-pressure score for the planet.
func (e *Engine) Threat(planetID string) (float64, error) {
	planet, fleets, now, err := e.copyPlanetState(planetID)
	if err != nil {
		return 0, err
	}
	return forecast.Threat(planet, fleets, now), nil
}

// copyPlanetState snapshots one planet, its incoming fleets, and the clock
// under a single lock acquisition so queries see a consistent instant.
func (e *Engine) copyPlanetState(planetID string) (world.Planet, []world.Fleet, float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, ok := e.world.Planet(planetID)
	if !ok {
		return world.Planet{}, nil, 0, fmt.Errorf("project %q: %w", planetID, world.ErrUnknownPlanet)
	}
	fleets := make([]world.Fleet, 0)
	for _, f := range e.world.FleetsTargeting(planetID) {
		fleets = append(fleets, *f)
	}
	return *p, fleets, e.clock, nil
}

// Clock reports simulated elapsed seconds.
func (e *Engine) Clock() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.clock
}

// CurrentTick reports how many steps have been processed.
func (e *Engine) CurrentTick() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tick
}

// Remaining reports the simulated seconds left on the game clock, clamped
// at zero.
func (e *Engine) Remaining() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.remainingLocked()
}

func (e *Engine) remainingLocked() float64 {
	remaining := e.cfg.GameDuration - e.clock
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Outcome reports the terminal result once the game is over.
func (e *Engine) Outcome() (victory.Outcome, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.evaluator.Outcome()
}

// EliminatedAt reports the write-once elimination timestamp for a player.
func (e *Engine) EliminatedAt(p world.PlayerID) (float64, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.evaluator.EliminatedAt(p)
}
