package sim

import (
	"context"
	"errors"
	"sync"
	"testing"

	"starfall/server/internal/world"
	"starfall/server/logging"
	"starfall/server/logging/battle"
	"starfall/server/logging/lifecycle"
)

// Sizes are chosen so production rates (size/20) are exact binary fractions
// and every accrual below stays exact in float64. That lets the equivalence
// tests compare states with ==, which is the actual contract.
func newTestEngine(t *testing.T, deps Deps) *Engine {
	t.Helper()
	w := world.New()
	planets := []world.Planet{
		{ID: "alpha", X: 0, Y: 0, Size: 5, Troops: 100, Owner: 1},
		{ID: "beta", X: 150, Y: 0, Size: 20, Troops: 10, Owner: world.Neutral},
		{ID: "gamma", X: 300, Y: 0, Size: 5, Troops: 50, Owner: 2},
	}
	for _, p := range planets {
		if err := w.AddPlanet(p); err != nil {
			t.Fatalf("add planet %q: %v", p.ID, err)
		}
	}
	engine := NewEngine(w, Config{GameDuration: 600, Players: []world.PlayerID{1, 2}}, deps)
	if engine == nil {
		t.Fatalf("expected engine")
	}
	return engine
}

type eventRecorder struct {
	mu     sync.Mutex
	events []logging.Event
}

func (r *eventRecorder) Publish(_ context.Context, event logging.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *eventRecorder) byType(eventType logging.EventType) []logging.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []logging.Event
	for _, e := range r.events {
		if e.Type == eventType {
			matched = append(matched, e)
		}
	}
	return matched
}

func planetState(t *testing.T, e *Engine, id string) (world.PlayerID, float64) {
	t.Helper()
	snapshot := e.Snapshot()
	for _, p := range snapshot.Planets {
		if p.ID == id {
			return p.Owner, p.Troops
		}
	}
	t.Fatalf("planet %q missing from snapshot", id)
	return 0, 0
}

func TestStepPanicsOnNegativeDelta(t *testing.T) {
	engine := newTestEngine(t, Deps{})
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on negative dt")
		}
	}()
	engine.Step(-0.1)
}

func TestStepZeroIsNoOp(t *testing.T) {
	engine := newTestEngine(t, Deps{})
	engine.Step(0)
	if engine.Clock() != 0 || engine.CurrentTick() != 0 {
		t.Fatalf("zero step must not advance time or tick: clock=%f tick=%d", engine.Clock(), engine.CurrentTick())
	}
}

func TestStepAccruesProduction(t *testing.T) {
	engine := newTestEngine(t, Deps{})
	engine.Step(4)

	_, alpha := planetState(t, engine, "alpha")
	if alpha != 101 {
		t.Fatalf("expected alpha at 100 + 0.25*4 = 101, got %f", alpha)
	}
	owner, beta := planetState(t, engine, "beta")
	if owner != world.Neutral || beta != 10 {
		t.Fatalf("neutral beta must not grow, got owner=%d troops=%f", owner, beta)
	}
}

func TestSubmitRejectionsLeaveStateUntouched(t *testing.T) {
	recorder := &eventRecorder{}
	engine := newTestEngine(t, Deps{Publisher: recorder})

	if _, err := engine.Submit(1, "alpha", "alpha", 10); !errors.Is(err, world.ErrSameSourceAndDestination) {
		t.Fatalf("expected same-planet rejection, got %v", err)
	}
	if _, err := engine.Submit(2, "alpha", "beta", 10); !errors.Is(err, world.ErrNotOwner) {
		t.Fatalf("expected ownership rejection, got %v", err)
	}
	if _, err := engine.Submit(1, "alpha", "beta", 1000); !errors.Is(err, world.ErrInvalidAmount) {
		t.Fatalf("expected overdraw rejection, got %v", err)
	}

	_, alpha := planetState(t, engine, "alpha")
	if alpha != 100 {
		t.Fatalf("rejections must not touch garrisons, got %f", alpha)
	}
	if len(engine.Snapshot().Fleets) != 0 {
		t.Fatalf("rejections must not create fleets")
	}
	if got := len(recorder.byType("simulation.order_rejected")); got != 3 {
		t.Fatalf("expected 3 rejection events, got %d", got)
	}
}

func TestArrivalResolvesAtExactInstantInsideTick(t *testing.T) {
	engine := newTestEngine(t, Deps{})
	if _, err := engine.Submit(1, "alpha", "beta", 30); err != nil {
		t.Fatalf("submit: %v", err)
	}

	// The fleet lands at t=1.0 in the middle of a 2.5s step. Beta must be
	// captured at that instant and then produce under player 1 for the
	// remaining 1.5 seconds at rate 1.0.
	engine.Step(2.5)

	owner, beta := planetState(t, engine, "beta")
	if owner != 1 {
		t.Fatalf("expected beta captured by player 1, got %d", owner)
	}
	if beta != 21.5 {
		t.Fatalf("expected beta at (30-10) + 1.0*1.5 = 21.5, got %f", beta)
	}
	if len(engine.Snapshot().Fleets) != 0 {
		t.Fatalf("arrived fleets must leave the store")
	}
}

func TestStepResultIndependentOfTickDecomposition(t *testing.T) {
	decompositions := [][]float64{
		{2.5},
		{0.5, 0.5, 0.5, 0.5, 0.5},
		{1.0, 1.5},
		{0.25, 0.25, 0.25, 0.25, 0.25, 0.25, 0.25, 0.25, 0.25, 0.25},
		{2.0, 0.5},
	}

	type state struct {
		owner  world.PlayerID
		troops float64
	}
	var baseline map[string]state
	for i, steps := range decompositions {
		engine := newTestEngine(t, Deps{})
		if _, err := engine.Submit(1, "alpha", "beta", 30); err != nil {
			t.Fatalf("submit: %v", err)
		}
		for _, dt := range steps {
			engine.Step(dt)
		}

		snapshot := engine.Snapshot()
		got := make(map[string]state, len(snapshot.Planets))
		for _, p := range snapshot.Planets {
			got[p.ID] = state{owner: p.Owner, troops: p.Troops}
		}
		if baseline == nil {
			baseline = got
			continue
		}
		for id, want := range baseline {
			if got[id] != want {
				t.Fatalf("decomposition %d diverged on %q: expected %+v, got %+v", i, id, want, got[id])
			}
		}
	}
}

func TestProjectionMatchesTickLoopExactly(t *testing.T) {
	engine := newTestEngine(t, Deps{})
	if _, err := engine.Submit(1, "alpha", "beta", 30); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := engine.Submit(2, "gamma", "beta", 25); err != nil {
		t.Fatalf("submit: %v", err)
	}

	const horizon = 3.0
	projectedOwner, projectedTroops, err := engine.Project("beta", horizon)
	if err != nil {
		t.Fatalf("project: %v", err)
	}

	engine.Step(horizon)
	owner, troops := planetState(t, engine, "beta")
	if owner != projectedOwner || troops != projectedTroops {
		t.Fatalf("projection diverged from tick loop: projected (%d, %f), got (%d, %f)",
			projectedOwner, projectedTroops, owner, troops)
	}
}

func TestProjectionMatchesAnyDecompositionOfHorizon(t *testing.T) {
	engine := newTestEngine(t, Deps{})
	if _, err := engine.Submit(1, "alpha", "beta", 30); err != nil {
		t.Fatalf("submit: %v", err)
	}

	projectedOwner, projectedTroops, err := engine.Project("beta", 2.5)
	if err != nil {
		t.Fatalf("project: %v", err)
	}

	for _, dt := range []float64{0.5, 0.25, 0.75, 1.0} {
		engine.Step(dt)
	}
	owner, troops := planetState(t, engine, "beta")
	if owner != projectedOwner || troops != projectedTroops {
		t.Fatalf("projection diverged under split stepping: projected (%d, %f), got (%d, %f)",
			projectedOwner, projectedTroops, owner, troops)
	}
}

func TestProjectUnknownPlanet(t *testing.T) {
	engine := newTestEngine(t, Deps{})
	if _, _, err := engine.Project("nowhere", 1); !errors.Is(err, world.ErrUnknownPlanet) {
		t.Fatalf("expected ErrUnknownPlanet, got %v", err)
	}
}

func TestSimultaneousArrivalsPublishSingleResolution(t *testing.T) {
	recorder := &eventRecorder{}
	engine := newTestEngine(t, Deps{Publisher: recorder})

	// Both fleets cover 150 units and land at the same instant.
	if _, err := engine.Submit(1, "alpha", "beta", 20); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := engine.Submit(2, "gamma", "beta", 25); err != nil {
		t.Fatalf("submit: %v", err)
	}
	engine.Step(1)

	resolved := recorder.byType(battle.EventArrivalResolved)
	if len(resolved) != 1 {
		t.Fatalf("expected one batched resolution event, got %d", len(resolved))
	}
	// Waves against neutral 10: 25 captures (15 left), then 20 takes it back
	// with 5 for player 1.
	owner, troops := planetState(t, engine, "beta")
	if owner != 1 || troops != 5 {
		t.Fatalf("expected player 1 holding 5 troops, got owner=%d troops=%f", owner, troops)
	}
}

func TestDominationOutcomeAndEvents(t *testing.T) {
	recorder := &eventRecorder{}
	engine := newTestEngine(t, Deps{Publisher: recorder})

	// Player 1 wipes out gamma, player 2's only holding.
	if _, err := engine.Submit(1, "alpha", "gamma", 90); err != nil {
		t.Fatalf("submit: %v", err)
	}
	engine.Step(3)

	outcome, over := engine.Outcome()
	if !over {
		t.Fatalf("expected the game to be over")
	}
	if outcome.Winner != 1 || outcome.Kind != "domination" {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
	if at, ok := engine.EliminatedAt(2); !ok || at != 3 {
		t.Fatalf("expected player 2 eliminated at t=3, got %f ok=%v", at, ok)
	}
	if got := len(recorder.byType(lifecycle.EventPlayerEliminated)); got != 1 {
		t.Fatalf("expected one elimination event, got %d", got)
	}
	if got := len(recorder.byType(lifecycle.EventGameOver)); got != 1 {
		t.Fatalf("expected one game-over event, got %d", got)
	}

	// Another step must not re-announce.
	engine.Step(1)
	if got := len(recorder.byType(lifecycle.EventGameOver)); got != 1 {
		t.Fatalf("game over must be announced once, got %d events", got)
	}
}

func TestTimeVictoryWhenClockExpires(t *testing.T) {
	w := world.New()
	for _, p := range []world.Planet{
		{ID: "a", X: 0, Y: 0, Size: 5, Troops: 200, Owner: 1},
		{ID: "b", X: 150, Y: 0, Size: 5, Troops: 100, Owner: 2},
	} {
		if err := w.AddPlanet(p); err != nil {
			t.Fatalf("add planet: %v", err)
		}
	}
	engine := NewEngine(w, Config{GameDuration: 10, Players: []world.PlayerID{1, 2}}, Deps{})

	engine.Step(10)
	outcome, over := engine.Outcome()
	if !over {
		t.Fatalf("expected time victory at clock expiry")
	}
	if outcome.Winner != 1 || outcome.Kind != "time" {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
	if engine.Remaining() != 0 {
		t.Fatalf("remaining must clamp at zero, got %f", engine.Remaining())
	}
}

func TestGarrisonCapHoldsThroughSteps(t *testing.T) {
	w := world.New()
	for _, p := range []world.Planet{
		{ID: "a", X: 0, Y: 0, Size: 20, Troops: 998, Owner: 1},
		{ID: "b", X: 150, Y: 0, Size: 5, Troops: 10, Owner: 2},
	} {
		if err := w.AddPlanet(p); err != nil {
			t.Fatalf("add planet: %v", err)
		}
	}
	engine := NewEngine(w, Config{GameDuration: 600, Players: []world.PlayerID{1, 2}}, Deps{})
	engine.Step(50)

	snapshot := engine.Snapshot()
	for _, p := range snapshot.Planets {
		if p.Troops > world.MaxTroops {
			t.Fatalf("planet %q exceeded the cap: %f", p.ID, p.Troops)
		}
	}
}
