package sim

import (
	"testing"
	"time"

	"starfall/server/internal/world"
)

func dispatchCommand(player world.PlayerID, from, to string, amount float64) Command {
	return Command{
		Player:   player,
		IssuedAt: time.Now(),
		Dispatch: &DispatchOrder{From: from, To: to, Amount: amount},
	}
}

func TestLoopAdvanceAppliesQueuedCommands(t *testing.T) {
	engine := newTestEngine(t, Deps{})
	loop := NewLoop(engine, LoopConfig{CommandCapacity: 8}, LoopHooks{})

	if ok, reason := loop.Enqueue(dispatchCommand(1, "alpha", "beta", 30)); !ok {
		t.Fatalf("enqueue rejected: %s", reason)
	}
	if loop.Pending() != 1 {
		t.Fatalf("expected one staged command, got %d", loop.Pending())
	}

	result := loop.Advance(LoopTickContext{Tick: 1, Now: time.Now(), Delta: 0.5})
	if loop.Pending() != 0 {
		t.Fatalf("advance must drain the queue, got %d pending", loop.Pending())
	}
	if len(result.Snapshot.Fleets) != 1 {
		t.Fatalf("expected the dispatched fleet in flight, got %d", len(result.Snapshot.Fleets))
	}
	if result.Snapshot.Time != 0.5 {
		t.Fatalf("expected simulated time 0.5, got %f", result.Snapshot.Time)
	}
}

func TestLoopPerPlayerThrottle(t *testing.T) {
	engine := newTestEngine(t, Deps{})
	var dropped []string
	loop := NewLoop(engine, LoopConfig{CommandCapacity: 8, PerPlayerLimit: 2}, LoopHooks{
		OnCommandDrop: func(reason string, _ Command) {
			dropped = append(dropped, reason)
		},
	})

	for i := 0; i < 2; i++ {
		if ok, _ := loop.Enqueue(dispatchCommand(1, "alpha", "beta", 1)); !ok {
			t.Fatalf("enqueue %d within limit rejected", i)
		}
	}
	ok, reason := loop.Enqueue(dispatchCommand(1, "alpha", "beta", 1))
	if ok {
		t.Fatalf("expected third command to be throttled")
	}
	if reason != CommandRejectQueueLimit {
		t.Fatalf("expected %q, got %q", CommandRejectQueueLimit, reason)
	}
	if len(dropped) != 1 || dropped[0] != CommandRejectQueueLimit {
		t.Fatalf("expected one drop callback, got %v", dropped)
	}

	// Another player is unaffected by the first player's throttle.
	if ok, _ := loop.Enqueue(dispatchCommand(2, "gamma", "beta", 1)); !ok {
		t.Fatalf("second player must not be throttled")
	}

	// The throttle resets once the queue drains.
	loop.Advance(LoopTickContext{Tick: 1, Now: time.Now(), Delta: 0.05})
	if ok, _ := loop.Enqueue(dispatchCommand(1, "alpha", "beta", 1)); !ok {
		t.Fatalf("throttle must reset after a drain")
	}
}

func TestLoopQueueFull(t *testing.T) {
	engine := newTestEngine(t, Deps{})
	loop := NewLoop(engine, LoopConfig{CommandCapacity: 1}, LoopHooks{})

	if ok, _ := loop.Enqueue(dispatchCommand(1, "alpha", "beta", 1)); !ok {
		t.Fatalf("first command must fit")
	}
	ok, reason := loop.Enqueue(dispatchCommand(2, "gamma", "beta", 1))
	if ok || reason != CommandRejectQueueFull {
		t.Fatalf("expected queue-full rejection, got ok=%v reason=%q", ok, reason)
	}
}

func TestLoopPrepareHookFeedsCommands(t *testing.T) {
	engine := newTestEngine(t, Deps{})
	loop := NewLoop(engine, LoopConfig{CommandCapacity: 8}, LoopHooks{
		Prepare: func(ctx LoopTickContext) []Command {
			return []Command{dispatchCommand(2, "gamma", "beta", 10)}
		},
	})

	result := loop.Advance(LoopTickContext{Tick: 1, Now: time.Now(), Delta: 0.25})
	if len(result.Commands) != 1 {
		t.Fatalf("expected the prepared command in the step result, got %d", len(result.Commands))
	}
	if len(result.Snapshot.Fleets) != 1 || result.Snapshot.Fleets[0].Owner != 2 {
		t.Fatalf("expected player 2's fleet in flight, got %+v", result.Snapshot.Fleets)
	}
}

func TestLoopTimeScaleMultipliesDelta(t *testing.T) {
	engine := newTestEngine(t, Deps{})
	loop := NewLoop(engine, LoopConfig{CommandCapacity: 8, TimeScale: 4}, LoopHooks{})

	// Advance applies the already-scaled delta; Run performs the scaling.
	// This asserts the default is preserved through NewLoop.
	if loop.config.TimeScale != 4 {
		t.Fatalf("expected configured time scale 4, got %f", loop.config.TimeScale)
	}
	zeroScale := NewLoop(engine, LoopConfig{CommandCapacity: 8}, LoopHooks{})
	if zeroScale.config.TimeScale != 1 {
		t.Fatalf("expected time scale default of 1, got %f", zeroScale.config.TimeScale)
	}
}
