package ai

import (
	"testing"
	"time"

	"starfall/server/internal/stats"
	"starfall/server/internal/world"
)

// scriptedAgent always wants to launch the same fleet.
type scriptedAgent struct {
	player world.PlayerID
	order  Order
	calls  int
}

func (a *scriptedAgent) Player() world.PlayerID { return a.player }

func (a *scriptedAgent) Decide(View, float64) (Order, bool) {
	a.calls++
	return a.order, true
}

// idleAgent never issues orders.
type idleAgent struct {
	player world.PlayerID
	calls  int
}

func (a *idleAgent) Player() world.PlayerID { return a.player }

func (a *idleAgent) Decide(View, float64) (Order, bool) {
	a.calls++
	return Order{}, false
}

func activeStats(players ...world.PlayerID) map[world.PlayerID]stats.PlayerStats {
	m := make(map[world.PlayerID]stats.PlayerStats, len(players))
	for _, p := range players {
		m[p] = stats.PlayerStats{PlanetCount: 1, Active: true}
	}
	return m
}

func viewAt(now float64, aggregated map[world.PlayerID]stats.PlayerStats) View {
	return NewView(0, now, nil, nil, aggregated, nil, nil)
}

func TestRunnerCooldownUsesSimulatedTime(t *testing.T) {
	agent := &scriptedAgent{player: 1, order: Order{From: "a", To: "b", Amount: 5}}
	runner := NewRunner([]Agent{agent}, 2*time.Second)
	roster := activeStats(1)

	if got := runner.Collect(viewAt(0, roster), 0.1); len(got) != 1 {
		t.Fatalf("expected the first decision to pass, got %d commands", len(got))
	}
	// 1 simulated second later the cooldown is still running.
	if got := runner.Collect(viewAt(1.0, roster), 0.1); len(got) != 0 {
		t.Fatalf("expected cooldown to suppress the order, got %d commands", len(got))
	}
	if agent.calls != 1 {
		t.Fatalf("cooldown must suppress Decide itself, got %d calls", agent.calls)
	}
	// At 2 simulated seconds the cooldown has elapsed.
	if got := runner.Collect(viewAt(2.0, roster), 0.1); len(got) != 1 {
		t.Fatalf("expected the order after the cooldown, got %d commands", len(got))
	}
}

func TestRunnerCooldownNotConsumedWithoutOrder(t *testing.T) {
	agent := &idleAgent{player: 1}
	runner := NewRunner([]Agent{agent}, 10*time.Second)
	roster := activeStats(1)

	runner.Collect(viewAt(0, roster), 0.1)
	runner.Collect(viewAt(0.5, roster), 0.1)
	if agent.calls != 2 {
		t.Fatalf("an agent that declines must stay ready, got %d calls", agent.calls)
	}
}

func TestRunnerSkipsInactivePlayers(t *testing.T) {
	agent := &scriptedAgent{player: 2, order: Order{From: "a", To: "b", Amount: 5}}
	runner := NewRunner([]Agent{agent}, 0)

	// Player 2 has no holdings at all.
	if got := runner.Collect(viewAt(0, activeStats(1)), 0.1); len(got) != 0 {
		t.Fatalf("eliminated players must not act, got %d commands", len(got))
	}
	if agent.calls != 0 {
		t.Fatalf("eliminated players must not be consulted, got %d calls", agent.calls)
	}
}

func TestRunnerOrdersAgentsByPlayerID(t *testing.T) {
	second := &scriptedAgent{player: 2, order: Order{From: "c", To: "d", Amount: 1}}
	first := &scriptedAgent{player: 1, order: Order{From: "a", To: "b", Amount: 1}}
	runner := NewRunner([]Agent{second, first}, 0)

	commands := runner.Collect(viewAt(0, activeStats(1, 2)), 0.1)
	if len(commands) != 2 {
		t.Fatalf("expected both agents to act, got %d", len(commands))
	}
	if commands[0].Player != 1 || commands[1].Player != 2 {
		t.Fatalf("expected ascending player order, got %d then %d", commands[0].Player, commands[1].Player)
	}
	if commands[0].Dispatch == nil || commands[0].Dispatch.From != "a" {
		t.Fatalf("unexpected dispatch payload %+v", commands[0].Dispatch)
	}
}

func TestRunnerZeroCooldownNeverThrottles(t *testing.T) {
	agent := &scriptedAgent{player: 1, order: Order{From: "a", To: "b", Amount: 1}}
	runner := NewRunner([]Agent{agent}, 0)
	roster := activeStats(1)

	for i := 0; i < 3; i++ {
		if got := runner.Collect(viewAt(float64(i)*0.05, roster), 0.05); len(got) != 1 {
			t.Fatalf("tick %d: expected an order with no cooldown, got %d", i, len(got))
		}
	}
}
