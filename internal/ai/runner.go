package ai

import (
	"sort"
	"time"

	"golang.org/x/time/rate"

	"starfall/server/internal/sim"
	"starfall/server/internal/world"
)

// Runner invokes every agent once per tick, subject to a per-player decision
// cooldown. The cooldown is measured in simulated seconds, not wall time, so
// fast-forwarded games keep the same decision cadence per simulated second.
type Runner struct {
	agents   []Agent
	cooldown time.Duration
	epoch    time.Time
	limiters map[world.PlayerID]*rate.Limiter
}

// NewRunner wraps the agents. Agents are consulted in ascending player order
// regardless of registration order, so runs are reproducible. A non-positive
// cooldown disables throttling.
func NewRunner(agents []Agent, cooldown time.Duration) *Runner {
	ordered := make([]Agent, len(agents))
	copy(ordered, agents)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].Player() < ordered[j].Player()
	})
	return &Runner{
		agents:   ordered,
		cooldown: cooldown,
		epoch:    time.Unix(0, 0),
		limiters: make(map[world.PlayerID]*rate.Limiter),
	}
}

// Collect gathers at most one dispatch command per ready agent for this tick.
func (r *Runner) Collect(view View, dt float64) []sim.Command {
	if r == nil || len(r.agents) == 0 {
		return nil
	}
	simNow := r.simTime(view.Now)
	var commands []sim.Command
	for _, agent := range r.agents {
		player := agent.Player()
		if st, ok := view.Stats[player]; !ok || !st.Active {
			continue
		}
		limiter := r.limiter(player)
		if limiter != nil && limiter.TokensAt(simNow) < 1 {
			continue
		}
		order, ok := agent.Decide(view, dt)
		if !ok {
			continue
		}
		if limiter != nil {
			limiter.AllowN(simNow, 1)
		}
		commands = append(commands, sim.Command{
			OriginTick: view.Tick,
			Player:     player,
			Dispatch: &sim.DispatchOrder{
				From:   order.From,
				To:     order.To,
				Amount: order.Amount,
			},
		})
	}
	return commands
}

func (r *Runner) limiter(player world.PlayerID) *rate.Limiter {
	if r.cooldown <= 0 {
		return nil
	}
	limiter, ok := r.limiters[player]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(r.cooldown), 1)
		r.limiters[player] = limiter
	}
	return limiter
}

// simTime maps simulated seconds onto the monotonic timeline the limiters
// run on.
func (r *Runner) simTime(now float64) time.Time {
	return r.epoch.Add(time.Duration(now * float64(time.Second)))
}
