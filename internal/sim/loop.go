package sim

import (
	"sync"
	"time"

	"starfall/server/internal/world"
	"starfall/server/logging"
)

const (
	// CommandRejectQueueLimit indicates a command was dropped due to per-player
	// queue throttling.
	CommandRejectQueueLimit = "queue_limit"
	// CommandRejectQueueFull indicates the global command buffer is saturated.
	CommandRejectQueueFull = "queue_full"
)

// LoopConfig tunes the command buffer and tick loop orchestration.
type LoopConfig struct {
	TickRate        int
	TimeScale       float64
	CatchupMaxTicks int
	CommandCapacity int
	PerPlayerLimit  int
}

// LoopTickContext carries the timing inputs for one step.
type LoopTickContext struct {
	Tick  uint64
	Now   time.Time
	Delta float64
}

// LoopStepResult summarises one executed step for the AfterStep hook.
type LoopStepResult struct {
	Tick     uint64
	Now      time.Time
	Delta    float64
	Duration time.Duration
	Budget   time.Duration
	Snapshot Snapshot
	Commands []Command
}

// LoopHooks lets the host observe the loop without reaching into the engine.
type LoopHooks struct {
	Prepare       func(LoopTickContext) []Command
	AfterStep     func(LoopStepResult)
	OnCommandDrop func(reason string, cmd Command)
}

// Loop coordinates command ingestion and the fixed-timestep simulation
// runner. Wall-clock deltas are scaled by TimeScale into simulated seconds,
// so fast-forward changes pacing without touching any game rule.
type Loop struct {
	engine *Engine
	buffer *CommandBuffer
	hooks  LoopHooks
	config LoopConfig

	queueMu        sync.Mutex
	perPlayerCount map[world.PlayerID]int
	dropCounts     map[world.PlayerID]uint64
}

// NewLoop wraps the engine with a ring-buffer queue and a fixed-timestep runner.
func NewLoop(engine *Engine, cfg LoopConfig, hooks LoopHooks) *Loop {
	if engine == nil {
		return nil
	}
	if cfg.TimeScale <= 0 {
		cfg.TimeScale = 1
	}
	return &Loop{
		engine:         engine,
		buffer:         NewCommandBuffer(cfg.CommandCapacity, engine.deps.Metrics),
		hooks:          hooks,
		config:         cfg,
		perPlayerCount: make(map[world.PlayerID]int),
		dropCounts:     make(map[world.PlayerID]uint64),
	}
}

// Engine exposes the wrapped engine for read-only queries.
func (l *Loop) Engine() *Engine {
	if l == nil {
		return nil
	}
	return l.engine
}

// Pending reports the number of staged commands.
func (l *Loop) Pending() int {
	if l == nil {
		return 0
	}
	return l.buffer.Len()
}

// Enqueue stages a command, enforcing per-player throttling and capacity limits.
func (l *Loop) Enqueue(cmd Command) (bool, string) {
	if l == nil {
		return false, CommandRejectQueueFull
	}
	reason := ""
	var dropCount uint64
	l.queueMu.Lock()
	if l.config.PerPlayerLimit > 0 {
		count := l.perPlayerCount[cmd.Player]
		if count >= l.config.PerPlayerLimit {
			reason = CommandRejectQueueLimit
			dropCount = l.incrementDropLocked(cmd.Player)
		} else {
			l.perPlayerCount[cmd.Player] = count + 1
		}
	}
	if reason == "" && !l.buffer.Push(cmd) {
		reason = CommandRejectQueueFull
		dropCount = l.incrementDropLocked(cmd.Player)
	}
	l.queueMu.Unlock()
	if reason != "" {
		l.reportDrop(reason, cmd, dropCount)
		return false, reason
	}
	return true, ""
}

// Advance executes a single simulation step using the staged commands plus
// whatever the Prepare hook contributes (the agent runner feeds orders in
// this way so cooldown enforcement stays inside the engine's tick).
func (l *Loop) Advance(ctx LoopTickContext) LoopStepResult {
	if l == nil {
		return LoopStepResult{}
	}
	commands := l.drainCommands()
	if l.hooks.Prepare != nil {
		commands = append(commands, l.hooks.Prepare(ctx)...)
	}
	l.engine.Apply(commands)
	l.engine.Step(ctx.Delta)
	return LoopStepResult{
		Tick:     ctx.Tick,
		Now:      ctx.Now,
		Delta:    ctx.Delta,
		Snapshot: l.engine.Snapshot(),
		Commands: commands,
	}
}

// Run drives the fixed-timestep loop until the stop channel closes.
func (l *Loop) Run(stop <-chan struct{}) {
	if l == nil {
		return
	}
	tickRate := l.config.TickRate
	if tickRate <= 0 {
		tickRate = 20
	}
	ticker := time.NewTicker(time.Second / time.Duration(tickRate))
	defer ticker.Stop()

	clock := l.engine.deps.Clock
	if clock == nil {
		clock = logging.SystemClock{}
	}
	last := clock.Now()
	budgetSeconds := 1.0 / float64(tickRate)
	maxDt := budgetSeconds
	if l.config.CatchupMaxTicks > 1 {
		maxDt = budgetSeconds * float64(l.config.CatchupMaxTicks)
	}
	budgetDuration := time.Second / time.Duration(tickRate)

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			now := clock.Now()
			dt := now.Sub(last).Seconds()
			if dt <= 0 {
				dt = budgetSeconds
			} else if dt > maxDt {
				dt = maxDt
			}
			last = now

			start := clock.Now()
			result := l.Advance(LoopTickContext{
				Tick:  l.engine.CurrentTick() + 1,
				Now:   now,
				Delta: dt * l.config.TimeScale,
			})
			result.Duration = clock.Now().Sub(start)
			result.Budget = budgetDuration

			if l.hooks.AfterStep != nil {
				l.hooks.AfterStep(result)
			}
		}
	}
}

func (l *Loop) drainCommands() []Command {
	l.queueMu.Lock()
	defer l.queueMu.Unlock()
	commands := l.buffer.Drain()
	if len(l.perPlayerCount) > 0 {
		l.perPlayerCount = make(map[world.PlayerID]int)
	}
	return commands
}

func (l *Loop) incrementDropLocked(player world.PlayerID) uint64 {
	count := l.dropCounts[player] + 1
	l.dropCounts[player] = count
	return count
}

func (l *Loop) reportDrop(reason string, cmd Command, count uint64) {
	if l.hooks.OnCommandDrop != nil {
		l.hooks.OnCommandDrop(reason, cmd)
	}
	if count > 0 && count&(count-1) == 0 {
		if logger := l.engine.deps.Logger; logger != nil {
			logger.Printf(
				"[backpressure] dropping command player=%d reason=%s count=%d limit=%d",
				cmd.Player,
				reason,
				count,
				l.config.PerPlayerLimit,
			)
		}
	}
}
