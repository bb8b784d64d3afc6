// Package app wires the configuration, logging, scenario, engine, agents,
// journal, and HTTP surface into a running server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"starfall/server/internal/ai"
	"starfall/server/internal/config"
	"starfall/server/internal/digest"
	"starfall/server/internal/journal"
	servernet "starfall/server/internal/net"
	"starfall/server/internal/net/ws"
	"starfall/server/internal/observability"
	"starfall/server/internal/scenario"
	"starfall/server/internal/sim"
	"starfall/server/internal/telemetry"
	"starfall/server/internal/world"
	"starfall/server/logging"
	"starfall/server/logging/lifecycle"
	"starfall/server/logging/simulation"
	loggingSinks "starfall/server/logging/sinks"
)

// Config carries the process-level inputs.
type Config struct {
	ConfigPath string
	Logger     telemetry.Logger
}

// Run assembles the server and blocks until ctx is cancelled or the HTTP
// server fails.
func Run(ctx context.Context, appCfg Config) error {
	cfg, err := config.Load(appCfg.ConfigPath)
	if err != nil {
		return err
	}
	cfg.FromEnv()
	if err := cfg.Validate(); err != nil {
		return err
	}

	telemetryLogger := appCfg.Logger
	if telemetryLogger == nil {
		telemetryLogger = telemetry.WrapLogger(log.Default())
	}
	stdLogger := log.Default()
	if provider, ok := telemetryLogger.(interface{ StandardLogger() *log.Logger }); ok {
		if candidate := provider.StandardLogger(); candidate != nil {
			stdLogger = candidate
		}
	}

	router, jsonFile, err := buildRouter(cfg.Logging)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if cerr := router.Close(closeCtx); cerr != nil {
			telemetryLogger.Printf("failed to close logging router: %v", cerr)
		}
		if jsonFile != nil {
			jsonFile.Close()
		}
	}()

	scn, err := loadScenario(cfg.Scenario)
	if err != nil {
		return err
	}
	gameDuration := cfg.Simulation.GameDurationSec
	if scn.GameDurationSec > 0 {
		gameDuration = scn.GameDurationSec
	}
	w, err := scn.Build()
	if err != nil {
		return err
	}

	var store *journal.Store
	if cfg.Journal.Path != "" {
		store, err = journal.Open(cfg.Journal.Path)
		if err != nil {
			return err
		}
		defer store.Close()
		blob, err := scn.Marshal()
		if err != nil {
			return fmt.Errorf("app: %w", err)
		}
		if err := store.RecordScenario(scn.Name, blob); err != nil {
			return err
		}
	}

	metrics := &logging.Metrics{}
	engine := sim.NewEngine(w, sim.Config{
		GameDuration: gameDuration,
		Players:      scn.Players,
	}, sim.Deps{
		Logger:    telemetryLogger,
		Metrics:   telemetry.WrapMetrics(metrics),
		Publisher: router,
		Clock:     logging.SystemClock{},
	})

	runner := ai.NewRunner(buildAgents(scn.Players), cfg.AgentCooldown())

	var collector *observability.Collector
	if cfg.Metrics.Enabled {
		collector, err = observability.NewCollector(nil)
		if err != nil {
			return fmt.Errorf("app: %w", err)
		}
	}

	broadcaster := ws.NewBroadcaster(stdLogger)
	defer broadcaster.Close()

	chain := digest.NewChain()
	outcomeRecorded := false

	hooks := sim.LoopHooks{
		Prepare: func(tc sim.LoopTickContext) []sim.Command {
			snapshot := engine.Snapshot()
			view := ai.NewView(
				snapshot.Tick,
				snapshot.Time,
				snapshot.Planets,
				snapshot.Fleets,
				snapshot.Stats,
				engine.Project,
				func(planetID string) (float64, error) { return engine.Threat(planetID) },
			)
			return runner.Collect(view, tc.Delta)
		},
		AfterStep: func(result sim.LoopStepResult) {
			broadcaster.Broadcast(result.Snapshot)
			collector.ObserveStep(result)

			prev := chain.Head()
			link := chain.Append(result.Snapshot)
			if store != nil {
				entry := journal.DigestEntry{
					Tick:    result.Snapshot.Tick,
					SimTime: result.Snapshot.Time,
					Digest:  link.String(),
					Prev:    prev.String(),
				}
				if err := store.AppendDigest(entry); err != nil {
					telemetryLogger.Printf("journal append failed: %v", err)
				}
			}

			if result.Budget > 0 && result.Duration > result.Budget {
				simulation.TickBudgetOverrun(ctx, router, result.Tick, simulation.TickBudgetOverrunPayload{
					DurationMillis: result.Duration.Milliseconds(),
					BudgetMillis:   result.Budget.Milliseconds(),
					Ratio:          float64(result.Duration) / float64(result.Budget),
				})
			}

			if result.Snapshot.Outcome != nil && !outcomeRecorded {
				outcomeRecorded = true
				if store != nil {
					err := store.RecordOutcome(journal.OutcomeEntry{
						Winner:  int(result.Snapshot.Outcome.Winner),
						Kind:    string(result.Snapshot.Outcome.Kind),
						SimTime: result.Snapshot.Outcome.Time,
					})
					if err != nil {
						telemetryLogger.Printf("journal outcome failed: %v", err)
					}
				}
			}
		},
		OnCommandDrop: func(reason string, cmd sim.Command) {
			collector.CountOrder(reason)
		},
	}

	loop := sim.NewLoop(engine, sim.LoopConfig{
		TickRate:        cfg.Simulation.TickRateHz,
		TimeScale:       cfg.Simulation.TimeScale,
		CatchupMaxTicks: cfg.Simulation.CatchupMaxTicks,
		CommandCapacity: cfg.Simulation.CommandCapacity,
		PerPlayerLimit:  cfg.Simulation.PerPlayerLimit,
	}, hooks)

	lifecycle.GameStarted(ctx, router, lifecycle.GameStartedPayload{
		Scenario: scn.Name,
		Players:  len(scn.Players),
		Planets:  len(scn.Planets),
		Duration: gameDuration,
	})

	stop := make(chan struct{})
	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		loop.Run(stop)
	}()
	defer func() {
		close(stop)
		<-loopDone
	}()

	api := servernet.NewAPI(engine)
	mux := api.Mux(servernet.MuxConfig{
		Viewer:      http.HandlerFunc(broadcaster.Handle),
		Metrics:     metricsHandler(collector),
		EnablePprof: cfg.Metrics.EnablePprof,
	})

	srv := &http.Server{Addr: cfg.ListenAddr, Handler: mux}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	telemetryLogger.Printf("server listening on %s scenario=%s players=%d", cfg.ListenAddr, scn.Name, len(scn.Players))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("app: shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("app: server failed: %w", err)
	}
}

func buildRouter(cfg config.Logging) (*logging.Router, *os.File, error) {
	logCfg := logging.DefaultConfig()
	var sinks []logging.NamedSink
	var jsonFile *os.File
	if cfg.Console {
		sinks = append(sinks, logging.NamedSink{
			Name: "console",
			Sink: loggingSinks.NewConsoleSink(os.Stdout, logCfg.Console),
		})
	}
	if cfg.JSON {
		dir := cfg.JSONDir
		if dir == "" {
			dir = "logs"
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("app: %w", err)
		}
		path := filepath.Join(dir, fmt.Sprintf("events-%s.jsonl", time.Now().UTC().Format("20060102-150405")))
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("app: %w", err)
		}
		jsonFile = f
		sinks = append(sinks, logging.NamedSink{
			Name: "json",
			Sink: loggingSinks.NewJSON(f, logCfg.JSON.FlushInterval),
		})
	}
	router, err := logging.NewRouter(logging.SystemClock{}, logCfg, sinks)
	if err != nil {
		if jsonFile != nil {
			jsonFile.Close()
		}
		return nil, nil, fmt.Errorf("app: logging router: %w", err)
	}
	return router, jsonFile, nil
}

func loadScenario(cfg config.Scenario) (scenario.Scenario, error) {
	if cfg.Path != "" {
		return scenario.Load(cfg.Path)
	}
	return scenario.Generate(cfg.Seed, cfg.Players, cfg.NeutralPlanets)
}

// buildAgents alternates the two reference policies across the roster so
// every game has both attack and defense pressure.
func buildAgents(players []world.PlayerID) []ai.Agent {
	agents := make([]ai.Agent, 0, len(players))
	for i, p := range players {
		if i%2 == 0 {
			agents = append(agents, ai.NewExpansionist(p))
		} else {
			agents = append(agents, ai.NewGuardian(p))
		}
	}
	return agents
}

func metricsHandler(collector *observability.Collector) http.Handler {
	if collector == nil {
		return nil
	}
	return collector.Handler()
}
