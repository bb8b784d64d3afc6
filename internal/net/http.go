// Package net exposes the read-only HTTP surface: health, snapshots,
// aggregate stats, the viewer websocket feed, and metrics.
package net

import (
	"encoding/json"
	"net/http"
	"net/http/pprof"
	"time"

	"starfall/server/internal/sim"
)

// API serves the read-only endpoints over one engine.
type API struct {
	engine  *sim.Engine
	started time.Time
}

// NewAPI wraps the engine.
func NewAPI(engine *sim.Engine) *API {
	return &API{engine: engine, started: time.Now()}
}

// MuxConfig selects the optional endpoints.
type MuxConfig struct {
	Viewer      http.Handler
	Metrics     http.Handler
	EnablePprof bool
}

// Mux assembles the server's routes.
func (a *API) Mux(cfg MuxConfig) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", a.handleHealthz)
	mux.HandleFunc("/snapshot", a.handleSnapshot)
	mux.HandleFunc("/stats", a.handleStats)
	if cfg.Viewer != nil {
		mux.Handle("/ws", cfg.Viewer)
	}
	if cfg.Metrics != nil {
		mux.Handle("/metrics", cfg.Metrics)
	}
	if cfg.EnablePprof {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}
	return mux
}

type healthResponse struct {
	Status  string  `json:"status"`
	Tick    uint64  `json:"tick"`
	SimTime float64 `json:"simTime"`
	Uptime  float64 `json:"uptimeSec"`
}

func (a *API) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, healthResponse{
		Status:  "ok",
		Tick:    a.engine.CurrentTick(),
		SimTime: a.engine.Clock(),
		Uptime:  time.Since(a.started).Seconds(),
	})
}

func (a *API) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, a.engine.Snapshot())
}

type statsResponse struct {
	Tick      uint64      `json:"tick"`
	SimTime   float64     `json:"simTime"`
	Remaining float64     `json:"remaining"`
	Stats     interface{} `json:"stats"`
	Outcome   interface{} `json:"outcome,omitempty"`
}

func (a *API) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	snapshot := a.engine.Snapshot()
	resp := statsResponse{
		Tick:      snapshot.Tick,
		SimTime:   snapshot.Time,
		Remaining: snapshot.Remaining,
		Stats:     snapshot.Stats,
	}
	if snapshot.Outcome != nil {
		resp.Outcome = snapshot.Outcome
	}
	writeJSON(w, resp)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "encode failed", http.StatusInternalServerError)
	}
}
