// Package observability bundles the Prometheus collectors for the simulation
// server and exposes a ready-to-mount /metrics handler.
package observability

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"starfall/server/internal/sim"
)

// Collector bundles the simulation metrics and the gatherer backing the
// /metrics endpoint.
type Collector struct {
	gatherer prometheus.Gatherer

	TickDuration prometheus.Histogram
	Orders       *prometheus.CounterVec

	SimTime      prometheus.Gauge
	PlanetsOwned *prometheus.GaugeVec
	FleetsInAir  prometheus.Gauge
	TroopsTotal  *prometheus.GaugeVec
}

// NewCollector registers the simulation metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
// Re-registration returns the existing collectors so repeated game setups in
// one process stay cheap.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	tickDuration, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "sim_tick_duration_seconds",
		Help:    "Wall-clock time spent executing one simulation step.",
		Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
	}), "sim_tick_duration_seconds")
	if err != nil {
		return nil, err
	}

	orders := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sim_orders_total",
		Help: "Dispatch orders processed, labeled by result.",
	}, []string{"result"})
	orders, err = registerCounterVec(reg, orders, "sim_orders_total")
	if err != nil {
		return nil, err
	}

	simTime, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sim_time_seconds",
		Help: "Simulated seconds elapsed since game start.",
	}), "sim_time_seconds")
	if err != nil {
		return nil, err
	}

	planetsOwned := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "sim_planets_owned",
		Help: "Planets held per player. Player 0 is neutral.",
	}, []string{"player"})
	planetsOwned, err = registerGaugeVec(reg, planetsOwned, "sim_planets_owned")
	if err != nil {
		return nil, err
	}

	fleetsInAir, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sim_fleets_in_flight",
		Help: "Fleets currently travelling.",
	}), "sim_fleets_in_flight")
	if err != nil {
		return nil, err
	}

	troopsTotal := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "sim_troops_total",
		Help: "Total troops per player across planets and fleets.",
	}, []string{"player"})
	troopsTotal, err = registerGaugeVec(reg, troopsTotal, "sim_troops_total")
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:     gatherer,
		TickDuration: tickDuration,
		Orders:       orders,
		SimTime:      simTime,
		PlanetsOwned: planetsOwned,
		FleetsInAir:  fleetsInAir,
		TroopsTotal:  troopsTotal,
	}, nil
}

// ObserveStep records one executed step's timing and refreshes the world
// gauges from its snapshot.
func (c *Collector) ObserveStep(result sim.LoopStepResult) {
	if c == nil {
		return
	}
	if c.TickDuration != nil {
		c.TickDuration.Observe(result.Duration.Seconds())
	}
	if c.SimTime != nil {
		c.SimTime.Set(result.Snapshot.Time)
	}
	if c.FleetsInAir != nil {
		c.FleetsInAir.Set(float64(len(result.Snapshot.Fleets)))
	}
	for player, st := range result.Snapshot.Stats {
		label := fmt.Sprintf("%d", player)
		if c.PlanetsOwned != nil {
			c.PlanetsOwned.WithLabelValues(label).Set(float64(st.PlanetCount))
		}
		if c.TroopsTotal != nil {
			c.TroopsTotal.WithLabelValues(label).Set(st.TotalTroops)
		}
	}
}

// CountOrder records one dispatch order result ("accepted", "rejected", or a
// drop reason).
func (c *Collector) CountOrder(result string) {
	if c == nil || c.Orders == nil {
		return
	}
	c.Orders.WithLabelValues(result).Inc()
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	gatherer := prometheus.DefaultGatherer
	if c != nil && c.gatherer != nil {
		gatherer = c.gatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGaugeVec(reg prometheus.Registerer, vec *prometheus.GaugeVec, name string) (*prometheus.GaugeVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.GaugeVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}
