package sim

import (
	"starfall/server/internal/telemetry"
	"starfall/server/logging"
)

// Deps carries shared infrastructure dependencies required by the simulation engine.
type Deps struct {
	Logger    telemetry.Logger
	Metrics   telemetry.Metrics
	Publisher logging.Publisher
	Clock     logging.Clock
}

func (d Deps) publisher() logging.Publisher {
	if d.Publisher == nil {
		return logging.NopPublisher()
	}
	return d.Publisher
}
