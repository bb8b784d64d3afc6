package simulation

import (
	"context"

	"starfall/server/logging"
)

const (
	// EventTickBudgetOverrun is emitted when the simulation loop exceeds the allotted tick budget.
	EventTickBudgetOverrun logging.EventType = "simulation.tick_budget_overrun"
	// EventOrderRejected is emitted when a dispatch order fails validation.
	EventOrderRejected logging.EventType = "simulation.order_rejected"
)

// TickBudgetOverrunPayload captures timing details for a tick budget breach.
type TickBudgetOverrunPayload struct {
	DurationMillis int64   `json:"durationMillis"`
	BudgetMillis   int64   `json:"budgetMillis"`
	Ratio          float64 `json:"ratio"`
}

// TickBudgetOverrun publishes a warning when the simulation exceeds the configured tick budget.
func TickBudgetOverrun(ctx context.Context, pub logging.Publisher, tick uint64, payload TickBudgetOverrunPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventTickBudgetOverrun,
		Tick:     tick,
		Severity: logging.SeverityWarn,
		Category: logging.CategorySimulation,
		Payload:  payload,
	})
}

// OrderRejectedPayload captures a failed dispatch order.
type OrderRejectedPayload struct {
	Player int    `json:"player"`
	From   string `json:"from"`
	To     string `json:"to"`
	Reason string `json:"reason"`
}

// OrderRejected publishes a rejected order. Rejections are recoverable, so
// the severity stays at debug.
func OrderRejected(ctx context.Context, pub logging.Publisher, tick uint64, payload OrderRejectedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventOrderRejected,
		Tick:     tick,
		Severity: logging.SeverityDebug,
		Category: logging.CategorySimulation,
		Payload:  payload,
	})
}
