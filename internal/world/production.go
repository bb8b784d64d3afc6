package world

// Accrue returns the planet's troop count after elapsed seconds of
// production, capped at MaxTroops. Neutral planets return their troops
// unchanged. Callers must only accrue across intervals where ownership is
// constant; intervals containing an ownership change have to be split at the
// change point.
func (p *Planet) Accrue(elapsed float64) float64 {
	if p == nil {
		return 0
	}
	if p.Owner == Neutral || elapsed <= 0 {
		return p.Troops
	}
	troops := p.Troops + p.ProductionRate()*elapsed
	if troops > MaxTroops {
		troops = MaxTroops
	}
	return troops
}
