package world

// PlanetView mirrors a planet record for read-only consumers.
type PlanetView struct {
	ID             string   `json:"id"`
	X              float64  `json:"x"`
	Y              float64  `json:"y"`
	Size           float64  `json:"size"`
	Troops         float64  `json:"troops"`
	Owner          PlayerID `json:"owner"`
	ProductionRate float64  `json:"productionRate"`
}

// FleetView mirrors an in-flight fleet, including the position interpolated
// for the snapshot's simulated time.
type FleetView struct {
	ID         uint64   `json:"id"`
	Owner      PlayerID `json:"owner"`
	From       string   `json:"from"`
	To         string   `json:"to"`
	Amount     float64  `json:"amount"`
	DepartedAt float64  `json:"departedAt"`
	Duration   float64  `json:"duration"`
	Progress   float64  `json:"progress"`
	X          float64  `json:"x"`
	Y          float64  `json:"y"`
}

// View copies the store into value slices safe to hand to agents and the
// viewer feed. Aliasing engine-owned records is never allowed past a tick
// boundary, so everything is copied.
func (w *World) View(now float64) ([]PlanetView, []FleetView) {
	planets := make([]PlanetView, 0, len(w.planets))
	for _, p := range w.planets {
		planets = append(planets, PlanetView{
			ID:             p.ID,
			X:              p.X,
			Y:              p.Y,
			Size:           p.Size,
			Troops:         p.Troops,
			Owner:          p.Owner,
			ProductionRate: p.ProductionRate(),
		})
	}
	fleets := make([]FleetView, 0, len(w.fleets))
	for _, f := range w.fleets {
		from, _ := w.planetIndex[f.From]
		to, _ := w.planetIndex[f.To]
		x, y := f.Position(from, to, now)
		fleets = append(fleets, FleetView{
			ID:         f.ID,
			Owner:      f.Owner,
			From:       f.From,
			To:         f.To,
			Amount:     f.Amount,
			DepartedAt: f.DepartedAt,
			Duration:   f.Duration,
			Progress:   f.Progress(now),
			X:          x,
			Y:          y,
		})
	}
	return planets, fleets
}
