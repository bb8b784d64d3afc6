package world

import "math"

// Distance reports the Euclidean distance between two planets.
func Distance(a, b *Planet) float64 {
	if a == nil || b == nil {
		return 0
	}
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math.Hypot(dx, dy)
}

// TravelTime reports the simulated seconds a fleet needs between the two
// planets.
func TravelTime(a, b *Planet) float64 {
	return Distance(a, b) / FleetSpeed
}
