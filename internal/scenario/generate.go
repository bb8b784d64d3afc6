package scenario

import (
	"fmt"
	"math"
	"math/rand"

	"starfall/server/internal/world"
)

const (
	mapRadius        = 400.0
	homeSize         = 2.5
	homeTroops       = 100.0
	neutralSizeMin   = 0.8
	neutralSizeMax   = 2.2
	neutralTroopsMax = 60.0
	minSeparation    = 40.0
)

// Generate produces a symmetric map from the seed. Home planets sit evenly
// on the outer ring so no player starts with a distance advantage; neutral
// planets are scattered inside it. The same seed always yields the same map.
func Generate(seed int64, players, neutralPlanets int) (Scenario, error) {
	if players < 2 {
		return Scenario{}, fmt.Errorf("scenario: need at least 2 players, got %d", players)
	}
	if neutralPlanets < 0 {
		return Scenario{}, fmt.Errorf("scenario: negative neutral planet count %d", neutralPlanets)
	}
	rng := rand.New(rand.NewSource(seed))

	s := Scenario{
		Name:    fmt.Sprintf("generated-%d", seed),
		Players: make([]world.PlayerID, 0, players),
		Planets: make([]PlanetSpec, 0, players+neutralPlanets),
	}
	for i := 0; i < players; i++ {
		player := world.PlayerID(i + 1)
		s.Players = append(s.Players, player)
		angle := 2 * math.Pi * float64(i) / float64(players)
		s.Planets = append(s.Planets, PlanetSpec{
			ID:     fmt.Sprintf("home-%d", player),
			X:      round(mapRadius * math.Cos(angle)),
			Y:      round(mapRadius * math.Sin(angle)),
			Size:   homeSize,
			Troops: homeTroops,
			Owner:  player,
		})
	}

	for i := 0; i < neutralPlanets; i++ {
		spec := PlanetSpec{
			ID:     fmt.Sprintf("neutral-%d", i+1),
			Size:   round(neutralSizeMin + rng.Float64()*(neutralSizeMax-neutralSizeMin)),
			Troops: round(rng.Float64() * neutralTroopsMax),
		}
		for {
			radius := rng.Float64() * (mapRadius - minSeparation)
			angle := rng.Float64() * 2 * math.Pi
			spec.X = round(radius * math.Cos(angle))
			spec.Y = round(radius * math.Sin(angle))
			if clearOf(s.Planets, spec.X, spec.Y) {
				break
			}
		}
		s.Planets = append(s.Planets, spec)
	}
	if err := s.Validate(); err != nil {
		return Scenario{}, err
	}
	return s, nil
}

func clearOf(placed []PlanetSpec, x, y float64) bool {
	for _, p := range placed {
		if math.Hypot(p.X-x, p.Y-y) < minSeparation {
			return false
		}
	}
	return true
}

// round keeps coordinates at two decimals so generated maps survive a JSON
// round trip bit for bit.
func round(v float64) float64 {
	return math.Round(v*100) / 100
}
