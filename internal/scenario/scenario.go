// Package scenario loads, validates, and generates starting maps. Files are
// JSON, checked against an embedded schema before the semantic rules run.
package scenario

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"starfall/server/internal/world"
)

var (
	ErrDuplicatePlanetID = errors.New("scenario: duplicate planet id")
	ErrDuplicatePosition = errors.New("scenario: planets share a position")
	ErrOwnerNotInRoster  = errors.New("scenario: owner not in player roster")
	ErrPlayerHasNoPlanet = errors.New("scenario: player owns no planet")
)

// PlanetSpec is one planet's starting state.
type PlanetSpec struct {
	ID     string         `json:"id"`
	X      float64        `json:"x"`
	Y      float64        `json:"y"`
	Size   float64        `json:"size"`
	Troops float64        `json:"troops"`
	Owner  world.PlayerID `json:"owner,omitempty"`
}

// Scenario is a complete starting map.
type Scenario struct {
	Name            string           `json:"name"`
	GameDurationSec float64          `json:"game_duration_sec,omitempty"`
	Players         []world.PlayerID `json:"players"`
	Planets         []PlanetSpec     `json:"planets"`
}

var schema = jsonschema.MustCompileString("scenario.schema.json", schemaJSON)

// Load reads and fully validates the scenario file at path.
func Load(path string) (Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, fmt.Errorf("scenario: %w", err)
	}
	return Parse(raw)
}

// Parse validates raw JSON against the schema and the semantic rules.
func Parse(raw []byte) (Scenario, error) {
	var generic any
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	if err := decoder.Decode(&generic); err != nil {
		return Scenario{}, fmt.Errorf("scenario: %w", err)
	}
	if err := schema.Validate(generic); err != nil {
		return Scenario{}, fmt.Errorf("scenario: %w", err)
	}
	var s Scenario
	if err := json.Unmarshal(raw, &s); err != nil {
		return Scenario{}, fmt.Errorf("scenario: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Scenario{}, err
	}
	return s, nil
}

// Validate enforces the rules the schema cannot express.
func (s Scenario) Validate() error {
	roster := make(map[world.PlayerID]bool, len(s.Players))
	for _, p := range s.Players {
		if p == world.Neutral {
			return fmt.Errorf("%w: player 0 is reserved for neutral", ErrOwnerNotInRoster)
		}
		roster[p] = true
	}
	ids := make(map[string]bool, len(s.Planets))
	type point struct{ x, y float64 }
	positions := make(map[point]string, len(s.Planets))
	owned := make(map[world.PlayerID]bool, len(s.Players))
	for _, planet := range s.Planets {
		if ids[planet.ID] {
			return fmt.Errorf("%w: %q", ErrDuplicatePlanetID, planet.ID)
		}
		ids[planet.ID] = true
		at := point{planet.X, planet.Y}
		if other, taken := positions[at]; taken {
			return fmt.Errorf("%w: %q and %q", ErrDuplicatePosition, other, planet.ID)
		}
		positions[at] = planet.ID
		if planet.Owner != world.Neutral {
			if !roster[planet.Owner] {
				return fmt.Errorf("%w: planet %q owner %d", ErrOwnerNotInRoster, planet.ID, planet.Owner)
			}
			owned[planet.Owner] = true
		}
	}
	for _, p := range s.Players {
		if !owned[p] {
			return fmt.Errorf("%w: player %d", ErrPlayerHasNoPlanet, p)
		}
	}
	return nil
}

// Build seeds a fresh entity store from the scenario.
func (s Scenario) Build() (*world.World, error) {
	w := world.New()
	for _, spec := range s.Planets {
		planet := world.Planet{
			ID:     spec.ID,
			X:      spec.X,
			Y:      spec.Y,
			Size:   spec.Size,
			Troops: spec.Troops,
			Owner:  spec.Owner,
		}
		if err := w.AddPlanet(planet); err != nil {
			return nil, fmt.Errorf("scenario %q: %w", s.Name, err)
		}
	}
	return w, nil
}

// Marshal renders the scenario as canonical JSON for the replay journal.
func (s Scenario) Marshal() ([]byte, error) {
	sorted := s
	sorted.Players = append([]world.PlayerID(nil), s.Players...)
	sort.Slice(sorted.Players, func(i, j int) bool { return sorted.Players[i] < sorted.Players[j] })
	sorted.Planets = append([]PlanetSpec(nil), s.Planets...)
	sort.Slice(sorted.Planets, func(i, j int) bool { return sorted.Planets[i].ID < sorted.Planets[j].ID })
	return json.Marshal(sorted)
}
