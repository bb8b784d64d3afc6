package scenario

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"starfall/server/internal/world"
)

func validScenario() Scenario {
	return Scenario{
		Name:    "duel",
		Players: []world.PlayerID{1, 2},
		Planets: []PlanetSpec{
			{ID: "home-1", X: -200, Y: 0, Size: 2.5, Troops: 100, Owner: 1},
			{ID: "home-2", X: 200, Y: 0, Size: 2.5, Troops: 100, Owner: 2},
			{ID: "mid", X: 0, Y: 50, Size: 1.5, Troops: 30},
		},
	}
}

func TestParseAcceptsValidScenario(t *testing.T) {
	raw, err := validScenario().Marshal()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s, err := Parse(raw)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if s.Name != "duel" || len(s.Planets) != 3 {
		t.Fatalf("unexpected scenario %+v", s)
	}
}

func TestParseRejectsSchemaViolations(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"missing players", `{"name":"x","planets":[{"id":"a","x":0,"y":0,"size":1},{"id":"b","x":1,"y":0,"size":1}]}`},
		{"single player", `{"name":"x","players":[1],"planets":[{"id":"a","x":0,"y":0,"size":1},{"id":"b","x":1,"y":0,"size":1}]}`},
		{"zero size", `{"name":"x","players":[1,2],"planets":[{"id":"a","x":0,"y":0,"size":0},{"id":"b","x":1,"y":0,"size":1}]}`},
		{"troops above cap", `{"name":"x","players":[1,2],"planets":[{"id":"a","x":0,"y":0,"size":1,"troops":1000},{"id":"b","x":1,"y":0,"size":1}]}`},
		{"unknown field", `{"name":"x","bogus":true,"players":[1,2],"planets":[{"id":"a","x":0,"y":0,"size":1},{"id":"b","x":1,"y":0,"size":1}]}`},
	}
	for _, tc := range cases {
		if _, err := Parse([]byte(tc.raw)); err == nil {
			t.Fatalf("%s: expected a validation error", tc.name)
		}
	}
}

func TestValidateSemanticRules(t *testing.T) {
	dup := validScenario()
	dup.Planets[1].ID = "home-1"
	if err := dup.Validate(); !errors.Is(err, ErrDuplicatePlanetID) {
		t.Fatalf("expected duplicate id error, got %v", err)
	}

	shared := validScenario()
	shared.Planets[1].X = shared.Planets[0].X
	shared.Planets[1].Y = shared.Planets[0].Y
	if err := shared.Validate(); !errors.Is(err, ErrDuplicatePosition) {
		t.Fatalf("expected shared position error, got %v", err)
	}

	stranger := validScenario()
	stranger.Planets[2].Owner = 9
	if err := stranger.Validate(); !errors.Is(err, ErrOwnerNotInRoster) {
		t.Fatalf("expected roster error, got %v", err)
	}

	homeless := validScenario()
	homeless.Planets[1].Owner = 1
	if err := homeless.Validate(); !errors.Is(err, ErrPlayerHasNoPlanet) {
		t.Fatalf("expected homeless player error, got %v", err)
	}
}

func TestLoadReadsFromDisk(t *testing.T) {
	raw, err := validScenario().Marshal()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	path := filepath.Join(t.TempDir(), "duel.json")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	s, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if s.Name != "duel" {
		t.Fatalf("unexpected scenario name %q", s.Name)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatalf("expected an error for a missing file")
	}
}

func TestBuildSeedsTheWorld(t *testing.T) {
	w, err := validScenario().Build()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if len(w.Planets()) != 3 {
		t.Fatalf("expected 3 planets, got %d", len(w.Planets()))
	}
	mid, ok := w.Planet("mid")
	if !ok || mid.Owner != world.Neutral || mid.Troops != 30 {
		t.Fatalf("unexpected mid planet %+v", mid)
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	first, err := Generate(42, 3, 5)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	second, err := Generate(42, 3, 5)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("the same seed must produce the same map")
	}

	other, err := Generate(43, 3, 5)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if reflect.DeepEqual(first.Planets, other.Planets) {
		t.Fatalf("different seeds should produce different maps")
	}
}

func TestGeneratedScenariosValidateAndBuild(t *testing.T) {
	s, err := Generate(7, 4, 8)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(s.Players) != 4 || len(s.Planets) != 12 {
		t.Fatalf("unexpected roster/planet counts: %d / %d", len(s.Players), len(s.Planets))
	}
	for _, p := range s.Planets {
		if strings.HasPrefix(p.ID, "home-") && p.Owner == world.Neutral {
			t.Fatalf("home planet %q must be owned", p.ID)
		}
	}
	if _, err := s.Build(); err != nil {
		t.Fatalf("generated scenario must build: %v", err)
	}
}

func TestGenerateRejectsBadArguments(t *testing.T) {
	if _, err := Generate(1, 1, 0); err == nil {
		t.Fatalf("expected an error for a single player")
	}
	if _, err := Generate(1, 2, -1); err == nil {
		t.Fatalf("expected an error for negative neutral count")
	}
}

func TestMarshalIsCanonical(t *testing.T) {
	s := validScenario()
	shuffled := s
	shuffled.Planets = []PlanetSpec{s.Planets[2], s.Planets[0], s.Planets[1]}
	shuffled.Players = []world.PlayerID{2, 1}

	a, err := s.Marshal()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	b, err := shuffled.Marshal()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(a) != string(b) {
		t.Fatalf("marshal must be order independent:\n%s\n%s", a, b)
	}
}
