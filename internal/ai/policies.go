package ai

import (
	"starfall/server/internal/world"
)

// Expansionist attacks the cheapest planet it can actually take. It projects
// each candidate forward to the moment its fleet would land and only commits
// when the garrison at home can cover the projected defense with margin.
type Expansionist struct {
	player world.PlayerID
	// Margin is the extra force sent beyond the projected defense. Must be
	// positive or the attack merely zeroes the defender without capturing.
	Margin float64
	// Reserve is the fraction of the source garrison kept at home.
	Reserve float64
}

// NewExpansionist builds the policy with the stock margin and reserve.
func NewExpansionist(player world.PlayerID) *Expansionist {
	return &Expansionist{player: player, Margin: 3, Reserve: 0.25}
}

func (p *Expansionist) Player() world.PlayerID { return p.player }

// Decide picks the strongest owned planet as the staging point and the
// candidate with the lowest projected defense at arrival as the target.
// Ties break toward the lexically smaller planet id so runs stay
// reproducible.
func (p *Expansionist) Decide(view View, _ float64) (Order, bool) {
	source, ok := strongestOwned(view, p.player)
	if !ok {
		return Order{}, false
	}
	available := source.Troops * (1 - p.Reserve)

	bestCost := 0.0
	var best world.PlanetView
	found := false
	for _, candidate := range view.Planets {
		if candidate.Owner == p.player || candidate.ID == source.ID {
			continue
		}
		horizon := view.TravelTime(source, candidate)
		owner, projected, err := view.Project(candidate.ID, horizon)
		if err != nil || owner == p.player {
			continue
		}
		cost := projected + p.Margin
		if cost > available {
			continue
		}
		if !found || cost < bestCost || (cost == bestCost && candidate.ID < best.ID) {
			best = candidate
			bestCost = cost
			found = true
		}
	}
	if !found {
		return Order{}, false
	}
	return Order{From: source.ID, To: best.ID, Amount: bestCost}, true
}

// Guardian reinforces its most threatened planet from its safest one. It
// never attacks; paired against an Expansionist it produces long sieges that
// exercise the projector and combat paths heavily.
type Guardian struct {
	player world.PlayerID
	// MinTransfer suppresses trickle reinforcements that waste the cooldown.
	MinTransfer float64
}

// NewGuardian builds the policy with the stock transfer floor.
func NewGuardian(player world.PlayerID) *Guardian {
	return &Guardian{player: player, MinTransfer: 5}
}

func (p *Guardian) Player() world.PlayerID { return p.player }

// Decide moves half the safest planet's garrison toward the planet under the
// highest hostile pressure, but only when that planet is projected to fall.
func (p *Guardian) Decide(view View, _ float64) (Order, bool) {
	var endangered, safest world.PlanetView
	endangeredThreat := 0.0
	safestThreat := 0.0
	haveEndangered := false
	haveSafest := false

	for _, planet := range view.Planets {
		if planet.Owner != p.player {
			continue
		}
		threat, err := view.Threat(planet.ID)
		if err != nil {
			continue
		}
		if threat > 0 && (!haveEndangered || threat > endangeredThreat ||
			(threat == endangeredThreat && planet.ID < endangered.ID)) {
			endangered = planet
			endangeredThreat = threat
			haveEndangered = true
		}
		if !haveSafest || threat < safestThreat ||
			(threat == safestThreat && planet.Troops > safest.Troops) {
			safest = planet
			safestThreat = threat
			haveSafest = true
		}
	}
	if !haveEndangered || !haveSafest || safest.ID == endangered.ID {
		return Order{}, false
	}

	// Reinforce only if the siege is actually projected to succeed. The
	// horizon must cover every incoming hostile, not just the reinforcement
	// flight, or the projection never sees the attack.
	horizon := view.TravelTime(safest, endangered)
	for _, f := range view.FleetsTargeting(endangered.ID) {
		if f.Owner == p.player {
			continue
		}
		if remaining := f.DepartedAt + f.Duration - view.Now; remaining > horizon {
			horizon = remaining
		}
	}
	owner, _, err := view.Project(endangered.ID, horizon)
	if err != nil || owner == p.player {
		return Order{}, false
	}
	amount := safest.Troops / 2
	if amount < p.MinTransfer {
		return Order{}, false
	}
	return Order{From: safest.ID, To: endangered.ID, Amount: amount}, true
}

func strongestOwned(view View, player world.PlayerID) (world.PlanetView, bool) {
	var best world.PlanetView
	found := false
	for _, planet := range view.Planets {
		if planet.Owner != player {
			continue
		}
		if !found || planet.Troops > best.Troops ||
			(planet.Troops == best.Troops && planet.ID < best.ID) {
			best = planet
			found = true
		}
	}
	return best, found
}
