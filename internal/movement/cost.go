package movement

import (
	"math"

	"eremos-run/internal/config"
	"eremos-run/internal/hexmap"
)

// DetectionCost sums the zone detection cost of every hex the path
// enters. The origin is excluded by construction.
func DetectionCost(cfg *config.RunConfig, p *Path, m *hexmap.Map) float64 {
	if p == nil {
		return 0
	}
	total := 0.0
	for _, a := range p.Steps {
		total += cfg.ZoneFor(zoneAt(m, a)).DetectionCost
	}
	return total
}

// EncounterRisk combines per-hex encounter probabilities along the path
// using the complement rule: risk = 100 * (1 - Π(1 - p_i)).
func EncounterRisk(cfg *config.RunConfig, p *Path, m *hexmap.Map) float64 {
	if p == nil {
		return 0
	}
	survive := 1.0
	for _, a := range p.Steps {
		chance := cfg.ZoneFor(zoneAt(m, a)).EncounterChance
		if chance < 0 {
			chance = 0
		}
		if chance > 100 {
			chance = 100
		}
		survive *= 1 - chance/100
	}
	return 100 * (1 - survive)
}

// CombineRisk composes two independent segment risks (0-100 each) with
// the same complement rule.
func CombineRisk(a, b float64) float64 {
	return 100 * (1 - (1-a/100)*(1-b/100))
}

// FindLowestThreatPath returns the path minimizing cumulative detection
// cost, or nil when unreachable.
func FindLowestThreatPath(cfg *config.RunConfig, from, to hexmap.Axial, m *hexmap.Map) *Path {
	return weightedPath(from, to, m, func(h hexmap.Hex) float64 {
		return cfg.ZoneFor(h.Zone).DetectionCost
	})
}

// FindLowestEncounterPath returns the path minimizing cumulative
// encounter risk, or nil when unreachable. Minimizing the sum of
// -log(1-p) per hex minimizes the combined 1-Π(1-p) exactly.
func FindLowestEncounterPath(cfg *config.RunConfig, from, to hexmap.Axial, m *hexmap.Map) *Path {
	return weightedPath(from, to, m, func(h hexmap.Hex) float64 {
		chance := cfg.ZoneFor(h.Zone).EncounterChance
		if chance >= 100 {
			return math.Inf(1)
		}
		if chance <= 0 {
			return 0
		}
		return -math.Log(1 - chance/100)
	})
}

func zoneAt(m *hexmap.Map, a hexmap.Axial) hexmap.Zone {
	if h, ok := m.HexAt(a); ok {
		return h.Zone
	}
	return hexmap.ZoneFor(a, m.Radius)
}
