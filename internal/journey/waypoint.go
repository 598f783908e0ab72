// Package journey drives the hex-by-hex run loop: waypoint consumption,
// timed scan and move waits, detection commits, encounter and salvage
// suspension, and the terminal run transitions.
package journey

import (
	"eremos-run/internal/config"
	"eremos-run/internal/hexmap"
	"eremos-run/internal/movement"
)

// Route selects the path strategy for a leg.
type Route string

const (
	// RouteDirect takes the fewest-hops path.
	RouteDirect Route = "direct"
	// RouteStealth minimizes cumulative detection cost.
	RouteStealth Route = "stealth"
	// RouteSafe minimizes cumulative encounter risk.
	RouteSafe Route = "safe"
)

// Waypoint is one planned leg of a journey. Segment fields cover this
// leg's path only; cumulative fields cover the whole queue up to and
// including this leg. Detection adds, encounter risk composes as a
// probabilistic OR.
type Waypoint struct {
	Hex                     hexmap.Axial   `json:"hex"`
	Route                   Route          `json:"route"`
	Path                    *movement.Path `json:"-"`
	SegmentDetection        float64        `json:"segment_detection"`
	CumulativeDetection     float64        `json:"cumulative_detection"`
	SegmentEncounterRisk    float64        `json:"segment_encounter_risk"`
	CumulativeEncounterRisk float64        `json:"cumulative_encounter_risk"`
}

// buildWaypoint computes one leg from origin to dest, or nil when dest
// is unreachable. Cumulative fields are left for accumulate.
func buildWaypoint(cfg *config.RunConfig, m *hexmap.Map, origin, dest hexmap.Axial, route Route) *Waypoint {
	var p *movement.Path
	switch route {
	case RouteStealth:
		p = movement.FindLowestThreatPath(cfg, origin, dest, m)
	case RouteSafe:
		p = movement.FindLowestEncounterPath(cfg, origin, dest, m)
	default:
		route = RouteDirect
		p = movement.CalculatePath(origin, dest, m)
	}
	if p == nil {
		return nil
	}
	return &Waypoint{
		Hex:                  dest,
		Route:                route,
		Path:                 p,
		SegmentDetection:     movement.DetectionCost(cfg, p, m),
		SegmentEncounterRisk: movement.EncounterRisk(cfg, p, m),
	}
}

// rechain recomputes waypoints from index from onward, re-deriving each
// path from the preceding hex (or start for the first). A leg that
// becomes unreachable drops itself and everything after it.
func rechain(cfg *config.RunConfig, m *hexmap.Map, start hexmap.Axial, wps []Waypoint, from int) []Waypoint {
	for i := from; i < len(wps); i++ {
		origin := start
		if i > 0 {
			origin = wps[i-1].Hex
		}
		fresh := buildWaypoint(cfg, m, origin, wps[i].Hex, wps[i].Route)
		if fresh == nil {
			wps = wps[:i]
			break
		}
		wps[i] = *fresh
	}
	accumulate(wps)
	return wps
}

// accumulate rewrites the cumulative fields across the queue.
func accumulate(wps []Waypoint) {
	det := 0.0
	risk := 0.0
	for i := range wps {
		det += wps[i].SegmentDetection
		risk = movement.CombineRisk(risk, wps[i].SegmentEncounterRisk)
		wps[i].CumulativeDetection = det
		wps[i].CumulativeEncounterRisk = risk
	}
}
