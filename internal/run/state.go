// Package run owns the state of a single tactical-map run.
package run

import (
	"time"

	"eremos-run/internal/config"
	"eremos-run/internal/hexmap"
	"eremos-run/internal/loot"
)

// Outcome marks how a run ended. Empty while the run is live.
type Outcome string

const (
	OutcomeExtracted Outcome = "extracted"
	OutcomeMIA       Outcome = "mia"
	OutcomeAbandoned Outcome = "abandoned"
	OutcomeDestroyed Outcome = "destroyed"
)

// ShipSection is one hull section. Sections are created at run start and
// only their Hull value changes afterwards.
type ShipSection struct {
	Name              string `json:"name"`
	Hull              int    `json:"hull"`
	MaxHull           int    `json:"max_hull"`
	CriticalThreshold int    `json:"critical_threshold"`
}

// Critical reports whether the section is at or below its threshold.
func (s ShipSection) Critical() bool {
	return s.Hull <= s.CriticalThreshold
}

// POIStatus is the terminal or semi-terminal state of a point of interest.
type POIStatus string

const (
	POIUnvisited POIStatus = "unvisited"
	POILooted    POIStatus = "looted"
	POIFled      POIStatus = "fled"
	POIHighAlert POIStatus = "high_alert"
)

// State holds everything owned by the orchestrator for one run's lifetime.
type State struct {
	ID             string
	Tier           int
	Seed           int64
	PlayerPosition hexmap.Axial
	Detection      float64
	Map            *hexmap.Map

	CollectedLoot []loot.Item
	LootedPOIs    map[hexmap.Axial]bool
	FledPOIs      map[hexmap.Axial]bool
	HighAlertPOIs map[hexmap.Axial]bool

	Sections []ShipSection

	HexesMoved    int
	HexesExplored map[hexmap.Axial]bool

	DampenersLeft int
	BypassLeft    int
	Reputation    int

	Outcome   Outcome
	StartedAt time.Time
}

// NewState builds the starting state for a run on the given map.
func NewState(id string, cfg *config.RunConfig, m *hexmap.Map, seed int64) *State {
	sections := make([]ShipSection, len(cfg.Sections))
	for i, s := range cfg.Sections {
		sections[i] = ShipSection{
			Name:              s.Name,
			Hull:              s.Hull,
			MaxHull:           s.Hull,
			CriticalThreshold: s.CriticalThreshold,
		}
	}
	st := &State{
		ID:             id,
		Tier:           cfg.Tier,
		Seed:           seed,
		PlayerPosition: hexmap.Axial{},
		Map:            m,
		LootedPOIs:     make(map[hexmap.Axial]bool),
		FledPOIs:       make(map[hexmap.Axial]bool),
		HighAlertPOIs:  make(map[hexmap.Axial]bool),
		Sections:       sections,
		HexesExplored:  map[hexmap.Axial]bool{{}: true},
		DampenersLeft:  cfg.Items.DampenerCount,
		BypassLeft:     cfg.Items.BypassCount,
		StartedAt:      time.Now().UTC(),
	}
	return st
}

// POIStatusAt reports where a POI is in its unvisited → looted | fled |
// high-alert progression.
func (s *State) POIStatusAt(a hexmap.Axial) POIStatus {
	switch {
	case s.LootedPOIs[a]:
		return POILooted
	case s.HighAlertPOIs[a]:
		return POIHighAlert
	case s.FledPOIs[a]:
		return POIFled
	default:
		return POIUnvisited
	}
}

// MarkLooted transitions a POI to looted. Looted is fully terminal and
// clears any prior high-alert mark.
func (s *State) MarkLooted(a hexmap.Axial) {
	s.LootedPOIs[a] = true
	delete(s.HighAlertPOIs, a)
}

// MarkFled marks a POI left mid-salvage. Ignored once looted.
func (s *State) MarkFled(a hexmap.Axial) {
	if s.LootedPOIs[a] {
		return
	}
	s.FledPOIs[a] = true
}

// MarkHighAlert marks a POI where combat fired during salvage. Ignored
// once looted; a later full clear transitions high-alert → looted.
func (s *State) MarkHighAlert(a hexmap.Axial) {
	if s.LootedPOIs[a] {
		return
	}
	s.HighAlertPOIs[a] = true
}

// DamagedSectionCount counts sections below full hull.
func (s *State) DamagedSectionCount() int {
	n := 0
	for _, sec := range s.Sections {
		if sec.Hull < sec.MaxHull {
			n++
		}
	}
	return n
}

// AllSectionsCritical reports whether every hull section is at or below
// its critical threshold, the ship-destroyed condition.
func (s *State) AllSectionsCritical() bool {
	for _, sec := range s.Sections {
		if !sec.Critical() {
			return false
		}
	}
	return len(s.Sections) > 0
}

// clone returns a snapshot copy safe to hand to subscribers. The map
// pointer is shared; the map itself is immutable for the run.
func (s *State) clone() State {
	out := *s
	out.CollectedLoot = append([]loot.Item(nil), s.CollectedLoot...)
	out.LootedPOIs = copySet(s.LootedPOIs)
	out.FledPOIs = copySet(s.FledPOIs)
	out.HighAlertPOIs = copySet(s.HighAlertPOIs)
	out.HexesExplored = copySet(s.HexesExplored)
	out.Sections = append([]ShipSection(nil), s.Sections...)
	return out
}

func copySet(in map[hexmap.Axial]bool) map[hexmap.Axial]bool {
	out := make(map[hexmap.Axial]bool, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
