// Package salvage runs the slot-by-slot loot reveal at a point of interest.
package salvage

import (
	"log/slog"

	"eremos-run/internal/config"
	"eremos-run/internal/hexmap"
	"eremos-run/internal/loot"
	"eremos-run/internal/rng"
)

// Slot is one salvage compartment. A revealed slot never flips back.
type Slot struct {
	Revealed bool      `json:"revealed"`
	Content  loot.Item `json:"content,omitempty"`
}

// State is one salvage session at a POI.
type State struct {
	POI                hexmap.Axial `json:"poi"`
	TotalSlots         int          `json:"total_slots"`
	Slots              []Slot       `json:"slots"`
	EncounterChance    float64      `json:"encounter_chance"`
	EncounterTriggered bool         `json:"encounter_triggered"`
}

// IsFullyLooted reports whether every slot has been revealed.
func (s *State) IsFullyLooted() bool {
	for _, sl := range s.Slots {
		if !sl.Revealed {
			return false
		}
	}
	return len(s.Slots) > 0
}

// HasRevealedAny reports whether at least one slot has been revealed.
func (s *State) HasRevealedAny() bool {
	for _, sl := range s.Slots {
		if sl.Revealed {
			return true
		}
	}
	return false
}

// RevealedCount counts revealed slots.
func (s *State) RevealedCount() int {
	n := 0
	for _, sl := range s.Slots {
		if sl.Revealed {
			n++
		}
	}
	return n
}

// Controller drives salvage sessions. It holds no per-session state;
// everything lives in the State it is handed.
type Controller struct {
	cfg  *config.RunConfig
	rand *rng.Service
	log  *slog.Logger
}

// NewController builds a controller for one run.
func NewController(cfg *config.RunConfig, rand *rng.Service, log *slog.Logger) *Controller {
	return &Controller{cfg: cfg, rand: rand, log: log}
}

// Initialize opens a salvage session at a POI. Slot count comes from the
// POI kind, starting encounter chance from the zone.
func (c *Controller) Initialize(poi hexmap.POI, zone hexmap.Zone) *State {
	slots := c.cfg.Salvage.Slots[string(poi.Kind)]
	if slots <= 0 {
		slots = 3
	}
	st := &State{
		POI:             poi.Coord,
		TotalSlots:      slots,
		Slots:           make([]Slot, slots),
		EncounterChance: c.cfg.Salvage.BaseChance[string(zone)],
	}
	c.log.Debug("salvage initialized",
		"poi", poi.Coord.String(), "kind", poi.Kind, "slots", slots, "chance", st.EncounterChance)
	return st
}

// Attempt reveals the next unrevealed slot, drawing its content from the
// loot generator, then raises the running encounter chance and rolls for
// triggered combat. ok is false when nothing can be revealed: the site
// is exhausted or the one-shot combat latch is still set.
func (c *Controller) Attempt(st *State, gen *loot.Generator) (content loot.Item, encounterTriggered bool, ok bool) {
	if st == nil || st.EncounterTriggered || st.IsFullyLooted() {
		return nil, false, false
	}

	for i := range st.Slots {
		if st.Slots[i].Revealed {
			continue
		}
		st.Slots[i].Revealed = true
		st.Slots[i].Content = gen.Draw()
		content = st.Slots[i].Content
		break
	}

	triggered := c.rand.Percent(st.EncounterChance)
	st.EncounterChance += c.cfg.Salvage.PerRevealIncrement
	if triggered {
		st.EncounterTriggered = true
	}
	c.log.Debug("salvage slot revealed",
		"poi", st.POI.String(), "revealed", st.RevealedCount(),
		"chance", st.EncounterChance, "combat", triggered)
	return content, triggered, true
}

// CollectRevealed bundles the contents of every revealed slot. Pure
// re-read; calling it twice yields the same bundle.
func (c *Controller) CollectRevealed(st *State) loot.Bundle {
	var b loot.Bundle
	if st == nil {
		return b
	}
	for _, sl := range st.Slots {
		if sl.Revealed && sl.Content != nil {
			b.Items = append(b.Items, sl.Content)
		}
	}
	return b
}

// ResetAfterCombat re-enables reveals after a combat victory, clearing
// the one-shot latch and adding the escalating alert penalty for the
// return visit.
func (c *Controller) ResetAfterCombat(st *State, alertBonus float64) {
	if st == nil {
		return
	}
	st.EncounterTriggered = false
	st.EncounterChance += alertBonus
	c.log.Debug("salvage resumed after combat",
		"poi", st.POI.String(), "chance", st.EncounterChance)
}
