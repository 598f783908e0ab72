// Package encounter resolves random encounters and AI assignment.
package encounter

import (
	"log/slog"

	"github.com/google/uuid"

	"eremos-run/internal/config"
	"eremos-run/internal/detection"
	"eremos-run/internal/hexmap"
	"eremos-run/internal/loot"
	"eremos-run/internal/rng"
	"eremos-run/internal/run"
)

// OutcomeKind discriminates what an encounter turned out to be.
type OutcomeKind string

const (
	OutcomeCombat OutcomeKind = "combat"
	OutcomeLoot   OutcomeKind = "loot"
)

// Result describes a fired encounter.
type Result struct {
	ID      string       `json:"id"`
	Hex     hexmap.Axial `json:"hex"`
	Outcome OutcomeKind  `json:"outcome"`
	AIID    string       `json:"ai_id,omitempty"`
}

// combatShare is the fraction of fired encounters that are combat rather
// than a loot find.
const combatShare = 0.7

// Controller decides whether encounters fire and which AI opposes the
// player. Stateless apart from its injected random service.
type Controller struct {
	cfg  *config.RunConfig
	rand *rng.Service
	log  *slog.Logger
}

// NewController builds a controller for one run.
func NewController(cfg *config.RunConfig, rand *rng.Service, log *slog.Logger) *Controller {
	return &Controller{cfg: cfg, rand: rand, log: log}
}

// CheckMovementEncounter runs a single Bernoulli trial against the hex's
// encounter chance. Returns nil when nothing fires.
func (c *Controller) CheckMovementEncounter(a hexmap.Axial, m *hexmap.Map, currentDetection float64) *Result {
	h, ok := m.HexAt(a)
	if !ok {
		return nil
	}
	chance := c.cfg.ZoneFor(h.Zone).EncounterChance
	if !c.rand.Percent(chance) {
		return nil
	}

	res := &Result{ID: uuid.New().String(), Hex: a}
	if c.rand.Float64() < combatShare {
		res.Outcome = OutcomeCombat
		res.AIID = c.AIForThreat(currentDetection, nil)
	} else {
		res.Outcome = OutcomeLoot
	}
	c.log.Debug("encounter fired", "hex", a.String(), "outcome", res.Outcome, "ai", res.AIID)
	return res
}

// AIForThreat picks an AI from the weighted pool for the current threat
// band. When poi is non-nil the draw is keyed to that POI, so repeated
// calls during one run (for example resuming after combat at the same
// site) return the same AI.
func (c *Controller) AIForThreat(detection float64, poi *hexmap.Axial) string {
	band := c.cfg.BandFor(detection)
	pool := c.cfg.AIPool(band)
	if len(pool) == 0 {
		pool = c.cfg.AIs
	}
	if len(pool) == 0 {
		return ""
	}

	r := c.rand
	if poi != nil {
		r = c.rand.Derive("poi-ai:" + poi.String())
	}

	total := 0
	for _, ai := range pool {
		total += ai.Weight
	}
	roll := r.IntInclusive(1, total)
	for _, ai := range pool {
		roll -= ai.Weight
		if roll <= 0 {
			return ai.ID
		}
	}
	return pool[len(pool)-1].ID
}

// Complete finalizes a non-combat encounter: a loot find awards a credit
// cache and the exposure nudges detection up. Reports whether that bump
// capped the detection meter; the caller owns the MIA transition. Stale
// stores no-op.
func (c *Controller) Complete(res *Result, det *detection.Manager, store *run.Store) (mia bool) {
	if res == nil || store == nil || !store.Active() {
		return false
	}
	if res.Outcome == OutcomeLoot {
		amount := c.rand.IntInclusive(15, 45) * c.cfg.TierModFor(c.cfg.Tier).LootQuality
		store.Apply(run.MutationLoot, func(s *run.State) {
			s.CollectedLoot = append(s.CollectedLoot, loot.Credits{Amount: amount})
		})
		c.log.Info("encounter loot claimed", "credits", amount, "hex", res.Hex.String())
	}
	_, mia = det.Add(completionDetectionBump, "encounter resolved")
	return mia
}

// completionDetectionBump is the detection added when an encounter
// resolves without combat.
const completionDetectionBump = 2.0
