// Package extraction finalizes runs: loot commit, escape damage, abandonment.
package extraction

import (
	"log/slog"
	"time"

	"eremos-run/internal/config"
	"eremos-run/internal/loot"
	"eremos-run/internal/rng"
	"eremos-run/internal/run"
)

// Action tells the caller what an extraction request resolved to.
type Action string

const (
	// ActionComplete means the run was committed and cleared.
	ActionComplete Action = "complete"
	// ActionSelectLoot means the caller must pick at most Limit items
	// through the loot-selection flow before retrying.
	ActionSelectLoot Action = "select_loot"
	// ActionNoop means the request did nothing (stale run state).
	ActionNoop Action = "noop"
)

// Result is the outcome of an extraction request.
type Result struct {
	Action    Action      `json:"action"`
	Limit     int         `json:"limit,omitempty"`
	Committed loot.Bundle `json:"-"`
	Credits   int         `json:"credits,omitempty"`
	ItemUsed  bool        `json:"item_used,omitempty"`
}

// EscapeHit is one damage roll of an escape sequence.
type EscapeHit struct {
	Section string `json:"section"`
	Damage  int    `json:"damage"`
}

// EscapeResult is the full, pre-computed outcome of an escape action.
// Nothing is applied to the run until CommitEscape, so callers can branch
// on WouldDestroy without partial state.
type EscapeResult struct {
	WouldDestroy    bool              `json:"would_destroy"`
	TotalDamage     int               `json:"total_damage"`
	Hits            []EscapeHit       `json:"hits"`
	InitialSections []run.ShipSection `json:"initial_sections"`
	UpdatedSections []run.ShipSection `json:"updated_sections"`
}

// DestroyCheck is the non-mutating worst-case escape bound used for
// pre-commit warning UI.
type DestroyCheck struct {
	CouldDestroy      bool   `json:"could_destroy"`
	EscapeDamageRange [2]int `json:"escape_damage_range"`
}

// Controller finalizes runs against the active store and archive.
type Controller struct {
	cfg     *config.RunConfig
	store   *run.Store
	archive *run.Archive
	rand    *rng.Service
	log     *slog.Logger
}

// NewController builds a controller for one run. archive may be nil when
// no persistence is configured.
func NewController(cfg *config.RunConfig, store *run.Store, archive *run.Archive, rand *rng.Service, log *slog.Logger) *Controller {
	return &Controller{cfg: cfg, store: store, archive: archive, rand: rand, log: log}
}

// SlotLimit computes the extraction-slot limit for the current state:
// base slots minus damaged sections plus reputation bonus, floored at 0.
func (c *Controller) SlotLimit(st run.State) int {
	limit := c.cfg.Extraction.BaseSlots - st.DamagedSectionCount() + c.cfg.Extraction.ReputationBonus + st.Reputation
	if limit < 0 {
		limit = 0
	}
	return limit
}

// CompleteExtraction commits the run at a gate. When collected loot
// exceeds the slot limit and no explicit selection was supplied, it
// returns ActionSelectLoot with the limit and commits nothing.
func (c *Controller) CompleteExtraction(selected []loot.Item) Result {
	st, ok := c.store.State()
	if !ok {
		return Result{Action: ActionNoop}
	}

	limit := c.SlotLimit(st)
	committed := st.CollectedLoot
	if len(st.CollectedLoot) > limit {
		if selected == nil {
			return Result{Action: ActionSelectLoot, Limit: limit}
		}
		if len(selected) > limit {
			c.log.Warn("loot selection exceeds limit", "selected", len(selected), "limit", limit)
			return Result{Action: ActionSelectLoot, Limit: limit}
		}
		committed = selected
	}

	bundle := loot.Bundle{Items: committed}
	c.finalize(st, run.OutcomeExtracted, len(bundle.Items), bundle.CreditValue())
	c.log.Info("extraction complete",
		"items", len(bundle.Items), "credits", bundle.CreditValue(), "limit", limit)
	return Result{Action: ActionComplete, Limit: limit, Committed: bundle, Credits: bundle.CreditValue()}
}

// InitiateExtractionWithItem handles the consumable bypass of the
// extraction limit gate. With useItem and a bypass charge left, the full
// loot list commits regardless of the limit.
func (c *Controller) InitiateExtractionWithItem(useItem bool) Result {
	st, ok := c.store.State()
	if !ok {
		return Result{Action: ActionNoop}
	}
	if !useItem || st.BypassLeft <= 0 {
		res := c.CompleteExtraction(nil)
		return res
	}

	c.store.Apply(run.MutationItem, func(s *run.State) {
		s.BypassLeft--
	})
	bundle := loot.Bundle{Items: st.CollectedLoot}
	c.finalize(st, run.OutcomeExtracted, len(bundle.Items), bundle.CreditValue())
	c.log.Info("extraction complete via bypass item", "items", len(bundle.Items))
	return Result{Action: ActionComplete, Committed: bundle, Credits: bundle.CreditValue(), ItemUsed: true}
}

// CancelExtraction dismisses a pending loot-selection dialog. The
// selection itself lives with the caller, so nothing is rolled back;
// the run simply stays live.
func (c *Controller) CancelExtraction() Result {
	if _, ok := c.store.State(); !ok {
		return Result{Action: ActionNoop}
	}
	c.log.Info("extraction cancelled")
	return Result{Action: ActionNoop}
}

// ExecuteEscape rolls the escape damage sequence for the given AI. The
// result is fully computed against a copy of the sections; nothing is
// applied until CommitEscape.
func (c *Controller) ExecuteEscape(aiID string) (EscapeResult, bool) {
	st, ok := c.store.State()
	if !ok {
		return EscapeResult{}, false
	}
	ai, found := c.cfg.AIByID(aiID)
	if !found {
		c.log.Warn("escape against unknown AI", "ai", aiID)
		return EscapeResult{}, false
	}

	initial := append([]run.ShipSection(nil), st.Sections...)
	updated := append([]run.ShipSection(nil), st.Sections...)

	dmg := ai.EscapeDamage
	hitCount := c.rand.IntInclusive(dmg.MinHits, dmg.MaxHits)
	var hits []EscapeHit
	total := 0
	for i := 0; i < hitCount; i++ {
		idx := c.rand.IntInclusive(0, len(updated)-1)
		amount := c.rand.IntInclusive(dmg.MinDamage, dmg.MaxDamage)
		updated[idx].Hull -= amount
		if updated[idx].Hull < 0 {
			updated[idx].Hull = 0
		}
		hits = append(hits, EscapeHit{Section: updated[idx].Name, Damage: amount})
		total += amount
	}

	wouldDestroy := true
	for _, sec := range updated {
		if !sec.Critical() {
			wouldDestroy = false
			break
		}
	}

	return EscapeResult{
		WouldDestroy:    wouldDestroy,
		TotalDamage:     total,
		Hits:            hits,
		InitialSections: initial,
		UpdatedSections: updated,
	}, true
}

// CommitEscape applies a previously computed escape to the run. A
// destroying escape finalizes the run as destroyed.
func (c *Controller) CommitEscape(res EscapeResult) {
	st, ok := c.store.State()
	if !ok {
		return
	}
	if res.WouldDestroy {
		c.finalize(st, run.OutcomeDestroyed, 0, 0)
		c.log.Info("ship destroyed during escape", "total_damage", res.TotalDamage)
		return
	}
	c.store.Apply(run.MutationSections, func(s *run.State) {
		s.Sections = append([]run.ShipSection(nil), res.UpdatedSections...)
	})
	c.log.Info("escape committed", "hits", len(res.Hits), "total_damage", res.TotalDamage)
}

// CheckEscapeCouldDestroy returns the worst-case escape bound for an AI
// without touching state: destruction is possible iff the maximum total
// damage covers driving every section to its critical threshold.
func (c *Controller) CheckEscapeCouldDestroy(aiID string) (DestroyCheck, bool) {
	st, ok := c.store.State()
	if !ok {
		return DestroyCheck{}, false
	}
	ai, found := c.cfg.AIByID(aiID)
	if !found {
		return DestroyCheck{}, false
	}

	dmg := ai.EscapeDamage
	low := dmg.MinHits * dmg.MinDamage
	high := dmg.MaxHits * dmg.MaxDamage

	needed := 0
	for _, sec := range st.Sections {
		if gap := sec.Hull - sec.CriticalThreshold; gap > 0 {
			needed += gap
		}
	}
	return DestroyCheck{
		CouldDestroy:      high >= needed,
		EscapeDamageRange: [2]int{low, high},
	}, true
}

// FinalizeMIA archives and clears a run whose detection meter filled.
// The MIA outcome itself is set by the detection manager.
func (c *Controller) FinalizeMIA() {
	st, ok := c.store.State()
	if !ok {
		return
	}
	c.finalize(st, run.OutcomeMIA, 0, 0)
	c.log.Info("run lost, missing in action")
}

// AbandonRun unconditionally ends the run as failed, bypassing all
// extraction checks.
func (c *Controller) AbandonRun() {
	st, ok := c.store.State()
	if !ok {
		return
	}
	c.finalize(st, run.OutcomeAbandoned, 0, 0)
	c.log.Info("run abandoned")
}

// finalize records the outcome, archives the summary, and clears the
// store.
func (c *Controller) finalize(st run.State, outcome run.Outcome, lootCount, credits int) {
	c.store.Apply(run.MutationOutcome, func(s *run.State) {
		s.Outcome = outcome
	})
	if c.archive != nil {
		row := run.ArchiveRow{
			RunID:      st.ID,
			Tier:       st.Tier,
			Seed:       st.Seed,
			Outcome:    outcome,
			LootCount:  lootCount,
			Credits:    credits,
			HexesMoved: st.HexesMoved,
			Detection:  st.Detection,
			StartedAt:  st.StartedAt,
			EndedAt:    time.Now().UTC(),
		}
		if err := c.archive.Record(row); err != nil {
			c.log.Error("archive write failed", "err", err)
		}
	}
	c.store.Clear()
}
