package journey

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"eremos-run/internal/encounter"
	"eremos-run/internal/extraction"
	"eremos-run/internal/hexmap"
	"eremos-run/internal/journal"
	"eremos-run/internal/loot"
	"eremos-run/internal/run"
	"eremos-run/internal/salvage"
)

// PromptKind discriminates what a suspended loop is waiting on.
type PromptKind string

const (
	PromptEncounter PromptKind = "encounter"
	PromptSalvage   PromptKind = "salvage"
)

var (
	ErrNoPrompt   = errors.New("no resolution outstanding")
	ErrStaleToken = errors.New("resolution token is stale")
	ErrNoOpponent = errors.New("encounter has no opposing AI")
	ErrNoCharges  = errors.New("no item charges left")
	ErrNoCombat   = errors.New("no triggered combat to engage")
	ErrNotSalvage = errors.New("salvage session not active")
)

// Prompt is the externally visible face of a suspension: the token the
// resolving call must present, plus what the player is deciding about.
type Prompt struct {
	Token     uuid.UUID         `json:"token"`
	Kind      PromptKind        `json:"kind"`
	Hex       hexmap.Axial      `json:"hex"`
	Encounter *encounter.Result `json:"encounter,omitempty"`
	Salvage   *salvage.State    `json:"salvage,omitempty"`
}

type resumeSignal struct {
	escaped   bool
	cancelled bool
	mia       bool
}

// pendingResolution is the loop's parked continuation. At most one
// exists at a time; a second encounter cannot fire while one is
// outstanding because the loop itself is suspended.
type pendingResolution struct {
	token uuid.UUID
	kind  PromptKind
	hex   hexmap.Axial
	enc   *encounter.Result
	ch    chan resumeSignal
}

// Pending returns the outstanding prompt, if any.
func (o *Orchestrator) Pending() (Prompt, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.pending == nil {
		return Prompt{}, false
	}
	p := Prompt{
		Token:     o.pending.token,
		Kind:      o.pending.kind,
		Hex:       o.pending.hex,
		Encounter: o.pending.enc,
	}
	if o.salvageSt != nil {
		snap := *o.salvageSt
		p.Salvage = &snap
	}
	return p, true
}

// suspendEncounter parks the loop on a fresh resolution token until a
// Resume call (or the stop/abandon flags) releases it.
func (o *Orchestrator) suspendEncounter(res *encounter.Result) resumeSignal {
	p := &pendingResolution{
		token: uuid.New(),
		kind:  PromptEncounter,
		hex:   res.Hex,
		enc:   res,
		ch:    make(chan resumeSignal, 1),
	}
	o.mu.Lock()
	o.pending = p
	o.phase = PhaseAwaitingEncounter
	o.mu.Unlock()

	o.record(journal.EventEncounter, res.Hex.String(),
		fmt.Sprintf("encounter fired: %s", res.Outcome))

	sig := o.awaitResolution(p)

	o.mu.Lock()
	if o.phase == PhaseAwaitingEncounter {
		o.phase = PhaseJourneying
	}
	o.mu.Unlock()
	return sig
}

// suspendSalvage parks the loop on a salvage session until the player
// leaves or quits.
func (o *Orchestrator) suspendSalvage(sess *salvage.State) resumeSignal {
	p := &pendingResolution{
		token: uuid.New(),
		kind:  PromptSalvage,
		hex:   sess.POI,
		ch:    make(chan resumeSignal, 1),
	}
	o.mu.Lock()
	o.pending = p
	o.salvageSt = sess
	o.phase = PhaseAwaitingSalvage
	o.mu.Unlock()

	o.record(journal.EventSalvage, sess.POI.String(),
		fmt.Sprintf("salvage opened, %d slots", sess.TotalSlots))

	sig := o.awaitResolution(p)

	o.mu.Lock()
	o.salvageSt = nil
	if o.phase == PhaseAwaitingSalvage {
		o.phase = PhaseJourneying
	}
	o.mu.Unlock()
	return sig
}

// awaitResolution blocks on the parked continuation, polling the stop
// and abandon flags so run teardown cannot race a live prompt.
func (o *Orchestrator) awaitResolution(p *pendingResolution) resumeSignal {
	poll := o.pollInterval()
	for {
		select {
		case sig := <-p.ch:
			return sig
		case <-time.After(poll):
			if o.interrupted() {
				o.mu.Lock()
				if o.pending == p {
					o.pending = nil
				}
				o.mu.Unlock()
				return resumeSignal{cancelled: true}
			}
		}
	}
}

// peek validates a token against the outstanding prompt without
// consuming it.
func (o *Orchestrator) peek(token uuid.UUID, kind PromptKind) (*pendingResolution, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.pending == nil {
		return nil, ErrNoPrompt
	}
	if o.pending.token != token || o.pending.kind != kind {
		return nil, ErrStaleToken
	}
	return o.pending, nil
}

// take consumes the outstanding prompt. After take succeeds no second
// resolution can land: the token is gone.
func (o *Orchestrator) take(token uuid.UUID, kind PromptKind) (*pendingResolution, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.pending == nil {
		return nil, ErrNoPrompt
	}
	if o.pending.token != token || o.pending.kind != kind {
		return nil, ErrStaleToken
	}
	p := o.pending
	o.pending = nil
	return p, nil
}

// ResumeEncounterProceed resolves the encounter as fought through (or
// the loot find claimed) and releases the loop.
func (o *Orchestrator) ResumeEncounterProceed(token uuid.UUID) error {
	p, err := o.take(token, PromptEncounter)
	if err != nil {
		return err
	}
	mia := o.enc.Complete(p.enc, o.det, o.store)
	o.record(journal.EventEncounter, p.hex.String(), "encounter resolved")
	if mia {
		o.finishMIA(p.hex)
		p.ch <- resumeSignal{mia: true}
		return nil
	}
	p.ch <- resumeSignal{}
	return nil
}

// ResumeEncounterQuickDeploy validates a quick-deploy template against
// the player's roster. Invalid templates return their reasons and leave
// the prompt outstanding; a valid one resolves the encounter.
func (o *Orchestrator) ResumeEncounterQuickDeploy(token uuid.UUID, tpl encounter.DeployTemplate, roster []string) ([]encounter.Reason, error) {
	if _, err := o.peek(token, PromptEncounter); err != nil {
		return nil, err
	}
	reasons := encounter.ValidateQuickDeploy(tpl, roster, o.cfg.QuickDeploy)
	if len(reasons) > 0 {
		return reasons, nil
	}
	p, err := o.take(token, PromptEncounter)
	if err != nil {
		return nil, err
	}
	mia := o.enc.Complete(p.enc, o.det, o.store)
	o.record(journal.EventEncounter, p.hex.String(),
		fmt.Sprintf("encounter resolved via quick deploy %q", tpl.Name))
	if mia {
		o.finishMIA(p.hex)
		p.ch <- resumeSignal{mia: true}
		return nil, nil
	}
	p.ch <- resumeSignal{}
	return nil, nil
}

// CheckEscape returns the worst-case destruction bound for escaping the
// outstanding encounter, without consuming the prompt or touching state.
func (o *Orchestrator) CheckEscape(token uuid.UUID) (extraction.DestroyCheck, error) {
	p, err := o.peek(token, PromptEncounter)
	if err != nil {
		return extraction.DestroyCheck{}, err
	}
	if p.enc.AIID == "" {
		return extraction.DestroyCheck{}, ErrNoOpponent
	}
	check, ok := o.ext.CheckEscapeCouldDestroy(p.enc.AIID)
	if !ok {
		return extraction.DestroyCheck{}, ErrRunOver
	}
	return check, nil
}

// ResumeEncounterEscape burns through the blockade. Hull damage is
// committed; the journey ends with unconsumed waypoints preserved. A
// destroying escape finalizes the run instead.
func (o *Orchestrator) ResumeEncounterEscape(token uuid.UUID) (extraction.EscapeResult, error) {
	p, err := o.peek(token, PromptEncounter)
	if err != nil {
		return extraction.EscapeResult{}, err
	}
	if p.enc.AIID == "" {
		return extraction.EscapeResult{}, ErrNoOpponent
	}
	res, ok := o.ext.ExecuteEscape(p.enc.AIID)
	if !ok {
		return extraction.EscapeResult{}, ErrRunOver
	}
	if _, err := o.take(token, PromptEncounter); err != nil {
		return extraction.EscapeResult{}, err
	}
	o.ext.CommitEscape(res)
	o.record(journal.EventEscape, p.hex.String(),
		fmt.Sprintf("escaped %s, %d damage", p.enc.AIID, res.TotalDamage))
	if res.WouldDestroy {
		p.ch <- resumeSignal{cancelled: true}
	} else {
		p.ch <- resumeSignal{escaped: true}
	}
	return res, nil
}

// ResumeEncounterEvade spends a signal dampener to slip the encounter
// without a fight. Fails without consuming the prompt when no charges
// remain.
func (o *Orchestrator) ResumeEncounterEvade(token uuid.UUID) (reduction float64, err error) {
	p, err := o.take(token, PromptEncounter)
	if err != nil {
		return 0, err
	}
	// Charge the dampener only after the take: a resolution that loses
	// the token race must never burn a charge. When the draw fails the
	// prompt goes back as-is.
	reduction, ok := o.det.UseDampener()
	if !ok {
		o.mu.Lock()
		if o.pending == nil {
			o.pending = p
		}
		o.mu.Unlock()
		return 0, ErrNoCharges
	}
	o.record(journal.EventEncounter, p.hex.String(),
		fmt.Sprintf("evaded with dampener, detection -%.0f", reduction))
	p.ch <- resumeSignal{}
	return reduction, nil
}

// SalvageAttempt reveals the next slot in the suspended session. The
// prompt stays outstanding; the loop resumes only on leave or quit.
func (o *Orchestrator) SalvageAttempt(token uuid.UUID) (content loot.Item, combatTriggered bool, err error) {
	if _, err := o.peek(token, PromptSalvage); err != nil {
		return nil, false, err
	}
	o.mu.Lock()
	sess := o.salvageSt
	o.mu.Unlock()
	if sess == nil {
		return nil, false, ErrNotSalvage
	}
	content, combatTriggered, ok := o.sal.Attempt(sess, o.gen)
	if !ok {
		return nil, false, ErrNotSalvage
	}
	detail := fmt.Sprintf("slot revealed: %s", content.Label())
	if combatTriggered {
		detail += ", combat triggered"
	}
	o.record(journal.EventSalvage, sess.POI.String(), detail)
	return content, combatTriggered, nil
}

// SalvageEngage fights the combat a reveal triggered. The site goes to
// high alert and further attempts carry the escalation penalty; the
// prompt stays outstanding.
func (o *Orchestrator) SalvageEngage(token uuid.UUID) error {
	if _, err := o.peek(token, PromptSalvage); err != nil {
		return err
	}
	o.mu.Lock()
	sess := o.salvageSt
	o.mu.Unlock()
	if sess == nil {
		return ErrNotSalvage
	}
	if !sess.EncounterTriggered {
		return ErrNoCombat
	}

	aiID := o.enc.AIForThreat(o.det.Current(), &sess.POI)
	mia := o.enc.Complete(&encounter.Result{
		ID:      uuid.NewString(),
		Hex:     sess.POI,
		Outcome: encounter.OutcomeCombat,
		AIID:    aiID,
	}, o.det, o.store)
	if mia {
		p, err := o.take(token, PromptSalvage)
		if err != nil {
			return err
		}
		o.finishMIA(sess.POI)
		p.ch <- resumeSignal{mia: true}
		return nil
	}

	o.store.Apply(run.MutationPOI, func(s *run.State) {
		s.MarkHighAlert(sess.POI)
	})
	o.sal.ResetAfterCombat(sess, o.cfg.Salvage.AlertBonus)
	o.record(journal.EventSalvage, sess.POI.String(),
		fmt.Sprintf("combat engaged against %s, site on high alert", aiID))
	return nil
}

// SalvageLeave banks the revealed contents and releases the loop. A
// fully cleared site is marked looted, a partially revealed one fled; a
// session with zero reveals leaves no trace.
func (o *Orchestrator) SalvageLeave(token uuid.UUID) error {
	p, err := o.take(token, PromptSalvage)
	if err != nil {
		return err
	}
	o.mu.Lock()
	sess := o.salvageSt
	o.mu.Unlock()
	if sess == nil {
		p.ch <- resumeSignal{}
		return nil
	}

	bundle := o.sal.CollectRevealed(sess)
	if len(bundle.Items) > 0 {
		o.store.Apply(run.MutationLoot, func(s *run.State) {
			s.CollectedLoot = append(s.CollectedLoot, bundle.Items...)
		})
	}
	switch {
	case sess.IsFullyLooted():
		o.store.Apply(run.MutationPOI, func(s *run.State) { s.MarkLooted(sess.POI) })
	case sess.HasRevealedAny():
		o.store.Apply(run.MutationPOI, func(s *run.State) { s.MarkFled(sess.POI) })
	}
	o.record(journal.EventSalvage, sess.POI.String(),
		fmt.Sprintf("left with %d of %d slots", sess.RevealedCount(), sess.TotalSlots))
	p.ch <- resumeSignal{}
	return nil
}

// finishMIA ends the run after a resolution capped the detection meter,
// mirroring the hex-step path in the journey loop.
func (o *Orchestrator) finishMIA(hex hexmap.Axial) {
	o.det.TriggerMIA("detection reached maximum")
	o.record(journal.EventMIA, hex.String(), "signal locked, run lost")
	o.ext.FinalizeMIA()
}

// SalvageQuit abandons the run from inside the salvage prompt.
func (o *Orchestrator) SalvageQuit(token uuid.UUID) error {
	p, err := o.take(token, PromptSalvage)
	if err != nil {
		return err
	}
	o.mu.Lock()
	o.abandoning = true
	o.mu.Unlock()
	o.ext.AbandonRun()
	p.ch <- resumeSignal{cancelled: true}
	return nil
}
