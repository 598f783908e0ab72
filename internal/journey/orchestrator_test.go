package journey

import (
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"eremos-run/internal/config"
	"eremos-run/internal/detection"
	"eremos-run/internal/encounter"
	"eremos-run/internal/extraction"
	"eremos-run/internal/hexmap"
	"eremos-run/internal/logging"
	"eremos-run/internal/loot"
	"eremos-run/internal/rng"
	"eremos-run/internal/run"
	"eremos-run/internal/salvage"
)

type harness struct {
	cfg   *config.RunConfig
	store *run.Store
	det   *detection.Manager
	orc   *Orchestrator
}

// newHarness wires an orchestrator over the given map with millisecond
// timings and, by default, encounters disabled for deterministic walks.
func newHarness(t *testing.T, m *hexmap.Map, tweak func(*config.RunConfig)) *harness {
	t.Helper()
	cfg := config.Default()
	cfg.Timing = config.Timing{ScanDelayMS: 1, MoveDelayMS: 1, PollIntervalMS: 1}
	for name, z := range cfg.Zones {
		z.EncounterChance = 0
		cfg.Zones[name] = z
	}
	if tweak != nil {
		tweak(cfg)
	}

	seed := int64(7)
	store := run.NewStore(run.NewState("run-journey", cfg, m, seed))
	log := logging.NewWithWriter(io.Discard, false)
	r := rng.New(seed)
	det := detection.NewManager(cfg, store, r, log)
	enc := encounter.NewController(cfg, r, log)
	sal := salvage.NewController(cfg, r, log)
	ext := extraction.NewController(cfg, store, nil, r, log)
	gen := loot.NewGenerator(cfg.TierModFor(cfg.Tier).LootQuality, r)
	orc := New(cfg, store, det, enc, sal, ext, gen, nil, log)
	return &harness{cfg: cfg, store: store, det: det, orc: orc}
}

func (h *harness) waitDone(t *testing.T, d time.Duration) {
	t.Helper()
	select {
	case <-h.orc.Done():
	case <-time.After(d):
		t.Fatal("journey did not finish in time")
	}
}

// resolveAll answers every prompt with proceed until the loop finishes.
func (h *harness) resolveAll(t *testing.T, d time.Duration) {
	t.Helper()
	deadline := time.After(d)
	for {
		select {
		case <-h.orc.Done():
			return
		case <-deadline:
			t.Fatal("journey did not finish in time")
		default:
		}
		if p, ok := h.orc.Pending(); ok && p.Kind == PromptEncounter {
			_ = h.orc.ResumeEncounterProceed(p.Token)
		}
		time.Sleep(time.Millisecond)
	}
}

// waitPrompt polls until a prompt of the given kind is outstanding.
func (h *harness) waitPrompt(t *testing.T, kind PromptKind, d time.Duration) Prompt {
	t.Helper()
	deadline := time.After(d)
	for {
		if p, ok := h.orc.Pending(); ok && p.Kind == kind {
			return p
		}
		select {
		case <-deadline:
			t.Fatalf("no %s prompt appeared", kind)
		case <-time.After(time.Millisecond):
		}
	}
}

// park injects a parked continuation, as the loop does when an
// encounter fires, so resolution calls can be tested deterministically.
func (h *harness) park(res *encounter.Result) (*pendingResolution, uuid.UUID) {
	p := &pendingResolution{
		token: uuid.New(),
		kind:  PromptEncounter,
		hex:   res.Hex,
		enc:   res,
		ch:    make(chan resumeSignal, 1),
	}
	h.orc.mu.Lock()
	h.orc.pending = p
	h.orc.mu.Unlock()
	return p, p.token
}

func TestJourneyCompletesAndClearsQueue(t *testing.T) {
	h := newHarness(t, testMap(6), nil)
	dest := hexmap.Axial{Q: 3}

	if err := h.orc.AddWaypoint(dest); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := h.orc.CommenceJourney(); err != nil {
		t.Fatalf("commence: %v", err)
	}
	h.waitDone(t, 5*time.Second)

	st, ok := h.store.State()
	if !ok {
		t.Fatal("run should still be active")
	}
	if st.PlayerPosition != dest {
		t.Fatalf("position = %v, want %v", st.PlayerPosition, dest)
	}
	if st.HexesMoved != 3 {
		t.Fatalf("hexes moved = %d, want 3", st.HexesMoved)
	}
	// Two core hexes at cost 5 and one mid hex at cost 2.
	if st.Detection != 12 {
		t.Fatalf("detection = %v, want 12", st.Detection)
	}
	if len(h.orc.Waypoints()) != 0 {
		t.Fatal("queue should clear on completion")
	}
	if h.orc.Phase() != PhaseIdle {
		t.Fatalf("phase = %s, want idle", h.orc.Phase())
	}
}

func TestCommenceRequiresWaypoints(t *testing.T) {
	h := newHarness(t, testMap(6), nil)
	if err := h.orc.CommenceJourney(); err != ErrNoWaypoints {
		t.Fatalf("err = %v, want ErrNoWaypoints", err)
	}
}

func TestStopMovementRespondsWithinPollInterval(t *testing.T) {
	h := newHarness(t, testMap(6), func(cfg *config.RunConfig) {
		cfg.Timing = config.Timing{ScanDelayMS: 2000, MoveDelayMS: 2000, PollIntervalMS: 5}
	})
	if err := h.orc.AddWaypoint(hexmap.Axial{Q: 3}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := h.orc.CommenceJourney(); err != nil {
		t.Fatalf("commence: %v", err)
	}

	time.Sleep(20 * time.Millisecond)
	start := time.Now()
	h.orc.StopMovement()
	h.waitDone(t, time.Second)

	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Fatalf("stop took %v, should land within a poll interval", elapsed)
	}
	if len(h.orc.Waypoints()) == 0 {
		t.Fatal("unconsumed waypoints should be preserved after a stop")
	}
	if h.orc.Phase() != PhaseIdle {
		t.Fatalf("phase = %s, want idle", h.orc.Phase())
	}
}

func TestPauseHoldsInsideWait(t *testing.T) {
	h := newHarness(t, testMap(6), func(cfg *config.RunConfig) {
		cfg.Timing = config.Timing{ScanDelayMS: 20, MoveDelayMS: 20, PollIntervalMS: 1}
	})
	if err := h.orc.AddWaypoint(hexmap.Axial{Q: 2}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := h.orc.CommenceJourney(); err != nil {
		t.Fatalf("commence: %v", err)
	}

	if !h.orc.TogglePause() {
		t.Fatal("toggle should report paused")
	}
	time.Sleep(150 * time.Millisecond)
	st, _ := h.store.State()
	if st.PlayerPosition == (hexmap.Axial{Q: 2}) {
		t.Fatal("journey should not complete while paused")
	}
	if h.orc.Phase() != PhasePaused {
		t.Fatalf("phase = %s, want paused", h.orc.Phase())
	}

	if h.orc.TogglePause() {
		t.Fatal("toggle should report unpaused")
	}
	h.waitDone(t, 5*time.Second)
}

func TestMIAPreemptsEncounterRoll(t *testing.T) {
	h := newHarness(t, testMap(6), func(cfg *config.RunConfig) {
		for name, z := range cfg.Zones {
			z.EncounterChance = 100
			cfg.Zones[name] = z
		}
	})

	var sawMIA bool
	unsub := h.store.Subscribe(func(n run.Notification) {
		if n.State.Outcome == run.OutcomeMIA {
			sawMIA = true
		}
	})
	defer unsub()

	h.det.Add(99, "primed")
	if err := h.orc.AddWaypoint(hexmap.Axial{Q: 2}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := h.orc.CommenceJourney(); err != nil {
		t.Fatalf("commence: %v", err)
	}

	// With a guaranteed encounter on every hex, the loop could only
	// finish unaided if the detection cap skipped the roll.
	h.waitDone(t, 5*time.Second)

	if !sawMIA {
		t.Fatal("run should have ended missing in action")
	}
	if _, ok := h.orc.Pending(); ok {
		t.Fatal("no prompt may fire on the hex that capped detection")
	}
	if _, ok := h.store.State(); ok {
		t.Fatal("store should be cleared after the loss")
	}
}

func TestEncounterSuspendsAndProceedResumes(t *testing.T) {
	h := newHarness(t, testMap(6), func(cfg *config.RunConfig) {
		for name, z := range cfg.Zones {
			z.EncounterChance = 100
			cfg.Zones[name] = z
		}
	})
	if err := h.orc.AddWaypoint(hexmap.Axial{Q: 2}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := h.orc.CommenceJourney(); err != nil {
		t.Fatalf("commence: %v", err)
	}

	p := h.waitPrompt(t, PromptEncounter, 2*time.Second)
	if h.orc.Phase() != PhaseAwaitingEncounter {
		t.Fatalf("phase = %s, want awaiting_encounter", h.orc.Phase())
	}
	if err := h.orc.ResumeEncounterProceed(uuid.New()); err == nil {
		t.Fatal("a wrong token must be rejected")
	}
	if err := h.orc.ResumeEncounterProceed(p.Token); err != nil {
		t.Fatalf("proceed: %v", err)
	}
	if err := h.orc.ResumeEncounterProceed(p.Token); err == nil {
		t.Fatal("double resolution must be rejected")
	}

	h.resolveAll(t, 10*time.Second)
}

func TestSalvageHandoffAndLeave(t *testing.T) {
	m := testMap(6)
	poiHex := hexmap.Axial{Q: 2}
	m.POIs[poiHex] = hexmap.POI{Coord: poiHex, Kind: hexmap.POIWreck}
	h := newHarness(t, m, func(cfg *config.RunConfig) {
		for zone := range cfg.Salvage.BaseChance {
			cfg.Salvage.BaseChance[zone] = 0
		}
		cfg.Salvage.PerRevealIncrement = 0
	})

	if err := h.orc.AddWaypoint(poiHex); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := h.orc.CommenceJourney(); err != nil {
		t.Fatalf("commence: %v", err)
	}

	p := h.waitPrompt(t, PromptSalvage, 2*time.Second)
	if p.Salvage == nil || p.Salvage.TotalSlots == 0 {
		t.Fatalf("salvage prompt missing session: %+v", p)
	}

	for i := 0; i < p.Salvage.TotalSlots; i++ {
		content, triggered, err := h.orc.SalvageAttempt(p.Token)
		if err != nil {
			t.Fatalf("attempt %d: %v", i, err)
		}
		if content == nil {
			t.Fatalf("attempt %d revealed nothing", i)
		}
		if triggered {
			t.Fatalf("attempt %d triggered combat at zero chance", i)
		}
	}
	if _, _, err := h.orc.SalvageAttempt(p.Token); err == nil {
		t.Fatal("exhausted site must refuse further attempts")
	}

	if err := h.orc.SalvageLeave(p.Token); err != nil {
		t.Fatalf("leave: %v", err)
	}
	h.waitDone(t, 5*time.Second)

	st, ok := h.store.State()
	if !ok {
		t.Fatal("run should still be active")
	}
	if len(st.CollectedLoot) != p.Salvage.TotalSlots {
		t.Fatalf("collected %d items, want %d", len(st.CollectedLoot), p.Salvage.TotalSlots)
	}
	if st.POIStatusAt(poiHex) != run.POILooted {
		t.Fatalf("poi status = %s, want looted", st.POIStatusAt(poiHex))
	}
}

func TestStopDuringSalvageTrimsWalkedLeg(t *testing.T) {
	m := testMap(6)
	poiHex := hexmap.Axial{Q: 2}
	m.POIs[poiHex] = hexmap.POI{Coord: poiHex, Kind: hexmap.POIWreck}
	h := newHarness(t, m, nil)

	if err := h.orc.AddWaypoint(poiHex); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := h.orc.AddWaypoint(hexmap.Axial{Q: 4}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := h.orc.CommenceJourney(); err != nil {
		t.Fatalf("commence: %v", err)
	}
	h.waitPrompt(t, PromptSalvage, 2*time.Second)

	h.orc.StopMovement()
	h.waitDone(t, time.Second)

	wps := h.orc.Waypoints()
	if len(wps) != 1 {
		t.Fatalf("waypoints = %d, want the walked leg trimmed", len(wps))
	}
	if wps[0].Path.Origin != poiHex {
		t.Fatalf("remaining leg origin = %v, want %v", wps[0].Path.Origin, poiHex)
	}
	st, _ := h.store.State()
	if st.Detection != 10 || st.HexesMoved != 2 {
		t.Fatalf("detection = %v, moved = %d after stop, want 10 and 2", st.Detection, st.HexesMoved)
	}

	// Resuming must pick up from the player's position, not replay the
	// walked hexes.
	if err := h.orc.CommenceJourney(); err != nil {
		t.Fatalf("recommence: %v", err)
	}
	h.waitDone(t, 5*time.Second)

	st, _ = h.store.State()
	if st.PlayerPosition != (hexmap.Axial{Q: 4}) {
		t.Fatalf("position = %v, want 4,0", st.PlayerPosition)
	}
	if st.HexesMoved != 4 {
		t.Fatalf("hexes moved = %d, want 4", st.HexesMoved)
	}
	// Two core hexes at cost 5 plus two mid hexes at cost 2, charged once.
	if st.Detection != 14 {
		t.Fatalf("detection = %v, want 14", st.Detection)
	}
}

func TestSalvageLeaveWithoutRevealsLeavesNoTrace(t *testing.T) {
	m := testMap(6)
	poiHex := hexmap.Axial{Q: 2}
	m.POIs[poiHex] = hexmap.POI{Coord: poiHex, Kind: hexmap.POIBeacon}
	h := newHarness(t, m, nil)

	if err := h.orc.AddWaypoint(poiHex); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := h.orc.CommenceJourney(); err != nil {
		t.Fatalf("commence: %v", err)
	}

	p := h.waitPrompt(t, PromptSalvage, 2*time.Second)
	if err := h.orc.SalvageLeave(p.Token); err != nil {
		t.Fatalf("leave: %v", err)
	}
	h.waitDone(t, 5*time.Second)

	st, _ := h.store.State()
	if len(st.CollectedLoot) != 0 {
		t.Fatal("no loot may be banked without reveals")
	}
	if st.POIStatusAt(poiHex) != run.POIUnvisited {
		t.Fatalf("poi status = %s, want unvisited", st.POIStatusAt(poiHex))
	}
}

func TestResolutionCappingDetectionEndsRunMIA(t *testing.T) {
	h := newHarness(t, testMap(6), func(cfg *config.RunConfig) {
		for name, z := range cfg.Zones {
			z.EncounterChance = 100
			cfg.Zones[name] = z
		}
	})

	var sawMIA bool
	unsub := h.store.Subscribe(func(n run.Notification) {
		if n.State.Outcome == run.OutcomeMIA {
			sawMIA = true
		}
	})
	defer unsub()

	// One core hex (cost 5) leaves the meter at 99; the resolution bump
	// of 2 caps it.
	h.det.Add(94, "primed")
	if err := h.orc.AddWaypoint(hexmap.Axial{Q: 1}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := h.orc.CommenceJourney(); err != nil {
		t.Fatalf("commence: %v", err)
	}

	p := h.waitPrompt(t, PromptEncounter, 2*time.Second)
	if err := h.orc.ResumeEncounterProceed(p.Token); err != nil {
		t.Fatalf("proceed: %v", err)
	}
	h.waitDone(t, 5*time.Second)

	if !sawMIA {
		t.Fatal("a resolution that caps detection must end the run missing in action")
	}
	if _, ok := h.store.State(); ok {
		t.Fatal("store should be cleared after the loss")
	}
	if len(h.orc.Waypoints()) != 0 {
		t.Fatal("a lost run leaves no queue behind")
	}
}

func TestEscapeCommitsDamageAndSignalsEscape(t *testing.T) {
	h := newHarness(t, testMap(6), nil)
	hex := hexmap.Axial{Q: 1}
	p, tok := h.park(&encounter.Result{
		ID: uuid.NewString(), Hex: hex,
		Outcome: encounter.OutcomeCombat, AIID: "drift-watcher",
	})

	res, err := h.orc.ResumeEncounterEscape(tok)
	if err != nil {
		t.Fatalf("escape: %v", err)
	}
	if res.WouldDestroy {
		t.Fatal("a fresh ship cannot be destroyed by a low-band escape")
	}
	if res.TotalDamage <= 0 {
		t.Fatalf("total damage = %d, want > 0", res.TotalDamage)
	}

	st, _ := h.store.State()
	taken := 0
	for _, s := range st.Sections {
		taken += s.MaxHull - s.Hull
	}
	if taken != res.TotalDamage {
		t.Fatalf("hull damage %d does not match escape result %d", taken, res.TotalDamage)
	}

	select {
	case sig := <-p.ch:
		if !sig.escaped {
			t.Fatalf("signal = %+v, want escaped", sig)
		}
	default:
		t.Fatal("loop was not released")
	}

	if _, err := h.orc.ResumeEncounterEscape(tok); err == nil {
		t.Fatal("double resolution must be rejected")
	}
}

func TestCheckEscapeLeavesPromptAndState(t *testing.T) {
	h := newHarness(t, testMap(6), nil)
	_, tok := h.park(&encounter.Result{
		ID: uuid.NewString(), Hex: hexmap.Axial{Q: 1},
		Outcome: encounter.OutcomeCombat, AIID: "drift-watcher",
	})

	check, err := h.orc.CheckEscape(tok)
	if err != nil {
		t.Fatalf("check escape: %v", err)
	}
	if check.CouldDestroy {
		t.Fatal("a fresh ship is outside a low-band worst case")
	}
	if check.EscapeDamageRange[0] > check.EscapeDamageRange[1] {
		t.Fatalf("range inverted: %v", check.EscapeDamageRange)
	}

	if _, ok := h.orc.Pending(); !ok {
		t.Fatal("the pre-check must not consume the prompt")
	}
	st, _ := h.store.State()
	for _, s := range st.Sections {
		if s.Hull != s.MaxHull {
			t.Fatal("the pre-check must not deal damage")
		}
	}
}

func TestEvadeWithoutChargesKeepsPrompt(t *testing.T) {
	h := newHarness(t, testMap(6), nil)
	h.store.Apply(run.MutationItem, func(s *run.State) { s.DampenersLeft = 0 })
	_, tok := h.park(&encounter.Result{
		ID: uuid.NewString(), Hex: hexmap.Axial{Q: 1},
		Outcome: encounter.OutcomeCombat, AIID: "drift-watcher",
	})

	if _, err := h.orc.ResumeEncounterEvade(tok); err != ErrNoCharges {
		t.Fatalf("err = %v, want ErrNoCharges", err)
	}
	if _, ok := h.orc.Pending(); !ok {
		t.Fatal("a failed evade must leave the prompt outstanding")
	}
}

func TestConcurrentEvadeNeverBurnsChargeWithoutResolving(t *testing.T) {
	h := newHarness(t, testMap(6), nil)
	h.store.Apply(run.MutationItem, func(s *run.State) { s.DampenersLeft = 1 })
	_, tok := h.park(&encounter.Result{
		ID: uuid.NewString(), Hex: hexmap.Axial{Q: 1},
		Outcome: encounter.OutcomeCombat, AIID: "drift-watcher",
	})

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = h.orc.ResumeEncounterEvade(tok)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		}
	}
	if succeeded != 1 {
		t.Fatalf("resolutions succeeded = %d, want exactly 1", succeeded)
	}
	st, _ := h.store.State()
	if st.DampenersLeft != 0 {
		t.Fatalf("dampeners left = %d, want 0", st.DampenersLeft)
	}
	if _, ok := h.orc.Pending(); ok {
		t.Fatal("the winning evade must consume the prompt")
	}
}

func TestReturnToHighAlertSiteKeepsPenalty(t *testing.T) {
	m := testMap(6)
	poiHex := hexmap.Axial{Q: 2}
	m.POIs[poiHex] = hexmap.POI{Coord: poiHex, Kind: hexmap.POIWreck}
	h := newHarness(t, m, func(cfg *config.RunConfig) {
		for zone := range cfg.Salvage.BaseChance {
			cfg.Salvage.BaseChance[zone] = 0
		}
		cfg.Salvage.AlertBonus = 37
	})
	h.store.Apply(run.MutationPOI, func(s *run.State) { s.MarkHighAlert(poiHex) })

	if err := h.orc.AddWaypoint(poiHex); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := h.orc.CommenceJourney(); err != nil {
		t.Fatalf("commence: %v", err)
	}

	p := h.waitPrompt(t, PromptSalvage, 2*time.Second)
	if p.Salvage == nil {
		t.Fatal("salvage prompt missing session")
	}
	if p.Salvage.EncounterChance != 37 {
		t.Fatalf("encounter chance = %v, want the alert penalty carried over", p.Salvage.EncounterChance)
	}

	if err := h.orc.SalvageLeave(p.Token); err != nil {
		t.Fatalf("leave: %v", err)
	}
	h.waitDone(t, 5*time.Second)
}

func TestQuickDeployInvalidKeepsPrompt(t *testing.T) {
	h := newHarness(t, testMap(6), nil)
	p, tok := h.park(&encounter.Result{
		ID: uuid.NewString(), Hex: hexmap.Axial{Q: 1},
		Outcome: encounter.OutcomeCombat, AIID: "drift-watcher",
	})

	bad := encounter.DeployTemplate{
		Name:       "strays",
		Placements: []encounter.Placement{{DroneID: "ghost", Lane: 1, Cost: 5, CPU: 2}},
	}
	reasons, err := h.orc.ResumeEncounterQuickDeploy(tok, bad, []string{"wasp"})
	if err != nil {
		t.Fatalf("quick deploy: %v", err)
	}
	if len(reasons) == 0 {
		t.Fatal("roster mismatch must produce a reason")
	}
	if _, ok := h.orc.Pending(); !ok {
		t.Fatal("an invalid template must leave the prompt outstanding")
	}

	good := encounter.DeployTemplate{
		Name:       "screen",
		Placements: []encounter.Placement{{DroneID: "wasp", Lane: 1, Cost: 5, CPU: 2}},
	}
	reasons, err = h.orc.ResumeEncounterQuickDeploy(tok, good, []string{"wasp"})
	if err != nil {
		t.Fatalf("quick deploy: %v", err)
	}
	if len(reasons) != 0 {
		t.Fatalf("unexpected reasons: %+v", reasons)
	}
	select {
	case <-p.ch:
	default:
		t.Fatal("a valid template must release the loop")
	}
}
