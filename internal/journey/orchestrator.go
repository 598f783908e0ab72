package journey

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"eremos-run/internal/config"
	"eremos-run/internal/detection"
	"eremos-run/internal/encounter"
	"eremos-run/internal/extraction"
	"eremos-run/internal/hexmap"
	"eremos-run/internal/journal"
	"eremos-run/internal/loot"
	"eremos-run/internal/movement"
	"eremos-run/internal/run"
	"eremos-run/internal/salvage"
)

// Phase is the orchestrator's observable position in its state machine.
type Phase string

const (
	PhaseIdle              Phase = "idle"
	PhaseJourneying        Phase = "journeying"
	PhaseAwaitingEncounter Phase = "awaiting_encounter"
	PhaseAwaitingSalvage   Phase = "awaiting_salvage"
	PhasePaused            Phase = "paused"
)

var (
	ErrNotIdle     = errors.New("journey already in progress")
	ErrNoWaypoints = errors.New("no waypoints queued")
	ErrUnreachable = errors.New("destination unreachable")
	ErrRunOver     = errors.New("run is no longer active")
	ErrBadIndex    = errors.New("waypoint index out of range")
)

const defaultPollInterval = 25 * time.Millisecond

// Orchestrator owns the journey loop for one run. Public methods are
// safe to call from other goroutines; the loop itself runs on a single
// goroutine, so hex commits and their detection and encounter effects
// stay strictly sequential.
type Orchestrator struct {
	cfg   *config.RunConfig
	store *run.Store
	det   *detection.Manager
	enc   *encounter.Controller
	sal   *salvage.Controller
	ext   *extraction.Controller
	gen   *loot.Generator
	out   journal.Writer
	log   *slog.Logger

	mu         sync.Mutex
	phase      Phase
	waypoints  []Waypoint
	paused     bool
	stopping   bool
	abandoning bool
	pending    *pendingResolution
	salvageSt  *salvage.State
	done       chan struct{}
}

// New wires an orchestrator to one run's store and controllers. The
// journal writer may be nil for headless use.
func New(cfg *config.RunConfig, store *run.Store, det *detection.Manager,
	enc *encounter.Controller, sal *salvage.Controller, ext *extraction.Controller,
	gen *loot.Generator, out journal.Writer, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		cfg:   cfg,
		store: store,
		det:   det,
		enc:   enc,
		sal:   sal,
		ext:   ext,
		gen:   gen,
		out:   out,
		log:   log,
		phase: PhaseIdle,
	}
}

// Phase reports the current state machine position. Paused is reported
// as its own phase while the loop spins inside a wait.
func (o *Orchestrator) Phase() Phase {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.paused && o.phase == PhaseJourneying {
		return PhasePaused
	}
	return o.phase
}

// Waypoints returns a snapshot of the pending queue.
func (o *Orchestrator) Waypoints() []Waypoint {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]Waypoint, len(o.waypoints))
	copy(out, o.waypoints)
	return out
}

// Done reports journey loop completion. Nil before the first journey.
func (o *Orchestrator) Done() <-chan struct{} {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.done
}

// AddWaypoint plans a fewest-hops leg from the end of the queue (or the
// player's position for the first) to dest.
func (o *Orchestrator) AddWaypoint(dest hexmap.Axial) error {
	return o.AddWaypointVia(dest, RouteDirect)
}

// AddWaypointVia plans a leg with the given route strategy. Unreachable
// destinations are logged and rejected without touching the queue.
func (o *Orchestrator) AddWaypointVia(dest hexmap.Axial, route Route) error {
	st, ok := o.store.State()
	if !ok {
		return ErrRunOver
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	origin := st.PlayerPosition
	if n := len(o.waypoints); n > 0 {
		origin = o.waypoints[n-1].Hex
	}
	wp := buildWaypoint(o.cfg, st.Map, origin, dest, route)
	if wp == nil {
		o.log.Warn("waypoint unreachable", "dest", dest.String(), "route", string(route))
		return ErrUnreachable
	}
	o.waypoints = append(o.waypoints, *wp)
	accumulate(o.waypoints)
	return nil
}

// RemoveWaypoint drops the leg at index i and recomputes every leg from
// i onward against its new predecessor. Legs that become unreachable
// are dropped along with everything after them.
func (o *Orchestrator) RemoveWaypoint(i int) error {
	st, ok := o.store.State()
	if !ok {
		return ErrRunOver
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if i < 0 || i >= len(o.waypoints) {
		return ErrBadIndex
	}
	o.waypoints = append(o.waypoints[:i], o.waypoints[i+1:]...)
	o.waypoints = rechain(o.cfg, st.Map, st.PlayerPosition, o.waypoints, i)
	return nil
}

// ClearAllWaypoints empties the queue.
func (o *Orchestrator) ClearAllWaypoints() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.waypoints = nil
}

// CommenceJourney starts the loop over the queued waypoints.
func (o *Orchestrator) CommenceJourney() error {
	st, ok := o.store.State()
	if !ok {
		return ErrRunOver
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.phase != PhaseIdle {
		return ErrNotIdle
	}
	if len(o.waypoints) == 0 {
		return ErrNoWaypoints
	}
	o.phase = PhaseJourneying
	o.stopping = false
	o.paused = false
	o.done = make(chan struct{})
	go o.loop(st.Map)
	return nil
}

// TogglePause flips the pause flag and returns the new value. The loop
// spin-polls inside its current wait, so the effect lands within one
// poll interval.
func (o *Orchestrator) TogglePause() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.paused = !o.paused
	return o.paused
}

// StopMovement sets the cooperative stop flag. The loop resolves its
// current wait within one poll interval; unconsumed waypoints are
// preserved for later resumption.
func (o *Orchestrator) StopMovement() {
	o.mu.Lock()
	o.stopping = true
	o.paused = false
	o.mu.Unlock()
}

// Abandon marks the run as being torn down, short-circuiting every
// suspension wait, and finalizes the failed run.
func (o *Orchestrator) Abandon() {
	o.mu.Lock()
	o.abandoning = true
	o.paused = false
	o.mu.Unlock()
	o.ext.AbandonRun()
}

type legOutcome int

const (
	legDone legOutcome = iota
	legCancelled
	legMIA
	legEscaped
)

func (o *Orchestrator) loop(m *hexmap.Map) {
	o.mu.Lock()
	done := o.done
	o.mu.Unlock()
	defer close(done)

	o.record(journal.EventJourney, "", "journey commenced")

	for {
		o.mu.Lock()
		if len(o.waypoints) == 0 {
			o.mu.Unlock()
			break
		}
		wp := o.waypoints[0]
		o.mu.Unlock()

		switch o.traverse(m, wp) {
		case legDone:
			o.popLeg(wp)
		case legCancelled:
			o.setIdle()
			o.record(journal.EventJourney, "", "journey cancelled")
			return
		case legEscaped:
			o.setIdle()
			o.record(journal.EventJourney, "", "journey interrupted by escape")
			return
		case legMIA:
			o.mu.Lock()
			o.waypoints = nil
			o.phase = PhaseIdle
			o.mu.Unlock()
			return
		}
	}

	o.mu.Lock()
	o.waypoints = nil
	o.phase = PhaseIdle
	o.mu.Unlock()
	o.record(journal.EventJourney, "", "journey complete")
}

// traverse walks one leg hex by hex. Ordering per hex: scan wait, move
// commit, MIA check, encounter roll, move wait. A detection cap during
// the commit terminates the leg before any encounter roll for that hex.
func (o *Orchestrator) traverse(m *hexmap.Map, wp Waypoint) legOutcome {
	for i, hex := range wp.Path.Steps {
		if !o.wait(o.scanDelay()) {
			o.preserveRemainder(m, wp, i)
			return legCancelled
		}

		value, mia := o.commitMove(m, hex)
		o.record(journal.EventMove, hex.String(), fmt.Sprintf("entered hex, detection %.1f", value))

		if mia {
			o.det.TriggerMIA("detection reached maximum")
			o.record(journal.EventMIA, hex.String(), "signal locked, run lost")
			o.ext.FinalizeMIA()
			return legMIA
		}

		if res := o.enc.CheckMovementEncounter(hex, m, value); res != nil {
			sig := o.suspendEncounter(res)
			if sig.mia {
				return legMIA
			}
			if sig.cancelled {
				o.preserveRemainder(m, wp, i+1)
				return legCancelled
			}
			if sig.escaped {
				o.preserveRemainder(m, wp, i+1)
				return legEscaped
			}
		}

		if !o.wait(o.moveDelay()) {
			o.preserveRemainder(m, wp, i+1)
			return legCancelled
		}
	}
	return o.arrive(m, wp)
}

// arrive handles waypoint arrival: an unlooted POI hands off to the
// salvage flow, gates are inert (extraction is player-initiated).
func (o *Orchestrator) arrive(m *hexmap.Map, wp Waypoint) legOutcome {
	poi, ok := m.POIAt(wp.Hex)
	if !ok {
		return legDone
	}
	st, live := o.store.State()
	if !live {
		return legCancelled
	}
	status := st.POIStatusAt(wp.Hex)
	if status == run.POILooted || status == run.POIFled {
		return legDone
	}

	sess := o.sal.Initialize(poi, hexmap.ZoneFor(wp.Hex, m.Radius))
	if status == run.POIHighAlert {
		// A return visit to a site that went hot keeps its escalation
		// penalty.
		sess.EncounterChance += o.cfg.Salvage.AlertBonus
	}
	sig := o.suspendSalvage(sess)
	if sig.mia {
		return legMIA
	}
	// The leg itself is fully walked by now; trim it so a later journey
	// does not replay its hexes.
	if sig.cancelled {
		o.preserveRemainder(m, wp, len(wp.Path.Steps))
		return legCancelled
	}
	if sig.escaped {
		o.preserveRemainder(m, wp, len(wp.Path.Steps))
		return legEscaped
	}
	return legDone
}

// commitMove applies the single-hex move and its detection cost.
func (o *Orchestrator) commitMove(m *hexmap.Map, hex hexmap.Axial) (value float64, mia bool) {
	o.store.Apply(run.MutationMove, func(s *run.State) {
		s.PlayerPosition = hex
		s.HexesMoved++
		s.HexesExplored[hex] = true
	})
	return o.det.Add(detection.HexCost(o.cfg, hex, m.Radius), "movement")
}

// popLeg removes a completed leg from the front of the queue.
func (o *Orchestrator) popLeg(wp Waypoint) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.waypoints) > 0 && o.waypoints[0].Hex == wp.Hex {
		o.waypoints = o.waypoints[1:]
	}
}

// preserveRemainder trims the consumed prefix off the interrupted leg so
// a later journey resumes from the player's actual position.
func (o *Orchestrator) preserveRemainder(m *hexmap.Map, wp Waypoint, consumed int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.waypoints) == 0 || o.waypoints[0].Hex != wp.Hex {
		return
	}
	if consumed >= len(wp.Path.Steps) {
		o.waypoints = o.waypoints[1:]
		accumulate(o.waypoints)
		return
	}
	if consumed <= 0 {
		return
	}
	rem := &movement.Path{
		Origin: wp.Path.Steps[consumed-1],
		Steps:  append([]hexmap.Axial(nil), wp.Path.Steps[consumed:]...),
	}
	o.waypoints[0].Path = rem
	o.waypoints[0].SegmentDetection = movement.DetectionCost(o.cfg, rem, m)
	o.waypoints[0].SegmentEncounterRisk = movement.EncounterRisk(o.cfg, rem, m)
	accumulate(o.waypoints)
}

func (o *Orchestrator) setIdle() {
	o.mu.Lock()
	o.phase = PhaseIdle
	o.stopping = false
	o.mu.Unlock()
}

// wait sleeps for d in poll-interval increments, checking the stop and
// abandon flags each round. Pause spins inside the wait without
// consuming the remaining duration. Returns false when interrupted.
func (o *Orchestrator) wait(d time.Duration) bool {
	poll := o.pollInterval()
	remaining := d
	for remaining > 0 {
		if o.interrupted() {
			return false
		}
		time.Sleep(poll)
		if !o.isPaused() {
			remaining -= poll
		}
	}
	return !o.interrupted()
}

func (o *Orchestrator) interrupted() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.stopping || o.abandoning
}

func (o *Orchestrator) isPaused() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.paused
}

func (o *Orchestrator) pollInterval() time.Duration {
	if o.cfg.Timing.PollIntervalMS > 0 {
		return time.Duration(o.cfg.Timing.PollIntervalMS) * time.Millisecond
	}
	return defaultPollInterval
}

func (o *Orchestrator) scanDelay() time.Duration {
	return time.Duration(o.cfg.Timing.ScanDelayMS) * time.Millisecond
}

func (o *Orchestrator) moveDelay() time.Duration {
	return time.Duration(o.cfg.Timing.MoveDelayMS) * time.Millisecond
}

// record writes a journal row tagged with the live run, if any.
func (o *Orchestrator) record(t journal.EventType, hex, detail string) {
	if o.out == nil {
		return
	}
	row := journal.EventRow{Type: t, Hex: hex, Detail: detail, Timestamp: time.Now().UTC()}
	if st, ok := o.store.State(); ok {
		row.RunID = st.ID
		row.Tier = st.Tier
		row.Detection = st.Detection
	}
	if err := o.out.Write(row); err != nil {
		o.log.Warn("journal write failed", "err", err)
	}
}
