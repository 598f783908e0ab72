// Package detection tracks the run's 0-100 detection meter.
package detection

import (
	"fmt"
	"log/slog"
	"sync"

	"eremos-run/internal/config"
	"eremos-run/internal/hexmap"
	"eremos-run/internal/rng"
	"eremos-run/internal/run"
)

const (
	// Max is the terminal detection value; reaching it ends the run MIA.
	Max = 100.0
)

// HexCost returns the zone-weighted detection cost of entering a hex.
// Deterministic given its inputs.
func HexCost(cfg *config.RunConfig, a hexmap.Axial, radius int) float64 {
	return cfg.ZoneFor(hexmap.ZoneFor(a, radius)).DetectionCost
}

// Manager mutates the active run's detection meter. It keeps the only
// controller-held pointer to the run store, bound at run start and
// released at run boundaries.
type Manager struct {
	mu       sync.Mutex
	cfg      *config.RunConfig
	store    *run.Store
	rand     *rng.Service
	log      *slog.Logger
	miaFired bool
}

// NewManager binds a manager to the active run.
func NewManager(cfg *config.RunConfig, store *run.Store, rand *rng.Service, log *slog.Logger) *Manager {
	return &Manager{cfg: cfg, store: store, rand: rand, log: log}
}

// Current returns the active run's detection value, or 0 after teardown.
func (m *Manager) Current() float64 {
	m.mu.Lock()
	store := m.store
	m.mu.Unlock()
	if store == nil {
		return 0
	}
	st, ok := store.State()
	if !ok {
		return 0
	}
	return st.Detection
}

// Add applies a detection delta, clamped to [0,100], and reports the new
// value and whether the meter hit the terminal maximum on this call.
// Negative deltas (item effects) are permitted but never go below 0.
// Stale calls after run teardown are no-ops.
func (m *Manager) Add(delta float64, reason string) (value float64, mia bool) {
	m.mu.Lock()
	store := m.store
	m.mu.Unlock()
	if store == nil {
		return 0, false
	}

	var after float64
	store.Apply(run.MutationDetection, func(s *run.State) {
		s.Detection += delta
		if s.Detection < 0 {
			s.Detection = 0
		}
		if s.Detection > Max {
			s.Detection = Max
		}
		after = s.Detection
	})
	m.log.Debug("detection changed", "delta", delta, "value", after, "reason", reason)
	return after, after >= Max
}

// TriggerMIA transitions the run to its terminal missing-in-action state.
// Safe to call at most the detection cap or on explicit abandonment; a
// second call is ignored.
func (m *Manager) TriggerMIA(reason string) {
	m.mu.Lock()
	if m.store == nil || m.miaFired {
		m.mu.Unlock()
		return
	}
	m.miaFired = true
	store := m.store
	m.mu.Unlock()

	m.log.Info("run lost", "reason", reason)
	store.Apply(run.MutationOutcome, func(s *run.State) {
		s.Outcome = run.OutcomeMIA
	})
}

// UseDampener consumes a signal dampener and lowers detection by a random
// amount within the item's configured range. The draw is keyed off the
// remaining item count, so repeated uses within one run are deterministic
// for the run seed but distinct from each other.
func (m *Manager) UseDampener() (reduction float64, ok bool) {
	m.mu.Lock()
	store := m.store
	rand := m.rand
	m.mu.Unlock()
	if store == nil {
		return 0, false
	}
	st, live := store.State()
	if !live || st.DampenersLeft <= 0 {
		return 0, false
	}

	itemRand := rand.Derive(fmt.Sprintf("dampener:%d", st.DampenersLeft))
	reduction = float64(itemRand.IntInclusive(
		int(m.cfg.Items.DampenerMinReduction),
		int(m.cfg.Items.DampenerMaxReduction),
	))

	store.Apply(run.MutationItem, func(s *run.State) {
		if s.DampenersLeft <= 0 {
			reduction = 0
			return
		}
		s.DampenersLeft--
	})
	if reduction == 0 {
		return 0, false
	}
	value, _ := m.Add(-reduction, "signal dampener")
	m.log.Info("dampener used", "reduction", reduction, "detection", value)
	return reduction, true
}

// Reset releases the store pointer at the run boundary.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store = nil
	m.miaFired = false
}
