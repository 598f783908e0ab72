package run

import "sync"

// Mutation names the kind of state change a notification carries.
type Mutation string

const (
	MutationStart     Mutation = "run_started"
	MutationMove      Mutation = "player_moved"
	MutationDetection Mutation = "detection_changed"
	MutationLoot      Mutation = "loot_collected"
	MutationPOI       Mutation = "poi_status_changed"
	MutationSections  Mutation = "sections_damaged"
	MutationItem      Mutation = "item_consumed"
	MutationOutcome   Mutation = "outcome_set"
	MutationCleared   Mutation = "run_cleared"
)

// Notification is delivered to subscribers on every mutation.
type Notification struct {
	Type  Mutation
	State State
}

// Listener receives store notifications.
type Listener func(Notification)

// Store is the observable run-state container. It is constructed at run
// start, torn down at run end, and passed explicitly to the orchestrator
// and controllers. Controllers invoked after Clear see a stale store and
// must no-op; Apply enforces that here.
type Store struct {
	mu      sync.Mutex
	state   *State
	subs    map[int]Listener
	nextSub int
}

// NewStore wraps a starting state.
func NewStore(st *State) *Store {
	return &Store{state: st, subs: make(map[int]Listener)}
}

// Active reports whether the store still holds a live run.
func (s *Store) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state != nil
}

// State returns a snapshot of the current run state. The second return
// is false once the run has been cleared.
func (s *Store) State() (State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		return State{}, false
	}
	return s.state.clone(), true
}

// Apply runs fn against the live state under the store lock and notifies
// subscribers. It is a no-op when the run has been cleared, so in-flight
// UI callbacks racing run teardown cannot corrupt anything.
func (s *Store) Apply(typ Mutation, fn func(*State)) {
	s.mu.Lock()
	if s.state == nil {
		s.mu.Unlock()
		return
	}
	fn(s.state)
	n := Notification{Type: typ, State: s.state.clone()}
	subs := s.listeners()
	s.mu.Unlock()

	for _, l := range subs {
		l(n)
	}
}

// Clear tears the run down. Subscribers get one final notification with
// the last state snapshot.
func (s *Store) Clear() {
	s.mu.Lock()
	if s.state == nil {
		s.mu.Unlock()
		return
	}
	last := s.state.clone()
	s.state = nil
	subs := s.listeners()
	s.mu.Unlock()

	n := Notification{Type: MutationCleared, State: last}
	for _, l := range subs {
		l(n)
	}
}

// Subscribe registers a listener and returns an unsubscribe func.
func (s *Store) Subscribe(l Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = l
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// listeners snapshots the subscriber set; callers must hold mu.
func (s *Store) listeners() []Listener {
	out := make([]Listener, 0, len(s.subs))
	for _, l := range s.subs {
		out = append(out, l)
	}
	return out
}
