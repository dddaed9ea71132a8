package conversation

import "sync"

// Store holds the ordered turn list for the active conversation. The turn
// list is append-only during a session; response slots are mutated in
// place through Apply. Subscribers are notified once per batch commit.
type Store struct {
	mu          sync.RWMutex
	turns       []Turn
	comparisons map[string]*ComparisonTurn

	lmu       sync.Mutex
	listeners map[int]func()
	nextID    int
}

// NewStore creates an empty conversation store
func NewStore() *Store {
	return &Store{
		comparisons: make(map[string]*ComparisonTurn),
		listeners:   make(map[int]func()),
	}
}

// Append adds a turn to the end of the conversation
func (s *Store) Append(t Turn) {
	s.mu.Lock()
	s.turns = append(s.turns, t)
	if ct, ok := t.(*ComparisonTurn); ok {
		s.comparisons[ct.ID] = ct
	}
	s.mu.Unlock()

	s.notify()
}

// Reset replaces the conversation contents, used when loading a persisted
// conversation or starting a fresh one.
func (s *Store) Reset(turns []Turn) {
	s.mu.Lock()
	s.turns = append([]Turn(nil), turns...)
	s.comparisons = make(map[string]*ComparisonTurn)
	for _, t := range turns {
		if ct, ok := t.(*ComparisonTurn); ok {
			s.comparisons[ct.ID] = ct
		}
	}
	s.mu.Unlock()

	s.notify()
}

// Apply commits a batch of slot patches in one mutation. Patches that
// address an unknown turn or an unknown model within a turn are no-ops.
// Subscribers are notified once if anything changed.
func (s *Store) Apply(patches []*SlotPatch) {
	s.mu.Lock()
	changed := false
	for _, p := range patches {
		ct, ok := s.comparisons[p.TurnID]
		if !ok {
			continue
		}
		slot := ct.Slot(p.ModelID)
		if slot == nil {
			continue
		}
		if slot.apply(p) {
			changed = true
		}
	}
	s.mu.Unlock()

	if changed {
		s.notify()
	}
}

// Len returns the number of turns
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.turns)
}

// Snapshot returns a deep copy of the turn list safe to read without
// coordination. Slots within a snapshot are independent of in-flight
// updates; cross-slot consistency is not guaranteed beyond the moment of
// the copy.
func (s *Store) Snapshot() []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Turn, 0, len(s.turns))
	for _, t := range s.turns {
		switch tt := t.(type) {
		case *ComparisonTurn:
			slots := make([]*ResponseSlot, 0, len(tt.Slots))
			for _, sl := range tt.Slots {
				slots = append(slots, sl.Clone())
			}
			out = append(out, &ComparisonTurn{ID: tt.ID, Created: tt.Created, Slots: slots})
		default:
			out = append(out, t)
		}
	}
	return out
}

// Comparison returns a snapshot of one comparison turn, or nil
func (s *Store) Comparison(turnID string) *ComparisonTurn {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ct, ok := s.comparisons[turnID]
	if !ok {
		return nil
	}
	slots := make([]*ResponseSlot, 0, len(ct.Slots))
	for _, sl := range ct.Slots {
		slots = append(slots, sl.Clone())
	}
	return &ComparisonTurn{ID: ct.ID, Created: ct.Created, Slots: slots}
}

// Subscribe registers a callback invoked after every commit. The returned
// function removes the subscription.
func (s *Store) Subscribe(fn func()) func() {
	s.lmu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.lmu.Unlock()

	return func() {
		s.lmu.Lock()
		delete(s.listeners, id)
		s.lmu.Unlock()
	}
}

func (s *Store) notify() {
	s.lmu.Lock()
	fns := make([]func(), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.lmu.Unlock()

	for _, fn := range fns {
		fn()
	}
}
