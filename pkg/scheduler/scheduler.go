// Package scheduler coalesces high-frequency slot updates into batched
// store commits. It owns no field semantics: merging is delegated to the
// patch type, timing is the only concern here.
package scheduler

import (
	"sync"
	"time"

	"github.com/polyfold/polychat/pkg/conversation"
)

// DefaultInterval bounds how often the store is mutated under load
const DefaultInterval = 60 * time.Millisecond

type slotKey struct {
	turnID  string
	modelID string
}

// Scheduler merges bursts of partial updates per (turn, model) key and
// commits them to the conversation store at a bounded rate. Terminal
// updates bypass the throttle and flush everything pending with them.
type Scheduler struct {
	mu         sync.Mutex
	store      *conversation.Store
	interval   time.Duration
	clock      Clock
	pending    map[slotKey]*conversation.SlotPatch
	order      []slotKey
	lastCommit time.Time
	timer      Timer
}

// Option configures a Scheduler
type Option func(*Scheduler)

// WithClock substitutes the wall clock, for tests
func WithClock(c Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

// WithInterval overrides the minimum inter-commit interval
func WithInterval(d time.Duration) Option {
	return func(s *Scheduler) { s.interval = d }
}

// New creates a scheduler committing into store
func New(store *conversation.Store, opts ...Option) *Scheduler {
	s := &Scheduler{
		store:    store,
		interval: DefaultInterval,
		clock:    SystemClock(),
		pending:  make(map[slotKey]*conversation.SlotPatch),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Enqueue merges one partial update into the pending set and commits it
// now, or later, depending on how recently the last commit happened.
// A terminal update commits immediately together with everything else
// pending.
func (s *Scheduler) Enqueue(p *conversation.SlotPatch) {
	if p == nil || p.Empty() {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := slotKey{turnID: p.TurnID, modelID: p.ModelID}
	if existing, ok := s.pending[key]; ok {
		existing.Merge(p)
	} else {
		merged := &conversation.SlotPatch{TurnID: p.TurnID, ModelID: p.ModelID}
		merged.Merge(p)
		s.pending[key] = merged
		s.order = append(s.order, key)
	}

	if p.Terminal() {
		s.commitLocked()
		return
	}

	if s.timer != nil {
		// A commit is already scheduled; this update rides along
		return
	}

	elapsed := s.clock.Now().Sub(s.lastCommit)
	if elapsed >= s.interval {
		s.commitLocked()
		return
	}
	s.timer = s.clock.AfterFunc(s.interval-elapsed, s.fire)
}

// Flush commits everything pending immediately
func (s *Scheduler) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commitLocked()
}

func (s *Scheduler) fire() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timer = nil
	s.commitLocked()
}

// commitLocked applies all pending patches to the store in enqueue order,
// clears the pending set, and records the commit time. Caller holds mu.
func (s *Scheduler) commitLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if len(s.pending) == 0 {
		return
	}

	batch := make([]*conversation.SlotPatch, 0, len(s.order))
	for _, key := range s.order {
		batch = append(batch, s.pending[key])
	}
	s.pending = make(map[slotKey]*conversation.SlotPatch)
	s.order = s.order[:0]
	s.lastCommit = s.clock.Now()

	s.store.Apply(batch)
}
