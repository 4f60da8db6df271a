// Package scheduler runs cancellable delayed actions, one per key.
package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Action is the deferred work. Its error is handed to the scheduler's OnDone hook.
type Action func(ctx context.Context) error

// State of a scheduled entry.
type State int32

const (
	StatePending State = iota
	StateFired
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateFired:
		return "fired"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Handle identifies one scheduled action.
type Handle struct {
	ID       string
	Token    string
	Deadline time.Time

	state atomic.Int32
	timer Timer
}

// State returns the entry's current state.
func (h *Handle) State() State {
	return State(h.state.Load())
}

// Scheduler keeps one timer per pending entry, so entries never wait on each
// other. Every entry ends exactly once, either fired or cancelled.
type Scheduler struct {
	clock  Clock
	ctx    context.Context
	cancel context.CancelFunc
	logger *zap.Logger

	mu      sync.Mutex
	pending map[string]*Handle

	// OnDone, when set, is called after an action has run.
	OnDone func(h *Handle, err error)
}

// New creates a scheduler on the given clock.
func New(clock Clock, logger *zap.Logger) *Scheduler {
	if clock == nil {
		clock = SystemClock{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		clock:   clock,
		ctx:     ctx,
		cancel:  cancel,
		logger:  logger,
		pending: make(map[string]*Handle),
	}
}

// Now returns the scheduler clock's current time.
func (s *Scheduler) Now() time.Time {
	return s.clock.Now()
}

// Schedule arms action to run at deadline under id. If id is already pending
// the existing handle is returned and action is discarded.
func (s *Scheduler) Schedule(id string, deadline time.Time, action Action) *Handle {
	s.mu.Lock()
	defer s.mu.Unlock()

	if h, ok := s.pending[id]; ok {
		return h
	}

	h := &Handle{ID: id, Token: uuid.NewString(), Deadline: deadline}
	s.pending[id] = h
	h.timer = s.clock.AfterFunc(deadline.Sub(s.clock.Now()), func() { s.fire(h, action) })

	s.logger.Debug("deletion scheduled",
		zap.String("id", id),
		zap.String("token", h.Token),
		zap.Time("deadline", deadline))
	return h
}

func (s *Scheduler) fire(h *Handle, action Action) {
	if !h.state.CompareAndSwap(int32(StatePending), int32(StateFired)) {
		return
	}
	s.forget(h)

	err := action(s.ctx)
	if err != nil {
		s.logger.Warn("scheduled action failed", zap.String("id", h.ID), zap.String("token", h.Token), zap.Error(err))
	}
	if s.OnDone != nil {
		s.OnDone(h, err)
	}
}

func (s *Scheduler) forget(h *Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.pending[h.ID]; ok && cur == h {
		delete(s.pending, h.ID)
	}
}

// Cancel stops a pending entry. It reports true only if this call moved the
// entry to cancelled; after that the action never runs. Cancelling a fired or
// already cancelled entry is a no-op.
func (s *Scheduler) Cancel(h *Handle) bool {
	if h == nil {
		return false
	}
	if !h.state.CompareAndSwap(int32(StatePending), int32(StateCancelled)) {
		return false
	}
	if h.timer != nil {
		h.timer.Stop()
	}
	s.forget(h)
	s.logger.Debug("deletion cancelled", zap.String("id", h.ID), zap.String("token", h.Token))
	return true
}

// CancelID cancels the pending entry registered under id, if any.
func (s *Scheduler) CancelID(id string) bool {
	s.mu.Lock()
	h := s.pending[id]
	s.mu.Unlock()
	return s.Cancel(h)
}

// Lookup returns the pending handle for id.
func (s *Scheduler) Lookup(id string) (*Handle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.pending[id]
	return h, ok
}

// Pending returns the number of entries that have neither fired nor been cancelled.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Stop cancels every pending entry and the context passed to running actions.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	handles := make([]*Handle, 0, len(s.pending))
	for _, h := range s.pending {
		handles = append(handles, h)
	}
	s.mu.Unlock()

	for _, h := range handles {
		s.Cancel(h)
	}
	s.cancel()
}
