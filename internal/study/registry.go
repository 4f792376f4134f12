package study

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pavelanni/scaffold/internal/model"
)

// Status is the lifecycle state of a registry slot.
type Status string

const (
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusFailed  Status = "failed"
)

// LoadFunc fetches the payload for a session, e.g. by running OCR.
type LoadFunc func(ctx context.Context) (model.Payload, error)

// Ticket identifies one fetch attempt for a slot. A result is applied only if
// the slot still carries the ticket's generation.
type Ticket struct {
	ID  uuid.UUID
	Gen uint64
}

type slot struct {
	gen     uint64
	status  Status
	session *Session
	err     error
	cancel  context.CancelFunc
	load    LoadFunc
	opts    []Option
	touched time.Time
}

// Registry holds the live study sessions by id and serializes access to them.
type Registry struct {
	mu    sync.Mutex
	slots map[uuid.UUID]*slot
	gen   uint64

	idleTTL time.Duration
	now     func() time.Time

	ctx  context.Context
	stop context.CancelFunc
	wg   sync.WaitGroup // loads and the sweeper
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithIdleTTL drops slots nobody touched for ttl. Zero keeps slots until
// they are finished or abandoned.
func WithIdleTTL(ttl time.Duration) RegistryOption {
	return func(r *Registry) { r.idleTTL = ttl }
}

// WithRegistryClock sets the time source used for idle expiry.
func WithRegistryClock(now func() time.Time) RegistryOption {
	return func(r *Registry) { r.now = now }
}

// NewRegistry returns an empty registry. With an idle TTL set, a background
// sweeper runs until Close.
func NewRegistry(opts ...RegistryOption) *Registry {
	ctx, stop := context.WithCancel(context.Background())
	r := &Registry{
		slots: make(map[uuid.UUID]*slot),
		now:   time.Now,
		ctx:   ctx,
		stop:  stop,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.idleTTL > 0 {
		r.wg.Add(1)
		go r.sweepLoop(max(r.idleTTL/4, time.Second))
	}
	return r
}

func (r *Registry) sweepLoop(every time.Duration) {
	defer r.wg.Done()
	tick := time.NewTicker(every)
	defer tick.Stop()
	for {
		select {
		case <-r.ctx.Done():
			return
		case <-tick.C:
			r.Sweep()
		}
	}
}

// Sweep drops every slot idle for longer than the TTL, cancelling fetches
// still running for them. It returns the number of slots dropped.
func (r *Registry) Sweep() int {
	if r.idleTTL <= 0 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := r.now().Add(-r.idleTTL)
	n := 0
	for id, sl := range r.slots {
		if sl.touched.After(cutoff) {
			continue
		}
		if sl.cancel != nil {
			sl.cancel()
		}
		delete(r.slots, id)
		n++
	}
	if n > 0 {
		slog.Debug("expired idle study sessions", "count", n, "remaining", len(r.slots))
	}
	return n
}

// Add creates a ready session from an already available payload.
func (r *Registry) Add(p model.Payload, opts ...Option) (uuid.UUID, error) {
	s, err := NewSession(p, opts...)
	if err != nil {
		return uuid.Nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gen++
	id := uuid.New()
	r.slots[id] = &slot{gen: r.gen, status: StatusReady, session: s, touched: r.now()}
	return id, nil
}

// Reserve creates a loading slot and returns its ticket together with a
// context that is cancelled when the slot is abandoned or re-fetched.
func (r *Registry) Reserve(opts ...Option) (Ticket, context.Context) {
	return r.reserve(nil, opts)
}

func (r *Registry) reserve(fn LoadFunc, opts []Option) (Ticket, context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := uuid.New()
	ctx, cancel := context.WithCancel(r.ctx)
	r.gen++
	r.slots[id] = &slot{gen: r.gen, status: StatusLoading, cancel: cancel, load: fn, opts: opts, touched: r.now()}
	return Ticket{ID: id, Gen: r.gen}, ctx
}

// current returns the slot for t, or ErrStale when the slot is gone or has
// moved on to a newer generation. Callers hold r.mu.
func (r *Registry) current(t Ticket) (*slot, error) {
	sl, ok := r.slots[t.ID]
	if !ok || sl.gen != t.Gen {
		return nil, fmt.Errorf("%w: %s gen %d", ErrStale, t.ID, t.Gen)
	}
	return sl, nil
}

// Fulfil installs the fetched payload. A payload without usable text marks
// the slot failed and returns ErrPayloadMissing.
func (r *Registry) Fulfil(t Ticket, p model.Payload) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	sl, err := r.current(t)
	if err != nil {
		return err
	}
	s, err := NewSession(p, sl.opts...)
	if err != nil {
		sl.status, sl.err = StatusFailed, err
		return err
	}
	sl.status, sl.session, sl.err = StatusReady, s, nil
	return nil
}

// Fail records a failed fetch so the client can offer retry or go back.
func (r *Registry) Fail(t Ticket, cause error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	sl, err := r.current(t)
	if err != nil {
		return err
	}
	sl.status, sl.err = StatusFailed, cause
	return nil
}

// Load reserves a slot and runs fn in the background. The result is applied
// only if the slot was neither abandoned nor retried meanwhile.
func (r *Registry) Load(fn LoadFunc, opts ...Option) uuid.UUID {
	t, ctx := r.reserve(fn, opts)
	r.run(t, ctx, fn)
	return t.ID
}

func (r *Registry) run(t Ticket, ctx context.Context, fn LoadFunc) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		p, err := fn(ctx)
		if err != nil {
			err = r.Fail(t, err)
		} else {
			err = r.Fulfil(t, p)
		}
		if err != nil {
			slog.Debug("study session load not applied", "id", t.ID, "gen", t.Gen, "error", err)
		}
	}()
}

// Retry re-runs the fetch of a failed slot under a new generation. Any
// result still in flight for the old generation is discarded.
func (r *Registry) Retry(id uuid.UUID) error {
	r.mu.Lock()
	sl, ok := r.slots[id]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if sl.status != StatusFailed || sl.load == nil {
		r.mu.Unlock()
		return fmt.Errorf("%w: retry from %s", ErrInvalidTransition, sl.status)
	}
	if sl.cancel != nil {
		sl.cancel()
	}
	ctx, cancel := context.WithCancel(r.ctx)
	r.gen++
	sl.gen, sl.status, sl.err, sl.cancel = r.gen, StatusLoading, nil, cancel
	sl.touched = r.now()
	t, fn := Ticket{ID: id, Gen: sl.gen}, sl.load
	r.mu.Unlock()

	r.run(t, ctx, fn)
	return nil
}

// Abandon drops the session and cancels any fetch still running for it.
func (r *Registry) Abandon(id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	sl, ok := r.slots[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if sl.cancel != nil {
		sl.cancel()
	}
	delete(r.slots, id)
	return nil
}

// SlotState is the externally visible state of a slot.
type SlotState struct {
	Status Status
	// Cause is set for failed slots.
	Cause error
}

// State reports the state of slot id.
func (r *Registry) State(id uuid.UUID) (SlotState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sl, ok := r.slots[id]
	if !ok {
		return SlotState{}, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	sl.touched = r.now()
	return SlotState{Status: sl.status, Cause: sl.err}, nil
}

// ready returns the ready slot id. Callers hold r.mu.
func (r *Registry) ready(id uuid.UUID) (*slot, error) {
	sl, ok := r.slots[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	switch sl.status {
	case StatusLoading:
		return nil, fmt.Errorf("%w: %s", ErrSessionLoading, id)
	case StatusFailed:
		return nil, fmt.Errorf("%w: %w", ErrPayloadMissing, sl.err)
	}
	sl.touched = r.now()
	return sl, nil
}

// With runs fn on the ready session id while holding the registry lock.
func (r *Registry) With(id uuid.UUID, fn func(*Session) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	sl, err := r.ready(id)
	if err != nil {
		return err
	}
	return fn(sl.session)
}

// Release runs fn like With and drops the slot when fn succeeds. It is how a
// finished session leaves the registry.
func (r *Registry) Release(id uuid.UUID, fn func(*Session) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	sl, err := r.ready(id)
	if err != nil {
		return err
	}
	if err := fn(sl.session); err != nil {
		return err
	}
	delete(r.slots, id)
	return nil
}

// Len returns the number of slots in any state.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.slots)
}

// Close cancels every running fetch, stops the sweeper and waits for them
// to return.
func (r *Registry) Close() {
	r.stop()
	r.wg.Wait()
}
