// Package propagation runs the constraint cycle that keeps every field's
// allowed values and selection consistent with the collection's constraint
// function.
package propagation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/goliatone/go-dynform/pkg/catalogue"
	"github.com/goliatone/go-dynform/pkg/field"
	"github.com/goliatone/go-dynform/pkg/schema"
)

// Constrainer answers a selection snapshot with the allowed values of the
// fields it knows about. catalogue.Collection and catalogue.ConstraintFunc
// both satisfy it.
type Constrainer interface {
	ApplyConstraints(ctx context.Context, selection catalogue.Selection) (catalogue.Constraints, error)
}

// Phase is the engine's lifecycle state.
type Phase int32

const (
	Idle Phase = iota
	Propagating
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Propagating:
		return "propagating"
	default:
		return fmt.Sprintf("phase(%d)", int32(p))
	}
}

type change struct {
	field  string
	values []string
}

type subscriber struct {
	id int
	fn Listener
}

// Engine owns a form's controllers and serialises every mutation through
// constraint cycles. At most one cycle runs at a time; changes arriving while
// one is active are queued and run afterwards, one cycle per change.
type Engine struct {
	constrainer Constrainer
	order       []string
	controllers map[string]field.Controller

	logger    *slog.Logger
	supersede bool
	listeners []Listener

	phase  atomic.Int32
	cycles atomic.Uint64

	// mu guards the queue, the drainer flag and the in-flight cancel func.
	mu       sync.Mutex
	queue    []change
	draining bool
	cancel   context.CancelFunc

	// stateMu guards controller state.
	stateMu sync.RWMutex

	subMu  sync.RWMutex
	subs   []subscriber
	nextID int
}

// New builds an engine over controllers, kept in the given (form) order.
func New(constrainer Constrainer, controllers []field.Controller, options ...Option) (*Engine, error) {
	if constrainer == nil {
		return nil, ErrNoConstrainer
	}
	e := &Engine{
		constrainer: constrainer,
		controllers: make(map[string]field.Controller, len(controllers)),
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, c := range controllers {
		if _, dup := e.controllers[c.Name()]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateController, c.Name())
		}
		e.order = append(e.order, c.Name())
		e.controllers[c.Name()] = c
	}
	for _, opt := range options {
		if opt != nil {
			opt(e)
		}
	}
	for _, l := range e.listeners {
		e.Observe(l)
	}
	return e, nil
}

// Phase reports whether a cycle is running.
func (e *Engine) Phase() Phase {
	return Phase(e.phase.Load())
}

// Cycles returns how many cycles have started.
func (e *Engine) Cycles() uint64 {
	return e.cycles.Load()
}

// Names lists the fields in form order.
func (e *Engine) Names() []string {
	return append([]string(nil), e.order...)
}

// Definition returns the definition behind a field.
func (e *Engine) Definition(name string) (schema.FieldDefinition, bool) {
	c, ok := e.controllers[name]
	if !ok {
		return schema.FieldDefinition{}, false
	}
	return c.Definition(), true
}

// State returns a copy of one field's state.
func (e *Engine) State(name string) (field.State, bool) {
	e.stateMu.RLock()
	defer e.stateMu.RUnlock()
	c, ok := e.controllers[name]
	if !ok {
		return field.State{}, false
	}
	return c.State(), true
}

// States returns a copy of every field's state keyed by name.
func (e *Engine) States() map[string]field.State {
	e.stateMu.RLock()
	defer e.stateMu.RUnlock()
	out := make(map[string]field.State, len(e.order))
	for _, name := range e.order {
		out[name] = e.controllers[name].State()
	}
	return out
}

// Snapshot returns the non-empty selections.
func (e *Engine) Snapshot() catalogue.Selection {
	e.stateMu.RLock()
	defer e.stateMu.RUnlock()
	return e.snapshotLocked()
}

func (e *Engine) snapshotLocked() catalogue.Selection {
	out := make(catalogue.Selection, len(e.order))
	for _, name := range e.order {
		if v := e.controllers[name].Value(); len(v) > 0 {
			out[name] = v
		}
	}
	return out
}

// Observe registers a listener and returns a func removing it.
func (e *Engine) Observe(listener Listener) func() {
	if listener == nil {
		return func() {}
	}
	e.subMu.Lock()
	e.nextID++
	id := e.nextID
	e.subs = append(e.subs, subscriber{id: id, fn: listener})
	e.subMu.Unlock()

	return func() {
		e.subMu.Lock()
		defer e.subMu.Unlock()
		for i, s := range e.subs {
			if s.id == id {
				e.subs = append(e.subs[:i:i], e.subs[i+1:]...)
				return
			}
		}
	}
}

// Set records a user change to one field and runs a cycle for it. When a
// cycle is already active the change is queued, Set returns nil, and the
// active caller runs it.
func (e *Engine) Set(ctx context.Context, name string, values ...string) error {
	_, err := e.Submit(ctx, name, values...)
	return err
}

// Submit is Set that also reports whether this call ran the cycles. It
// returns false when the change was queued behind another caller's drain;
// that caller then runs it under its own context.
func (e *Engine) Submit(ctx context.Context, name string, values ...string) (bool, error) {
	if _, ok := e.controllers[name]; !ok {
		return false, fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	return e.submit(ctx, change{field: name, values: append([]string(nil), values...)})
}

// Run queries constraints for the current selection without changing any
// value. Sessions call it once after building a form.
func (e *Engine) Run(ctx context.Context) error {
	_, err := e.submit(ctx, change{})
	return err
}

func (e *Engine) submit(ctx context.Context, ch change) (bool, error) {
	e.mu.Lock()
	e.queue = append(e.queue, ch)
	if e.draining {
		if e.supersede && e.cancel != nil {
			e.cancel()
		}
		e.mu.Unlock()
		e.logger.Debug("change queued", "field", ch.field)
		return false, nil
	}
	e.draining = true
	e.mu.Unlock()

	return true, e.drain(ctx)
}

// drain runs queued changes until the queue is empty. Failures of every
// cycle it ran are joined into the returned error.
func (e *Engine) drain(ctx context.Context) error {
	defer func() {
		if r := recover(); r != nil {
			e.phase.Store(int32(Idle))
			e.mu.Lock()
			e.queue = nil
			e.draining = false
			e.cancel = nil
			e.mu.Unlock()
			panic(r)
		}
	}()

	var errs []error
	for {
		e.mu.Lock()
		if len(e.queue) == 0 {
			e.draining = false
			e.cancel = nil
			e.mu.Unlock()
			return errors.Join(errs...)
		}
		ch := e.queue[0]
		e.queue = e.queue[1:]
		cycleCtx, cancel := context.WithCancel(ctx)
		e.cancel = cancel
		e.mu.Unlock()

		e.phase.Store(int32(Propagating))
		events, err := e.cycle(cycleCtx, ctx, ch)
		cancel()
		e.phase.Store(int32(Idle))

		// Listeners see a settled engine; anything they submit is queued
		// behind this cycle.
		for _, ev := range events {
			e.emit(ev)
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
}

func (e *Engine) cycle(ctx, parent context.Context, ch change) ([]Event, error) {
	n := e.cycles.Add(1)

	e.stateMu.Lock()
	if ch.field != "" {
		e.controllers[ch.field].SetValue(ch.values...)
	}
	snapshot := e.snapshotLocked()
	e.stateMu.Unlock()

	e.logger.Debug("cycle started", "cycle", n, "field", ch.field, "selected", len(snapshot))

	resp, err := e.constrainer.ApplyConstraints(ctx, snapshot)
	if superseded(ctx, parent) {
		e.logger.Debug("cycle superseded", "cycle", n)
		return nil, nil
	}
	if err != nil {
		qerr := &ConstraintQueryError{Err: err}
		e.logger.Warn("constraint query failed", "cycle", n, "error", err)
		return []Event{{Type: CycleFailed, Cycle: n, Err: qerr}}, qerr
	}

	events := e.apply(n, resp)
	return append(events, Event{Type: CycleDone, Cycle: n}), nil
}

// apply pushes the response into controllers in form order. Fields the
// response omits keep their allowed values.
func (e *Engine) apply(n uint64, resp catalogue.Constraints) []Event {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()

	events := make([]Event, 0, len(resp))
	for _, name := range e.order {
		allowed, ok := resp[name]
		if !ok {
			continue
		}
		c := e.controllers[name]
		before := len(c.Value())
		c.ApplyAllowed(allowed)
		state := c.State()
		cleared := len(state.Selection) != before
		if cleared {
			e.logger.Debug("selection narrowed", "cycle", n, "field", name, "selected", len(state.Selection))
		}
		events = append(events, Event{Type: FieldApplied, Cycle: n, Field: name, State: state, Cleared: cleared})
	}
	for name := range resp {
		if _, ok := e.controllers[name]; !ok {
			e.logger.Debug("ignoring constraint for unknown field", "cycle", n, "field", name)
		}
	}

	for _, name := range e.order {
		if err := field.Validate(e.controllers[name]); err != nil {
			panic(err)
		}
	}
	return events
}

func (e *Engine) emit(ev Event) {
	e.subMu.RLock()
	subs := append([]subscriber(nil), e.subs...)
	e.subMu.RUnlock()
	for _, s := range subs {
		s.fn(ev)
	}
}

// superseded reports whether the cycle context was cancelled by a newer
// change rather than by the caller.
func superseded(ctx, parent context.Context) bool {
	return ctx.Err() != nil && parent.Err() == nil
}
