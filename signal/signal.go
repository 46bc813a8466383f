// Package signal provides fine-grained reactive cells with dependency
// tracking.
//
// A Runtime owns the tracking state for a family of cells. Signal holds a
// mutable value, Computed derives a memoized value from the cells it read
// during its last evaluation, and Effect re-runs a side effect after any
// commit that changed one of its dependencies. Writes grouped with Batch are
// committed as a single notification pulse.
//
// Computed values are pull-based: they hold forward references to their
// dependencies only, and are re-validated lazily on read by comparing the
// versions recorded at their last evaluation. An unobserved Computed is
// therefore collected like any other value.
//
// A Runtime is not safe for concurrent use. Create one per independent
// family of cells (for example one per form).
package signal

import (
	"fmt"

	"github.com/reoring/goform/internal/ident"
)

// maxFlushRounds bounds effect re-triggering within one flush.
const maxFlushRounds = 100

// ReadOnly is the read side shared by Signal and Computed.
type ReadOnly[T any] interface {
	// Get returns the current value and records a dependency when called
	// inside a Computed or Effect.
	Get() T
	// Peek returns the current value without recording a dependency.
	Peek() T
}

// cell is implemented by everything a computation can depend on.
type cell interface {
	// refresh brings the cell up to date and returns its version.
	refresh() uint64
}

type dep struct {
	c       cell
	version uint64
}

type tracker struct {
	deps []dep
	seen map[cell]struct{}
}

func (t *tracker) add(c cell, version uint64) {
	if t.seen == nil {
		t.seen = make(map[cell]struct{}, 4)
	}
	if _, ok := t.seen[c]; ok {
		return
	}
	t.seen[c] = struct{}{}
	t.deps = append(t.deps, dep{c: c, version: version})
}

func depsChanged(deps []dep) bool {
	for _, d := range deps {
		if d.c.refresh() != d.version {
			return true
		}
	}
	return false
}

// Runtime coordinates dependency tracking, batching and effect scheduling.
type Runtime struct {
	epoch    uint64
	tracker  *tracker
	batch    int
	flushing bool
	effects  []*Effect
	pulses   uint64
	// batchStart is the epoch when the outermost batch began.
	batchStart uint64
}

// NewRuntime returns an empty Runtime.
func NewRuntime() *Runtime { return &Runtime{} }

// Pulses reports how many notification pulses have been flushed so far.
func (rt *Runtime) Pulses() uint64 { return rt.pulses }

func (rt *Runtime) track(c cell, version uint64) {
	if rt.tracker != nil {
		rt.tracker.add(c, version)
	}
}

// collect runs fn with a fresh tracker and returns the dependencies it read.
func (rt *Runtime) collect(fn func()) []dep {
	prev := rt.tracker
	t := &tracker{}
	rt.tracker = t
	defer func() { rt.tracker = prev }()
	fn()
	return t.deps
}

func (rt *Runtime) commit() {
	rt.epoch++
	if rt.batch == 0 {
		rt.flush()
	}
}

// Batch runs fn and defers effect notification until the outermost batch
// returns, so that every write made inside fn is observed together. A batch
// that changed nothing flushes nothing.
func (rt *Runtime) Batch(fn func()) {
	if rt.batch == 0 {
		rt.batchStart = rt.epoch
	}
	rt.batch++
	completed := false
	defer func() {
		rt.batch--
		if completed && rt.batch == 0 && rt.epoch != rt.batchStart {
			rt.flush()
		}
	}()
	fn()
	completed = true
}

// Untracked runs fn without recording dependencies for the enclosing
// computation.
func (rt *Runtime) Untracked(fn func()) {
	prev := rt.tracker
	rt.tracker = nil
	defer func() { rt.tracker = prev }()
	fn()
}

func (rt *Runtime) flush() {
	if rt.flushing {
		// a write made by an effect; the running loop picks it up
		return
	}
	rt.flushing = true
	defer func() { rt.flushing = false }()
	rt.pulses++
	for round := 0; ; round++ {
		if round >= maxFlushRounds {
			panic(fmt.Sprintf("signal: effects did not settle after %d rounds", maxFlushRounds))
		}
		start := rt.epoch
		effects := append([]*Effect(nil), rt.effects...)
		for _, e := range effects {
			if !e.disposed && e.stale() {
				e.run()
			}
		}
		if rt.epoch == start {
			return
		}
	}
}

// Option configures a Signal or Computed.
type Option[T any] func(*options[T])

type options[T any] struct {
	equal func(a, b T) bool
}

// WithEqual replaces the change-detection predicate. The default compares
// maps, slices and pointers by reference and other values with ==.
func WithEqual[T any](fn func(a, b T) bool) Option[T] {
	return func(o *options[T]) { o.equal = fn }
}

func buildOptions[T any](opts []Option[T]) options[T] {
	o := options[T]{equal: func(a, b T) bool { return ident.Same(any(a), any(b)) }}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// Signal is a mutable reactive cell.
type Signal[T any] struct {
	rt      *Runtime
	value   T
	version uint64
	equal   func(a, b T) bool
}

// New creates a Signal holding v.
func New[T any](rt *Runtime, v T, opts ...Option[T]) *Signal[T] {
	o := buildOptions(opts)
	return &Signal[T]{rt: rt, value: v, equal: o.equal}
}

func (s *Signal[T]) refresh() uint64 { return s.version }

// Get returns the value and records a dependency.
func (s *Signal[T]) Get() T {
	s.rt.track(s, s.version)
	return s.value
}

// Peek returns the value without recording a dependency.
func (s *Signal[T]) Peek() T { return s.value }

// Set stores v. Writing a value equal to the current one is a no-op.
func (s *Signal[T]) Set(v T) {
	if s.equal(s.value, v) {
		return
	}
	s.value = v
	s.version++
	s.rt.commit()
}

// Update replaces the value with fn(current).
func (s *Signal[T]) Update(fn func(T) T) { s.Set(fn(s.value)) }

type computeState uint8

const (
	stateInitial computeState = iota
	stateReady
	stateComputing
)

// Computed is a memoized value derived from other cells.
type Computed[T any] struct {
	rt      *Runtime
	fn      func() T
	value   T
	version uint64
	deps    []dep
	checked uint64
	state   computeState
	equal   func(a, b T) bool
}

// NewComputed creates a Computed evaluated lazily from fn.
func NewComputed[T any](rt *Runtime, fn func() T, opts ...Option[T]) *Computed[T] {
	o := buildOptions(opts)
	return &Computed[T]{rt: rt, fn: fn, equal: o.equal}
}

func (c *Computed[T]) refresh() uint64 {
	switch c.state {
	case stateComputing:
		panic("signal: cycle detected while evaluating computed value")
	case stateReady:
		if c.checked == c.rt.epoch {
			return c.version
		}
		if !depsChanged(c.deps) {
			c.checked = c.rt.epoch
			return c.version
		}
	}
	c.recompute()
	return c.version
}

func (c *Computed[T]) recompute() {
	start := c.rt.epoch
	prevState := c.state
	c.state = stateComputing
	var v T
	deps := func() (deps []dep) {
		defer func() {
			if r := recover(); r != nil {
				c.state = prevState
				panic(r)
			}
		}()
		return c.rt.collect(func() { v = c.fn() })
	}()
	c.deps = deps
	if prevState == stateInitial || !c.equal(c.value, v) {
		c.value = v
		c.version++
	}
	c.state = stateReady
	c.checked = start
}

// Get returns the up-to-date value and records a dependency.
func (c *Computed[T]) Get() T {
	v := c.refresh()
	c.rt.track(c, v)
	return c.value
}

// Peek returns the up-to-date value without recording a dependency.
func (c *Computed[T]) Peek() T {
	c.refresh()
	return c.value
}

// Effect is a side effect re-run when its dependencies change.
type Effect struct {
	rt       *Runtime
	fn       func()
	deps     []dep
	checked  uint64
	disposed bool
	runs     int
}

// Effect registers fn, runs it once immediately, and re-runs it after every
// commit that changes a cell it read during its previous run.
func (rt *Runtime) Effect(fn func()) *Effect {
	e := &Effect{rt: rt, fn: fn}
	rt.effects = append(rt.effects, e)
	e.run()
	return e
}

func (e *Effect) stale() bool {
	if e.checked == e.rt.epoch {
		return false
	}
	if depsChanged(e.deps) {
		return true
	}
	e.checked = e.rt.epoch
	return false
}

func (e *Effect) run() {
	start := e.rt.epoch
	e.deps = e.rt.collect(e.fn)
	e.checked = start
	e.runs++
}

// Runs reports how many times the effect has run.
func (e *Effect) Runs() int { return e.runs }

// Dispose unregisters the effect. It is safe to call more than once.
func (e *Effect) Dispose() {
	if e.disposed {
		return
	}
	e.disposed = true
	effects := e.rt.effects[:0]
	for _, other := range e.rt.effects {
		if other != e {
			effects = append(effects, other)
		}
	}
	e.rt.effects = effects
	e.deps = nil
}
