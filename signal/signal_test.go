package signal_test

import (
	"testing"

	"github.com/reoring/goform/signal"
)

func TestComputed_MemoizesUntilDependencyChanges(t *testing.T) {
	rt := signal.NewRuntime()
	a := signal.New(rt, 1)
	b := signal.New(rt, 10)
	evals := 0
	sum := signal.NewComputed(rt, func() int {
		evals++
		return a.Get() + b.Get()
	})

	if got := sum.Get(); got != 11 {
		t.Fatalf("expected 11, got %d", got)
	}
	_ = sum.Get()
	if evals != 1 {
		t.Fatalf("expected a single evaluation, got %d", evals)
	}

	a.Set(2)
	if got := sum.Get(); got != 12 {
		t.Fatalf("expected 12, got %d", got)
	}
	if evals != 2 {
		t.Fatalf("expected re-evaluation after write, got %d evaluations", evals)
	}

	// writing the same value does not invalidate
	a.Set(2)
	_ = sum.Get()
	if evals != 2 {
		t.Fatalf("expected no re-evaluation for identical write, got %d", evals)
	}
}

func TestComputed_OnlyDependentsRecompute(t *testing.T) {
	rt := signal.NewRuntime()
	left := signal.New(rt, "l")
	right := signal.New(rt, "r")
	leftEvals, rightEvals := 0, 0
	l := signal.NewComputed(rt, func() string { leftEvals++; return left.Get() })
	r := signal.NewComputed(rt, func() string { rightEvals++; return right.Get() })
	_, _ = l.Get(), r.Get()

	left.Set("L")
	_, _ = l.Get(), r.Get()
	if leftEvals != 2 || rightEvals != 1 {
		t.Fatalf("expected left=2 right=1 evaluations, got left=%d right=%d", leftEvals, rightEvals)
	}
}

func TestComputed_ChainStopsWhenIntermediateUnchanged(t *testing.T) {
	rt := signal.NewRuntime()
	n := signal.New(rt, 3)
	parity := signal.NewComputed(rt, func() bool { return n.Get()%2 == 0 })
	labelEvals := 0
	label := signal.NewComputed(rt, func() string {
		labelEvals++
		if parity.Get() {
			return "even"
		}
		return "odd"
	})
	if label.Get() != "odd" {
		t.Fatalf("expected odd")
	}
	n.Set(5)
	if label.Get() != "odd" {
		t.Fatalf("expected odd")
	}
	if labelEvals != 1 {
		t.Fatalf("expected label to be reused when parity is unchanged, got %d evaluations", labelEvals)
	}
}

func TestEffect_RunsOncePerBatch(t *testing.T) {
	rt := signal.NewRuntime()
	data := signal.New(rt, "")
	touched := signal.New(rt, false)
	var seen [][2]any
	e := rt.Effect(func() {
		seen = append(seen, [2]any{data.Get(), touched.Get()})
	})
	defer e.Dispose()

	rt.Batch(func() {
		data.Set("hello")
		touched.Set(true)
	})

	if e.Runs() != 2 {
		t.Fatalf("expected initial run plus one batched run, got %d", e.Runs())
	}
	last := seen[len(seen)-1]
	if last[0] != "hello" || last[1] != true {
		t.Fatalf("expected both writes observed together, got %v", last)
	}
	for _, s := range seen {
		if s[0] == "hello" && s[1] == false {
			t.Fatalf("observed a partial update: %v", seen)
		}
	}
}

func TestEffect_UnbatchedWritesNotifySeparately(t *testing.T) {
	rt := signal.NewRuntime()
	a := signal.New(rt, 0)
	e := rt.Effect(func() { _ = a.Get() })
	a.Set(1)
	a.Set(2)
	if e.Runs() != 3 {
		t.Fatalf("expected 3 runs, got %d", e.Runs())
	}
	e.Dispose()
	a.Set(3)
	if e.Runs() != 3 {
		t.Fatalf("expected disposed effect to stay idle, got %d runs", e.Runs())
	}
}

func TestEffect_SkipsWhenComputedValueUnchanged(t *testing.T) {
	rt := signal.NewRuntime()
	n := signal.New(rt, 1)
	positive := signal.NewComputed(rt, func() bool { return n.Get() > 0 })
	e := rt.Effect(func() { _ = positive.Get() })
	n.Set(2)
	if e.Runs() != 1 {
		t.Fatalf("expected effect to skip unchanged computed, got %d runs", e.Runs())
	}
	n.Set(-1)
	if e.Runs() != 2 {
		t.Fatalf("expected effect to re-run, got %d runs", e.Runs())
	}
}

func TestBatch_NestedCommitsOnce(t *testing.T) {
	rt := signal.NewRuntime()
	a := signal.New(rt, 0)
	before := rt.Pulses()
	rt.Batch(func() {
		a.Set(1)
		rt.Batch(func() { a.Set(2) })
		a.Set(3)
	})
	if got := rt.Pulses() - before; got != 1 {
		t.Fatalf("expected a single pulse, got %d", got)
	}
}

func TestUntracked_DoesNotRecordDependency(t *testing.T) {
	rt := signal.NewRuntime()
	a := signal.New(rt, 1)
	b := signal.New(rt, 1)
	evals := 0
	c := signal.NewComputed(rt, func() int {
		evals++
		v := a.Get()
		rt.Untracked(func() { v += b.Get() })
		return v
	})
	_ = c.Get()
	b.Set(5)
	_ = c.Get()
	if evals != 1 {
		t.Fatalf("expected untracked read not to invalidate, got %d evaluations", evals)
	}
}

func TestComputed_CyclePanics(t *testing.T) {
	rt := signal.NewRuntime()
	var c *signal.Computed[int]
	c = signal.NewComputed(rt, func() int { return c.Get() + 1 })
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on cycle")
		}
	}()
	_ = c.Get()
}

func TestWithEqual_CustomComparison(t *testing.T) {
	rt := signal.NewRuntime()
	s := signal.New(rt, []string{"a"}, signal.WithEqual(func(a, b []string) bool { return len(a) == len(b) }))
	e := rt.Effect(func() { _ = s.Get() })
	s.Set([]string{"b"})
	if e.Runs() != 1 {
		t.Fatalf("expected equal-length write to be ignored, got %d runs", e.Runs())
	}
}

func TestSignal_FuncWritesAreObserved(t *testing.T) {
	rt := signal.NewRuntime()
	mk := func(n int) func() int { return func() int { return n } }
	s := signal.New(rt, mk(1))
	got := 0
	rt.Effect(func() { got = s.Get()() })
	s.Set(mk(2))
	if got != 2 {
		t.Fatalf("expected the new closure to be observed, got %d", got)
	}
}

func TestBatch_UnchangedWritesDoNotPulse(t *testing.T) {
	rt := signal.NewRuntime()
	s := signal.New(rt, "a")
	rt.Batch(func() { s.Set("a") })
	if got := rt.Pulses(); got != 0 {
		t.Fatalf("expected 0 pulses, got %d", got)
	}
	rt.Batch(func() { s.Set("b") })
	if got := rt.Pulses(); got != 1 {
		t.Fatalf("expected 1 pulse, got %d", got)
	}
}
