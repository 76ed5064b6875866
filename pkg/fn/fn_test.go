package fn

import (
	"context"
	"errors"
	"strconv"
	"testing"
)

// --- Result ---

func TestOkAndErr(t *testing.T) {
	r := Ok(42)
	if !r.IsOk() || r.IsErr() {
		t.Fatal("Ok should be ok")
	}
	v, err := r.Unwrap()
	if v != 42 || err != nil {
		t.Fatal("wrong unwrap")
	}

	e := Err[int](errors.New("fail"))
	if e.IsOk() || !e.IsErr() {
		t.Fatal("Err should be err")
	}
}

// --- Pipeline ---

func TestThen(t *testing.T) {
	parse := Stage[string, int](func(_ context.Context, s string) Result[int] {
		v, err := strconv.Atoi(s)
		if err != nil {
			return Err[int](err)
		}
		return Ok(v)
	})
	double := Stage[int, int](func(_ context.Context, v int) Result[int] {
		return Ok(v * 2)
	})

	r := Then(parse, double)(context.Background(), "21")
	if v, err := r.Unwrap(); err != nil || v != 42 {
		t.Fatalf("got %v, %v", v, err)
	}
}

func TestThen_ShortCircuits(t *testing.T) {
	called := false
	fail := Stage[int, int](func(_ context.Context, _ int) Result[int] {
		return Err[int](errors.New("stage one"))
	})
	second := Stage[int, int](func(_ context.Context, v int) Result[int] {
		called = true
		return Ok(v)
	})

	r := Then(fail, second)(context.Background(), 1)
	if r.IsOk() {
		t.Fatal("expected error")
	}
	if called {
		t.Fatal("second stage ran after first failed")
	}
}

func TestTracedStage_PassesThrough(t *testing.T) {
	s := TracedStage("test.stage", Stage[int, int](func(_ context.Context, v int) Result[int] {
		return Ok(v + 1)
	}))
	if v, _ := s(context.Background(), 1).Unwrap(); v != 2 {
		t.Fatalf("got %d", v)
	}

	fails := TracedStage("test.fail", Stage[int, int](func(_ context.Context, _ int) Result[int] {
		return Err[int](errors.New("boom"))
	}))
	if fails(context.Background(), 1).IsOk() {
		t.Fatal("expected error")
	}
}

// --- Slice ---

func TestFilter(t *testing.T) {
	out := Filter([]int{1, 2, 3, 4}, func(v int) bool { return v%2 == 0 })
	if len(out) != 2 || out[0] != 2 {
		t.Fatal("Filter failed")
	}
	if Filter([]int{1, 3}, func(v int) bool { return v%2 == 0 }) != nil {
		t.Fatal("Filter with no matches should return nil")
	}
}

func TestTake(t *testing.T) {
	if got := Take([]int{1, 2, 3}, 2); len(got) != 2 || got[1] != 2 {
		t.Fatalf("got %v", got)
	}
	if got := Take([]int{1}, 5); len(got) != 1 {
		t.Fatalf("got %v", got)
	}
	if got := Take([]int{1, 2}, 0); len(got) != 0 {
		t.Fatalf("got %v", got)
	}
	if got := Take([]int{1, 2}, -1); len(got) != 0 {
		t.Fatalf("got %v", got)
	}
}
