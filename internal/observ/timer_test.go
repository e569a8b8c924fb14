package observ

import (
	"strconv"
	"strings"
	"sync"
	"testing"
)

func TestTimerReport(t *testing.T) {
	tm := NewTimer()
	idx := tm.Begin("trace counter")
	tm.End(idx, "5 funcs")
	tm.End(idx, "ended twice")
	tm.End(42, "ignored")
	tm.Begin("still running")

	r := tm.Report()
	if len(r.Phases) != 1 || r.Phases[0].Name != "trace counter" || r.Phases[0].Note != "5 funcs" {
		t.Fatalf("unexpected report %+v", r)
	}
	if r.TotalMS < r.Phases[0].DurationMS || r.WallMS < 0 {
		t.Fatalf("total %f wall %f phase %f", r.TotalMS, r.WallMS, r.Phases[0].DurationMS)
	}
	s := tm.Summary()
	for _, want := range []string{"trace counter", "// 5 funcs", "total", "wall"} {
		if !strings.Contains(s, want) {
			t.Fatalf("summary missing %q: %q", want, s)
		}
	}
	if strings.Contains(s, "still running") {
		t.Fatalf("unfinished phase in summary: %q", s)
	}
}

func TestEmptyTimer(t *testing.T) {
	if r := NewTimer().Report(); r.TotalMS != 0 || r.WallMS != 0 || len(r.Phases) != 0 {
		t.Fatalf("expected empty report, got %+v", r)
	}
}

func TestNilTimerIgnoresCalls(t *testing.T) {
	var tm *Timer
	idx := tm.Begin("x")
	if idx != -1 {
		t.Fatalf("Begin on nil timer = %d", idx)
	}
	tm.End(idx, "note")
	if r := tm.Report(); len(r.Phases) != 0 {
		t.Fatalf("nil timer report = %+v", r)
	}
}

func TestTimerConcurrentPhases(t *testing.T) {
	tm := NewTimer()
	var wg sync.WaitGroup
	for i := range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			idx := tm.Begin("worker " + strconv.Itoa(i))
			tm.End(idx, "")
		}()
	}
	wg.Wait()
	if got := len(tm.Report().Phases); got != 16 {
		t.Fatalf("expected 16 phases, got %d", got)
	}
}
