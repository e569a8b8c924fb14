package trace

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestLevelFiltering(t *testing.T) {
	cases := []struct {
		level Level
		ev    Event
		want  bool
	}{
		{LevelOff, Event{Scope: ScopeDriver, Failed: true}, false},
		{LevelError, Event{Scope: ScopeKernel}, false},
		{LevelError, Event{Scope: ScopeKernel, Failed: true}, true},
		{LevelPhase, Event{Scope: ScopeProgram}, true},
		{LevelPhase, Event{Scope: ScopeFunction}, false},
		{LevelDetail, Event{Scope: ScopeFunction}, true},
		{LevelDetail, Event{Scope: ScopeKernel}, false},
		{LevelDebug, Event{Scope: ScopeKernel}, true},
	}
	for _, tc := range cases {
		if got := tc.level.Accepts(&tc.ev); got != tc.want {
			t.Errorf("%s.Accepts(%s, failed=%v) = %v, want %v", tc.level, tc.ev.Scope, tc.ev.Failed, got, tc.want)
		}
	}
}

func TestParseLevelAndMode(t *testing.T) {
	if l, err := ParseLevel("Detail"); err != nil || l != LevelDetail {
		t.Fatalf("ParseLevel = %v, %v", l, err)
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
	if m, err := ParseMode("both"); err != nil || m != ModeBoth {
		t.Fatalf("ParseMode = %v, %v", m, err)
	}
	if f, err := ParseFormat("json"); err != nil || f != FormatNDJSON {
		t.Fatalf("ParseFormat = %v, %v", f, err)
	}
}

func TestStreamTextSpans(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelDebug, FormatText)
	ctx := WithTracer(context.Background(), tr)

	ctx, outer := Start(ctx, ScopeProgram, "new:counter")
	_, inner := Start(ctx, ScopeFunction, "trace:get")
	inner.WithExtra("results", "1").End("")
	outer.End("ok")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d:\n%s", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], "[program] → new:counter") {
		t.Fatalf("unexpected first line %q", lines[0])
	}
	if !strings.Contains(lines[2], "← trace:get") || !strings.Contains(lines[2], "results=1") {
		t.Fatalf("unexpected inner end %q", lines[2])
	}
	if !strings.Contains(lines[3], "(ok)") {
		t.Fatalf("detail missing from %q", lines[3])
	}
}

func TestErrorLevelKeepsOnlyFailures(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelError, FormatNDJSON)

	Begin(tr, ScopeRegistry, "register:ok", 0).End("")
	Begin(tr, ScopeRegistry, "register:bad", 0).Fail(errors.New("boom")).End("")

	out := strings.TrimSpace(buf.String())
	if strings.Count(out, "\n") != 0 {
		t.Fatalf("expected a single event, got:\n%s", out)
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(out), &rec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if rec["name"] != "register:bad" || rec["failed"] != true {
		t.Fatalf("unexpected record %v", rec)
	}
	extra, _ := rec["extra"].(map[string]any)
	if extra["error"] != "boom" {
		t.Fatalf("error extra = %v", extra["error"])
	}
}

func TestRingWrapsInOrder(t *testing.T) {
	r := NewRingTracer(3, LevelDebug)
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		Point(r, ScopeKernel, name, "", 0)
	}
	snap := r.Snapshot()
	if len(snap) != 3 {
		t.Fatalf("expected 3 events, got %d", len(snap))
	}
	for i, want := range []string{"c", "d", "e"} {
		if snap[i].Name != want {
			t.Fatalf("event %d = %s, want %s", i, snap[i].Name, want)
		}
	}
}

func TestNewOffIsNop(t *testing.T) {
	tr, err := New(Config{Level: LevelOff})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if tr.Enabled() {
		t.Fatalf("expected disabled tracer")
	}
	if FromContext(context.Background()) != Nop {
		t.Fatalf("expected Nop from empty context")
	}
}

func TestMultiFansOut(t *testing.T) {
	var buf bytes.Buffer
	tr, err := New(Config{Level: LevelPhase, Mode: ModeBoth, Output: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	Point(tr, ScopeDriver, "dump", "counter", 0)
	m, ok := tr.(*MultiTracer)
	if !ok {
		t.Fatalf("expected *MultiTracer, got %T", tr)
	}
	if n := len(m.Ring().Snapshot()); n != 1 {
		t.Fatalf("ring has %d events", n)
	}
	if !strings.Contains(buf.String(), "• dump (counter)") {
		t.Fatalf("stream output %q", buf.String())
	}
}
