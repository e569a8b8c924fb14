// Package observ records how long the steps of a CLI command take.
package observ

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Phase is one timed step, such as tracing a program or reading the cache.
type Phase struct {
	Name  string
	Start time.Time
	Dur   time.Duration
	Note  string
	done  bool
}

// Timer collects phases from any number of goroutines. A nil *Timer
// ignores every call, so callers can leave timing switched off.
type Timer struct {
	mu     sync.Mutex
	phases []Phase
}

// NewTimer returns an empty Timer.
func NewTimer() *Timer { return &Timer{phases: make([]Phase, 0, 8)} }

// Begin starts a phase and returns its handle for End. A nil Timer
// returns -1.
func (t *Timer) Begin(name string) int {
	if t == nil {
		return -1
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.phases = append(t.phases, Phase{Name: name, Start: time.Now()})
	return len(t.phases) - 1
}

// End closes the phase idx. Unknown handles and phases that already ended
// are ignored.
func (t *Timer) End(idx int, note string) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if idx < 0 || idx >= len(t.phases) || t.phases[idx].done {
		return
	}
	p := &t.phases[idx]
	p.Dur = time.Since(p.Start)
	p.Note = note
	p.done = true
}

// PhaseReport is the serialisable form of a Phase.
type PhaseReport struct {
	Name       string  `json:"name"`
	DurationMS float64 `json:"duration_ms"`
	Note       string  `json:"note,omitempty"`
}

// Report aggregates the finished phases. TotalMS sums the phase durations;
// WallMS spans from the first start to the last end, which is smaller when
// phases overlap.
type Report struct {
	TotalMS float64       `json:"total_ms"`
	WallMS  float64       `json:"wall_ms"`
	Phases  []PhaseReport `json:"phases"`
}

// Report snapshots the finished phases in the order they began.
func (t *Timer) Report() Report {
	if t == nil {
		return Report{}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	var (
		report      Report
		total       time.Duration
		first, last time.Time
	)
	for _, p := range t.phases {
		if !p.done {
			continue
		}
		total += p.Dur
		if first.IsZero() || p.Start.Before(first) {
			first = p.Start
		}
		if end := p.Start.Add(p.Dur); end.After(last) {
			last = end
		}
		report.Phases = append(report.Phases, PhaseReport{
			Name:       p.Name,
			DurationMS: toMillis(p.Dur),
			Note:       p.Note,
		})
	}
	report.TotalMS = toMillis(total)
	if !first.IsZero() {
		report.WallMS = toMillis(last.Sub(first))
	}
	return report
}

// Summary renders the report as an aligned table for stderr.
func (t *Timer) Summary() string {
	report := t.Report()
	var sb strings.Builder
	sb.WriteString("timings:\n")
	for _, p := range report.Phases {
		fmt.Fprintf(&sb, "  %-28s %8.2f ms", p.Name, p.DurationMS)
		if p.Note != "" {
			sb.WriteString("  // " + p.Note)
		}
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "  %-28s %8.2f ms\n", "total", report.TotalMS)
	fmt.Fprintf(&sb, "  %-28s %8.2f ms\n", "wall", report.WallMS)
	return sb.String()
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
