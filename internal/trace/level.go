package trace

import (
	"fmt"
	"strings"
)

// Level controls tracing verbosity.
type Level uint8

const (
	LevelOff Level = iota
	LevelError
	LevelPhase
	LevelDetail
	LevelDebug
)

func (l Level) String() string {
	switch l {
	case LevelOff:
		return "off"
	case LevelError:
		return "error"
	case LevelPhase:
		return "phase"
	case LevelDetail:
		return "detail"
	case LevelDebug:
		return "debug"
	default:
		return "unknown"
	}
}

// ParseLevel converts a flag or config value to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "off":
		return LevelOff, nil
	case "error":
		return LevelError, nil
	case "phase":
		return LevelPhase, nil
	case "detail":
		return LevelDetail, nil
	case "debug":
		return LevelDebug, nil
	default:
		return LevelOff, fmt.Errorf("invalid trace level: %q (expected: off|error|phase|detail|debug)", s)
	}
}

// Accepts reports whether an event should be kept at this level.
func (l Level) Accepts(ev *Event) bool {
	switch l {
	case LevelOff:
		return false
	case LevelError:
		return ev.Failed
	case LevelPhase:
		return ev.Failed || ev.Scope <= ScopeProgram
	case LevelDetail:
		return ev.Failed || ev.Scope <= ScopeFunction
	default:
		return true
	}
}

// ShouldEmit reports whether spans of scope are recorded at all. At
// LevelError spans are recorded so that failures can still be reported.
func (l Level) ShouldEmit(scope Scope) bool {
	switch l {
	case LevelOff:
		return false
	case LevelError:
		return true
	case LevelPhase:
		return scope <= ScopeProgram
	case LevelDetail:
		return scope <= ScopeFunction
	default:
		return true
	}
}
