package trace

import "time"

// Kind distinguishes span boundaries from instant events.
type Kind uint8

const (
	KindSpanBegin Kind = iota + 1
	KindSpanEnd
	KindPoint
)

func (k Kind) String() string {
	switch k {
	case KindSpanBegin:
		return "begin"
	case KindSpanEnd:
		return "end"
	case KindPoint:
		return "point"
	default:
		return "unknown"
	}
}

// Scope is the granularity of an event. Lower values are coarser.
type Scope uint8

const (
	ScopeDriver   Scope = iota + 1 // CLI commands
	ScopeRegistry                  // class registration
	ScopeProgram                   // instance construction
	ScopeFunction                  // one exported function trace
	ScopeKernel                    // kernel traces, attribute classification
)

func (s Scope) String() string {
	switch s {
	case ScopeDriver:
		return "driver"
	case ScopeRegistry:
		return "registry"
	case ScopeProgram:
		return "program"
	case ScopeFunction:
		return "function"
	case ScopeKernel:
		return "kernel"
	default:
		return "unknown"
	}
}

// Event is a single trace record.
type Event struct {
	Time     time.Time
	Seq      uint64 // assigned by the tracer that stores the event
	Kind     Kind
	Scope    Scope
	SpanID   uint64
	ParentID uint64 // 0 for root spans
	Name     string // e.g. "register:Counter", "trace:compute_simulated"
	Detail   string
	Failed   bool
	Extra    map[string]string
}
