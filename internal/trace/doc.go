// Package trace is the structured event log of irjax.
//
// Registration, instantiation and tracing of programs report what they do
// as spans and point events. A Tracer decides what to keep based on its
// Level and writes events as text or NDJSON.
//
// # Levels
//
//   - LevelOff: nothing is recorded
//   - LevelError: only failed spans
//   - LevelPhase: CLI commands, class registration and instantiation
//   - LevelDetail: plus one span per exported function trace
//   - LevelDebug: plus kernel traces and attribute classification
//
// # Context propagation
//
// The active tracer travels in a context.Context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	ctx, span := trace.Start(ctx, trace.ScopeProgram, "new:counter")
//	defer span.End("")
//
// Spans started from a context are parented to the span it carries.
package trace
