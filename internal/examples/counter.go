package examples

import (
	"irjax/internal/program"
)

// Counter keeps a mutable count and an immutable step.
var Counter = program.MustRegister("Counter", []program.Attr{
	{Name: "count", Value: program.ExportGlobal(0)},
	{Name: "step", Value: program.ExportGlobal(1, program.Mutable(false))},
	{Name: "get_count", Value: program.Def(getCount, program.Self())},
	{Name: "increment", Value: program.Def(increment, program.Self())},
	{Name: "add", Value: program.Def(add, program.Self(), program.Positional("delta", program.Like(0)))},
	{Name: "reset", Value: program.Def(reset, program.Self())},
	{Name: "snapshot", Value: program.Def(snapshot, program.Self())},
	{Name: "_clamp", Value: program.Kernel(clampCount)},
})

func getCount(s *program.Scope, _ program.Args) (any, error) {
	return s.Global("count"), nil
}

func increment(s *program.Scope, _ program.Args) (any, error) {
	return s.Call("add", program.ValueOf(s.Global("step")))
}

func add(s *program.Scope, args program.Args) (any, error) {
	next := program.ValueOf(s.Global("count")).Add(args.Value(0))
	clamped, err := s.Kernel("_clamp", next)
	if err != nil {
		return nil, err
	}
	return clamped, s.StoreGlobal("count", clamped)
}

func reset(s *program.Scope, _ program.Args) (any, error) {
	return nil, s.StoreGlobal("count", 0)
}

func snapshot(s *program.Scope, _ program.Args) (any, error) {
	return map[string]any{
		"count": s.Global("count"),
		"step":  s.Global("step"),
	}, nil
}

func clampCount(args program.Args) (any, error) {
	return args.Value(0).Clamp(0, 1<<20), nil
}
