// Package program is the object model for declaring traced programs.
//
// A program class is an ordered table of attributes passed to
// Registry.Register right after it is declared:
//
//	var Counter = program.MustRegister("Counter", []program.Attr{
//		{Name: "count", Value: program.ExportGlobal(0)},
//		{Name: "get", Value: program.Def(getBody, program.Self())},
//	})
//
// Registration classifies every attribute as an exported function, a kernel
// or a global, validates exported signatures and stores an immutable
// ClassInfo. New creates an Instance that, unless ImportOnly is given,
// traces every exported function into an ir.Module.
//
// Registration is a startup phase: the Registry accepts writes until Seal
// and is read-only afterwards. Instances are independent of each other and
// may be created from any goroutine.
package program
