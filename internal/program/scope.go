package program

import (
	"context"
	"fmt"

	"irjax/internal/aval"
	"irjax/internal/ir"
	"irjax/internal/tree"
)

// Scope is the program as seen from inside an exported function body.
// Failures are recorded on the function being traced, so a body may ignore
// the returned errors and still fail the trace.
type Scope struct {
	s   *session
	ctx context.Context
	b   *ir.Builder
}

// Builder returns the builder of the function being traced.
func (sc *Scope) Builder() *ir.Builder { return sc.b }

// Const materialises a concrete value.
func (sc *Scope) Const(v any) *ir.Value { return sc.b.Lift(v, aval.Invalid) }

func (sc *Scope) fail(err error) error {
	sc.b.Fail(err)
	return err
}

// Global loads every leaf of the named global and returns them in the
// global's tree structure.
func (sc *Scope) Global(name string) tree.Node {
	g, ok := sc.s.info.Global(name)
	if !ok {
		sc.fail(newError(TraceError, sc.s.info.className, name, fmt.Sprintf("program has no global '%s'", name)))
		return tree.Nil
	}
	names := g.LeafNames()
	vals := make([]any, len(names))
	for i, n := range names {
		vals[i] = sc.b.LoadGlobal(n)
	}
	node, err := tree.Unflatten(g.def, vals)
	if err != nil {
		sc.fail(err)
		return tree.Nil
	}
	return node
}

// StoreGlobal writes value into the named mutable global. value must have
// the global's tree structure; scalars are broadcast to the leaf shape.
func (sc *Scope) StoreGlobal(name string, value any) error {
	g, ok := sc.s.info.Global(name)
	if !ok {
		return sc.fail(newError(TraceError, sc.s.info.className, name, fmt.Sprintf("program has no global '%s'", name)))
	}
	if !g.mutable {
		return sc.fail(newError(TraceError, sc.s.info.className, name, fmt.Sprintf("global '%s' is immutable", name)))
	}
	leaves, def := tree.Flatten(valueTree(value))
	if !def.Equal(g.def) {
		return sc.fail(newError(TraceError, sc.s.info.className, name,
			fmt.Sprintf("cannot store %s into global '%s' of structure %s", def, name, g.def)))
	}
	for i, l := range leaves {
		leaf := g.leaves[i]
		v := sc.b.Lift(l, leaf.typ.DType).BroadcastTo(leaf.typ.Shape)
		sc.b.StoreGlobal(leaf.name, v)
	}
	return sc.b.Err()
}

// Kernel traces the named kernel for the given arguments, once per distinct
// argument signature, and calls it.
func (sc *Scope) Kernel(name string, args ...any) (tree.Node, error) {
	kd, ok := sc.s.info.Kernel(name)
	if !ok {
		return nil, sc.fail(newError(TraceError, sc.s.info.className, name, fmt.Sprintf("program has no kernel '%s'", name)))
	}
	operands, def, err := sc.operands(args, nil)
	if err != nil {
		return nil, err
	}
	fn, err := sc.s.traceKernel(sc.ctx, kd, def, operands)
	if err != nil {
		return nil, sc.fail(err)
	}
	return sc.call(fn, operands)
}

// Call calls another exported function of the program, tracing it first if
// needed.
func (sc *Scope) Call(name string, args ...any) (tree.Node, error) {
	ef, ok := sc.s.info.Function(name)
	if !ok {
		return nil, sc.fail(newError(TraceError, sc.s.info.className, name, fmt.Sprintf("program has no export function '%s'", name)))
	}
	fn, err := sc.s.traceExport(sc.ctx, ef)
	if err != nil {
		return nil, sc.fail(err)
	}
	operands, def, err := sc.operands(args, fn.ParamTypes())
	if err != nil {
		return nil, err
	}
	if want := sc.s.inputs[name]; !def.Equal(want) {
		return nil, sc.fail(newError(TraceError, sc.s.info.className, name,
			fmt.Sprintf("export function '%s' expects arguments %s, got %s", name, want, def)))
	}
	return sc.call(fn, operands)
}

// operands flattens args and lifts every leaf into the current function.
// like supplies the dtype of weakly typed scalars per leaf, if known.
func (sc *Scope) operands(args []any, like []aval.ShapedArray) ([]*ir.Value, *tree.Def, error) {
	in := make(tree.Seq, len(args))
	for i, a := range args {
		in[i] = valueTree(a)
	}
	leaves, def := tree.Flatten(in)
	operands := make([]*ir.Value, len(leaves))
	for i, l := range leaves {
		dt := aval.Invalid
		if i < len(like) {
			dt = like[i].DType
		}
		operands[i] = sc.b.Lift(l, dt)
	}
	if err := sc.b.Err(); err != nil {
		return nil, nil, err
	}
	return operands, def, nil
}

func (sc *Scope) call(fn *ir.Func, operands []*ir.Value) (tree.Node, error) {
	results := sc.b.Call(fn, operands...)
	if err := sc.b.Err(); err != nil {
		return nil, err
	}
	n, err := unflattenValues(fn.ResultDef, results)
	if err != nil {
		return nil, sc.fail(err)
	}
	return n, nil
}
