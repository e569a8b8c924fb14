package ir

import (
	"errors"
	"fmt"

	"fortio.org/safecast"

	"irjax/internal/aval"
	"irjax/internal/tree"
)

// Builder records the ops of one function while it is being traced.
//
// Errors are sticky: the first failure is kept, every later op returns a
// poisoned value, and Finish reports the failure. Kernel code can therefore
// chain ops without checking each one.
type Builder struct {
	module *Module
	fn     *Func
	err    error
	done   bool
}

// NewBuilder starts a function named name. Globals and callees are resolved
// against m.
func NewBuilder(m *Module, name string, private bool) *Builder {
	return &Builder{
		module: m,
		fn:     &Func{Name: name, Private: private},
	}
}

// Name returns the function name.
func (b *Builder) Name() string { return b.fn.Name }

// Err returns the first recorded failure.
func (b *Builder) Err() error { return b.err }

// Fail records err unless an earlier failure is already recorded.
func (b *Builder) Fail(err error) {
	if b.err == nil && err != nil {
		b.err = fmt.Errorf("%s: %w", b.fn.Name, err)
	}
}

// Errorf is Fail with formatting.
func (b *Builder) Errorf(format string, args ...any) {
	b.Fail(fmt.Errorf(format, args...))
}

func (b *Builder) poison() *Value {
	return &Value{b: b, poisoned: true}
}

func (b *Builder) newValue(t aval.ShapedArray) *Value {
	id, err := safecast.Conv[uint32](len(b.fn.types))
	if err != nil {
		b.Fail(fmt.Errorf("too many values: %w", err))
		return b.poison()
	}
	b.fn.types = append(b.fn.types, t)
	return &Value{b: b, id: ValueID(id), typ: t}
}

func (b *Builder) usable() bool {
	if b.done {
		b.Fail(errors.New("function already finished"))
	}
	return b.err == nil
}

func (b *Builder) emit(op Op, result aval.ShapedArray) *Value {
	v := b.newValue(result)
	if v.poisoned {
		return v
	}
	op.Results = []ValueID{v.id}
	b.fn.Ops = append(b.fn.Ops, op)
	return v
}

// Param appends a parameter of type t.
func (b *Builder) Param(t aval.ShapedArray) *Value {
	if !b.usable() {
		return b.poison()
	}
	v := b.newValue(t)
	if !v.poisoned {
		b.fn.Params = append(b.fn.Params, v.id)
	}
	return v
}

// Const materialises a concrete array. The dtype is canonicalised.
func (b *Builder) Const(a aval.Array) *Value {
	if !b.usable() {
		return b.poison()
	}
	c := a.AsType(a.DType().Canonical())
	return b.emit(Op{Kind: OpConst, Const: &c}, c.Aval())
}

// LoadGlobal reads the module global name.
func (b *Builder) LoadGlobal(name string) *Value {
	if !b.usable() {
		return b.poison()
	}
	g := b.module.Global(name)
	if g == nil {
		b.Errorf("unknown global @%s", name)
		return b.poison()
	}
	return b.emit(Op{Kind: OpGlobalLoad, Global: name}, g.Type)
}

// StoreGlobal writes v into the mutable module global name.
func (b *Builder) StoreGlobal(name string, v *Value) {
	if !b.usable() || !b.owns(v) {
		return
	}
	g := b.module.Global(name)
	switch {
	case g == nil:
		b.Errorf("unknown global @%s", name)
	case !g.Mutable:
		b.Errorf("global @%s is immutable", name)
	case !g.Type.Equal(v.typ):
		b.Errorf("cannot store %s into global @%s of type %s", v.typ, name, g.Type)
	default:
		b.fn.Ops = append(b.fn.Ops, Op{Kind: OpGlobalStore, Global: name, Operands: []ValueID{v.id}})
	}
}

// Call invokes callee with args and returns its results.
func (b *Builder) Call(callee *Func, args ...*Value) []*Value {
	if !b.usable() {
		return nil
	}
	if callee == nil {
		b.Errorf("call to nil function")
		return nil
	}
	params := callee.ParamTypes()
	if len(params) != len(args) {
		b.Errorf("@%s expects %d arguments, got %d", callee.Name, len(params), len(args))
		return nil
	}
	operands := make([]ValueID, len(args))
	for i, a := range args {
		if !b.owns(a) {
			return nil
		}
		if !a.typ.Equal(params[i]) {
			b.Errorf("@%s argument %d: expected %s, got %s", callee.Name, i, params[i], a.typ)
			return nil
		}
		operands[i] = a.id
	}
	resultTypes := callee.ResultTypes()
	results := make([]*Value, len(resultTypes))
	ids := make([]ValueID, len(resultTypes))
	for i, t := range resultTypes {
		results[i] = b.newValue(t)
		if results[i].poisoned {
			return nil
		}
		ids[i] = results[i].id
	}
	b.fn.Ops = append(b.fn.Ops, Op{Kind: OpCall, Callee: callee.Name, Operands: operands, Results: ids})
	return results
}

// Finish closes the function with the given results. def describes how the
// results nest in the traced return value and may be nil for a flat list.
func (b *Builder) Finish(results []*Value, def *tree.Def) (*Func, error) {
	if !b.usable() {
		return nil, b.err
	}
	ids := make([]ValueID, len(results))
	for i, r := range results {
		if !b.owns(r) {
			return nil, b.err
		}
		ids[i] = r.id
	}
	b.fn.Results = ids
	b.fn.ResultDef = def
	b.done = true
	return b.fn, nil
}

// owns reports whether v was produced by b, recording an error otherwise.
func (b *Builder) owns(v *Value) bool {
	switch {
	case v == nil:
		b.Errorf("nil value")
		return false
	case v.poisoned:
		b.Errorf("use of a value produced by a failed op")
		return false
	case v.b != b:
		b.Errorf("value %s escaped from function @%s", v, v.b.Name())
		return false
	}
	return true
}

// Lift turns x into a value of this function. Traced values pass through,
// concrete arrays become constants, and Go scalars become constants of dtype
// like (weak typing).
func (b *Builder) Lift(x any, like aval.DType) *Value {
	switch v := x.(type) {
	case *Value:
		if !b.owns(v) {
			return b.poison()
		}
		return v
	case aval.Array:
		return b.Const(v)
	case *aval.Array:
		if v == nil {
			b.Errorf("nil array operand")
			return b.poison()
		}
		return b.Const(*v)
	}
	a, err := aval.Asarray(x)
	if err != nil {
		b.Fail(fmt.Errorf("invalid operand %s: %w", aval.FormatValue(x), err))
		return b.poison()
	}
	if a.Shape().Rank() == 0 && like != aval.Invalid {
		a = a.AsType(like)
	}
	return b.Const(a)
}
