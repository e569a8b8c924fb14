package program

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"irjax/internal/aval"
	"irjax/internal/ir"
	"irjax/internal/trace"
	"irjax/internal/tree"
)

// session traces the exported functions of one class into one module.
type session struct {
	info      *ClassInfo
	module    *ir.Module
	traceArgs map[string][]any

	exports  map[string]*ir.Func
	inputs   map[string]*tree.Def
	active   map[string]bool
	kernels  map[string]*ir.Func // keyed by name and argument signature
	variants map[string]int
	used     map[string]bool // function names taken in the module
}

func newSession(info *ClassInfo, traceArgs map[string][]any) (*session, error) {
	m := ir.NewModule(info.exportName)
	for _, g := range info.globals {
		for _, ig := range g.IRGlobals() {
			if err := m.AddGlobal(ig); err != nil {
				return nil, wrapError(TraceError, info.className, g.name, "declare global", err)
			}
		}
	}
	used := make(map[string]bool, len(info.functions)+len(info.kernels))
	for _, f := range info.functions {
		used[f.name] = true
	}
	for _, k := range info.kernels {
		used[k.name] = true
	}
	return &session{
		used:      used,
		info:      info,
		module:    m,
		traceArgs: traceArgs,
		exports:   make(map[string]*ir.Func),
		inputs:    make(map[string]*tree.Def),
		active:    make(map[string]bool),
		kernels:   make(map[string]*ir.Func),
		variants:  make(map[string]int),
	}, nil
}

func (s *session) traceExport(ctx context.Context, ef *ExportedFunction) (*ir.Func, error) {
	if fn, ok := s.exports[ef.name]; ok {
		return fn, nil
	}
	if s.active[ef.name] {
		return nil, newError(TraceError, s.info.className, ef.name,
			fmt.Sprintf("export function '%s' calls itself", ef.name))
	}
	s.active[ef.name] = true
	defer delete(s.active, ef.name)

	ctx, span := trace.Start(ctx, trace.ScopeFunction, "trace:"+ef.name)
	fn, err := s.buildExport(ctx, ef)
	if err != nil {
		span.Fail(err)
	} else {
		span.WithExtra("ops", strconv.Itoa(len(fn.Ops)))
	}
	span.End("")
	return fn, err
}

func (s *session) buildExport(ctx context.Context, ef *ExportedFunction) (*ir.Func, error) {
	inputs, err := s.inputAvals(ef)
	if err != nil {
		return nil, err
	}
	b := ir.NewBuilder(s.module, ef.name, false)
	args := make(Args, len(inputs))
	for i, in := range inputs {
		args[i], err = tree.MapLeaves(in, func(_ tree.Path, v any) (any, error) {
			return b.Param(v.(aval.ShapedArray)), nil
		})
		if err != nil {
			return nil, wrapError(TraceError, s.info.className, ef.name, "bind arguments", err)
		}
	}
	_, inDef := tree.Flatten(tree.Seq(inputs))
	s.inputs[ef.name] = inDef

	var out any
	if ef.body != nil {
		scope := &Scope{s: s, ctx: ctx, b: b}
		out, err = runBody(func() (any, error) { return ef.body(scope, args) })
		if err != nil {
			return nil, wrapError(TraceError, s.info.className, ef.name,
				fmt.Sprintf("trace export function '%s'", ef.name), err)
		}
	}
	fn, err := finish(b, out)
	if err != nil {
		return nil, wrapError(TraceError, s.info.className, ef.name,
			fmt.Sprintf("trace export function '%s'", ef.name), err)
	}
	if err := s.module.AddFunc(fn); err != nil {
		return nil, wrapError(TraceError, s.info.className, ef.name, "add function", err)
	}
	s.exports[ef.name] = fn
	return fn, nil
}

// inputAvals picks the abstract input of every parameter: a trace argument
// when one was given, the declared default otherwise.
func (s *session) inputAvals(ef *ExportedFunction) ([]tree.Node, error) {
	given := s.traceArgs[ef.name]
	if len(given) > len(ef.params) {
		return nil, newError(TraceError, s.info.className, ef.name,
			fmt.Sprintf("export function '%s' takes %d arguments, got %d", ef.name, len(ef.params), len(given)))
	}
	inputs := make([]tree.Node, len(ef.params))
	for i, p := range ef.params {
		switch {
		case i < len(given):
			a, err := aval.Like(given[i]).Abstract()
			if err != nil {
				return nil, wrapError(TraceError, s.info.className, ef.name,
					fmt.Sprintf("argument '%s' of export function '%s'", p.Name, ef.name), err)
			}
			inputs[i] = a
		case ef.avals[i] != nil:
			inputs[i] = ef.avals[i]
		default:
			return nil, newError(TraceError, s.info.className, ef.name,
				fmt.Sprintf("export function '%s' parameter '%s' has no default and no trace argument", ef.name, p.Name))
		}
	}
	return inputs, nil
}

func (s *session) traceKernel(ctx context.Context, kd *KernelDescriptor, def *tree.Def, operands []*ir.Value) (*ir.Func, error) {
	types := make([]string, len(operands))
	for i, v := range operands {
		types[i] = ir.TypeString(v.Type())
	}
	key := kd.name + def.String() + "(" + strings.Join(types, ", ") + ")"
	if fn, ok := s.kernels[key]; ok {
		return fn, nil
	}
	name := s.variantName(kd.name)

	_, span := trace.Start(ctx, trace.ScopeKernel, "kernel:"+name)
	fn, err := s.buildKernel(name, kd, def, operands)
	if err != nil {
		span.Fail(err)
		span.End("")
		return nil, wrapError(TraceError, s.info.className, kd.name, fmt.Sprintf("trace kernel '%s'", kd.name), err)
	}
	span.WithExtra("ops", strconv.Itoa(len(fn.Ops))).End(strings.Join(types, ", "))
	s.used[name] = true
	s.kernels[key] = fn
	return fn, nil
}

// variantName returns the function name of the next traced signature of
// kernel name: name itself first, then name_1, name_2 and so on, skipping
// names the class already uses.
func (s *session) variantName(name string) string {
	n := s.variants[name]
	if n == 0 {
		s.variants[name] = 1
		return name
	}
	for {
		candidate := fmt.Sprintf("%s_%d", name, n)
		n++
		if !s.used[candidate] {
			s.variants[name] = n
			return candidate
		}
	}
}

func (s *session) buildKernel(name string, kd *KernelDescriptor, def *tree.Def, operands []*ir.Value) (*ir.Func, error) {
	b := ir.NewBuilder(s.module, name, true)
	params := make([]any, len(operands))
	for i, v := range operands {
		params[i] = b.Param(v.Type())
	}
	n, err := tree.Unflatten(def, params)
	if err != nil {
		return nil, err
	}
	seq, _ := n.(tree.Seq)
	out, err := runBody(func() (any, error) { return kd.body(Args(seq)) })
	if err != nil {
		return nil, err
	}
	fn, err := finish(b, out)
	if err != nil {
		return nil, err
	}
	if err := s.module.AddFunc(fn); err != nil {
		return nil, err
	}
	return fn, nil
}

// runBody calls fn and turns a panic into an error. Misuse inside a body,
// such as an op on two constants, panics.
func runBody(fn func() (any, error)) (out any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}

// finish flattens a body result and closes the function.
func finish(b *ir.Builder, out any) (*ir.Func, error) {
	leaves, def := tree.Flatten(valueTree(out))
	results := make([]*ir.Value, len(leaves))
	for i, l := range leaves {
		results[i] = b.Lift(l, aval.Invalid)
	}
	return b.Finish(results, def)
}

func unflattenValues(def *tree.Def, vals []*ir.Value) (tree.Node, error) {
	leaves := make([]any, len(vals))
	for i, v := range vals {
		leaves[i] = v
	}
	return tree.Unflatten(def, leaves)
}
