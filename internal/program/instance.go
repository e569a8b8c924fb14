package program

import (
	"context"
	"fmt"

	"irjax/internal/ir"
	"irjax/internal/trace"
)

// InstanceInfo is the per-instance layer over the shared ClassInfo.
type InstanceInfo struct {
	ClassInfo  *ClassInfo
	ImportOnly bool
	Module     *ir.Module // nil when import-only
}

// Instance is a constructed program.
type Instance struct {
	cls  *Class
	info *InstanceInfo
}

// Option configures New.
type Option func(*options)

type options struct {
	importOnly bool
	forceTrace bool
	traceArgs  map[string][]any
}

// ImportOnly skips tracing: the instance only exposes metadata.
func ImportOnly() Option {
	return func(o *options) { o.importOnly = true }
}

// WithTraceArgs supplies trace inputs for the exported function fn, one per
// parameter after self. Arguments may be concrete values, Like descriptors
// or aval.ShapedArray values; missing trailing ones fall back to defaults.
func WithTraceArgs(fn string, args ...any) Option {
	return func(o *options) {
		if o.traceArgs == nil {
			o.traceArgs = make(map[string][]any)
		}
		o.traceArgs[fn] = args
	}
}

// New constructs an instance of cls. Unless ImportOnly is given every
// exported function is traced, in declaration order, into a fresh module.
func New(ctx context.Context, cls *Class, opts ...Option) (*Instance, error) {
	info, err := GetClassInfo(cls)
	if err != nil {
		return nil, err
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.forceTrace {
		o.importOnly = false
	}

	ctx, span := trace.Start(ctx, trace.ScopeProgram, "new:"+info.exportName)
	inst, err := newInstance(ctx, cls, info, &o)
	if err != nil {
		span.Fail(err)
	}
	detail := "traced"
	if o.importOnly {
		detail = "import-only"
	}
	span.End(detail)
	return inst, err
}

func newInstance(ctx context.Context, cls *Class, info *ClassInfo, o *options) (*Instance, error) {
	inst := &Instance{cls: cls, info: &InstanceInfo{ClassInfo: info, ImportOnly: o.importOnly}}
	if o.importOnly {
		return inst, nil
	}
	for name := range o.traceArgs {
		if _, ok := info.Function(name); !ok {
			return nil, newError(TraceError, info.className, name,
				fmt.Sprintf("trace arguments given for unknown export function '%s'", name))
		}
	}
	s, err := newSession(info, o.traceArgs)
	if err != nil {
		return nil, err
	}
	for _, ef := range info.functions {
		if _, err := s.traceExport(ctx, ef); err != nil {
			return nil, err
		}
	}
	if err := ir.Validate(s.module); err != nil {
		return nil, wrapError(TraceError, info.className, "", fmt.Sprintf("module @%s is invalid", s.module.Name), err)
	}
	inst.info.Module = s.module
	return inst, nil
}

// Lower traces every exported function of cls and returns the module.
// ImportOnly is ignored.
func Lower(ctx context.Context, cls *Class, opts ...Option) (*ir.Module, error) {
	opts = append(opts, func(o *options) { o.forceTrace = true })
	inst, err := New(ctx, cls, opts...)
	if err != nil {
		return nil, err
	}
	return inst.info.Module, nil
}

// GetInfo returns the per-instance info of inst.
func GetInfo(inst *Instance) *InstanceInfo {
	if inst == nil {
		return nil
	}
	return inst.info
}

// Class returns the class inst was created from.
func (i *Instance) Class() *Class { return i.cls }

// Module returns the traced module, nil for import-only instances.
func (i *Instance) Module() *ir.Module { return i.info.Module }

// Attr resolves an externally visible attribute: an exported function as a
// *BoundMethod or a global as its *GlobalDescriptor. Kernels, reserved
// program members that were not redefined, and unknown names fail with
// AttributeError.
func (i *Instance) Attr(name string) (any, error) {
	ci := i.info.ClassInfo
	if f, ok := ci.Function(name); ok {
		return &BoundMethod{inst: i, fn: f}, nil
	}
	if g, ok := ci.Global(name); ok {
		return g, nil
	}
	if isReserved(name) {
		return nil, newError(AttributeError, ci.className, name,
			fmt.Sprintf("program member '%s' is not accessible on '%s' instances", name, ci.className))
	}
	return nil, newError(AttributeError, ci.className, name,
		fmt.Sprintf("'%s' object has no attribute '%s'", ci.className, name))
}

// Method resolves an exported function.
func (i *Instance) Method(name string) (*BoundMethod, error) {
	a, err := i.Attr(name)
	if err != nil {
		return nil, err
	}
	m, ok := a.(*BoundMethod)
	if !ok {
		return nil, newError(AttributeError, i.info.ClassInfo.className, name,
			fmt.Sprintf("'%s' is not an export function", name))
	}
	return m, nil
}

// BoundMethod is an exported function bound to an instance.
type BoundMethod struct {
	inst *Instance
	fn   *ExportedFunction
}

// Name returns the function name.
func (m *BoundMethod) Name() string { return m.fn.name }

// Function returns the validated descriptor.
func (m *BoundMethod) Function() *ExportedFunction { return m.fn }

func (m *BoundMethod) String() string {
	return fmt.Sprintf("<bound def %s of %s>", m.fn.name, m.inst.info.ClassInfo.className)
}

// Trace traces this function alone, with args overriding the declared
// defaults, and returns a module holding it together with the program
// globals and the kernels it calls.
func (m *BoundMethod) Trace(ctx context.Context, args ...any) (*ir.Module, error) {
	info := m.inst.info.ClassInfo
	var traceArgs map[string][]any
	if len(args) > 0 {
		traceArgs = map[string][]any{m.fn.name: args}
	}
	s, err := newSession(info, traceArgs)
	if err != nil {
		return nil, err
	}
	if _, err := s.traceExport(ctx, m.fn); err != nil {
		return nil, err
	}
	if err := ir.Validate(s.module); err != nil {
		return nil, wrapError(TraceError, info.className, m.fn.name, fmt.Sprintf("module @%s is invalid", s.module.Name), err)
	}
	return s.module, nil
}
