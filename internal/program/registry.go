package program

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"irjax/internal/trace"
)

// Class is a registered program class. Class values are only created by
// Register; Base is the one exception and never has class info.
type Class struct {
	name string
	info *ClassInfo
}

// Base stands for the abstract program base class.
var Base = &Class{name: "Program"}

// Name returns the declared class name.
func (c *Class) Name() string {
	if c == nil {
		return "<nil>"
	}
	return c.name
}

func (c *Class) String() string { return "<class " + c.Name() + ">" }

// ClassInfo is the immutable metadata of a registered class.
type ClassInfo struct {
	className  string
	exportName string
	functions  []*ExportedFunction
	globals    []*GlobalDescriptor
	kernels    []*KernelDescriptor
	byName     map[string]any
}

// ClassName returns the declared class name.
func (ci *ClassInfo) ClassName() string { return ci.className }

// ExportName returns the module name used for export.
func (ci *ClassInfo) ExportName() string { return ci.exportName }

// Functions returns the exported functions in declaration order.
func (ci *ClassInfo) Functions() []*ExportedFunction {
	return append([]*ExportedFunction(nil), ci.functions...)
}

// Globals returns the globals in declaration order.
func (ci *ClassInfo) Globals() []*GlobalDescriptor {
	return append([]*GlobalDescriptor(nil), ci.globals...)
}

// Kernels returns the kernels in declaration order.
func (ci *ClassInfo) Kernels() []*KernelDescriptor {
	return append([]*KernelDescriptor(nil), ci.kernels...)
}

// Function looks up an exported function by name.
func (ci *ClassInfo) Function(name string) (*ExportedFunction, bool) {
	f, ok := ci.byName[name].(*ExportedFunction)
	return f, ok
}

// Global looks up a global by attribute name.
func (ci *ClassInfo) Global(name string) (*GlobalDescriptor, bool) {
	g, ok := ci.byName[name].(*GlobalDescriptor)
	return g, ok
}

// Kernel looks up a kernel by name.
func (ci *ClassInfo) Kernel(name string) (*KernelDescriptor, bool) {
	k, ok := ci.byName[name].(*KernelDescriptor)
	return k, ok
}

// Signature renders every descriptor, one per line. Two classes with the
// same signature trace to the same module.
func (ci *ClassInfo) Signature() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "program %s\n", ci.exportName)
	for _, g := range ci.globals {
		sb.WriteString(g.String())
		sb.WriteByte('\n')
	}
	for _, k := range ci.kernels {
		sb.WriteString(k.String())
		sb.WriteByte('\n')
	}
	for _, f := range ci.functions {
		sb.WriteString(f.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// ClassOption configures Register.
type ClassOption func(*classOptions)

type classOptions struct {
	exportName string
}

// WithExportName overrides the derived export name. The name is used
// verbatim.
func WithExportName(name string) ClassOption {
	return func(o *classOptions) { o.exportName = name }
}

// Registry maps program classes to their ClassInfo.
//
// Writes happen during startup, typically from package-level MustRegister
// calls; after Seal every call is a read. The mutex makes accidental
// concurrent registration safe but does not order it.
type Registry struct {
	mu      sync.RWMutex
	sealed  bool
	classes map[string]*Class
	order   []*Class
	tracer  trace.Tracer
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{classes: make(map[string]*Class), tracer: trace.Nop}
}

// Default is the process-wide registry used by the package-level helpers.
var Default = NewRegistry()

// SetTracer directs registration events to t.
func (r *Registry) SetTracer(t trace.Tracer) {
	if t == nil {
		t = trace.Nop
	}
	r.mu.Lock()
	r.tracer = t
	r.mu.Unlock()
}

// Register classifies and validates attrs and stores the resulting
// ClassInfo. Any error leaves the registry unchanged.
func (r *Registry) Register(name string, attrs []Attr, opts ...ClassOption) (*Class, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ctx, span := trace.Start(trace.WithTracer(context.Background(), r.tracer), trace.ScopeRegistry, "register:"+name)
	cls, err := r.register(ctx, name, attrs, opts)
	if err != nil {
		span.Fail(err)
	}
	span.End("")
	return cls, err
}

func (r *Registry) register(ctx context.Context, name string, attrs []Attr, opts []ClassOption) (*Class, error) {
	if name == "" {
		return nil, newError(ConfigurationError, "", "", "program class name must not be empty")
	}
	if r.sealed {
		return nil, newError(ConfigurationError, name, "", fmt.Sprintf("registry is sealed; cannot register program '%s'", name))
	}
	if _, dup := r.classes[name]; dup {
		return nil, newError(ConfigurationError, name, "", fmt.Sprintf("program '%s' is already registered", name))
	}
	var o classOptions
	for _, opt := range opts {
		opt(&o)
	}

	info, err := buildClassInfo(ctx, name, attrs)
	if err != nil {
		return nil, err
	}
	info.exportName = o.exportName
	if info.exportName == "" {
		info.exportName = ExportName(name)
	}

	cls := &Class{name: name, info: info}
	r.classes[name] = cls
	r.order = append(r.order, cls)
	return cls, nil
}

func buildClassInfo(ctx context.Context, name string, attrs []Attr) (*ClassInfo, error) {
	classified, err := Classify(name, attrs)
	if err != nil {
		return nil, err
	}
	info := &ClassInfo{className: name, byName: make(map[string]any, len(classified))}
	tr := trace.FromContext(ctx)
	parent := trace.CurrentSpan(ctx)
	for _, c := range classified {
		trace.Point(tr, trace.ScopeKernel, "classify:"+c.Name, c.Class.String(), parent)
		switch c.Class {
		case AttrExport:
			ef, err := ValidateSignature(c.Name, c.Value.(*Function))
			if err != nil {
				if e, ok := err.(*Error); ok {
					e.Class = name
				}
				return nil, err
			}
			info.functions = append(info.functions, ef)
			info.byName[c.Name] = ef
		case AttrKernel:
			kd := &KernelDescriptor{name: c.Name, body: c.Value.(*KernelFunc).body}
			info.kernels = append(info.kernels, kd)
			info.byName[c.Name] = kd
		case AttrGlobal:
			g, err := newGlobal(name, c.Name, c.Value)
			if err != nil {
				return nil, err
			}
			info.globals = append(info.globals, g)
			info.byName[c.Name] = g
		}
	}
	return info, nil
}

// MustRegister is Register for package-level declarations; it panics on
// error.
func (r *Registry) MustRegister(name string, attrs []Attr, opts ...ClassOption) *Class {
	cls, err := r.Register(name, attrs, opts...)
	if err != nil {
		panic(fmt.Sprintf("program: register %s: %v", name, err))
	}
	return cls
}

// Seal ends the registration phase.
func (r *Registry) Seal() {
	r.mu.Lock()
	r.sealed = true
	r.mu.Unlock()
}

// Sealed reports whether Seal was called.
func (r *Registry) Sealed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sealed
}

// Lookup finds a registered class by its declared name or export name.
func (r *Registry) Lookup(name string) (*Class, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if cls, ok := r.classes[name]; ok {
		return cls, true
	}
	for _, cls := range r.order {
		if cls.info.exportName == name {
			return cls, true
		}
	}
	return nil, false
}

// Classes returns the registered classes in registration order.
func (r *Registry) Classes() []*Class {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*Class(nil), r.order...)
}

// GetClassInfo returns the class info of cls if cls is registered here.
func (r *Registry) GetClassInfo(cls *Class) (*ClassInfo, error) {
	r.mu.RLock()
	registered := cls != nil && r.classes[cls.name] == cls
	r.mu.RUnlock()
	if !registered {
		return nil, notFound(cls)
	}
	return cls.info, nil
}

// Register registers a class with the Default registry.
func Register(name string, attrs []Attr, opts ...ClassOption) (*Class, error) {
	return Default.Register(name, attrs, opts...)
}

// MustRegister registers a class with the Default registry and panics on
// error.
func MustRegister(name string, attrs []Attr, opts ...ClassOption) *Class {
	return Default.MustRegister(name, attrs, opts...)
}

// GetClassInfo returns the class info of a registered class. Base, nil and
// classes whose registration failed have none.
func GetClassInfo(cls *Class) (*ClassInfo, error) {
	if cls == nil || cls.info == nil {
		return nil, notFound(cls)
	}
	return cls.info, nil
}

func notFound(cls *Class) error {
	return newError(LookupError, cls.Name(), "", fmt.Sprintf("no class info for program '%s'", cls.Name()))
}

var reservedNames = []string{
	"export_global",
	"get_class_info",
	"get_info",
	"get_mlir_module",
	"kernel",
	"like",
	"new",
	"store_global",
}

// ReservedNames returns the program member names that user attributes may
// only reuse as exported functions.
func ReservedNames() []string {
	out := append([]string(nil), reservedNames...)
	sort.Strings(out)
	return out
}

func isReserved(name string) bool {
	for _, n := range reservedNames {
		if n == name {
			return true
		}
	}
	return false
}
