package program

import (
	"context"
	"errors"
	"strings"
	"testing"

	"irjax/internal/aval"
	"irjax/internal/ir"
	"irjax/internal/tree"
)

func TestBaseClassOmitsInfo(t *testing.T) {
	for _, cls := range []*Class{Base, nil} {
		_, err := GetClassInfo(cls)
		if !errors.Is(err, ErrClassInfoNotFound) {
			t.Fatalf("GetClassInfo(%s) = %v, want ErrClassInfoNotFound", cls, err)
		}
		var perr *Error
		if !errors.As(err, &perr) || perr.Kind != LookupError {
			t.Fatalf("expected LookupError, got %#v", err)
		}
	}
	if _, err := NewRegistry().GetClassInfo(Base); !errors.Is(err, ErrClassInfoNotFound) {
		t.Fatalf("registry lookup of Base = %v", err)
	}
}

func TestInfo(t *testing.T) {
	r := NewRegistry()
	cls := r.MustRegister("MySubclass", nil)

	ci, err := GetClassInfo(cls)
	if err != nil {
		t.Fatalf("GetClassInfo: %v", err)
	}
	if ci.ExportName() != "my_subclass" {
		t.Fatalf("export name = %q", ci.ExportName())
	}
	again, err := r.GetClassInfo(cls)
	if err != nil || again != ci {
		t.Fatalf("class info is not identity-stable: %p vs %p (%v)", again, ci, err)
	}

	ctx := context.Background()
	inst1, err := New(ctx, cls, ImportOnly())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	inst2, err := New(ctx, cls, ImportOnly())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	info1, info2 := GetInfo(inst1), GetInfo(inst2)
	if info1 == info2 {
		t.Fatalf("instances share their info")
	}
	if info1.ClassInfo != ci || info2.ClassInfo != ci {
		t.Fatalf("instance info does not reference the class info")
	}
	if info1.ClassInfo.ExportName() != "my_subclass" {
		t.Fatalf("export name via instance = %q", info1.ClassInfo.ExportName())
	}
	if inst1.Module() != nil {
		t.Fatalf("import-only instance has a module")
	}
}

func TestExplicitExportName(t *testing.T) {
	cls := NewRegistry().MustRegister("MySubclass", nil, WithExportName("Foobar"))
	ci, err := GetClassInfo(cls)
	if err != nil {
		t.Fatalf("GetClassInfo: %v", err)
	}
	if ci.ExportName() != "Foobar" {
		t.Fatalf("export name = %q", ci.ExportName())
	}
}

func TestExportNameDerivation(t *testing.T) {
	cases := map[string]string{
		"MySubclass":     "my_subclass",
		"HTTPServer":     "http_server",
		"AqtDenseModule": "aqt_dense_module",
		"Counter":        "counter",
		"V2Model":        "v2_model",
		"already_snake":  "already_snake",
	}
	for in, want := range cases {
		if got := ExportName(in); got != want {
			t.Errorf("ExportName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDefFunctionRepr(t *testing.T) {
	r := NewRegistry()
	nullary := r.MustRegister("Nullary", []Attr{{Name: "f", Value: Def(nil, Self())}})
	unary := r.MustRegister("Unary", []Attr{{Name: "f", Value: Def(nil, Self(), Positional("a", Like(0)))}})
	noDefault := r.MustRegister("NoDefault", []Attr{{Name: "f", Value: Def(nil, Self(), Positional("a"))}})

	for _, tc := range []struct {
		cls  *Class
		want string
	}{
		{nullary, "<def f([])>"},
		{unary, "<def f([ShapedArray(int32[])])>"},
		{noDefault, "<def f([None])>"},
	} {
		ci, err := GetClassInfo(tc.cls)
		if err != nil {
			t.Fatalf("GetClassInfo: %v", err)
		}
		f, ok := ci.Function("f")
		if !ok {
			t.Fatalf("%s: missing f", tc.cls)
		}
		if got := f.String(); got != tc.want {
			t.Fatalf("%s: repr = %q, want %q", tc.cls, got, tc.want)
		}
	}
}

func TestGlobalRepr(t *testing.T) {
	r := NewRegistry()
	cls := r.MustRegister("Global", []Attr{
		{Name: "my_global", Value: 0},
		{Name: "state", Value: ExportGlobal(Like([]float32{0, 0}))},
		{Name: "frozen", Value: ExportGlobal([]float32{1, 2}, Mutable(false))},
	})
	ci, _ := GetClassInfo(cls)

	for name, want := range map[string]string{
		"my_global": "<global my_global: initialize=True, mutable=True, value=0>",
		"state":     "<global state: initialize=False, mutable=True, value=None>",
		"frozen":    "<global frozen: initialize=True, mutable=False, value=[1 2]>",
	} {
		g, ok := ci.Global(name)
		if !ok {
			t.Fatalf("missing global %s", name)
		}
		if got := g.String(); got != want {
			t.Fatalf("repr of %s = %q, want %q", name, got, want)
		}
	}

	_, err := r.Register("BadInit", []Attr{{Name: "g", Value: ExportGlobal(Like(0), Initialize(true))}})
	if !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected configuration error for initialized abstract global, got %v", err)
	}
}

func TestTreeGlobalLeafNames(t *testing.T) {
	params := tree.Seq{tree.Map{
		{Key: "weights", Value: tree.Leaf{Value: aval.Arange(6, aval.Float32).MustReshape(2, 3)}},
		{Key: "bias", Value: tree.Leaf{Value: aval.Arange(3, aval.Float32)}},
	}}
	cls := NewRegistry().MustRegister("Tree", []Attr{{Name: "_params", Value: params}})
	ci, _ := GetClassInfo(cls)
	g, _ := ci.Global("_params")
	if got := strings.Join(g.LeafNames(), " "); got != "_params.0.weights _params.0.bias" {
		t.Fatalf("leaf names = %q", got)
	}
	if got := g.Def().String(); got != "[{'weights': *, 'bias': *}]" {
		t.Fatalf("def = %q", got)
	}
}

func TestBuiltinsHidden(t *testing.T) {
	cls := NewRegistry().MustRegister("Hidden", []Attr{
		{Name: "export_global", Value: Def(func(s *Scope, _ Args) (any, error) {
			return s.Const(int32(1)), nil
		}, Self())},
		{Name: "_helper", Value: Kernel(func(Args) (any, error) { return nil, nil })},
	})
	inst, err := New(context.Background(), cls, ImportOnly())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	a, err := inst.Attr("export_global")
	if err != nil {
		t.Fatalf("export_global: %v", err)
	}
	bm, ok := a.(*BoundMethod)
	if !ok {
		t.Fatalf("export_global resolved to %T", a)
	}
	m, err := bm.Trace(context.Background())
	if err != nil {
		t.Fatalf("trace export_global: %v", err)
	}
	if fn := m.Func("export_global"); fn == nil || fn.Private || len(fn.Results) != 1 {
		t.Fatalf("export_global not traced as an export:\n%s", m)
	}
	for _, name := range ReservedNames() {
		if name == "export_global" {
			continue
		}
		if _, err := inst.Attr(name); !errors.Is(err, ErrAttribute) {
			t.Fatalf("Attr(%q) = %v, want AttributeError", name, err)
		}
	}
	if _, err := inst.Attr("_helper"); !errors.Is(err, ErrAttribute) {
		t.Fatalf("kernel visible on instance: %v", err)
	}
}

func TestReservedNameOnlyAsExport(t *testing.T) {
	_, err := NewRegistry().Register("Shadow", []Attr{{Name: "get_info", Value: 0}})
	if !errors.Is(err, ErrConfiguration) || !strings.Contains(err.Error(), "reserved") {
		t.Fatalf("expected reserved-name error, got %v", err)
	}
}

func TestRegistrationErrors(t *testing.T) {
	cases := []struct {
		name  string
		attrs []Attr
		kind  error
		msg   string
	}{
		{
			name:  "missing self",
			attrs: []Attr{{Name: "missing_self", Value: Def(nil)}},
			kind:  ErrSignature,
			msg:   "export function 'missing_self' is expected to have at least a 'self' parameter",
		},
		{
			name:  "self not first",
			attrs: []Attr{{Name: "f", Value: Def(nil, Positional("a"), Self())}},
			kind:  ErrSignature,
			msg:   "export function 'f' is expected to have at least a 'self' parameter",
		},
		{
			name:  "keyword only",
			attrs: []Attr{{Name: "do_something", Value: Def(nil, Self(), KeywordOnly("a"))}},
			kind:  ErrSignature,
			msg:   "export function 'do_something' can only have positional parameters",
		},
		{
			name:  "variadic",
			attrs: []Attr{{Name: "do_something", Value: Def(nil, Self(), VarPositional("args"))}},
			kind:  ErrSignature,
			msg:   "can only have positional parameters",
		},
		{
			name:  "concrete default",
			attrs: []Attr{{Name: "do_something", Value: Def(nil, Self(), Positional("a", false))}},
			kind:  ErrSignature,
			msg:   "expected tree of abstract values but got: False",
		},
		{
			name:  "arbitrary value",
			attrs: []Attr{{Name: "foobar", Value: struct{}{}}},
			kind:  ErrConfiguration,
			msg:   "cannot set arbitrary Go value 'foobar' on program:",
		},
		{
			name:  "duplicate",
			attrs: []Attr{{Name: "g", Value: 0}, {Name: "g", Value: 1}},
			kind:  ErrConfiguration,
			msg:   "duplicate program attribute 'g'",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := NewRegistry()
			_, err := r.Register("Error", tc.attrs)
			if !errors.Is(err, tc.kind) {
				t.Fatalf("error = %v, want kind %v", err, tc.kind)
			}
			if !strings.Contains(err.Error(), tc.msg) {
				t.Fatalf("error %q does not mention %q", err, tc.msg)
			}
			if _, ok := r.Lookup("Error"); ok {
				t.Fatalf("failed class was registered")
			}
		})
	}
}

func TestDunderNamesSkipped(t *testing.T) {
	cls := NewRegistry().MustRegister("Doc", []Attr{{Name: "__doc__", Value: "documentation"}})
	ci, _ := GetClassInfo(cls)
	if len(ci.Globals())+len(ci.Functions())+len(ci.Kernels()) != 0 {
		t.Fatalf("dunder attribute was classified")
	}
}

func TestRegistrySealAndDuplicates(t *testing.T) {
	r := NewRegistry()
	r.MustRegister("Once", nil)
	if _, err := r.Register("Once", nil); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("duplicate registration = %v", err)
	}
	r.Seal()
	if _, err := r.Register("Late", nil); !errors.Is(err, ErrConfiguration) || !strings.Contains(err.Error(), "sealed") {
		t.Fatalf("registration after Seal = %v", err)
	}
	if cls, ok := r.Lookup("once"); !ok || cls.Name() != "Once" {
		t.Fatalf("lookup by export name failed")
	}
}

func identityKernelProgram(t *testing.T, result func(x *ir.Value) any) *Class {
	t.Helper()
	return NewRegistry().MustRegister("IreeJaxProgram", []Attr{
		{Name: "f", Value: Def(func(s *Scope, args Args) (any, error) {
			return s.Kernel("_f", args.Value(0))
		}, Self(), Positional("x", Like(0)))},
		{Name: "_f", Value: Kernel(func(args Args) (any, error) {
			return result(args.Value(0)), nil
		})},
	})
}

func TestValueTracingWithMap(t *testing.T) {
	cls := identityKernelProgram(t, func(x *ir.Value) any { return map[string]any{"x": x} })
	if _, err := New(context.Background(), cls, ImportOnly()); err != nil {
		t.Fatalf("import-only: %v", err)
	}
	inst, err := New(context.Background(), cls)
	if err != nil {
		t.Fatalf("trace: %v", err)
	}
	m := inst.Module()
	f := m.Func("f")
	if f == nil || f.Private {
		t.Fatalf("missing public f:\n%s", m)
	}
	if got := f.ResultDef.String(); got != "{'x': *}" {
		t.Fatalf("result structure = %s", got)
	}
	if k := m.Func("_f"); k == nil || !k.Private {
		t.Fatalf("missing private kernel:\n%s", m)
	}
	if !strings.Contains(m.String(), "call @_f(%0) : (tensor<i32>) -> (tensor<i32>)") {
		t.Fatalf("unexpected module:\n%s", m)
	}
}

func TestValueTracingWithList(t *testing.T) {
	cls := identityKernelProgram(t, func(x *ir.Value) any { return []any{x} })
	if _, err := New(context.Background(), cls, ImportOnly()); err != nil {
		t.Fatalf("import-only: %v", err)
	}
	inst, err := New(context.Background(), cls)
	if err != nil {
		t.Fatalf("trace: %v", err)
	}
	if got := inst.Module().Func("f").ResultDef.String(); got != "[*]" {
		t.Fatalf("result structure = %s", got)
	}
}

func TestKernelVariantsPerSignature(t *testing.T) {
	cls := NewRegistry().MustRegister("Variants", []Attr{
		{Name: "f", Value: Def(func(s *Scope, args Args) (any, error) {
			x := args.Value(0)
			a, _ := s.Kernel("double", x)
			b, _ := s.Kernel("double", x)
			c, _ := s.Kernel("double", x.Reshape(2, 2))
			return []any{a, b, c}, nil
		}, Self(), Positional("x", Like([]float32{1, 2, 3, 4})))},
		{Name: "double", Value: Kernel(func(args Args) (any, error) {
			return args.Value(0).Mul(2), nil
		})},
	})
	m, err := Lower(context.Background(), cls)
	if err != nil {
		t.Fatalf("Lower: %v", err)
	}
	if m.Func("double") == nil || m.Func("double_1") == nil || m.Func("double_2") != nil {
		t.Fatalf("unexpected kernel variants:\n%s", m)
	}
	if got := len(m.Funcs); got != 3 {
		t.Fatalf("expected 3 funcs, got %d", got)
	}
}

func TestKernelVariantsSkipDeclaredNames(t *testing.T) {
	cls := NewRegistry().MustRegister("VariantClash", []Attr{
		{Name: "f", Value: Def(func(s *Scope, args Args) (any, error) {
			x := args.Value(0)
			a, _ := s.Kernel("k", x)
			b, _ := s.Kernel("k", x.Reshape(2, 2))
			return []any{a, b}, nil
		}, Self(), Positional("x", Like([]float32{1, 2, 3, 4})))},
		{Name: "k", Value: Kernel(func(args Args) (any, error) {
			return args.Value(0).Add(1), nil
		})},
		{Name: "k_1", Value: Def(func(s *Scope, _ Args) (any, error) {
			return s.Const(int32(7)), nil
		}, Self())},
	})
	m, err := Lower(context.Background(), cls)
	if err != nil {
		t.Fatalf("Lower: %v", err)
	}
	for _, name := range []string{"f", "k", "k_1", "k_2"} {
		if m.Func(name) == nil {
			t.Fatalf("missing func @%s:\n%s", name, m)
		}
	}
	if m.Func("k_1").Private || !m.Func("k_2").Private {
		t.Fatalf("k_1 must stay the export and k_2 the kernel variant:\n%s", m)
	}
	if got := len(m.Funcs); got != 4 {
		t.Fatalf("expected 4 funcs, got %d", got)
	}
}

func counterAttrs() []Attr {
	return []Attr{
		{Name: "count", Value: ExportGlobal(0)},
		{Name: "limit", Value: ExportGlobal(10, Mutable(false))},
		{Name: "add", Value: Def(func(s *Scope, args Args) (any, error) {
			next := ValueOf(s.Global("count")).Add(args.Value(0))
			if err := s.StoreGlobal("count", next); err != nil {
				return nil, err
			}
			return next, nil
		}, Self(), Positional("delta", Like(0)))},
		{Name: "get", Value: Def(func(s *Scope, _ Args) (any, error) {
			return s.Global("count"), nil
		}, Self())},
		{Name: "reset", Value: Def(func(s *Scope, _ Args) (any, error) {
			return nil, s.StoreGlobal("count", 0)
		}, Self())},
		{Name: "add_twice", Value: Def(func(s *Scope, args Args) (any, error) {
			if _, err := s.Call("add", args.Value(0)); err != nil {
				return nil, err
			}
			return s.Call("add", args.Value(0))
		}, Self(), Positional("delta", Like(0)))},
	}
}

func TestGlobalsLoadStoreAndCall(t *testing.T) {
	cls := NewRegistry().MustRegister("Counter", counterAttrs())
	inst, err := New(context.Background(), cls)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	text := inst.Module().String()
	for _, want := range []string{
		"module @counter {",
		"global mutable @count : tensor<i32> = dense<0>",
		"global @limit : tensor<i32> = dense<10>",
		"global.store %2, @count : tensor<i32>",
		"call @add(%0) : (tensor<i32>) -> (tensor<i32>)",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("module missing %q:\n%s", want, text)
		}
	}
	if n := len(inst.Module().Funcs); n != 4 {
		t.Fatalf("expected 4 funcs, got %d:\n%s", n, text)
	}
}

func TestStoreToImmutableGlobalFails(t *testing.T) {
	cls := NewRegistry().MustRegister("Frozen", []Attr{
		{Name: "limit", Value: ExportGlobal(10, Mutable(false))},
		{Name: "bump", Value: Def(func(s *Scope, _ Args) (any, error) {
			return nil, s.StoreGlobal("limit", 11)
		}, Self())},
	})
	_, err := New(context.Background(), cls)
	if !errors.Is(err, ErrTrace) || !strings.Contains(err.Error(), "global 'limit' is immutable") {
		t.Fatalf("expected immutable store error, got %v", err)
	}
	if _, err := New(context.Background(), cls, ImportOnly()); err != nil {
		t.Fatalf("import-only should not trace: %v", err)
	}
}

func TestTraceArgs(t *testing.T) {
	cls := NewRegistry().MustRegister("Args", []Attr{
		{Name: "scale", Value: Def(func(s *Scope, args Args) (any, error) {
			return args.Value(0).Mul(args.Value(1)), nil
		}, Self(), Positional("x"), Positional("y", Like(float32(1))))},
	})
	if _, err := New(context.Background(), cls); !errors.Is(err, ErrTrace) || !strings.Contains(err.Error(), "no default") {
		t.Fatalf("expected missing input error, got %v", err)
	}
	inst, err := New(context.Background(), cls, WithTraceArgs("scale", aval.Shaped(aval.Float32)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	f := inst.Module().Func("scale")
	if got := len(f.Params); got != 2 {
		t.Fatalf("params = %d", got)
	}
	if _, err := New(context.Background(), cls, WithTraceArgs("missing", 1)); !errors.Is(err, ErrTrace) {
		t.Fatalf("expected unknown function error, got %v", err)
	}

	m, err := inst.Method("scale")
	if err != nil {
		t.Fatalf("Method: %v", err)
	}
	mod, err := m.Trace(context.Background(), Like([]float32{1, 2}), float32(3))
	if err != nil {
		t.Fatalf("Trace: %v", err)
	}
	if got := ir.TypeString(mod.Func("scale").ResultTypes()[0]); got != "tensor<2xf32>" {
		t.Fatalf("result type = %s", got)
	}
}

func TestTracePanicsBecomeErrors(t *testing.T) {
	cls := NewRegistry().MustRegister("Panics", []Attr{
		{Name: "f", Value: Def(func(s *Scope, _ Args) (any, error) {
			return ir.Add(1, 2), nil
		}, Self())},
	})
	if _, err := New(context.Background(), cls); !errors.Is(err, ErrTrace) || !strings.Contains(err.Error(), "panic") {
		t.Fatalf("expected trace error, got %v", err)
	}
}
