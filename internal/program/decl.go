package program

import (
	"irjax/internal/aval"
)

// Attr is one name/value pair of a program class body, in declaration
// order.
type Attr struct {
	Name  string
	Value any
}

// ParamKind is the calling-convention role of a declared parameter.
type ParamKind uint8

const (
	ParamSelf ParamKind = iota + 1
	ParamPositional
	ParamKeywordOnly
	ParamVarPositional
	ParamVarKeyword
)

func (k ParamKind) String() string {
	switch k {
	case ParamSelf:
		return "self"
	case ParamPositional:
		return "positional"
	case ParamKeywordOnly:
		return "keyword-only"
	case ParamVarPositional:
		return "var-positional"
	case ParamVarKeyword:
		return "var-keyword"
	default:
		return "invalid"
	}
}

// Param declares one parameter of an exported function.
type Param struct {
	Name       string
	Kind       ParamKind
	Default    any
	HasDefault bool
}

// Self declares the instance-binding parameter.
func Self() Param { return Param{Name: "self", Kind: ParamSelf} }

// Positional declares a positional parameter, optionally with a default.
// Only the first default is used.
func Positional(name string, def ...any) Param {
	p := Param{Name: name, Kind: ParamPositional}
	if len(def) > 0 {
		p.Default = def[0]
		p.HasDefault = true
	}
	return p
}

// KeywordOnly declares a keyword-only parameter.
func KeywordOnly(name string) Param { return Param{Name: name, Kind: ParamKeywordOnly} }

// VarPositional declares a variadic positional parameter.
func VarPositional(name string) Param { return Param{Name: name, Kind: ParamVarPositional} }

// VarKeyword declares a variadic keyword parameter.
func VarKeyword(name string) Param { return Param{Name: name, Kind: ParamVarKeyword} }

// Like is aval.Like, re-exported for use in parameter defaults.
func Like(example any) *aval.Descriptor { return aval.Like(example) }

// Body is the traced implementation of an exported function. args holds one
// tree per declared parameter after self, with *ir.Value leaves. The
// returned value may be nil, a *ir.Value, or a tree of them.
type Body func(self *Scope, args Args) (any, error)

// Function is an exported function candidate.
type Function struct {
	body   Body
	params []Param
}

// Def declares an exported function. A nil body traces to an empty
// function.
func Def(body Body, params ...Param) *Function {
	return &Function{body: body, params: append([]Param(nil), params...)}
}

// Params returns the declared parameters including self.
func (f *Function) Params() []Param { return append([]Param(nil), f.params...) }

// KernelBody is the traced implementation of a kernel. Kernels take any
// number of positional trees.
type KernelBody func(args Args) (any, error)

// KernelFunc marks a helper as internal: it is callable from exported
// function bodies through Scope.Kernel and is never exported.
type KernelFunc struct {
	body KernelBody
}

// Kernel marks fn as a kernel.
func Kernel(fn KernelBody) *KernelFunc { return &KernelFunc{body: fn} }

// GlobalDecl is an explicit global declaration.
type GlobalDecl struct {
	value      any
	mutable    bool
	initialize *bool
}

// GlobalOption configures ExportGlobal.
type GlobalOption func(*GlobalDecl)

// Mutable sets whether exported functions may store into the global.
// Globals are mutable by default.
func Mutable(v bool) GlobalOption {
	return func(d *GlobalDecl) { d.mutable = v }
}

// Initialize sets whether the global carries its value as initialiser.
// It defaults to true for concrete values and must be false for abstract
// ones.
func Initialize(v bool) GlobalOption {
	return func(d *GlobalDecl) { d.initialize = &v }
}

// ExportGlobal declares value as a global. value is an array-like, a tree
// of array-likes, or an abstract value (a Like descriptor or
// aval.ShapedArray, or a tree of them).
func ExportGlobal(value any, opts ...GlobalOption) *GlobalDecl {
	d := &GlobalDecl{value: value, mutable: true}
	for _, opt := range opts {
		opt(d)
	}
	return d
}
