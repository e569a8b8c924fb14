// Package ir is the program representation produced by tracing exported
// functions. It is the hand-off point to the external compiler: a Module holds
// globals and functions, and every function is a flat list of ops over
// numbered SSA values typed by abstract values.
package ir

import (
	"fmt"

	"irjax/internal/aval"
	"irjax/internal/tree"
)

// ValueID numbers an SSA value inside one function.
type ValueID uint32

// Global is a module-level variable.
type Global struct {
	Name    string
	Type    aval.ShapedArray
	Mutable bool
	Init    *aval.Array // nil when the global is declared without an initial value
}

// Func is a traced function.
type Func struct {
	Name    string
	Private bool
	Params  []ValueID
	Results []ValueID
	// ResultDef records how Results are nested in the traced return value.
	ResultDef *tree.Def
	Ops       []Op

	types []aval.ShapedArray
}

// TypeOf returns the abstract value of id.
func (f *Func) TypeOf(id ValueID) aval.ShapedArray {
	if f == nil || int(id) >= len(f.types) {
		return aval.ShapedArray{}
	}
	return f.types[id]
}

// NumValues returns how many SSA values the function defines.
func (f *Func) NumValues() int {
	if f == nil {
		return 0
	}
	return len(f.types)
}

// ParamTypes lists parameter types in order.
func (f *Func) ParamTypes() []aval.ShapedArray {
	out := make([]aval.ShapedArray, len(f.Params))
	for i, id := range f.Params {
		out[i] = f.TypeOf(id)
	}
	return out
}

// ResultTypes lists result types in order.
func (f *Func) ResultTypes() []aval.ShapedArray {
	out := make([]aval.ShapedArray, len(f.Results))
	for i, id := range f.Results {
		out[i] = f.TypeOf(id)
	}
	return out
}

// Module is a set of globals and functions with a symbol name.
type Module struct {
	Name    string
	Globals []*Global
	Funcs   []*Func
}

// NewModule creates an empty module.
func NewModule(name string) *Module {
	return &Module{Name: name}
}

// Func looks up a function by name.
func (m *Module) Func(name string) *Func {
	if m == nil {
		return nil
	}
	for _, f := range m.Funcs {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// Global looks up a global by name.
func (m *Module) Global(name string) *Global {
	if m == nil {
		return nil
	}
	for _, g := range m.Globals {
		if g.Name == name {
			return g
		}
	}
	return nil
}

// AddGlobal appends g, rejecting duplicate names.
func (m *Module) AddGlobal(g *Global) error {
	if m.Global(g.Name) != nil {
		return fmt.Errorf("ir: duplicate global @%s", g.Name)
	}
	m.Globals = append(m.Globals, g)
	return nil
}

// AddFunc appends f, rejecting duplicate names.
func (m *Module) AddFunc(f *Func) error {
	if m.Func(f.Name) != nil {
		return fmt.Errorf("ir: duplicate function @%s", f.Name)
	}
	m.Funcs = append(m.Funcs, f)
	return nil
}
