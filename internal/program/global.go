package program

import (
	"fmt"

	"irjax/internal/aval"
	"irjax/internal/ir"
	"irjax/internal/tree"
)

// GlobalDescriptor is a validated global. A tree-valued global is lowered
// to one module global per leaf, named after the leaf path.
type GlobalDescriptor struct {
	name       string
	initialize bool
	mutable    bool
	value      any // nil when not initialised
	abstract   tree.Node
	def        *tree.Def
	leaves     []globalLeaf
}

type globalLeaf struct {
	name string
	typ  aval.ShapedArray
	init *aval.Array
}

func newGlobal(class, name string, v any) (*GlobalDescriptor, error) {
	decl, ok := v.(*GlobalDecl)
	if !ok {
		decl = ExportGlobal(v)
	}
	g := &GlobalDescriptor{name: name, mutable: decl.mutable}

	n := tree.FromGo(decl.value)
	if hasAbstractLeaf(n) {
		if decl.initialize != nil && *decl.initialize {
			return nil, newError(ConfigurationError, class, name,
				fmt.Sprintf("global '%s' has an abstract value and cannot be initialized", name))
		}
		abstract, err := aval.Abstractify(n)
		if err != nil {
			return nil, wrapError(ConfigurationError, class, name, fmt.Sprintf("global '%s'", name), err)
		}
		g.abstract = abstract
	} else {
		if !isConcreteTree(decl.value) {
			return nil, newError(ConfigurationError, class, name,
				fmt.Sprintf("cannot set arbitrary Go value '%s' on program: %T", name, decl.value))
		}
		g.initialize = decl.initialize == nil || *decl.initialize
		concrete, err := concreteTree(decl.value)
		if err != nil {
			return nil, wrapError(ConfigurationError, class, name, fmt.Sprintf("global '%s'", name), err)
		}
		abstract, err := aval.Like(concrete).Abstract()
		if err != nil {
			return nil, wrapError(ConfigurationError, class, name, fmt.Sprintf("global '%s'", name), err)
		}
		g.abstract = abstract
		if g.initialize {
			g.value = decl.value
		}
		if err := g.collectInits(concrete); err != nil {
			return nil, wrapError(ConfigurationError, class, name, fmt.Sprintf("global '%s'", name), err)
		}
	}

	types, def := tree.Flatten(g.abstract)
	paths := tree.LeafPaths(g.abstract)
	g.def = def
	if len(g.leaves) == 0 {
		g.leaves = make([]globalLeaf, len(types))
	}
	for i, t := range types {
		g.leaves[i].name = leafName(name, paths[i])
		g.leaves[i].typ = t.(aval.ShapedArray)
	}
	return g, nil
}

// concreteTree converts every leaf of v to an aval.Array.
func concreteTree(v any) (tree.Node, error) {
	if aval.IsArrayLike(v) {
		a, err := aval.Asarray(v)
		if err != nil {
			return nil, err
		}
		return tree.Leaf{Value: a}, nil
	}
	return tree.MapLeaves(tree.FromGo(v), func(_ tree.Path, leaf any) (any, error) {
		return aval.Asarray(leaf)
	})
}

func (g *GlobalDescriptor) collectInits(concrete tree.Node) error {
	if !g.initialize {
		return nil
	}
	for _, l := range tree.Leaves(concrete) {
		a := l.(aval.Array)
		c := a.AsType(a.DType().Canonical())
		g.leaves = append(g.leaves, globalLeaf{init: &c})
	}
	return nil
}

func hasAbstractLeaf(n tree.Node) bool {
	for _, l := range tree.Leaves(n) {
		switch l.(type) {
		case *aval.Descriptor, aval.ShapedArray:
			return true
		}
	}
	return false
}

func leafName(global string, p tree.Path) string {
	if len(p) == 0 {
		return global
	}
	return global + "." + p.String()
}

// Name returns the attribute name.
func (g *GlobalDescriptor) Name() string { return g.name }

// Initialize reports whether the global carries an initial value.
func (g *GlobalDescriptor) Initialize() bool { return g.initialize }

// Mutable reports whether exported functions may store into the global.
func (g *GlobalDescriptor) Mutable() bool { return g.mutable }

// Value returns the declared initial value, or nil.
func (g *GlobalDescriptor) Value() any { return g.value }

// Abstract returns the tree of ShapedArray leaves of the global.
func (g *GlobalDescriptor) Abstract() tree.Node { return g.abstract }

// Def returns the tree structure of the global.
func (g *GlobalDescriptor) Def() *tree.Def { return g.def }

// LeafNames returns the module global names, one per leaf.
func (g *GlobalDescriptor) LeafNames() []string {
	names := make([]string, len(g.leaves))
	for i, l := range g.leaves {
		names[i] = l.name
	}
	return names
}

// IRGlobals returns fresh module globals for every leaf.
func (g *GlobalDescriptor) IRGlobals() []*ir.Global {
	out := make([]*ir.Global, len(g.leaves))
	for i, l := range g.leaves {
		out[i] = &ir.Global{Name: l.name, Type: l.typ, Mutable: g.mutable, Init: l.init}
	}
	return out
}

func (g *GlobalDescriptor) String() string {
	return fmt.Sprintf("<global %s: initialize=%s, mutable=%s, value=%s>",
		g.name, aval.FormatValue(g.initialize), aval.FormatValue(g.mutable), aval.FormatValue(g.value))
}
