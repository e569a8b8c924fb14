package aval

import (
	"fmt"

	"irjax/internal/tree"
)

// Descriptor wraps an example value (or tree of values) and stands for its
// abstraction. It is only meaningful as an exported function parameter
// default; it never flows through a trace as a value.
type Descriptor struct {
	example any
}

// Like returns a descriptor for an example value or tree of values.
func Like(example any) *Descriptor {
	return &Descriptor{example: example}
}

// Example returns the wrapped value.
func (d *Descriptor) Example() any {
	if d == nil {
		return nil
	}
	return d.example
}

// Abstract derives the tree of ShapedArray leaves described by d.
func (d *Descriptor) Abstract() (tree.Node, error) {
	if d == nil {
		return nil, fmt.Errorf("nil descriptor")
	}
	return abstractTree(tree.FromGo(d.example), true)
}

func (d *Descriptor) String() string {
	return "like(" + FormatValue(d.Example()) + ")"
}

// Abstractify turns a parameter default into a tree of ShapedArray leaves.
// Accepted leaves are *Descriptor, ShapedArray and Array values; bare Go
// scalars and other objects are rejected.
func Abstractify(v any) (tree.Node, error) {
	n, err := abstractTree(tree.FromGo(v), false)
	if err != nil {
		return nil, fmt.Errorf("expected tree of abstract values but got: %s", FormatValue(v))
	}
	return n, nil
}

func abstractTree(n tree.Node, allowConcrete bool) (tree.Node, error) {
	switch x := n.(type) {
	case tree.Seq:
		out := make(tree.Seq, len(x))
		for i, c := range x {
			a, err := abstractTree(c, allowConcrete)
			if err != nil {
				return nil, err
			}
			out[i] = a
		}
		return out, nil
	case tree.Map:
		out := make(tree.Map, len(x))
		for i, e := range x {
			a, err := abstractTree(e.Value, allowConcrete)
			if err != nil {
				return nil, err
			}
			out[i] = tree.Entry{Key: e.Key, Value: a}
		}
		return out, nil
	case tree.Leaf:
		return abstractLeaf(x.Value, allowConcrete)
	case nil:
		return nil, fmt.Errorf("cannot abstract None")
	default:
		if tree.KindOf(n) == tree.KindNil {
			return nil, fmt.Errorf("cannot abstract None")
		}
		return nil, fmt.Errorf("unsupported tree node %T", n)
	}
}

func abstractLeaf(v any, allowConcrete bool) (tree.Node, error) {
	switch x := v.(type) {
	case *Descriptor:
		return x.Abstract()
	case ShapedArray:
		return tree.Leaf{Value: x.Canonical()}, nil
	case Array:
		return tree.Leaf{Value: x.Aval().Canonical()}, nil
	case *Array:
		if x != nil {
			return tree.Leaf{Value: x.Aval().Canonical()}, nil
		}
	}
	if allowConcrete {
		a, err := Asarray(v)
		if err != nil {
			return nil, err
		}
		return tree.Leaf{Value: a.Aval().Canonical()}, nil
	}
	return nil, fmt.Errorf("%s is not an abstract value", FormatValue(v))
}

// FormatValue renders v for diagnostics using Python-like spelling for
// None, booleans and strings.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "None"
	case bool:
		if x {
			return "True"
		}
		return "False"
	case string:
		return "'" + x + "'"
	case float32:
		return FormatFloat(float64(x), Float32)
	case float64:
		return FormatFloat(x, Float64)
	case fmt.Stringer:
		return x.String()
	case tree.Node:
		return tree.Format(x, FormatValue)
	case []any, map[string]any:
		return tree.Format(tree.FromGo(x), FormatValue)
	default:
		return fmt.Sprintf("%v", v)
	}
}
