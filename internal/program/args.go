package program

import (
	"fmt"
	"sort"

	"irjax/internal/ir"
	"irjax/internal/tree"
)

// Args holds the traced arguments of a body, one tree per parameter.
type Args []tree.Node

// Tree returns argument i.
func (a Args) Tree(i int) tree.Node {
	if i < 0 || i >= len(a) {
		panic(fmt.Sprintf("program: argument %d out of range (have %d)", i, len(a)))
	}
	return a[i]
}

// Value returns argument i, which must be a single traced value.
func (a Args) Value(i int) *ir.Value {
	return ValueOf(a.Tree(i))
}

// ValueOf unwraps a leaf holding a traced value.
func ValueOf(n tree.Node) *ir.Value {
	leaf, ok := n.(tree.Leaf)
	if !ok {
		panic(fmt.Sprintf("program: expected a traced value, got %s", tree.KindOf(n)))
	}
	v, ok := leaf.Value.(*ir.Value)
	if !ok {
		panic(fmt.Sprintf("program: expected a traced value, got %T", leaf.Value))
	}
	return v
}

// Field returns the value at key of a map node.
func Field(n tree.Node, key string) *ir.Value {
	m, ok := n.(tree.Map)
	if !ok {
		panic(fmt.Sprintf("program: expected a map, got %s", tree.KindOf(n)))
	}
	child, ok := m.Get(key)
	if !ok {
		panic(fmt.Sprintf("program: map has no key '%s'", key))
	}
	return ValueOf(child)
}

// valueTree converts a body result into a tree. Besides what tree.FromGo
// accepts it understands slices and string maps of traced values.
func valueTree(v any) tree.Node {
	switch x := v.(type) {
	case *ir.Value:
		return tree.Leaf{Value: x}
	case []*ir.Value:
		seq := make(tree.Seq, len(x))
		for i, e := range x {
			seq[i] = tree.Leaf{Value: e}
		}
		return seq
	case map[string]*ir.Value:
		m := make(map[string]any, len(x))
		for k, e := range x {
			m[k] = e
		}
		return valueTree(m)
	case []any:
		seq := make(tree.Seq, len(x))
		for i, e := range x {
			seq[i] = valueTree(e)
		}
		return seq
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		m := make(tree.Map, len(keys))
		for i, k := range keys {
			m[i] = tree.Entry{Key: k, Value: valueTree(x[k])}
		}
		return m
	default:
		return tree.FromGo(v)
	}
}
