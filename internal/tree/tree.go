// Package tree implements the abstract-value tree protocol: a tagged-variant
// tree (nil, leaf, sequence, string-keyed map) with an explicit visitor, and
// flatten/unflatten helpers used to move traced values in and out of nested
// containers.
package tree

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Kind tags the variant of a Node.
type Kind uint8

const (
	KindNil Kind = iota
	KindLeaf
	KindSeq
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindNil:
		return "nil"
	case KindLeaf:
		return "leaf"
	case KindSeq:
		return "seq"
	case KindMap:
		return "map"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Node is one of Nil, Leaf, Seq or Map.
type Node interface {
	Kind() Kind
}

type nilNode struct{}

func (nilNode) Kind() Kind { return KindNil }

// Nil is the empty tree. It has no leaves.
var Nil Node = nilNode{}

// Leaf holds an opaque value.
type Leaf struct {
	Value any
}

func (Leaf) Kind() Kind { return KindLeaf }

// Seq is an ordered sequence of subtrees.
type Seq []Node

func (Seq) Kind() Kind { return KindSeq }

// Entry is one key of a Map.
type Entry struct {
	Key   string
	Value Node
}

// Map is a string-keyed mapping. Entry order is significant and preserved.
type Map []Entry

func (Map) Kind() Kind { return KindMap }

// Get returns the subtree stored under key.
func (m Map) Get(key string) (Node, bool) {
	for _, e := range m {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

// Keys returns the keys in entry order.
func (m Map) Keys() []string {
	keys := make([]string, len(m))
	for i, e := range m {
		keys[i] = e.Key
	}
	return keys
}

// KindOf is like n.Kind() but treats a nil interface as Nil.
func KindOf(n Node) Kind {
	if n == nil {
		return KindNil
	}
	return n.Kind()
}

// FromGo builds a tree from a Go value. Nodes pass through, []any and []Node
// become Seq, map[string]any and map[string]Node become Map with sorted keys,
// nil becomes Nil, and everything else becomes a Leaf.
func FromGo(v any) Node {
	switch x := v.(type) {
	case nil:
		return Nil
	case Node:
		return x
	case []any:
		seq := make(Seq, len(x))
		for i, e := range x {
			seq[i] = FromGo(e)
		}
		return seq
	case []Node:
		seq := make(Seq, len(x))
		for i, e := range x {
			seq[i] = FromGo(e)
		}
		return seq
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		m := make(Map, len(keys))
		for i, k := range keys {
			m[i] = Entry{Key: k, Value: FromGo(x[k])}
		}
		return m
	case map[string]Node:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		m := make(Map, len(keys))
		for i, k := range keys {
			m[i] = Entry{Key: k, Value: FromGo(x[k])}
		}
		return m
	default:
		return Leaf{Value: v}
	}
}

// PathElem is a single step from a container to one of its children.
type PathElem struct {
	Key   string
	Index int
	IsKey bool
}

func (p PathElem) String() string {
	if p.IsKey {
		return p.Key
	}
	return strconv.Itoa(p.Index)
}

// Path addresses a subtree from the root.
type Path []PathElem

func (p Path) String() string {
	parts := make([]string, len(p))
	for i, e := range p {
		parts[i] = e.String()
	}
	return strings.Join(parts, ".")
}

func (p Path) index(i int) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, PathElem{Index: i})
}

func (p Path) key(k string) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, PathElem{Key: k, IsKey: true})
}
