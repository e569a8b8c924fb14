package tree

import (
	"fmt"
	"strings"
)

// Def describes the structure of a tree with its leaves removed.
// Flatten produces it and Unflatten consumes it.
type Def struct {
	kind     Kind
	keys     []string
	children []*Def
	leaves   int
}

// NumLeaves reports how many leaves Unflatten expects.
func (d *Def) NumLeaves() int {
	if d == nil {
		return 0
	}
	return d.leaves
}

// Kind returns the variant at the root of the structure.
func (d *Def) Kind() Kind {
	if d == nil {
		return KindNil
	}
	return d.kind
}

// Equal reports whether two structures match, keys included.
func (d *Def) Equal(o *Def) bool {
	if d == nil || o == nil {
		return d.Kind() == o.Kind() && d.Kind() == KindNil
	}
	if d.kind != o.kind || len(d.children) != len(o.children) || len(d.keys) != len(o.keys) {
		return false
	}
	for i := range d.keys {
		if d.keys[i] != o.keys[i] {
			return false
		}
	}
	for i := range d.children {
		if !d.children[i].Equal(o.children[i]) {
			return false
		}
	}
	return true
}

func (d *Def) String() string {
	var sb strings.Builder
	d.write(&sb)
	return sb.String()
}

func (d *Def) write(sb *strings.Builder) {
	switch d.Kind() {
	case KindNil:
		sb.WriteString("None")
	case KindLeaf:
		sb.WriteString("*")
	case KindSeq:
		sb.WriteString("[")
		for i, c := range d.children {
			if i > 0 {
				sb.WriteString(", ")
			}
			c.write(sb)
		}
		sb.WriteString("]")
	case KindMap:
		sb.WriteString("{")
		for i, c := range d.children {
			if i > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(sb, "'%s': ", d.keys[i])
			c.write(sb)
		}
		sb.WriteString("}")
	}
}

// defBuilder assembles a Def while visiting.
type defBuilder struct {
	leaves []any
	stack  []*Def
	root   *Def
}

func (b *defBuilder) push(d *Def) {
	if len(b.stack) == 0 {
		b.root = d
	} else {
		parent := b.stack[len(b.stack)-1]
		parent.children = append(parent.children, d)
	}
}

func (b *defBuilder) VisitNil(Path) error {
	b.push(&Def{kind: KindNil})
	return nil
}

func (b *defBuilder) VisitLeaf(_ Path, value any) error {
	b.leaves = append(b.leaves, value)
	b.push(&Def{kind: KindLeaf, leaves: 1})
	return nil
}

func (b *defBuilder) EnterSeq(_ Path, n Seq) error {
	d := &Def{kind: KindSeq, children: make([]*Def, 0, len(n))}
	b.push(d)
	b.stack = append(b.stack, d)
	return nil
}

func (b *defBuilder) ExitSeq(Path, Seq) error {
	b.pop()
	return nil
}

func (b *defBuilder) EnterMap(_ Path, n Map) error {
	d := &Def{kind: KindMap, keys: n.Keys(), children: make([]*Def, 0, len(n))}
	b.push(d)
	b.stack = append(b.stack, d)
	return nil
}

func (b *defBuilder) ExitMap(Path, Map) error {
	b.pop()
	return nil
}

func (b *defBuilder) pop() {
	top := b.stack[len(b.stack)-1]
	b.stack = b.stack[:len(b.stack)-1]
	for _, c := range top.children {
		top.leaves += c.leaves
	}
}

// Flatten splits n into its leaves (in visit order) and its structure.
func Flatten(n Node) ([]any, *Def) {
	b := &defBuilder{}
	if err := Visit(n, b); err != nil {
		return nil, &Def{kind: KindNil}
	}
	if b.root == nil {
		b.root = &Def{kind: KindNil}
	}
	return b.leaves, b.root
}

// Unflatten rebuilds a tree of the given structure from leaves.
func Unflatten(d *Def, leaves []any) (Node, error) {
	if d.NumLeaves() != len(leaves) {
		return nil, fmt.Errorf("tree: structure %s expects %d leaves, got %d", d, d.NumLeaves(), len(leaves))
	}
	n, rest := unflatten(d, leaves)
	if len(rest) != 0 {
		return nil, fmt.Errorf("tree: %d leaves left over", len(rest))
	}
	return n, nil
}

func unflatten(d *Def, leaves []any) (Node, []any) {
	switch d.Kind() {
	case KindLeaf:
		return Leaf{Value: leaves[0]}, leaves[1:]
	case KindSeq:
		seq := make(Seq, len(d.children))
		for i, c := range d.children {
			seq[i], leaves = unflatten(c, leaves)
		}
		return seq, leaves
	case KindMap:
		m := make(Map, len(d.children))
		for i, c := range d.children {
			var v Node
			v, leaves = unflatten(c, leaves)
			m[i] = Entry{Key: d.keys[i], Value: v}
		}
		return m, leaves
	default:
		return Nil, leaves
	}
}
