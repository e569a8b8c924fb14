package tree

import "fmt"

// Visitor receives a depth-first, in-order walk over a tree.
// Returning an error from any callback stops the walk.
type Visitor interface {
	VisitNil(path Path) error
	VisitLeaf(path Path, value any) error
	EnterSeq(path Path, n Seq) error
	ExitSeq(path Path, n Seq) error
	EnterMap(path Path, n Map) error
	ExitMap(path Path, n Map) error
}

// BaseVisitor implements every Visitor callback as a no-op; embed it and
// override what you need.
type BaseVisitor struct{}

func (BaseVisitor) VisitNil(Path) error { return nil }
func (BaseVisitor) VisitLeaf(Path, any) error { return nil }
func (BaseVisitor) EnterSeq(Path, Seq) error { return nil }
func (BaseVisitor) ExitSeq(Path, Seq) error { return nil }
func (BaseVisitor) EnterMap(Path, Map) error { return nil }
func (BaseVisitor) ExitMap(Path, Map) error { return nil }

// Visit walks n with v.
func Visit(n Node, v Visitor) error {
	return visit(n, nil, v)
}

func visit(n Node, path Path, v Visitor) error {
	switch x := n.(type) {
	case nil, nilNode:
		return v.VisitNil(path)
	case Leaf:
		return v.VisitLeaf(path, x.Value)
	case *Leaf:
		return v.VisitLeaf(path, x.Value)
	case Seq:
		if err := v.EnterSeq(path, x); err != nil {
			return err
		}
		for i, child := range x {
			if err := visit(child, path.index(i), v); err != nil {
				return err
			}
		}
		return v.ExitSeq(path, x)
	case Map:
		if err := v.EnterMap(path, x); err != nil {
			return err
		}
		for _, e := range x {
			if err := visit(e.Value, path.key(e.Key), v); err != nil {
				return err
			}
		}
		return v.ExitMap(path, x)
	default:
		return fmt.Errorf("tree: unsupported node %T", n)
	}
}

type leafCollector struct {
	BaseVisitor
	paths  []Path
	leaves []any
}

func (c *leafCollector) VisitLeaf(path Path, value any) error {
	c.paths = append(c.paths, path)
	c.leaves = append(c.leaves, value)
	return nil
}

// Leaves returns the leaf values of n in visit order.
func Leaves(n Node) []any {
	c := &leafCollector{}
	if err := Visit(n, c); err != nil {
		return nil
	}
	return c.leaves
}

// LeafPaths returns the path of every leaf of n in visit order.
func LeafPaths(n Node) []Path {
	c := &leafCollector{}
	if err := Visit(n, c); err != nil {
		return nil
	}
	return c.paths
}

// MapLeaves rebuilds n with every leaf value replaced by fn(path, value).
func MapLeaves(n Node, fn func(path Path, value any) (any, error)) (Node, error) {
	return mapLeaves(n, nil, fn)
}

func mapLeaves(n Node, path Path, fn func(Path, any) (any, error)) (Node, error) {
	switch x := n.(type) {
	case nil, nilNode:
		return Nil, nil
	case Leaf:
		v, err := fn(path, x.Value)
		if err != nil {
			return nil, err
		}
		return Leaf{Value: v}, nil
	case *Leaf:
		v, err := fn(path, x.Value)
		if err != nil {
			return nil, err
		}
		return Leaf{Value: v}, nil
	case Seq:
		out := make(Seq, len(x))
		for i, child := range x {
			c, err := mapLeaves(child, path.index(i), fn)
			if err != nil {
				return nil, err
			}
			out[i] = c
		}
		return out, nil
	case Map:
		out := make(Map, len(x))
		for i, e := range x {
			c, err := mapLeaves(e.Value, path.key(e.Key), fn)
			if err != nil {
				return nil, err
			}
			out[i] = Entry{Key: e.Key, Value: c}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("tree: unsupported node %T", n)
	}
}
