package program

import (
	"fmt"
	"strings"

	"irjax/internal/aval"
	"irjax/internal/tree"
)

// AttrClass is the classification of one class attribute.
type AttrClass uint8

const (
	AttrSkipped AttrClass = iota // dunder names
	AttrExport
	AttrKernel
	AttrGlobal
)

func (c AttrClass) String() string {
	switch c {
	case AttrSkipped:
		return "skipped"
	case AttrExport:
		return "export"
	case AttrKernel:
		return "kernel"
	case AttrGlobal:
		return "global"
	default:
		return "invalid"
	}
}

// Classified is an attribute together with its classification.
type Classified struct {
	Attr
	Class AttrClass
}

// Classify sorts class attributes into exported functions, kernels and
// globals. Values that fit none of them fail with ConfigurationError.
// Nothing is validated beyond the classification itself.
func Classify(class string, attrs []Attr) ([]Classified, error) {
	out := make([]Classified, 0, len(attrs))
	seen := make(map[string]bool, len(attrs))
	for _, a := range attrs {
		if a.Name == "" {
			return nil, newError(ConfigurationError, class, "", "program attribute with empty name")
		}
		if isDunder(a.Name) {
			out = append(out, Classified{Attr: a, Class: AttrSkipped})
			continue
		}
		if seen[a.Name] {
			return nil, newError(ConfigurationError, class, a.Name, fmt.Sprintf("duplicate program attribute '%s'", a.Name))
		}
		seen[a.Name] = true

		c, ok := classifyValue(a.Value)
		if !ok {
			return nil, newError(ConfigurationError, class, a.Name,
				fmt.Sprintf("cannot set arbitrary Go value '%s' on program: %T", a.Name, a.Value))
		}
		if c != AttrExport && isReserved(a.Name) {
			return nil, newError(ConfigurationError, class, a.Name,
				fmt.Sprintf("'%s' is a reserved program member and can only be redefined as an exported function", a.Name))
		}
		out = append(out, Classified{Attr: a, Class: c})
	}
	return out, nil
}

func classifyValue(v any) (AttrClass, bool) {
	switch x := v.(type) {
	case *Function:
		return AttrExport, x != nil
	case *KernelFunc:
		return AttrKernel, x != nil
	case *GlobalDecl:
		return AttrGlobal, x != nil
	}
	if isConcreteTree(v) {
		return AttrGlobal, true
	}
	return AttrSkipped, false
}

// isConcreteTree reports whether v is an array-like or a non-empty tree
// whose leaves are all array-likes.
func isConcreteTree(v any) bool {
	if v == nil {
		return false
	}
	if aval.IsArrayLike(v) {
		return true
	}
	n := tree.FromGo(v)
	if _, isLeaf := n.(tree.Leaf); isLeaf {
		return false
	}
	leaves := tree.Leaves(n)
	if len(leaves) == 0 {
		return false
	}
	for _, l := range leaves {
		if !aval.IsArrayLike(l) {
			return false
		}
	}
	return true
}

func isDunder(name string) bool {
	return len(name) > 4 && strings.HasPrefix(name, "__") && strings.HasSuffix(name, "__")
}
