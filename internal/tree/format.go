package tree

import (
	"fmt"
	"strings"
)

// Format renders n with Python-like container syntax. Leaves are rendered
// with leafFmt, or with fmt's %v when leafFmt is nil.
func Format(n Node, leafFmt func(any) string) string {
	if leafFmt == nil {
		leafFmt = func(v any) string { return fmt.Sprint(v) }
	}
	var sb strings.Builder
	format(&sb, n, leafFmt)
	return sb.String()
}

func format(sb *strings.Builder, n Node, leafFmt func(any) string) {
	switch x := n.(type) {
	case nil, nilNode:
		sb.WriteString("None")
	case Leaf:
		sb.WriteString(leafFmt(x.Value))
	case *Leaf:
		sb.WriteString(leafFmt(x.Value))
	case Seq:
		sb.WriteString("[")
		for i, c := range x {
			if i > 0 {
				sb.WriteString(", ")
			}
			format(sb, c, leafFmt)
		}
		sb.WriteString("]")
	case Map:
		sb.WriteString("{")
		for i, e := range x {
			if i > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(sb, "'%s': ", e.Key)
			format(sb, e.Value, leafFmt)
		}
		sb.WriteString("}")
	default:
		fmt.Fprintf(sb, "<%T>", n)
	}
}
