package ir

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"io"
	"strconv"
	"strings"

	"irjax/internal/aval"
)

// maxPrintedElements bounds how many constant elements Print writes inline.
const maxPrintedElements = 16

// Digest is a sha256 fingerprint of a printed module.
type Digest [32]byte

// Fingerprint hashes the textual form of m.
func Fingerprint(m *Module) (Digest, error) {
	var buf bytes.Buffer
	if err := Print(&buf, m); err != nil {
		return Digest{}, err
	}
	return sha256.Sum256(buf.Bytes()), nil
}

// String returns the textual form of m.
func (m *Module) String() string {
	var sb strings.Builder
	if err := Print(&sb, m); err != nil {
		return "<invalid module: " + err.Error() + ">"
	}
	return sb.String()
}

// Print writes a human-readable representation of m.
func Print(w io.Writer, m *Module) error {
	if w == nil || m == nil {
		return nil
	}
	p := &printer{w: w}
	p.printf("module @%s {\n", m.Name)
	for _, g := range m.Globals {
		p.printGlobal(g)
	}
	for i, f := range m.Funcs {
		if i > 0 || len(m.Globals) > 0 {
			p.printf("\n")
		}
		p.printFunc(f)
	}
	p.printf("}\n")
	return p.err
}

type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func (p *printer) printGlobal(g *Global) {
	flags := ""
	if g.Mutable {
		flags = " mutable"
	}
	p.printf("  global%s @%s : %s", flags, g.Name, TypeString(g.Type))
	if g.Init != nil {
		p.printf(" = %s", denseString(*g.Init))
	}
	p.printf("\n")
}

func (p *printer) printFunc(f *Func) {
	vis := ""
	if f.Private {
		vis = " private"
	}
	params := make([]string, len(f.Params))
	for i, id := range f.Params {
		params[i] = fmt.Sprintf("%%%d: %s", id, TypeString(f.TypeOf(id)))
	}
	p.printf("  func%s @%s(%s)%s {\n", vis, f.Name, strings.Join(params, ", "), resultSig(f.ResultTypes()))
	for i := range f.Ops {
		p.printf("    %s\n", formatOp(f, &f.Ops[i]))
	}
	if len(f.Results) == 0 {
		p.printf("    return\n")
	} else {
		p.printf("    return %s : %s\n", valueList(f.Results), typeList(f.ResultTypes()))
	}
	p.printf("  }\n")
}

func formatOp(f *Func, op *Op) string {
	lhs := ""
	if len(op.Results) > 0 {
		lhs = valueList(op.Results) + " = "
	}
	resultTypes := make([]aval.ShapedArray, len(op.Results))
	for i, id := range op.Results {
		resultTypes[i] = f.TypeOf(id)
	}
	switch op.Kind {
	case OpConst:
		return fmt.Sprintf("%sconst %s : %s", lhs, denseString(*op.Const), typeList(resultTypes))
	case OpGlobalLoad:
		return fmt.Sprintf("%sglobal.load @%s : %s", lhs, op.Global, typeList(resultTypes))
	case OpGlobalStore:
		return fmt.Sprintf("global.store %s, @%s : %s", valueList(op.Operands), op.Global, TypeString(f.TypeOf(op.Operands[0])))
	case OpCall:
		operandTypes := make([]aval.ShapedArray, len(op.Operands))
		for i, id := range op.Operands {
			operandTypes[i] = f.TypeOf(id)
		}
		return fmt.Sprintf("%scall @%s(%s) : (%s) -> (%s)", lhs, op.Callee, valueList(op.Operands), typeList(operandTypes), typeList(resultTypes))
	case OpExpandDims:
		return fmt.Sprintf("%s%s %s {axis = %d} : %s", lhs, op.Kind, valueList(op.Operands), op.Axis, typeList(resultTypes))
	default:
		return fmt.Sprintf("%s%s %s : %s", lhs, op.Kind, valueList(op.Operands), typeList(resultTypes))
	}
}

func resultSig(types []aval.ShapedArray) string {
	switch len(types) {
	case 0:
		return ""
	case 1:
		return " -> " + TypeString(types[0])
	default:
		return " -> (" + typeList(types) + ")"
	}
}

func valueList(ids []ValueID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = "%" + strconv.FormatUint(uint64(id), 10)
	}
	return strings.Join(parts, ", ")
}

func typeList(types []aval.ShapedArray) string {
	parts := make([]string, len(types))
	for i, t := range types {
		parts[i] = TypeString(t)
	}
	return strings.Join(parts, ", ")
}

// TypeString renders an abstract value as a tensor type: tensor<5x6xf32>,
// tensor<i32> for scalars.
func TypeString(t aval.ShapedArray) string {
	var sb strings.Builder
	sb.WriteString("tensor<")
	for _, d := range t.Shape {
		sb.WriteString(strconv.Itoa(d))
		sb.WriteString("x")
	}
	sb.WriteString(t.DType.Short())
	sb.WriteString(">")
	return sb.String()
}

func denseString(a aval.Array) string {
	if a.Len() > maxPrintedElements {
		return fmt.Sprintf("dense<...%d elements>", a.Len())
	}
	var sb strings.Builder
	sb.WriteString("dense<")
	writeDense(&sb, a, 0, 0)
	sb.WriteString(">")
	return sb.String()
}

func writeDense(sb *strings.Builder, a aval.Array, axis, offset int) int {
	shape := a.Shape()
	if axis == shape.Rank() {
		switch {
		case a.DType().IsFloat():
			sb.WriteString(aval.FormatFloat(a.Float(offset), a.DType()))
		case a.DType().IsBool():
			sb.WriteString(strconv.FormatBool(a.Int(offset) != 0))
		default:
			sb.WriteString(strconv.FormatInt(a.Int(offset), 10))
		}
		return offset + 1
	}
	sb.WriteString("[")
	for i := 0; i < shape[axis]; i++ {
		if i > 0 {
			sb.WriteString(", ")
		}
		offset = writeDense(sb, a, axis+1, offset)
	}
	sb.WriteString("]")
	return offset
}
