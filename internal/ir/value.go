package ir

import (
	"fmt"

	"irjax/internal/aval"
)

// Value is a traced SSA value: a placeholder carrying only an abstract value.
type Value struct {
	b        *Builder
	id       ValueID
	typ      aval.ShapedArray
	poisoned bool
}

// Type returns the abstract value.
func (v *Value) Type() aval.ShapedArray { return v.typ }

// ID returns the SSA number inside its function.
func (v *Value) ID() ValueID { return v.id }

// Builder returns the function the value belongs to.
func (v *Value) Builder() *Builder { return v.b }

func (v *Value) String() string {
	if v == nil || v.poisoned {
		return "%<poison>"
	}
	return fmt.Sprintf("%%%d", v.id)
}

func (v *Value) Add(o any) *Value { return Add(v, o) }
func (v *Value) Sub(o any) *Value { return Sub(v, o) }
func (v *Value) Mul(o any) *Value { return Mul(v, o) }
func (v *Value) Div(o any) *Value { return Div(v, o) }
func (v *Value) Max(o any) *Value { return Max(v, o) }
func (v *Value) Min(o any) *Value { return Min(v, o) }

// Neg negates every element.
func (v *Value) Neg() *Value { return v.unary(OpNeg, false) }

// Abs takes the absolute value of every element.
func (v *Value) Abs() *Value { return v.unary(OpAbs, false) }

// Floor rounds every element down. Integer inputs are converted to float32
// first.
func (v *Value) Floor() *Value { return v.unary(OpFloor, true) }

func (v *Value) unary(kind OpKind, needsFloat bool) *Value {
	b := v.b
	if !b.usable() || !b.owns(v) {
		return b.poison()
	}
	x := v
	if needsFloat && !x.typ.DType.IsFloat() {
		x = x.Convert(aval.Float32)
	}
	return b.emit(Op{Kind: kind, Operands: []ValueID{x.id}}, x.typ)
}

// Convert changes the element type.
func (v *Value) Convert(dt aval.DType) *Value {
	b := v.b
	if !b.usable() || !b.owns(v) {
		return b.poison()
	}
	if v.typ.DType == dt {
		return v
	}
	return b.emit(Op{Kind: OpConvert, Operands: []ValueID{v.id}}, aval.ShapedArray{DType: dt, Shape: v.typ.Shape.Clone()})
}

// BroadcastTo expands v to shape following numpy rules.
func (v *Value) BroadcastTo(shape aval.Shape) *Value {
	b := v.b
	if !b.usable() || !b.owns(v) {
		return b.poison()
	}
	if v.typ.Shape.Equal(shape) {
		return v
	}
	got, err := aval.Broadcast(v.typ.Shape, shape)
	if err != nil || !got.Equal(shape) {
		b.Errorf("cannot broadcast %s to [%s]", v.typ, shape)
		return b.poison()
	}
	return b.emit(Op{Kind: OpBroadcast, Operands: []ValueID{v.id}}, aval.ShapedArray{DType: v.typ.DType, Shape: shape.Clone()})
}

// ExpandDims inserts a unit axis at position axis. Negative axes count from
// the end.
func (v *Value) ExpandDims(axis int) *Value {
	b := v.b
	if !b.usable() || !b.owns(v) {
		return b.poison()
	}
	rank := v.typ.Shape.Rank()
	if axis < 0 {
		axis += rank + 1
	}
	if axis < 0 || axis > rank {
		b.Errorf("expand_dims axis %d out of range for rank %d", axis, rank)
		return b.poison()
	}
	shape := make(aval.Shape, 0, rank+1)
	shape = append(shape, v.typ.Shape[:axis]...)
	shape = append(shape, 1)
	shape = append(shape, v.typ.Shape[axis:]...)
	return b.emit(Op{Kind: OpExpandDims, Operands: []ValueID{v.id}, Axis: axis}, aval.ShapedArray{DType: v.typ.DType, Shape: shape})
}

// Reshape changes the shape while keeping the element count.
func (v *Value) Reshape(dims ...int) *Value {
	b := v.b
	if !b.usable() || !b.owns(v) {
		return b.poison()
	}
	shape := aval.Shape(dims).Clone()
	want, err := shape.NumElements()
	if err != nil {
		b.Fail(err)
		return b.poison()
	}
	have, err := v.typ.Shape.NumElements()
	if err != nil {
		b.Fail(err)
		return b.poison()
	}
	if want != have {
		b.Errorf("cannot reshape %s into [%s]", v.typ, shape)
		return b.poison()
	}
	return b.emit(Op{Kind: OpReshape, Operands: []ValueID{v.id}}, aval.ShapedArray{DType: v.typ.DType, Shape: shape})
}

// ReduceMax reduces every axis with max, producing a scalar.
func (v *Value) ReduceMax() *Value {
	b := v.b
	if !b.usable() || !b.owns(v) {
		return b.poison()
	}
	return b.emit(Op{Kind: OpReduceMax, Operands: []ValueID{v.id}}, aval.Scalar(v.typ.DType))
}

// Clamp limits every element to [lo, hi].
func (v *Value) Clamp(lo, hi any) *Value {
	b := v.b
	if !b.usable() || !b.owns(v) {
		return b.poison()
	}
	lv := b.Lift(lo, v.typ.DType)
	hv := b.Lift(hi, v.typ.DType)
	if b.err != nil {
		return b.poison()
	}
	for _, bound := range []*Value{lv, hv} {
		if bound.typ.DType != v.typ.DType {
			b.Errorf("clamp bound %s does not match %s", bound.typ, v.typ)
			return b.poison()
		}
		if bound.typ.Shape.Rank() != 0 && !bound.typ.Shape.Equal(v.typ.Shape) {
			b.Errorf("clamp bound %s must be a scalar or match %s", bound.typ, v.typ)
			return b.poison()
		}
	}
	return b.emit(Op{Kind: OpClamp, Operands: []ValueID{lv.id, v.id, hv.id}}, v.typ)
}

// Dot is a matrix/vector product over the last axis of v and the first axis
// of o. Both operands must have rank 1 or 2 and the same element type.
func (v *Value) Dot(o *Value) *Value {
	b := v.b
	if !b.usable() || !b.owns(v) || !b.owns(o) {
		return b.poison()
	}
	if v.typ.DType != o.typ.DType {
		b.Errorf("dot operands differ in dtype: %s vs %s", v.typ, o.typ)
		return b.poison()
	}
	ls, rs := v.typ.Shape, o.typ.Shape
	if ls.Rank() < 1 || ls.Rank() > 2 || rs.Rank() < 1 || rs.Rank() > 2 {
		b.Errorf("dot supports rank 1 and 2 operands, got %s and %s", v.typ, o.typ)
		return b.poison()
	}
	if ls[ls.Rank()-1] != rs[0] {
		b.Errorf("dot contraction mismatch: %s and %s", v.typ, o.typ)
		return b.poison()
	}
	var shape aval.Shape
	shape = append(shape, ls[:ls.Rank()-1]...)
	shape = append(shape, rs[1:]...)
	if len(shape) == 0 {
		shape = nil
	}
	return b.emit(Op{Kind: OpDot, Operands: []ValueID{v.id, o.id}}, aval.ShapedArray{DType: v.typ.DType, Shape: shape})
}

// Add, Sub, Mul, Div, Max and Min are elementwise with numpy broadcasting.
// At least one operand must be a *Value; the other may be a *Value, an
// aval.Array or a Go scalar.
func Add(x, y any) *Value { return binary(OpAdd, x, y) }
func Sub(x, y any) *Value { return binary(OpSub, x, y) }
func Mul(x, y any) *Value { return binary(OpMul, x, y) }
func Div(x, y any) *Value { return binary(OpDiv, x, y) }
func Max(x, y any) *Value { return binary(OpMax, x, y) }
func Min(x, y any) *Value { return binary(OpMin, x, y) }

func binary(kind OpKind, x, y any) *Value {
	xv, xok := x.(*Value)
	yv, yok := y.(*Value)
	var b *Builder
	switch {
	case xok && xv != nil:
		b = xv.b
	case yok && yv != nil:
		b = yv.b
	default:
		panic(fmt.Sprintf("ir: %s needs at least one traced operand", kind))
	}
	if !b.usable() {
		return b.poison()
	}
	like := aval.Invalid
	if xok && xv != nil {
		like = xv.typ.DType
	} else if yok && yv != nil {
		like = yv.typ.DType
	}
	lhs := b.Lift(x, like)
	rhs := b.Lift(y, like)
	if b.err != nil {
		return b.poison()
	}
	if lhs.typ.DType != rhs.typ.DType {
		b.Errorf("%s operands differ in dtype: %s vs %s", kind, lhs.typ, rhs.typ)
		return b.poison()
	}
	if kind == OpDiv && !lhs.typ.DType.IsFloat() {
		lhs = lhs.Convert(aval.Float32)
		rhs = rhs.Convert(aval.Float32)
	}
	shape, err := aval.Broadcast(lhs.typ.Shape, rhs.typ.Shape)
	if err != nil {
		b.Fail(fmt.Errorf("%s: %w", kind, err))
		return b.poison()
	}
	lhs = lhs.BroadcastTo(shape)
	rhs = rhs.BroadcastTo(shape)
	if b.err != nil {
		return b.poison()
	}
	return b.emit(Op{Kind: kind, Operands: []ValueID{lhs.id, rhs.id}}, aval.ShapedArray{DType: lhs.typ.DType, Shape: shape})
}
