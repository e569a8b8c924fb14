package aval

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"fortio.org/safecast"
)

// Array is a concrete, host-side array-like value. Integer and bool data is
// held in ints, floating point data in floats.
type Array struct {
	dtype  DType
	shape  Shape
	ints   []int64
	floats []float64
}

// DType returns the element type.
func (a Array) DType() DType { return a.dtype }

// Shape returns the extents. The caller must not modify it.
func (a Array) Shape() Shape { return a.shape }

// Len returns the number of elements.
func (a Array) Len() int {
	if a.dtype.IsFloat() {
		return len(a.floats)
	}
	return len(a.ints)
}

// Aval returns the abstract value of a, keeping its exact dtype.
func (a Array) Aval() ShapedArray {
	return ShapedArray{DType: a.dtype, Shape: a.shape.Clone()}
}

// Float returns element i converted to float64.
func (a Array) Float(i int) float64 {
	if a.dtype.IsFloat() {
		return a.floats[i]
	}
	return float64(a.ints[i])
}

// Int returns element i converted to int64.
func (a Array) Int(i int) int64 {
	if a.dtype.IsFloat() {
		return int64(a.floats[i])
	}
	return a.ints[i]
}

// Full builds an array of the given shape with every element set to v.
func Full(dt DType, shape Shape, v float64) (Array, error) {
	n, err := shape.NumElements()
	if err != nil {
		return Array{}, err
	}
	count, err := safecast.Conv[int](n)
	if err != nil {
		return Array{}, err
	}
	a := Array{dtype: dt, shape: shape.Clone()}
	if dt.IsFloat() {
		a.floats = make([]float64, count)
		for i := range a.floats {
			a.floats[i] = v
		}
		return a, nil
	}
	a.ints = make([]int64, count)
	for i := range a.ints {
		a.ints[i] = int64(v)
	}
	return a, nil
}

// Arange returns the 1-D array [0, 1, ..., n-1] of dt.
func Arange(n int, dt DType) Array {
	if n < 0 {
		n = 0
	}
	a := Array{dtype: dt, shape: Shape{n}}
	if dt.IsFloat() {
		a.floats = make([]float64, n)
		for i := range a.floats {
			a.floats[i] = float64(i)
		}
		return a
	}
	a.ints = make([]int64, n)
	for i := range a.ints {
		a.ints[i] = int64(i)
	}
	return a
}

// Reshape returns a view of a with a new shape of the same element count.
func (a Array) Reshape(dims ...int) (Array, error) {
	shape := Shape(dims).Clone()
	n, err := shape.NumElements()
	if err != nil {
		return Array{}, err
	}
	if n != int64(a.Len()) {
		return Array{}, fmt.Errorf("cannot reshape array of size %d into shape [%s]", a.Len(), shape)
	}
	out := a
	out.shape = shape
	return out, nil
}

// MustReshape is Reshape that panics, for package-level example data.
func (a Array) MustReshape(dims ...int) Array {
	out, err := a.Reshape(dims...)
	if err != nil {
		panic(err)
	}
	return out
}

// Scale multiplies every element by f. Integer arrays become float64.
func (a Array) Scale(f float64) Array {
	out := Array{dtype: a.dtype, shape: a.shape.Clone()}
	if !a.dtype.IsFloat() {
		out.dtype = Float64
	}
	out.floats = make([]float64, a.Len())
	for i := range out.floats {
		out.floats[i] = a.Float(i) * f
	}
	if out.dtype == Float32 {
		for i := range out.floats {
			out.floats[i] = float64(float32(out.floats[i]))
		}
	}
	return out
}

// Asarray converts Go scalars, (nested) slices and arrays, and Array values
// into an Array.
func Asarray(v any) (Array, error) {
	switch x := v.(type) {
	case Array:
		return x, nil
	case *Array:
		if x == nil {
			return Array{}, fmt.Errorf("nil array")
		}
		return *x, nil
	}
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return Array{}, fmt.Errorf("cannot convert None to an array")
	}
	shape, elem, err := probe(rv.Type(), rv)
	if err != nil {
		return Array{}, err
	}
	dt := dtypeOfKind(elem.Kind())
	if dt == Invalid {
		return Array{}, fmt.Errorf("cannot convert value of type %T to an array", v)
	}
	a := Array{dtype: dt, shape: shape}
	if err := a.fill(rv, shape); err != nil {
		return Array{}, err
	}
	return a, nil
}

// IsArrayLike reports whether Asarray accepts v.
func IsArrayLike(v any) bool {
	_, err := Asarray(v)
	return err == nil
}

func dtypeOfKind(k reflect.Kind) DType {
	switch k {
	case reflect.Bool:
		return Bool
	case reflect.Int, reflect.Int64:
		return Int64
	case reflect.Int8:
		return Int8
	case reflect.Int16:
		return Int16
	case reflect.Int32:
		return Int32
	case reflect.Uint, reflect.Uint64:
		return Uint64
	case reflect.Uint8:
		return Uint8
	case reflect.Uint16:
		return Uint16
	case reflect.Uint32:
		return Uint32
	case reflect.Float32:
		return Float32
	case reflect.Float64:
		return Float64
	default:
		return Invalid
	}
}

// probe walks the first element of every nesting level to find the shape and
// the scalar element type.
func probe(t reflect.Type, v reflect.Value) (Shape, reflect.Type, error) {
	var shape Shape
	for t.Kind() == reflect.Slice || t.Kind() == reflect.Array {
		n := v.Len()
		shape = append(shape, n)
		t = t.Elem()
		if n > 0 {
			v = v.Index(0)
		} else {
			v = reflect.Zero(t)
		}
	}
	if t.Kind() == reflect.Interface {
		return nil, nil, fmt.Errorf("cannot convert heterogeneous sequence to an array")
	}
	return shape, t, nil
}

func (a *Array) fill(v reflect.Value, shape Shape) error {
	if len(shape) == 0 {
		switch {
		case a.dtype.IsFloat():
			a.floats = append(a.floats, v.Float())
		case a.dtype.IsBool():
			b := int64(0)
			if v.Bool() {
				b = 1
			}
			a.ints = append(a.ints, b)
		case a.dtype.IsUnsigned():
			u, err := safecast.Conv[int64](v.Uint())
			if err != nil {
				return err
			}
			a.ints = append(a.ints, u)
		default:
			a.ints = append(a.ints, v.Int())
		}
		return nil
	}
	if v.Len() != shape[0] {
		return fmt.Errorf("ragged sequence: expected %d elements, got %d", shape[0], v.Len())
	}
	for i := 0; i < v.Len(); i++ {
		if err := a.fill(v.Index(i), shape[1:]); err != nil {
			return err
		}
	}
	return nil
}

// String renders a like numpy's str(): "0", "[0 1 2]", "[[0. 1.]\n [2. 3.]]".
func (a Array) String() string {
	var sb strings.Builder
	a.write(&sb, 0, 0)
	return sb.String()
}

func (a Array) write(sb *strings.Builder, axis, offset int) int {
	if axis == len(a.shape) {
		sb.WriteString(a.formatElem(offset))
		return offset + 1
	}
	sb.WriteString("[")
	for i := 0; i < a.shape[axis]; i++ {
		if i > 0 {
			if axis == len(a.shape)-1 {
				sb.WriteString(" ")
			} else {
				sb.WriteString("\n" + strings.Repeat(" ", axis+1))
			}
		}
		offset = a.write(sb, axis+1, offset)
	}
	sb.WriteString("]")
	return offset
}

func (a Array) formatElem(i int) string {
	switch {
	case a.dtype.IsBool():
		if a.ints[i] != 0 {
			return "True"
		}
		return "False"
	case a.dtype.IsFloat():
		return FormatFloat(a.floats[i], a.dtype)
	default:
		return strconv.FormatInt(a.ints[i], 10)
	}
}

// FormatFloat renders f the way numpy prints scalars: integral values keep a
// trailing ".0".
func FormatFloat(f float64, dt DType) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	bits := 64
	if dt == Float32 || dt == Float16 {
		bits = 32
	}
	s := strconv.FormatFloat(f, 'g', -1, bits)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// AsType converts a to dt, truncating floats when dt is an integer type.
func (a Array) AsType(dt DType) Array {
	if a.dtype == dt {
		return a
	}
	out := Array{dtype: dt, shape: a.shape.Clone()}
	n := a.Len()
	switch {
	case dt.IsFloat():
		out.floats = make([]float64, n)
		for i := range out.floats {
			out.floats[i] = a.Float(i)
			if dt == Float32 || dt == Float16 {
				out.floats[i] = float64(float32(out.floats[i]))
			}
		}
	case dt.IsBool():
		out.ints = make([]int64, n)
		for i := range out.ints {
			if a.Float(i) != 0 {
				out.ints[i] = 1
			}
		}
	default:
		out.ints = make([]int64, n)
		for i := range out.ints {
			out.ints[i] = a.Int(i)
		}
	}
	return out
}
