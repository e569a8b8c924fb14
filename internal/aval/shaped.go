package aval

import (
	"fmt"
	"strconv"
	"strings"

	"fortio.org/safecast"
)

// Shape lists the extent of every axis. A nil or empty Shape is a scalar.
type Shape []int

// Rank returns the number of axes.
func (s Shape) Rank() int { return len(s) }

// NumElements returns the product of all extents.
func (s Shape) NumElements() (int64, error) {
	n := int64(1)
	for _, d := range s {
		if d < 0 {
			return 0, fmt.Errorf("negative dimension %d in shape [%s]", d, s)
		}
		dim, err := safecast.Conv[int64](d)
		if err != nil {
			return 0, fmt.Errorf("dimension overflow: %w", err)
		}
		if dim != 0 && n > (1<<62)/dim {
			return 0, fmt.Errorf("shape [%s] has too many elements", s)
		}
		n *= dim
	}
	return n, nil
}

// Equal reports whether two shapes have the same extents.
func (s Shape) Equal(o Shape) bool {
	if len(s) != len(o) {
		return false
	}
	for i := range s {
		if s[i] != o[i] {
			return false
		}
	}
	return true
}

// Clone returns an independent copy.
func (s Shape) Clone() Shape {
	if len(s) == 0 {
		return nil
	}
	out := make(Shape, len(s))
	copy(out, s)
	return out
}

func (s Shape) String() string {
	parts := make([]string, len(s))
	for i, d := range s {
		parts[i] = strconv.Itoa(d)
	}
	return strings.Join(parts, ",")
}

// Broadcast computes the numpy broadcast of two shapes.
func Broadcast(a, b Shape) (Shape, error) {
	rank := max(len(a), len(b))
	out := make(Shape, rank)
	for i := 0; i < rank; i++ {
		da, db := 1, 1
		if j := len(a) - rank + i; j >= 0 {
			da = a[j]
		}
		if j := len(b) - rank + i; j >= 0 {
			db = b[j]
		}
		switch {
		case da == db:
			out[i] = da
		case da == 1:
			out[i] = db
		case db == 1:
			out[i] = da
		default:
			return nil, fmt.Errorf("shapes [%s] and [%s] are not broadcast-compatible", a, b)
		}
	}
	if rank == 0 {
		return nil, nil
	}
	return out, nil
}

// ShapedArray is the abstract value of an array: element type and shape
// without data.
type ShapedArray struct {
	DType DType
	Shape Shape
}

// Scalar describes a rank-0 array of dt.
func Scalar(dt DType) ShapedArray {
	return ShapedArray{DType: dt}
}

// Shaped describes an array of dt with the given extents.
func Shaped(dt DType, dims ...int) ShapedArray {
	return ShapedArray{DType: dt, Shape: Shape(dims).Clone()}
}

// Canonical returns the abstract value with a canonicalised dtype.
func (a ShapedArray) Canonical() ShapedArray {
	return ShapedArray{DType: a.DType.Canonical(), Shape: a.Shape.Clone()}
}

// Equal compares dtype and shape.
func (a ShapedArray) Equal(o ShapedArray) bool {
	return a.DType == o.DType && a.Shape.Equal(o.Shape)
}

// TypeString renders "int32[]" / "float32[5,6]".
func (a ShapedArray) TypeString() string {
	return a.DType.String() + "[" + a.Shape.String() + "]"
}

func (a ShapedArray) String() string {
	return "ShapedArray(" + a.TypeString() + ")"
}
