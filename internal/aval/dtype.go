// Package aval models abstract values (element type plus shape, no data),
// the concrete host arrays they are derived from, and the like() descriptor
// used to declare the trace-time signature of exported functions.
package aval

import "fmt"

// DType is the element type of an array.
type DType uint8

const (
	Invalid DType = iota
	Bool
	Int8
	Int16
	Int32
	Int64
	Uint8
	Uint16
	Uint32
	Uint64
	Float16
	Float32
	Float64
)

func (d DType) String() string {
	switch d {
	case Bool:
		return "bool"
	case Int8:
		return "int8"
	case Int16:
		return "int16"
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	case Uint8:
		return "uint8"
	case Uint16:
		return "uint16"
	case Uint32:
		return "uint32"
	case Uint64:
		return "uint64"
	case Float16:
		return "float16"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	default:
		return fmt.Sprintf("DType(%d)", d)
	}
}

// Short returns the compact element type name used in IR text (i32, f32...).
func (d DType) Short() string {
	switch d {
	case Bool:
		return "i1"
	case Int8, Uint8:
		return "i8"
	case Int16, Uint16:
		return "i16"
	case Int32, Uint32:
		return "i32"
	case Int64, Uint64:
		return "i64"
	case Float16:
		return "f16"
	case Float32:
		return "f32"
	case Float64:
		return "f64"
	default:
		return "?"
	}
}

// ParseDType converts a dtype name back to DType.
func ParseDType(s string) (DType, error) {
	for d := Bool; d <= Float64; d++ {
		if d.String() == s {
			return d, nil
		}
	}
	return Invalid, fmt.Errorf("unknown dtype %q", s)
}

func (d DType) IsBool() bool     { return d == Bool }
func (d DType) IsSigned() bool   { return d >= Int8 && d <= Int64 }
func (d DType) IsUnsigned() bool { return d >= Uint8 && d <= Uint64 }
func (d DType) IsInteger() bool  { return d.IsSigned() || d.IsUnsigned() }
func (d DType) IsFloat() bool    { return d >= Float16 && d <= Float64 }

// Canonical maps 64-bit types to their 32-bit counterparts, the way abstract
// values are formed when 64-bit mode is off.
func (d DType) Canonical() DType {
	switch d {
	case Int64:
		return Int32
	case Uint64:
		return Uint32
	case Float64:
		return Float32
	default:
		return d
	}
}
