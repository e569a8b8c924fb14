package ir

import (
	"fmt"

	"irjax/internal/aval"
)

// OpKind identifies an operation.
type OpKind uint8

const (
	OpInvalid OpKind = iota
	OpConst
	OpGlobalLoad
	OpGlobalStore
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMax
	OpMin
	OpNeg
	OpAbs
	OpFloor
	OpConvert
	OpBroadcast
	OpExpandDims
	OpReshape
	OpReduceMax
	OpDot
	OpClamp
	OpCall
)

func (k OpKind) String() string {
	switch k {
	case OpConst:
		return "const"
	case OpGlobalLoad:
		return "global.load"
	case OpGlobalStore:
		return "global.store"
	case OpAdd:
		return "add"
	case OpSub:
		return "sub"
	case OpMul:
		return "mul"
	case OpDiv:
		return "div"
	case OpMax:
		return "max"
	case OpMin:
		return "min"
	case OpNeg:
		return "neg"
	case OpAbs:
		return "abs"
	case OpFloor:
		return "floor"
	case OpConvert:
		return "convert"
	case OpBroadcast:
		return "broadcast"
	case OpExpandDims:
		return "expand_dims"
	case OpReshape:
		return "reshape"
	case OpReduceMax:
		return "reduce_max"
	case OpDot:
		return "dot"
	case OpClamp:
		return "clamp"
	case OpCall:
		return "call"
	default:
		return fmt.Sprintf("OpKind(%d)", k)
	}
}

// Op is one instruction. Only the fields relevant to Kind are set.
type Op struct {
	Kind     OpKind
	Results  []ValueID
	Operands []ValueID
	Global   string      // global.load, global.store
	Callee   string      // call
	Const    *aval.Array // const
	Axis     int         // expand_dims
}
