// Package examples registers sample programs with program.Default.
package examples

import (
	"fmt"

	"irjax/internal/aval"
	"irjax/internal/program"
)

// All returns the sample programs in registration order.
func All() []*program.Class {
	return []*program.Class{AqtDense, Counter}
}

func mustArray(v any) aval.Array {
	a, err := aval.Asarray(v)
	if err != nil {
		panic(fmt.Sprintf("examples: %v", err))
	}
	return a
}
