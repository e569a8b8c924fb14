package ir

import (
	"errors"
	"fmt"
)

// Validate checks module invariants.
// Returns error if any invariant is violated.
func Validate(m *Module) error {
	if m == nil {
		return nil
	}
	var errs []error
	seen := make(map[string]bool, len(m.Funcs))
	for _, f := range m.Funcs {
		if f == nil {
			continue
		}
		if seen[f.Name] {
			errs = append(errs, fmt.Errorf("duplicate function @%s", f.Name))
		}
		seen[f.Name] = true
		if err := validateFunc(m, f); err != nil {
			errs = append(errs, fmt.Errorf("function %s: %w", f.Name, err))
		}
	}
	return errors.Join(errs...)
}

func validateFunc(m *Module, f *Func) error {
	var errs []error

	// 1. Every value is defined exactly once, params first.
	defined := make([]bool, f.NumValues())
	define := func(id ValueID) {
		if int(id) >= len(defined) {
			errs = append(errs, fmt.Errorf("value %%%d has no type", id))
			return
		}
		if defined[id] {
			errs = append(errs, fmt.Errorf("value %%%d defined twice", id))
		}
		defined[id] = true
	}
	use := func(id ValueID) {
		if int(id) >= len(defined) || !defined[id] {
			errs = append(errs, fmt.Errorf("value %%%d used before definition", id))
		}
	}
	for _, id := range f.Params {
		define(id)
	}

	for i := range f.Ops {
		op := &f.Ops[i]
		for _, id := range op.Operands {
			use(id)
		}

		// 2. Op-specific references resolve.
		switch op.Kind {
		case OpGlobalLoad, OpGlobalStore:
			g := m.Global(op.Global)
			if g == nil {
				errs = append(errs, fmt.Errorf("%s references unknown global @%s", op.Kind, op.Global))
			} else if op.Kind == OpGlobalStore && !g.Mutable {
				errs = append(errs, fmt.Errorf("store to immutable global @%s", op.Global))
			}
		case OpCall:
			callee := m.Func(op.Callee)
			if callee == nil {
				errs = append(errs, fmt.Errorf("call to unknown function @%s", op.Callee))
			} else if len(callee.Params) != len(op.Operands) || len(callee.Results) != len(op.Results) {
				errs = append(errs, fmt.Errorf("call to @%s has mismatched arity", op.Callee))
			}
		case OpConst:
			if op.Const == nil {
				errs = append(errs, errors.New("const without payload"))
			}
		case OpInvalid:
			errs = append(errs, fmt.Errorf("op %d has no kind", i))
		}

		for _, id := range op.Results {
			define(id)
		}
	}

	// 3. Results are defined and match the recorded structure.
	for _, id := range f.Results {
		use(id)
	}
	if f.ResultDef != nil && f.ResultDef.NumLeaves() != len(f.Results) {
		errs = append(errs, fmt.Errorf("result structure %s expects %d values, have %d", f.ResultDef, f.ResultDef.NumLeaves(), len(f.Results)))
	}
	return errors.Join(errs...)
}
