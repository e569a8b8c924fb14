package program

import (
	"fmt"
	"strings"

	"irjax/internal/aval"
	"irjax/internal/tree"
)

// ExportedFunction is a validated exported function.
type ExportedFunction struct {
	name   string
	params []Param     // without self
	avals  []tree.Node // abstract default per param, nil when absent
	body   Body
}

// ValidateSignature checks the calling convention of an exported function:
// self comes first, the rest are positional, and every default is a tree of
// abstract values.
func ValidateSignature(name string, fn *Function) (*ExportedFunction, error) {
	if len(fn.params) == 0 || fn.params[0].Kind != ParamSelf {
		return nil, newError(SignatureError, "", name,
			fmt.Sprintf("export function '%s' is expected to have at least a 'self' parameter", name))
	}
	ef := &ExportedFunction{name: name, body: fn.body}
	for _, p := range fn.params[1:] {
		if p.Kind != ParamPositional {
			return nil, newError(SignatureError, "", name,
				fmt.Sprintf("export function '%s' can only have positional parameters", name))
		}
	}
	for _, p := range fn.params[1:] {
		var abstract tree.Node
		if p.HasDefault {
			a, err := aval.Abstractify(p.Default)
			if err != nil {
				return nil, newError(SignatureError, "", name, err.Error())
			}
			abstract = a
		}
		ef.params = append(ef.params, p)
		ef.avals = append(ef.avals, abstract)
	}
	return ef, nil
}

// Name returns the function name.
func (f *ExportedFunction) Name() string { return f.name }

// NumParams returns the number of parameters after self.
func (f *ExportedFunction) NumParams() int { return len(f.params) }

// ParamNames returns the parameter names after self.
func (f *ExportedFunction) ParamNames() []string {
	names := make([]string, len(f.params))
	for i, p := range f.params {
		names[i] = p.Name
	}
	return names
}

// Abstract returns the abstract default of parameter i, or nil.
func (f *ExportedFunction) Abstract(i int) tree.Node {
	if i < 0 || i >= len(f.avals) {
		return nil
	}
	return f.avals[i]
}

// String renders <def name([aval, ...])>. Parameters without a default
// render as None.
func (f *ExportedFunction) String() string {
	specs := make([]string, len(f.avals))
	for i, a := range f.avals {
		if a == nil {
			specs[i] = "None"
			continue
		}
		specs[i] = tree.Format(a, aval.FormatValue)
	}
	return fmt.Sprintf("<def %s([%s])>", f.name, strings.Join(specs, ", "))
}

// KernelDescriptor is a registered kernel.
type KernelDescriptor struct {
	name string
	body KernelBody
}

// Name returns the kernel name.
func (k *KernelDescriptor) Name() string { return k.name }

func (k *KernelDescriptor) String() string { return "<kernel " + k.name + ">" }
