package main

import (
	"fmt"
	"strings"

	"irjax/internal/program"
)

// resolvePrograms maps names (class or export names) to registered
// classes. No names selects every class.
func resolvePrograms(reg *program.Registry, names []string) ([]*program.Class, error) {
	if len(names) == 0 {
		return reg.Classes(), nil
	}
	out := make([]*program.Class, 0, len(names))
	var missing []string
	for _, name := range names {
		cls, ok := reg.Lookup(name)
		if !ok {
			missing = append(missing, name)
			continue
		}
		out = append(out, cls)
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("unknown program(s): %s (see 'irjax list')", strings.Join(missing, ", "))
	}
	return out, nil
}
