package tree

import (
	"strings"
	"testing"
)

func TestFromGoSortsMapKeys(t *testing.T) {
	n := FromGo(map[string]any{"b": 2, "a": 1})
	m, ok := n.(Map)
	if !ok {
		t.Fatalf("expected Map, got %T", n)
	}
	if got := strings.Join(m.Keys(), ","); got != "a,b" {
		t.Fatalf("keys = %q, want a,b", got)
	}
}

func TestFlattenUnflattenNested(t *testing.T) {
	n := Seq{
		Map{{Key: "x", Value: Leaf{Value: 1}}, {Key: "y", Value: Seq{Leaf{Value: 2}, Leaf{Value: 3}}}},
		Leaf{Value: 4},
		Nil,
	}
	leaves, def := Flatten(n)
	if len(leaves) != 4 {
		t.Fatalf("expected 4 leaves, got %d", len(leaves))
	}
	for i, want := range []int{1, 2, 3, 4} {
		if leaves[i] != want {
			t.Fatalf("leaf %d = %v, want %d", i, leaves[i], want)
		}
	}
	if got, want := def.String(), "[{'x': *, 'y': [*, *]}, *, None]"; got != want {
		t.Fatalf("def = %q, want %q", got, want)
	}

	back, err := Unflatten(def, []any{"a", "b", "c", "d"})
	if err != nil {
		t.Fatalf("unflatten: %v", err)
	}
	if got, want := Format(back, nil), "[{'x': a, 'y': [b, c]}, d, None]"; got != want {
		t.Fatalf("format = %q, want %q", got, want)
	}
	_, backDef := Flatten(back)
	if !def.Equal(backDef) {
		t.Fatalf("structure changed: %s vs %s", def, backDef)
	}
}

func TestUnflattenLeafCountMismatch(t *testing.T) {
	_, def := Flatten(Seq{Leaf{Value: 1}})
	if _, err := Unflatten(def, nil); err == nil {
		t.Fatalf("expected error for missing leaves")
	}
}

func TestFlattenNil(t *testing.T) {
	leaves, def := Flatten(nil)
	if len(leaves) != 0 || def.Kind() != KindNil {
		t.Fatalf("nil tree: leaves=%v def=%s", leaves, def)
	}
	n, err := Unflatten(def, nil)
	if err != nil {
		t.Fatalf("unflatten: %v", err)
	}
	if KindOf(n) != KindNil {
		t.Fatalf("expected Nil, got %v", KindOf(n))
	}
}

func TestLeafPathsAndMapLeaves(t *testing.T) {
	n := FromGo([]any{map[string]any{"weights": 1, "bias": 2}})
	paths := LeafPaths(n)
	got := make([]string, len(paths))
	for i, p := range paths {
		got[i] = p.String()
	}
	if strings.Join(got, " ") != "0.bias 0.weights" {
		t.Fatalf("paths = %v", got)
	}

	doubled, err := MapLeaves(n, func(_ Path, v any) (any, error) { return v.(int) * 2, nil })
	if err != nil {
		t.Fatalf("map leaves: %v", err)
	}
	if got := Format(doubled, nil); got != "[{'bias': 4, 'weights': 2}]" {
		t.Fatalf("doubled = %s", got)
	}
}

type countingVisitor struct {
	BaseVisitor
	enters, exits int
}

func (c *countingVisitor) EnterSeq(Path, Seq) error { c.enters++; return nil }
func (c *countingVisitor) ExitSeq(Path, Seq) error { c.exits++; return nil }

func TestVisitBalancesEnterExit(t *testing.T) {
	v := &countingVisitor{}
	if err := Visit(Seq{Seq{Leaf{}}, Seq{}}, v); err != nil {
		t.Fatalf("visit: %v", err)
	}
	if v.enters != 3 || v.exits != 3 {
		t.Fatalf("enters=%d exits=%d, want 3/3", v.enters, v.exits)
	}
}
