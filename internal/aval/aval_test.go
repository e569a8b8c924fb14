package aval

import (
	"strings"
	"testing"

	"irjax/internal/tree"
)

func TestLikeScalarIsCanonicalInt32(t *testing.T) {
	zero, err := Asarray(0)
	if err != nil {
		t.Fatalf("asarray: %v", err)
	}
	if zero.DType() != Int64 {
		t.Fatalf("Go int should map to int64, got %v", zero.DType())
	}
	n, err := Abstractify(Like(zero))
	if err != nil {
		t.Fatalf("abstractify: %v", err)
	}
	leaf, ok := n.(tree.Leaf)
	if !ok {
		t.Fatalf("expected leaf, got %T", n)
	}
	if got := leaf.Value.(ShapedArray).String(); got != "ShapedArray(int32[])" {
		t.Fatalf("aval = %q", got)
	}
}

func TestShapedArrayString(t *testing.T) {
	a := Shaped(Float32, 5, 6)
	if got := a.String(); got != "ShapedArray(float32[5,6])" {
		t.Fatalf("got %q", got)
	}
}

func TestAbstractifyRejectsBareScalars(t *testing.T) {
	_, err := Abstractify(false)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "expected tree of abstract values but got: False") {
		t.Fatalf("unexpected message: %v", err)
	}
}

func TestAbstractifyTreeOfDescriptors(t *testing.T) {
	def := map[string]any{
		"w": Like(Arange(6, Float32).MustReshape(2, 3)),
		"b": Shaped(Float64, 3),
	}
	n, err := Abstractify(def)
	if err != nil {
		t.Fatalf("abstractify: %v", err)
	}
	got := tree.Format(n, FormatValue)
	want := "{'b': ShapedArray(float32[3]), 'w': ShapedArray(float32[2,3])}"
	if got != want {
		t.Fatalf("got %s, want %s", got, want)
	}
}

func TestAsarrayNested(t *testing.T) {
	a, err := Asarray([][]int32{{1, 2}, {3, 4}})
	if err != nil {
		t.Fatalf("asarray: %v", err)
	}
	if a.DType() != Int32 || !a.Shape().Equal(Shape{2, 2}) {
		t.Fatalf("unexpected aval %v", a.Aval())
	}
	if got := a.String(); got != "[[1 2]\n [3 4]]" {
		t.Fatalf("string = %q", got)
	}
}

func TestAsarrayRejectsRaggedAndObjects(t *testing.T) {
	if _, err := Asarray([][]int{{1}, {2, 3}}); err == nil {
		t.Fatalf("ragged slices should fail")
	}
	if _, err := Asarray(struct{}{}); err == nil {
		t.Fatalf("struct should fail")
	}
	if IsArrayLike("text") {
		t.Fatalf("strings are not array-like")
	}
}

func TestBroadcast(t *testing.T) {
	tests := []struct {
		a, b Shape
		want string
		err  bool
	}{
		{Shape{5, 9}, Shape{9}, "5,9", false},
		{Shape{1, 9}, Shape{5, 1}, "5,9", false},
		{nil, Shape{3}, "3", false},
		{Shape{2}, Shape{3}, "", true},
	}
	for _, tt := range tests {
		got, err := Broadcast(tt.a, tt.b)
		if tt.err {
			if err == nil {
				t.Fatalf("Broadcast(%v, %v): expected error", tt.a, tt.b)
			}
			continue
		}
		if err != nil {
			t.Fatalf("Broadcast(%v, %v): %v", tt.a, tt.b, err)
		}
		if got.String() != tt.want {
			t.Fatalf("Broadcast(%v, %v) = %s, want %s", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestScaleKeepsFloat32(t *testing.T) {
	a := Arange(3, Float32).Scale(0.5)
	if a.DType() != Float32 {
		t.Fatalf("dtype = %v", a.DType())
	}
	if got := a.String(); got != "[0.0 0.5 1.0]" {
		t.Fatalf("string = %q", got)
	}
}
