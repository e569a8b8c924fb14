package examples

import (
	"irjax/internal/aval"
	"irjax/internal/ir"
	"irjax/internal/program"
	"irjax/internal/tree"
)

// ActivationExample is the example input of AqtDense.compute_simulated.
var ActivationExample = aval.Arange(30, aval.Float32).MustReshape(5, 6).Scale(1 / 10.4)

// DenseParams returns the parameters of the two dense layers.
func DenseParams() tree.Seq {
	return tree.Seq{
		denseLayer(aval.Arange(18, aval.Float32).MustReshape(6, 3).Scale(0.001), aval.Arange(3, aval.Float32).Scale(10)),
		denseLayer(aval.Arange(27, aval.Float32).MustReshape(3, 9).Scale(0.01), aval.Arange(9, aval.Float32).Scale(3)),
	}
}

func denseLayer(weights, bias aval.Array) tree.Map {
	return tree.Map{
		{Key: "weights", Value: tree.Leaf{Value: weights}},
		{Key: "bias", Value: tree.Leaf{Value: bias}},
		{Key: "activation_scale", Value: tree.Leaf{Value: mustArray(float32(5))}},
	}
}

// AqtDense simulates an 8-bit quantised two-layer dense network.
var AqtDense = program.MustRegister("AqtDenseModule", []program.Attr{
	{Name: "_params", Value: DenseParams()},
	{Name: "model", Value: program.Kernel(model)},
	{Name: "compute_simulated", Value: program.Def(computeSimulated,
		program.Self(), program.Positional("activation", program.Like(ActivationExample)))},
})

func computeSimulated(s *program.Scope, args program.Args) (any, error) {
	return s.Kernel("model", s.Global("_params"), args.Value(0))
}

func model(args program.Args) (any, error) {
	act := args.Value(1)
	for _, layer := range args.Tree(0).(tree.Seq) {
		act = dense(layer, act)
	}
	return act, nil
}

// dense quantises the activation and the weights to 8 bits, multiplies them
// and rescales the product.
func dense(params tree.Node, activation *ir.Value) *ir.Value {
	const precision = 8
	lowerBound := -(1 << (precision - 1)) + 1
	upperBound := 1<<(precision-1) - 1
	half := mustArray(float32(0.5))

	scale := program.Field(params, "activation_scale")
	weights := program.Field(params, "weights")

	activationClipped := activation.Mul(scale).Add(half).Floor().Clamp(lowerBound, upperBound)

	weightScale := ir.Div(upperBound, weights.Abs().ReduceMax())
	weightRounded := weights.Mul(weightScale).Add(half).Floor()

	scaledResult := activationClipped.Dot(weightRounded)
	matmulResult := scaledResult.Div(scale.Mul(weightScale))
	return matmulResult.Add(program.Field(params, "bias").ExpandDims(0))
}
