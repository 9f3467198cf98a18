package fusion

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestFuseScalar(t *testing.T) {
	// Equal variances: fused value is the mean, variance halves.
	x, p := FuseScalar(10, 4, 12, 4)
	assert.InDelta(t, 11.0, x, 1e-12)
	assert.InDelta(t, 2.0, p, 1e-12)

	// A precise measurement dominates an uncertain prediction.
	x, p = FuseScalar(10, 100, 12, 0.01)
	assert.InDelta(t, 12.0, x, 0.01)
	assert.Less(t, p, 0.01)

	// Degenerate zero-variance case keeps the prediction.
	x, p = FuseScalar(10, 0, 12, 0)
	assert.Equal(t, 10.0, x)
	assert.Equal(t, 0.0, p)
}

func TestFuseScalar_VarianceOptimality(t *testing.T) {
	// Fused variance is never worse than the best input, over a grid of
	// variance combinations.
	for _, p := range []float64{0.1, 1, 5, 50} {
		for _, r := range []float64{0.1, 1, 5, 50} {
			_, fused := FuseScalar(1, p, 2, r)
			assert.LessOrEqualf(t, fused, math.Min(p, r)+1e-12, "p=%g r=%g", p, r)
		}
	}
}

func TestFuse_IdentityObservation(t *testing.T) {
	pred := Estimate{
		X: mat.NewVecDense(2, []float64{1, 2}),
		P: mat.NewDense(2, 2, []float64{4, 0, 0, 4}),
	}
	z := mat.NewVecDense(2, []float64{3, 2})
	R := mat.NewDense(2, 2, []float64{4, 0, 0, 4})
	H := mat.NewDense(2, 2, []float64{1, 0, 0, 1})

	got, err := Fuse(pred, z, R, H)
	require.NoError(t, err)

	// With equal diagonal covariances the result is the element-wise mean.
	assert.InDelta(t, 2.0, got.X.AtVec(0), 1e-12)
	assert.InDelta(t, 2.0, got.X.AtVec(1), 1e-12)
	assert.InDelta(t, 2.0, got.P.At(0, 0), 1e-12)
	assert.InDelta(t, 2.0, got.P.At(1, 1), 1e-12)

	// Inputs untouched.
	assert.Equal(t, 1.0, pred.X.AtVec(0))
	assert.Equal(t, 4.0, pred.P.At(0, 0))
}

func TestFuse_PartialObservation(t *testing.T) {
	// Two-state system where only the first state is measured.
	pred := Estimate{
		X: mat.NewVecDense(2, []float64{5, 1}),
		P: mat.NewDense(2, 2, []float64{2, 1, 1, 2}),
	}
	z := mat.NewVecDense(1, []float64{6})
	R := mat.NewDense(1, 1, []float64{2})
	H := mat.NewDense(1, 2, []float64{1, 0})

	got, err := Fuse(pred, z, R, H)
	require.NoError(t, err)

	// K = P Hᵗ (HPHᵗ+R)⁻¹ = [2;1]/4 = [0.5; 0.25]
	assert.InDelta(t, 5.5, got.X.AtVec(0), 1e-12)
	assert.InDelta(t, 1.25, got.X.AtVec(1), 1e-12)

	// Measured-state variance shrinks below both inputs.
	assert.Less(t, got.P.At(0, 0), 2.0)
}

func TestFuse_DimensionMismatch(t *testing.T) {
	pred := Estimate{
		X: mat.NewVecDense(2, []float64{1, 2}),
		P: mat.NewDense(2, 2, nil),
	}
	z := mat.NewVecDense(1, []float64{1})
	R := mat.NewDense(1, 1, []float64{1})
	H := mat.NewDense(1, 3, []float64{1, 0, 0}) // wrong column count

	_, err := Fuse(pred, z, R, H)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}
