// Package fusion implements the linear minimum-variance state estimator used
// by agents that correct a model prediction with an external measurement.
//
// Given a prediction (x̂, P) and a measurement (z, R) related through the
// observation model H, the corrected estimate is
//
//	K  = P Hᵗ (H P Hᵗ + R)⁻¹
//	x  = x̂ + K (z − H x̂)
//	P' = (I − K H) P
//
// This is a plain function invoked by an agent from inside its own step or
// message handler; the kernel's only involvement is delivering the
// measurement message.
package fusion

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// ErrDimensionMismatch is returned when the operands do not conform.
var ErrDimensionMismatch = errors.New("fusion: dimension mismatch")

// Estimate is a state vector with its covariance.
type Estimate struct {
	X *mat.VecDense
	P *mat.Dense
}

// Fuse combines the predicted estimate with measurement z of covariance R
// observed through H, returning the corrected estimate. The inputs are not
// modified.
func Fuse(pred Estimate, z *mat.VecDense, R, H *mat.Dense) (Estimate, error) {
	n := pred.X.Len()
	m := z.Len()

	pr, pc := pred.P.Dims()
	hr, hc := H.Dims()
	rr, rc := R.Dims()
	if pr != n || pc != n || hr != m || hc != n || rr != m || rc != m {
		return Estimate{}, fmt.Errorf("%w: x %d, P %dx%d, H %dx%d, R %dx%d",
			ErrDimensionMismatch, n, pr, pc, hr, hc, rr, rc)
	}

	// S = H P Hᵗ + R
	var pht mat.Dense
	pht.Mul(pred.P, H.T())
	var s mat.Dense
	s.Mul(H, &pht)
	s.Add(&s, R)

	var sInv mat.Dense
	if err := sInv.Inverse(&s); err != nil {
		return Estimate{}, fmt.Errorf("fusion: innovation covariance not invertible: %w", err)
	}

	// K = P Hᵗ S⁻¹
	var k mat.Dense
	k.Mul(&pht, &sInv)

	// x = x̂ + K (z − H x̂)
	var hx mat.VecDense
	hx.MulVec(H, pred.X)
	var innovation mat.VecDense
	innovation.SubVec(z, &hx)
	var correction mat.VecDense
	correction.MulVec(&k, &innovation)
	x := mat.NewVecDense(n, nil)
	x.AddVec(pred.X, &correction)

	// P' = (I − K H) P
	var kh mat.Dense
	kh.Mul(&k, H)
	ikh := identity(n)
	ikh.Sub(ikh, &kh)
	p := mat.NewDense(n, n, nil)
	p.Mul(ikh, pred.P)

	return Estimate{X: x, P: p}, nil
}

// FuseScalar is the one-dimensional form with H = 1: x is the predicted
// value with variance p, z the measured value with variance r. The fused
// variance never exceeds min(p, r).
func FuseScalar(x, p, z, r float64) (float64, float64) {
	if p+r == 0 {
		// Both claim perfect knowledge; keep the prediction.
		return x, 0
	}
	k := p / (p + r)
	return x + k*(z-x), (1 - k) * p
}

func identity(n int) *mat.Dense {
	d := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		d.Set(i, i, 1)
	}
	return d
}
