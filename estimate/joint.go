package estimate

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Joint is a joint estimate of a set of state variables
type Joint struct {
	// val is the stacked variable values
	val *mat.VecDense
	// cov is the marginal covariance of the variables
	cov *mat.SymDense
}

// NewJoint returns a joint estimate given the stacked variable values and
// their marginal covariance. The value dimension may exceed the covariance
// dimension because orientation variables carry more value elements than
// minimal coordinates. It returns error if cov is not square or if it has
// more rows than the value has elements.
func NewJoint(val mat.Vector, cov mat.Matrix) (*Joint, error) {
	r, c := cov.Dims()
	if r == 0 || r != c {
		return nil, fmt.Errorf("invalid covariance dimensions: %dx%d", r, c)
	}
	if val == nil || val.Len() < r {
		return nil, fmt.Errorf("invalid value dimension for %dx%d covariance", r, c)
	}

	v := &mat.VecDense{}
	v.CloneFromVec(val)

	sym := mat.NewSymDense(r, nil)
	for i := 0; i < r; i++ {
		for j := i; j < r; j++ {
			sym.SetSym(i, j, cov.At(i, j))
		}
	}

	return &Joint{
		val: v,
		cov: sym,
	}, nil
}

// Val returns the estimated value
func (j *Joint) Val() mat.Vector {
	v := &mat.VecDense{}
	v.CloneFromVec(j.val)

	return v
}

// Cov returns the covariance estimate
func (j *Joint) Cov() mat.Symmetric {
	cov := mat.NewSymDense(j.cov.SymmetricDim(), nil)
	cov.CopySym(j.cov)

	return cov
}
