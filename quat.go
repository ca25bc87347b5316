package msckf

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Quat is a unit quaternion orientation variable in JPL convention, stored
// as (x, y, z, w) with a multiplicative update rule on its 3 dimensional
// tangent space.
type Quat struct {
	// id is the covariance offset
	id int
	// val is the quaternion value (x, y, z, w)
	val *mat.VecDense
}

// NewQuat creates a new identity orientation variable and returns it.
func NewQuat() *Quat {
	return &Quat{
		id:  -1,
		val: mat.NewVecDense(4, []float64{0, 0, 0, 1}),
	}
}

// ID returns the variable offset in the joint covariance.
func (q *Quat) ID() int { return q.id }

// SetID sets the variable offset in the joint covariance.
func (q *Quat) SetID(id int) { q.id = id }

// Dim returns the tangent space dimension of the orientation.
func (q *Quat) Dim() int { return 3 }

// Value returns a copy of the quaternion as (x, y, z, w).
func (q *Quat) Value() mat.Vector {
	val := &mat.VecDense{}
	val.CloneFromVec(q.val)

	return val
}

// Set sets the quaternion given as (x, y, z, w). val is expected to have
// unit norm. It panics if val is not 4 dimensional.
func (q *Quat) Set(val mat.Vector) {
	if val.Len() != 4 {
		panic(mat.ErrShape)
	}
	q.val.CopyVec(val)
}

// Update applies the correction dx to the orientation: the error quaternion
// built from half of dx is multiplied onto the current value.
// It panics if dx is not 3 dimensional.
func (q *Quat) Update(dx mat.Vector) {
	if dx.Len() != 3 {
		panic(mat.ErrShape)
	}
	dq := quatNorm([4]float64{0.5 * dx.AtVec(0), 0.5 * dx.AtVec(1), 0.5 * dx.AtVec(2), 1})
	val := quatMul(dq, [4]float64{q.val.AtVec(0), q.val.AtVec(1), q.val.AtVec(2), q.val.AtVec(3)})
	for i := range val {
		q.val.SetVec(i, val[i])
	}
}

// RotationMatrix returns the rotation matrix of the orientation.
func (q *Quat) RotationMatrix() *mat.Dense {
	x, y, z, w := q.val.AtVec(0), q.val.AtVec(1), q.val.AtVec(2), q.val.AtVec(3)

	return mat.NewDense(3, 3, []float64{
		2*w*w - 1 + 2*x*x, 2*w*z + 2*x*y, -2*w*y + 2*x*z,
		-2*w*z + 2*x*y, 2*w*w - 1 + 2*y*y, 2*w*x + 2*y*z,
		2*w*y + 2*x*z, -2*w*x + 2*y*z, 2*w*w - 1 + 2*z*z,
	})
}

// Match returns the variable if v is the same variable and nil otherwise.
func (q *Quat) Match(v Variable) Variable {
	if v == Variable(q) {
		return q
	}

	return nil
}

// Clone returns a new variable with the same value and no offset assigned.
func (q *Quat) Clone() Variable {
	clone := NewQuat()
	clone.val.CopyVec(q.val)

	return clone
}

// quatMul returns the JPL product of the quaternions q and p, normalized
// with a positive scalar part.
func quatMul(q, p [4]float64) [4]float64 {
	return quatNorm([4]float64{
		q[3]*p[0] + q[2]*p[1] - q[1]*p[2] + q[0]*p[3],
		-q[2]*p[0] + q[3]*p[1] + q[0]*p[2] + q[1]*p[3],
		q[1]*p[0] - q[0]*p[1] + q[3]*p[2] + q[2]*p[3],
		-q[0]*p[0] - q[1]*p[1] - q[2]*p[2] + q[3]*p[3],
	})
}

// quatNorm normalizes the quaternion q and flips its sign so the scalar
// part is not negative.
func quatNorm(q [4]float64) [4]float64 {
	if q[3] < 0 {
		for i := range q {
			q[i] = -q[i]
		}
	}
	n := math.Sqrt(q[0]*q[0] + q[1]*q[1] + q[2]*q[2] + q[3]*q[3])
	for i := range q {
		q[i] /= n
	}

	return q
}
