package msckf

import "gonum.org/v1/gonum/mat"

// Vec is a vector state variable with an additive update rule.
type Vec struct {
	// id is the covariance offset
	id int
	// val is the variable value
	val *mat.VecDense
}

// NewVec creates a new zero vector variable of dimension dim and returns it.
// It panics if dim is not positive.
func NewVec(dim int) *Vec {
	return &Vec{
		id:  -1,
		val: mat.NewVecDense(dim, nil),
	}
}

// ID returns the variable offset in the joint covariance.
func (v *Vec) ID() int { return v.id }

// SetID sets the variable offset in the joint covariance.
func (v *Vec) SetID(id int) { v.id = id }

// Dim returns the variable dimension.
func (v *Vec) Dim() int { return v.val.Len() }

// Value returns a copy of the variable value.
func (v *Vec) Value() mat.Vector {
	val := &mat.VecDense{}
	val.CloneFromVec(v.val)

	return val
}

// Set sets the variable value.
// It panics if val dimension does not match the variable dimension.
func (v *Vec) Set(val mat.Vector) {
	if val.Len() != v.val.Len() {
		panic(mat.ErrShape)
	}
	v.val.CopyVec(val)
}

// Update adds the correction dx to the variable value.
// It panics if dx dimension does not match the variable dimension.
func (v *Vec) Update(dx mat.Vector) {
	if dx.Len() != v.val.Len() {
		panic(mat.ErrShape)
	}
	v.val.AddVec(v.val, dx)
}

// Match returns the variable if q is the same variable and nil otherwise.
func (v *Vec) Match(q Variable) Variable {
	if q == Variable(v) {
		return v
	}

	return nil
}

// Clone returns a new variable with the same value and no offset assigned.
func (v *Vec) Clone() Variable {
	clone := NewVec(v.val.Len())
	clone.val.CopyVec(v.val)

	return clone
}
