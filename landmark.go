package msckf

import "gonum.org/v1/gonum/mat"

// Landmark is a 3 dimensional feature position variable with an additive
// update rule, tagged with the id of the tracked feature it estimates.
type Landmark struct {
	// id is the covariance offset
	id int
	// feature is the tracked feature id
	feature uint64
	// val is the feature position
	val *mat.VecDense
}

// NewLandmark creates a new zero position landmark variable for the given
// feature and returns it.
func NewLandmark(feature uint64) *Landmark {
	return &Landmark{
		id:      -1,
		feature: feature,
		val:     mat.NewVecDense(3, nil),
	}
}

// ID returns the variable offset in the joint covariance.
func (l *Landmark) ID() int { return l.id }

// SetID sets the variable offset in the joint covariance.
func (l *Landmark) SetID(id int) { l.id = id }

// Dim returns the variable dimension.
func (l *Landmark) Dim() int { return l.val.Len() }

// FeatureID returns the id of the tracked feature.
func (l *Landmark) FeatureID() uint64 { return l.feature }

// Value returns a copy of the feature position.
func (l *Landmark) Value() mat.Vector {
	val := &mat.VecDense{}
	val.CloneFromVec(l.val)

	return val
}

// Set sets the feature position.
// It panics if val is not 3 dimensional.
func (l *Landmark) Set(val mat.Vector) {
	if val.Len() != l.val.Len() {
		panic(mat.ErrShape)
	}
	l.val.CopyVec(val)
}

// Update adds the correction dx to the feature position.
// It panics if dx is not 3 dimensional.
func (l *Landmark) Update(dx mat.Vector) {
	if dx.Len() != l.val.Len() {
		panic(mat.ErrShape)
	}
	l.val.AddVec(l.val, dx)
}

// Match returns the variable if v is the same variable and nil otherwise.
func (l *Landmark) Match(v Variable) Variable {
	if v == Variable(l) {
		return l
	}

	return nil
}

// Clone returns a new landmark for the same feature with the same position
// and no offset assigned.
func (l *Landmark) Clone() Variable {
	clone := NewLandmark(l.feature)
	clone.val.CopyVec(l.val)

	return clone
}
