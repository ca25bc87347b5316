package msckf

import "gonum.org/v1/gonum/mat"

// Pose is a composite pose variable made of an orientation and a position.
// It is addressed in the joint covariance as one 6 dimensional block with
// the orientation first.
type Pose struct {
	// id is the covariance offset
	id int
	// q is the pose orientation
	q *Quat
	// pos is the pose position
	pos *Vec
}

// NewPose creates a new pose variable at identity orientation and zero
// position and returns it.
func NewPose() *Pose {
	return &Pose{
		id:  -1,
		q:   NewQuat(),
		pos: NewVec(3),
	}
}

// ID returns the variable offset in the joint covariance.
func (p *Pose) ID() int { return p.id }

// SetID sets the variable offset and distributes it to the pose sub-variables.
func (p *Pose) SetID(id int) {
	p.id = id
	p.q.SetID(id)
	if id == -1 {
		p.pos.SetID(id)
		return
	}
	p.pos.SetID(id + p.q.Dim())
}

// Dim returns the variable dimension.
func (p *Pose) Dim() int { return p.q.Dim() + p.pos.Dim() }

// Value returns a copy of the pose value: the orientation quaternion
// (x, y, z, w) followed by the position.
func (p *Pose) Value() mat.Vector {
	val := mat.NewVecDense(7, nil)
	for i := 0; i < 4; i++ {
		val.SetVec(i, p.q.val.AtVec(i))
	}
	for i := 0; i < 3; i++ {
		val.SetVec(4+i, p.pos.val.AtVec(i))
	}

	return val
}

// Set sets the pose value given as the orientation quaternion (x, y, z, w)
// followed by the position. It panics if val is not 7 dimensional.
func (p *Pose) Set(val mat.Vector) {
	if val.Len() != 7 {
		panic(mat.ErrShape)
	}
	v := &mat.VecDense{}
	v.CloneFromVec(val)
	p.q.Set(v.SliceVec(0, 4))
	p.pos.Set(v.SliceVec(4, 7))
}

// Update applies the correction dx to the pose: the first three elements
// drive the orientation update, the last three the position update.
// It panics if dx is not 6 dimensional.
func (p *Pose) Update(dx mat.Vector) {
	if dx.Len() != p.Dim() {
		panic(mat.ErrShape)
	}
	v := &mat.VecDense{}
	v.CloneFromVec(dx)
	p.q.Update(v.SliceVec(0, 3))
	p.pos.Update(v.SliceVec(3, 6))
}

// Orientation returns the orientation variable of the pose.
func (p *Pose) Orientation() *Quat { return p.q }

// Position returns the position variable of the pose.
func (p *Pose) Position() *Vec { return p.pos }

// Match returns the pose or its sub-variable representing the same quantity
// as v, nil if there is none.
func (p *Pose) Match(v Variable) Variable {
	if v == Variable(p) {
		return p
	}
	if m := p.q.Match(v); m != nil {
		return m
	}

	return p.pos.Match(v)
}

// Clone returns a new pose with the same value and no offset assigned.
func (p *Pose) Clone() Variable {
	clone := NewPose()
	clone.q.val.CopyVec(p.q.val)
	clone.pos.val.CopyVec(p.pos.val)

	return clone
}
