package msckf

import "gonum.org/v1/gonum/mat"

// IMU is the composite inertial state variable: pose, velocity and the
// gyroscope and accelerometer biases, addressed in the joint covariance as
// one 15 dimensional block.
type IMU struct {
	// id is the covariance offset
	id int
	// pose is the inertial pose
	pose *Pose
	// vel is the velocity
	vel *Vec
	// bg is the gyroscope bias
	bg *Vec
	// ba is the accelerometer bias
	ba *Vec
}

// NewIMU creates a new inertial state variable at identity pose with zero
// velocity and biases and returns it.
func NewIMU() *IMU {
	return &IMU{
		id:   -1,
		pose: NewPose(),
		vel:  NewVec(3),
		bg:   NewVec(3),
		ba:   NewVec(3),
	}
}

// ID returns the variable offset in the joint covariance.
func (u *IMU) ID() int { return u.id }

// SetID sets the variable offset and distributes it to the sub-variables:
// pose, velocity, gyroscope bias and accelerometer bias in that order.
func (u *IMU) SetID(id int) {
	u.id = id
	u.pose.SetID(id)
	if id == -1 {
		u.vel.SetID(id)
		u.bg.SetID(id)
		u.ba.SetID(id)
		return
	}
	u.vel.SetID(id + 6)
	u.bg.SetID(id + 9)
	u.ba.SetID(id + 12)
}

// Dim returns the variable dimension.
func (u *IMU) Dim() int {
	return u.pose.Dim() + u.vel.Dim() + u.bg.Dim() + u.ba.Dim()
}

// Value returns a copy of the inertial state value: the orientation
// quaternion (x, y, z, w), position, velocity, gyroscope bias and
// accelerometer bias.
func (u *IMU) Value() mat.Vector {
	val := mat.NewVecDense(16, nil)
	pose := u.pose.Value()
	for i := 0; i < pose.Len(); i++ {
		val.SetVec(i, pose.AtVec(i))
	}
	for i := 0; i < 3; i++ {
		val.SetVec(7+i, u.vel.val.AtVec(i))
		val.SetVec(10+i, u.bg.val.AtVec(i))
		val.SetVec(13+i, u.ba.val.AtVec(i))
	}

	return val
}

// Set sets the inertial state value given as the orientation quaternion
// (x, y, z, w), position, velocity, gyroscope bias and accelerometer bias.
// It panics if val is not 16 dimensional.
func (u *IMU) Set(val mat.Vector) {
	if val.Len() != 16 {
		panic(mat.ErrShape)
	}
	v := &mat.VecDense{}
	v.CloneFromVec(val)
	u.pose.Set(v.SliceVec(0, 7))
	u.vel.Set(v.SliceVec(7, 10))
	u.bg.Set(v.SliceVec(10, 13))
	u.ba.Set(v.SliceVec(13, 16))
}

// Update applies the correction dx to the inertial state, distributing it
// to the sub-variables by their offsets.
// It panics if dx is not 15 dimensional.
func (u *IMU) Update(dx mat.Vector) {
	if dx.Len() != u.Dim() {
		panic(mat.ErrShape)
	}
	v := &mat.VecDense{}
	v.CloneFromVec(dx)
	u.pose.Update(v.SliceVec(0, 6))
	u.vel.Update(v.SliceVec(6, 9))
	u.bg.Update(v.SliceVec(9, 12))
	u.ba.Update(v.SliceVec(12, 15))
}

// Pose returns the pose variable of the inertial state.
func (u *IMU) Pose() *Pose { return u.pose }

// Orientation returns the orientation variable of the inertial state.
func (u *IMU) Orientation() *Quat { return u.pose.Orientation() }

// Position returns the position variable of the inertial state.
func (u *IMU) Position() *Vec { return u.pose.Position() }

// Velocity returns the velocity variable of the inertial state.
func (u *IMU) Velocity() *Vec { return u.vel }

// BiasGyro returns the gyroscope bias variable of the inertial state.
func (u *IMU) BiasGyro() *Vec { return u.bg }

// BiasAccel returns the accelerometer bias variable of the inertial state.
func (u *IMU) BiasAccel() *Vec { return u.ba }

// Match returns the inertial state or its sub-variable representing the
// same quantity as v, nil if there is none.
func (u *IMU) Match(v Variable) Variable {
	if v == Variable(u) {
		return u
	}
	if m := u.pose.Match(v); m != nil {
		return m
	}
	if m := u.vel.Match(v); m != nil {
		return m
	}
	if m := u.bg.Match(v); m != nil {
		return m
	}

	return u.ba.Match(v)
}

// Clone returns a new inertial state variable with the same value and no
// offset assigned.
func (u *IMU) Clone() Variable {
	clone := NewIMU()
	clone.pose.q.val.CopyVec(u.pose.q.val)
	clone.pose.pos.val.CopyVec(u.pose.pos.val)
	clone.vel.val.CopyVec(u.vel.val)
	clone.bg.val.CopyVec(u.bg.val)
	clone.ba.val.CopyVec(u.ba.val)

	return clone
}
