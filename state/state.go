package state

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"

	msckf "github.com/milosgajdos/go-msckf"
	"github.com/milosgajdos/go-msckf/estimate"
	"github.com/milosgajdos/go-msckf/matrix"
)

// Options holds the state feature flags.
type Options struct {
	// CalibrateTimeOffset enables camera to IMU time offset calibration.
	CalibrateTimeOffset bool
}

// State is the joint state of the filter: the ordered set of active state
// variables and their joint covariance. Every active variable occupies the
// covariance rows and columns [ID, ID+Dim) and the active ranges cover the
// covariance without gaps or overlaps. Only the upper triangle of the
// covariance is authoritative during updates and is mirrored into the lower
// triangle afterwards.
//
// State is not safe for concurrent use: callers have to serialize all
// operations against a given State.
type State struct {
	// timestamp is the time the state estimate refers to
	timestamp float64
	// cov is the joint covariance of the active variables
	cov *mat.Dense
	// vars are the active variables in insertion order
	vars []msckf.Variable
	// imu is the inertial state block
	imu *msckf.IMU
	// calibDt is the camera to IMU time offset, nil if calibration is off
	calibDt *msckf.Vec
	// clones are the sliding window pose clones keyed by timestamp
	clones map[float64]*msckf.Pose
	// cloneTimes are the clone timestamps in insertion order
	cloneTimes []float64
	// landmarks are the initialized landmarks keyed by feature id
	landmarks map[uint64]*msckf.Landmark
	// opts are the state feature flags
	opts Options
}

// New creates a new state with the inertial block and, if time offset
// calibration is enabled, the camera to IMU time offset variable active at
// zero covariance, and returns it. Prior values and covariance are seeded
// through the setters before the first update.
func New(opts Options) *State {
	s := &State{
		clones:    make(map[float64]*msckf.Pose),
		landmarks: make(map[uint64]*msckf.Landmark),
		opts:      opts,
	}

	s.imu = msckf.NewIMU()
	s.imu.SetID(0)
	s.vars = append(s.vars, s.imu)

	dim := s.imu.Dim()
	if opts.CalibrateTimeOffset {
		s.calibDt = msckf.NewVec(1)
		s.calibDt.SetID(dim)
		s.vars = append(s.vars, s.calibDt)
		dim += s.calibDt.Dim()
	}
	s.cov = mat.NewDense(dim, dim, nil)

	return s
}

// Timestamp returns the time the state estimate refers to.
func (s *State) Timestamp() float64 { return s.timestamp }

// SetTimestamp sets the time the state estimate refers to.
func (s *State) SetTimestamp(t float64) { s.timestamp = t }

// Dim returns the joint covariance dimension.
func (s *State) Dim() int {
	r, _ := s.cov.Dims()
	return r
}

// Cov returns a copy of the joint covariance.
func (s *State) Cov() *mat.Dense {
	return mat.DenseCopyOf(s.cov)
}

// SetCov sets the joint covariance. cov is expected to be symmetric.
// It returns error if cov dimensions do not match the state dimension.
func (s *State) SetCov(cov mat.Matrix) error {
	r, c := cov.Dims()
	if r != s.Dim() || c != s.Dim() {
		return fmt.Errorf("invalid covariance dimensions: %dx%d", r, c)
	}
	s.cov.Copy(cov)

	return nil
}

// Variables returns the active state variables in insertion order.
func (s *State) Variables() []msckf.Variable {
	vars := make([]msckf.Variable, len(s.vars))
	copy(vars, s.vars)

	return vars
}

// IMU returns the inertial state variable.
func (s *State) IMU() *msckf.IMU { return s.imu }

// TimeOffset returns the camera to IMU time offset variable, nil if time
// offset calibration is disabled.
func (s *State) TimeOffset() *msckf.Vec { return s.calibDt }

// CloneAt returns the pose clone registered at timestamp ts, nil if there
// is none.
func (s *State) CloneAt(ts float64) *msckf.Pose { return s.clones[ts] }

// Clones returns the sliding window pose clones keyed by their timestamps.
func (s *State) Clones() map[float64]*msckf.Pose {
	clones := make(map[float64]*msckf.Pose, len(s.clones))
	for ts, p := range s.clones {
		clones[ts] = p
	}

	return clones
}

// CloneTimestamps returns the timestamps of the registered pose clones in
// ascending order.
func (s *State) CloneTimestamps() []float64 {
	ts := make([]float64, len(s.cloneTimes))
	copy(ts, s.cloneTimes)
	sort.Float64s(ts)

	return ts
}

// LandmarkAt returns the landmark variable of the given feature, nil if the
// feature has not been initialized.
func (s *State) LandmarkAt(feature uint64) *msckf.Landmark { return s.landmarks[feature] }

// Landmarks returns the initialized landmark variables keyed by their
// feature ids.
func (s *State) Landmarks() map[uint64]*msckf.Landmark {
	landmarks := make(map[uint64]*msckf.Landmark, len(s.landmarks))
	for f, l := range s.landmarks {
		landmarks[f] = l
	}

	return landmarks
}

// MarginalCov returns the marginal covariance of the given ordered variables.
// It returns error if any of the variables is not active in the state.
func (s *State) MarginalCov(order []msckf.Variable) (*mat.Dense, error) {
	dim := 0
	for _, v := range order {
		if !s.active(v) {
			return nil, fmt.Errorf("marginal covariance: %w", msckf.ErrMissingVariable)
		}
		dim += v.Dim()
	}

	small := mat.NewDense(dim, dim, nil)
	ri := 0
	for _, vi := range order {
		ci := 0
		for _, vj := range order {
			matrix.SetBlock(small, ri, ci, s.cov.Slice(vi.ID(), vi.ID()+vi.Dim(), vj.ID(), vj.ID()+vj.Dim()))
			ci += vj.Dim()
		}
		ri += vi.Dim()
	}

	return small, nil
}

// Estimate returns the joint estimate of the given variables: their stacked
// values and marginal covariance. Called without variables it returns the
// estimate of the whole state. It returns error if any of the variables is
// not active in the state.
func (s *State) Estimate(vars ...msckf.Variable) (*estimate.Joint, error) {
	if len(vars) == 0 {
		vars = s.vars
	}

	cov, err := s.MarginalCov(vars)
	if err != nil {
		return nil, err
	}

	vals := make([]mat.Vector, len(vars))
	dim := 0
	for i, v := range vars {
		vals[i] = v.Value()
		dim += vals[i].Len()
	}

	val := mat.NewVecDense(dim, nil)
	i := 0
	for _, x := range vals {
		for j := 0; j < x.Len(); j++ {
			val.SetVec(i, x.AtVec(j))
			i++
		}
	}

	return estimate.NewJoint(val, cov)
}

// active reports whether v is an active variable or sub-variable of the
// state with a covariance range consistent with the state dimension.
func (s *State) active(v msckf.Variable) bool {
	if v == nil || v.ID() < 0 || v.ID()+v.Dim() > s.Dim() {
		return false
	}
	for _, w := range s.vars {
		if w.Match(v) != nil {
			return true
		}
	}

	return false
}

// activate assigns v the trailing covariance offset, appends it to the
// active variables and swaps in the grown covariance.
func (s *State) activate(v msckf.Variable, cov *mat.Dense) {
	v.SetID(s.Dim())
	s.vars = append(s.vars, v)
	s.cov = cov
}

// applyDelta distributes the correction dx to every active variable by its
// covariance range.
func (s *State) applyDelta(dx *mat.VecDense) {
	for _, v := range s.vars {
		v.Update(dx.SliceVec(v.ID(), v.ID()+v.Dim()))
	}
}
