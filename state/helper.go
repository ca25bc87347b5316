package state

import (
	"fmt"

	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	msckf "github.com/milosgajdos/go-msckf"
	"github.com/milosgajdos/go-msckf/matrix"
)

// Clone clones the active variable matching target and appends it to the
// state: the covariance grows by a trailing block carrying the self
// covariance of the matched variable and its cross covariance against every
// active variable, and the clone is activated at the new offset. The match
// may be a sub-variable of a composite variable. It returns the new
// variable.
//
// It returns error wrapping msckf.ErrMissingVariable if no active variable
// matches target.
func Clone(s *State, target msckf.Variable) (msckf.Variable, error) {
	var src msckf.Variable
	for _, v := range s.vars {
		if m := v.Match(target); m != nil {
			src = m
			break
		}
	}
	if src == nil {
		return nil, fmt.Errorf("clone: %w", msckf.ErrMissingVariable)
	}

	old := s.cov
	dim, d, loc := s.Dim(), src.Dim(), src.ID()

	grown := s.cov.Grow(d, d).(*mat.Dense)
	matrix.SetBlock(grown, dim, 0, old.Slice(loc, loc+d, 0, dim))
	matrix.SetBlock(grown, 0, dim, old.Slice(0, dim, loc, loc+d))
	matrix.SetBlock(grown, dim, dim, old.Slice(loc, loc+d, loc, loc+d))

	clone := src.Clone()
	s.activate(clone, grown)

	return clone, nil
}

// EKFUpdate fuses a measurement into the state. hOrder lists the variables
// the measurement depends on, H is the condensed Jacobian with its columns
// partitioned to the hOrder variables in order, res is the measurement
// residual and R the measurement noise covariance.
//
// The Kalman gain numerator is projected through the full covariance so
// variables correlated with the measured ones are corrected too. The
// innovation covariance is assembled on its upper triangle and inverted
// through its Cholesky factorization. The covariance downdate is applied to
// the upper triangle and mirrored, and the correction is applied to every
// active variable through its own update rule.
//
// It panics with mat.ErrShape if the Jacobian, residual and noise dimensions
// do not agree. It returns error wrapping msckf.ErrMissingVariable if an
// hOrder variable is not active, or wrapping msckf.ErrNotPositiveDefinite if
// the innovation covariance cannot be factorized; in both cases the state is
// left unchanged so the filter keeps its prior.
func EKFUpdate(s *State, hOrder []msckf.Variable, H *mat.Dense, res mat.Vector, R mat.Symmetric) error {
	rows, cols := H.Dims()
	if res.Len() != rows || R.SymmetricDim() != rows {
		panic(mat.ErrShape)
	}
	dim, err := hOrderDim(s, hOrder)
	if err != nil {
		return err
	}
	if cols != dim {
		panic(mat.ErrShape)
	}

	mA := gainNumerator(s, hOrder, H)

	pSmall, err := s.MarginalCov(hOrder)
	if err != nil {
		return err
	}

	// innovation covariance S = H*P*H^T + R assembled on the upper triangle
	hp := mat.NewDense(rows, dim, nil)
	hp.Mul(H, pSmall)
	S := mat.NewSymDense(rows, nil)
	for i := 0; i < rows; i++ {
		for j := i; j < rows; j++ {
			S.SetSym(i, j, floats.Dot(hp.RawRowView(i), H.RawRowView(j))+R.At(i, j))
		}
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(S); !ok {
		return fmt.Errorf("innovation covariance: %w", msckf.ErrNotPositiveDefinite)
	}
	var sInv mat.SymDense
	if err := chol.InverseTo(&sInv); err != nil {
		return fmt.Errorf("innovation covariance: %w", msckf.ErrNotPositiveDefinite)
	}

	n := s.Dim()
	K := mat.NewDense(n, rows, nil)
	K.Mul(mA, &sInv)

	// Cov -= K*M_a^T on the upper triangle, then mirror
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			s.cov.Set(i, j, s.cov.At(i, j)-floats.Dot(K.RawRowView(i), mA.RawRowView(j)))
		}
	}
	matrix.SymmetrizeUpper(s.cov)

	dx := mat.NewVecDense(n, nil)
	dx.MulVec(K, res)
	s.applyDelta(dx)

	return nil
}

// InvertibleInitialize initializes the new variable v into the state from a
// measurement whose Jacobian HL with respect to v is square and invertible.
// hOrder lists the existing variables the measurement depends on, HR is the
// condensed Jacobian with respect to them, res the residual and R the
// measurement noise covariance. The new self covariance block and the cross
// covariance against the existing variables are formed in closed form and
// the scaled residual updates only the new variable: the information about
// the existing variables is already absorbed in the cross terms.
//
// It panics with mat.ErrShape if HL is not square with side equal to the
// dimension of v, or if the Jacobian, residual and noise dimensions do not
// agree. It returns error if v is already active, if an hOrder variable is
// not active, or, wrapping msckf.ErrNotPositiveDefinite, if HL cannot be
// inverted. On error the state is left unchanged.
func InvertibleInitialize(s *State, v msckf.Variable, hOrder []msckf.Variable, HR, HL *mat.Dense, R mat.Symmetric, res mat.Vector) error {
	rows, cols := HL.Dims()
	if rows != cols || rows != v.Dim() {
		panic(mat.ErrShape)
	}
	hrRows, hrCols := HR.Dims()
	if hrRows != rows || res.Len() != rows || R.SymmetricDim() != rows {
		panic(mat.ErrShape)
	}
	if v.ID() >= 0 {
		return fmt.Errorf("variable already active at offset %d", v.ID())
	}
	dim, err := hOrderDim(s, hOrder)
	if err != nil {
		return err
	}
	if hrCols != dim {
		panic(mat.ErrShape)
	}

	var hlInv mat.Dense
	if err := hlInv.Inverse(HL); err != nil {
		return fmt.Errorf("initializing jacobian: %w", msckf.ErrNotPositiveDefinite)
	}

	mA := gainNumerator(s, hOrder, HR)

	pSmall, err := s.MarginalCov(hOrder)
	if err != nil {
		return err
	}

	// M = HR*P*HR^T + R
	hp := mat.NewDense(rows, dim, nil)
	hp.Mul(HR, pSmall)
	M := mat.NewDense(rows, rows, nil)
	M.Mul(hp, HR.T())
	M.Add(M, R)

	// new self covariance HLinv*M*HLinv^T, cross covariance -M_a*HLinv^T
	tmp := mat.NewDense(rows, rows, nil)
	tmp.Mul(&hlInv, M)
	pLL := mat.NewDense(rows, rows, nil)
	pLL.Mul(tmp, hlInv.T())

	n := s.Dim()
	cross := mat.NewDense(n, rows, nil)
	cross.Mul(mA, hlInv.T())
	cross.Scale(-1, cross)

	grown := s.cov.Grow(rows, rows).(*mat.Dense)
	matrix.SetBlock(grown, 0, n, cross)
	matrix.SetBlock(grown, n, n, pLL)
	matrix.SymmetrizeUpper(grown)

	dx := mat.NewVecDense(rows, nil)
	dx.MulVec(&hlInv, res)
	v.Update(dx)

	s.activate(v, grown)
	if l, ok := v.(*msckf.Landmark); ok {
		s.landmarks[l.FeatureID()] = l
	}

	return nil
}

// Initialize initializes the new variable v into the state from a
// measurement batch whose Jacobian HL with respect to v has at least as
// many rows as the dimension of v. A sequence of Givens rotations drives HL
// to upper triangular form, every rotation applied identically to HR and
// the residual. The first Dim(v) rows then carry a square invertible system
// that initializes v through InvertibleInitialize while the remaining rows
// carry no weight on v anymore and update the existing variables through
// EKFUpdate. R is assumed isotropic, which keeps it invariant under the
// rotations, and is partitioned block diagonally between the two row
// groups. The inputs are left unmodified.
//
// It panics with mat.ErrShape if HL does not have exactly Dim(v) columns or
// has fewer rows, or if the Jacobian, residual and noise dimensions do not
// agree. It returns error if v is already active, if an hOrder variable is
// not active, or, wrapping msckf.ErrNotPositiveDefinite, on a factorization
// failure. An error from the updating rows leaves the initialization of v
// in place and only that update rejected.
func Initialize(s *State, v msckf.Variable, hOrder []msckf.Variable, HR, HL *mat.Dense, R mat.Symmetric, res mat.Vector) error {
	rows, cols := HL.Dims()
	d := v.Dim()
	if cols != d || rows < d {
		panic(mat.ErrShape)
	}
	hrRows, hrCols := HR.Dims()
	if hrRows != rows || res.Len() != rows || R.SymmetricDim() != rows {
		panic(mat.ErrShape)
	}
	if v.ID() >= 0 {
		return fmt.Errorf("variable already active at offset %d", v.ID())
	}

	// rotate copies so the caller inputs stay intact
	hl := mat.DenseCopyOf(HL)
	hr := mat.DenseCopyOf(HR)
	r := &mat.VecDense{}
	r.CloneFromVec(res)

	for j := 0; j < cols; j++ {
		for i := rows - 1; i > j; i-- {
			c, sn, _, _ := blas64.Rotg(hl.At(i-1, j), hl.At(i, j))
			matrix.RotateRows(hl, i-1, i, c, sn)
			matrix.RotateRows(hr, i-1, i, c, sn)
			matrix.RotateVec(r, i-1, i, c, sn)
		}
	}

	// initializing system: the first d rows now hold an invertible square
	// Jacobian with respect to v
	hlInit := hl.Slice(0, d, 0, d).(*mat.Dense)
	hrInit := hr.Slice(0, d, 0, hrCols).(*mat.Dense)
	rInit := mat.NewVecDense(d, nil)
	rInit.CopyVec(r.SliceVec(0, d))
	RInit := mat.NewSymDense(d, nil)
	for i := 0; i < d; i++ {
		for j := i; j < d; j++ {
			RInit.SetSym(i, j, R.At(i, j))
		}
	}

	if err := InvertibleInitialize(s, v, hOrder, hrInit, hlInit, RInit, rInit); err != nil {
		return err
	}

	// updating system: the remaining rows constrain the existing variables
	if rows > d {
		hUp := hr.Slice(d, rows, 0, hrCols).(*mat.Dense)
		rUp := mat.NewVecDense(rows-d, nil)
		rUp.CopyVec(r.SliceVec(d, rows))
		RUp := mat.NewSymDense(rows-d, nil)
		for i := 0; i < rows-d; i++ {
			for j := i; j < rows-d; j++ {
				RUp.SetSym(i, j, R.At(d+i, d+j))
			}
		}
		return EKFUpdate(s, hOrder, hUp, rUp, RUp)
	}

	return nil
}

// AugmentClone clones the current IMU pose into the sliding window and
// registers the clone at the state timestamp. lastW is the angular velocity
// estimate at clone time. With time offset calibration enabled the clone is
// modeled to first order as a function of the time offset with sensitivity
// (lastW, velocity), and the covariance is augmented with the matching
// cross and self terms. It returns the new pose clone.
//
// It panics with mat.ErrShape if lastW is not 3 dimensional. It returns
// error if a clone is already registered at the state timestamp or if the
// cloned variable is not a pose.
func AugmentClone(s *State, lastW mat.Vector) (*msckf.Pose, error) {
	if lastW.Len() != 3 {
		panic(mat.ErrShape)
	}
	ts := s.Timestamp()
	if _, ok := s.clones[ts]; ok {
		return nil, fmt.Errorf("clone already registered at timestamp %v", ts)
	}

	cloned, err := Clone(s, s.imu.Pose())
	if err != nil {
		return nil, err
	}
	pose, ok := cloned.(*msckf.Pose)
	if !ok {
		return nil, fmt.Errorf("cloned variable is not a pose: %T", cloned)
	}

	s.clones[ts] = pose
	s.cloneTimes = append(s.cloneTimes, ts)

	if !s.opts.CalibrateTimeOffset {
		return pose, nil
	}

	// first order sensitivity of the clone to the time offset: rotational
	// part from the angular velocity, translational part from the velocity
	sens := mat.NewVecDense(pose.Dim(), nil)
	vel := s.imu.Velocity().Value()
	for i := 0; i < 3; i++ {
		sens.SetVec(i, lastW.AtVec(i))
		sens.SetVec(3+i, vel.AtVec(i))
	}

	n := s.Dim()
	tID := s.calibDt.ID()
	pID := pose.ID()
	pd := pose.Dim()
	col := mat.NewVecDense(n, mat.Col(nil, tID, s.cov))
	dtVar := s.cov.At(tID, tID)

	var cross mat.Dense
	cross.Outer(1, col, sens)
	strip := s.cov.Slice(0, n, pID, pID+pd).(*mat.Dense)
	strip.Add(strip, &cross)

	var crossT mat.Dense
	crossT.Outer(1, sens, col)
	strip = s.cov.Slice(pID, pID+pd, 0, n).(*mat.Dense)
	strip.Add(strip, &crossT)

	var self mat.Dense
	self.Outer(dtVar, sens, sens)
	strip = s.cov.Slice(pID, pID+pd, pID, pID+pd).(*mat.Dense)
	strip.Add(strip, &self)

	matrix.SymmetrizeUpper(s.cov)

	return pose, nil
}

// hOrderDim returns the summed dimension of the hOrder variables.
// It returns error if any of them is not active in the state.
func hOrderDim(s *State, hOrder []msckf.Variable) (int, error) {
	dim := 0
	for _, v := range hOrder {
		if !s.active(v) {
			return 0, fmt.Errorf("measurement variable: %w", msckf.ErrMissingVariable)
		}
		dim += v.Dim()
	}

	return dim, nil
}

// gainNumerator assembles the Kalman gain numerator Cov*H^T from the
// condensed Jacobian blocks, one block row per active variable.
func gainNumerator(s *State, hOrder []msckf.Variable, H *mat.Dense) *mat.Dense {
	rows, _ := H.Dims()
	n := s.Dim()

	off := make([]int, len(hOrder))
	c := 0
	for i, v := range hOrder {
		off[i] = c
		c += v.Dim()
	}

	mA := mat.NewDense(n, rows, nil)
	for _, v := range s.vars {
		mI := mat.NewDense(v.Dim(), rows, nil)
		tmp := mat.NewDense(v.Dim(), rows, nil)
		for i, mv := range hOrder {
			pb := s.cov.Slice(v.ID(), v.ID()+v.Dim(), mv.ID(), mv.ID()+mv.Dim())
			hb := H.Slice(0, rows, off[i], off[i]+mv.Dim())
			tmp.Mul(pb, hb.T())
			mI.Add(mI, tmp)
		}
		matrix.SetBlock(mA, v.ID(), 0, mI)
	}

	return mA
}
