package sim

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Config holds the trajectory generator configuration.
type Config struct {
	// Steps is the number of generated steps
	Steps int
	// Dt is the time between two steps in seconds
	Dt float64
	// Radius is the circle radius in meters
	Radius float64
	// Rate is the yaw rate around the circle in radians per second
	Rate float64
}

// Step is a single trajectory step: the ground truth of the simulated body
// at one point in time.
type Step struct {
	// Time is the step time in seconds
	Time float64
	// Orientation is the body orientation quaternion (x, y, z, w)
	Orientation mat.Vector
	// Position is the body position
	Position mat.Vector
	// Velocity is the body velocity
	Velocity mat.Vector
	// AngularRate is the body angular rate
	AngularRate mat.Vector
}

// Trajectory is a planar circular trajectory sampled at a fixed rate. The
// body yaw tracks the circle angle.
type Trajectory struct {
	// steps are the trajectory steps in time order
	steps []Step
}

// New creates a new circular trajectory from the given configuration and
// returns it. It returns error if the configuration is invalid.
func New(c Config) (*Trajectory, error) {
	if c.Steps <= 0 {
		return nil, fmt.Errorf("Invalid step count: %d", c.Steps)
	}
	if c.Dt <= 0 {
		return nil, fmt.Errorf("Invalid step time: %v", c.Dt)
	}
	if c.Radius <= 0 {
		return nil, fmt.Errorf("Invalid radius: %v", c.Radius)
	}

	steps := make([]Step, c.Steps)
	for i := range steps {
		t := float64(i) * c.Dt
		psi := c.Rate * t
		sin, cos := math.Sincos(psi)
		steps[i] = Step{
			Time:        t,
			Orientation: mat.NewVecDense(4, []float64{0, 0, math.Sin(psi / 2), math.Cos(psi / 2)}),
			Position:    mat.NewVecDense(3, []float64{c.Radius * cos, c.Radius * sin, 0}),
			Velocity:    mat.NewVecDense(3, []float64{-c.Radius * c.Rate * sin, c.Radius * c.Rate * cos, 0}),
			AngularRate: mat.NewVecDense(3, []float64{0, 0, c.Rate}),
		}
	}

	return &Trajectory{steps: steps}, nil
}

// Steps returns the trajectory steps in time order.
func (tr *Trajectory) Steps() []Step {
	steps := make([]Step, len(tr.steps))
	copy(steps, tr.steps)

	return steps
}

// At returns the trajectory step with index i.
// It panics if i is out of range.
func (tr *Trajectory) At(i int) Step { return tr.steps[i] }
