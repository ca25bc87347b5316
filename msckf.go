// Package msckf provides the state representation and the covariance engine
// of an Extended Kalman Filter for visual-inertial estimation.
package msckf

import (
	"errors"

	"gonum.org/v1/gonum/mat"
)

// Variable is a single block of filter state. It occupies a contiguous range
// of rows and columns of the joint covariance and carries its own update
// rule on its minimal coordinates.
type Variable interface {
	// ID returns the variable offset in the joint covariance, -1 if the
	// variable is not active
	ID() int
	// SetID sets the variable offset in the joint covariance
	SetID(id int)
	// Dim returns the dimension of the variable minimal representation
	Dim() int
	// Value returns a copy of the variable value
	Value() mat.Vector
	// Update applies a minimal coordinate correction to the variable value
	Update(dx mat.Vector)
	// Match returns the variable or its sub-variable representing the same
	// quantity as v, nil if there is none
	Match(v Variable) Variable
	// Clone returns a new variable with the same value and no offset assigned
	Clone() Variable
}

var (
	// ErrMissingVariable is returned when a variable is not active in the state.
	ErrMissingVariable = errors.New("missing state variable")
	// ErrNotPositiveDefinite is returned when a matrix factorization or
	// inversion fails because the matrix is singular or not positive definite.
	ErrNotPositiveDefinite = errors.New("matrix not positive definite")
)
