package matrix

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/gonum/mat"
)

func TestSetBlock(t *testing.T) {
	assert := assert.New(t)

	m := mat.NewDense(3, 3, nil)
	src := mat.NewDense(2, 2, []float64{1, 2, 3, 4})

	SetBlock(m, 1, 1, src)
	assert.InDelta(1, m.At(1, 1), 0)
	assert.InDelta(2, m.At(1, 2), 0)
	assert.InDelta(3, m.At(2, 1), 0)
	assert.InDelta(4, m.At(2, 2), 0)
	assert.InDelta(0, m.At(0, 0), 0)

	// block must fit into the destination
	assert.Panics(func() { SetBlock(m, 2, 2, src) })
}

func TestSymmetrizeUpper(t *testing.T) {
	assert := assert.New(t)

	m := mat.NewDense(3, 3, []float64{
		1, 2, 3,
		-1, 4, 5,
		-1, -1, 6,
	})

	SymmetrizeUpper(m)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			assert.InDelta(m.At(j, i), m.At(i, j), 0)
		}
	}
	assert.InDelta(2, m.At(1, 0), 0)
	assert.InDelta(3, m.At(2, 0), 0)
	assert.InDelta(5, m.At(2, 1), 0)

	assert.Panics(func() { SymmetrizeUpper(mat.NewDense(2, 3, nil)) })
}

func TestRotateRows(t *testing.T) {
	assert := assert.New(t)

	// a rotation with the coefficients from Rotg zeroes the paired entry
	m := mat.NewDense(2, 2, []float64{
		3, 1,
		4, 2,
	})
	c, s, r, _ := blas64.Rotg(m.At(0, 0), m.At(1, 0))

	RotateRows(m, 0, 1, c, s)
	assert.InDelta(5, r, 1e-12)
	assert.InDelta(5, m.At(0, 0), 1e-12)
	assert.InDelta(0, m.At(1, 0), 1e-12)

	// rotations preserve column norms: the second column was (1, 2)
	col := mat.NewVecDense(2, []float64{m.At(0, 1), m.At(1, 1)})
	assert.InDelta(mat.Norm(mat.NewVecDense(2, []float64{1, 2}), 2), mat.Norm(col, 2), 1e-12)
}

func TestRotateVec(t *testing.T) {
	assert := assert.New(t)

	v := mat.NewVecDense(3, []float64{3, 7, 4})
	c, s, _, _ := blas64.Rotg(3, 4)

	RotateVec(v, 0, 2, c, s)
	assert.InDelta(5, v.AtVec(0), 1e-12)
	assert.InDelta(0, v.AtVec(2), 1e-12)
	assert.InDelta(7, v.AtVec(1), 0)
}
