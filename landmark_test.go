package msckf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func TestNewLandmark(t *testing.T) {
	assert := assert.New(t)

	l := NewLandmark(42)
	assert.NotNil(l)
	assert.Equal(-1, l.ID())
	assert.Equal(3, l.Dim())
	assert.Equal(uint64(42), l.FeatureID())
}

func TestLandmarkUpdate(t *testing.T) {
	assert := assert.New(t)

	l := NewLandmark(42)
	l.Set(mat.NewVecDense(3, []float64{1, 2, 3}))
	l.Update(mat.NewVecDense(3, []float64{0.1, -0.2, 0.3}))

	assert.InDeltaSlice([]float64{1.1, 1.8, 3.3}, mat.Col(nil, 0, l.Value()), 1e-12)

	assert.Panics(func() { l.Update(mat.NewVecDense(2, nil)) })
	assert.Panics(func() { l.Set(mat.NewVecDense(4, nil)) })
}

func TestLandmarkMatchClone(t *testing.T) {
	assert := assert.New(t)

	l := NewLandmark(42)
	k := NewLandmark(42)

	assert.Equal(Variable(l), l.Match(l))
	// distinct landmarks of the same feature are distinct variables
	assert.Nil(l.Match(k))

	l.Set(mat.NewVecDense(3, []float64{1, 2, 3}))
	clone := l.Clone().(*Landmark)
	assert.Equal(-1, clone.ID())
	assert.Equal(uint64(42), clone.FeatureID())
	assert.InDeltaSlice(mat.Col(nil, 0, l.Value()), mat.Col(nil, 0, clone.Value()), 0)
}
