package msckf

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func TestNewPose(t *testing.T) {
	assert := assert.New(t)

	p := NewPose()
	assert.NotNil(p)
	assert.Equal(-1, p.ID())
	assert.Equal(6, p.Dim())
	assert.InDeltaSlice([]float64{0, 0, 0, 1, 0, 0, 0}, mat.Col(nil, 0, p.Value()), 0)
}

func TestPoseSetID(t *testing.T) {
	assert := assert.New(t)

	p := NewPose()
	p.SetID(15)
	assert.Equal(15, p.ID())
	assert.Equal(15, p.Orientation().ID())
	assert.Equal(18, p.Position().ID())

	p.SetID(-1)
	assert.Equal(-1, p.ID())
	assert.Equal(-1, p.Orientation().ID())
	assert.Equal(-1, p.Position().ID())
}

func TestPoseUpdate(t *testing.T) {
	assert := assert.New(t)

	p := NewPose()
	p.Set(mat.NewVecDense(7, []float64{0, 0, 0, 1, 1, 2, 3}))
	p.Update(mat.NewVecDense(6, []float64{0.2, 0, 0, 0.5, -1, 2}))

	// position updated additively
	assert.InDeltaSlice([]float64{1.5, 1, 5}, mat.Col(nil, 0, p.Position().Value()), 1e-12)
	// orientation updated multiplicatively
	n := math.Sqrt(1.01)
	assert.InDeltaSlice([]float64{0.1 / n, 0, 0, 1 / n}, mat.Col(nil, 0, p.Orientation().Value()), 1e-12)

	assert.Panics(func() { p.Update(mat.NewVecDense(7, nil)) })
	assert.Panics(func() { p.Set(mat.NewVecDense(6, nil)) })
}

func TestPoseMatch(t *testing.T) {
	assert := assert.New(t)

	p := NewPose()
	q := NewPose()

	assert.Equal(Variable(p), p.Match(p))
	assert.Equal(Variable(p.Orientation()), p.Match(p.Orientation()))
	assert.Equal(Variable(p.Position()), p.Match(p.Position()))
	assert.Nil(p.Match(q))
	assert.Nil(p.Match(q.Orientation()))
}

func TestPoseClone(t *testing.T) {
	assert := assert.New(t)

	p := NewPose()
	p.Set(mat.NewVecDense(7, []float64{0, 0, 0, 1, 1, 2, 3}))
	p.SetID(21)

	clone := p.Clone()
	assert.Equal(-1, clone.ID())
	assert.Equal(p.Dim(), clone.Dim())
	assert.InDeltaSlice(mat.Col(nil, 0, p.Value()), mat.Col(nil, 0, clone.Value()), 0)

	// the clone sub-variables are independent of the source
	p.Position().Update(mat.NewVecDense(3, []float64{1, 1, 1}))
	assert.InDelta(1, clone.Value().AtVec(4), 0)
}
