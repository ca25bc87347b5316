package matrix

import (
	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/gonum/mat"
)

// SetBlock copies src into m starting at row i and column j.
// It panics if src does not fit into m at the given offset.
func SetBlock(m *mat.Dense, i, j int, src mat.Matrix) {
	r, c := src.Dims()
	m.Slice(i, i+r, j, j+c).(*mat.Dense).Copy(src)
}

// SymmetrizeUpper mirrors the upper triangle of m into its lower triangle.
// It panics if m is not square.
func SymmetrizeUpper(m *mat.Dense) {
	r, c := m.Dims()
	if r != c {
		panic(mat.ErrShape)
	}

	for i := 1; i < r; i++ {
		for j := 0; j < i; j++ {
			m.Set(i, j, m.At(j, i))
		}
	}
}

// RotateRows applies the plane rotation with coefficients c and s to rows
// i and j of m.
func RotateRows(m *mat.Dense, i, j int, c, s float64) {
	_, cols := m.Dims()
	ri := blas64.Vector{N: cols, Data: m.RawRowView(i), Inc: 1}
	rj := blas64.Vector{N: cols, Data: m.RawRowView(j), Inc: 1}
	blas64.Rot(ri, rj, c, s)
}

// RotateVec applies the plane rotation with coefficients c and s to
// elements i and j of v.
func RotateVec(v *mat.VecDense, i, j int, c, s float64) {
	a, b := v.AtVec(i), v.AtVec(j)
	v.SetVec(i, c*a+s*b)
	v.SetVec(j, -s*a+c*b)
}
