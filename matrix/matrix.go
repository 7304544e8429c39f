package matrix

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// ErrSingular is returned when a matrix can not be inverted reliably.
var ErrSingular = errors.New("singular or ill-conditioned matrix")

// Inverse returns the inverse of the square matrix m.
// It returns ErrSingular if m contains non-finite values, is singular,
// or is too ill-conditioned for the inverse to be trusted.
func Inverse(m mat.Matrix) (*mat.Dense, error) {
	r, c := m.Dims()
	if r != c || r == 0 {
		return nil, ErrSingular
	}

	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if v := m.At(i, j); math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, ErrSingular
			}
		}
	}

	inv := &mat.Dense{}
	// Inverse returns mat.Condition when m is near singular
	if err := inv.Inverse(m); err != nil {
		return nil, ErrSingular
	}

	return inv, nil
}

// Sym returns the symmetric part of the square matrix m: (m + m')/2
func Sym(m mat.Matrix) *mat.SymDense {
	n, _ := m.Dims()
	s := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			s.SetSym(i, j, (m.At(i, j)+m.At(j, i))/2)
		}
	}

	return s
}

// Sandwich returns a*c*a' as a symmetric matrix.
func Sandwich(a, c mat.Matrix) *mat.SymDense {
	ac := &mat.Dense{}
	ac.Mul(a, c)
	aca := &mat.Dense{}
	aca.Mul(ac, a.T())

	return Sym(aca)
}

// Diag returns a symmetric matrix with vals on its diagonal.
func Diag(vals ...float64) *mat.SymDense {
	s := mat.NewSymDense(len(vals), nil)
	for i, v := range vals {
		s.SetSym(i, i, v)
	}

	return s
}

// Flat returns the elements of m in row-major order.
func Flat(m mat.Matrix) []float64 {
	r, c := m.Dims()
	data := make([]float64, 0, r*c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			data = append(data, m.At(i, j))
		}
	}

	return data
}

// Finite returns true if all elements of m are finite.
func Finite(m mat.Matrix) bool {
	data := Flat(m)
	if floats.HasNaN(data) {
		return false
	}

	for _, v := range data {
		if math.IsInf(v, 0) {
			return false
		}
	}

	return true
}

// QuadForm returns v'*m*v.
func QuadForm(v mat.Vector, m mat.Matrix) float64 {
	return mat.Inner(v, m, v)
}
