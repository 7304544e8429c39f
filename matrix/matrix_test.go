package matrix

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func TestInverse(t *testing.T) {
	assert := assert.New(t)

	m := mat.NewDense(2, 2, []float64{4, 1, 2, 3})
	inv, err := Inverse(m)
	assert.NoError(err)

	prod := &mat.Dense{}
	prod.Mul(m, inv)
	assert.InDeltaSlice([]float64{1, 0, 0, 1}, prod.RawMatrix().Data, 1e-12)

	// singular
	_, err = Inverse(mat.NewDense(2, 2, []float64{1, 2, 2, 4}))
	assert.Equal(ErrSingular, err)

	// ill-conditioned
	_, err = Inverse(mat.NewDense(2, 2, []float64{1, 0, 0, 1e-20}))
	assert.Equal(ErrSingular, err)

	// non-finite
	_, err = Inverse(mat.NewDense(2, 2, []float64{1, math.NaN(), 0, 1}))
	assert.Equal(ErrSingular, err)

	// not square
	_, err = Inverse(mat.NewDense(2, 3, nil))
	assert.Equal(ErrSingular, err)
}

func TestSymSandwich(t *testing.T) {
	assert := assert.New(t)

	s := Sym(mat.NewDense(2, 2, []float64{1, 2, 4, 3}))
	assert.Equal(3.0, s.At(0, 1))
	assert.Equal(3.0, s.At(1, 0))

	a := mat.NewDense(2, 2, []float64{0, 1, 1, 0})
	c := Diag(2, 5)
	aca := Sandwich(a, c)
	assert.Equal([]float64{5, 0, 0, 2}, Flat(aca))
}

func TestDiagFlat(t *testing.T) {
	assert := assert.New(t)

	d := Diag(1, 2, 3)
	assert.Equal(3, d.SymmetricDim())
	assert.Equal([]float64{1, 0, 0, 0, 2, 0, 0, 0, 3}, Flat(d))
	assert.Equal(14.0, QuadForm(mat.NewVecDense(3, []float64{1, 1, 1}), Diag(1, 4, 9)))
}

func TestFinite(t *testing.T) {
	assert := assert.New(t)

	assert.True(Finite(Diag(1, 2)))
	assert.False(Finite(Diag(1, math.Inf(1))))
	assert.False(Finite(Diag(math.NaN(), 1)))
}
