package estimate

import (
	"testing"

	"github.com/milosgajdos/go-vloc/transf"
	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func TestNewBase(t *testing.T) {
	assert := assert.New(t)

	pose := transf.New(1, 2, 0.5)
	cov := mat.NewSymDense(3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1})

	b, err := NewBase(pose)
	assert.NotNil(b)
	assert.NoError(err)
	assert.Equal(0.0, mat.Trace(b.Cov()))

	b, err = NewBaseWithCov(pose, cov)
	assert.NotNil(b)
	assert.NoError(err)

	b, err = NewBaseWithCov(pose, mat.NewSymDense(1, []float64{1.0}))
	assert.Nil(b)
	assert.Error(err)

	b, err = NewBaseWithCov(pose, nil)
	assert.Nil(b)
	assert.Error(err)
}

func TestPoseCovariance(t *testing.T) {
	assert := assert.New(t)

	pose := transf.New(1, 2, 0.5)
	cov := mat.NewSymDense(3, []float64{1, 2, 0, 2, 4, 0, 0, 0, 1})

	b, err := NewBaseWithCov(pose, cov)
	assert.NotNil(b)
	assert.NoError(err)

	assert.Equal(pose, b.Pose())
	assert.Equal([]float64{1, 2, 0.5}, mat.Col(nil, 0, b.Val()))
	assert.True(mat.Equal(cov, b.Cov()))

	// covariance is copied on the way in and out
	cov.SetSym(0, 0, 100)
	assert.Equal(1.0, b.Cov().At(0, 0))
	b.Cov().(*mat.SymDense).SetSym(0, 0, 100)
	assert.Equal(1.0, b.cov.At(0, 0))
}
