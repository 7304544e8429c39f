package noise

import (
	"fmt"
	"math"

	"github.com/milosgajdos/go-vloc/matrix"
	"gonum.org/v1/gonum/mat"
)

// Laser is range finder noise model
type Laser struct {
	// rangeSigma is range standard deviation in meters
	rangeSigma float64
	// bearingSigma is bearing standard deviation in radians
	bearingSigma float64
}

// NewLaser creates new laser noise model and returns it.
// It returns error if either of the standard deviations is not positive.
func NewLaser(rangeSigma, bearingSigma float64) (*Laser, error) {
	if !(rangeSigma > 0) || !(bearingSigma > 0) {
		return nil, fmt.Errorf("invalid laser noise: [%f, %f]", rangeSigma, bearingSigma)
	}

	return &Laser{
		rangeSigma:   rangeSigma,
		bearingSigma: bearingSigma,
	}, nil
}

// RangeSigma returns range standard deviation.
func (l *Laser) RangeSigma() float64 {
	return l.rangeSigma
}

// BearingSigma returns bearing standard deviation.
func (l *Laser) BearingSigma() float64 {
	return l.bearingSigma
}

// PointCov returns covariance of a point measured at range rho.
// The covariance is expressed in the beam frame: x along the beam, y across it.
func (l *Laser) PointCov(rho float64) *mat.SymDense {
	return matrix.Diag(l.rangeSigma*l.rangeSigma, math.Pow(rho*l.bearingSigma, 2))
}

// Perturb returns the reading (rho, phi) corrupted by the standard normal sample z.
func (l *Laser) Perturb(rho, phi float64, z mat.Vector) (float64, float64) {
	return rho + l.rangeSigma*z.AtVec(0), phi + l.bearingSigma*z.AtVec(1)
}

// String implements the Stringer interface.
func (l *Laser) String() string {
	return fmt.Sprintf("Laser{Range=%v Bearing=%v}", l.rangeSigma, l.bearingSigma)
}
