package noise

import (
	"fmt"
	"math"

	"github.com/milosgajdos/go-vloc/matrix"
	"github.com/milosgajdos/go-vloc/transf"
	"gonum.org/v1/gonum/mat"
)

// Odometry is odometry noise model.
// Translation noise grows with the distance travelled and rotation noise with the angle turned.
type Odometry struct {
	// x is the longitudinal noise coefficient
	x float64
	// y is the lateral noise coefficient
	y float64
	// phi is the angular noise coefficient
	phi float64
}

// NewOdometry creates new odometry noise model and returns it.
// It returns error if any of the coefficients is negative.
func NewOdometry(x, y, phi float64) (*Odometry, error) {
	if x < 0 || y < 0 || phi < 0 {
		return nil, fmt.Errorf("invalid odometry noise: [%f, %f, %f]", x, y, phi)
	}

	return &Odometry{x: x, y: y, phi: phi}, nil
}

// Coeffs returns noise coefficients.
func (o *Odometry) Coeffs() (x, y, phi float64) {
	return o.x, o.y, o.phi
}

// Cov returns process noise covariance of the relative motion rel.
func (o *Odometry) Cov(rel transf.Transf) *mat.SymDense {
	d := math.Hypot(rel.X, rel.Y)

	return matrix.Diag(math.Pow(o.x*d, 2), math.Pow(o.y*d, 2), math.Pow(o.phi*rel.Phi, 2))
}

// Perturb returns the relative motion rel corrupted by the standard normal sample z.
func (o *Odometry) Perturb(rel transf.Transf, z mat.Vector) transf.Transf {
	cov := o.Cov(rel)
	d := transf.Transf{
		X:   math.Sqrt(cov.At(0, 0)) * z.AtVec(0),
		Y:   math.Sqrt(cov.At(1, 1)) * z.AtVec(1),
		Phi: math.Sqrt(cov.At(2, 2)) * z.AtVec(2),
	}

	return transf.Compose(rel, d)
}

// String implements the Stringer interface.
func (o *Odometry) String() string {
	return fmt.Sprintf("Odometry{X=%v Y=%v Phi=%v}", o.x, o.y, o.phi)
}
