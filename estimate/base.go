package estimate

import (
	"fmt"

	"github.com/milosgajdos/go-vloc/transf"
	"gonum.org/v1/gonum/mat"
)

// Base is base pose estimate
type Base struct {
	// pose is estimated pose
	pose transf.Transf
	// cov is estimated covariance
	cov *mat.SymDense
}

// NewBase returns base estimate given pose with zero covariance
func NewBase(pose transf.Transf) (*Base, error) {
	return &Base{
		pose: pose,
		cov:  mat.NewSymDense(3, nil),
	}, nil
}

// NewBaseWithCov returns base estimate given pose and covariance
func NewBaseWithCov(pose transf.Transf, cov mat.Symmetric) (*Base, error) {
	if cov == nil || cov.SymmetricDim() != 3 {
		return nil, fmt.Errorf("invalid covariance dimensions")
	}

	c := mat.NewSymDense(3, nil)
	c.CopySym(cov)

	return &Base{
		pose: pose,
		cov:  c,
	}, nil
}

// Pose returns estimated pose
func (b *Base) Pose() transf.Transf {
	return b.pose
}

// Val returns estimated pose as a vector [x, y, phi]
func (b *Base) Val() mat.Vector {
	return b.pose.Vec()
}

// Cov returns covariance estimate
func (b *Base) Cov() mat.Symmetric {
	cov := mat.NewSymDense(b.cov.SymmetricDim(), nil)
	cov.CopySym(b.cov)

	return cov
}

// String implements the Stringer interface.
func (b *Base) String() string {
	return fmt.Sprintf("Base{\nPose=%s\nCov=%v\n}", b.pose, mat.Formatted(b.cov, mat.Prefix("    "), mat.Squeeze()))
}
