package vloc

import (
	"github.com/milosgajdos/go-vloc/transf"
	"gonum.org/v1/gonum/mat"
)

// Estimate is a robot pose estimate
type Estimate interface {
	// Pose returns estimated pose
	Pose() transf.Transf
	// Cov returns estimate covariance
	Cov() mat.Symmetric
}

// Noise is sensor noise
type Noise interface {
	// Mean returns noise mean
	Mean() []float64
	// Cov returns covariance matrix of the noise
	Cov() mat.Symmetric
	// Sample returns a sample of the noise
	Sample() mat.Vector
	// Reset resets the noise
	Reset() error
}

// Predictor propagates the robot pose to the next odometry reading
type Predictor interface {
	// Predict predicts the pose at the given odometry pose
	Predict(transf.Transf) (Estimate, error)
}

// Locator localizes the robot from odometry and laser scans
type Locator interface {
	// Pose returns the current pose estimate
	Pose() transf.Transf
	// Cov returns the current pose covariance
	Cov() mat.Symmetric
}
