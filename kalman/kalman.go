package kalman

import (
	vloc "github.com/milosgajdos/go-vloc"
	"gonum.org/v1/gonum/mat"
)

// Kalman is Kalman filter localizing the robot
type Kalman interface {
	// vloc.Predictor predicts the robot pose from odometry
	vloc.Predictor
	// vloc.Locator provides the current estimate
	vloc.Locator
	// Gain returns Kalman filter gain
	Gain() mat.Matrix
}
