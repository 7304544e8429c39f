package ekf

import "fmt"

// Config configures the robot location filter
type Config struct {
	// OdomNoiseX is longitudinal odometry noise per meter travelled
	OdomNoiseX float64
	// OdomNoiseY is lateral odometry noise per meter travelled
	OdomNoiseY float64
	// OdomNoiseTheta is angular odometry noise per radian turned
	OdomNoiseTheta float64
	// MinOdomDistance is the translation that triggers a cycle
	MinOdomDistance float64
	// MinOdomAngle is the rotation that triggers a cycle
	MinOdomAngle float64
	// MatchConfidence is the confidence level of the matching gate
	MatchConfidence float64
	// JumpDistance is the disagreement between odometry and correction flagged as a jump
	JumpDistance float64
}

// DefaultConfig returns default filter configuration.
func DefaultConfig() Config {
	return Config{
		OdomNoiseX:      0.4,
		OdomNoiseY:      0.2,
		OdomNoiseTheta:  0.2,
		MinOdomDistance: 0,
		MinOdomAngle:    0,
		MatchConfidence: 0.95,
		JumpDistance:    0.2,
	}
}

// Validate returns error if the configuration is invalid.
func (c Config) Validate() error {
	switch {
	case c.OdomNoiseX < 0 || c.OdomNoiseY < 0 || c.OdomNoiseTheta < 0:
		return fmt.Errorf("invalid odometry noise: [%f, %f, %f]", c.OdomNoiseX, c.OdomNoiseY, c.OdomNoiseTheta)
	case c.MinOdomDistance < 0:
		return fmt.Errorf("invalid min odometry distance: %f", c.MinOdomDistance)
	case c.MinOdomAngle < 0:
		return fmt.Errorf("invalid min odometry angle: %f", c.MinOdomAngle)
	case !(c.MatchConfidence > 0 && c.MatchConfidence < 1):
		return fmt.Errorf("invalid match confidence: %f", c.MatchConfidence)
	case c.JumpDistance < 0:
		return fmt.Errorf("invalid jump distance: %f", c.JumpDistance)
	}

	return nil
}
