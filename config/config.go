// Package config loads localization tuning parameters from YAML files.
package config

import (
	"os"
	"time"

	"github.com/milosgajdos/go-vloc/kalman/ekf"
	"github.com/milosgajdos/go-vloc/localize"
	"github.com/milosgajdos/go-vloc/segment"
	"github.com/milosgajdos/go-vloc/transf"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config is localization configuration.
// Distances are in meters, angles in radians and periods in seconds.
type Config struct {
	// MapFile is the path of the segment map file
	MapFile string `yaml:"map_file,omitempty"`
	// MaxLaserRange is the maximum valid laser range
	MaxLaserRange float64 `yaml:"max_laser_range"`
	// LaserPose is the laser mount pose: [x, y, theta]
	LaserPose [3]float64 `yaml:"laser_pose"`
	// LaserNoise is laser noise: [range, bearing]
	LaserNoise [2]float64 `yaml:"laser_noise"`
	// OdomNoise is odometry noise: [x, y, theta]
	OdomNoise [3]float64 `yaml:"odom_noise"`
	// RobotPoseInitialError is the initial pose error: [x, y, theta]
	RobotPoseInitialError [3]float64 `yaml:"robot_pose_initial_error"`
	// MaxRegionEmptyAngle is the largest bearing gap inside a region
	MaxRegionEmptyAngle float64 `yaml:"max_region_empty_angle"`
	// MaxRegionEmptyDistance is the largest range jump inside a region
	MaxRegionEmptyDistance float64 `yaml:"max_region_empty_distance"`
	// MinRegionLength is the minimum region length
	MinRegionLength float64 `yaml:"min_region_length"`
	// MinPointsInRegion is the minimum number of readings in a region
	MinPointsInRegion int `yaml:"min_points_in_region"`
	// MinPointsInSegment is the minimum number of readings in a segment
	MinPointsInSegment int `yaml:"min_points_in_segment"`
	// SplitConfidence is the confidence level of the split test
	SplitConfidence float64 `yaml:"split_confidence"`
	// CheckResidual enables the residual split test
	CheckResidual bool `yaml:"check_residual"`
	// MaxAngEBE is the minimum angle between the halves of a split
	MaxAngEBE float64 `yaml:"max_ang_ebe"`
	// MinSplitSegmentDistance is the minimum length of the halves of a split
	MinSplitSegmentDistance float64 `yaml:"min_split_segment_distance"`
	// MinOdomDistanceDelta is the translation that triggers a cycle
	MinOdomDistanceDelta float64 `yaml:"min_odom_distance_delta"`
	// MinOdomAngleDelta is the rotation that triggers a cycle
	MinOdomAngleDelta float64 `yaml:"min_odom_angle_delta"`
	// BackoffPeriod is the minimum period between two processed scans
	BackoffPeriod float64 `yaml:"backoff_period"`
	// MatchConfidence is the confidence level of the matching gate
	MatchConfidence float64 `yaml:"match_confidence"`
	// JumpDistance is the correction flagged as a localization jump
	JumpDistance float64 `yaml:"jump_distance"`
}

// Default returns default configuration.
func Default() *Config {
	sc := segment.DefaultConfig()
	fc := ekf.DefaultConfig()

	return &Config{
		MaxLaserRange:           7.9,
		LaserNoise:              [2]float64{0.045, 0.004},
		OdomNoise:               [3]float64{fc.OdomNoiseX, fc.OdomNoiseY, fc.OdomNoiseTheta},
		RobotPoseInitialError:   [3]float64{1.0, 1.0, 0.2},
		MaxRegionEmptyAngle:     sc.MaxEmptyAngle,
		MaxRegionEmptyDistance:  sc.MaxEmptyDistance,
		MinRegionLength:         sc.MinRegionLength,
		MinPointsInRegion:       sc.MinPointsInRegion,
		MinPointsInSegment:      sc.MinPointsInSegment,
		SplitConfidence:         sc.SplitConfidence,
		CheckResidual:           sc.CheckResidual,
		MaxAngEBE:               sc.MaxAngEBE,
		MinSplitSegmentDistance: sc.MinDistBetweenEndpoints,
		MinOdomDistanceDelta:    fc.MinOdomDistance,
		MinOdomAngleDelta:       fc.MinOdomAngle,
		MatchConfidence:         fc.MatchConfidence,
		JumpDistance:            fc.JumpDistance,
	}
}

// Parse parses YAML configuration.
// Options missing from data keep their default values.
func Parse(data []byte) (*Config, error) {
	c := Default()
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, errors.Wrap(err, "parse config")
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return c, nil
}

// Load reads YAML configuration from the file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read config %s", path)
	}

	c, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}

	return c, nil
}

// Validate returns error if any of the options is invalid.
func (c *Config) Validate() error {
	if !(c.MaxLaserRange > 0) {
		return errors.Errorf("invalid max_laser_range: %f", c.MaxLaserRange)
	}

	if !(c.LaserNoise[0] > 0 && c.LaserNoise[1] > 0) {
		return errors.Errorf("invalid laser_noise: %v", c.LaserNoise)
	}

	for _, e := range c.RobotPoseInitialError {
		if e < 0 {
			return errors.Errorf("invalid robot_pose_initial_error: %v", c.RobotPoseInitialError)
		}
	}

	if c.BackoffPeriod < 0 {
		return errors.Errorf("invalid backoff_period: %f", c.BackoffPeriod)
	}

	if err := c.Segment().Validate(); err != nil {
		return errors.Wrap(err, "segmentation")
	}

	if err := c.Filter().Validate(); err != nil {
		return errors.Wrap(err, "filter")
	}

	return nil
}

// Segment returns segmentation configuration.
func (c *Config) Segment() segment.Config {
	return segment.Config{
		MaxEmptyAngle:           c.MaxRegionEmptyAngle,
		MaxEmptyDistance:        c.MaxRegionEmptyDistance,
		MinRegionLength:         c.MinRegionLength,
		MinPointsInRegion:       c.MinPointsInRegion,
		MinPointsInSegment:      c.MinPointsInSegment,
		SplitConfidence:         c.SplitConfidence,
		CheckResidual:           c.CheckResidual,
		MaxAngEBE:               c.MaxAngEBE,
		MinDistBetweenEndpoints: c.MinSplitSegmentDistance,
	}
}

// Filter returns robot location filter configuration.
func (c *Config) Filter() ekf.Config {
	return ekf.Config{
		OdomNoiseX:      c.OdomNoise[0],
		OdomNoiseY:      c.OdomNoise[1],
		OdomNoiseTheta:  c.OdomNoise[2],
		MinOdomDistance: c.MinOdomDistanceDelta,
		MinOdomAngle:    c.MinOdomAngleDelta,
		MatchConfidence: c.MatchConfidence,
		JumpDistance:    c.JumpDistance,
	}
}

// Options returns localizer options.
// Logger and clock are left for the caller to set.
func (c *Config) Options() localize.Options {
	return localize.Options{
		MaxRange:      c.MaxLaserRange,
		LaserPose:     transf.New(c.LaserPose[0], c.LaserPose[1], c.LaserPose[2]),
		RangeSigma:    c.LaserNoise[0],
		BearingSigma:  c.LaserNoise[1],
		InitialError:  c.RobotPoseInitialError,
		BackoffPeriod: time.Duration(c.BackoffPeriod * float64(time.Second)),
		Segment:       c.Segment(),
		Filter:        c.Filter(),
	}
}
