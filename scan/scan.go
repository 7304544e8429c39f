// Package scan turns raw laser readings into uncertain points.
package scan

import (
	"fmt"
	"math"

	"github.com/milosgajdos/go-vloc/noise"
	"github.com/milosgajdos/go-vloc/transf"
	"github.com/milosgajdos/go-vloc/uloc"
)

// Config configures scan ingestion
type Config struct {
	// MaxRange is the maximum valid range; readings at or beyond it are dropped
	MaxRange float64
	// LaserPose is the laser mount pose in the robot frame
	LaserPose transf.Transf
	// RangeSigma is range standard deviation
	RangeSigma float64
	// BearingSigma is bearing standard deviation
	BearingSigma float64
}

// Scan is a laser scan whose valid readings are kept in bearing order
// together with the uncertain points they produce in the robot frame.
type Scan struct {
	rho    []float64
	phi    []float64
	points []*uloc.Uloc
}

// New creates new Scan from ranges and bearings and returns it.
// Readings that are non-finite, non-positive or at least cfg.MaxRange are dropped.
// It returns error if ranges and bearings differ in length or the noise is invalid.
func New(ranges, bearings []float64, cfg Config) (*Scan, error) {
	if len(ranges) != len(bearings) {
		return nil, fmt.Errorf("invalid scan: %d ranges, %d bearings", len(ranges), len(bearings))
	}

	laser, err := noise.NewLaser(cfg.RangeSigma, cfg.BearingSigma)
	if err != nil {
		return nil, err
	}

	s := &Scan{
		rho:    make([]float64, 0, len(ranges)),
		phi:    make([]float64, 0, len(ranges)),
		points: make([]*uloc.Uloc, 0, len(ranges)),
	}

	for i, rho := range ranges {
		phi := bearings[i]
		if !valid(rho, cfg.MaxRange) || math.IsNaN(phi) || math.IsInf(phi, 0) {
			continue
		}

		// point in the laser frame with its x axis along the beam
		sn, cs := math.Sincos(phi)
		lp, err := uloc.NewWithCov(uloc.Point, transf.New(rho*cs, rho*sn, phi), laser.PointCov(rho))
		if err != nil {
			return nil, err
		}

		s.rho = append(s.rho, rho)
		s.phi = append(s.phi, phi)
		s.points = append(s.points, uloc.TransfCompose(cfg.LaserPose, lp))
	}

	return s, nil
}

func valid(rho, maxRange float64) bool {
	return rho > 0 && rho < maxRange && !math.IsInf(rho, 0)
}

// Len returns the number of valid readings.
func (s *Scan) Len() int {
	return len(s.points)
}

// Rho returns the range of the i-th valid reading.
func (s *Scan) Rho(i int) float64 {
	return s.rho[i]
}

// Phi returns the bearing of the i-th valid reading.
func (s *Scan) Phi(i int) float64 {
	return s.phi[i]
}

// Point returns the uncertain point of the i-th valid reading in the robot frame.
func (s *Scan) Point(i int) *uloc.Uloc {
	return s.points[i]
}

// Points returns the uncertain points of the readings in [from, to].
func (s *Scan) Points(from, to int) []*uloc.Uloc {
	return s.points[from : to+1]
}

// Readings returns copies of the valid ranges and bearings.
func (s *Scan) Readings() (rho, phi []float64) {
	rho = make([]float64, len(s.rho))
	phi = make([]float64, len(s.phi))
	copy(rho, s.rho)
	copy(phi, s.phi)

	return rho, phi
}
