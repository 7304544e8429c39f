// Package sim simulates a robot driving in a world bounded by map segments.
//
// The simulated laser ray-casts every bearing against the map and the
// simulated odometry integrates commanded motion corrupted by noise. Both
// feed the localizer the same way real sensors would, so the estimate can
// be compared against the known ground truth.
package sim

import (
	"fmt"
	"math"

	vloc "github.com/milosgajdos/go-vloc"
	"github.com/milosgajdos/go-vloc/matrix"
	"github.com/milosgajdos/go-vloc/noise"
	"github.com/milosgajdos/go-vloc/smap"
	"github.com/milosgajdos/go-vloc/transf"
	"gonum.org/v1/gonum/mat"
)

// eps is the smallest ray and segment cross product treated as non-parallel
const eps = 1e-12

// World is a world bounded by map segments
type World struct {
	m *smap.Map
}

// NewWorld creates new World bounded by the segments of m and returns it.
// It returns error if m is nil or empty.
func NewWorld(m *smap.Map) (*World, error) {
	if m == nil || m.IsEmpty() {
		return nil, smap.ErrEmptyMap
	}

	return &World{m: m}, nil
}

// Map returns the world map.
func (w *World) Map() *smap.Map {
	return w.m
}

// Range returns the distance from the origin o along the direction of o
// to the closest segment hit. It returns +Inf if the ray hits nothing.
func (w *World) Range(o transf.Transf) float64 {
	dy, dx := math.Sincos(o.Phi)
	r := math.Inf(1)

	for i := 0; i < w.m.Len(); i++ {
		x1, y1, x2, y2 := w.m.Endpoints(i)
		ex, ey := x2-x1, y2-y1

		den := dx*ey - dy*ex
		if math.Abs(den) < eps {
			continue
		}

		px, py := x1-o.X, y1-o.Y
		t := (px*ey - py*ex) / den
		u := (px*dy - py*dx) / den

		if t > 0 && u >= 0 && u <= 1 && t < r {
			r = t
		}
	}

	return r
}

// Scan returns the ranges measured by the laser mounted at laser on the robot at pose.
// Readings hitting nothing within maxRange are reported as maxRange.
// If l and z are not nil every reading is corrupted by the laser noise l
// driven by the 2D standard normal noise z.
func (w *World) Scan(pose, laser transf.Transf, bearings []float64, maxRange float64, l *noise.Laser, z vloc.Noise) ([]float64, error) {
	if !(maxRange > 0) {
		return nil, fmt.Errorf("invalid max range: %f", maxRange)
	}

	if z != nil && len(z.Mean()) != 2 {
		return nil, fmt.Errorf("invalid laser noise dimension: %d", len(z.Mean()))
	}

	wl := transf.Compose(pose, laser)
	ranges := make([]float64, len(bearings))

	for i, phi := range bearings {
		var sample mat.Vector
		if l != nil && z != nil {
			sample = z.Sample()
			// the beam leaves along the perturbed bearing
			_, phi = l.Perturb(0, phi, sample)
		}

		rho := w.Range(transf.Compose(wl, transf.New(0, 0, phi)))
		if rho >= maxRange {
			ranges[i] = maxRange
			continue
		}

		if sample != nil {
			rho, _ = l.Perturb(rho, 0, sample)
			rho = math.Min(math.Max(rho, 0), maxRange)
		}
		ranges[i] = rho
	}

	return ranges, nil
}

// Bearings returns n bearings evenly spaced over the field of view fov centered on zero.
func Bearings(fov float64, n int) []float64 {
	if n < 2 {
		return make([]float64, n)
	}

	b := make([]float64, n)
	step := fov / float64(n-1)
	for i := range b {
		b[i] = -fov/2 + float64(i)*step
	}

	return b
}

// GroundTruthError returns the true pose truth relative to the estimate est and the
// normalized estimation error squared of est given its covariance cov.
// The covariance is expressed in the frame of est.
// It returns error if cov can not be inverted.
func GroundTruthError(truth, est transf.Transf, cov mat.Symmetric) (transf.Transf, float64, error) {
	d := transf.Rel(est, truth)

	cInv, err := matrix.Inverse(cov)
	if err != nil {
		return d, 0, err
	}

	return d, matrix.QuadForm(d.Vec(), cInv), nil
}
