package sim

import (
	"fmt"

	vloc "github.com/milosgajdos/go-vloc"
	"github.com/milosgajdos/go-vloc/noise"
	"github.com/milosgajdos/go-vloc/transf"
)

// Odometry is simulated odometry
type Odometry struct {
	// pose is the odometry pose
	pose transf.Transf
	// q is odometry noise model
	q *noise.Odometry
	// z drives the noise model
	z vloc.Noise
}

// NewOdometry creates new Odometry reading start and returns it.
// If q and z are not nil the motion is corrupted by the noise model q
// driven by the 3D standard normal noise z.
// It returns error if z is not 3D.
func NewOdometry(start transf.Transf, q *noise.Odometry, z vloc.Noise) (*Odometry, error) {
	if z != nil && len(z.Mean()) != 3 {
		return nil, fmt.Errorf("invalid odometry noise dimension: %d", len(z.Mean()))
	}

	return &Odometry{
		pose: start,
		q:    q,
		z:    z,
	}, nil
}

// Pose returns the odometry pose.
func (o *Odometry) Pose() transf.Transf {
	return o.pose
}

// Move integrates the relative motion rel and returns the new odometry pose.
func (o *Odometry) Move(rel transf.Transf) transf.Transf {
	if o.q != nil && o.z != nil {
		rel = o.q.Perturb(rel, o.z.Sample())
	}
	o.pose = transf.Compose(o.pose, rel)

	return o.pose
}
