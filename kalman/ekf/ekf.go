package ekf

import (
	"fmt"
	"math"

	vloc "github.com/milosgajdos/go-vloc"
	"github.com/milosgajdos/go-vloc/diag"
	"github.com/milosgajdos/go-vloc/estimate"
	"github.com/milosgajdos/go-vloc/matrix"
	"github.com/milosgajdos/go-vloc/noise"
	"github.com/milosgajdos/go-vloc/scan"
	"github.com/milosgajdos/go-vloc/segment"
	"github.com/milosgajdos/go-vloc/smap"
	"github.com/milosgajdos/go-vloc/transf"
	"github.com/milosgajdos/go-vloc/uloc"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// ErrNotInitialized is returned when the filter is used before its poses are set.
var ErrNotInitialized = errors.New("robot pose not initialized")

// Segmenter extracts observed segments from laser scans
type Segmenter interface {
	// Segment returns the segments observed in the scan
	Segment(*scan.Scan, *diag.Record) segment.Features
}

// State is the filter state
type State int

const (
	// Uninitialized filter has no pose to track
	Uninitialized State = iota
	// Tracking filter tracks the robot pose
	Tracking
)

// String implements the Stringer interface.
func (s State) String() string {
	switch s {
	case Uninitialized:
		return "Uninitialized"
	case Tracking:
		return "Tracking"
	}

	return fmt.Sprintf("State(%d)", int(s))
}

// EKF is Extended Kalman Filter tracking the robot location against a segment map
type EKF struct {
	// cfg is filter configuration
	cfg Config
	// seg segments laser scans
	seg Segmenter
	// m is the segment map
	m *smap.Map
	// q is odometry a.k.a. process noise
	q *noise.Odometry
	// gate is the matching gate
	gate float64
	// prev is the committed robot location
	prev *uloc.Uloc
	// x is the robot location being estimated
	x *uloc.Uloc
	// odomPrev is the committed odometry pose
	odomPrev transf.Transf
	// first is true until the first cycle runs
	first bool
	// state is the filter state
	state State
	// k is Kalman gain of the last update
	k *mat.Dense
}

// New creates new EKF and returns it.
// It accepts the following parameters:
// - cfg: filter configuration
// - seg: scan segmenter
// - m:   segment map; it may be nil or empty until the first Locate
// It returns error if the configuration is invalid or seg is nil.
func New(cfg Config, seg Segmenter, m *smap.Map) (*EKF, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if seg == nil {
		return nil, fmt.Errorf("invalid segmenter: %v", seg)
	}

	q, err := noise.NewOdometry(cfg.OdomNoiseX, cfg.OdomNoiseY, cfg.OdomNoiseTheta)
	if err != nil {
		return nil, err
	}

	chi := distuv.ChiSquared{K: 2}

	return &EKF{
		cfg:   cfg,
		seg:   seg,
		m:     m,
		q:     q,
		gate:  chi.Quantile(cfg.MatchConfidence),
		prev:  uloc.New(uloc.Robot, transf.Identity),
		x:     uloc.New(uloc.Robot, transf.Identity),
		first: true,
		state: Uninitialized,
		k:     mat.NewDense(3, 2, nil),
	}, nil
}

// SetMap sets the segment map.
func (k *EKF) SetMap(m *smap.Map) {
	k.m = m
}

// Map returns the segment map.
func (k *EKF) Map() *smap.Map {
	return k.m
}

// Gate returns the matching gate.
func (k *EKF) Gate() float64 {
	return k.gate
}

// SetPoses sets the current odometry pose and the corresponding global pose.
// The next call of Locate runs regardless of the odometry change.
func (k *EKF) SetPoses(odom, global transf.Transf) {
	k.prev.SetLoc(global)
	k.x.SetLoc(global)
	k.odomPrev = odom
	k.first = true
	k.state = Tracking
}

// SetInitialError sets the pose covariance to diag((ex/2)^2, (ey/2)^2, (eth/2)^2).
func (k *EKF) SetInitialError(ex, ey, eth float64) {
	cov := matrix.Diag(math.Pow(ex/2, 2), math.Pow(ey/2, 2), math.Pow(eth/2, 2))

	// dimensions always match the robot location
	_ = k.prev.SetCov(cov)
	_ = k.x.SetCov(cov)
}

// Odometry returns the odometry pose of the committed location.
func (k *EKF) Odometry() transf.Transf {
	return k.odomPrev
}

// State returns filter state.
func (k *EKF) State() State {
	return k.state
}

// Pose returns the current pose estimate.
func (k *EKF) Pose() transf.Transf {
	return k.x.Loc()
}

// Cov returns the current pose covariance.
func (k *EKF) Cov() mat.Symmetric {
	return k.x.Cov()
}

// Gain returns Kalman gain of the last update.
func (k *EKF) Gain() mat.Matrix {
	gain := &mat.Dense{}
	gain.CloneFrom(k.k)

	return gain
}

// Predict predicts the robot location at the odometry pose odom from the committed location.
// It returns error if the filter is not initialized.
func (k *EKF) Predict(odom transf.Transf) (vloc.Estimate, error) {
	if k.state != Tracking {
		return nil, ErrNotInitialized
	}

	rel := transf.Rel(k.odomPrev, odom)

	x := uloc.ComposeTransf(k.prev, rel)

	cov := &mat.Dense{}
	cov.Add(x.Cov(), k.q.Cov(rel))
	if err := x.SetCov(matrix.Sym(cov)); err != nil {
		return nil, err
	}
	k.x = x

	return estimate.NewBaseWithCov(x.Loc(), x.Cov())
}

// Locate runs one localization cycle given the odometry pose odom and the laser scan s.
// The cycle is skipped and false returned if odometry has not changed enough since
// the last cycle. Otherwise the pose is predicted, the scan segmented and the segments
// matched and fused into the pose, which is then committed.
// It returns error if the filter is not initialized or the map is empty.
func (k *EKF) Locate(odom transf.Transf, s *scan.Scan, rec *diag.Record) (bool, error) {
	if k.state != Tracking {
		return false, ErrNotInitialized
	}

	if k.m == nil || k.m.IsEmpty() {
		return false, smap.ErrEmptyMap
	}

	if !k.first && !k.moved(odom) {
		rec.SetThrottled()
		return false, nil
	}
	k.first = false

	pred, err := k.Predict(odom)
	if err != nil {
		return false, err
	}
	rec.SetPredicted(pred.Pose())

	rec.SetLaser(s.Readings())
	features := k.seg.Segment(s, rec)
	rec.SetFeatures(len(features))

	matched := k.Update(features, rec)
	rec.SetUpdated(k.x.Loc(), matched)

	// odometry and filter should agree on the motion
	rel := transf.Rel(k.odomPrev, odom)
	upd := transf.Rel(k.prev.Loc(), k.x.Loc())
	dist := rel.Distance(upd)
	rec.SetJump(dist, dist > k.cfg.JumpDistance)

	k.odomPrev = odom
	k.prev = k.x.Clone()

	return true, nil
}

func (k *EKF) moved(odom transf.Transf) bool {
	return odom.Distance(k.odomPrev) >= k.cfg.MinOdomDistance ||
		math.Abs(transf.Normalize(odom.Phi-k.odomPrev.Phi)) >= k.cfg.MinOdomAngle
}
