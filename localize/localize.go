// Package localize exposes the laser localization engine behind a single
// per-scan entry point.
//
// A Localizer owns the segment map and the robot location filter. It checks
// the preconditions of every cycle, turns raw odometry and laser readings
// into filter inputs and logs the soft anomalies the filter reports.
package localize

import (
	"time"

	"github.com/benbjohnson/clock"
	"github.com/milosgajdos/go-vloc/diag"
	"github.com/milosgajdos/go-vloc/kalman/ekf"
	"github.com/milosgajdos/go-vloc/matrix"
	"github.com/milosgajdos/go-vloc/noise"
	"github.com/milosgajdos/go-vloc/scan"
	"github.com/milosgajdos/go-vloc/segment"
	"github.com/milosgajdos/go-vloc/smap"
	"github.com/milosgajdos/go-vloc/transf"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
)

var (
	// ErrNoPose is returned when a cycle runs before the poses are set.
	ErrNoPose = errors.New("robot pose not set")
	// ErrEmptyMap is returned when a cycle runs against an empty map.
	ErrEmptyMap = smap.ErrEmptyMap
	// ErrScanLength is returned when ranges and bearings differ in length.
	ErrScanLength = errors.New("ranges and bearings differ in length")
)

// Options configure Localizer
type Options struct {
	// MaxRange is the maximum valid laser range
	MaxRange float64
	// LaserPose is the laser mount pose in the robot frame
	LaserPose transf.Transf
	// RangeSigma is laser range noise
	RangeSigma float64
	// BearingSigma is laser bearing noise
	BearingSigma float64
	// InitialError is the initial pose error along x, y and heading
	InitialError [3]float64
	// BackoffPeriod is the minimum period between two processed scans
	BackoffPeriod time.Duration
	// Segment configures scan segmentation
	Segment segment.Config
	// Filter configures the robot location filter
	Filter ekf.Config
	// Logger logs localization events; no logging if nil
	Logger *zap.Logger
	// Clock measures the backoff period; wall clock if nil
	Clock clock.Clock
}

// DefaultOptions returns default options.
func DefaultOptions() Options {
	return Options{
		MaxRange:     7.9,
		LaserPose:    transf.Identity,
		RangeSigma:   0.045,
		BearingSigma: 0.004,
		InitialError: [3]float64{1.0, 1.0, 0.2},
		Segment:      segment.DefaultConfig(),
		Filter:       ekf.DefaultConfig(),
	}
}

// Localizer localizes the robot against a segment map
type Localizer struct {
	opts   Options
	logger *zap.Logger
	clock  clock.Clock
	m      *smap.Map
	filter *ekf.EKF
	posed  bool
	// last is the arrival time of the last scan
	last time.Time
}

// New creates new Localizer and returns it.
// It returns error if any of the options is invalid.
func New(opts Options) (*Localizer, error) {
	if !(opts.MaxRange > 0) {
		return nil, errors.Errorf("invalid max laser range: %f", opts.MaxRange)
	}

	if opts.BackoffPeriod < 0 {
		return nil, errors.Errorf("invalid backoff period: %s", opts.BackoffPeriod)
	}

	for _, e := range opts.InitialError {
		if e < 0 {
			return nil, errors.Errorf("invalid initial pose error: %v", opts.InitialError)
		}
	}

	if _, err := noise.NewLaser(opts.RangeSigma, opts.BearingSigma); err != nil {
		return nil, errors.Wrap(err, "laser noise")
	}

	seg, err := segment.New(opts.Segment)
	if err != nil {
		return nil, errors.Wrap(err, "segmentation")
	}

	m := smap.New()
	filter, err := ekf.New(opts.Filter, seg, m)
	if err != nil {
		return nil, errors.Wrap(err, "filter")
	}
	filter.SetInitialError(opts.InitialError[0], opts.InitialError[1], opts.InitialError[2])

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	clk := opts.Clock
	if clk == nil {
		clk = clock.New()
	}

	return &Localizer{
		opts:   opts,
		logger: logger,
		clock:  clk,
		m:      m,
		filter: filter,
	}, nil
}

func scanConfig(opts Options) scan.Config {
	return scan.Config{
		MaxRange:     opts.MaxRange,
		LaserPose:    opts.LaserPose,
		RangeSigma:   opts.RangeSigma,
		BearingSigma: opts.BearingSigma,
	}
}

// SetPoses sets the odometry pose and the global pose the robot is at.
func (l *Localizer) SetPoses(odomX, odomY, odomTh, globalX, globalY, globalTh float64) {
	l.filter.SetPoses(transf.New(odomX, odomY, odomTh), transf.New(globalX, globalY, globalTh))
	l.posed = true
}

// SetInitialPoseError sets the pose covariance to diag((ex/2)^2, (ey/2)^2, (eth/2)^2).
func (l *Localizer) SetInitialPoseError(ex, ey, eth float64) {
	l.filter.SetInitialError(ex, ey, eth)
}

// SetLaserPose sets the laser mount pose in the robot frame.
func (l *Localizer) SetLaserPose(x, y, th float64) {
	l.opts.LaserPose = transf.New(x, y, th)
}

// LoadMap replaces the map with the segments read from the file at path.
func (l *Localizer) LoadMap(path string) error {
	m, err := smap.LoadFile(path)
	if err != nil {
		return err
	}
	l.setMap(m)
	l.logger.Info("map loaded", zap.String("path", path), zap.Int("segments", m.Len()))

	return nil
}

// LoadWKBMap replaces the map with the segments of the WKB encoded geometry.
func (l *Localizer) LoadWKBMap(data []byte) error {
	m, err := smap.LoadWKB(data)
	if err != nil {
		return err
	}
	l.setMap(m)
	l.logger.Info("map loaded", zap.String("format", "wkb"), zap.Int("segments", m.Len()))

	return nil
}

// SetMap replaces the map with the given segment endpoints.
// The map is left unchanged if any of the segments is invalid.
func (l *Localizer) SetMap(segments [][4]float64) error {
	m := smap.New()
	if err := m.AddSegments(segments); err != nil {
		return err
	}
	l.setMap(m)
	l.logger.Info("map set", zap.Int("segments", m.Len()))

	return nil
}

// AddSegment appends a segment to the map.
func (l *Localizer) AddSegment(x1, y1, x2, y2 float64) error {
	return l.m.Add(x1, y1, x2, y2)
}

func (l *Localizer) setMap(m *smap.Map) {
	l.m = m
	l.filter.SetMap(m)
}

// Map returns the segment map.
func (l *Localizer) Map() *smap.Map {
	return l.m
}

// Locate runs one localization cycle given the odometry pose and the laser readings.
// It returns true if the pose estimate changed and false if the scan was dropped
// by the backoff period or the odometry did not change enough since the last cycle.
// The cycle is recorded in rec unless rec is nil. A non-nil rec is reset first.
// It returns error if the poses are not set, the map is empty or the scan is invalid.
func (l *Localizer) Locate(odomX, odomY, odomTh float64, ranges, bearings []float64, rec *diag.Record) (bool, error) {
	if !l.posed {
		return false, ErrNoPose
	}

	if l.m.IsEmpty() {
		return false, ErrEmptyMap
	}

	if len(ranges) != len(bearings) {
		return false, ErrScanLength
	}

	if rec == nil {
		rec = &diag.Record{}
	}
	rec.Reset()

	if !l.backoff() {
		l.logger.Warn("scans arriving too fast", zap.Duration("backoff", l.opts.BackoffPeriod))
		rec.SetThrottled()
		return false, nil
	}

	s, err := scan.New(ranges, bearings, scanConfig(l.opts))
	if err != nil {
		return false, errors.Wrap(err, "scan")
	}

	ok, err := l.filter.Locate(transf.New(odomX, odomY, odomTh), s, rec)
	if err != nil {
		if err == ekf.ErrNotInitialized {
			return false, ErrNoPose
		}
		return false, err
	}

	if !ok {
		return false, nil
	}

	l.logger.Debug("cycle", zap.Int("features", rec.Features), zap.Int("matches", len(rec.Matches)),
		zap.Int("skipped", rec.Skipped), zap.Stringer("pose", l.filter.Pose()))

	if rec.NoMatches {
		l.logger.Warn("no matching features", zap.Int("features", rec.Features))
	}

	if rec.Jump {
		l.logger.Warn("localization jump", zap.Float64("distance", rec.JumpDistance),
			zap.Stringer("predicted", rec.Predicted), zap.Stringer("updated", rec.Updated))
	}

	return true, nil
}

// backoff returns true if enough time passed since the last scan.
// Every scan restarts the period, whether it is processed or not.
func (l *Localizer) backoff() bool {
	now := l.clock.Now()
	elapsed := now.Sub(l.last)
	first := l.last.IsZero()
	l.last = now

	return first || elapsed >= l.opts.BackoffPeriod
}

// Pose returns the current pose estimate.
func (l *Localizer) Pose() transf.Transf {
	return l.filter.Pose()
}

// Cov returns the current pose covariance.
func (l *Localizer) Cov() mat.Symmetric {
	return l.filter.Cov()
}

// Covariance returns the current pose covariance in row-major order.
func (l *Localizer) Covariance() [9]float64 {
	var c [9]float64
	copy(c[:], matrix.Flat(l.filter.Cov()))

	return c
}

// OdometryTarget converts the global target pose into the odometry frame
// using the current pose estimate and the odometry pose it corresponds to.
func (l *Localizer) OdometryTarget(target transf.Transf) transf.Transf {
	return transf.Compose(l.filter.Odometry(), transf.Rel(l.filter.Pose(), target))
}
