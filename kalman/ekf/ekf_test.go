package ekf

import (
	"math"
	"os"
	"testing"

	"github.com/milosgajdos/go-vloc/diag"
	"github.com/milosgajdos/go-vloc/kalman"
	"github.com/milosgajdos/go-vloc/matrix"
	"github.com/milosgajdos/go-vloc/scan"
	"github.com/milosgajdos/go-vloc/segment"
	"github.com/milosgajdos/go-vloc/smap"
	"github.com/milosgajdos/go-vloc/transf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

var _ kalman.Kalman = (*EKF)(nil)

var (
	seg  *segment.Segmenter
	wall *scan.Scan
	m    *smap.Map
)

func setup() {
	var err error

	seg, err = segment.New(segment.DefaultConfig())
	if err != nil {
		panic(err)
	}

	// wall at x = 5 seen from the origin
	b := make([]float64, 41)
	r := make([]float64, len(b))
	for i := range b {
		b[i] = -0.2 + float64(i)*0.01
		r[i] = 5 / math.Cos(b[i])
	}

	wall, err = scan.New(r, b, scan.Config{
		MaxRange:     7.9,
		LaserPose:    transf.Identity,
		RangeSigma:   0.045,
		BearingSigma: 0.004,
	})
	if err != nil {
		panic(err)
	}

	m = smap.New()
	if err := m.Add(5, -1, 5, 1); err != nil {
		panic(err)
	}
}

func TestMain(tm *testing.M) {
	// set up tests
	setup()
	// run the tests
	retCode := tm.Run()
	// call with result of tm.Run()
	os.Exit(retCode)
}

func newEKF(t *testing.T, cfg Config, global transf.Transf, e float64) *EKF {
	f, err := New(cfg, seg, m)
	require.NoError(t, err)

	f.SetPoses(transf.Identity, global)
	f.SetInitialError(e, e, e)

	return f
}

func TestConfig(t *testing.T) {
	assert := assert.New(t)

	assert.NoError(DefaultConfig().Validate())

	for _, mod := range []func(*Config){
		func(c *Config) { c.OdomNoiseX = -1 },
		func(c *Config) { c.MinOdomDistance = -1 },
		func(c *Config) { c.MinOdomAngle = -1 },
		func(c *Config) { c.MatchConfidence = 0 },
		func(c *Config) { c.MatchConfidence = 1 },
		func(c *Config) { c.JumpDistance = -1 },
	} {
		cfg := DefaultConfig()
		mod(&cfg)
		assert.Error(cfg.Validate())
	}
}

func TestEKFNew(t *testing.T) {
	assert := assert.New(t)

	f, err := New(DefaultConfig(), seg, nil)
	assert.NotNil(f)
	assert.NoError(err)
	assert.Equal(Uninitialized, f.State())
	assert.InDelta(5.991, f.Gate(), 1e-3)

	r, c := f.Gain().Dims()
	assert.Equal(3, r)
	assert.Equal(2, c)

	f, err = New(DefaultConfig(), nil, m)
	assert.Nil(f)
	assert.Error(err)

	cfg := DefaultConfig()
	cfg.MatchConfidence = 2
	f, err = New(cfg, seg, m)
	assert.Nil(f)
	assert.Error(err)
}

func TestEKFPredict(t *testing.T) {
	assert := assert.New(t)

	f, err := New(DefaultConfig(), seg, m)
	require.NoError(t, err)

	_, err = f.Predict(transf.New(1, 0, 0))
	assert.Equal(ErrNotInitialized, err)

	f.SetPoses(transf.Identity, transf.New(1, 1, math.Pi/2))
	assert.Equal(Tracking, f.State())

	est, err := f.Predict(transf.New(1, 0, 0))
	assert.NoError(err)
	assert.InDelta(1.0, est.Pose().X, 1e-12)
	assert.InDelta(2.0, est.Pose().Y, 1e-12)
	assert.InDelta(math.Pi/2, est.Pose().Phi, 1e-12)
	assert.InDeltaSlice([]float64{0.16, 0, 0, 0, 0.04, 0, 0, 0, 0}, matrix.Flat(est.Cov()), 1e-12)
}

func TestEKFLocate(t *testing.T) {
	assert := assert.New(t)

	f := newEKF(t, DefaultConfig(), transf.Identity, 0.2)
	before := mat.Trace(f.Cov())

	rec := &diag.Record{}
	ok, err := f.Locate(transf.Identity, wall, rec)
	assert.True(ok)
	assert.NoError(err)

	assert.InDelta(0.0, f.Pose().X, 1e-3)
	assert.InDelta(0.0, f.Pose().Y, 1e-3)
	assert.InDelta(0.0, f.Pose().Phi, 1e-3)
	assert.True(mat.Trace(f.Cov()) < before)

	assert.Len(rec.Matches, 1)
	assert.Equal(0, rec.Matches[0].Segment)
	assert.True(rec.Matches[0].Ratio < 1)
	assert.False(rec.NoMatches)
	assert.False(rec.Jump)
	assert.Len(rec.LaserRho, wall.Len())
	assert.NotEmpty(rec.Splits)
	assert.Equal(1, rec.Features)

	// wall constrains x and heading but not y
	cov := f.Cov()
	assert.True(cov.At(0, 0) < 0.01)
	assert.True(cov.At(2, 2) < 0.01)
	assert.InDelta(0.01, cov.At(1, 1), 1e-6)

	// the estimate is a valid covariance
	var chol mat.Cholesky
	assert.True(chol.Factorize(cov))

	assert.False(mat.Equal(f.Gain(), mat.NewDense(3, 2, nil)))
}

func TestEKFLocateJump(t *testing.T) {
	assert := assert.New(t)

	f := newEKF(t, DefaultConfig(), transf.New(0.5, 0, 0), 1.0)

	rec := &diag.Record{}
	ok, err := f.Locate(transf.Identity, wall, rec)
	assert.True(ok)
	assert.NoError(err)

	assert.InDelta(0.0, f.Pose().X, 1e-2)
	assert.True(rec.Jump)
	assert.InDelta(0.5, rec.JumpDistance, 1e-2)
}

func TestEKFLocateGate(t *testing.T) {
	assert := assert.New(t)

	// pose is far off and confident
	f := newEKF(t, DefaultConfig(), transf.New(1, 0, 0), 0.01)

	rec := &diag.Record{}
	ok, err := f.Locate(transf.Identity, wall, rec)
	assert.True(ok)
	assert.NoError(err)

	assert.Empty(rec.Matches)
	assert.True(rec.NoMatches)
	assert.Equal(transf.New(1, 0, 0), f.Pose())
}

func TestEKFLocateThrottle(t *testing.T) {
	assert := assert.New(t)

	cfg := DefaultConfig()
	cfg.MinOdomDistance = 0.5
	cfg.MinOdomAngle = 0.5
	f := newEKF(t, cfg, transf.Identity, 0.2)

	// first cycle always runs
	ok, err := f.Locate(transf.Identity, wall, nil)
	assert.True(ok)
	assert.NoError(err)

	rec := &diag.Record{}
	ok, err = f.Locate(transf.New(0.1, 0, 0.1), wall, rec)
	assert.False(ok)
	assert.NoError(err)
	assert.True(rec.Throttled)

	ok, err = f.Locate(transf.New(0, 0, 0.5), wall, nil)
	assert.True(ok)
	assert.NoError(err)
}

func TestEKFLocateErrors(t *testing.T) {
	assert := assert.New(t)

	f, err := New(DefaultConfig(), seg, m)
	require.NoError(t, err)

	ok, err := f.Locate(transf.Identity, wall, nil)
	assert.False(ok)
	assert.Equal(ErrNotInitialized, err)

	f.SetPoses(transf.Identity, transf.Identity)
	f.SetMap(smap.New())
	ok, err = f.Locate(transf.Identity, wall, nil)
	assert.False(ok)
	assert.Equal(smap.ErrEmptyMap, err)

	f.SetMap(nil)
	_, err = f.Locate(transf.Identity, wall, nil)
	assert.Equal(smap.ErrEmptyMap, err)
}

func TestMahalanobisToSegment(t *testing.T) {
	assert := assert.New(t)

	f := newEKF(t, DefaultConfig(), transf.Identity, 0.2)
	features := seg.Segment(wall, nil)
	require.Len(t, features, 1)

	for _, test := range []struct {
		x1, y1, x2, y2 float64
		flipped        bool
		overlaps       bool
	}{
		{5, -1, 5, 1, false, true},
		{5, 1, 5, -1, true, true},
		{5, 10, 5, 12, false, false},
	} {
		s, err := smap.NewSegment(test.x1, test.y1, test.x2, test.y2)
		require.NoError(t, err)

		p, err := f.MahalanobisToSegment(features[0], s)
		assert.NoError(err)
		assert.True(p.D2 < f.Gate())
		assert.Equal(test.flipped, p.Flipped)
		assert.Equal(test.overlaps, p.Overlap <= 0)
	}

	// segment parallel to the wall but a meter closer
	s, err := smap.NewSegment(4, -1, 4, 1)
	require.NoError(t, err)
	p, err := f.MahalanobisToSegment(features[0], s)
	assert.NoError(err)
	assert.True(p.D2 > f.Gate())
}
