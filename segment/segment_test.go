package segment

import (
	"math"
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/milosgajdos/go-vloc/diag"
	"github.com/milosgajdos/go-vloc/scan"
	"github.com/milosgajdos/go-vloc/transf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
)

var (
	scanCfg scan.Config
	wall    *scan.Scan
	corner  *scan.Scan
)

// bearings returns n bearings evenly spaced from start with the given step.
func bearings(start, step float64, n int) []float64 {
	b := make([]float64, n)
	for i := range b {
		b[i] = start + float64(i)*step
	}

	return b
}

func newScan(b []float64, rng func(phi float64) float64) *scan.Scan {
	r := make([]float64, len(b))
	for i, phi := range b {
		r[i] = rng(phi)
	}

	s, err := scan.New(r, b, scanCfg)
	if err != nil {
		panic(err)
	}

	return s
}

func setup() {
	scanCfg = scan.Config{
		MaxRange:     7.9,
		LaserPose:    transf.Identity,
		RangeSigma:   0.045,
		BearingSigma: 0.004,
	}

	// wall at x = 5
	wall = newScan(bearings(-0.2, 0.01, 41), func(phi float64) float64 {
		return 5 / math.Cos(phi)
	})

	// walls at x = 3 and y = 3 meeting at a corner
	corner = newScan(bearings(0, 0.01, 158), func(phi float64) float64 {
		if phi < math.Pi/4 {
			return 3 / math.Cos(phi)
		}
		return 3 / math.Sin(phi)
	})
}

func TestMain(m *testing.M) {
	// set up tests
	setup()
	// run the tests
	retCode := m.Run()
	// call with result of m.Run()
	os.Exit(retCode)
}

func newSegmenter(t *testing.T, cfg Config) *Segmenter {
	sg, err := New(cfg)
	require.NoError(t, err)

	return sg
}

func TestNew(t *testing.T) {
	assert := assert.New(t)

	sg, err := New(DefaultConfig())
	assert.NotNil(sg)
	assert.NoError(err)
	assert.InDelta(3.841, sg.threshold, 1e-3)
	assert.Equal(DefaultConfig(), sg.Config())

	for _, mod := range []func(c *Config){
		func(c *Config) { c.MaxEmptyAngle = -1 },
		func(c *Config) { c.MaxEmptyDistance = -1 },
		func(c *Config) { c.MinRegionLength = -1 },
		func(c *Config) { c.MinPointsInRegion = 1 },
		func(c *Config) { c.MinPointsInSegment = 0 },
		func(c *Config) { c.SplitConfidence = 1 },
		func(c *Config) { c.SplitConfidence = 0 },
		func(c *Config) { c.MaxAngEBE = -0.1 },
		func(c *Config) { c.MinDistBetweenEndpoints = -0.1 },
	} {
		cfg := DefaultConfig()
		mod(&cfg)
		sg, err := New(cfg)
		assert.Nil(sg)
		assert.Error(err)
	}
}

func TestFindRegions(t *testing.T) {
	assert := assert.New(t)

	sg := newSegmenter(t, DefaultConfig())

	regions := sg.FindRegions(wall)
	assert.Equal([]Region{{From: 0, To: 40, Endpoints: []int{0, 40}}}, regions)

	// bearing gap
	b := append(bearings(-0.2, 0.01, 20), bearings(0.1, 0.01, 20)...)
	s := newScan(b, func(phi float64) float64 { return 5 / math.Cos(phi) })
	regions = sg.FindRegions(s)
	assert.Len(regions, 2)
	assert.Equal(19, regions[0].To)
	assert.Equal(20, regions[1].From)

	// range jump
	s = newScan(bearings(-0.2, 0.01, 40), func(phi float64) float64 {
		if phi < 0 {
			return 5
		}
		return 6
	})
	regions = sg.FindRegions(s)
	assert.Len(regions, 2)

	// regions are maximal and satisfy the size constraints
	for _, r := range sg.FindRegions(corner) {
		assert.True(r.To-r.From+1 >= sg.cfg.MinPointsInRegion)
		assert.True(distance(corner, r.From, r.To) > sg.cfg.MinRegionLength)
	}
}

func TestFindRegionsDiscards(t *testing.T) {
	assert := assert.New(t)

	sg := newSegmenter(t, DefaultConfig())

	// too few readings
	s := newScan(bearings(0, 0.01, 3), func(float64) float64 { return 5 })
	assert.Empty(sg.FindRegions(s))

	// too short: ten readings within a few centimeters
	s = newScan(bearings(0, 0.0005, 10), func(float64) float64 { return 5 })
	assert.Empty(sg.FindRegions(s))

	// empty scan
	s = newScan(nil, nil)
	assert.Empty(sg.FindRegions(s))
}

func TestSplit(t *testing.T) {
	assert := assert.New(t)

	sg := newSegmenter(t, DefaultConfig())

	// straight wall is not split
	regions := sg.FindRegions(wall)
	require.Len(t, regions, 1)
	assert.Equal(0, sg.Split(wall, &regions[0]))
	assert.Equal([]int{0, 40}, regions[0].Endpoints)

	// corner is split close to the corner bearing
	regions = sg.FindRegions(corner)
	require.Len(t, regions, 1)
	assert.Equal(0, sg.Split(corner, &regions[0]))
	require.Len(t, regions[0].Endpoints, 3)
	assert.Equal(0, regions[0].Endpoints[0])
	assert.InDelta(math.Pi/4, corner.Phi(regions[0].Endpoints[1]), 0.011)
	assert.Equal(157, regions[0].Endpoints[2])
}

func TestSplitConstraints(t *testing.T) {
	assert := assert.New(t)

	for _, test := range []struct {
		mod func(c *Config)
		eps int
	}{
		{func(c *Config) { c.CheckResidual = true }, 3},
		{func(c *Config) { c.MaxAngEBE = 5 }, 2},
		{func(c *Config) { c.MinDistBetweenEndpoints = 10 }, 2},
	} {
		cfg := DefaultConfig()
		test.mod(&cfg)
		sg := newSegmenter(t, cfg)

		regions := sg.FindRegions(corner)
		require.Len(t, regions, 1)
		sg.Split(corner, &regions[0])
		assert.Len(regions[0].Endpoints, test.eps)
	}
}

func TestSplitZeroWidth(t *testing.T) {
	assert := assert.New(t)

	sg := newSegmenter(t, DefaultConfig())
	r := &Region{From: 3, To: 4}
	assert.Equal(0, sg.Split(corner, r))
	assert.Equal([]int{3, 4}, r.Endpoints)
}

func TestSegments(t *testing.T) {
	assert := assert.New(t)

	sg := newSegmenter(t, DefaultConfig())

	rec := &diag.Record{}
	features := sg.Segment(wall, rec)
	require.Len(t, features, 1)

	f := features[0]
	loc := f.Edge.Loc()
	assert.InDelta(5.0, loc.X, 1e-6)
	assert.InDelta(0.0, loc.Y, 1e-6)
	assert.InDelta(math.Pi/2, loc.Phi, 1e-6)
	assert.InDelta(2*5*math.Tan(0.2), f.Length, 1e-9)
	assert.True(f.Codim > 0)
	assert.Equal(0, f.From)
	assert.Equal(40, f.To)
	pert := f.Edge.Pert().RawVector().Data
	assert.Equal(0.0, floats.Dot(pert, pert))

	cov := f.Edge.Cov()
	assert.True(cov.At(0, 0) > 0)
	assert.True(cov.At(1, 1) > 0)

	assert.Len(rec.Regions, 1)
	assert.Len(rec.Splits, 1)
	assert.Equal(0, rec.Skipped)
	assert.Equal(f.Span, rec.Splits[0])
}

func TestSegmentsCorner(t *testing.T) {
	assert := assert.New(t)

	sg := newSegmenter(t, DefaultConfig())

	features := sg.Segment(corner, nil)
	require.Len(t, features, 2)

	assert.InDelta(3.0, features[0].Edge.Loc().X, 0.05)
	assert.InDelta(3.0, features[1].Edge.Loc().Y, 0.05)

	// edges are oriented in scan order
	assert.InDelta(math.Pi/2, features[0].Edge.Loc().Phi, 0.05)
	assert.InDelta(math.Pi, math.Abs(features[1].Edge.Loc().Phi), 0.05)
}

func TestSegmentsMinPoints(t *testing.T) {
	assert := assert.New(t)

	cfg := DefaultConfig()
	cfg.MinPointsInSegment = 42
	sg := newSegmenter(t, cfg)
	assert.Empty(sg.Segment(wall, nil))

	cfg.MinPointsInSegment = 41
	sg = newSegmenter(t, cfg)
	assert.Len(sg.Segment(wall, nil), 1)
}

func TestSegmentDeterministic(t *testing.T) {
	sg := newSegmenter(t, DefaultConfig())

	rec1, rec2 := &diag.Record{}, &diag.Record{}
	f1 := sg.Segment(corner, rec1)
	f2 := sg.Segment(corner, rec2)

	if diff := cmp.Diff(rec1, rec2); diff != "" {
		t.Errorf("records differ (-want +got):\n%s", diff)
	}

	spans := func(fs Features) []diag.Span {
		s := make([]diag.Span, len(fs))
		for i := range fs {
			s[i] = fs[i].Span
		}
		return s
	}
	if diff := cmp.Diff(spans(f1), spans(f2)); diff != "" {
		t.Errorf("features differ (-want +got):\n%s", diff)
	}

	for i := range f1 {
		assert.Equal(t, f1[i].Edge.Loc(), f2[i].Edge.Loc())
	}
}
