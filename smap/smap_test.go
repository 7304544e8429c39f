package smap

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSegment(t *testing.T) {
	assert := assert.New(t)

	s, err := NewSegment(0, 0, 2, 2)
	assert.NoError(err)
	assert.InDelta(1.0, s.Loc.X, 1e-12)
	assert.InDelta(1.0, s.Loc.Y, 1e-12)
	assert.InDelta(math.Pi/4, s.Loc.Phi, 1e-12)
	assert.InDelta(2*math.Sqrt2, s.Length, 1e-12)

	x1, y1, x2, y2 := s.Endpoints()
	assert.InDeltaSlice([]float64{0, 0, 2, 2}, []float64{x1, y1, x2, y2}, 1e-12)

	_, err = NewSegment(1, 1, 1, 1)
	assert.Error(err)

	_, err = NewSegment(math.NaN(), 1, 1, 1)
	assert.Error(err)
}

func TestMap(t *testing.T) {
	assert := assert.New(t)

	m := New()
	assert.True(m.IsEmpty())

	assert.NoError(m.Add(0, 0, 1, 0))
	assert.Error(m.Add(0, 0, 0, 0))
	assert.Equal(1, m.Len())

	err := m.AddSegments([][4]float64{{0, 0, 0, 1}, {1, 1, 1, 1}})
	assert.Error(err)
	assert.Equal(1, m.Len())

	assert.NoError(m.AddSegments([][4]float64{{0, 0, 0, 1}, {5, -1, 5, 1}}))
	assert.Equal(3, m.Len())
	assert.False(m.IsEmpty())

	// segments keep insertion order
	assert.InDelta(5.0, m.Segment(2).Loc.X, 1e-12)
	x1, y1, x2, y2 := m.Endpoints(2)
	assert.InDeltaSlice([]float64{5, -1, 5, 1}, []float64{x1, y1, x2, y2}, 1e-12)

	segs := m.Segments()
	segs[0].Length = 100
	assert.Equal(1.0, m.Segment(0).Length)
}

func TestLoad(t *testing.T) {
	assert := assert.New(t)

	m, err := Load(strings.NewReader("0 0 1 0\n5 -1\t5 1\n\n  -2.5 0 -2.5 3e0"))
	require.NoError(t, err)
	assert.Equal(3, m.Len())
	assert.InDelta(1.5, m.Segment(2).Loc.Y, 1e-12)

	// incomplete quadruple
	_, err = Load(strings.NewReader("0 0 1 0 2 2 3"))
	assert.Error(err)

	// not a number
	_, err = Load(strings.NewReader("0 0 1 x"))
	assert.Error(err)

	// degenerate segment
	_, err = Load(strings.NewReader("0 0 0 0"))
	assert.Error(err)

	_, err = Load(strings.NewReader("  \n"))
	assert.Equal(ErrEmptyMap, errors.Cause(err))
}

func TestLoadFile(t *testing.T) {
	assert := assert.New(t)

	path := filepath.Join(t.TempDir(), "map.txt")
	require.NoError(t, os.WriteFile(path, []byte("0 0 4 0\n4 0 4 4\n"), 0o644))

	m, err := LoadFile(path)
	assert.NoError(err)
	assert.Equal(2, m.Len())

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(err)
}

func TestLoadWKB(t *testing.T) {
	assert := assert.New(t)

	room := orb.Polygon{orb.Ring{{0, 0}, {4, 0}, {4, 3}, {0, 3}, {0, 0}}}
	data, err := wkb.Marshal(room)
	require.NoError(t, err)

	m, err := LoadWKB(data)
	require.NoError(t, err)
	assert.Equal(4, m.Len())
	assert.InDelta(4.0, m.Segment(0).Length, 1e-12)
	assert.InDelta(3.0, m.Segment(1).Length, 1e-12)

	walls := orb.Collection{
		orb.LineString{{0, 0}, {1, 0}, {1, 0}, {1, 1}},
		orb.MultiLineString{{{5, -1}, {5, 1}}},
		orb.Point{2, 2},
	}
	data, err = wkb.Marshal(walls)
	require.NoError(t, err)

	m, err = LoadWKB(data)
	require.NoError(t, err)
	assert.Equal(3, m.Len())

	data, err = wkb.Marshal(orb.Point{1, 1})
	require.NoError(t, err)
	_, err = LoadWKB(data)
	assert.Equal(ErrEmptyMap, err)

	_, err = LoadWKB([]byte{1, 2, 3})
	assert.Error(err)
}
