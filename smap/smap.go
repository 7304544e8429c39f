// Package smap implements the static map of line segments the robot localizes against.
package smap

import (
	"fmt"
	"math"

	"github.com/milosgajdos/go-vloc/transf"
	"github.com/pkg/errors"
)

// ErrEmptyMap is returned when a map has no segments.
var ErrEmptyMap = errors.New("map has no segments")

// Segment is a map segment
type Segment struct {
	// Loc is the segment midpoint oriented from the first to the second endpoint
	Loc transf.Transf `json:"loc"`
	// Length is the segment length
	Length float64 `json:"length"`
}

// NewSegment creates new segment from its endpoints.
// It returns error if the endpoints are not finite or coincide.
func NewSegment(x1, y1, x2, y2 float64) (Segment, error) {
	for _, v := range []float64{x1, y1, x2, y2} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Segment{}, fmt.Errorf("invalid segment: [%f %f %f %f]", x1, y1, x2, y2)
		}
	}

	length := math.Hypot(x2-x1, y2-y1)
	if length == 0 {
		return Segment{}, fmt.Errorf("zero length segment at [%f %f]", x1, y1)
	}

	return Segment{
		Loc:    transf.New((x1+x2)/2, (y1+y2)/2, math.Atan2(y2-y1, x2-x1)),
		Length: length,
	}, nil
}

// Endpoints returns the segment endpoints.
func (s Segment) Endpoints() (x1, y1, x2, y2 float64) {
	sn, cs := math.Sincos(s.Loc.Phi)
	dx, dy := cs*s.Length/2, sn*s.Length/2

	return s.Loc.X - dx, s.Loc.Y - dy, s.Loc.X + dx, s.Loc.Y + dy
}

// Map is an append-only collection of segments
type Map struct {
	segments []Segment
}

// New creates new empty Map and returns it.
func New() *Map {
	return &Map{}
}

// Add appends the segment with the given endpoints to the map.
// It returns error if the segment is invalid.
func (m *Map) Add(x1, y1, x2, y2 float64) error {
	s, err := NewSegment(x1, y1, x2, y2)
	if err != nil {
		return err
	}
	m.segments = append(m.segments, s)

	return nil
}

// AddSegments appends segments given by their endpoints to the map.
// Nothing is appended if any of the segments is invalid.
func (m *Map) AddSegments(endpoints [][4]float64) error {
	segments := make([]Segment, 0, len(endpoints))
	for i, e := range endpoints {
		s, err := NewSegment(e[0], e[1], e[2], e[3])
		if err != nil {
			return errors.Wrapf(err, "segment %d", i)
		}
		segments = append(segments, s)
	}
	m.segments = append(m.segments, segments...)

	return nil
}

// Len returns the number of segments in the map.
func (m *Map) Len() int {
	return len(m.segments)
}

// IsEmpty returns true if the map has no segments.
func (m *Map) IsEmpty() bool {
	return len(m.segments) == 0
}

// Segment returns the i-th segment.
func (m *Map) Segment(i int) Segment {
	return m.segments[i]
}

// Segments returns a copy of the map segments.
func (m *Map) Segments() []Segment {
	segments := make([]Segment, len(m.segments))
	copy(segments, m.segments)

	return segments
}

// Endpoints returns the endpoints of the i-th segment.
func (m *Map) Endpoints(i int) (x1, y1, x2, y2 float64) {
	return m.segments[i].Endpoints()
}
