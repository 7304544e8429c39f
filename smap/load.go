package smap

import (
	"bufio"
	"io"
	"os"
	"strconv"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
	"github.com/pkg/errors"
)

// Load reads a map of whitespace separated segment endpoint quadruples
// x1 y1 x2 y2 from r until EOF.
// It returns error if a token is not a number, the last quadruple is incomplete
// or the map has no segments.
func Load(r io.Reader) (*Map, error) {
	sc := bufio.NewScanner(r)
	sc.Split(bufio.ScanWords)

	var (
		endpoints [][4]float64
		quad      [4]float64
		n         int
	)

	for sc.Scan() {
		v, err := strconv.ParseFloat(sc.Text(), 64)
		if err != nil {
			return nil, errors.Wrapf(err, "segment %d", len(endpoints))
		}
		quad[n] = v
		n++
		if n == len(quad) {
			endpoints = append(endpoints, quad)
			n = 0
		}
	}

	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read map")
	}

	if n != 0 {
		return nil, errors.Errorf("incomplete segment %d: %d values", len(endpoints), n)
	}

	return newMap(endpoints)
}

// LoadFile reads the map stored in the file at path.
func LoadFile(path string) (*Map, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open map")
	}
	defer f.Close()

	m, err := Load(f)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load map %s", path)
	}

	return m, nil
}

// LoadWKB decodes a map from WKB encoded geometry.
// Every pair of consecutive vertices of line strings, polygon rings and
// multi geometries becomes a segment. Repeated vertices and points are ignored.
// It returns error if the data can not be decoded or the map has no segments.
func LoadWKB(data []byte) (*Map, error) {
	g, err := wkb.Unmarshal(data)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode WKB map")
	}

	var endpoints [][4]float64
	collect(g, &endpoints)

	return newMap(endpoints)
}

func collect(g orb.Geometry, endpoints *[][4]float64) {
	switch g := g.(type) {
	case orb.LineString:
		for i := 0; i < len(g)-1; i++ {
			if g[i].Equal(g[i+1]) {
				continue
			}
			*endpoints = append(*endpoints, [4]float64{g[i][0], g[i][1], g[i+1][0], g[i+1][1]})
		}
	case orb.MultiLineString:
		for _, ls := range g {
			collect(ls, endpoints)
		}
	case orb.Ring:
		collect(orb.LineString(g), endpoints)
	case orb.Polygon:
		for _, r := range g {
			collect(r, endpoints)
		}
	case orb.MultiPolygon:
		for _, p := range g {
			collect(p, endpoints)
		}
	case orb.Collection:
		for _, c := range g {
			collect(c, endpoints)
		}
	}
}

func newMap(endpoints [][4]float64) (*Map, error) {
	if len(endpoints) == 0 {
		return nil, ErrEmptyMap
	}

	m := New()
	if err := m.AddSegments(endpoints); err != nil {
		return nil, err
	}

	return m, nil
}
