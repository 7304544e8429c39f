package segment

import (
	"math"

	"github.com/milosgajdos/go-vloc/scan"
	"github.com/milosgajdos/go-vloc/transf"
	"github.com/milosgajdos/go-vloc/uloc"
)

// Segments fits an edge to every span between consecutive endpoints of the regions.
// Spans with fewer than MinPointsInSegment readings are ignored.
// It returns the features in scan order and the number of spans skipped because
// their fit was degenerate.
func (sg *Segmenter) Segments(s *scan.Scan, regions []Region) (Features, int) {
	var features Features
	skipped := 0

	for _, r := range regions {
		for i := 0; i < len(r.Endpoints)-1; i++ {
			from, to := r.Endpoints[i], r.Endpoints[i+1]
			if to-from+1 < sg.cfg.MinPointsInSegment {
				continue
			}

			f, err := fit(s, from, to)
			if err != nil {
				skipped++
				continue
			}
			features = append(features, f)
		}
	}

	return features, skipped
}

// fit integrates the readings in [from, to] into an edge.
// The location is estimated from all the readings, the covariance from the endpoints alone.
func fit(s *scan.Scan, from, to int) (Feature, error) {
	p1, p2 := s.Point(from), s.Point(to)

	e := uloc.AnalyticalEdge(p1.Loc(), p2.Loc())
	if err := uloc.Integrate(e, s.Points(from, to)...); err != nil {
		return Feature{}, err
	}

	ends := e.Clone()
	if err := uloc.Integrate(ends, p1, p2); err != nil {
		return Feature{}, err
	}
	if err := e.SetCov(ends.Cov()); err != nil {
		return Feature{}, err
	}

	return Feature{
		Edge:   e,
		Length: p1.Loc().Distance(p2.Loc()),
		Codim:  codimension(p1, p2),
		From:   from,
		To:     to,
		Span:   span(s, from, to),
	}, nil
}

// codimension returns the variance of the endpoints p1 and p2 along the line joining them.
func codimension(p1, p2 *uloc.Uloc) float64 {
	p12 := transf.Rel(p1.Loc(), p2.Loc())
	phi1 := math.Atan2(p12.Y, p12.X)
	phi2 := phi1 - p12.Phi

	c1, c2 := p1.Cov(), p2.Cov()
	s1, k1 := math.Sincos(phi1)
	s2, k2 := math.Sincos(phi2)

	return c1.At(0, 0)*k1*k1 + c1.At(1, 1)*s1*s1 + c2.At(0, 0)*k2*k2 + c2.At(1, 1)*s2*s2
}
