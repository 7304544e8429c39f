package segment

import (
	"math"
	"sort"

	"github.com/milosgajdos/go-vloc/scan"
	"github.com/milosgajdos/go-vloc/transf"
	"github.com/milosgajdos/go-vloc/uloc"
)

// Region is a homogeneous region of a scan
type Region struct {
	// From is the index of the first reading
	From int
	// To is the index of the last reading
	To int
	// Endpoints are the sorted split points, From and To included
	Endpoints []int
}

// FindRegions returns the homogeneous regions of s in scan order.
// Regions whose endpoints are not farther apart than MinRegionLength
// or that have fewer than MinPointsInRegion readings are discarded.
func (sg *Segmenter) FindRegions(s *scan.Scan) []Region {
	var regions []Region

	for k := 0; k < s.Len(); k++ {
		from := k
		for k < s.Len()-1 {
			if math.Abs(s.Phi(k)-s.Phi(k+1)) > sg.cfg.MaxEmptyAngle {
				break
			}
			if math.Abs(s.Rho(k+1)-s.Rho(k)) > sg.cfg.MaxEmptyDistance {
				break
			}
			k++
		}
		to := k

		if distance(s, from, to) > sg.cfg.MinRegionLength && to-from+1 >= sg.cfg.MinPointsInRegion {
			regions = append(regions, Region{
				From:      from,
				To:        to,
				Endpoints: []int{from, to},
			})
		}
	}

	return regions
}

// Split splits region r recursively and stores the sorted split points in r.Endpoints.
// It returns the number of edge fits skipped because they were degenerate.
func (sg *Segmenter) Split(s *scan.Scan, r *Region) int {
	r.Endpoints = []int{r.From, r.To}
	skipped := sg.split(s, r.From, r.To, r)
	sort.Ints(r.Endpoints)

	return skipped
}

func (sg *Segmenter) split(s *scan.Scan, from, to int, r *Region) int {
	// no interior reading to split at
	if to-from < 2 {
		return 0
	}

	bp, m, residual, err := farthest(s, from, to)
	if err != nil {
		return 1
	}

	if bp < 0 || !(m > sg.threshold) {
		return 0
	}

	if sg.cfg.CheckResidual {
		_, _, r1, err := farthest(s, from, bp)
		if err != nil {
			return 1
		}
		_, _, r2, err := farthest(s, bp, to)
		if err != nil {
			return 1
		}
		if residual < r1+r2 {
			return 0
		}
	}

	if !aligned(s, from, to, bp, sg.cfg.MaxAngEBE) {
		return 0
	}

	if !(distance(s, from, bp) > sg.cfg.MinDistBetweenEndpoints) || !(distance(s, bp, to) > sg.cfg.MinDistBetweenEndpoints) {
		return 0
	}

	r.Endpoints = append(r.Endpoints, bp)

	return sg.split(s, from, bp, r) + sg.split(s, bp, to, r)
}

// farthest fits an edge to the readings from and to and returns the interior reading
// farthest from it together with its squared Mahalanobis distance and the sum of the
// squared Mahalanobis distances of all interior readings.
// The returned index is -1 if no interior reading is off the edge.
func farthest(s *scan.Scan, from, to int) (int, float64, float64, error) {
	e, err := uloc.EdgeFromEndpoints(s.Point(from), s.Point(to))
	if err != nil {
		return -1, 0, 0, err
	}

	bp, maxd2, residual := -1, 0.0, 0.0
	for k := from + 1; k < to; k++ {
		d2 := uloc.MahalanobisEdgePoint(e, s.Point(k))
		residual += d2
		if d2 > maxd2 {
			maxd2, bp = d2, k
		}
	}

	return bp, maxd2, residual, nil
}

// aligned returns true if the directions from -> bp and bp -> to differ by at least maxAngle.
func aligned(s *scan.Scan, from, to, bp int, maxAngle float64) bool {
	p1, pb, p2 := s.Point(from).Loc(), s.Point(bp).Loc(), s.Point(to).Loc()
	phi := transf.SpAtan2(p2.Y-pb.Y, p2.X-pb.X) - transf.SpAtan2(pb.Y-p1.Y, pb.X-p1.X)

	return math.Abs(phi) >= maxAngle
}

func distance(s *scan.Scan, from, to int) float64 {
	return s.Point(from).Loc().Distance(s.Point(to).Loc())
}
