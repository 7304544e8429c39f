package ekf

import (
	"math"

	"github.com/milosgajdos/go-vloc/diag"
	"github.com/milosgajdos/go-vloc/matrix"
	"github.com/milosgajdos/go-vloc/segment"
	"github.com/milosgajdos/go-vloc/smap"
	"github.com/milosgajdos/go-vloc/transf"
	"github.com/milosgajdos/go-vloc/uloc"
	gomatrix "github.com/milosgajdos/matrix"
	"gonum.org/v1/gonum/mat"
)

// flip reverses the orientation of a map segment
var flip = transf.New(0, 0, math.Pi)

// Pairing is an observed segment paired with a map segment
type Pairing struct {
	// D2 is the squared Mahalanobis distance of the pairing
	D2 float64
	// Overlap is the gap between the segments along the map segment; it is not positive when they overlap
	Overlap float64
	// Xme is the observed segment relative to the map segment
	Xme transf.Transf
	// Flipped is true if the map segment was paired in reverse orientation
	Flipped bool
}

// innovation is the linearized observation of an edge against a map segment
type innovation struct {
	// xme is the observed edge relative to the map segment
	xme transf.Transf
	// h is innovation vector
	h *mat.VecDense
	// hr is observation Jacobian with respect to the robot location
	hr *mat.Dense
	// r is observation noise
	r *mat.SymDense
	// sInv is inverse of innovation covariance
	sInv *mat.Dense
	// d2 is squared Mahalanobis distance
	d2 float64
}

// innovate computes the innovation of the observed edge e against the map segment
// located at xwm given the robot location x.
// It returns uloc.ErrSingular if the innovation covariance can not be inverted.
func innovate(x, e *uloc.Uloc, xwm transf.Transf) (*innovation, error) {
	bme := uloc.Edge.Binding()
	xre := e.Loc()

	xme := transf.Rel(xwm, transf.Compose(x.Loc(), xre))

	h := &mat.VecDense{}
	h.MulVec(bme, xme.Vec())

	// HR = Bme*J2zero(Xme)*InvJacobian(Xre)
	bj := &mat.Dense{}
	bj.Mul(bme, transf.J2Zero(xme))
	hr := &mat.Dense{}
	hr.Mul(bj, transf.InvJacobian(xre))

	// GE = Bme*J2zero(Xme)*Bme'
	ge := &mat.Dense{}
	ge.Mul(bj, bme.T())

	r := matrix.Sandwich(ge, e.Cov())

	s := &mat.Dense{}
	s.Add(matrix.Sandwich(hr, x.Cov()), r)

	sInv, err := matrix.Inverse(s)
	if err != nil {
		return nil, uloc.ErrSingular
	}

	return &innovation{
		xme:  xme,
		h:    h,
		hr:   hr,
		r:    r,
		sInv: sInv,
		d2:   matrix.QuadForm(h, sInv),
	}, nil
}

// pair computes the innovation of f against s in both orientations of s
// and returns the one with the smaller Mahalanobis distance.
func (k *EKF) pair(f segment.Feature, s smap.Segment) (*innovation, bool, error) {
	var (
		best    *innovation
		flipped bool
		err     error
	)

	for i, xwm := range []transf.Transf{s.Loc, transf.Compose(s.Loc, flip)} {
		inn, e := innovate(k.x, f.Edge, xwm)
		if e != nil {
			err = e
			continue
		}
		if best == nil || inn.d2 < best.d2 {
			best, flipped = inn, i == 1
		}
	}

	if best == nil {
		return nil, false, err
	}

	return best, flipped, nil
}

func overlap(xme transf.Transf, mLen, eLen float64) float64 {
	return math.Abs(xme.X) - (mLen+eLen)/2
}

// MahalanobisToSegment pairs the observed segment f with the map segment s
// given the current robot location.
// It returns uloc.ErrSingular if the innovation covariance can not be inverted.
func (k *EKF) MahalanobisToSegment(f segment.Feature, s smap.Segment) (Pairing, error) {
	inn, flipped, err := k.pair(f, s)
	if err != nil {
		return Pairing{}, err
	}

	return Pairing{
		D2:      inn.d2,
		Overlap: overlap(inn.xme, s.Length, f.Length),
		Xme:     inn.xme,
		Flipped: flipped,
	}, nil
}

// Update matches the observed segments, in scan order, to the closest map segment
// passing the gate and overlapping it, and fuses every match into the robot location
// as soon as it is found. Later segments are matched against the updated location.
// It returns the number of matched segments.
func (k *EKF) Update(features segment.Features, rec *diag.Record) int {
	if k.m == nil {
		return 0
	}

	matched := 0

	for i, f := range features {
		best, bestIdx := (*innovation)(nil), -1

		for j := 0; j < k.m.Len(); j++ {
			s := k.m.Segment(j)

			inn, _, err := k.pair(f, s)
			if err != nil {
				rec.Skip()
				continue
			}

			if inn.d2 > k.gate || overlap(inn.xme, s.Length, f.Length) > 0 {
				continue
			}

			if best == nil || inn.d2 < best.d2 {
				best, bestIdx = inn, j
			}
		}

		if best == nil {
			continue
		}

		if err := k.fuse(best); err != nil {
			rec.Skip()
			continue
		}

		matched++
		rec.AddMatch(diag.Match{
			Observed: f.Span,
			Feature:  i,
			Segment:  bestIdx,
			Ratio:    best.d2 / k.gate,
		})
	}

	return matched
}

// fuse updates the robot location with the innovation inn and centers it.
func (k *EKF) fuse(inn *innovation) error {
	p := k.x.Cov()

	// K = P*HR'*S^-1
	phr := &mat.Dense{}
	phr.Mul(p, inn.hr.T())
	gain := &mat.Dense{}
	gain.Mul(phr, inn.sInv)

	// Xk = -K*h
	xk := &mat.VecDense{}
	xk.MulVec(gain, inn.h)
	xk.ScaleVec(-1, xk)

	// Joseph form update
	eye, err := gomatrix.NewDenseValIdentity(3, 1.0)
	if err != nil {
		return err
	}
	a := &mat.Dense{}
	// K*HR
	a.Mul(gain, inn.hr)
	// eye - K*HR
	a.Sub(eye, a)

	pCorr := &mat.Dense{}
	pCorr.Add(matrix.Sandwich(a, p), matrix.Sandwich(gain, inn.r))

	if !matrix.Finite(pCorr) || !matrix.Finite(xk) {
		return uloc.ErrSingular
	}

	if err := k.x.SetPert(xk); err != nil {
		return err
	}
	if err := k.x.SetCov(matrix.Sym(pCorr)); err != nil {
		return err
	}
	// x = Compose(x, Xk), P = InvJ2zero(Xk)*P*InvJ2zero(Xk)'
	k.x.Center()
	k.k.Copy(gain)

	return nil
}
