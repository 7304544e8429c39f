package uloc

import (
	"fmt"
	"math"

	"github.com/milosgajdos/go-vloc/matrix"
	"github.com/milosgajdos/go-vloc/transf"
	"gonum.org/v1/gonum/mat"
)

// ErrSingular is returned when a covariance or information matrix can not be inverted.
var ErrSingular = matrix.ErrSingular

// eps is the smallest variance treated as non-zero
const eps = 1e-12

// InformationFilter returns the information contribution of the measurement
// equation h + H*x + G*v = 0 where v has covariance S:
//
//	F = H'*(G*S*G')^-1*H
//	N = H'*(G*S*G')^-1*h
//
// It returns ErrSingular if G*S*G' can not be inverted reliably.
func InformationFilter(H, G mat.Matrix, h mat.Vector, S mat.Symmetric) (*mat.SymDense, *mat.VecDense, error) {
	a := matrix.Sandwich(G, S)
	aInv, err := matrix.Inverse(a)
	if err != nil {
		return nil, nil, ErrSingular
	}

	// H'*A^-1
	ha := &mat.Dense{}
	ha.Mul(H.T(), aInv)

	f := &mat.Dense{}
	f.Mul(ha, H)

	n := &mat.VecDense{}
	n.MulVec(ha, h)

	return matrix.Sym(f), n, nil
}

// Estimate returns the covariance P = F^-1 and the estimate x = -P*N
// given the accumulated information matrix F and vector N.
// It returns ErrSingular if F can not be inverted reliably.
func Estimate(F mat.Symmetric, N mat.Vector) (*mat.SymDense, *mat.VecDense, error) {
	pInv, err := matrix.Inverse(F)
	if err != nil {
		return nil, nil, ErrSingular
	}

	p := matrix.Sym(pInv)

	x := &mat.VecDense{}
	x.MulVec(p, N)
	x.ScaleVec(-1, x)

	return p, x, nil
}

// MahalanobisDistance returns the squared Mahalanobis distance of the location
// of b relative to a, given Lwa and Lwb, in the subspace selected by the binding bab.
// It returns ErrSingular if the relative covariance can not be inverted reliably.
func MahalanobisDistance(wa, wb *Uloc, bab mat.Matrix) (float64, error) {
	ab, cab := RelativeLocation(wa, wb)

	v := &mat.VecDense{}
	v.MulVec(bab, ab.Vec())

	cInv, err := matrix.Inverse(matrix.Sandwich(bab, cab))
	if err != nil {
		return 0, ErrSingular
	}

	return matrix.QuadForm(v, cInv), nil
}

// MahalanobisEdgePoint returns the squared Mahalanobis distance between the edge Lwe
// and the point Lwp measured along the edge normal.
// If the combined lateral variance vanishes the distance is +Inf for a point off the edge
// and 0 for a point on it.
func MahalanobisEdgePoint(we, wp *Uloc) float64 {
	ep := transf.Rel(we.loc, wp.loc)
	ce, cp := we.cov, wp.cov
	s, c := math.Sincos(ep.Phi)

	v := ce.At(0, 0) + ep.X*(2*ce.At(0, 1)+ep.X*ce.At(1, 1)) +
		cp.At(0, 0)*s*s + 2*cp.At(0, 1)*s*c + cp.At(1, 1)*c*c

	if v < eps {
		if math.Abs(ep.Y) < eps {
			return 0
		}
		return math.Inf(1)
	}

	return ep.Y * ep.Y / v
}

// AnalyticalEdge returns the edge through the points p1 and p2 given in the same reference.
// The edge is located at their midpoint and oriented from p1 to p2. Its covariance is zero.
func AnalyticalEdge(p1, p2 transf.Transf) *Uloc {
	loc := transf.New((p1.X+p2.X)/2, (p1.Y+p2.Y)/2, math.Atan2(p2.Y-p1.Y, p2.X-p1.X))

	return New(Edge, loc)
}

// IntegratePointOnEdge returns the information contribution of the point Lrp
// lying on the edge Lre. Both locations are given in the same reference.
func IntegratePointOnEdge(re, rp *Uloc) (*mat.SymDense, *mat.VecDense, error) {
	ep := transf.Rel(re.loc, rp.loc)
	s, c := math.Sincos(ep.Phi)

	h := mat.NewVecDense(1, []float64{ep.Y})
	H := mat.NewDense(1, 2, []float64{-1, -ep.X})
	G := mat.NewDense(1, 2, []float64{s, c})

	return InformationFilter(H, G, h, rp.cov)
}

// EdgeFromEndpoints returns the edge estimated from the two points Lsp1 and Lsp2.
// It returns ErrSingular if the information from the endpoints is degenerate.
func EdgeFromEndpoints(p1, p2 *Uloc) (*Uloc, error) {
	e := AnalyticalEdge(p1.loc, p2.loc)
	if err := Integrate(e, p1, p2); err != nil {
		return nil, err
	}

	return e, nil
}

// Integrate refines the edge e in place using the points lying on it.
// The edge ends up centered with the covariance of the estimate.
// It returns ErrSingular and leaves e untouched if the information is degenerate.
func Integrate(e *Uloc, points ...*Uloc) error {
	if e.kind != Edge {
		return fmt.Errorf("invalid location kind: %s", e.kind)
	}

	F := mat.NewSymDense(2, nil)
	N := mat.NewVecDense(2, nil)

	for _, p := range points {
		f, n, err := IntegratePointOnEdge(e, p)
		if err != nil {
			return err
		}
		F.AddSym(F, f)
		N.AddVec(N, n)
	}

	P, x, err := Estimate(F, N)
	if err != nil {
		return err
	}

	e.pert.CopyVec(x)
	e.cov.CopySym(P)
	e.Center()

	return nil
}
