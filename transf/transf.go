// Package transf implements 2D rigid transformation algebra.
package transf

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Transf is a rigid 2D transformation: translation (X, Y) followed by rotation Phi.
// Phi is always kept in (-Pi, Pi] by the functions in this package.
type Transf struct {
	// X is translation along x axis
	X float64 `json:"x"`
	// Y is translation along y axis
	Y float64 `json:"y"`
	// Phi is rotation angle
	Phi float64 `json:"phi"`
}

// Identity is the identity transformation
var Identity = Transf{}

// New creates new Transf and returns it. Phi is normalized to (-Pi, Pi].
func New(x, y, phi float64) Transf {
	return Transf{X: x, Y: y, Phi: Normalize(phi)}
}

// FromVec creates new Transf from a 3 element vector.
// It returns error if v does not have exactly 3 elements.
func FromVec(v mat.Vector) (Transf, error) {
	if v == nil || v.Len() != 3 {
		return Transf{}, fmt.Errorf("invalid transformation vector: %v", v)
	}

	return New(v.AtVec(0), v.AtVec(1), v.AtVec(2)), nil
}

// Vec returns t as a 3 element vector [x, y, phi].
func (t Transf) Vec() *mat.VecDense {
	return mat.NewVecDense(3, []float64{t.X, t.Y, t.Phi})
}

// Distance returns euclidean distance between the translations of t and o.
func (t Transf) Distance(o Transf) float64 {
	return math.Hypot(t.X-o.X, t.Y-o.Y)
}

// String implements the Stringer interface.
func (t Transf) String() string {
	return fmt.Sprintf("Transf{X=%.4f Y=%.4f Phi=%.4f}", t.X, t.Y, t.Phi)
}

// Normalize normalizes the angle p to (-Pi, Pi].
// It runs in constant time regardless of the magnitude of p.
// Non-finite angles normalize to NaN.
func Normalize(p float64) float64 {
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return math.NaN()
	}

	r := math.Remainder(p, 2*math.Pi)
	if r <= -math.Pi {
		r += 2 * math.Pi
	}

	return r
}

// Compose returns Tac, the composition of Tab and Tbc.
func Compose(ab, bc Transf) Transf {
	s, c := math.Sincos(ab.Phi)

	return Transf{
		X:   bc.X*c - bc.Y*s + ab.X,
		Y:   bc.X*s + bc.Y*c + ab.Y,
		Phi: Normalize(ab.Phi + bc.Phi),
	}
}

// Inv returns Tba, the inverse of Tab.
func Inv(ab Transf) Transf {
	s, c := math.Sincos(ab.Phi)

	return Transf{
		X:   -ab.Y*s - ab.X*c,
		Y:   ab.X*s - ab.Y*c,
		Phi: Normalize(-ab.Phi),
	}
}

// Rel returns the location of b relative to a given both in the same reference w.
func Rel(wa, wb Transf) Transf {
	return Compose(Inv(wa), wb)
}

// SpAtan2 computes atan2(y, x) and expresses the result anticlockwise,
// i.e. in (-3Pi/2, Pi/2].
func SpAtan2(y, x float64) float64 {
	phi := math.Atan2(y, x)
	if phi > math.Pi/2 {
		return phi - 2*math.Pi
	}

	return phi
}
