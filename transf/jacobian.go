package transf

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Jacobian returns the Jacobian of the transformation ab.
// It maps a differential location expressed in b into one expressed in a.
func Jacobian(ab Transf) *mat.Dense {
	s, c := math.Sincos(ab.Phi)

	return mat.NewDense(3, 3, []float64{
		c, -s, ab.Y,
		s, c, -ab.X,
		0, 0, 1,
	})
}

// InvJacobian returns the Jacobian of the inverse of the transformation ab.
func InvJacobian(ab Transf) *mat.Dense {
	s, c := math.Sincos(ab.Phi)

	return mat.NewDense(3, 3, []float64{
		c, s, ab.X*s - ab.Y*c,
		-s, c, ab.X*c + ab.Y*s,
		0, 0, 1,
	})
}

// J1 returns the derivative of Compose(a, b) with respect to a.
func J1(a, b Transf) *mat.Dense {
	s, c := math.Sincos(a.Phi)

	return mat.NewDense(3, 3, []float64{
		1, 0, -b.X*s - b.Y*c,
		0, 1, b.X*c - b.Y*s,
		0, 0, 1,
	})
}

// InvJ1 returns the inverse of J1(a, b).
func InvJ1(a, b Transf) *mat.Dense {
	s, c := math.Sincos(a.Phi)

	return mat.NewDense(3, 3, []float64{
		1, 0, b.X*s + b.Y*c,
		0, 1, -b.X*c + b.Y*s,
		0, 0, 1,
	})
}

// J1Zero returns J1(Identity, b).
func J1Zero(b Transf) *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		1, 0, -b.Y,
		0, 1, b.X,
		0, 0, 1,
	})
}

// InvJ1Zero returns the inverse of J1Zero(b).
func InvJ1Zero(b Transf) *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		1, 0, b.Y,
		0, 1, -b.X,
		0, 0, 1,
	})
}

// J2 returns the derivative of Compose(a, b) with respect to b.
// It does not depend on b.
func J2(a, _ Transf) *mat.Dense {
	return J2Zero(a)
}

// InvJ2 returns the inverse of J2(a, b).
func InvJ2(a, _ Transf) *mat.Dense {
	return InvJ2Zero(a)
}

// J2Zero returns J2(a, Identity).
func J2Zero(a Transf) *mat.Dense {
	s, c := math.Sincos(a.Phi)

	return mat.NewDense(3, 3, []float64{
		c, -s, 0,
		s, c, 0,
		0, 0, 1,
	})
}

// InvJ2Zero returns the inverse of J2Zero(a).
func InvJ2Zero(a Transf) *mat.Dense {
	s, c := math.Sincos(a.Phi)

	return mat.NewDense(3, 3, []float64{
		c, s, 0,
		-s, c, 0,
		0, 0, 1,
	})
}
