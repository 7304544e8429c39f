// Package uloc implements uncertain geometric locations.
//
// An uncertain location is a reference transformation together with a
// perturbation and its covariance. The perturbation lives in the subspace
// selected by the binding of the location kind, which keeps only the degrees
// of freedom that are meaningful for the kind of geometric entity located.
package uloc

import (
	"fmt"

	"github.com/milosgajdos/go-vloc/matrix"
	"github.com/milosgajdos/go-vloc/transf"
	"gonum.org/v1/gonum/mat"
)

// Kind is the kind of the located geometric entity
type Kind int

const (
	// Point has uncertain x and y
	Point Kind = iota
	// Edge has uncertain lateral position and orientation
	Edge
	// Robot has uncertain x, y and orientation
	Robot
)

// Dim returns the number of degrees of freedom of the kind.
func (k Kind) Dim() int {
	switch k {
	case Point, Edge:
		return 2
	case Robot:
		return 3
	}

	panic(fmt.Sprintf("invalid location kind: %d", int(k)))
}

// Binding returns the d x 3 binding matrix of the kind.
func (k Kind) Binding() *mat.Dense {
	switch k {
	case Point:
		return mat.NewDense(2, 3, []float64{
			1, 0, 0,
			0, 1, 0,
		})
	case Edge:
		return mat.NewDense(2, 3, []float64{
			0, 1, 0,
			0, 0, 1,
		})
	case Robot:
		return mat.NewDense(3, 3, []float64{
			1, 0, 0,
			0, 1, 0,
			0, 0, 1,
		})
	}

	panic(fmt.Sprintf("invalid location kind: %d", int(k)))
}

// String implements the Stringer interface.
func (k Kind) String() string {
	switch k {
	case Point:
		return "Point"
	case Edge:
		return "Edge"
	case Robot:
		return "Robot"
	}

	return fmt.Sprintf("Kind(%d)", int(k))
}

func (k Kind) valid() bool {
	return k == Point || k == Edge || k == Robot
}

// Uloc is uncertain location
type Uloc struct {
	// kind is the kind of located entity
	kind Kind
	// loc is the reference location
	loc transf.Transf
	// pert is the perturbation vector
	pert *mat.VecDense
	// cov is the perturbation covariance
	cov *mat.SymDense
}

// New creates new Uloc of the given kind at loc with zero perturbation and covariance.
// It panics if kind is not a valid location kind.
func New(kind Kind, loc transf.Transf) *Uloc {
	d := kind.Dim()

	return &Uloc{
		kind: kind,
		loc:  loc,
		pert: mat.NewVecDense(d, nil),
		cov:  mat.NewSymDense(d, nil),
	}
}

// NewWithCov creates new Uloc of the given kind at loc with covariance cov.
// It returns error if kind is invalid or cov dimension does not match the kind dimension.
func NewWithCov(kind Kind, loc transf.Transf, cov mat.Symmetric) (*Uloc, error) {
	if !kind.valid() {
		return nil, fmt.Errorf("invalid location kind: %d", int(kind))
	}

	u := New(kind, loc)
	if err := u.SetCov(cov); err != nil {
		return nil, err
	}

	return u, nil
}

// Kind returns location kind.
func (u *Uloc) Kind() Kind {
	return u.kind
}

// Loc returns reference location.
func (u *Uloc) Loc() transf.Transf {
	return u.loc
}

// SetLoc sets reference location.
func (u *Uloc) SetLoc(loc transf.Transf) {
	u.loc = loc
}

// Pert returns a copy of the perturbation vector.
func (u *Uloc) Pert() *mat.VecDense {
	p := &mat.VecDense{}
	p.CloneFromVec(u.pert)

	return p
}

// SetPert sets the perturbation vector.
// It returns error if p dimension does not match the location kind.
func (u *Uloc) SetPert(p mat.Vector) error {
	if p == nil || p.Len() != u.kind.Dim() {
		return fmt.Errorf("invalid perturbation for %s location: %v", u.kind, p)
	}
	u.pert.CopyVec(p)

	return nil
}

// Cov returns a copy of the perturbation covariance.
func (u *Uloc) Cov() *mat.SymDense {
	cov := mat.NewSymDense(u.cov.SymmetricDim(), nil)
	cov.CopySym(u.cov)

	return cov
}

// SetCov sets the perturbation covariance.
// It returns error if cov dimension does not match the location kind.
func (u *Uloc) SetCov(cov mat.Symmetric) error {
	if cov == nil || cov.SymmetricDim() != u.kind.Dim() {
		return fmt.Errorf("invalid covariance for %s location", u.kind)
	}
	u.cov.CopySym(cov)

	return nil
}

// Clone returns a deep copy of u.
func (u *Uloc) Clone() *Uloc {
	return &Uloc{
		kind: u.kind,
		loc:  u.loc,
		pert: u.Pert(),
		cov:  u.Cov(),
	}
}

// DifferentialLocation returns the perturbation expanded to a full transformation: B'*p
func (u *Uloc) DifferentialLocation() transf.Transf {
	de := &mat.VecDense{}
	de.MulVec(u.kind.Binding().T(), u.pert)

	return transf.Transf{X: de.AtVec(0), Y: de.AtVec(1), Phi: de.AtVec(2)}
}

// Center folds the perturbation into the reference location and
// re-linearizes the covariance around the new reference.
// The perturbation is exactly zero afterwards.
func (u *Uloc) Center() {
	de := u.DifferentialLocation()
	u.loc = transf.Compose(u.loc, de)

	b := u.kind.Binding()
	bj := &mat.Dense{}
	bj.Mul(b, transf.InvJ2Zero(de))
	d := &mat.Dense{}
	d.Mul(bj, b.T())

	u.cov.CopySym(matrix.Sandwich(d, u.cov))
	u.pert.Zero()
}

// ChangeBinding returns u expressed under the binding of kind.
func (u *Uloc) ChangeBinding(kind Kind) *Uloc {
	b := u.kind.Binding()
	bn := kind.Binding()

	// bn*b' maps the old perturbation subspace onto the new one
	m := &mat.Dense{}
	m.Mul(bn, b.T())

	pert := &mat.VecDense{}
	pert.MulVec(m, u.pert)

	return &Uloc{
		kind: kind,
		loc:  u.loc,
		pert: pert,
		cov:  matrix.Sandwich(m, u.cov),
	}
}

// String implements the Stringer interface.
func (u *Uloc) String() string {
	return fmt.Sprintf("Uloc{\nKind=%s\nLoc=%s\nPert=%v\nCov=%v\n}", u.kind, u.loc,
		mat.Formatted(u.pert.T(), mat.Squeeze()), mat.Formatted(u.cov, mat.Prefix("    "), mat.Squeeze()))
}
