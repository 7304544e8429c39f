package uloc

import (
	"github.com/milosgajdos/go-vloc/matrix"
	"github.com/milosgajdos/go-vloc/transf"
	"gonum.org/v1/gonum/mat"
)

// Inverse returns Lba given Lab.
func Inverse(ab *Uloc) *Uloc {
	b := ab.kind.Binding()

	// perturbation of the inverse is expressed in the other frame
	bj := &mat.Dense{}
	bj.Mul(b, transf.Jacobian(ab.loc))
	j := &mat.Dense{}
	j.Mul(bj, b.T())
	j.Scale(-1, j)

	pert := &mat.VecDense{}
	pert.MulVec(j, ab.pert)

	return &Uloc{
		kind: ab.kind,
		loc:  transf.Inv(ab.loc),
		pert: pert,
		cov:  matrix.Sandwich(j, ab.cov),
	}
}

// ComposeTransf returns Lwe given Lwf and the deterministic transformation Xfe.
func ComposeTransf(wf *Uloc, fe transf.Transf) *Uloc {
	b := wf.kind.Binding()

	bj := &mat.Dense{}
	bj.Mul(b, transf.InvJacobian(fe))
	j := &mat.Dense{}
	j.Mul(bj, b.T())

	pert := &mat.VecDense{}
	pert.MulVec(j, wf.pert)

	return &Uloc{
		kind: wf.kind,
		loc:  transf.Compose(wf.loc, fe),
		pert: pert,
		cov:  matrix.Sandwich(j, wf.cov),
	}
}

// TransfCompose returns Lwe given the deterministic transformation Xwf and Lfe.
// Perturbation and covariance are expressed in e so they are left unchanged.
func TransfCompose(wf transf.Transf, fe *Uloc) *Uloc {
	return &Uloc{
		kind: fe.kind,
		loc:  transf.Compose(wf, fe.loc),
		pert: fe.Pert(),
		cov:  fe.Cov(),
	}
}

// Compose returns Lwe given Lwf and Lfe. The result has the kind of Lfe.
func Compose(wf, fe *Uloc) *Uloc {
	bf := wf.kind.Binding()
	be := fe.kind.Binding()

	bj := &mat.Dense{}
	bj.Mul(be, transf.InvJacobian(fe.loc))
	m := &mat.Dense{}
	m.Mul(bj, bf.T())

	pert := &mat.VecDense{}
	pert.MulVec(m, wf.pert)
	pert.AddVec(pert, fe.pert)

	cov := &mat.Dense{}
	cov.Add(matrix.Sandwich(m, wf.cov), fe.cov)

	return &Uloc{
		kind: fe.kind,
		loc:  transf.Compose(wf.loc, fe.loc),
		pert: pert,
		cov:  matrix.Sym(cov),
	}
}

// RelativeLocation returns the location of b relative to a, given Lwa and Lwb,
// and the 3x3 covariance of the relative location. Both locations are
// centered on copies before the relative location is computed.
func RelativeLocation(wa, wb *Uloc) (transf.Transf, *mat.SymDense) {
	a, b := wa.Clone(), wb.Clone()
	a.Center()
	b.Center()

	ab := transf.Rel(a.loc, b.loc)

	ba := a.kind.Binding()
	bb := b.kind.Binding()

	// full 3x3 covariances of the differential locations
	ca := matrix.Sandwich(ba.T(), a.cov)
	cb := matrix.Sandwich(bb.T(), b.cov)

	cab := &mat.Dense{}
	cab.Add(matrix.Sandwich(transf.J1Zero(ab), ca), matrix.Sandwich(transf.J2Zero(ab), cb))

	return ab, matrix.Sym(cab)
}
