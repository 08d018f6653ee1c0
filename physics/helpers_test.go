package physics

import (
	"math"
	"math/cmplx"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/notargets/goprob3/utils"
)

const deg = math.Pi / 180

func standardParameters(t *testing.T, dCP float64) *Parameters {
	var (
		dm21 = 7.4e-5
		dm31 = 2.5e-3
	)
	par, err := NewStandardParameters(33.4*deg, 8.6*deg, 49*deg, dCP, dm21, dm31-dm21)
	require.NoError(t, err)
	return par
}

// prem4 is the four shell PREM approximation, listed from the center out
func prem4(t *testing.T) *EarthModel {
	em, err := NewEarthModel(
		[]float64{0, 1220, 3480, 5701, 6371},
		[]float64{13, 13, 11.3, 5, 3.3},
		[]float64{0.468, 0.468, 0.468, 0.497, 0.497},
	)
	require.NoError(t, err)
	return em
}

func vacuumEarth(t *testing.T) *EarthModel {
	em, err := NewUniformEarthModel(0, DefaultElectronFraction)
	require.NoError(t, err)
	return em
}

// vacuumAmplitude is Σ_i U(out,i)·conj(U(in,i))·exp(-i·2.534·DM(i,0)·L/E)
func vacuumAmplitude(par *Parameters, in, out int, lengthKm, energy float64) (a complex128) {
	for i := 0; i < 3; i++ {
		phase := -LoEFactor * par.DM[i][0] * lengthKm / energy
		a += par.U[out][i] * cmplx.Conj(par.U[in][i]) * cmplx.Exp(complex(0, phase))
	}
	return
}

// flavorHamiltonian returns 2E·H in the flavor basis, in eV², relative to m_0²
func flavorHamiltonian(par *Parameters, energy, rho float64, neutrino bool) (H utils.CMatrix3) {
	var D utils.CMatrix3
	for i := 0; i < 3; i++ {
		D[i][i] = complex(par.DM[i][0], 0)
	}
	Ud := par.U.Dagger()
	H = utils.Mul3(&par.U, &D)
	H.RightMul(&Ud)
	V := TwoRootTwoGF * energy * rho
	if !neutrino {
		V = -V
	}
	H[0][0] += complex(V, 0)
	return
}

// realEmbedding represents a Hermitian matrix as the real symmetric matrix
// [[Re, -Im], [Im, Re]], whose spectrum is that of H with each value doubled
func realEmbedding(H *utils.CMatrix3) *mat.SymDense {
	S := mat.NewSymDense(6, nil)
	for i := 0; i < 3; i++ {
		for j := i; j < 3; j++ {
			re, im := real(H[i][j]), imag(H[i][j])
			S.SetSym(i, j, re)
			S.SetSym(i+3, j+3, re)
			S.SetSym(i, j+3, -im)
			S.SetSym(j, i+3, im)
		}
	}
	return S
}

func referenceEigenvalues(t *testing.T, H *utils.CMatrix3) (vals [3]float64) {
	var es mat.EigenSym
	require.True(t, es.Factorize(realEmbedding(H), false))
	v := es.Values(nil)
	sort.Float64s(v)
	for i := 0; i < 3; i++ {
		vals[i] = v[2*i]
	}
	return
}

// referenceTransition evaluates exp(-i·t·H) through the eigen decomposition
// of the real embedding, t = 2.534·L/E
func referenceTransition(t *testing.T, H *utils.CMatrix3, lengthKm, energy float64) (T utils.CMatrix3) {
	var (
		es mat.EigenSym
		V  mat.Dense
		tt = LoEFactor * lengthKm / energy
	)
	require.True(t, es.Factorize(realEmbedding(H), true))
	vals := es.Values(nil)
	es.VectorsTo(&V)
	var (
		cosD = mat.NewDiagDense(6, nil)
		sinD = mat.NewDiagDense(6, nil)
		C, S mat.Dense
		tmp  mat.Dense
	)
	for i, v := range vals {
		s, c := math.Sincos(v * tt)
		cosD.SetDiag(i, c)
		sinD.SetDiag(i, s)
	}
	tmp.Mul(&V, cosD)
	C.Mul(&tmp, V.T())
	tmp.Mul(&V, sinD)
	S.Mul(&tmp, V.T())
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			var (
				cr, ci = C.At(i, j), C.At(i+3, j)
				sr, si = S.At(i, j), S.At(i+3, j)
			)
			T[i][j] = complex(cr+si, ci-sr)
		}
	}
	return
}

func sortedDiagonal(dmMatVac [3][3]float64) (v [3]float64) {
	for k := 0; k < 3; k++ {
		v[k] = dmMatVac[k][0]
	}
	s := v[:]
	sort.Float64s(s)
	return
}
