package physics

import (
	"github.com/notargets/goprob3/types"
	"github.com/notargets/goprob3/utils"
)

/*
layerOperator holds what is needed to build the transition matrix of a
single constant density layer: the phase of each expansion term and the
Lagrange projectors onto the matter eigenstates, expressed in the mass basis
	P_k = Π_{j≠k} (2E·H - M_j) / (M_k - M_j)
*/
type layerOperator struct {
	args       [nExpansionTerms]float64
	projectors [nExpansionTerms]utils.CMatrix3
}

func (p *Parameters) newLayerOperator(lengthKm, energy, rho float64, nt types.NeutrinoType,
	phaseOffset float64) (lo layerOperator) {
	var (
		fac              = MatterPotential(energy, rho, nt)
		dmMatMat, dmMat0 = p.MatterEigenvalues(energy, rho, nt)
		twoEHmM          [3]utils.CMatrix3
	)
	for n := 0; n < 3; n++ {
		for m := 0; m < 3; m++ {
			h := complex(-fac, 0) * conjMul(p.U[0][n], p.U[0][m])
			for j := 0; j < 3; j++ {
				twoEHmM[j][n][m] = h
			}
		}
		for j := 0; j < 3; j++ {
			twoEHmM[j][n][n] -= complex(dmMat0[j][n], 0)
		}
	}
	for k := 0; k < nExpansionTerms; k++ {
		var (
			a = (k + 1) % 3
			b = (k + 2) % 3
		)
		lo.projectors[k] = utils.Mul3(&twoEHmM[a], &twoEHmM[b])
		lo.projectors[k].Scale(complex(1/(dmMatMat[k][a]*dmMatMat[k][b]), 0))
		lo.args[k] = -LoEFactor * dmMat0[k][0] * lengthKm / energy
	}
	lo.args[2] += phaseOffset
	return
}

/*
TransitionMatrix returns the flavor basis amplitude matrix A(out, in) for a
layer of constant density rho (g/cm³, electron weighted) and length lengthKm
traversed at energy (GeV). phaseOffset is added to the third expansion phase.
A is formed as U·X·U† with X = Σ_k exp(i·arg_k)·P_k, contracted through the
precomputed mixing matrix products.
*/
func (p *Parameters) TransitionMatrix(lengthKm, energy, rho float64, nt types.NeutrinoType,
	phaseOffset float64) (A utils.CMatrix3) {
	var (
		lo = p.newLayerOperator(lengthKm, energy, rho, nt, phaseOffset)
		X  utils.CMatrix3
	)
	for k := 0; k < nExpansionTerms; k++ {
		X.AddPhased(lo.args[k], &lo.projectors[k])
	}
	for n := 0; n < 3; n++ {
		for m := 0; m < 3; m++ {
			var re, im float64
			for i := 0; i < 3; i++ {
				for j := 0; j < 3; j++ {
					var (
						f      = &p.axFac[n][m][i][j]
						xr, xi = real(X[i][j]), imag(X[i][j])
					)
					re += f[0]*xr + f[1]*xi
					im += f[2]*xi + f[3]*xr
				}
			}
			A[n][m] = complex(re, im)
		}
	}
	return
}

/*
TransitionExpansion decomposes the layer transition matrix into
	A = Σ_k exp(i·arg_k)·C_k,  C_k = U·P_k·U†
returning the phases and the flavor basis coefficient matrices separately.
The atmospheric layer is kept in this form so its phases can be averaged
over production heights.
*/
func (p *Parameters) TransitionExpansion(lengthKm, energy, rho float64, nt types.NeutrinoType,
	phaseOffset float64) (args [nExpansionTerms]float64, C [nExpansionTerms]utils.CMatrix3) {
	var (
		lo = p.newLayerOperator(lengthKm, energy, rho, nt, phaseOffset)
		Ud = p.U.Dagger()
	)
	args = lo.args
	for k := 0; k < nExpansionTerms; k++ {
		C[k] = utils.Mul3(&p.U, &lo.projectors[k])
		C[k].RightMul(&Ud)
	}
	return
}

// SumExpansion recombines the expansion terms into the transition matrix
func SumExpansion(args [nExpansionTerms]float64, C *[nExpansionTerms]utils.CMatrix3) (A utils.CMatrix3) {
	for k := 0; k < nExpansionTerms; k++ {
		A.AddPhased(args[k], &C[k])
	}
	return
}

// conjMul returns conj(a)·b
func conjMul(a, b complex128) complex128 {
	return complex(real(a)*real(b)+imag(a)*imag(b), real(a)*imag(b)-imag(a)*real(b))
}
