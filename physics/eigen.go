package physics

import (
	"math"

	"github.com/notargets/goprob3/types"
	"github.com/notargets/goprob3/utils"
)

// MatterPotential returns the matter term 2·E·V in eV² for energy E in GeV
// and electron-weighted density rho (ρ·Ye) in g/cm³. The sign flips for
// antineutrinos.
func MatterPotential(energy, rho float64, nt types.NeutrinoType) float64 {
	if nt == types.Antineutrino {
		return TwoRootTwoGF * energy * rho
	}
	return -TwoRootTwoGF * energy * rho
}

/*
MatterEigenvalues solves the characteristic cubic of the effective
Hamiltonian 2E·H in constant density matter. It returns the matrices of
matter eigenvalue differences dmMatMat(i,j) = M_i - M_j and
dmMatVac(i,j) = M_i - m_j², with the eigenvalues ordered to follow the vacuum
masses.
*/
func (p *Parameters) MatterEigenvalues(energy, rho float64, nt types.NeutrinoType) (dmMatMat, dmMatVac [3][3]float64) {
	var (
		fac   = MatterPotential(energy, rho, nt)
		DM    = &p.DM
		ue0sq = abs2(p.U[0][0])
		ue1sq = abs2(p.U[0][1])
		ue2sq = abs2(p.U[0][2])
		alpha = fac + DM[0][1] + DM[0][2]
		beta  = DM[0][1]*DM[0][2] + fac*(DM[0][1]*(1-ue1sq)+DM[0][2]*(1-ue2sq))
		gamma = fac * DM[0][1] * DM[0][2] * ue0sq
		roots = cubicRoots(alpha, beta, gamma, DM[0][0])
		order = &p.order[nt]
		mMat  [3]float64
	)
	for i := 0; i < 3; i++ {
		mMat[i] = roots[order[i]]
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			dmMatMat[i][j] = mMat[i] - mMat[j]
			dmMatVac[i][j] = mMat[i] - DM[j][0]
		}
	}
	return
}

// cubicRoots returns the three real roots of the eigenvalue cubic in the
// trigonometric form, offset by the reference mass shift
func cubicRoots(alpha, beta, gamma, shift float64) (m [3]float64) {
	tmp := alpha*alpha - 3*beta
	if tmp < 0 {
		tmp = 0
	}
	var (
		arg    = (2*alpha*alpha*alpha - 9*alpha*beta + 27*gamma) / (2 * math.Sqrt(tmp*tmp*tmp))
		theta0 = math.Acos(utils.Clamp(arg, -1, 1)) / 3
		amp    = -2. / 3. * math.Sqrt(tmp)
		base   = shift - alpha/3
	)
	m[0] = amp*math.Cos(theta0) + base
	m[1] = amp*math.Cos(theta0-2*math.Pi/3) + base
	m[2] = amp*math.Cos(theta0+2*math.Pi/3) + base
	return
}

func abs2(c complex128) float64 {
	return real(c)*real(c) + imag(c)*imag(c)
}
