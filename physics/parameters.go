package physics

import (
	"fmt"
	"math"

	"github.com/notargets/goprob3/types"
	"github.com/notargets/goprob3/utils"
)

/*
Parameters is the immutable bundle shared by every cell of a batch: the
mixing matrix U, the vacuum mass difference matrix DM(i,j) = m_i² - m_j², and
what is derived from them once - the AXFAC tensor of mixing matrix products
and the vacuum eigenvalue ordering for each neutrino type.
*/
type Parameters struct {
	U  utils.CMatrix3
	DM [3][3]float64
	// axFac[n][m][i][j] holds the four real products of U(n,i) and U(m,j)
	// needed to form A = U·X·U† without a complex matrix multiply
	axFac [3][3][3][3][4]float64
	order [2][3]int
}

func NewParameters(U utils.CMatrix3, DM [3][3]float64) (p *Parameters, err error) {
	if U.IsNaN() {
		err = fmt.Errorf("%w: mixing matrix contains NaN", ErrConfiguration)
		return
	}
	if defect := U.UnitarityDefect(); defect > UnitarityTolerance {
		err = fmt.Errorf("%w: mixing matrix is not unitary, max|U·U†-I| = %g",
			ErrConfiguration, defect)
		return
	}
	for i := 0; i < 3; i++ {
		if DM[i][i] != 0 {
			err = fmt.Errorf("%w: mass difference DM(%d,%d) = %g, must be zero",
				ErrConfiguration, i, i, DM[i][i])
			return
		}
		for j := i + 1; j < 3; j++ {
			if DM[i][j] != -DM[j][i] || math.IsNaN(DM[i][j]) {
				err = fmt.Errorf("%w: mass differences are not antisymmetric, DM(%d,%d) = %g, DM(%d,%d) = %g",
					ErrConfiguration, i, j, DM[i][j], j, i, DM[j][i])
				return
			}
		}
	}
	p = &Parameters{
		U:  U,
		DM: DM,
	}
	p.buildAXFactors()
	for _, nt := range []types.NeutrinoType{types.Neutrino, types.Antineutrino} {
		p.order[nt] = p.prepareVacuumOrder()
	}
	return
}

// NewStandardParameters builds the bundle from mixing angles and the CP
// phase (radians) and the two independent mass splittings (eV²)
func NewStandardParameters(theta12, theta13, theta23, dCP, dm12sq, dm23sq float64) (*Parameters, error) {
	return NewParameters(NewPMNS(theta12, theta13, theta23, dCP),
		NewMassDifferences(dm12sq, dm23sq))
}

// NewPMNS returns the mixing matrix in the standard parameterization
func NewPMNS(theta12, theta13, theta23, dCP float64) (U utils.CMatrix3) {
	var (
		s12, c12 = math.Sincos(theta12)
		s13, c13 = math.Sincos(theta13)
		s23, c23 = math.Sincos(theta23)
		sd, cd   = math.Sincos(dCP)
	)
	U[0][0] = complex(c12*c13, 0)
	U[0][1] = complex(s12*c13, 0)
	U[0][2] = complex(s13*cd, -s13*sd)
	U[1][0] = complex(-s12*c23-c12*s23*s13*cd, -c12*s23*s13*sd)
	U[1][1] = complex(c12*c23-s12*s23*s13*cd, -s12*s23*s13*sd)
	U[1][2] = complex(s23*c13, 0)
	U[2][0] = complex(s12*s23-c12*c23*s13*cd, -c12*c23*s13*sd)
	U[2][1] = complex(-c12*s23-s12*c23*s13*cd, -s12*c23*s13*sd)
	U[2][2] = complex(c23*c13, 0)
	return
}

/*
NewMassDifferences builds DM(i,j) = m_i² - m_j² from the vacuum masses
{0, dm12sq, dm12sq + dm23sq}. No mass hierarchy is assumed. An exactly
zero splitting is shifted by DegeneracyShift so the eigenvalue problem never
sees a degenerate pair.
*/
func NewMassDifferences(dm12sq, dm23sq float64) (DM [3][3]float64) {
	mVac := [3]float64{0, dm12sq, dm12sq + dm23sq}
	if dm12sq == 0 {
		mVac[0] -= DegeneracyShift
	}
	if dm23sq == 0 {
		mVac[2] += DegeneracyShift
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if i != j {
				DM[i][j] = mVac[i] - mVac[j]
			}
		}
	}
	return
}

func (p *Parameters) buildAXFactors() {
	for n := 0; n < 3; n++ {
		for m := 0; m < 3; m++ {
			for i := 0; i < 3; i++ {
				for j := 0; j < 3; j++ {
					var (
						nr, ni = real(p.U[n][i]), imag(p.U[n][i])
						mr, mi = real(p.U[m][j]), imag(p.U[m][j])
						f      = &p.axFac[n][m][i][j]
					)
					f[0] = nr*mr + ni*mi
					f[1] = nr*mi - ni*mr
					f[2] = ni*mi + nr*mr
					f[3] = ni*mr - nr*mi
				}
			}
		}
	}
}

// VacuumOrder maps the cubic roots onto the vacuum mass ordering
func (p *Parameters) VacuumOrder(nt types.NeutrinoType) [3]int {
	return p.order[nt]
}

// prepareVacuumOrder solves the eigenvalue cubic at zero matter potential
// and matches each vacuum mass with the nearest root
func (p *Parameters) prepareVacuumOrder() (order [3]int) {
	var (
		alpha = p.DM[0][1] + p.DM[0][2]
		beta  = p.DM[0][1] * p.DM[0][2]
		roots = cubicRoots(alpha, beta, 0, p.DM[0][0])
	)
	for i := 0; i < 3; i++ {
		best := math.Abs(p.DM[i][0] - roots[0])
		for j := 1; j < 3; j++ {
			if d := math.Abs(p.DM[i][0] - roots[j]); d < best {
				order[i] = j
				best = d
			}
		}
	}
	return
}
