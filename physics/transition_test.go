package physics

import (
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/notargets/goprob3/types"
	"github.com/notargets/goprob3/utils"
)

func TestTransitionMatrix(t *testing.T) {
	par := standardParameters(t, -1.9)
	{ // Vacuum layers match the plane wave amplitude
		for _, tc := range []struct{ lengthKm, energy float64 }{
			{295, 0.6}, {1300, 2.5}, {12742, 1}, {12742, 10}, {15, 0.1},
		} {
			A := par.TransitionMatrix(tc.lengthKm, tc.energy, 0, types.Neutrino, 0)
			for in := 0; in < 3; in++ {
				for out := 0; out < 3; out++ {
					expected := vacuumAmplitude(par, in, out, tc.lengthKm, tc.energy)
					assert.InDelta(t, real(expected), real(A[out][in]), 1.e-10)
					assert.InDelta(t, imag(expected), imag(A[out][in]), 1.e-10)
				}
			}
		}
	}
	{ // Matter layers match the exponential of the flavor Hamiltonian
		for _, tc := range []struct {
			lengthKm, energy, rho float64
			nt                    types.NeutrinoType
		}{
			{3000, 3, 2.5, types.Neutrino},
			{3000, 3, 2.5, types.Antineutrino},
			{2440, 6, 6.08, types.Neutrino},
			{800, 0.4, 1.64, types.Antineutrino},
		} {
			var (
				A   = par.TransitionMatrix(tc.lengthKm, tc.energy, tc.rho, tc.nt, 0)
				H   = flavorHamiltonian(par, tc.energy, tc.rho, tc.nt == types.Neutrino)
				ref = referenceTransition(t, &H, tc.lengthKm, tc.energy)
			)
			assert.Less(t, A.MaxAbsDiff(&ref), 1.e-9)
			assert.Less(t, A.UnitarityDefect(), 1.e-12)
		}
	}
	{ // Direct and expanded forms agree, with and without a phase offset
		for _, offset := range []float64{0, 0.37} {
			for _, nt := range []types.NeutrinoType{types.Neutrino, types.Antineutrino} {
				var (
					A       = par.TransitionMatrix(1800, 2, 4.4, nt, offset)
					args, C = par.TransitionExpansion(1800, 2, 4.4, nt, offset)
					B       = SumExpansion(args, &C)
				)
				assert.Less(t, A.MaxAbsDiff(&B), 1.e-12)
			}
		}
		args, _ := par.TransitionExpansion(1800, 2, 4.4, types.Neutrino, 0.37)
		argsZero, _ := par.TransitionExpansion(1800, 2, 4.4, types.Neutrino, 0)
		assert.Equal(t, argsZero[0], args[0])
		assert.Equal(t, argsZero[1], args[1])
		assert.InDelta(t, argsZero[2]+0.37, args[2], 1.e-15)
	}
	{ // Expansion coefficients are orthogonal projectors resolving the identity
		var (
			_, C = par.TransitionExpansion(500, 1.5, 3.3, types.Neutrino, 0)
			sum  utils.CMatrix3
			I    = utils.Identity3()
		)
		for k := 0; k < 3; k++ {
			for i := 0; i < 3; i++ {
				for j := 0; j < 3; j++ {
					sum[i][j] += C[k][i][j]
				}
			}
			for j := 0; j < 3; j++ {
				P := utils.Mul3(&C[k], &C[j])
				if j == k {
					assert.Less(t, P.MaxAbsDiff(&C[k]), 1.e-12)
				} else {
					var zero utils.CMatrix3
					assert.Less(t, P.MaxAbsDiff(&zero), 1.e-12)
				}
			}
		}
		assert.Less(t, sum.MaxAbsDiff(&I), 1.e-12)
	}
	{ // Zero length is the identity
		A := par.TransitionMatrix(0, 3, 5, types.Neutrino, 0)
		I := utils.Identity3()
		assert.Less(t, A.MaxAbsDiff(&I), 1.e-12)
	}
	{ // Antineutrino at density rho is a neutrino at density -rho
		A := par.TransitionMatrix(4000, 5, 3.9, types.Antineutrino, 0)
		B := par.TransitionMatrix(4000, 5, -3.9, types.Neutrino, 0)
		assert.Equal(t, A, B)
	}
	{ // Conjugating the mixing matrix conjugates the vacuum amplitude in reverse
		var (
			parConj = standardParameters(t, 1.9)
			A       = par.TransitionMatrix(7000, 4, 0, types.Neutrino, 0)
			B       = parConj.TransitionMatrix(7000, 4, 0, types.Neutrino, 0)
		)
		for in := 0; in < 3; in++ {
			for out := 0; out < 3; out++ {
				assert.InDelta(t, cmplx.Abs(A[out][in]), cmplx.Abs(B[in][out]), 1.e-10)
			}
		}
	}
}
