package physics

import (
	"fmt"
	"math/cmplx"

	"github.com/sirupsen/logrus"

	"github.com/notargets/goprob3/utils"
)

// ProbabilitiesPerCell is the number of flavor transition probabilities of a
// (cosine, energy) cell, stored as [in*3 + out]
const ProbabilitiesPerCell = nFlavors * nFlavors

/*
evaluateCell propagates one (cosine, energy) cell along its ray and writes
the nine transition probabilities into prob.

The inbound layers are accumulated onto the atmospheric transition as
	final = T_maxLayer···T_2·T_1·T_atm
while the outbound half, which crosses the same shells in reverse order, is
accumulated once as coreToMantle = T_1·T_2···T_(maxLayer-1) and applied last.
*/
func (e *Engine) evaluateCell(b *Batch, rp *RayPath, iC, iE int, prob []float64) (err error) {
	var (
		energy       = b.Energies[iE]
		final        utils.CMatrix3
		coreToMantle = utils.Identity3()
		atmArgs      [nExpansionTerms]float64
		atmC         [nExpansionTerms]utils.CMatrix3
	)
	for layer := 0; layer <= rp.MaxLayer; layer++ {
		var (
			seg      = &rp.Segments[layer]
			lengthKm = seg.Distance / KmToCm
		)
		if layer == atmosphericLayer {
			atmArgs, atmC = e.par.TransitionExpansion(lengthKm, energy, seg.Density, b.Type, 0)
			final = SumExpansion(atmArgs, &atmC)
			if e.check.Tolerance > 0 {
				direct := e.par.TransitionMatrix(lengthKm, energy, seg.Density, b.Type, 0)
				if err = e.crossCheck(&direct, &final, rp.Cosine, energy, layer); err != nil {
					return
				}
			}
			continue
		}
		T := e.par.TransitionMatrix(lengthKm, energy, seg.Density, b.Type, 0)
		if e.check.Tolerance > 0 {
			args, C := e.par.TransitionExpansion(lengthKm, energy, seg.Density, b.Type, 0)
			expanded := SumExpansion(args, &C)
			if err = e.crossCheck(&T, &expanded, rp.Cosine, energy, layer); err != nil {
				return
			}
		}
		final.LeftMul(&T)
		if layer < rp.MaxLayer {
			coreToMantle.RightMul(&T)
		}
	}
	final.LeftMul(&coreToMantle)

	if !b.HeightAveraging {
		for in := 0; in < nFlavors; in++ {
			for out := 0; out < nFlavors; out++ {
				prob[in*nFlavors+out] = abs2(final[out][in])
			}
		}
		return
	}

	var (
		dArg     [nExpansionTerms]float64
		distance = rp.Segments[atmosphericLayer].Distance
		product  [nExpansionTerms]utils.CMatrix3
	)
	if distance != 0 {
		for k := range dArg {
			dArg[k] = atmArgs[k] / distance
		}
	}
	F := b.Heights.averagePhases(rp, b.Type, iE, iC, &dArg)
	for k := 0; k < nExpansionTerms; k++ {
		product[k] = utils.Mul3(&final, &atmC[k])
	}
	for in := 0; in < nFlavors; in++ {
		for out := 0; out < nFlavors; out++ {
			var p float64
			for k := 0; k < nExpansionTerms; k++ {
				pk := product[k][out][in]
				p += abs2(pk)
				for j := 0; j < k; j++ {
					p += 2 * real(cmplx.Conj(product[j][out][in])*pk*F[k][j][in])
				}
			}
			prob[in*nFlavors+out] = p
		}
	}
	return
}

func (e *Engine) crossCheck(direct, expanded *utils.CMatrix3, cosine, energy float64, layer int) error {
	diff := direct.MaxAbsDiff(expanded)
	if !(diff > e.check.Tolerance) {
		return nil
	}
	if e.check.Abort {
		return fmt.Errorf("%w: layer %d at cosine %g, energy %g GeV differs by %g",
			ErrInconsistentTransition, layer, cosine, energy, diff)
	}
	e.log.WithFields(logrus.Fields{
		"layer":  layer,
		"cosine": cosine,
		"energy": energy,
		"diff":   diff,
	}).Warn("direct and expanded transition matrices disagree")
	return nil
}
