package physics

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/floats"

	"github.com/notargets/goprob3/types"
	"github.com/notargets/goprob3/utils"
)

/*
ProductionHeights is the distribution of production heights of the
incoming neutrinos, binned in height. EdgesKm holds the NBins+1 bin edges and
Prob the probability of each bin, for every neutrino type, initial flavor,
energy and cosine.
*/
type ProductionHeights struct {
	NBins     int
	EdgesKm   []float64
	Prob      []float64
	nCosines  int
	nEnergies int
}

func NewProductionHeights(nBins, nCosines, nEnergies int, prob, edgesKm []float64) (ph *ProductionHeights, err error) {
	switch {
	case nBins < 1:
		err = fmt.Errorf("%w: production height averaging needs at least one bin", ErrConfiguration)
	case nBins > MaxProductionHeightBins:
		err = fmt.Errorf("%w: %d production height bins, at most %d are supported",
			ErrCapacity, nBins, MaxProductionHeightBins)
	case len(edgesKm) != nBins+1:
		err = fmt.Errorf("%w: %d production height bin edges for %d bins",
			ErrConfiguration, len(edgesKm), nBins)
	case len(prob) != ProductionHeightTableSize(nBins, nCosines, nEnergies):
		err = fmt.Errorf("%w: production height table has %d entries, expected %d",
			ErrConfiguration, len(prob), ProductionHeightTableSize(nBins, nCosines, nEnergies))
	}
	if err != nil {
		return
	}
	for b := 0; b < nBins; b++ {
		if !(edgesKm[b+1] >= edgesKm[b]) || edgesKm[b] < 0 {
			err = fmt.Errorf("%w: production height bin edges must be non-negative and ascending, found %g after %g",
				ErrConfiguration, edgesKm[b+1], edgesKm[b])
			return
		}
	}
	ph = &ProductionHeights{
		NBins:     nBins,
		EdgesKm:   copySlice(edgesKm),
		Prob:      copySlice(prob),
		nCosines:  nCosines,
		nEnergies: nEnergies,
	}
	return
}

func ProductionHeightTableSize(nBins, nCosines, nEnergies int) int {
	return 2 * 3 * nEnergies * nCosines * nBins
}

func (ph *ProductionHeights) Dimensions() (nCosines, nEnergies int) {
	return ph.nCosines, ph.nEnergies
}

// Index locates the first bin of a cell in Prob
func (ph *ProductionHeights) Index(nt types.NeutrinoType, flavor types.Flavor, iE, iC int) int {
	var (
		nB = ph.NBins
		nC = ph.nCosines
		nE = ph.nEnergies
	)
	return int(nt)*3*nE*nC*nB + int(flavor)*nE*nC*nB + iE*nC*nB + iC*nB
}

func (ph *ProductionHeights) Distribution(nt types.NeutrinoType, flavor types.Flavor, iE, iC int) []float64 {
	i := ph.Index(nt, flavor, iE, iC)
	return ph.Prob[i : i+ph.NBins]
}

// Normalization is the total probability of a cell, nominally one
func (ph *ProductionHeights) Normalization(nt types.NeutrinoType, flavor types.Flavor, iE, iC int) float64 {
	return floats.Sum(ph.Distribution(nt, flavor, iE, iC))
}

// Validate reports the cell with the largest departure from unit
// normalization, if it exceeds tol
func (ph *ProductionHeights) Validate(tol float64) (err error) {
	var (
		worst    float64
		where    string
		nEntries = ph.NBins
	)
	if nEntries == 0 {
		return
	}
	for _, nt := range []types.NeutrinoType{types.Neutrino, types.Antineutrino} {
		for _, fl := range []types.Flavor{types.Electron, types.Muon, types.Tau} {
			for iE := 0; iE < ph.nEnergies; iE++ {
				for iC := 0; iC < ph.nCosines; iC++ {
					d := math.Abs(ph.Normalization(nt, fl, iE, iC) - 1)
					if d > worst || math.IsNaN(d) {
						worst = d
						where = fmt.Sprintf("%s %s energy %d cosine %d", nt, fl, iE, iC)
						if math.IsNaN(d) {
							return fmt.Errorf("%w: production height distribution of %s contains NaN",
								ErrConfiguration, where)
						}
					}
				}
			}
		}
	}
	if worst > tol {
		err = fmt.Errorf("%w: production height distribution of %s is off unit normalization by %g",
			ErrConfiguration, where, worst)
	}
	return
}

// decoherence is the set of averaging factors F[k][j][flavor], k > j, that
// damp the interference of expansion terms k and j
type decoherence [nExpansionTerms][nExpansionTerms][nFlavors]complex128

func noDecoherence() (F decoherence) {
	for k := range F {
		for j := range F[k] {
			for f := range F[k][j] {
				F[k][j][f] = 1
			}
		}
	}
	return
}

/*
averagePhases integrates the interference between expansion terms over the
production height distribution. The phase of term k grows linearly with the
atmospheric path length at rate dArg[k], so a bin of path length width w
centered at offset m from the nominal path contributes
	p_b · sinc(½·Δ·w) · exp(i·Δ·m),   Δ = dArg[k] - dArg[j]
*/
func (ph *ProductionHeights) averagePhases(rp *RayPath, nt types.NeutrinoType, iE, iC int,
	dArg *[nExpansionTerms]float64) (F decoherence) {
	for fl := 0; fl < nFlavors; fl++ {
		dist := ph.Distribution(nt, types.Flavor(fl), iE, iC)
		for k := 1; k < nExpansionTerms; k++ {
			for j := 0; j < k; j++ {
				var (
					delta = dArg[k] - dArg[j]
					sum   complex128
				)
				for b := 0; b < rp.NBins; b++ {
					bin := &rp.Bins[b]
					sum += complex(dist[b]*utils.Sinc(0.5*delta*bin.Width), 0) *
						cmplx.Exp(complex(0, delta*bin.Offset))
				}
				F[k][j][fl] = sum
			}
		}
	}
	return
}
