package propagator

import (
	"math"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/goprob3/physics"
	"github.com/notargets/goprob3/types"
)

const deg = math.Pi / 180

var (
	premRadii = []float64{0, 1220, 3480, 5701, 6371}
	premRhos  = []float64{13, 13, 11.3, 5, 3.3}
	premYps   = []float64{0.468, 0.468, 0.468, 0.497, 0.497}
)

func linspace(lo, hi float64, n int) (r []float64) {
	r = make([]float64, n)
	for i := range r {
		r[i] = lo + (hi-lo)*float64(i)/float64(n-1)
	}
	return
}

// newReadyPropagator is fully configured with the four shell PREM profile
func newReadyPropagator(t *testing.T, nCos, nE int) (p *Propagator, hook *test.Hook) {
	var (
		logger *logrus.Logger
		err    error
	)
	logger, hook = test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	p, err = NewPropagator(nCos, nE, &Config{ProcLimit: 3, Logger: logger})
	require.NoError(t, err)
	p.SetMNSMatrix(33.4*deg, 8.6*deg, 49*deg, 1.2)
	p.SetNeutrinoMasses(7.4e-5, 2.5e-3-7.4e-5)
	require.NoError(t, p.SetDensity(premRadii, premRhos, premYps))
	require.NoError(t, p.SetEnergyList(linspace(0.5, 20, nE)))
	require.NoError(t, p.SetCosineList(linspace(-1, 1, nCos)))
	require.NoError(t, p.SetProductionHeight(22))
	return
}

func TestPropagatorOrdering(t *testing.T) {
	p, err := NewPropagator(3, 2, nil)
	require.NoError(t, err)
	{ // Production height needs the cosines first
		assert.ErrorIs(t, p.SetProductionHeight(15), physics.ErrConfiguration)
		require.NoError(t, p.SetCosineList([]float64{-1, 0, 1}))
		assert.NoError(t, p.SetProductionHeight(15))
		assert.ErrorIs(t, p.SetProductionHeight(-1), physics.ErrConfiguration)
	}
	{ // Height distribution needs averaging enabled
		prob := make([]float64, physics.ProductionHeightTableSize(2, 3, 2))
		assert.ErrorIs(t, p.SetProductionHeightList(prob, []float64{0, 10, 20}), physics.ErrConfiguration)
		assert.ErrorIs(t, p.SetNumberOfProductionHeightBins(physics.MaxProductionHeightBins+1), physics.ErrCapacity)
		require.NoError(t, p.SetNumberOfProductionHeightBins(2))
		assert.NoError(t, p.SetProductionHeightList(prob, []float64{0, 10, 20}))
		assert.ErrorIs(t, p.SetProductionHeightList(prob[1:], []float64{0, 10, 20}), physics.ErrConfiguration)
	}
	{ // Sizes fixed at construction
		assert.ErrorIs(t, p.SetCosineList([]float64{0}), physics.ErrConfiguration)
		assert.ErrorIs(t, p.SetEnergyList([]float64{1, 2, 3}), physics.ErrConfiguration)
		assert.ErrorIs(t, p.SetEnergyList([]float64{1, 0}), physics.ErrConfiguration)
		assert.ErrorIs(t, p.SetCosineList([]float64{-1, 0, 1.1}), physics.ErrConfiguration)
		_, err = NewPropagator(0, 2, nil)
		assert.ErrorIs(t, err, physics.ErrConfiguration)
	}
	{ // Missing settings are reported before any calculation
		assert.ErrorIs(t, p.CalculateProbabilities(types.Neutrino), physics.ErrConfiguration)
		p.SetMNSMatrix(0.5, 0.1, 0.7, 0)
		p.SetNeutrinoMasses(7.4e-5, 2.4e-3)
		assert.ErrorIs(t, p.CalculateProbabilities(types.Neutrino), physics.ErrConfiguration)
		assert.ErrorIs(t, p.ModifyEarthModel([]float64{1}, []float64{1}), physics.ErrConfiguration)
		assert.ErrorIs(t, p.SetChemicalComposition([]float64{0.5}), physics.ErrConfiguration)
		_, err = p.GetProbability(0, 0, types.M_M)
		assert.ErrorIs(t, err, physics.ErrConfiguration)
		_, err = p.GetProbabilityArr(types.M_M)
		assert.ErrorIs(t, err, physics.ErrConfiguration)
	}
	{ // A non unitary mixing matrix is rejected when the engine is built
		q, _ := newReadyPropagator(t, 2, 2)
		U := physics.NewPMNS(0.5, 0.1, 0.7, 0)
		U[0][0] *= 2
		q.SetMixMatrix(U)
		assert.ErrorIs(t, q.CalculateProbabilities(types.Neutrino), physics.ErrConfiguration)
	}
}

func TestPropagatorCalculate(t *testing.T) {
	var (
		nCos, nE = 7, 5
		p, hook  = newReadyPropagator(t, nCos, nE)
	)
	require.NoError(t, p.CalculateProbabilities(types.Antineutrino))
	{ // Same values as the engine driven directly
		par, err := physics.NewStandardParameters(33.4*deg, 8.6*deg, 49*deg, 1.2, 7.4e-5, 2.5e-3-7.4e-5)
		require.NoError(t, err)
		e, err := physics.NewEngine(par, &physics.EngineConfig{ProcLimit: 1})
		require.NoError(t, err)
		b := &physics.Batch{
			Type:               types.Antineutrino,
			Cosines:            linspace(-1, 1, nCos),
			Energies:           linspace(0.5, 20, nE),
			Earth:              p.Earth(),
			ProductionHeightCm: 22 * physics.KmToCm,
		}
		result := make([]float64, b.ResultSize())
		require.NoError(t, e.Calculate(b, result))
		for iC := 0; iC < nCos; iC++ {
			for iE := 0; iE < nE; iE++ {
				assert.Equal(t, result[(iC*nE+iE)*9:(iC*nE+iE+1)*9], p.Cells(iC, iE))
			}
		}
	}
	{ // Accessors agree with each other and conserve probability
		for pt := types.E_E; pt <= types.T_T; pt++ {
			arr, err := p.GetProbabilityArr(pt)
			require.NoError(t, err)
			require.Equal(t, nCos*nE, len(arr))
			for iE := 0; iE < nE; iE++ {
				for iC := 0; iC < nCos; iC++ {
					prob, err := p.GetProbability(iC, iE, pt)
					require.NoError(t, err)
					assert.Equal(t, arr[iE*nCos+iC], prob)
				}
			}
		}
		for iC := 0; iC < nCos; iC++ {
			for iE := 0; iE < nE; iE++ {
				var sum float64
				for _, out := range []types.Flavor{types.Electron, types.Muon, types.Tau} {
					prob, err := p.GetProbability(iC, iE, types.NewProbType(types.Muon, out))
					require.NoError(t, err)
					sum += prob
				}
				assert.InDelta(t, 1., sum, 1.e-9)
			}
		}
		_, err := p.GetProbability(nCos, 0, types.E_E)
		assert.ErrorIs(t, err, physics.ErrConfiguration)
		_, err = p.GetProbability(0, -1, types.E_E)
		assert.ErrorIs(t, err, physics.ErrConfiguration)
	}
	{ // Changing a setting invalidates the last result
		require.NoError(t, p.SetProductionHeight(10))
		_, err := p.GetProbability(0, 0, types.E_E)
		assert.ErrorIs(t, err, physics.ErrConfiguration)
	}
	{ // So does changing the oscillation parameters
		for _, set := range []func(){
			func() { p.SetMNSMatrix(0, 0, 0, 0) },
			func() { p.SetMixMatrix(physics.NewPMNS(33.4*deg, 8.6*deg, 49*deg, 1.2)) },
			func() { p.SetNeutrinoMasses(7.4e-5, 2.4e-3) },
		} {
			require.NoError(t, p.CalculateProbabilities(types.Neutrino))
			_, err := p.GetProbability(0, 0, types.M_M)
			require.NoError(t, err)
			set()
			_, err = p.GetProbability(0, 0, types.M_M)
			assert.ErrorIs(t, err, physics.ErrConfiguration)
			_, err = p.GetProbabilityArr(types.M_M)
			assert.ErrorIs(t, err, physics.ErrConfiguration)
		}
	}
	{ // The batch is logged at debug level
		var found bool
		for _, entry := range hook.AllEntries() {
			if entry.Message == "batch complete" {
				found = true
				assert.Equal(t, logrus.DebugLevel, entry.Level)
			}
		}
		assert.True(t, found)
	}
}

func TestPropagatorEarthModel(t *testing.T) {
	var (
		nCos, nE = 6, 4
		p, _     = newReadyPropagator(t, nCos, nE)
	)
	calculate := func(q *Propagator) []float64 {
		require.NoError(t, q.CalculateProbabilities(types.Neutrino))
		arr, err := q.GetProbabilityArr(types.M_E)
		require.NoError(t, err)
		return arr
	}
	ref := calculate(p)
	{ // The same profile read from a file
		q, _ := newReadyPropagator(t, nCos, nE)
		require.NoError(t, q.SetDensityFromFile("../readfiles/testdata/PREM_4layer.dat"))
		assert.Equal(t, ref, calculate(q))
		assert.Error(t, q.SetDensityFromFile("../readfiles/testdata/missing.dat"))
	}
	{ // Unit weights at the original boundaries leave the profile alone
		q, _ := newReadyPropagator(t, nCos, nE)
		require.NoError(t, q.ModifyEarthModel([]float64{1220, 3480, 5701, 6371}, []float64{1, 1, 1, 1}))
		assert.Equal(t, ref, calculate(q))
		assert.ErrorIs(t, q.ModifyEarthModel([]float64{1220}, []float64{1}), physics.ErrConfiguration)
	}
	{ // Scaled shells change the upgoing result only
		q, _ := newReadyPropagator(t, nCos, nE)
		require.NoError(t, q.ModifyEarthModel([]float64{1220, 3480, 5701, 6371}, []float64{1.1, 1, 1, 0.9}))
		assert.Equal(t, []float64{0, 1220, 3480, 5701, 6371}, reversed(q.Earth().Radii))
		assert.InDeltaSlice(t, []float64{3.3 * 0.9, 5, 11.3, 13 * 1.1, 13 * 1.1}, q.Earth().Rhos, 1.e-12)
		got := calculate(q)
		for iE := 0; iE < nE; iE++ {
			assert.NotEqual(t, ref[iE*nCos], got[iE*nCos])
			assert.Equal(t, ref[iE*nCos+nCos-1], got[iE*nCos+nCos-1])
		}
	}
	{ // Zero electron fraction is vacuum
		q, _ := newReadyPropagator(t, nCos, nE)
		require.NoError(t, q.SetChemicalComposition([]float64{0, 0, 0, 0, 0}))
		v, _ := newReadyPropagator(t, nCos, nE)
		require.NoError(t, v.SetDensity(premRadii, make([]float64, 5), premYps))
		assert.Equal(t, calculate(v), calculate(q))
		assert.ErrorIs(t, q.SetChemicalComposition([]float64{0.5}), physics.ErrConfiguration)
	}
	{ // Polynomial shells with no slope are the constant profile
		q, _ := newReadyPropagator(t, nCos, nE)
		zeros := make([]float64, 5)
		require.NoError(t, q.SetPolynomialDensity(premRadii, premRhos, zeros, zeros, premYps))
		got := calculate(q)
		for i := range ref {
			assert.InDelta(t, ref[i], got[i], 1.e-12)
		}
	}
}

func TestPropagatorHeightAveraging(t *testing.T) {
	var (
		nCos, nE = 5, 3
		nBins    = 1
		p, hook  = newReadyPropagator(t, nCos, nE)
	)
	require.NoError(t, p.CalculateProbabilities(types.Neutrino))
	ref, err := p.GetProbabilityArr(types.M_M)
	require.NoError(t, err)

	require.NoError(t, p.SetNumberOfProductionHeightBins(nBins))
	assert.True(t, p.AveragingEnabled())
	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.InfoLevel, entry.Level)
	assert.Equal(t, nBins, entry.Data["bins"])
	assert.ErrorIs(t, p.CalculateProbabilities(types.Neutrino), physics.ErrConfiguration)

	prob := make([]float64, physics.ProductionHeightTableSize(nBins, nCos, nE))
	for i := range prob {
		prob[i] = 1
	}
	{ // A single bin at the nominal height is the fixed height result
		require.NoError(t, p.SetProductionHeightList(prob, []float64{22, 22}))
		require.NoError(t, p.CalculateProbabilities(types.Neutrino))
		got, err := p.GetProbabilityArr(types.M_M)
		require.NoError(t, err)
		for i := range ref {
			assert.InDelta(t, ref[i], got[i], 1.e-9)
		}
	}
	{ // Turning averaging off again
		require.NoError(t, p.SetNumberOfProductionHeightBins(0))
		assert.False(t, p.AveragingEnabled())
		assert.Equal(t, "using fixed production height", hook.LastEntry().Message)
		require.NoError(t, p.CalculateProbabilities(types.Neutrino))
		got, err := p.GetProbabilityArr(types.M_M)
		require.NoError(t, err)
		assert.Equal(t, ref, got)
	}
}

func reversed(s []float64) (r []float64) {
	r = make([]float64, len(s))
	for i := range s {
		r[len(s)-1-i] = s[i]
	}
	return
}
