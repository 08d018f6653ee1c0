package propagator

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/notargets/goprob3/physics"
	"github.com/notargets/goprob3/readfiles"
	"github.com/notargets/goprob3/types"
	"github.com/notargets/goprob3/utils"
)

type Config struct {
	ProcLimit  int // 0 uses all CPUs
	Strategy   physics.Strategy
	CrossCheck physics.CrossCheck
	Logger     *logrus.Logger
}

/*
Propagator holds the oscillation parameters, density profile and grid of one
oscillogram and the probabilities of its last calculation. Setters may be
called in any order except that the cosine list must precede the production
height. It is not safe for concurrent use.
*/
type Propagator struct {
	nCosines, nEnergies int
	cfg                 Config
	log                 *logrus.Entry

	U            utils.CMatrix3
	DM           [3][3]float64
	isSetU       bool
	isSetDM      bool
	engine       *physics.Engine // rebuilt after U or DM change
	earth        *physics.EarthModel
	energies     []float64
	cosines      []float64
	heightCm     float64
	isSetHeight  bool
	nHeightBins  int
	heights      *physics.ProductionHeights
	result       []float64
	isCalculated bool
}

func NewPropagator(nCosines, nEnergies int, cfg *Config) (p *Propagator, err error) {
	if nCosines < 1 || nEnergies < 1 {
		err = fmt.Errorf("%w: grid of %d cosines by %d energies is empty",
			physics.ErrConfiguration, nCosines, nEnergies)
		return
	}
	if cfg == nil {
		cfg = &Config{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	p = &Propagator{
		nCosines:  nCosines,
		nEnergies: nEnergies,
		cfg:       *cfg,
		log:       logger.WithField("component", "propagator"),
		result:    make([]float64, nCosines*nEnergies*physics.ProbabilitiesPerCell),
	}
	p.cfg.Logger = logger
	return
}

func (p *Propagator) Dimensions() (nCosines, nEnergies int) {
	return p.nCosines, p.nEnergies
}

// SetMNSMatrix builds the PDG mixing matrix from angles and phase in radians
func (p *Propagator) SetMNSMatrix(theta12, theta13, theta23, dCP float64) {
	p.SetMixMatrix(physics.NewPMNS(theta12, theta13, theta23, dCP))
}

func (p *Propagator) SetMixMatrix(U utils.CMatrix3) {
	p.U, p.isSetU = U, true
	p.engine = nil
	p.isCalculated = false
}

// SetNeutrinoMasses takes the mass squared differences in eV², no ordering is
// assumed
func (p *Propagator) SetNeutrinoMasses(dm12sq, dm23sq float64) {
	p.DM, p.isSetDM = physics.NewMassDifferences(dm12sq, dm23sq), true
	p.engine = nil
	p.isCalculated = false
}

// SetDensity sets a constant density profile, radii in km may be ordered
// either way with rhos and yps in the same order
func (p *Propagator) SetDensity(radii, rhos, yps []float64) (err error) {
	var em *physics.EarthModel
	if em, err = physics.NewEarthModel(radii, rhos, yps); err != nil {
		return
	}
	p.setEarth(em)
	return
}

func (p *Propagator) SetPolynomialDensity(radii, a, b, c, yps []float64) (err error) {
	var em *physics.EarthModel
	if em, err = physics.NewPolynomialEarthModel(radii, a, b, c, yps); err != nil {
		return
	}
	p.setEarth(em)
	return
}

// SetDensityFromFile reads a 3 column (constant) or 5 column (polynomial)
// Earth model file
func (p *Propagator) SetDensityFromFile(fileName string) (err error) {
	var em *physics.EarthModel
	if em, err = readfiles.ReadEarthModel(fileName); err != nil {
		return
	}
	p.log.WithFields(logrus.Fields{
		"file":       fileName,
		"shells":     em.NumShells(),
		"polynomial": em.Polynomial,
	}).Info("read density profile")
	p.setEarth(em)
	return
}

// ModifyEarthModel rescales the current profile, see physics.EarthModel.Modify
func (p *Propagator) ModifyEarthModel(radii, weights []float64) (err error) {
	var em *physics.EarthModel
	if p.earth == nil {
		return fmt.Errorf("%w: density profile must be set before it is modified", physics.ErrConfiguration)
	}
	if em, err = p.earth.Modify(radii, weights); err != nil {
		return
	}
	p.setEarth(em)
	return
}

// SetChemicalComposition replaces the electron fraction of every shell,
// ordered the same way as the stored radii (outer first)
func (p *Propagator) SetChemicalComposition(yps []float64) (err error) {
	var em *physics.EarthModel
	if p.earth == nil {
		return fmt.Errorf("%w: density profile must be set before its composition", physics.ErrConfiguration)
	}
	if em, err = p.earth.WithComposition(yps); err != nil {
		return
	}
	p.setEarth(em)
	return
}

func (p *Propagator) setEarth(em *physics.EarthModel) {
	p.earth = em
	p.isCalculated = false
}

func (p *Propagator) Earth() *physics.EarthModel { return p.earth }

// SetEnergyList takes the energies in GeV
func (p *Propagator) SetEnergyList(energies []float64) (err error) {
	if len(energies) != p.nEnergies {
		return fmt.Errorf("%w: propagator was created for %d energies, got %d",
			physics.ErrConfiguration, p.nEnergies, len(energies))
	}
	for i, e := range energies {
		if !(e > 0) {
			return fmt.Errorf("%w: energy %g GeV at position %d must be positive",
				physics.ErrConfiguration, e, i)
		}
	}
	p.energies = append([]float64(nil), energies...)
	p.isCalculated = false
	return
}

func (p *Propagator) SetCosineList(cosines []float64) (err error) {
	if len(cosines) != p.nCosines {
		return fmt.Errorf("%w: propagator was created for %d cosines, got %d",
			physics.ErrConfiguration, p.nCosines, len(cosines))
	}
	for i, c := range cosines {
		if !(c >= -1 && c <= 1) {
			return fmt.Errorf("%w: cosine %g at position %d is outside [-1, 1]",
				physics.ErrConfiguration, c, i)
		}
	}
	p.cosines = append([]float64(nil), cosines...)
	p.isCalculated = false
	return
}

// SetProductionHeight is the nominal height in km above the surface at which
// the neutrinos are produced
func (p *Propagator) SetProductionHeight(heightKm float64) (err error) {
	switch {
	case p.cosines == nil:
		return fmt.Errorf("%w: cosine list must be set before the production height", physics.ErrConfiguration)
	case !(heightKm >= 0):
		return fmt.Errorf("%w: production height %g km must be non-negative", physics.ErrConfiguration, heightKm)
	}
	p.heightCm, p.isSetHeight = heightKm*physics.KmToCm, true
	p.isCalculated = false
	return
}

// SetNumberOfProductionHeightBins enables production height averaging for a
// positive bin count
func (p *Propagator) SetNumberOfProductionHeightBins(nBins int) (err error) {
	if nBins > physics.MaxProductionHeightBins {
		return fmt.Errorf("%w: %d production height bins, at most %d are supported",
			physics.ErrCapacity, nBins, physics.MaxProductionHeightBins)
	}
	if nBins < 0 {
		nBins = 0
	}
	if nBins != p.nHeightBins {
		p.heights = nil
	}
	p.nHeightBins = nBins
	p.isCalculated = false
	if p.AveragingEnabled() {
		p.log.WithField("bins", nBins).Info("production height averaging enabled")
	} else {
		p.log.Info("using fixed production height")
	}
	return
}

func (p *Propagator) AveragingEnabled() bool { return p.nHeightBins > 0 }

/*
SetProductionHeightList sets the production height distribution. prob is laid
out [type][flavor][energy][cosine][bin] with nBins*2*3*nE*nCos entries and
edgesKm holds the nBins+1 bin edges.
*/
func (p *Propagator) SetProductionHeightList(prob, edgesKm []float64) (err error) {
	var ph *physics.ProductionHeights
	if !p.AveragingEnabled() {
		return fmt.Errorf("%w: production height distribution given but averaging is not enabled",
			physics.ErrConfiguration)
	}
	if ph, err = physics.NewProductionHeights(p.nHeightBins, p.nCosines, p.nEnergies, prob, edgesKm); err != nil {
		return
	}
	if verr := ph.Validate(utils.UNITTOL); verr != nil {
		p.log.WithError(verr).Warn("production height distribution is not normalized")
	}
	p.heights = ph
	p.isCalculated = false
	return
}

func (p *Propagator) newBatch(nt types.NeutrinoType) (b *physics.Batch, err error) {
	switch {
	case !p.isSetU:
		err = fmt.Errorf("%w: mixing matrix was not set", physics.ErrConfiguration)
	case !p.isSetDM:
		err = fmt.Errorf("%w: neutrino masses were not set", physics.ErrConfiguration)
	case p.earth == nil:
		err = fmt.Errorf("%w: density profile was not set", physics.ErrConfiguration)
	case p.energies == nil:
		err = fmt.Errorf("%w: energy list was not set", physics.ErrConfiguration)
	case p.cosines == nil:
		err = fmt.Errorf("%w: cosine list was not set", physics.ErrConfiguration)
	case !p.isSetHeight:
		err = fmt.Errorf("%w: production height was not set", physics.ErrConfiguration)
	case p.AveragingEnabled() && p.heights == nil:
		err = fmt.Errorf("%w: production height averaging requested but no distribution was set",
			physics.ErrConfiguration)
	}
	if err != nil {
		return
	}
	b = &physics.Batch{
		Type:               nt,
		Cosines:            p.cosines,
		Energies:           p.energies,
		Earth:              p.earth,
		ProductionHeightCm: p.heightCm,
		HeightAveraging:    p.AveragingEnabled(),
		Heights:            p.heights,
	}
	return
}

func (p *Propagator) getEngine() (e *physics.Engine, err error) {
	if p.engine != nil {
		return p.engine, nil
	}
	var par *physics.Parameters
	if par, err = physics.NewParameters(p.U, p.DM); err != nil {
		return
	}
	if e, err = physics.NewEngine(par, &physics.EngineConfig{
		ProcLimit:  p.cfg.ProcLimit,
		Strategy:   p.cfg.Strategy,
		CrossCheck: p.cfg.CrossCheck,
		Logger:     p.cfg.Logger,
	}); err != nil {
		return
	}
	p.engine = e
	return
}

func (p *Propagator) CalculateProbabilities(nt types.NeutrinoType) error {
	return p.CalculateProbabilitiesContext(context.Background(), nt)
}

func (p *Propagator) CalculateProbabilitiesContext(ctx context.Context, nt types.NeutrinoType) (err error) {
	var (
		b *physics.Batch
		e *physics.Engine
	)
	p.isCalculated = false
	if b, err = p.newBatch(nt); err != nil {
		return
	}
	if e, err = p.getEngine(); err != nil {
		return
	}
	if err = e.CalculateContext(ctx, b, p.result); err != nil {
		return
	}
	if utils.IsNan(p.result) {
		p.log.WithField("type", nt).Warn("probabilities contain NaN")
	}
	p.isCalculated = true
	return
}

func (p *Propagator) checkCalculated() error {
	if !p.isCalculated {
		return fmt.Errorf("%w: probabilities are not calculated for the current settings",
			physics.ErrConfiguration)
	}
	return nil
}

func (p *Propagator) GetProbability(iC, iE int, pt types.ProbType) (prob float64, err error) {
	if err = p.checkCalculated(); err != nil {
		return
	}
	if iC < 0 || iC >= p.nCosines || iE < 0 || iE >= p.nEnergies {
		err = fmt.Errorf("%w: cell (%d, %d) is outside the %d by %d grid",
			physics.ErrConfiguration, iC, iE, p.nCosines, p.nEnergies)
		return
	}
	in, out := pt.Flavors()
	prob = p.result[physics.ResultIndex(iC, iE, p.nEnergies, in, out)]
	return
}

// GetProbabilityArr returns one transition for every cell with the cosine
// index running fastest
func (p *Propagator) GetProbabilityArr(pt types.ProbType) (probArr []float64, err error) {
	if err = p.checkCalculated(); err != nil {
		return
	}
	in, out := pt.Flavors()
	probArr = make([]float64, p.nCosines*p.nEnergies)
	var iter int
	for iE := 0; iE < p.nEnergies; iE++ {
		for iC := 0; iC < p.nCosines; iC++ {
			probArr[iter] = p.result[physics.ResultIndex(iC, iE, p.nEnergies, in, out)]
			iter++
		}
	}
	return
}

// Cells returns the nine probabilities of one cell laid out [in*3 + out]
func (p *Propagator) Cells(iC, iE int) []float64 {
	i := physics.ResultIndex(iC, iE, p.nEnergies, types.Electron, types.Electron)
	return p.result[i : i+physics.ProbabilitiesPerCell]
}
