package physics

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/notargets/goprob3/types"
	"github.com/notargets/goprob3/utils"
)

type Strategy uint8

const (
	// HostStrategy hands each worker a contiguous block of cosines and
	// traces each ray once for all energies
	HostStrategy Strategy = iota
	// DeviceStrategy strides the workers over the flattened cells, each cell
	// tracing its own ray
	DeviceStrategy
)

var StrategyNames = map[string]Strategy{
	"host":   HostStrategy,
	"device": DeviceStrategy,
}

func (s Strategy) String() string {
	for name, st := range StrategyNames {
		if st == s {
			return name
		}
	}
	return fmt.Sprintf("Strategy(%d)", uint8(s))
}

func NewStrategy(label string) (s Strategy, err error) {
	var ok bool
	if s, ok = StrategyNames[label]; !ok {
		err = fmt.Errorf("%w: unknown strategy %q, choose host or device", ErrConfiguration, label)
	}
	return
}

// CrossCheck compares the direct and expanded transition matrices of every
// layer when Tolerance is positive
type CrossCheck struct {
	Tolerance float64
	Abort     bool
}

type EngineConfig struct {
	ProcLimit  int // 0 uses all CPUs
	Strategy   Strategy
	CrossCheck CrossCheck
	Logger     *logrus.Logger
}

// Engine evaluates probability grids for one fixed set of oscillation
// parameters. It holds no per batch state and is safe for concurrent use.
type Engine struct {
	par   *Parameters
	cfg   EngineConfig
	check CrossCheck
	log   *logrus.Entry
}

func NewEngine(par *Parameters, cfg *EngineConfig) (e *Engine, err error) {
	if par == nil {
		err = fmt.Errorf("%w: mixing matrix and mass differences must be set", ErrConfiguration)
		return
	}
	if cfg == nil {
		cfg = &EngineConfig{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	e = &Engine{
		par:   par,
		cfg:   *cfg,
		check: cfg.CrossCheck,
		log:   logger.WithField("component", "engine"),
	}
	return
}

func (e *Engine) Parameters() *Parameters { return e.par }

/*
Batch is one grid of cells to evaluate. MaxLayers holds the number of shells
crossed for each cosine; when nil it is derived from Earth. With
HeightAveraging set, Heights supplies the production height distribution
and ProductionHeightCm is the nominal height the averaging is relative to.
*/
type Batch struct {
	Type               types.NeutrinoType
	Cosines            []float64
	Energies           []float64
	Earth              *EarthModel
	MaxLayers          []int
	ProductionHeightCm float64
	HeightAveraging    bool
	Heights            *ProductionHeights
}

func (b *Batch) NumCells() int {
	return len(b.Cosines) * len(b.Energies)
}

// ResultSize is the length of the probability slice filled by Calculate
func (b *Batch) ResultSize() int {
	return b.NumCells() * ProbabilitiesPerCell
}

// ResultIndex locates probability in -> out of a cell in the result slice
func ResultIndex(iC, iE, nEnergies int, in, out types.Flavor) int {
	return (iC*nEnergies+iE)*ProbabilitiesPerCell + int(in)*nFlavors + int(out)
}

// Validate checks the batch against the fixed scratch capacities
func (b *Batch) Validate() (err error) {
	_, err = b.layerCounts()
	return
}

// layerCounts validates the batch and returns the shells crossed per cosine,
// derived from Earth when MaxLayers is nil. The batch itself is not written.
func (b *Batch) layerCounts() (maxLayers []int, err error) {
	switch {
	case b.Type != types.Neutrino && b.Type != types.Antineutrino:
		return nil, fmt.Errorf("%w: invalid neutrino type %d", ErrConfiguration, b.Type)
	case b.Earth == nil:
		return nil, fmt.Errorf("%w: density profile must be set", ErrConfiguration)
	case len(b.Cosines) == 0 || len(b.Energies) == 0:
		return nil, fmt.Errorf("%w: batch needs at least one cosine and one energy, got %d and %d",
			ErrConfiguration, len(b.Cosines), len(b.Energies))
	case b.ProductionHeightCm < 0 || math.IsNaN(b.ProductionHeightCm):
		return nil, fmt.Errorf("%w: production height %g cm must be non-negative",
			ErrConfiguration, b.ProductionHeightCm)
	}
	for i, c := range b.Cosines {
		if !(c >= -1 && c <= 1) {
			return nil, fmt.Errorf("%w: cosine %g at position %d is outside [-1, 1]", ErrConfiguration, c, i)
		}
	}
	maxLayers = b.MaxLayers
	if maxLayers == nil {
		maxLayers = make([]int, len(b.Cosines))
		for i, c := range b.Cosines {
			maxLayers[i] = b.Earth.LayersCrossed(c)
		}
	}
	if len(maxLayers) != len(b.Cosines) {
		return nil, fmt.Errorf("%w: %d layer counts for %d cosines", ErrConfiguration, len(maxLayers), len(b.Cosines))
	}
	for i, ml := range maxLayers {
		switch {
		case ml > MaxLayers:
			return nil, fmt.Errorf("%w: cosine %g crosses %d layers, at most %d are supported",
				ErrCapacity, b.Cosines[i], ml, MaxLayers)
		case ml < 0 || ml > b.Earth.NumShells():
			return nil, fmt.Errorf("%w: cosine %g has %d layers, the profile has %d shells",
				ErrConfiguration, b.Cosines[i], ml, b.Earth.NumShells())
		}
	}
	if b.HeightAveraging {
		if b.Heights == nil {
			return nil, fmt.Errorf("%w: production height averaging needs a height distribution", ErrConfiguration)
		}
		if b.Heights.NBins > MaxProductionHeightBins {
			return nil, fmt.Errorf("%w: %d production height bins, at most %d are supported",
				ErrCapacity, b.Heights.NBins, MaxProductionHeightBins)
		}
		if nC, nE := b.Heights.Dimensions(); nC != len(b.Cosines) || nE != len(b.Energies) {
			return nil, fmt.Errorf("%w: height distribution is %d cosines x %d energies, batch is %d x %d",
				ErrConfiguration, nC, nE, len(b.Cosines), len(b.Energies))
		}
	}
	return
}

// Calculate fills result with the probabilities of every cell of the batch,
// laid out as [(iC*nE + iE)*9 + in*3 + out]
func (e *Engine) Calculate(b *Batch, result []float64) (err error) {
	return e.CalculateContext(context.Background(), b, result)
}

func (e *Engine) CalculateContext(ctx context.Context, b *Batch, result []float64) (err error) {
	var maxLayers []int
	if maxLayers, err = b.layerCounts(); err != nil {
		return
	}
	// the caller's batch may be shared between concurrent calls
	run := *b
	run.MaxLayers = maxLayers
	b = &run
	if len(result) < b.ResultSize() {
		return fmt.Errorf("%w: result holds %d values, batch needs %d",
			ErrConfiguration, len(result), b.ResultSize())
	}
	var (
		start = time.Now()
		log   = e.log.WithFields(logrus.Fields{
			"type":     b.Type,
			"cells":    b.NumCells(),
			"strategy": e.cfg.Strategy,
		})
	)
	switch e.cfg.Strategy {
	case HostStrategy:
		err = e.calculateHost(ctx, b, result, log)
	case DeviceStrategy:
		err = e.calculateDevice(ctx, b, result, log)
	default:
		err = fmt.Errorf("%w: unknown strategy %d", ErrConfiguration, e.cfg.Strategy)
	}
	if err != nil {
		return
	}
	log.WithField("elapsed", time.Since(start)).Debug("batch complete")
	return
}

func (e *Engine) tracePath(b *Batch, iC int) (rp RayPath) {
	rp = b.Earth.TracePath(b.Cosines[iC], b.ProductionHeightCm, b.MaxLayers[iC])
	if b.HeightAveraging {
		rp.SetHeightBins(b.Heights.EdgesKm)
	}
	return
}

func (e *Engine) calculateHost(ctx context.Context, b *Batch, result []float64, log *logrus.Entry) error {
	var (
		nCos = len(b.Cosines)
		nE   = len(b.Energies)
		np   = utils.ParallelDegree(e.cfg.ProcLimit, nCos)
		pm   = utils.NewPartitionMap(np, nCos)
	)
	log.WithField("workers", np).Debug("starting batch")
	g, ctx := errgroup.WithContext(ctx)
	for n := 0; n < np; n++ {
		cMin, cMax := pm.GetBucketRange(n)
		g.Go(func() error {
			for iC := cMin; iC < cMax; iC++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				rp := e.tracePath(b, iC)
				for iE := 0; iE < nE; iE++ {
					i := (iC*nE + iE) * ProbabilitiesPerCell
					if err := e.evaluateCell(b, &rp, iC, iE, result[i:i+ProbabilitiesPerCell]); err != nil {
						return err
					}
				}
			}
			return nil
		})
	}
	return g.Wait()
}

func (e *Engine) calculateDevice(ctx context.Context, b *Batch, result []float64, log *logrus.Entry) error {
	var (
		nE     = len(b.Energies)
		nCells = b.NumCells()
		np     = utils.ParallelDegree(e.cfg.ProcLimit, nCells)
	)
	log.WithField("workers", np).Debug("starting batch")
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(np)
	for n := 0; n < np; n++ {
		n := n
		g.Go(func() error {
			for cell := n; cell < nCells; cell += np {
				if err := ctx.Err(); err != nil {
					return err
				}
				var (
					iC = cell / nE
					iE = cell % nE
					rp = e.tracePath(b, iC)
					i  = cell * ProbabilitiesPerCell
				)
				if err := e.evaluateCell(b, &rp, iC, iE, result[i:i+ProbabilitiesPerCell]); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}
