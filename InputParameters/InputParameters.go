package InputParameters

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ghodss/yaml"
	"gonum.org/v1/gonum/floats"

	"github.com/notargets/goprob3/physics"
	"github.com/notargets/goprob3/types"
	"github.com/notargets/goprob3/utils"
)

// Grid is an evenly spaced list, logarithmic when Log is set. The count is
// named Points since a bare N key reads as a boolean in YAML 1.1.
type Grid struct {
	Min    float64 `yaml:"Min"`
	Max    float64 `yaml:"Max"`
	Points int     `yaml:"Points"`
	Log    bool    `yaml:"Log"`
}

func (g Grid) Values() (v []float64) {
	v = make([]float64, g.Points)
	if g.Points == 1 {
		v[0] = g.Min
		return
	}
	if g.Log {
		return floats.LogSpan(v, g.Min, g.Max)
	}
	return floats.Span(v, g.Min, g.Max)
}

// Parameters obtained from the YAML input file, angles are in degrees
type OscillationInput struct {
	Title                string               `yaml:"Title"`
	Theta12              float64              `yaml:"Theta12"`
	Theta13              float64              `yaml:"Theta13"`
	Theta23              float64              `yaml:"Theta23"`
	DeltaCP              float64              `yaml:"DeltaCP"`
	Dm12sq               float64              `yaml:"Dm12sq"` // eV²
	Dm23sq               float64              `yaml:"Dm23sq"`
	NeutrinoType         string               `yaml:"NeutrinoType"`
	Energy               Grid                 `yaml:"Energy"` // GeV
	Cosine               Grid                 `yaml:"Cosine"`
	ProductionHeight     float64              `yaml:"ProductionHeight"` // km
	ProductionHeightBins int                  `yaml:"ProductionHeightBins"`
	ProductionHeightSpan [2]float64           `yaml:"ProductionHeightSpan"` // km, uniform distribution
	EarthModel           string               `yaml:"EarthModel"`           // file, the four shell PREM when empty
	Composition          []float64            `yaml:"Composition"`          // Ye per shell, outer first
	Modify               map[string][]float64 `yaml:"Modify"`               // "Radii" and "Weights", center out
}

func (ip *OscillationInput) Parse(data []byte) (err error) {
	if err = yaml.Unmarshal(data, ip); err != nil {
		return
	}
	return ip.Validate()
}

func (ip *OscillationInput) Validate() (err error) {
	if _, err = ip.Type(); err != nil {
		return
	}
	switch {
	case ip.Energy.Points < 1 || ip.Cosine.Points < 1:
		err = fmt.Errorf("%w: energy and cosine grids need at least one point, got %d and %d",
			physics.ErrConfiguration, ip.Energy.Points, ip.Cosine.Points)
	case !(ip.Energy.Min > 0) || ip.Energy.Max < ip.Energy.Min:
		err = fmt.Errorf("%w: energy range [%g, %g] GeV must be positive and ascending",
			physics.ErrConfiguration, ip.Energy.Min, ip.Energy.Max)
	case ip.Cosine.Log:
		err = fmt.Errorf("%w: cosine grid cannot be logarithmic", physics.ErrConfiguration)
	case ip.Cosine.Min < -1 || ip.Cosine.Max > 1 || ip.Cosine.Max < ip.Cosine.Min:
		err = fmt.Errorf("%w: cosine range [%g, %g] must be ascending within [-1, 1]",
			physics.ErrConfiguration, ip.Cosine.Min, ip.Cosine.Max)
	case ip.ProductionHeight < 0:
		err = fmt.Errorf("%w: production height %g km must be non-negative",
			physics.ErrConfiguration, ip.ProductionHeight)
	case ip.ProductionHeightBins > 0 && ip.ProductionHeightSpan[1] < ip.ProductionHeightSpan[0]:
		err = fmt.Errorf("%w: production height span %v must be ascending",
			physics.ErrConfiguration, ip.ProductionHeightSpan)
	}
	if err != nil {
		return
	}
	if ip.Modify != nil {
		if _, ok := ip.Modify["Radii"]; !ok {
			return fmt.Errorf("%w: Modify needs Radii and Weights", physics.ErrConfiguration)
		}
		if _, ok := ip.Modify["Weights"]; !ok {
			return fmt.Errorf("%w: Modify needs Radii and Weights", physics.ErrConfiguration)
		}
	}
	return
}

func (ip *OscillationInput) Type() (nt types.NeutrinoType, err error) {
	if len(ip.NeutrinoType) == 0 {
		return types.Neutrino, nil
	}
	return types.NewNeutrinoType(ip.NeutrinoType)
}

// MixingAngles returns θ12, θ13, θ23 and δCP in radians
func (ip *OscillationInput) MixingAngles() (theta12, theta13, theta23, dCP float64) {
	deg := math.Pi / 180
	return ip.Theta12 * deg, ip.Theta13 * deg, ip.Theta23 * deg, ip.DeltaCP * deg
}

/*
HeightDistribution spreads every cell uniformly over the production height
span, returning the table and bin edges expected by the propagator
*/
func (ip *OscillationInput) HeightDistribution() (prob, edgesKm []float64) {
	nBins := ip.ProductionHeightBins
	prob = utils.ConstArray(physics.ProductionHeightTableSize(nBins, ip.Cosine.Points, ip.Energy.Points), 1/float64(nBins))
	edgesKm = make([]float64, nBins+1)
	floats.Span(edgesKm, ip.ProductionHeightSpan[0], ip.ProductionHeightSpan[1])
	return
}

func (ip *OscillationInput) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", ip.Title)
	fmt.Printf("%8.5f\t\t= Theta12 (deg)\n", ip.Theta12)
	fmt.Printf("%8.5f\t\t= Theta13 (deg)\n", ip.Theta13)
	fmt.Printf("%8.5f\t\t= Theta23 (deg)\n", ip.Theta23)
	fmt.Printf("%8.5f\t\t= DeltaCP (deg)\n", ip.DeltaCP)
	fmt.Printf("%8.3e\t\t= Dm12sq (eV^2)\n", ip.Dm12sq)
	fmt.Printf("%8.3e\t\t= Dm23sq (eV^2)\n", ip.Dm23sq)
	nt, _ := ip.Type()
	fmt.Printf("[%s]\t\t= Neutrino Type\n", nt)
	fmt.Printf("[%g, %g] x %d, log=%v\t= Energy (GeV)\n", ip.Energy.Min, ip.Energy.Max, ip.Energy.Points, ip.Energy.Log)
	fmt.Printf("[%g, %g] x %d\t= Cosine\n", ip.Cosine.Min, ip.Cosine.Max, ip.Cosine.Points)
	fmt.Printf("%8.3f\t\t= Production Height (km)\n", ip.ProductionHeight)
	if ip.ProductionHeightBins > 0 {
		fmt.Printf("[%d] over %v\t= Production Height Bins\n", ip.ProductionHeightBins, ip.ProductionHeightSpan)
	}
	if len(ip.EarthModel) != 0 {
		fmt.Printf("[%s]\t= Earth Model\n", ip.EarthModel)
	}
	keys := make([]string, len(ip.Modify))
	i := 0
	for k := range ip.Modify {
		keys[i] = k
		i++
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Printf("Modify[%s] = %v\n", strings.ToLower(key), ip.Modify[key])
	}
}
