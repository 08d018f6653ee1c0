package physics

import (
	"fmt"
	"math"

	"github.com/notargets/goprob3/utils"
)

/*
EarthModel is a spherically symmetric density profile made of shells. The
shells are stored outer first: shell i spans from Radii[i] down to
Radii[i+1] (or the center for the last one) and has density Rhos[i] and
electron fraction Yps[i]. A polynomial profile replaces the constant density
with ρ(r) = A[i] + B[i]·x + C[i]·x², x = r/R⊕.
*/
type EarthModel struct {
	Radii      []float64 // km
	Rhos       []float64 // g/cm³
	A, B, C    []float64
	Yps        []float64
	Polynomial bool
	cosLimit   []float64
}

// NewEarthModel builds a constant density profile. The radii may be given in
// either direction but must be strictly monotonic.
func NewEarthModel(radii, rhos, yps []float64) (em *EarthModel, err error) {
	if err = checkProfileSizes(len(radii), len(rhos), len(yps)); err != nil {
		return
	}
	em = &EarthModel{
		Radii: copySlice(radii),
		Rhos:  copySlice(rhos),
		Yps:   copySlice(yps),
	}
	if err = em.initialize(); err != nil {
		em = nil
	}
	return
}

func NewPolynomialEarthModel(radii, a, b, c, yps []float64) (em *EarthModel, err error) {
	if err = checkProfileSizes(len(radii), len(a), len(yps)); err != nil {
		return
	}
	if len(b) != len(radii) || len(c) != len(radii) {
		err = fmt.Errorf("%w: polynomial coefficient sizes a=%d, b=%d, c=%d must match %d radii",
			ErrConfiguration, len(a), len(b), len(c), len(radii))
		return
	}
	em = &EarthModel{
		Radii:      copySlice(radii),
		A:          copySlice(a),
		B:          copySlice(b),
		C:          copySlice(c),
		Yps:        copySlice(yps),
		Polynomial: true,
	}
	if err = em.initialize(); err != nil {
		em = nil
	}
	return
}

// NewUniformEarthModel is a single shell of constant density
func NewUniformEarthModel(rho, ye float64) (*EarthModel, error) {
	return NewEarthModel([]float64{REarthKm}, []float64{rho}, []float64{ye})
}

func checkProfileSizes(nRadii, nRhos, nYps int) error {
	switch {
	case nRadii == 0 || nRhos == 0 || nYps == 0:
		return fmt.Errorf("%w: density profile must not be empty", ErrConfiguration)
	case nRhos != nRadii:
		return fmt.Errorf("%w: %d densities for %d radii", ErrConfiguration, nRhos, nRadii)
	case nYps != nRadii:
		return fmt.Errorf("%w: %d electron fractions for %d radii", ErrConfiguration, nYps, nRadii)
	case nRadii > MaxLayers:
		return fmt.Errorf("%w: %d shells, at most %d are supported", ErrCapacity, nRadii, MaxLayers)
	}
	return nil
}

func (em *EarthModel) initialize() (err error) {
	N := len(em.Radii)
	if N >= 2 && em.Radii[1] > em.Radii[0] {
		em.reverse()
	}
	// path lengths through the atmosphere and the shells are measured
	// against a fixed Earth radius
	if math.Abs(em.Radii[0]-REarthKm) > 1.e-6 {
		return fmt.Errorf("%w: outermost radius %g km must be the Earth radius %g km",
			ErrConfiguration, em.Radii[0], REarthKm)
	}
	for i := 0; i < N; i++ {
		r := em.Radii[i]
		if math.IsNaN(r) || r < 0 || (i > 0 && r > REarthKm) {
			return fmt.Errorf("%w: radius %g km at position %d is outside [0, %g]",
				ErrConfiguration, r, i, REarthKm)
		}
		if i > 0 && !(r < em.Radii[i-1]) {
			return fmt.Errorf("%w: radii must be strictly monotonic, found %g after %g",
				ErrConfiguration, r, em.Radii[i-1])
		}
		if ye := em.Yps[i]; !(ye >= 0 && ye <= 1) {
			return fmt.Errorf("%w: electron fraction %g of shell %d is outside [0, 1]",
				ErrConfiguration, ye, i)
		}
		if !em.Polynomial && !(em.Rhos[i] >= 0) {
			return fmt.Errorf("%w: density %g of shell %d must be non-negative",
				ErrConfiguration, em.Rhos[i], i)
		}
	}
	em.cosLimit = make([]float64, N)
	for i := 1; i < N; i++ {
		x := em.Radii[i] / REarthKm
		em.cosLimit[i] = -math.Sqrt(1 - x*x)
	}
	return
}

func (em *EarthModel) reverse() {
	for _, s := range []*[]float64{&em.Radii, &em.Rhos, &em.A, &em.B, &em.C, &em.Yps} {
		if *s != nil {
			*s = utils.Reverse(*s)
		}
	}
}

func (em *EarthModel) NumShells() int {
	return len(em.Radii)
}

// CosLimit is the cosine below which a ray enters shell i
func (em *EarthModel) CosLimit(i int) float64 {
	return em.cosLimit[i]
}

/*
Modify rescales the profile and moves its inner boundaries. Both lists are
ordered from the center outward and hold one entry per shell boundary
excluding the innermost radius: radii replace the stored boundaries and
weights multiply the density (or every polynomial coefficient) of the shell
below each boundary. The innermost weight also applies to the central shell.
*/
func (em *EarthModel) Modify(radii, weights []float64) (mod *EarthModel, err error) {
	var (
		N = len(em.Radii)
		n = N - 1
	)
	if len(radii) != n || len(weights) != n {
		err = fmt.Errorf("%w: expected %d radii and %d weights, got %d and %d",
			ErrConfiguration, n, n, len(radii), len(weights))
		return
	}
	var (
		newRadii = copySlice(em.Radii)
		scale    = make([]float64, N)
	)
	for i := 0; i < n; i++ {
		newRadii[i] = radii[n-i-1]
		scale[i] = weights[n-i-1]
	}
	if n > 0 {
		scale[n] = weights[0]
	} else {
		scale[0] = 1
	}
	apply := func(s []float64) (r []float64) {
		r = copySlice(s)
		for i := range r {
			r[i] *= scale[i]
		}
		return
	}
	if em.Polynomial {
		return NewPolynomialEarthModel(newRadii, apply(em.A), apply(em.B), apply(em.C), em.Yps)
	}
	return NewEarthModel(newRadii, apply(em.Rhos), em.Yps)
}

// WithComposition returns a copy of the profile with new electron fractions,
// given outer first
func (em *EarthModel) WithComposition(yps []float64) (*EarthModel, error) {
	if len(yps) != len(em.Radii) {
		return nil, fmt.Errorf("%w: %d electron fractions for %d shells",
			ErrConfiguration, len(yps), len(em.Radii))
	}
	if em.Polynomial {
		return NewPolynomialEarthModel(em.Radii, em.A, em.B, em.C, yps)
	}
	return NewEarthModel(em.Radii, em.Rhos, yps)
}

// LayersCrossed is the number of shells entered by a ray arriving with the
// given zenith cosine
func (em *EarthModel) LayersCrossed(cosine float64) (maxLayer int) {
	for _, limit := range em.cosLimit {
		if cosine < limit {
			maxLayer++
		}
	}
	return
}

// shellIndex maps a path layer onto a shell. Layers 1..maxLayer go inward,
// layers past maxLayer mirror them on the way back out.
func shellIndex(layer, maxLayer int) int {
	if layer <= maxLayer {
		return layer - 1
	}
	return 2*maxLayer - layer - 1
}

// DensityOfLayer returns the electron weighted density ρ·Ye of a path layer,
// zero for the atmosphere
func (em *EarthModel) DensityOfLayer(layer, maxLayer int, cosine float64) float64 {
	if layer == atmosphericLayer {
		return 0
	}
	i := shellIndex(layer, maxLayer)
	if !em.Polynomial {
		return em.Rhos[i] * em.Yps[i]
	}
	return em.chordAverage(i, maxLayer, cosine) * em.Yps[i]
}

/*
chordAverage integrates the polynomial density of shell i along one of the
chord segments the ray spends inside it, and divides by the segment length.
With s the distance along the chord from its midpoint and b the impact
parameter, r² = b² + s² and
	∫ r ds  = ½·(s·r + b²·ln(s + r))
	∫ r² ds = b²·s + s³/3
*/
func (em *EarthModel) chordAverage(i, maxLayer int, cosine float64) float64 {
	var (
		b2    = REarthKm * REarthKm * (1 - cosine*cosine)
		sOut  = halfChord(em.Radii[i], b2)
		sIn   float64
		a, bb = em.A[i], em.B[i]
		c     = em.C[i]
	)
	if i < maxLayer-1 {
		sIn = halfChord(em.Radii[i+1], b2)
	}
	ds := sOut - sIn
	if ds <= 1.e-9 {
		x := em.Radii[i] / REarthKm
		return a + bb*x + c*x*x
	}
	intR := func(s float64) float64 {
		r := math.Sqrt(b2 + s*s)
		if b2 == 0 {
			return 0.5 * s * r
		}
		return 0.5 * (s*r + b2*math.Log(s+r))
	}
	var (
		meanR  = (intR(sOut) - intR(sIn)) / ds
		meanR2 = b2 + (sOut*sOut*sOut-sIn*sIn*sIn)/(3*ds)
	)
	return a + bb*meanR/REarthKm + c*meanR2/(REarthKm*REarthKm)
}

// DistanceOfLayer returns the length in cm of a path layer. pathLength and
// totalEarthLength are in cm.
func (em *EarthModel) DistanceOfLayer(layer, maxLayer int, pathLength, totalEarthLength, cosine float64) float64 {
	if cosine >= 0 {
		return pathLength
	}
	if layer == atmosphericLayer {
		return pathLength - totalEarthLength
	}
	var (
		i         = shellIndex(layer, maxLayer)
		b2        = REarthKm * REarthKm * (1 - cosine*cosine)
		crossThis = 2 * halfChord(em.Radii[i], b2)
	)
	if i < maxLayer-1 {
		crossNext := 2 * halfChord(em.Radii[i+1], b2)
		return 0.5 * (crossThis - crossNext) * KmToCm
	}
	return crossThis * KmToCm
}

func halfChord(r, b2 float64) float64 {
	return math.Sqrt(math.Max(r*r-b2, 0))
}

// PathLength is the distance in cm from the production point at height
// heightCm above the surface to the detector on the surface
func PathLength(cosine, heightCm float64) float64 {
	var (
		R  = REarthCm
		Rh = R + heightCm
	)
	return math.Sqrt(Rh*Rh-R*R*(1-cosine*cosine)) - R*cosine
}

// TotalEarthLength is the chord length in cm through the Earth for an
// upgoing ray
func TotalEarthLength(cosine float64) float64 {
	return -2 * cosine * REarthCm
}

func copySlice(s []float64) (r []float64) {
	if s == nil {
		return
	}
	r = make([]float64, len(s))
	copy(r, s)
	return
}
