package physics

const (
	// TwoRootTwoGF is 2·sqrt(2)·G_F·N_A in eV²/(GeV·g/cm³); multiplied by an
	// electron-weighted density (ρ·Ye) and the energy it gives the matter term
	TwoRootTwoGF = 1.52588e-4
	// LoEFactor is 1/(2·ħc) in GeV/(eV²·km), the phase per eV²·km/GeV
	LoEFactor = 2.534
	REarthKm  = 6371.0
	KmToCm    = 1.e5
	REarthCm  = REarthKm * KmToCm
	// DegeneracyShift breaks exact mass degeneracies, in eV²
	DegeneracyShift = 5.e-9
	// DefaultElectronFraction is Ye for an isoscalar medium
	DefaultElectronFraction = 0.5
	// UnitarityTolerance bounds |U·U† - I| accepted for a mixing matrix
	UnitarityTolerance = 1.e-9
)

// Per-cell scratch capacities. Batches needing more are rejected before any
// cell is evaluated.
const (
	MaxLayers               = 16
	MaxProductionHeightBins = 50
)

const (
	nFlavors         = 3
	nExpansionTerms  = 3
	atmosphericLayer = 0
)
