package physics

// Segment is one constant density piece of a ray path
type Segment struct {
	Distance float64 // cm
	Density  float64 // g/cm³, electron weighted
}

// HeightBin is the path length interval covered by one production height
// bin, relative to the nominal path
type HeightBin struct {
	Width  float64 // cm
	Offset float64 // cm, bin center minus nominal path length
}

/*
RayPath is the geometry of one zenith cosine: the atmospheric layer followed
by the shells crossed on the way in to the deepest one. The shells crossed
on the way out are the same, in reverse order, and are not repeated here.
*/
type RayPath struct {
	Cosine           float64
	MaxLayer         int
	PathLength       float64 // cm
	TotalEarthLength float64 // cm
	Segments         [MaxLayers + 1]Segment
	NBins            int
	Bins             [MaxProductionHeightBins]HeightBin
}

// TracePath lays out the segments of a ray produced at heightCm above the
// surface. maxLayer must come from LayersCrossed for the same cosine and be
// within MaxLayers.
func (em *EarthModel) TracePath(cosine, heightCm float64, maxLayer int) (rp RayPath) {
	rp.Cosine = cosine
	rp.MaxLayer = maxLayer
	rp.PathLength = PathLength(cosine, heightCm)
	rp.TotalEarthLength = TotalEarthLength(cosine)
	for layer := 0; layer <= maxLayer; layer++ {
		rp.Segments[layer] = Segment{
			Distance: em.DistanceOfLayer(layer, maxLayer, rp.PathLength, rp.TotalEarthLength, cosine),
			Density:  em.DensityOfLayer(layer, maxLayer, cosine),
		}
	}
	return
}

// SetHeightBins records the path length interval of each production height
// bin, given its nBins+1 edges in km
func (rp *RayPath) SetHeightBins(edgesKm []float64) {
	if len(edgesKm) < 2 {
		rp.NBins = 0
		return
	}
	rp.NBins = len(edgesKm) - 1
	lower := PathLength(rp.Cosine, edgesKm[0]*KmToCm)
	for b := 0; b < rp.NBins; b++ {
		upper := PathLength(rp.Cosine, edgesKm[b+1]*KmToCm)
		rp.Bins[b] = HeightBin{
			Width:  upper - lower,
			Offset: 0.5*(lower+upper) - rp.PathLength,
		}
		lower = upper
	}
}
