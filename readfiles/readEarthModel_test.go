package readfiles

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/goprob3/physics"
)

func TestReadEarthModel(t *testing.T) {
	{ // Constant density shells
		em, err := ReadEarthModel("testdata/PREM_4layer.dat")
		require.NoError(t, err)
		assert.False(t, em.Polynomial)
		assert.Equal(t, []float64{6371, 5701, 3480, 1220, 0}, em.Radii)
		assert.Equal(t, []float64{3.3, 5.0, 11.3, 13.0, 13.0}, em.Rhos)
		assert.Equal(t, []float64{0.497, 0.497, 0.468, 0.468, 0.468}, em.Yps)
		assert.Equal(t, 4, em.LayersCrossed(-1))
	}
	{ // Polynomial shells, blank lines are skipped
		em, err := ReadEarthModel("testdata/PREM_4layer_quad.dat")
		require.NoError(t, err)
		assert.True(t, em.Polynomial)
		assert.Equal(t, []float64{6371, 5701, 3480, 1220, 0}, em.Radii)
		assert.Equal(t, []float64{2.6, 6.8143, 12.5815, 13.0885, 13.0885}, em.A)
		assert.Equal(t, []float64{1.0, -2.05, -1.2638, 0, 0}, em.B)
		assert.Equal(t, []float64{0, 0, -3.6426, -8.8381, -8.8381}, em.C)
	}
	{ // A missing file is a configuration error naming the cause
		_, err := ReadEarthModel("testdata/missing.dat")
		assert.ErrorIs(t, err, physics.ErrConfiguration)
	}
}

func TestParseEarthModel(t *testing.T) {
	{ // Comments and surrounding space
		em, err := ParseEarthModel(strings.NewReader(
			"  # header\n\n0 4 0.5\n  6371   4   0.5  \n"))
		require.NoError(t, err)
		assert.Equal(t, []float64{6371, 0}, em.Radii)
	}
	{ // Malformed input
		for _, input := range []string{
			"",
			"# only a comment\n",
			"0 4 0.5\n6371 4\n",
			"0 4\n6371 4\n",
			"0 4 0.5 1\n6371 4 0.5 1\n",
			"0 x 0.5\n6371 4 0.5\n",
			"6371 4 0.5\n5000 5 0.5\n5500 6 0.5\n",
		} {
			_, err := ParseEarthModel(strings.NewReader(input))
			assert.ErrorIs(t, err, physics.ErrConfiguration, "input %q", input)
		}
	}
}
