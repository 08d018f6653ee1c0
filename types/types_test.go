package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypes(t *testing.T) {
	{ // Channel labels round trip through the name map
		for label, pt := range ProbTypeNameMap {
			assert.Equal(t, label, pt.String())
			parsed, err := ParseProbType(label)
			assert.NoError(t, err)
			assert.Equal(t, pt, parsed)
		}
		_, err := ParseProbType("muon")
		assert.Error(t, err)
	}
	{ // Offsets follow flavorIn*3 + flavorOut
		assert.Equal(t, M_T, NewProbType(Muon, Tau))
		assert.Equal(t, ProbType(5), M_T)
		in, out := T_E.Flavors()
		assert.Equal(t, Tau, in)
		assert.Equal(t, Electron, out)
		assert.Equal(t, "ProbType(9)", ProbType(9).String())
	}
	{
		nt, err := NewNeutrinoType(" NuBar ")
		assert.NoError(t, err)
		assert.Equal(t, Antineutrino, nt)
		assert.Equal(t, "Neutrino", Neutrino.String())
		_, err = NewNeutrinoType("sterile")
		assert.Error(t, err)
	}
}
