/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/notargets/goprob3/propagator"
	"github.com/notargets/goprob3/types"
)

// oscillogram is one channel on the energy (columns) by cosine (rows) grid
type oscillogram struct {
	x, y []float64
	prob []float64 // cosine index fastest
}

func newOscillogram(p *propagator.Propagator, pt types.ProbType, cosines, energies []float64,
	logEnergy bool) (o *oscillogram, err error) {
	o = &oscillogram{
		x: make([]float64, len(energies)),
		y: cosines,
	}
	for i, e := range energies {
		o.x[i] = e
		if logEnergy {
			o.x[i] = math.Log10(e)
		}
	}
	if o.prob, err = p.GetProbabilityArr(pt); err != nil {
		o = nil
	}
	return
}

func (o *oscillogram) Dims() (c, r int)   { return len(o.x), len(o.y) }
func (o *oscillogram) Z(c, r int) float64 { return o.prob[c*len(o.y)+r] }
func (o *oscillogram) X(c int) float64    { return o.x[c] }
func (o *oscillogram) Y(r int) float64    { return o.y[r] }

// SaveOscillogram writes a heat map of one channel, the image format follows
// the file extension
func SaveOscillogram(fileName, title string, p *propagator.Propagator, pt types.ProbType,
	cosines, energies []float64, logEnergy bool) (err error) {
	var o *oscillogram
	if len(cosines) < 2 || len(energies) < 2 {
		return fmt.Errorf("a heat map needs at least two cosines and two energies, got %d and %d",
			len(cosines), len(energies))
	}
	if o, err = newOscillogram(p, pt, cosines, energies, logEnergy); err != nil {
		return
	}
	pl := plot.New()
	pl.Title.Text = fmt.Sprintf("%s P(%s)", title, pt)
	pl.X.Label.Text = "E (GeV)"
	if logEnergy {
		pl.X.Label.Text = "log10 E (GeV)"
	}
	pl.Y.Label.Text = "cos(zenith)"
	hm := plotter.NewHeatMap(o, palette.Heat(32, 1))
	hm.Min, hm.Max = 0, 1
	pl.Add(hm)
	return pl.Save(8*vg.Inch, 6*vg.Inch, fileName)
}
