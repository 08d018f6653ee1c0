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
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/notargets/goprob3/physics"
	"github.com/notargets/goprob3/propagator"
	"github.com/notargets/goprob3/types"
	"github.com/notargets/goprob3/utils"
)

type BenchConfig struct {
	NCosines, NEnergies int
	Repeat              int
	HeightBins          int
}

// BenchCmd represents the bench command
var BenchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Time the oscillogram calculation on a synthetic grid",
	Long: `Time repeated calculations of an atmospheric oscillogram through the four
shell PREM profile. On linux the retired instruction count is reported as well.`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		var (
			bc  = &BenchConfig{}
			cfg *propagator.Config
		)
		bc.NCosines, _ = cmd.Flags().GetInt("nCosines")
		bc.NEnergies, _ = cmd.Flags().GetInt("nEnergies")
		bc.Repeat, _ = cmd.Flags().GetInt("repeat")
		bc.HeightBins, _ = cmd.Flags().GetInt("heightBins")
		if cfg, err = propagatorConfig(); err != nil {
			return
		}
		_, err = RunBench(bc, cfg)
		return
	},
}

func init() {
	rootCmd.AddCommand(BenchCmd)
	BenchCmd.Flags().IntP("nCosines", "c", 200, "number of zenith cosines")
	BenchCmd.Flags().IntP("nEnergies", "e", 200, "number of energies")
	BenchCmd.Flags().IntP("repeat", "r", 5, "number of timed calculations")
	BenchCmd.Flags().Int("heightBins", 0, "production height bins, 0 uses a fixed height")
}

type BenchResult struct {
	Cells        int
	Best, Mean   time.Duration
	Instructions uint64 // of one calculation, 0 when not available
}

func (br BenchResult) String() string {
	return fmt.Sprintf("%d cells, best %v (%.1f ns/cell), mean %v",
		br.Cells, br.Best, float64(br.Best.Nanoseconds())/float64(br.Cells), br.Mean)
}

func RunBench(bc *BenchConfig, cfg *propagator.Config) (br BenchResult, err error) {
	var (
		p   *propagator.Propagator
		log = cfg.Logger
	)
	if log == nil {
		log = logrus.StandardLogger()
	}
	if bc.Repeat < 1 {
		bc.Repeat = 1
	}
	if p, err = newBenchPropagator(bc, cfg); err != nil {
		return
	}
	calculate := func() error { return p.CalculateProbabilities(types.Neutrino) }
	br.Cells = bc.NCosines * bc.NEnergies
	br.Best = time.Duration(math.MaxInt64)
	var total time.Duration
	for i := 0; i < bc.Repeat; i++ {
		start := time.Now()
		if err = calculate(); err != nil {
			return
		}
		elapsed := time.Since(start)
		total += elapsed
		if elapsed < br.Best {
			br.Best = elapsed
		}
	}
	br.Mean = total / time.Duration(bc.Repeat)
	entry := log.WithField("strategy", cfg.Strategy)
	if br.Instructions, err = countInstructions(calculate); err != nil {
		entry.WithError(err).Debug("instruction count unavailable")
		err = nil
	} else {
		entry = entry.WithField("instructions", br.Instructions)
	}
	entry.WithField("memory", utils.GetMemUsage()).Info(br.String())
	return
}

func newBenchPropagator(bc *BenchConfig, cfg *propagator.Config) (p *propagator.Propagator, err error) {
	if p, err = propagator.NewPropagator(bc.NCosines, bc.NEnergies, cfg); err != nil {
		return
	}
	p.SetMNSMatrix(33.4*math.Pi/180, 8.6*math.Pi/180, 49*math.Pi/180, 195*math.Pi/180)
	p.SetNeutrinoMasses(7.4e-5, 2.426e-3)
	var (
		cosines  = make([]float64, bc.NCosines)
		energies = make([]float64, bc.NEnergies)
	)
	for i := range cosines {
		cosines[i] = -1 + 2*(float64(i)+0.5)/float64(bc.NCosines)
	}
	for i := range energies {
		energies[i] = math.Pow(10, 2*(float64(i)+0.5)/float64(bc.NEnergies))
	}
	if err = p.SetDensity(premRadii, premRhos, premYps); err != nil {
		return
	}
	if err = p.SetEnergyList(energies); err != nil {
		return
	}
	if err = p.SetCosineList(cosines); err != nil {
		return
	}
	if err = p.SetProductionHeight(22); err != nil {
		return
	}
	if bc.HeightBins > 0 {
		if err = p.SetNumberOfProductionHeightBins(bc.HeightBins); err != nil {
			return
		}
		var (
			nB    = bc.HeightBins
			prob  = utils.ConstArray(physics.ProductionHeightTableSize(nB, bc.NCosines, bc.NEnergies), 1/float64(nB))
			edges = make([]float64, nB+1)
		)
		for i := range edges {
			edges[i] = 10 + 30*float64(i)/float64(nB)
		}
		err = p.SetProductionHeightList(prob, edges)
	}
	return
}
