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
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/notargets/goprob3/InputParameters"
	"github.com/notargets/goprob3/propagator"
	"github.com/notargets/goprob3/types"
)

type CalcConfig struct {
	InputFile string
	EarthFile string
	OutFile   string
	PNGFile   string
	Channel   string
}

// Four shell PREM approximation, used when no Earth model file is given
var (
	premRadii = []float64{0, 1220, 3480, 5701, 6371}
	premRhos  = []float64{13, 13, 11.3, 5, 3.3}
	premYps   = []float64{0.468, 0.468, 0.468, 0.497, 0.497}
)

const exampleInput = `
########################################
Title: "Atmospheric oscillogram"
Theta12: 33.4     # degrees
Theta13: 8.6
Theta23: 49
DeltaCP: 195
Dm12sq: 7.4e-5    # eV^2
Dm23sq: 2.426e-3
NeutrinoType: neutrino # or antineutrino
Energy: {Min: 1, Max: 100, Points: 200, Log: true}
Cosine: {Min: -1, Max: 1, Points: 200}
ProductionHeight: 22 # km
########################################
`

// CalcCmd represents the calc command
var CalcCmd = &cobra.Command{
	Use:   "calc",
	Short: "Calculate an oscillogram from a YAML input file",
	Long: `Calculate the oscillation probabilities on the cosine and energy grid of an
input file, writing all nine transitions per cell as CSV and optionally one
transition as a PNG heat map.` + "\nExample input:" + exampleInput,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		var (
			cc  = &CalcConfig{}
			cfg *propagator.Config
		)
		cc.InputFile, _ = cmd.Flags().GetString("inputFile")
		cc.EarthFile, _ = cmd.Flags().GetString("earthFile")
		cc.OutFile, _ = cmd.Flags().GetString("outFile")
		cc.PNGFile, _ = cmd.Flags().GetString("png")
		cc.Channel, _ = cmd.Flags().GetString("channel")
		if len(cc.InputFile) == 0 {
			return fmt.Errorf("must supply an input parameters file (-I, --inputFile)")
		}
		if cfg, err = propagatorConfig(); err != nil {
			return
		}
		return RunCalc(cc, cfg)
	},
}

func init() {
	rootCmd.AddCommand(CalcCmd)
	CalcCmd.Flags().StringP("inputFile", "I", "", "YAML file for input parameters like:\n\t- mixing angles and mass splittings\n\t- energy and cosine grids")
	CalcCmd.Flags().StringP("earthFile", "E", "", "Earth model with 3 (radius rho Ye) or 5 (radius a b c Ye) columns")
	CalcCmd.Flags().StringP("outFile", "o", "", "CSV output file, standard output when empty")
	CalcCmd.Flags().String("png", "", "write a heat map of one channel to this PNG file")
	CalcCmd.Flags().String("channel", "mumu", "channel of the heat map: ee, emu, ..., tautau")
}

func RunCalc(cc *CalcConfig, cfg *propagator.Config) (err error) {
	var (
		data []byte
		ip   = &InputParameters.OscillationInput{}
		p    *propagator.Propagator
		nt   types.NeutrinoType
		log  = cfg.Logger
	)
	if log == nil {
		log = logrus.StandardLogger()
	}
	if data, err = os.ReadFile(cc.InputFile); err != nil {
		return
	}
	if err = ip.Parse(data); err != nil {
		return fmt.Errorf("%s: %w", cc.InputFile, err)
	}
	if log.IsLevelEnabled(logrus.InfoLevel) {
		ip.Print()
	}
	if len(cc.EarthFile) != 0 {
		ip.EarthModel = cc.EarthFile
	}
	if p, err = NewPropagator(ip, cfg); err != nil {
		return
	}
	if nt, err = ip.Type(); err != nil {
		return
	}
	if err = p.CalculateProbabilities(nt); err != nil {
		return
	}
	var (
		cosines  = ip.Cosine.Values()
		energies = ip.Energy.Values()
	)
	if len(cc.OutFile) == 0 {
		err = WriteCSV(os.Stdout, p, cosines, energies)
	} else {
		var file *os.File
		if file, err = os.Create(cc.OutFile); err != nil {
			return
		}
		if err = WriteCSV(file, p, cosines, energies); err != nil {
			file.Close()
			return
		}
		if err = file.Close(); err != nil {
			return
		}
		log.WithField("file", cc.OutFile).Info("wrote probabilities")
	}
	if err != nil || len(cc.PNGFile) == 0 {
		return
	}
	var pt types.ProbType
	if pt, err = types.ParseProbType(cc.Channel); err != nil {
		return
	}
	if err = SaveOscillogram(cc.PNGFile, ip.Title, p, pt, cosines, energies, ip.Energy.Log); err != nil {
		return
	}
	log.WithFields(logrus.Fields{"file": cc.PNGFile, "channel": pt}).Info("wrote heat map")
	return
}

// NewPropagator configures a propagator from an input file
func NewPropagator(ip *InputParameters.OscillationInput, cfg *propagator.Config) (p *propagator.Propagator, err error) {
	if p, err = propagator.NewPropagator(ip.Cosine.Points, ip.Energy.Points, cfg); err != nil {
		return
	}
	p.SetMNSMatrix(ip.MixingAngles())
	p.SetNeutrinoMasses(ip.Dm12sq, ip.Dm23sq)
	if len(ip.EarthModel) != 0 {
		err = p.SetDensityFromFile(ip.EarthModel)
	} else {
		err = p.SetDensity(premRadii, premRhos, premYps)
	}
	if err != nil {
		return
	}
	if ip.Modify != nil {
		if err = p.ModifyEarthModel(ip.Modify["Radii"], ip.Modify["Weights"]); err != nil {
			return
		}
	}
	if ip.Composition != nil {
		if err = p.SetChemicalComposition(ip.Composition); err != nil {
			return
		}
	}
	if err = p.SetEnergyList(ip.Energy.Values()); err != nil {
		return
	}
	if err = p.SetCosineList(ip.Cosine.Values()); err != nil {
		return
	}
	if err = p.SetProductionHeight(ip.ProductionHeight); err != nil {
		return
	}
	if ip.ProductionHeightBins > 0 {
		if err = p.SetNumberOfProductionHeightBins(ip.ProductionHeightBins); err != nil {
			return
		}
		if err = p.SetProductionHeightList(ip.HeightDistribution()); err != nil {
			return
		}
	}
	return
}

// WriteCSV writes one row per cell: cosine, energy and the nine transitions
// in the order ee, emu, etau, mue, ..., tautau
func WriteCSV(w io.Writer, p *propagator.Propagator, cosines, energies []float64) (err error) {
	var (
		cw     = csv.NewWriter(w)
		header = []string{"cosine", "energy"}
		format = func(f float64) string { return strconv.FormatFloat(f, 'g', 12, 64) }
	)
	for pt := types.E_E; pt <= types.T_T; pt++ {
		header = append(header, "P_"+pt.String())
	}
	if err = cw.Write(header); err != nil {
		return
	}
	row := make([]string, len(header))
	for iC, c := range cosines {
		for iE, e := range energies {
			row[0], row[1] = format(c), format(e)
			for i, prob := range p.Cells(iC, iE) {
				row[2+i] = format(prob)
			}
			if err = cw.Write(row); err != nil {
				return
			}
		}
	}
	cw.Flush()
	return cw.Error()
}
