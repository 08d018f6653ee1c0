package types

import (
	"fmt"
	"strings"
)

type NeutrinoType uint8

const (
	Neutrino NeutrinoType = iota
	Antineutrino
)

func (nt NeutrinoType) String() string {
	switch nt {
	case Neutrino:
		return "Neutrino"
	case Antineutrino:
		return "Antineutrino"
	}
	return fmt.Sprintf("NeutrinoType(%d)", nt)
}

var NeutrinoTypeNameMap = map[string]NeutrinoType{
	"neutrino":     Neutrino,
	"nu":           Neutrino,
	"antineutrino": Antineutrino,
	"nubar":        Antineutrino,
}

func NewNeutrinoType(label string) (nt NeutrinoType, err error) {
	var ok bool
	if nt, ok = NeutrinoTypeNameMap[strings.ToLower(strings.TrimSpace(label))]; !ok {
		err = fmt.Errorf("unknown neutrino type %q", label)
	}
	return
}

type Flavor uint8

const (
	Electron Flavor = iota
	Muon
	Tau
)

func (f Flavor) String() string {
	switch f {
	case Electron:
		return "e"
	case Muon:
		return "mu"
	case Tau:
		return "tau"
	}
	return fmt.Sprintf("Flavor(%d)", f)
}

/*
ProbType labels one of the nine flavor transitions, the value is the offset
in the per-cell block of probabilities: flavorIn*3 + flavorOut
*/
type ProbType uint8

const (
	E_E ProbType = iota
	E_M
	E_T
	M_E
	M_M
	M_T
	T_E
	T_M
	T_T
)

func NewProbType(in, out Flavor) ProbType {
	return ProbType(uint8(in)*3 + uint8(out))
}

func (pt ProbType) Flavors() (in, out Flavor) {
	return Flavor(pt / 3), Flavor(pt % 3)
}

func (pt ProbType) String() string {
	if pt > T_T {
		return fmt.Sprintf("ProbType(%d)", pt)
	}
	in, out := pt.Flavors()
	return in.String() + out.String()
}

var ProbTypeNameMap = map[string]ProbType{
	"ee":     E_E,
	"emu":    E_M,
	"etau":   E_T,
	"mue":    M_E,
	"mumu":   M_M,
	"mutau":  M_T,
	"taue":   T_E,
	"taumu":  T_M,
	"tautau": T_T,
}

func ParseProbType(label string) (pt ProbType, err error) {
	var ok bool
	if pt, ok = ProbTypeNameMap[strings.ToLower(strings.TrimSpace(label))]; !ok {
		err = fmt.Errorf("unknown oscillation channel %q, expected one of ee, emu, ..., tautau", label)
	}
	return
}
