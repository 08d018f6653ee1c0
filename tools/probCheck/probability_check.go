package main

import (
	"bufio"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/notargets/goprob3/utils"
)

var (
	csvFile string
	tol     = utils.UNITTOL
)

func main() {
	csvFilePtr := flag.String("csvFile", csvFile, "file of probabilities written by goprob3 calc")
	tolPtr := flag.Float64("tol", tol, "allowed deviation of each row sum from one")
	flag.Parse()
	csvFile = *csvFilePtr
	tol = *tolPtr
	if len(csvFile) == 0 {
		flag.Usage()
		os.Exit(1)
	}
	fmt.Printf("Input file: %v\n", csvFile)
	f, err := os.Open(csvFile)
	if err != nil {
		panic(err)
	}
	defer f.Close()
	rc, err := checkRows(bufio.NewReader(f), tol)
	if err != nil {
		panic(err)
	}
	fmt.Printf("Cells = %d, Max deviation = %8.3e\n", rc.cells, rc.maxDeviation)
	for _, bad := range rc.failures {
		fmt.Printf("cos = %v, E = %v, from %s: sum = %v\n", bad.cosine, bad.energy, bad.flavor, bad.sum)
	}
	if len(rc.failures) != 0 {
		os.Exit(2)
	}
}

var flavors = [3]string{"e", "mu", "tau"}

type rowFailure struct {
	cosine, energy float64
	flavor         string
	sum            float64
}

type RowCheck struct {
	cells        int
	maxDeviation float64
	failures     []rowFailure
}

// checkRows sums P(in -> e, mu, tau) of every cell for each initial flavor
func checkRows(r io.Reader, tol float64) (rc *RowCheck, err error) {
	var (
		records [][]string
		vals    [11]float64
	)
	if records, err = csv.NewReader(r).ReadAll(); err != nil {
		return
	}
	rc = &RowCheck{}
	for i, rec := range records {
		if i == 0 {
			continue
		}
		if len(rec) != len(vals) {
			return nil, fmt.Errorf("line %d has %d fields, expected %d", i+1, len(rec), len(vals))
		}
		for j, txt := range rec {
			if vals[j], err = strconv.ParseFloat(txt, 64); err != nil {
				return nil, fmt.Errorf("line %d: %w", i+1, err)
			}
		}
		rc.cells++
		for in := 0; in < 3; in++ {
			sum := vals[2+3*in] + vals[3+3*in] + vals[4+3*in]
			dev := math.Abs(sum - 1)
			rc.maxDeviation = math.Max(rc.maxDeviation, dev)
			if !(dev <= tol) {
				rc.failures = append(rc.failures, rowFailure{
					cosine: vals[0],
					energy: vals[1],
					flavor: flavors[in],
					sum:    sum,
				})
			}
		}
	}
	return
}
