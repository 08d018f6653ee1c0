package readfiles

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/notargets/goprob3/physics"
)

/*
ReadEarthModel reads a density profile. Each data line holds either

	radius_km  rho  Ye                (constant density shells)
	radius_km  a    b    c    Ye      (polynomial shells)

and every line must have the same number of columns. Lines starting with #
and blank lines are skipped. Radii may run in either direction.
*/
func ReadEarthModel(fileName string) (em *physics.EarthModel, err error) {
	var file *os.File
	if file, err = os.Open(fileName); err != nil {
		return nil, fmt.Errorf("%w: could not open density file: %v", physics.ErrConfiguration, err)
	}
	defer file.Close()
	if em, err = ParseEarthModel(file); err != nil {
		err = fmt.Errorf("%s: %w", fileName, err)
	}
	return
}

func ParseEarthModel(r io.Reader) (em *physics.EarthModel, err error) {
	var columns [][]float64
	if columns, err = readColumns(r); err != nil {
		return
	}
	switch len(columns) {
	case 3:
		return physics.NewEarthModel(columns[0], columns[1], columns[2])
	case 5:
		return physics.NewPolynomialEarthModel(columns[0], columns[1], columns[2], columns[3], columns[4])
	case 0:
		return nil, fmt.Errorf("%w: no density data found", physics.ErrConfiguration)
	default:
		return nil, fmt.Errorf("%w: unsupported Earth model with %d entries per line, need 3 or 5",
			physics.ErrConfiguration, len(columns))
	}
}

// readColumns returns the data transposed into columns
func readColumns(r io.Reader) (columns [][]float64, err error) {
	var (
		scanner = bufio.NewScanner(r)
		lineNum int
	)
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		fields := strings.Fields(line)
		if columns == nil {
			columns = make([][]float64, len(fields))
		}
		if len(fields) != len(columns) {
			return nil, fmt.Errorf("%w: line %d has %d entries, expected %d",
				physics.ErrConfiguration, lineNum, len(fields), len(columns))
		}
		for i, f := range fields {
			var val float64
			if val, err = strconv.ParseFloat(f, 64); err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", physics.ErrConfiguration, lineNum, err)
			}
			columns[i] = append(columns[i], val)
		}
	}
	err = scanner.Err()
	return
}
