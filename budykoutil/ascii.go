/*
Copyright © 2019 the Budyko authors.
This file is part of Budyko.

Budyko is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

Budyko is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with Budyko.  If not, see <http://www.gnu.org/licenses/>.
*/

package budykoutil

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/ctessum/sparse"
	"github.com/spatialmodel/budyko"
	"github.com/spatialmodel/budyko/internal/ascgrid"
)

// asciiPrefixes are the file name prefixes of the monthly ASCII output
// grids. Derived variables use their own names.
var asciiPrefixes = map[string]string{
	"ActualEvap":    "Ea",
	"PotentialEvap": "Ep",
	"Runoff":        "Runoff",
	"NetRadiation":  "rn",
}

// WriteASCII writes one ESRI ASCII grid for each month of each variable
// in vars to dir, and returns the paths of the written files. The arrays
// must have shape [h.NRows*h.NCols, MonthsPerYear] with cells in
// row-major order, as returned by budyko.Model.Results.
func WriteASCII(dir string, h ascgrid.Header, vars map[string]*sparse.DenseArray) ([]string, error) {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return nil, fmt.Errorf("budykoutil: creating ASCII output directory: %v", err)
	}
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)

	n := h.NRows * h.NCols
	var files []string
	for _, name := range names {
		a := vars[name]
		if len(a.Shape) != 2 || a.Shape[0] != n || a.Shape[1] != budyko.MonthsPerYear {
			return nil, fmt.Errorf("budykoutil: variable %s has shape %v but the grid needs [%d %d]",
				name, a.Shape, n, budyko.MonthsPerYear)
		}
		prefix, ok := asciiPrefixes[name]
		if !ok {
			prefix = name
		}
		for m := 0; m < budyko.MonthsPerYear; m++ {
			grid := sparse.ZerosDense(h.NRows, h.NCols)
			for i := range grid.Elements {
				grid.Elements[i] = a.Get(i, m)
			}
			f := filepath.Join(dir, ascgrid.MonthFile(prefix+ascgrid.MonthPlaceholder+".asc", m))
			if err := ascgrid.WriteFile(f, h, grid); err != nil {
				return nil, err
			}
			files = append(files, f)
		}
	}
	return files, nil
}
