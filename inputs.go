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

package budyko

import (
	"fmt"
	"math"

	"github.com/ctessum/sparse"
)

// MonthlyField holds one value per grid cell per calendar month. Values
// are stored cell-major: the value for cell i and month m is at index
// i*MonthsPerYear+int(m).
type MonthlyField []float64

// At returns the value for cell i and month m.
func (f MonthlyField) At(i int, m Month) float64 {
	return f[i*MonthsPerYear+int(m)]
}

// Inputs holds the model input data for every grid cell. All of the
// per-cell slices must have length NumCells and all of the monthly fields
// must have length NumCells*MonthsPerYear, with every field sharing the
// same cell ordering.
type Inputs struct {
	NumCells int

	Elevation  []float64 // m above sea level
	Latitude   []float64 // radians
	KRs        []float64 // Hargreaves radiation adjustment coefficient (0.16 interior to 0.19 coastal)
	MaxStorage []float64 // plant-available soil water holding capacity [mm]

	Precipitation MonthlyField // mm/month
	TMin          MonthlyField // mean daily minimum temperature [°C]
	TMax          MonthlyField // mean daily maximum temperature [°C]

	// NoData is the sentinel value marking cells outside of the study area
	// or lacking input data. If NoData is NaN, NaN values mark missing data.
	NoData float64
}

// ShapeError is returned when an input grid does not have the length
// required by the number of grid cells.
type ShapeError struct {
	Grid     string // name of the grid with the wrong size
	Len      int    // actual number of values
	Expected int    // required number of values
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("budyko: input grid %s has %d values but %d are required", e.Grid, e.Len, e.Expected)
}

// Validate checks that all of the input grids are consistent with the
// number of cells. It returns a *ShapeError for the first grid that
// disagrees in size.
func (in *Inputs) Validate() error {
	if in.NumCells <= 0 {
		return fmt.Errorf("budyko: the number of grid cells must be positive but is %d", in.NumCells)
	}
	for _, g := range []struct {
		name string
		v    []float64
	}{
		{"Elevation", in.Elevation},
		{"Latitude", in.Latitude},
		{"KRs", in.KRs},
		{"MaxStorage", in.MaxStorage},
	} {
		if len(g.v) != in.NumCells {
			return &ShapeError{Grid: g.name, Len: len(g.v), Expected: in.NumCells}
		}
	}
	for _, g := range []struct {
		name string
		v    MonthlyField
	}{
		{"Precipitation", in.Precipitation},
		{"TMin", in.TMin},
		{"TMax", in.TMax},
	} {
		if len(g.v) != in.NumCells*MonthsPerYear {
			return &ShapeError{Grid: g.name, Len: len(g.v), Expected: in.NumCells * MonthsPerYear}
		}
	}
	return nil
}

// IsMissing returns whether v is the no-data sentinel.
func (in *Inputs) IsMissing(v float64) bool {
	if math.IsNaN(in.NoData) {
		return math.IsNaN(v)
	}
	return v == in.NoData
}

// missing returns whether any of the inputs for cell i are no-data.
func (in *Inputs) missing(i int) bool {
	for _, v := range [...]float64{in.Elevation[i], in.Latitude[i], in.KRs[i], in.MaxStorage[i]} {
		if in.IsMissing(v) {
			return true
		}
	}
	for _, f := range [...]MonthlyField{in.Precipitation, in.TMin, in.TMax} {
		for m := January; m <= December; m++ {
			if in.IsMissing(f.At(i, m)) {
				return true
			}
		}
	}
	return false
}

// UniformInputs returns inputs for n cells that all have the same
// properties and the same forcing in every month.
func UniformInputs(n int, elevation, latitude, kRs, maxStorage, precipitation, tMin, tMax float64) *Inputs {
	in := &Inputs{
		NumCells:      n,
		Elevation:     make([]float64, n),
		Latitude:      make([]float64, n),
		KRs:           make([]float64, n),
		MaxStorage:    make([]float64, n),
		Precipitation: make(MonthlyField, n*MonthsPerYear),
		TMin:          make(MonthlyField, n*MonthsPerYear),
		TMax:          make(MonthlyField, n*MonthsPerYear),
		NoData:        -9999,
	}
	for i := 0; i < n; i++ {
		in.Elevation[i] = elevation
		in.Latitude[i] = latitude
		in.KRs[i] = kRs
		in.MaxStorage[i] = maxStorage
	}
	for i := range in.Precipitation {
		in.Precipitation[i] = precipitation
		in.TMin[i] = tMin
		in.TMax[i] = tMax
	}
	return in
}

// InputsFromGrids creates model inputs from two-dimensional rasters with
// shape [nrows, ncols], where latitude holds the latitude in radians of
// each raster row. Cells are numbered in row-major order. The monthly
// arrays hold one raster for each calendar month.
func InputsFromGrids(elevation, maxStorage, kRs *sparse.DenseArray, latitude []float64,
	precipitation, tMin, tMax [MonthsPerYear]*sparse.DenseArray, noData float64) (*Inputs, error) {

	if len(elevation.Shape) != 2 {
		return nil, fmt.Errorf("budyko: elevation grid must be two-dimensional but has shape %v", elevation.Shape)
	}
	ny, nx := elevation.Shape[0], elevation.Shape[1]
	check := func(name string, a *sparse.DenseArray) error {
		if len(a.Shape) != 2 || a.Shape[0] != ny || a.Shape[1] != nx {
			return fmt.Errorf("budyko: input grid %s has shape %v but the elevation grid has shape %v",
				name, a.Shape, elevation.Shape)
		}
		return nil
	}
	if err := check("MaxStorage", maxStorage); err != nil {
		return nil, err
	}
	if err := check("KRs", kRs); err != nil {
		return nil, err
	}
	if len(latitude) != ny {
		return nil, &ShapeError{Grid: "Latitude", Len: len(latitude), Expected: ny}
	}
	for m := January; m <= December; m++ {
		if err := check("Precipitation["+m.String()+"]", precipitation[m]); err != nil {
			return nil, err
		}
		if err := check("TMin["+m.String()+"]", tMin[m]); err != nil {
			return nil, err
		}
		if err := check("TMax["+m.String()+"]", tMax[m]); err != nil {
			return nil, err
		}
	}

	n := ny * nx
	in := &Inputs{
		NumCells:      n,
		Elevation:     make([]float64, n),
		Latitude:      make([]float64, n),
		KRs:           make([]float64, n),
		MaxStorage:    make([]float64, n),
		Precipitation: make(MonthlyField, n*MonthsPerYear),
		TMin:          make(MonthlyField, n*MonthsPerYear),
		TMax:          make(MonthlyField, n*MonthsPerYear),
		NoData:        noData,
	}
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			c := j*nx + i
			in.Elevation[c] = elevation.Get(j, i)
			in.Latitude[c] = latitude[j]
			in.KRs[c] = kRs.Get(j, i)
			in.MaxStorage[c] = maxStorage.Get(j, i)
			for m := January; m <= December; m++ {
				in.Precipitation[c*MonthsPerYear+int(m)] = precipitation[m].Get(j, i)
				in.TMin[c*MonthsPerYear+int(m)] = tMin[m].Get(j, i)
				in.TMax[c*MonthsPerYear+int(m)] = tMax[m].Get(j, i)
			}
		}
	}
	return in, nil
}
