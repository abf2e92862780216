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
	"math"

	"github.com/ctessum/unit"
	"github.com/spatialmodel/budyko"
)

// Budget holds the domain water budget of the final simulated year.
// Monthly values are means over the cells that produced finite fluxes.
type Budget struct {
	// NumCells is the number of grid cells, and NumValid is the number of
	// cells with input data and finite fluxes in every month.
	NumCells, NumValid int

	Precipitation [budyko.MonthsPerYear]float64 // mm/month
	PotentialEvap [budyko.MonthsPerYear]float64 // mm/month
	ActualEvap    [budyko.MonthsPerYear]float64 // mm/month
	Runoff        [budyko.MonthsPerYear]float64 // mm/month
	NetRadiation  [budyko.MonthsPerYear]float64 // MJ/m²/day

	// Volumes holds the annual totals of precipitation, actual evaporation,
	// and runoff summed over the valid cells [m³]. It is nil if cell areas
	// were not available.
	Volumes map[string]*unit.Unit
}

// NewBudget calculates the water budget of the final year of a finished
// simulation. If cellArea is not nil, it must hold the surface area [m²]
// of each grid cell and annual volumes are calculated as well.
func NewBudget(d *budyko.Model, cellArea []float64) (*Budget, error) {
	in := d.Inputs()
	res := d.Results()
	if in == nil || res == nil {
		return nil, fmt.Errorf("budykoutil: the model has not been loaded")
	}
	if cellArea != nil && len(cellArea) != in.NumCells {
		return nil, &budyko.ShapeError{Grid: "cell area", Len: len(cellArea), Expected: in.NumCells}
	}
	b := &Budget{NumCells: in.NumCells}
	var vol [3]float64
	for _, c := range d.Cells() {
		if c.Missing || !finiteYear(c) {
			continue
		}
		b.NumValid++
		var annual [3]float64
		for m := budyko.January; m <= budyko.December; m++ {
			b.Precipitation[m] += c.Precipitation[m]
			b.PotentialEvap[m] += c.PotentialEvap[m]
			b.ActualEvap[m] += c.ActualEvap[m]
			b.Runoff[m] += c.Runoff[m]
			b.NetRadiation[m] += c.NetRadiation[m]
			annual[0] += c.Precipitation[m]
			annual[1] += c.ActualEvap[m]
			annual[2] += c.Runoff[m]
		}
		if cellArea != nil {
			for i, v := range annual {
				vol[i] += v / 1000 * cellArea[c.Index]
			}
		}
	}
	if b.NumValid > 0 {
		n := float64(b.NumValid)
		for m := 0; m < budyko.MonthsPerYear; m++ {
			b.Precipitation[m] /= n
			b.PotentialEvap[m] /= n
			b.ActualEvap[m] /= n
			b.Runoff[m] /= n
			b.NetRadiation[m] /= n
		}
	}
	if cellArea != nil {
		b.Volumes = map[string]*unit.Unit{
			"Precipitation": unit.New(vol[0], unit.Meter3),
			"ActualEvap":    unit.New(vol[1], unit.Meter3),
			"Runoff":        unit.New(vol[2], unit.Meter3),
		}
	}
	return b, nil
}

// finiteYear returns whether all of the fluxes of c are finite.
func finiteYear(c *budyko.Cell) bool {
	for m := 0; m < budyko.MonthsPerYear; m++ {
		for _, v := range []float64{c.ActualEvap[m], c.PotentialEvap[m], c.Runoff[m], c.NetRadiation[m]} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}
	return true
}

// StorageChange returns the change in soil water storage in month m,
// which closes the budget.
func (b *Budget) StorageChange(m budyko.Month) float64 {
	return b.Precipitation[m] - b.ActualEvap[m] - b.Runoff[m]
}

// depth converts a monthly series in mm to an annual total length.
func depth(v [budyko.MonthsPerYear]float64) *unit.Unit {
	total := unit.New(0, unit.Meter)
	for _, x := range v {
		total.Add(unit.New(x/1000, unit.Meter))
	}
	return total
}

// Annual returns the annual totals of the domain-mean water balance terms.
func (b *Budget) Annual() map[string]*unit.Unit {
	return map[string]*unit.Unit{
		"Precipitation": depth(b.Precipitation),
		"PotentialEvap": depth(b.PotentialEvap),
		"ActualEvap":    depth(b.ActualEvap),
		"Runoff":        depth(b.Runoff),
	}
}

// Ratios returns the annual runoff ratio (runoff / precipitation), the
// evaporative index (actual evaporation / precipitation), and the aridity
// index (potential evaporation / precipitation).
func (b *Budget) Ratios() (runoff, evaporative, aridity float64, err error) {
	a := b.Annual()
	p := a["Precipitation"]
	ratio := func(name string) (float64, error) {
		r := unit.Div(a[name], p)
		if err := r.Check(unit.Dimless); err != nil {
			return math.NaN(), err
		}
		return r.Value(), nil
	}
	if runoff, err = ratio("Runoff"); err != nil {
		return
	}
	if evaporative, err = ratio("ActualEvap"); err != nil {
		return
	}
	aridity, err = ratio("PotentialEvap")
	return
}
