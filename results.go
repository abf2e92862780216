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

	"github.com/ctessum/sparse"
)

// Outputs holds the monthly fluxes from the final simulated year.
// Each array has shape [NumCells, MonthsPerYear]. Values for cells that
// were not simulated are set to NoData.
type Outputs struct {
	NumCells int
	NoData   float64

	ActualEvap    *sparse.DenseArray // mm/month
	PotentialEvap *sparse.DenseArray // mm/month
	Runoff        *sparse.DenseArray // mm/month
	NetRadiation  *sparse.DenseArray // MJ/m²/day
}

// OutputNames are the names of the variables in Outputs, in the order
// they are written to output files.
var OutputNames = []string{"ActualEvap", "PotentialEvap", "Runoff", "NetRadiation"}

// outputInfo holds the description and units of each output variable.
var outputInfo = map[string][2]string{
	"ActualEvap":    {"Actual evapotranspiration", "mm/month"},
	"PotentialEvap": {"Priestley-Taylor potential evapotranspiration", "mm/month"},
	"Runoff":        {"Runoff", "mm/month"},
	"NetRadiation":  {"Net radiation", "MJ/m²/day"},
}

func newOutputs(n int, noData float64) *Outputs {
	o := &Outputs{NumCells: n, NoData: noData}
	for _, a := range []**sparse.DenseArray{&o.ActualEvap, &o.PotentialEvap, &o.Runoff, &o.NetRadiation} {
		*a = sparse.ZerosDense(n, MonthsPerYear)
		for i := range (*a).Elements {
			(*a).Elements[i] = noData
		}
	}
	return o
}

// set copies the fluxes of c into the outputs. Different cells occupy
// different elements, so set may be called concurrently for different
// cells. Elements are assigned directly because DenseArray.Set skips
// zeros, which would leave zero fluxes as NoData.
func (o *Outputs) set(c *Cell) {
	for m := January; m <= December; m++ {
		i := o.ActualEvap.Index1d(c.Index, int(m))
		o.ActualEvap.Elements[i] = c.ActualEvap[m]
		o.PotentialEvap.Elements[i] = c.PotentialEvap[m]
		o.Runoff.Elements[i] = c.Runoff[m]
		o.NetRadiation.Elements[i] = c.NetRadiation[m]
	}
}

// Variable returns the output array with the given name.
func (o *Outputs) Variable(name string) (*sparse.DenseArray, error) {
	switch name {
	case "ActualEvap":
		return o.ActualEvap, nil
	case "PotentialEvap":
		return o.PotentialEvap, nil
	case "Runoff":
		return o.Runoff, nil
	case "NetRadiation":
		return o.NetRadiation, nil
	default:
		return nil, fmt.Errorf("budyko: invalid output variable name %q; options are %v", name, OutputNames)
	}
}

// Month returns the values of output variable name for month m in all
// cells.
func (o *Outputs) Month(name string, m Month) ([]float64, error) {
	a, err := o.Variable(name)
	if err != nil {
		return nil, err
	}
	v := make([]float64, o.NumCells)
	for i := range v {
		v[i] = a.Get(i, int(m))
	}
	return v, nil
}

// Results returns the outputs of the final simulated year. It returns nil
// if the model has not been loaded.
func (d *Model) Results() *Outputs { return d.outputs }
