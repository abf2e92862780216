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

	"github.com/spatialmodel/budyko"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// monthlyXYs returns the points of a monthly series, with months
// numbered from 1.
func monthlyXYs(v [budyko.MonthsPerYear]float64) plotter.XYs {
	xy := make(plotter.XYs, len(v))
	for m, y := range v {
		xy[m].X = float64(m + 1)
		xy[m].Y = y
	}
	return xy
}

// newPlot draws the domain-mean monthly fluxes in b.
func newPlot(b *Budget) (*plot.Plot, error) {
	p, err := plot.New()
	if err != nil {
		return nil, err
	}
	p.Title.Text = "Domain-mean monthly water balance"
	p.X.Label.Text = "Month"
	p.Y.Label.Text = "mm/month"
	err = plotutil.AddLinePoints(p,
		"Precipitation", monthlyXYs(b.Precipitation),
		"Potential evaporation", monthlyXYs(b.PotentialEvap),
		"Actual evaporation", monthlyXYs(b.ActualEvap),
		"Runoff", monthlyXYs(b.Runoff),
	)
	if err != nil {
		return nil, err
	}
	p.X.Min = 1
	p.X.Max = budyko.MonthsPerYear
	return p, nil
}

// WritePlot saves a chart of the domain-mean monthly fluxes in b to path.
// The image format is chosen from the file extension.
func WritePlot(path string, b *Budget) error {
	p, err := newPlot(b)
	if err != nil {
		return err
	}
	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("budykoutil: saving plot: %v", err)
	}
	return nil
}
