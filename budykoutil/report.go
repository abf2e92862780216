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
	"time"

	"github.com/ctessum/unit"
	"github.com/spatialmodel/budyko"
	"github.com/tealeg/xlsx"
)

// budgetColumns are the column headings of the monthly budget sheet.
var budgetColumns = []string{
	"Month",
	"Precipitation (mm)",
	"Potential evaporation (mm)",
	"Actual evaporation (mm)",
	"Runoff (mm)",
	"Storage change (mm)",
	"Net radiation (MJ/m²/day)",
}

// WriteReport saves the water budget b to an .xlsx workbook at path.
// The workbook has a "Water budget" sheet with one row per month and an
// annual total, and a "Summary" sheet with the annual indices.
func WriteReport(path string, b *Budget) error {
	f, err := newReport(b)
	if err != nil {
		return err
	}
	if err := f.Save(path); err != nil {
		return fmt.Errorf("budykoutil: saving report: %v", err)
	}
	return nil
}

func newReport(b *Budget) (*xlsx.File, error) {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Water budget")
	if err != nil {
		return nil, err
	}
	row := sheet.AddRow()
	for _, c := range budgetColumns {
		row.AddCell().SetString(c)
	}
	for m := budyko.January; m <= budyko.December; m++ {
		row = sheet.AddRow()
		row.AddCell().SetString(time.Month(m + 1).String())
		for _, v := range []float64{
			b.Precipitation[m],
			b.PotentialEvap[m],
			b.ActualEvap[m],
			b.Runoff[m],
			b.StorageChange(m),
			b.NetRadiation[m],
		} {
			row.AddCell().SetFloat(v)
		}
	}

	annual := b.Annual()
	row = sheet.AddRow()
	row.AddCell().SetString("Annual")
	for _, name := range []string{"Precipitation", "PotentialEvap", "ActualEvap", "Runoff"} {
		row.AddCell().SetFloat(annual[name].Value() * 1000)
	}
	change := unit.Sub(annual["Precipitation"], annual["ActualEvap"], annual["Runoff"])
	row.AddCell().SetFloat(change.Value() * 1000)

	summary, err := f.AddSheet("Summary")
	if err != nil {
		return nil, err
	}
	addRow := func(name string, v float64) {
		r := summary.AddRow()
		r.AddCell().SetString(name)
		r.AddCell().SetFloat(v)
	}
	addRow("Grid cells", float64(b.NumCells))
	addRow("Simulated cells", float64(b.NumValid))
	runoff, evap, aridity, err := b.Ratios()
	if err != nil {
		return nil, err
	}
	addRow("Runoff ratio", runoff)
	addRow("Evaporative index", evap)
	addRow("Aridity index", aridity)
	for _, name := range []string{"Precipitation", "ActualEvap", "Runoff"} {
		v, ok := b.Volumes[name]
		if !ok {
			continue
		}
		if err := v.Check(unit.Meter3); err != nil {
			return nil, fmt.Errorf("budykoutil: %s volume: %v", name, err)
		}
		addRow(name+" volume (m³)", v.Value())
	}
	return f, nil
}
