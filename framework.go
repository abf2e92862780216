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

import "fmt"

// Model holds the current state of the model.
type Model struct {
	// InitFuncs are functions to be called in the given order
	// at the beginning of the simulation.
	InitFuncs []DomainManipulator

	// RunFuncs are functions to be called in the given order once for
	// each simulated year. The simulation ends when one of the
	// functions sets Done to true.
	RunFuncs []DomainManipulator

	// CleanupFuncs are functions to be called in the given order
	// at the end of the simulation.
	CleanupFuncs []DomainManipulator

	// Years is the number of annual cycles to simulate, including the
	// final year whose fluxes are retained. If Years < 1, DefaultYears
	// is used.
	Years int

	// Done specifies whether the simulation is finished.
	Done bool

	cells   []*Cell
	inputs  *Inputs
	outputs *Outputs

	// year is the zero-based index of the year currently being simulated.
	year int
}

// Cell holds the inputs and state of a single grid cell.
type Cell struct {
	Index int // position of the cell in the input grids

	// Missing is true if any of the inputs for this cell are no-data.
	// Missing cells are never processed.
	Missing bool

	Elevation  float64 // m
	Latitude   float64 // radians
	KRs        float64 // Hargreaves radiation adjustment coefficient
	MaxStorage float64 // soil water holding capacity [mm]

	Precipitation [MonthsPerYear]float64 // mm/month
	TMin          [MonthsPerYear]float64 // °C
	TMax          [MonthsPerYear]float64 // °C

	NetRadiation  [MonthsPerYear]float64 // MJ/m²/day
	PotentialEvap [MonthsPerYear]float64 // mm

	// Storage is the soil water currently held in the cell [mm].
	Storage float64

	ActualEvap [MonthsPerYear]float64 // fluxes from the most recent simulated year [mm]
	Runoff     [MonthsPerYear]float64 // mm

	// yearEndStorage holds the storage at the end of each completed year.
	yearEndStorage []float64
}

// YearEndStorage returns the soil water storage at the end of each
// simulated year so far [mm].
func (c *Cell) YearEndStorage() []float64 { return c.yearEndStorage }

// MeanTemperature returns the mean temperature in month m [°C].
func (c *Cell) MeanTemperature(m Month) float64 {
	return (c.TMax[m] + c.TMin[m]) / 2
}

// DomainManipulator is a class of functions that operate on the entire
// model domain.
type DomainManipulator func(d *Model) error

// CellManipulator is a class of functions that operate on a single grid
// cell.
type CellManipulator func(c *Cell)

// BucketStep advances the soil water bucket in a single cell by one month.
// It returns the actual evaporation, the runoff, and the new storage.
type BucketStep func(storage, precipitation, potentialEvap, maxStorage float64) (actualEvap, runoff, newStorage float64)

// Init initializes the simulation by running d.InitFuncs.
func (d *Model) Init() error {
	if d.Years < 1 {
		d.Years = DefaultYears
	}
	for _, f := range d.InitFuncs {
		if err := f(d); err != nil {
			return err
		}
	}
	return nil
}

// Run carries out the simulation by running d.RunFuncs until d.Done is
// true.
func (d *Model) Run() error {
	if d.cells == nil {
		return fmt.Errorf("budyko: the model must be loaded before it is run")
	}
	for !d.Done {
		for _, f := range d.RunFuncs {
			if err := f(d); err != nil {
				return err
			}
		}
	}
	return nil
}

// Cleanup finishes the simulation by running d.CleanupFuncs.
func (d *Model) Cleanup() error {
	for _, f := range d.CleanupFuncs {
		if err := f(d); err != nil {
			return err
		}
	}
	return nil
}

// Cells returns the model grid cells, in the order of the input grids.
func (d *Model) Cells() []*Cell { return d.cells }

// Inputs returns the data the model was loaded from.
func (d *Model) Inputs() *Inputs { return d.inputs }

// Year returns the zero-based index of the year currently being simulated.
func (d *Model) Year() int { return d.year }

// FinalYear returns whether the year currently being simulated is the one
// whose fluxes are retained.
func (d *Model) FinalYear() bool { return d.year >= d.Years-1 }

// Load returns a function that validates in and creates the model grid
// cells from it. Cells with no-data in any input are flagged as Missing.
// The output grids are allocated and filled with in.NoData. Load must be
// the first of the InitFuncs; the simulation does not start if the
// inputs are inconsistent.
func Load(in *Inputs) DomainManipulator {
	return func(d *Model) error {
		if err := in.Validate(); err != nil {
			return err
		}
		d.inputs = in
		d.cells = make([]*Cell, in.NumCells)
		for i := range d.cells {
			c := &Cell{Index: i}
			if in.missing(i) {
				c.Missing = true
				d.cells[i] = c
				continue
			}
			c.Elevation = in.Elevation[i]
			c.Latitude = in.Latitude[i]
			c.KRs = in.KRs[i]
			c.MaxStorage = in.MaxStorage[i]
			for m := January; m <= December; m++ {
				c.Precipitation[m] = in.Precipitation.At(i, m)
				c.TMin[m] = in.TMin.At(i, m)
				c.TMax[m] = in.TMax.At(i, m)
			}
			d.cells[i] = c
		}
		d.outputs = newOutputs(in.NumCells, in.NoData)
		return nil
	}
}
