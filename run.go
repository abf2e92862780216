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
	"runtime"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Calculations returns a function that concurrently runs a series of
// calculations on all of the non-missing model grid cells.
func Calculations(calculators ...CellManipulator) DomainManipulator {
	return func(d *Model) error {
		d.parallel(func(c *Cell) {
			for _, f := range calculators {
				f(c)
			}
		})
		return nil
	}
}

// parallel runs f on every non-missing cell, spreading the cells across
// GOMAXPROCS workers. Each cell is handled by exactly one worker, so f
// may modify the cell it is given without locking.
func (d *Model) parallel(f func(c *Cell)) {
	nprocs := runtime.GOMAXPROCS(0)
	var wg sync.WaitGroup
	wg.Add(nprocs)
	for pp := 0; pp < nprocs; pp++ {
		go func(pp int) {
			for ii := pp; ii < len(d.cells); ii += nprocs {
				c := d.cells[ii]
				if c.Missing {
					continue
				}
				f(c)
			}
			wg.Done()
		}(pp)
	}
	wg.Wait()
}

// InitializeStorage returns a function that sets the soil water storage
// in each cell to half of its holding capacity.
func InitializeStorage() DomainManipulator {
	return func(d *Model) error {
		for _, c := range d.cells {
			if c.Missing {
				continue
			}
			c.Storage = c.MaxStorage / 2
			c.yearEndStorage = c.yearEndStorage[:0]
		}
		d.year = 0
		d.Done = false
		return nil
	}
}

// AnnualCycle returns a function that simulates one year of the water
// balance. For each cell, step is applied to the months in calendar
// order, starting with January, using the potential evaporation that was
// calculated during initialization. During the final simulated year the
// fluxes are also copied to the model outputs.
func AnnualCycle(step BucketStep) DomainManipulator {
	return func(d *Model) error {
		final := d.FinalYear()
		d.parallel(func(c *Cell) {
			for m := January; m <= December; m++ {
				c.ActualEvap[m], c.Runoff[m], c.Storage = step(c.Storage, c.Precipitation[m], c.PotentialEvap[m], c.MaxStorage)
			}
			if final {
				d.outputs.set(c)
			}
		})
		return nil
	}
}

// EquilibriumStatus describes how far the soil water storage is from a
// repeating annual cycle at the end of a simulated year.
type EquilibriumStatus struct {
	Year int // one-based

	// MaxChange is the largest absolute change in end-of-year storage
	// among all cells since the previous year [mm]. It is NaN after the
	// first year or if the storage in any cell is not finite.
	MaxChange float64

	// Cell is the index of the cell with the largest change, or -1.
	Cell int

	// Final is true for the year whose fluxes are retained.
	Final bool
}

func (s EquilibriumStatus) String() string {
	if s.Cell == -1 {
		return fmt.Sprintf("year %d: spin-up started", s.Year)
	}
	return fmt.Sprintf("year %d: maximum change in end-of-year storage = %.3g mm (cell %d)", s.Year, s.MaxChange, s.Cell)
}

// YearCheck returns a function that records the end-of-year soil water
// storage in each cell and finishes the simulation after d.Years years
// have been simulated. If c is not nil, the equilibrium status after each
// year is sent to it.
func YearCheck(c chan EquilibriumStatus) DomainManipulator {
	return func(d *Model) error {
		s := EquilibriumStatus{
			Year:      d.year + 1,
			MaxChange: math.NaN(),
			Cell:      -1,
			Final:     d.FinalYear(),
		}
		for _, cell := range d.cells {
			if cell.Missing {
				continue
			}
			if n := len(cell.yearEndStorage); n > 0 {
				change := math.Abs(cell.Storage - cell.yearEndStorage[n-1])
				if s.Cell == -1 || change > s.MaxChange || math.IsNaN(change) {
					s.MaxChange = change
					s.Cell = cell.Index
				}
			}
			cell.yearEndStorage = append(cell.yearEndStorage, cell.Storage)
		}
		if c != nil {
			c <- s
		}
		if s.Final {
			d.Done = true
		} else {
			d.year++
		}
		return nil
	}
}

// Log returns a function that writes a status message for each simulated
// year to l.
func Log(l logrus.FieldLogger) DomainManipulator {
	startTime := time.Now()
	yearTime := time.Now()
	return func(d *Model) error {
		l.WithFields(logrus.Fields{
			"year":      d.year + 1,
			"of":        d.Years,
			"walltime":  time.Since(startTime).Round(time.Millisecond),
			"Δwalltime": time.Since(yearTime).Round(time.Millisecond),
		}).Info("simulated year")
		yearTime = time.Now()
		return nil
	}
}
