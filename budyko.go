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

// Package budyko is a gridded monthly water balance model. Each grid cell
// holds a soil water bucket that is filled by precipitation and emptied by
// evaporation, with the partitioning between the two following Fu's form of
// the Budyko curve. Potential evaporation is calculated with the
// Priestley-Taylor method from net radiation estimated from the daily
// temperature range.
//
// The model is run by repeating a climatological year of monthly forcing
// until the soil water storage in every cell settles into a repeating annual
// cycle. Only the fluxes from the final simulated year are kept.
package budyko

import "fmt"

// Version gives the version number.
const Version = "1.0.0"

// DataVersion is the version of the netCDF file format read and written
// by this package.
const DataVersion = "1.0.0"

// MonthsPerYear is the number of monthly time steps in a simulated year.
const MonthsPerYear = 12

// DefaultYears is the number of annual cycles simulated by default.
// The first DefaultYears-1 years spin up the soil water storage and the
// fluxes from the last year are retained.
const DefaultYears = 4

// Month is a zero-based calendar month index, where January is 0.
type Month int

// Calendar months.
const (
	January Month = iota
	February
	March
	April
	May
	June
	July
	August
	September
	October
	November
	December
)

// JulianDay returns the day of the year that represents month m in the
// radiation calculations. It panics if m is not a valid month.
func (m Month) JulianDay() float64 {
	return [MonthsPerYear]float64{15, 45, 74, 105, 135, 166, 196, 227, 258, 288, 319, 349}[m]
}

// String returns the two-digit, one-based month number used in file names,
// e.g. "01" for January.
func (m Month) String() string {
	return fmt.Sprintf("%02d", int(m)+1)
}
