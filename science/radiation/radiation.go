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

// Package radiation estimates daily net radiation at the land surface
// from latitude, elevation, the time of year, and the daily temperature
// range. Incoming shortwave radiation follows the Hargreaves
// temperature-range method and net longwave radiation follows FAO-56
// with linearized Stefan-Boltzmann terms.
package radiation

import (
	"math"

	"github.com/spatialmodel/budyko"
)

const (
	// raCoefficient combines the solar constant (0.0820 MJ/m²/min) with
	// the number of minutes in a day divided by π.
	raCoefficient = 37.58603136

	// rsoElevationCoefficient scales the clear-sky radiation fraction with
	// elevation [1/m]. FAO-56 eq. 37 gives 2e-5; 2e5 is kept to reproduce
	// the existing model results. Above sea level it makes Rs/Rso
	// nearly zero and the cloudiness factor nearly -1.35.
	rsoElevationCoefficient = 2e5

	// albedo of the reference grass surface.
	albedo = 0.23

	// Linearized Stefan-Boltzmann term: σT⁴ ≈ sbSlope·T + sbIntercept
	// for T in °C, in MJ/m²/day.
	sbSlope     = 0.5195
	sbIntercept = 26.361

	daysPerYear = 365.
)

// InverseRelativeDistance returns the inverse relative distance between
// the Earth and the Sun on day of year j.
func InverseRelativeDistance(j float64) float64 {
	return 1 + 0.033*math.Cos(2*math.Pi*j/daysPerYear)
}

// SolarDeclination returns the solar declination on day of year j
// [radians].
func SolarDeclination(j float64) float64 {
	return 0.409 * math.Sin(2*math.Pi*j/daysPerYear-1.39)
}

// NetRadiation returns the net radiation at the surface [MJ/m²/day].
// lat is the latitude and decl is the solar declination, both in radians.
// z is the elevation [m], dr is the inverse relative Earth-Sun distance,
// kRs is the Hargreaves radiation adjustment coefficient, and tMax and
// tMin are the mean daily maximum and minimum temperatures [°C].
//
// tMax must not be less than tMin. When -tan(lat)·tan(decl) is outside
// of [-1, 1], which happens during polar day and polar night, the sunset
// hour angle is undefined and the result is NaN.
func NetRadiation(lat, z, dr, decl, kRs, tMax, tMin float64) float64 {
	// Sunset hour angle.
	ws := math.Acos(-math.Tan(lat) * math.Tan(decl))

	// Extraterrestrial radiation.
	ra := raCoefficient * dr * (ws*math.Sin(lat)*math.Sin(decl) + math.Cos(lat)*math.Cos(decl)*math.Sin(ws))

	rs := kRs * math.Sqrt(tMax-tMin) * ra            // incoming shortwave
	rso := (0.75 + rsoElevationCoefficient*z) * ra // clear-sky shortwave
	rns := (1 - albedo) * rs                         // net shortwave

	sTmax4 := sbSlope*tMax + sbIntercept
	sTmin4 := sbSlope*tMin + sbIntercept
	sbAvg := (sTmax4 + sTmin4) / 2

	// Actual vapor pressure, taking the minimum temperature as the dew
	// point [kPa].
	ea := 0.6108 * math.Exp(17.27*tMin/(tMin+273.3))

	humidity := 0.34 - 0.14*math.Sqrt(ea)
	cloudiness := 1.35*(rs/rso) - 1.35

	rnl := sbAvg * humidity * cloudiness // net longwave
	return rns - rnl
}

// Calculate returns a function that calculates the net radiation in each
// month of the year.
func Calculate() budyko.CellManipulator {
	return func(c *budyko.Cell) {
		for m := budyko.January; m <= budyko.December; m++ {
			j := m.JulianDay()
			c.NetRadiation[m] = NetRadiation(c.Latitude, c.Elevation,
				InverseRelativeDistance(j), SolarDeclination(j), c.KRs, c.TMax[m], c.TMin[m])
		}
	}
}
