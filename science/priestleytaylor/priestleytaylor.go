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

// Package priestleytaylor calculates potential evaporation with the
// Priestley-Taylor equation.
package priestleytaylor

import (
	"math"

	"github.com/spatialmodel/budyko"
)

// Alpha is the Priestley-Taylor coefficient.
const Alpha = 1.26

// PotentialEvaporation returns the potential evaporation [mm] for mean air
// temperature t [°C], elevation z [m], and net radiation rn [MJ/m²/day].
// The result is not finite when t is -237.3 °C.
func PotentialEvaporation(t, z, rn float64) float64 {
	p := 101.38 * math.Pow((293-0.0065*z)/293, 5.26) // atmospheric pressure [kPa]
	es := 0.6108 * math.Exp(17.27*t/(t+273.3))        // saturation vapor pressure [kPa]
	lambda := 2.501 - 0.002361*t                      // latent heat of vaporization [MJ/kg]
	gamma := 0.0016286 * p / lambda                   // psychrometric constant [kPa/°C]
	delta := 4098 * es / ((t + 237.3) * (t + 237.3))  // slope of the vapor pressure curve [kPa/°C]
	return Alpha * rn / (lambda * (1 + gamma/delta))
}

// Calculate returns a function that calculates the potential evaporation
// in each month of the year. The net radiation must already have been
// calculated.
func Calculate() budyko.CellManipulator {
	return func(c *budyko.Cell) {
		for m := budyko.January; m <= budyko.December; m++ {
			c.PotentialEvap[m] = PotentialEvaporation(c.MeanTemperature(m), c.Elevation, c.NetRadiation[m])
		}
	}
}
