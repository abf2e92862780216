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

// Package budykobucket provides a single-layer soil water bucket in which
// the split of available water into evaporation follows Fu's form of the
// Budyko curve, and water in excess of the holding capacity runs off.
package budykobucket

import "math"

// DefaultExponent is the shape parameter of the Budyko curve used by Step.
const DefaultExponent = 1.9

// Bucket is a soil water bucket with a configurable Budyko curve shape.
type Bucket struct {
	// Exponent is the shape parameter of the Budyko curve. Larger values
	// bring actual evaporation closer to the smaller of the available
	// water and the potential evaporation.
	Exponent float64
}

// Step advances the bucket by one month using DefaultExponent.
// storage is the soil water at the start of the month, precipitation and
// potentialEvap are the monthly totals, and maxStorage is the holding
// capacity, all in mm. It returns the actual evaporation, the runoff, and
// the storage at the end of the month.
//
// Water is conserved: storage + precipitation equals
// actualEvap + runoff + newStorage.
func Step(storage, precipitation, potentialEvap, maxStorage float64) (actualEvap, runoff, newStorage float64) {
	return Bucket{Exponent: DefaultExponent}.Step(storage, precipitation, potentialEvap, maxStorage)
}

// Step advances the bucket by one month. See the Step function for a
// description of the arguments and return values.
func (b Bucket) Step(storage, precipitation, potentialEvap, maxStorage float64) (actualEvap, runoff, newStorage float64) {
	w := storage + precipitation // available water
	actualEvap = b.ActualEvaporation(w, potentialEvap)
	v := w - actualEvap
	if v > maxStorage {
		return actualEvap, v - maxStorage, maxStorage
	}
	return actualEvap, 0, v
}

// ActualEvaporation returns the evaporation from available water w given
// potential evaporation pet. It approaches the smaller of w and pet as
// the other becomes large, and is zero if either one is zero. It never
// exceeds w, so storage cannot go negative. Negative pet is not valid and
// gives a NaN result.
func (b Bucket) ActualEvaporation(w, pet float64) float64 {
	if w == 0 || pet == 0 {
		return 0
	}
	n := b.Exponent
	// When w is much smaller than pet the curve rounds to slightly more
	// than w.
	return math.Min(pet*w/math.Pow(math.Pow(w, n)+math.Pow(pet, n), 1/n), w)
}
