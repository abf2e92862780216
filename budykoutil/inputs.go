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
	"context"
	"fmt"
	"os"

	"github.com/ctessum/sparse"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/budyko"
	"github.com/spatialmodel/budyko/internal/ascgrid"
)

// LoadInputs reads the model inputs from the locations specified by ic,
// downloading them first if necessary. When the inputs are read from ESRI
// ASCII grids, the shared grid header is returned as well, with its
// no-data value set to ic.NoData. Otherwise the returned header is nil.
func LoadInputs(ctx context.Context, ic *InputConfig, log logrus.FieldLogger) (*budyko.Inputs, *ascgrid.Header, error) {
	if ic.NCF != "" {
		path, err := maybeDownload(ctx, ic.NCF, log)
		if err != nil {
			return nil, nil, err
		}
		f, err := os.Open(path)
		if err != nil {
			return nil, nil, fmt.Errorf("budykoutil: problem opening InputNCF: %v", err)
		}
		defer f.Close()
		in, err := budyko.LoadInputsNCF(f)
		if err != nil {
			return nil, nil, fmt.Errorf("budykoutil: problem loading %s: %v", ic.NCF, err)
		}
		return in, nil, nil
	}

	var h0 *ascgrid.Header
	var h0File string
	checkGrid := func(h ascgrid.Header, path string) error {
		if h0 == nil {
			h0 = &h
			h0File = path
			return nil
		}
		if !h.SameGrid(*h0) {
			return fmt.Errorf("budykoutil: the grid in %s (%d×%d at %g, %g) does not match the grid in %s (%d×%d at %g, %g)",
				path, h.NRows, h.NCols, h.XLL, h.YLL, h0File, h0.NRows, h0.NCols, h0.XLL, h0.YLL)
		}
		return nil
	}
	readGrid := func(path string) (*sparse.DenseArray, error) {
		local, err := maybeDownload(ctx, path, log)
		if err != nil {
			return nil, err
		}
		h, data, err := ascgrid.ReadFile(local)
		if err != nil {
			return nil, err
		}
		if err := checkGrid(h, path); err != nil {
			return nil, err
		}
		return ascgrid.Replace(data, h.NoData, ic.NoData), nil
	}
	readMonthly := func(template string) ([budyko.MonthsPerYear]*sparse.DenseArray, error) {
		var o [budyko.MonthsPerYear]*sparse.DenseArray
		local, err := maybeDownload(ctx, template, log)
		if err != nil {
			return o, err
		}
		h, data, err := ascgrid.ReadMonthly(local)
		if err != nil {
			return o, err
		}
		if err := checkGrid(h, template); err != nil {
			return o, err
		}
		for m, d := range data {
			o[m] = ascgrid.Replace(d, h.NoData, ic.NoData)
		}
		return o, nil
	}

	log.WithField("file", ic.Elevation).Info("reading elevation")
	elevation, err := readGrid(ic.Elevation)
	if err != nil {
		return nil, nil, err
	}
	log.WithField("file", ic.MaxStorage).Info("reading soil water holding capacity")
	maxStorage, err := readGrid(ic.MaxStorage)
	if err != nil {
		return nil, nil, err
	}
	log.WithField("file", ic.KRs).Info("reading radiation adjustment coefficient")
	kRs, err := readGrid(ic.KRs)
	if err != nil {
		return nil, nil, err
	}
	log.WithField("files", ic.Precipitation).Info("reading precipitation")
	precip, err := readMonthly(ic.Precipitation)
	if err != nil {
		return nil, nil, err
	}
	log.WithField("files", ic.TMin).Info("reading minimum temperature")
	tMin, err := readMonthly(ic.TMin)
	if err != nil {
		return nil, nil, err
	}
	log.WithField("files", ic.TMax).Info("reading maximum temperature")
	tMax, err := readMonthly(ic.TMax)
	if err != nil {
		return nil, nil, err
	}

	in, err := budyko.InputsFromGrids(elevation, maxStorage, kRs, h0.Latitudes(), precip, tMin, tMax, ic.NoData)
	if err != nil {
		return nil, nil, err
	}
	h := *h0
	h.NoData = ic.NoData
	return in, &h, nil
}
