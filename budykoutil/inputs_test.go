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
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ctessum/sparse"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/spatialmodel/budyko"
	"github.com/spatialmodel/budyko/internal/ascgrid"
)

// testGrid is the header of the grids written by writeTestGrids.
var testGrid = ascgrid.Header{NCols: 4, NRows: 3, XLL: 140, YLL: -32, CellSize: 1, NoData: -9999}

// writeTestGrids writes a complete set of ASCII input grids to dir and
// returns their locations. Cell 0 has no elevation data and cell 5 has no
// precipitation data, which uses a different no-data value.
func writeTestGrids(t *testing.T, dir string) *InputConfig {
	write := func(name string, h ascgrid.Header, f func(i int) float64) {
		data := sparse.ZerosDense(h.NRows, h.NCols)
		for i := range data.Elements {
			data.Elements[i] = f(i)
		}
		if err := ascgrid.WriteFile(filepath.Join(dir, name), h, data); err != nil {
			t.Fatal(err)
		}
	}
	write("DEM.asc", testGrid, func(i int) float64 {
		if i == 0 {
			return -9999
		}
		return float64(100 * i)
	})
	write("PAWHC.asc", testGrid, func(i int) float64 { return 80 + float64(i) })
	write("kRs.asc", testGrid, func(int) float64 { return 0.17 })
	prGrid := testGrid
	prGrid.NoData = -1
	for m := 0; m < budyko.MonthsPerYear; m++ {
		m := m
		write(ascgrid.MonthFile("pr[MONTH].asc", m), prGrid, func(i int) float64 {
			if i == 5 {
				return -1
			}
			return float64(20 + 10*(m%6) + i)
		})
		write(ascgrid.MonthFile("tasmin[MONTH].asc", m), testGrid, func(int) float64 { return 8 + float64(m%4) })
		write(ascgrid.MonthFile("tasmax[MONTH].asc", m), testGrid, func(int) float64 { return 22 + float64(m%4) })
	}
	return &InputConfig{
		Elevation:     filepath.Join(dir, "DEM.asc"),
		MaxStorage:    filepath.Join(dir, "PAWHC.asc"),
		KRs:           filepath.Join(dir, "kRs.asc"),
		Precipitation: filepath.Join(dir, "pr[MONTH].asc"),
		TMin:          filepath.Join(dir, "tasmin[MONTH].asc"),
		TMax:          filepath.Join(dir, "tasmax[MONTH].asc"),
		NoData:        -9999,
	}
}

func tempDir(t *testing.T) string {
	dir, err := ioutil.TempDir("", "budykoutil")
	if err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestLoadInputs(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)
	ic := writeTestGrids(t, dir)
	log, _ := test.NewNullLogger()

	in, h, err := LoadInputs(context.Background(), ic, log)
	if err != nil {
		t.Fatal(err)
	}
	if in.NumCells != 12 {
		t.Fatalf("have %d cells, want 12", in.NumCells)
	}
	if h == nil || !h.SameGrid(testGrid) || h.NoData != -9999 {
		t.Errorf("header: %+v", h)
	}
	if !in.IsMissing(in.Elevation[0]) {
		t.Errorf("cell 0 elevation should be missing but is %g", in.Elevation[0])
	}
	if v := in.Precipitation.At(5, budyko.March); v != -9999 {
		t.Errorf("the precipitation no-data value should be converted but cell 5 has %g", v)
	}
	if v := in.Precipitation.At(2, budyko.March); v != 42 {
		t.Errorf("cell 2 March precipitation: have %g, want 42", v)
	}
	if v := in.TMax.At(7, budyko.April); v != 25 {
		t.Errorf("cell 7 April maximum temperature: have %g, want 25", v)
	}
	// Cells 0-3 are in the northernmost row, at -30°.
	lat := h.Latitudes()
	if in.Latitude[1] != lat[0] || in.Latitude[11] != lat[2] {
		t.Errorf("latitudes: %v", in.Latitude)
	}
}

func TestLoadInputsMismatch(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)
	ic := writeTestGrids(t, dir)
	log, _ := test.NewNullLogger()

	other := testGrid
	other.XLL = 100
	if err := ascgrid.WriteFile(filepath.Join(dir, "kRs2.asc"), other, sparse.ZerosDense(3, 4)); err != nil {
		t.Fatal(err)
	}
	ic.KRs = filepath.Join(dir, "kRs2.asc")
	_, _, err := LoadInputs(context.Background(), ic, log)
	if err == nil || !strings.Contains(err.Error(), "does not match") {
		t.Errorf("have error %v, want a grid mismatch", err)
	}

	ic.KRs = filepath.Join(dir, "missing.asc")
	if _, _, err := LoadInputs(context.Background(), ic, log); err == nil {
		t.Error("a missing file should be an error")
	}
}

func TestLoadInputsNCF(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)
	want := budyko.UniformInputs(3, 50, -0.3, 0.18, 90, 30, 10, 20)
	fname := filepath.Join(dir, "inputs.ncf")
	f, err := os.Create(fname)
	if err != nil {
		t.Fatal(err)
	}
	if err := budyko.WriteInputsNCF(f, want); err != nil {
		t.Fatal(err)
	}
	f.Close()

	log, _ := test.NewNullLogger()
	in, h, err := LoadInputs(context.Background(), &InputConfig{NCF: fname}, log)
	if err != nil {
		t.Fatal(err)
	}
	if h != nil {
		t.Error("netCDF inputs should not have a grid header")
	}
	if in.NumCells != 3 || in.MaxStorage[2] != 90 {
		t.Errorf("inputs: %+v", in)
	}
}
