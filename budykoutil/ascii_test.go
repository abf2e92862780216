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
	"os"
	"path/filepath"
	"testing"

	"github.com/ctessum/sparse"
	"github.com/spatialmodel/budyko"
	"github.com/spatialmodel/budyko/internal/ascgrid"
)

func TestWriteASCII(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)

	a := sparse.ZerosDense(12, budyko.MonthsPerYear)
	b := sparse.ZerosDense(12, budyko.MonthsPerYear)
	for i := 0; i < 12; i++ {
		for m := 0; m < budyko.MonthsPerYear; m++ {
			a.Set(float64(100*m+i), i, m)
			b.Set(float64(-i), i, m)
		}
	}
	outDir := filepath.Join(dir, "grids")
	files, err := WriteASCII(outDir, testGrid, map[string]*sparse.DenseArray{
		"ActualEvap": a,
		"Deficit":    b,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 24 {
		t.Errorf("have %d files, want 24", len(files))
	}
	h, data, err := ascgrid.ReadFile(filepath.Join(outDir, "Ea03.asc"))
	if err != nil {
		t.Fatal(err)
	}
	if !h.SameGrid(testGrid) {
		t.Errorf("header: %+v", h)
	}
	// Cell 6 is in row 1, column 2.
	if v := data.Get(1, 2); v != 206 {
		t.Errorf("have %g, want 206", v)
	}
	if _, err := os.Stat(filepath.Join(outDir, "Deficit12.asc")); err != nil {
		t.Error(err)
	}

	if _, err := WriteASCII(outDir, testGrid, map[string]*sparse.DenseArray{
		"Runoff": sparse.ZerosDense(5, budyko.MonthsPerYear),
	}); err == nil {
		t.Error("an array that does not match the grid should be an error")
	}
}
