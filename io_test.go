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

package budyko_test

import (
	"io/ioutil"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/Knetic/govaluate"
	"github.com/ctessum/sparse"
	"github.com/spatialmodel/budyko"
)

func testInputs() *budyko.Inputs {
	in := budyko.UniformInputs(4, 250, -0.5, 0.16, 120, 40, 8, 22)
	for i := range in.Precipitation {
		in.Precipitation[i] = float64(i % 17)
	}
	in.Elevation[3] = in.NoData
	return in
}

func TestReadWriteInputsNCF(t *testing.T) {
	dir, err := ioutil.TempDir("", "budyko")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)
	fname := filepath.Join(dir, "inputs.ncf")

	in := testInputs()
	f, err := os.Create(fname)
	if err != nil {
		t.Fatal(err)
	}
	if err = budyko.WriteInputsNCF(f, in); err != nil {
		t.Fatal(err)
	}
	f.Close()

	f, err = os.Open(fname)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	in2, err := budyko.LoadInputsNCF(f)
	if err != nil {
		t.Fatal(err)
	}
	if in2.NumCells != in.NumCells || in2.NoData != in.NoData {
		t.Fatalf("have %d cells and no-data %g, want %d and %g", in2.NumCells, in2.NoData, in.NumCells, in.NoData)
	}
	compare := func(name string, a, b []float64) {
		if len(a) != len(b) {
			t.Errorf("%s: length %d != %d", name, len(a), len(b))
			return
		}
		for i := range a {
			if math.Abs(a[i]-b[i]) > 1e-6*math.Max(1, math.Abs(b[i])) {
				t.Errorf("%s[%d]: %g != %g", name, i, a[i], b[i])
			}
		}
	}
	compare("Elevation", in2.Elevation, in.Elevation)
	compare("Latitude", in2.Latitude, in.Latitude)
	compare("KRs", in2.KRs, in.KRs)
	compare("MaxStorage", in2.MaxStorage, in.MaxStorage)
	compare("Precipitation", in2.Precipitation, in.Precipitation)
	compare("TMin", in2.TMin, in.TMin)
	compare("TMax", in2.TMax, in.TMax)
	if !in2.IsMissing(in2.Elevation[3]) {
		t.Error("no-data value should survive the round trip")
	}
}

func TestWriteOutputsNCF(t *testing.T) {
	d := newModel(testInputs(), 0, nil)
	run(t, d)
	o, err := budyko.NewOutputter(map[string]string{
		"Deficit":   "PotentialEvap - ActualEvap",
		"RunoffPct": "Runoff / Precipitation * 100",
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	extra, err := o.Evaluate(d)
	if err != nil {
		t.Fatal(err)
	}

	dir, err := ioutil.TempDir("", "budyko")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)
	fname := filepath.Join(dir, "outputs.ncf")
	f, err := os.Create(fname)
	if err != nil {
		t.Fatal(err)
	}
	if err = d.Results().WriteNCF(f, extra); err != nil {
		t.Fatal(err)
	}
	f.Close()

	f, err = os.Open(fname)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	res, err := budyko.LoadOutputsNCF(f)
	if err != nil {
		t.Fatal(err)
	}
	want := d.Results()
	for _, name := range budyko.OutputNames {
		a, _ := res.Variable(name)
		b, _ := want.Variable(name)
		for i := range b.Elements {
			if math.Abs(a.Elements[i]-b.Elements[i]) > 1e-5*math.Max(1, math.Abs(b.Elements[i])) {
				t.Errorf("%s[%d]: %g != %g", name, i, a.Elements[i], b.Elements[i])
			}
		}
	}

	if err = d.Results().WriteNCF(f, map[string]*sparse.DenseArray{"Runoff": extra["Deficit"]}); err == nil {
		t.Error("a derived variable with the name of a model output should be an error")
	}
}

func TestOutputter(t *testing.T) {
	d := newModel(testInputs(), 0, nil)
	run(t, d)
	o, err := budyko.NewOutputter(map[string]string{
		"Deficit":    "PotentialEvap - ActualEvap",
		"DeficitPct": "Deficit / PotentialEvap * 100",
		"Warmest":    "max(TMax, TMin)",
		"RootRunoff": "sqrt(Runoff)",
		"Scaled":     "double(ActualEvap)",
		"Zero":       "Runoff * 0",
	}, map[string]govaluate.ExpressionFunction{
		"double": func(arg ...interface{}) (interface{}, error) {
			return 2 * arg[0].(float64), nil
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	vars, err := o.Evaluate(d)
	if err != nil {
		t.Fatal(err)
	}
	res := d.Results()
	for m := 0; m < budyko.MonthsPerYear; m++ {
		pet := res.PotentialEvap.Get(0, m)
		aet := res.ActualEvap.Get(0, m)
		if v := vars["Deficit"].Get(0, m); different(v, pet-aet, 1e-10) {
			t.Errorf("Deficit month %d: %g != %g", m+1, v, pet-aet)
		}
		if v := vars["DeficitPct"].Get(0, m); different(v, (pet-aet)/pet*100, 1e-10) {
			t.Errorf("DeficitPct month %d: %g != %g", m+1, v, (pet-aet)/pet*100)
		}
		if v := vars["Warmest"].Get(0, m); v != 22 {
			t.Errorf("Warmest month %d: %g != 22", m+1, v)
		}
		if v := vars["Scaled"].Get(0, m); v != 2*aet {
			t.Errorf("Scaled month %d: %g != %g", m+1, v, 2*aet)
		}
		if v := vars["Zero"].Get(0, m); v != 0 {
			t.Errorf("Zero month %d: %g != 0", m+1, v)
		}
		if v := vars["Deficit"].Get(3, m); v != res.NoData {
			t.Errorf("missing cell should have no-data but has %g", v)
		}
	}

	errorTests := map[string]map[string]string{
		"undefined variable": {"X": "Y * 2"},
		"self reference":     {"A": "B + 1", "B": "A + 1"},
		"invalid name":       {"a b": "Runoff"},
		"model name":         {"Runoff": "ActualEvap"},
		"syntax":             {"X": "Runoff +"},
	}
	for name, vars := range errorTests {
		t.Run(name, func(t *testing.T) {
			if _, err := budyko.NewOutputter(vars, nil); err == nil {
				t.Error("should be an error")
			}
		})
	}
	t.Run("non-numeric argument", func(t *testing.T) {
		o, err := budyko.NewOutputter(map[string]string{"X": "sqrt(Runoff > 0)"}, nil)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := o.Evaluate(d); err == nil {
			t.Error("should be an error")
		}
	})
}
