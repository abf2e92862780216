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
	"math"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/lnashier/viper"
)

func TestGetStringMapString(t *testing.T) {
	cfg := viper.New()
	cfg.Set("json", `{"Deficit":"PotentialEvap - ActualEvap"}`)
	cfg.Set("map", map[string]interface{}{"Deficit": "PotentialEvap - ActualEvap"})
	cfg.Set("empty", "")
	cfg.Set("bad", "{")
	cfg.Set("int", 3)

	want := map[string]string{"Deficit": "PotentialEvap - ActualEvap"}
	for _, name := range []string{"json", "map"} {
		v, err := GetStringMapString(name, cfg)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(v, want) {
			t.Errorf("%s: have %v, want %v", name, v, want)
		}
	}
	for _, name := range []string{"empty", "unset"} {
		v, err := GetStringMapString(name, cfg)
		if err != nil {
			t.Fatal(err)
		}
		if len(v) != 0 {
			t.Errorf("%s: have %v, want an empty map", name, v)
		}
	}
	for _, name := range []string{"bad", "int"} {
		if _, err := GetStringMapString(name, cfg); err == nil {
			t.Errorf("%s: should be an error", name)
		}
	}
}

func TestCheckOutputVars(t *testing.T) {
	os.Setenv("BUDYKO_TEST_VAR", "Runoff")
	defer os.Unsetenv("BUDYKO_TEST_VAR")
	v := checkOutputVars(map[string]string{"X": "$BUDYKO_TEST_VAR\n* 2"})
	if v["X"] != "Runoff * 2" {
		t.Errorf("have %q", v["X"])
	}
}

func TestCheckOutputFile(t *testing.T) {
	if _, err := checkOutputFile(""); err == nil {
		t.Error("an empty output file should be an error")
	}
	if _, err := checkOutputFile("/this/does/not/exist/out.ncf"); err == nil {
		t.Error("a missing output directory should be an error")
	}
	dir := tempDir(t)
	defer os.RemoveAll(dir)
	os.Setenv("BUDYKO_TEST_DIR", dir)
	defer os.Unsetenv("BUDYKO_TEST_DIR")
	f, err := checkOutputFile("${BUDYKO_TEST_DIR}/out.ncf")
	if err != nil {
		t.Fatal(err)
	}
	if f != filepath.Join(dir, "out.ncf") {
		t.Errorf("have %s", f)
	}
}

func TestCheckLogFile(t *testing.T) {
	if f := checkLogFile("", "dir/out.ncf"); f != "dir/out.log" {
		t.Errorf("have %s, want dir/out.log", f)
	}
	if f := checkLogFile("run.log", "dir/out.ncf"); f != "run.log" {
		t.Errorf("have %s, want run.log", f)
	}
}

func TestCheckNumbers(t *testing.T) {
	if _, err := checkNumYears(0); err == nil {
		t.Error("zero years should be an error")
	}
	if n, err := checkNumYears(4); err != nil || n != 4 {
		t.Errorf("have %d, %v", n, err)
	}
	for _, e := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		if _, err := checkBucketExponent(e); err == nil {
			t.Errorf("exponent %g should be an error", e)
		}
	}
	if _, err := checkBucketExponent(1.9); err != nil {
		t.Error(err)
	}
}

func TestCheckReportFiles(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)
	r, err := checkReportFiles(filepath.Join(dir, "b.xlsx"), filepath.Join(dir, "b.svg"), "")
	if err != nil {
		t.Fatal(err)
	}
	if r.ManifestFile != "" || r.PlotFile != filepath.Join(dir, "b.svg") {
		t.Errorf("reports: %+v", r)
	}
	errorTests := map[string][3]string{
		"report extension":   {"b.csv", "", ""},
		"plot extension":     {"", "b.gif", ""},
		"manifest extension": {"", "", "b.json"},
		"missing directory":  {"/this/does/not/exist/b.xlsx", "", ""},
	}
	for name, files := range errorTests {
		t.Run(name, func(t *testing.T) {
			if _, err := checkReportFiles(files[0], files[1], files[2]); err == nil {
				t.Error("should be an error")
			}
		})
	}
}

func TestInputConfig(t *testing.T) {
	cfg := viper.New()
	cfg.Set("InputNCF", "")
	cfg.Set("Inputs.Elevation", "DEM.asc")
	cfg.Set("Inputs.MaxStorage", "PAWHC.asc")
	cfg.Set("Inputs.KRs", "kRs.asc")
	cfg.Set("Inputs.Precipitation", "pr[MONTH].asc")
	cfg.Set("Inputs.TMin", "tasmin[MONTH].asc")
	cfg.Set("Inputs.TMax", "tasmax.asc")
	cfg.Set("NoData", -9999.0)
	if _, err := inputConfig(cfg); err == nil {
		t.Error("a monthly template without a month placeholder should be an error")
	}
	cfg.Set("Inputs.TMax", "tasmax[MONTH].asc")
	ic, err := inputConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if ic.TMax != "tasmax[MONTH].asc" || ic.NoData != -9999 {
		t.Errorf("input config: %+v", ic)
	}
	cfg.Set("Inputs.KRs", "")
	if _, err := inputConfig(cfg); err == nil {
		t.Error("a missing grid should be an error")
	}
	cfg.Set("InputNCF", "inputs.ncf")
	if _, err := inputConfig(cfg); err != nil {
		t.Errorf("grids are not needed with a netCDF file: %v", err)
	}
}
