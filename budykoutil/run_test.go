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
	"bytes"
	"context"
	"fmt"
	"io/ioutil"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spatialmodel/budyko"
	"github.com/spatialmodel/budyko/internal/ascgrid"
	"github.com/spf13/cobra"
)

func TestRun(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)
	ic := writeTestGrids(t, dir)

	cmd := &cobra.Command{}
	out := new(bytes.Buffer)
	cmd.SetOutput(out)
	outputFile := filepath.Join(dir, "out.ncf")
	reports := &Reports{
		ReportFile:   filepath.Join(dir, "budget.xlsx"),
		PlotFile:     filepath.Join(dir, "budget.png"),
		ManifestFile: filepath.Join(dir, "manifest.toml"),
		Settings:     map[string]interface{}{"NumYears": 3},
	}
	err := Run(context.Background(), cmd, checkLogFile("", outputFile), outputFile, filepath.Join(dir, "grids"),
		map[string]string{"Deficit": "PotentialEvap - ActualEvap"}, ic, 3, 1.9, reports)
	if err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(outputFile)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	res, err := budyko.LoadOutputsNCF(f)
	if err != nil {
		t.Fatal(err)
	}
	if res.NumCells != 12 {
		t.Fatalf("have %d cells, want 12", res.NumCells)
	}
	for _, i := range []int{0, 5} {
		if v := res.Runoff.Get(i, 0); v != -9999 {
			t.Errorf("cell %d should be missing but has runoff %g", i, v)
		}
	}
	for m := 0; m < budyko.MonthsPerYear; m++ {
		if v := res.ActualEvap.Get(4, m); math.IsNaN(v) || v < 0 {
			t.Errorf("cell 4 month %d actual evaporation: %g", m+1, v)
		}
	}

	// The ASCII grids hold the same values as the netCDF file.
	_, rn, err := ascgrid.ReadFile(filepath.Join(dir, "grids", "rn07.asc"))
	if err != nil {
		t.Fatal(err)
	}
	if a, b := rn.Get(1, 3), res.NetRadiation.Get(7, 6); math.Abs(a-b) > 1e-5*math.Abs(b) {
		t.Errorf("net radiation: ASCII %g != netCDF %g", a, b)
	}
	for _, name := range []string{"Ea01.asc", "Ep12.asc", "Runoff06.asc", "Deficit03.asc",
		"budget.xlsx", "budget.png", "manifest.toml", "out.log"} {
		if _, err := os.Stat(filepath.Join(dir, "grids", name)); err == nil {
			continue
		}
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing output %s", name)
		}
	}

	m, err := ReadManifest(reports.ManifestFile)
	if err != nil {
		t.Fatal(err)
	}
	if m.Years != 3 || m.NumMissing != 2 {
		t.Errorf("manifest: %+v", m)
	}
	if _, ok := m.Outputs["Deficit"]; !ok {
		t.Error("the manifest should summarize derived variables")
	}

	logText, err := ioutil.ReadFile(filepath.Join(dir, "out.log"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(logText), "simulated year") || !strings.Contains(string(logText), "spin-up started") {
		t.Errorf("log file:\n%s", logText)
	}
	if out.String() != string(logText) {
		t.Error("the command output should match the log file")
	}
}

func TestRunBadOutputVariable(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)
	ic := writeTestGrids(t, dir)
	cmd := &cobra.Command{}
	cmd.SetOutput(ioutil.Discard)
	outputFile := filepath.Join(dir, "out.ncf")
	err := Run(context.Background(), cmd, checkLogFile("", outputFile), outputFile, "",
		map[string]string{"X": "NotAVariable * 2"}, ic, 4, 1.9, nil)
	if err == nil {
		t.Error("an undefined variable should be an error")
	}
	if _, err := os.Stat(outputFile); err == nil {
		t.Error("no output should be written")
	}
}

func TestRootCommand(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)
	ic := writeTestGrids(t, dir)

	cfgFile := filepath.Join(dir, "config.toml")
	cfg := fmt.Sprintf(`NumYears = 2
OutputFile = %q
OutputVariables = '{"Deficit":"PotentialEvap - ActualEvap"}'
ManifestFile = %q

[Inputs]
Elevation = %q
MaxStorage = %q
KRs = %q
Precipitation = %q
TMin = %q
TMax = %q
`, filepath.Join(dir, "out.ncf"), filepath.Join(dir, "manifest.toml"),
		ic.Elevation, ic.MaxStorage, ic.KRs, ic.Precipitation, ic.TMin, ic.TMax)
	if err := ioutil.WriteFile(cfgFile, []byte(cfg), 0644); err != nil {
		t.Fatal(err)
	}

	out := new(bytes.Buffer)
	Root.SetOutput(out)
	Root.SetArgs([]string{"run", "--config=" + cfgFile})
	if err := Root.Execute(); err != nil {
		t.Fatal(err)
	}
	m, err := ReadManifest(filepath.Join(dir, "manifest.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if m.Years != 2 {
		t.Errorf("have %d years, want 2", m.Years)
	}
	if _, ok := m.Outputs["Deficit"]; !ok {
		t.Error("missing derived variable")
	}

	out.Reset()
	Root.SetArgs([]string{"version"})
	if err := Root.Execute(); err != nil {
		t.Fatal(err)
	}
	if want := "budyko v" + budyko.Version; !strings.HasPrefix(out.String(), want) {
		t.Errorf("have %q, want prefix %q", out.String(), want)
	}
}
